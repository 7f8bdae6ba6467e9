// Package citas modela citas, pre-citas y el comprobante de pago adjunto.
package citas

import (
	"strings"

	"petla/internal/domain/fechas"
)

// Estado es la máquina de estados de una cita.
type Estado string

const (
	EstadoPendientePago Estado = "pendiente_pago"
	EstadoEnValidacion  Estado = "en_validacion"
	EstadoConfirmada    Estado = "confirmada"
	EstadoAtendida      Estado = "atendida"
	EstadoCancelada     Estado = "cancelada"
	EstadoRechazada     Estado = "rechazada"
)

// transiciones válidas: subir comprobante valida el pago, el admin
// confirma o rechaza, el veterinario atiende. Cancelar se permite desde
// cualquier estado no terminal.
var transiciones = map[Estado][]Estado{
	EstadoPendientePago: {EstadoEnValidacion, EstadoCancelada},
	EstadoEnValidacion:  {EstadoConfirmada, EstadoRechazada, EstadoCancelada},
	EstadoRechazada:     {EstadoEnValidacion, EstadoCancelada},
	EstadoConfirmada:    {EstadoAtendida, EstadoCancelada},
}

// TransicionValida indica si el cambio de estado está permitido.
func TransicionValida(desde, hacia Estado) bool {
	for _, e := range transiciones[desde] {
		if e == hacia {
			return true
		}
	}
	return false
}

// Comprobante es el adjunto de pago: payload base64 (opcionalmente
// comprimido) más metadatos del archivo original.
type Comprobante struct {
	ID            string       `json:"id"` // receipt_{citaId}_{timestamp}
	Datos         string       `json:"datos"`
	NombreArchivo string       `json:"nombreArchivo"`
	TamanoBytes   int64        `json:"tamanoBytes"`
	TipoMime      string       `json:"tipoMime"`
	FechaCaptura  fechas.Fecha `json:"fechaCaptura"`
	Comprimido    bool         `json:"comprimido,omitempty"`
}

// Cita se persiste con los nombres de campo legados. Mascota (nombre en
// texto libre) es la clave de join autoritativa para datos legados;
// MascotaID / ClienteID / ClienteNombre son backfill que el motor de
// reconciliación mantiene consistente.
type Cita struct {
	ID              string       `json:"id"`
	Mascota         string       `json:"mascota"`
	MascotaID       string       `json:"mascotaId,omitempty"`
	Especie         string       `json:"especie"`
	ClienteID       string       `json:"clienteId,omitempty"`
	ClienteNombre   string       `json:"clienteNombre,omitempty"`
	Fecha           fechas.Fecha `json:"fecha"`
	Estado          Estado       `json:"estado"`
	Veterinario     string       `json:"veterinario"` // match por nombre contra usuarios
	Motivo          string       `json:"motivo"`
	TipoConsulta    string       `json:"tipoConsulta"`
	Ubicacion       string       `json:"ubicacion"`
	Precio          float64      `json:"precio"`
	Notas           string       `json:"notas,omitempty"`
	NotasAdmin      string       `json:"notasAdmin,omitempty"`
	ComprobantePago string       `json:"comprobantePago,omitempty"` // referencia
	Comprobante     *Comprobante `json:"comprobante,omitempty"`     // copia inline
}

func (c Cita) Identificador() string { return c.ID }

// Incompleta indica que falta alguno de los tres campos de backfill.
func (c Cita) Incompleta() bool {
	return strings.TrimSpace(c.MascotaID) == "" ||
		strings.TrimSpace(c.ClienteID) == "" ||
		strings.TrimSpace(c.ClienteNombre) == ""
}

// EstadoPreCita para solicitudes aún no convertidas en cita.
type EstadoPreCita string

const (
	PreCitaPendiente EstadoPreCita = "pendiente"
	PreCitaAceptada  EstadoPreCita = "aceptada"
	PreCitaRechazada EstadoPreCita = "rechazada"
)

// PreCita es una solicitud pública: sin FK a usuarios ni mascotas hasta
// ser aceptada.
type PreCita struct {
	ID                string        `json:"id"`
	Nombre            string        `json:"nombre"`
	Telefono          string        `json:"telefono"`
	Email             string        `json:"email"`
	Mascota           string        `json:"mascota"`
	Especie           string        `json:"especie"`
	Motivo            string        `json:"motivo"`
	FechaPreferida    fechas.Fecha  `json:"fechaPreferida"`
	Estado            EstadoPreCita `json:"estado"`
	FechaCreacion     fechas.Fecha  `json:"fechaCreacion"`
	NotasAdmin        string        `json:"notasAdmin,omitempty"`
	Veterinario       string        `json:"veterinario,omitempty"`
	FechaReprogramada *fechas.Fecha `json:"fechaReprogramada,omitempty"`
}

func (p PreCita) Identificador() string { return p.ID }
