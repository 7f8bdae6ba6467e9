// Package historial modela las entradas del historial clínico.
package historial

import (
	"petla/internal/domain/fechas"
	"petla/internal/platform/logger"
	"petla/internal/storage"
)

const Clave = "historialClinico"

// TipoConsulta de la atención registrada.
type TipoConsulta string

const (
	ConsultaGeneral    TipoConsulta = "consulta_general"
	ConsultaVacunacion TipoConsulta = "vacunacion"
	ConsultaCirugia    TipoConsulta = "cirugia"
	ConsultaEmergencia TipoConsulta = "emergencia"
	ConsultaControl    TipoConsulta = "control"
)

// EstadoEntrada del seguimiento clínico.
type EstadoEntrada string

const (
	EntradaCompletada       EstadoEntrada = "completada"
	EntradaSeguimiento      EstadoEntrada = "seguimiento_pendiente"
	EntradaRequiereAtencion EstadoEntrada = "requiere_atencion"
)

// TipoItem clasifica los items de una atención.
type TipoItem string

const (
	ItemServicio    TipoItem = "servicio"
	ItemMedicamento TipoItem = "medicamento"
	ItemExamen      TipoItem = "examen"
	ItemVacuna      TipoItem = "vacuna"
)

// ItemAtencion es un registro chico inline: servicio aplicado,
// medicamento recetado, examen pedido o vacuna puesta.
type ItemAtencion struct {
	Nombre     string   `json:"nombre"`
	Tipo       TipoItem `json:"tipo"`
	Dosis      string   `json:"dosis,omitempty"`      // "2 ml", "cada 12h"
	Frecuencia string   `json:"frecuencia,omitempty"`
	Resultado  string   `json:"resultado,omitempty"`
	Notas      string   `json:"notas,omitempty"`
}

// Vitales tomados en la atención. Texto libre: vienen de formularios.
type Vitales struct {
	Peso               string `json:"peso,omitempty"`
	Temperatura        string `json:"temperatura,omitempty"`
	PresionArterial    string `json:"presionArterial,omitempty"`
	FrecuenciaCardiaca string `json:"frecuenciaCardiaca,omitempty"`
}

// Entrada es una atención registrada. El vínculo a la mascota es
// inmutable una vez creada; MascotaNombre queda denormalizado para
// mostrar sin join.
type Entrada struct {
	ID            string         `json:"id"`
	MascotaID     string         `json:"mascotaId"`
	MascotaNombre string         `json:"mascotaNombre"`
	Fecha         fechas.Fecha   `json:"fecha"`
	Veterinario   string         `json:"veterinario"`
	TipoConsulta  TipoConsulta   `json:"tipoConsulta"`
	Motivo        string         `json:"motivo"`
	Diagnostico   string         `json:"diagnostico"`
	Tratamiento   string         `json:"tratamiento"`
	Items         []ItemAtencion `json:"items,omitempty"`
	Vitales       Vitales        `json:"vitales"`
	Observaciones string         `json:"observaciones,omitempty"`
	ProximaVisita *fechas.Fecha  `json:"proximaVisita,omitempty"`
	Estado        EstadoEntrada  `json:"estado"`
	Adjuntos      []string       `json:"adjuntos,omitempty"`
}

func (e Entrada) Identificador() string { return e.ID }

// NuevaColeccion arma la colección del historial clínico.
func NuevaColeccion(kv storage.KV, log logger.Logger) *storage.Coleccion[Entrada] {
	return storage.NuevaColeccion[Entrada](kv, log, Clave)
}
