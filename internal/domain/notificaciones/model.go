// Package notificaciones modela las notificaciones por usuario.
package notificaciones

import (
	"petla/internal/domain/fechas"
	"petla/internal/platform/logger"
	"petla/internal/storage"
)

const Clave = "notificaciones"

// Tipo de notificación.
type Tipo string

const (
	TipoBienvenida Tipo = "bienvenida"
	TipoCita       Tipo = "cita"
	TipoConsulta   Tipo = "consulta"
	TipoSistema    Tipo = "sistema"
)

// Notificacion es tipada, por usuario, con lectura y referencia opcional
// a una cita.
type Notificacion struct {
	ID            string       `json:"id"`
	UsuarioID     string       `json:"usuarioId"`
	Tipo          Tipo         `json:"tipo"`
	Titulo        string       `json:"titulo"`
	Mensaje       string       `json:"mensaje"`
	CitaID        string       `json:"citaId,omitempty"`
	Leida         bool         `json:"leida"`
	FechaCreacion fechas.Fecha `json:"fechaCreacion"`
}

func (n Notificacion) Identificador() string { return n.ID }

func NuevaColeccion(kv storage.KV, log logger.Logger) *storage.Coleccion[Notificacion] {
	return storage.NuevaColeccion[Notificacion](kv, log, Clave)
}
