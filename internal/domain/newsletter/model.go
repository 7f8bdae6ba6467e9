// Package newsletter modela suscriptores y correos del boletín.
package newsletter

import (
	"strings"

	"petla/internal/domain/fechas"
	"petla/internal/platform/logger"
	"petla/internal/storage"
)

const (
	ClaveSuscriptores = "suscriptoresNewsletter"
	ClaveEmails       = "newsletterEmails"
)

// Suscriptor del boletín. La unicidad por email en minúsculas es un
// invariante blando: lo aplica la lógica de suscripción, no la colección.
type Suscriptor struct {
	ID               string       `json:"id"`
	Email            string       `json:"email"`
	FechaSuscripcion fechas.Fecha `json:"fechaSuscripcion"`
	Activo           bool         `json:"activo"`
}

func (s Suscriptor) Identificador() string { return s.ID }

// MismoEmail compara por email en minúsculas.
func (s Suscriptor) MismoEmail(email string) bool {
	return strings.EqualFold(strings.TrimSpace(s.Email), strings.TrimSpace(email))
}

// EstadoEmail del correo del boletín.
type EstadoEmail string

const (
	EmailBorrador   EstadoEmail = "borrador"
	EmailProgramado EstadoEmail = "programado"
	EmailEnviado    EstadoEmail = "enviado"
)

// EmailNewsletter es un correo redactado, programado o enviado.
type EmailNewsletter struct {
	ID            string        `json:"id"`
	Asunto        string        `json:"asunto"`
	Contenido     string        `json:"contenido"`
	Estado        EstadoEmail   `json:"estado"`
	FechaCreacion fechas.Fecha  `json:"fechaCreacion"`
	FechaEnvio    *fechas.Fecha `json:"fechaEnvio,omitempty"`
	Destinatarios int           `json:"destinatarios,omitempty"`
}

func (e EmailNewsletter) Identificador() string { return e.ID }

func NuevaColeccionSuscriptores(kv storage.KV, log logger.Logger) *storage.Coleccion[Suscriptor] {
	return storage.NuevaColeccion[Suscriptor](kv, log, ClaveSuscriptores)
}

func NuevaColeccionEmails(kv storage.KV, log logger.Logger) *storage.Coleccion[EmailNewsletter] {
	return storage.NuevaColeccion[EmailNewsletter](kv, log, ClaveEmails)
}
