// Package mascotas modela las mascotas y su colección persistida.
package mascotas

import (
	"strings"

	"petla/internal/domain/fechas"
)

// Mascota se persiste con los nombres de campo legados.
// ClienteID debería resolver a un usuario con rol cliente; cuando no,
// la mascota está "huérfana" y la repara el motor de reconciliación.
type Mascota struct {
	ID              string        `json:"id"`
	Nombre          string        `json:"nombre"`
	Especie         string        `json:"especie"`
	Raza            string        `json:"raza"`
	Sexo            string        `json:"sexo,omitempty"`
	FechaNacimiento *fechas.Fecha `json:"fechaNacimiento,omitempty"`
	Peso            string        `json:"peso,omitempty"`
	Microchip       string        `json:"microchip,omitempty"`
	Estado          string        `json:"estado"` // texto libre, ej. "Activa"
	ClienteID       string        `json:"clienteId"`
	ProximaCita     *fechas.Fecha `json:"proximaCita,omitempty"`
	UltimaVacuna    *fechas.Fecha `json:"ultimaVacuna,omitempty"`
	Foto            string        `json:"foto,omitempty"` // data URI
}

func (m Mascota) Identificador() string { return m.ID }

// MismoNombre compara nombres case-insensitive con trim.
// El nombre es la clave de join legada entre citas y mascotas.
func (m Mascota) MismoNombre(nombre string) bool {
	return strings.EqualFold(strings.TrimSpace(m.Nombre), strings.TrimSpace(nombre))
}

// MismaEspecie compara especies case-insensitive.
func (m Mascota) MismaEspecie(especie string) bool {
	return strings.EqualFold(strings.TrimSpace(m.Especie), strings.TrimSpace(especie))
}
