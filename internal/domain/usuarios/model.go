// Package usuarios modela las cuentas del sistema: clientes, veterinarios
// y administradores comparten una sola familia de entidades.
package usuarios

import (
	"strings"

	"petla/internal/domain/fechas"
)

// Rol define los perfiles de acceso.
type Rol string

const (
	RolAdmin       Rol = "admin"
	RolCliente     Rol = "cliente"
	RolVeterinario Rol = "veterinario"
)

// Usuario se persiste con los nombres de campo legados (contrato de datos).
// La contraseña se guarda en texto plano: compatibilidad con cuentas
// legadas, no un diseño a imitar.
type Usuario struct {
	ID              string        `json:"id"`
	Nombre          string        `json:"nombre"`
	Apellido        string        `json:"apellido,omitempty"`
	Username        string        `json:"username,omitempty"`
	Email           string        `json:"email"`
	Telefono        string        `json:"telefono,omitempty"`
	Direccion       string        `json:"direccion,omitempty"`
	FechaNacimiento *fechas.Fecha `json:"fechaNacimiento,omitempty"`
	Genero          string        `json:"genero,omitempty"`
	Rol             Rol           `json:"rol"`
	Contrasena      string        `json:"contrasena,omitempty"`
	FechaRegistro   fechas.Fecha  `json:"fechaRegistro"`
	Foto            string        `json:"foto,omitempty"` // data URI
	Documento       string        `json:"documento,omitempty"`
	TipoDocumento   string        `json:"tipoDocumento,omitempty"`

	// Solo veterinarios
	Especialidad string `json:"especialidad,omitempty"`
	Experiencia  string `json:"experiencia,omitempty"`
	Licencia     string `json:"licencia,omitempty"`
}

func (u Usuario) Identificador() string { return u.ID }

func (u Usuario) EsCliente() bool     { return u.Rol == RolCliente }
func (u Usuario) EsAdmin() bool       { return u.Rol == RolAdmin }
func (u Usuario) EsVeterinario() bool { return u.Rol == RolVeterinario }

// NombreCompleto junta nombre y apellido si lo hay.
func (u Usuario) NombreCompleto() string {
	if strings.TrimSpace(u.Apellido) == "" {
		return strings.TrimSpace(u.Nombre)
	}
	return strings.TrimSpace(u.Nombre) + " " + strings.TrimSpace(u.Apellido)
}

// CoincideIdentificador matchea email o username (case-insensitive) o
// teléfono exacto (con trim). Es la regla de identidad del login.
func (u Usuario) CoincideIdentificador(identificador string) bool {
	id := strings.TrimSpace(identificador)
	if id == "" {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(u.Email), id) {
		return true
	}
	if u.Username != "" && strings.EqualFold(strings.TrimSpace(u.Username), id) {
		return true
	}
	return u.Telefono != "" && strings.TrimSpace(u.Telefono) == id
}
