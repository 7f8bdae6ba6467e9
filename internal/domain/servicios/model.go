// Package servicios modela el catálogo de servicios de la clínica.
package servicios

import (
	"petla/internal/platform/logger"
	"petla/internal/storage"
)

// Clave legada del catálogo (de cara a la UI).
const Clave = "veterinary_services"

type Servicio struct {
	ID          string  `json:"id"`
	Nombre      string  `json:"nombre"`
	Descripcion string  `json:"descripcion,omitempty"`
	Precio      float64 `json:"precio"`
	DuracionMin int     `json:"duracionMin,omitempty"`
	Activo      bool    `json:"activo"`
}

func (s Servicio) Identificador() string { return s.ID }

func NuevaColeccion(kv storage.KV, log logger.Logger) *storage.Coleccion[Servicio] {
	return storage.NuevaColeccion[Servicio](kv, log, Clave)
}
