package app

import (
	"time"

	"petla/internal/domain/fechas"
	"petla/internal/platform/logger"
	"petla/internal/storage"
)

// ClaveMigraciones guarda el log versionado de migraciones aplicadas.
// Reemplaza a los flags sueltos de un solo uso: agregar una generación
// de reparación nueva es agregar una entrada, no inventar otra clave.
const ClaveMigraciones = "migraciones"

const (
	// MigracionDatosFicticios: limpieza única de datos de demo sembrados.
	MigracionDatosFicticios = "fictional_data_cleared"
	// MigracionAutoReparacionV2: pasada automática de reconciliación.
	MigracionAutoReparacionV2 = "auto_repair_appointments_v2"
)

// Migracion es una entrada del log.
type Migracion struct {
	ID         string       `json:"id"`
	AplicadaEn fechas.Fecha `json:"aplicadaEn"`
}

func (m Migracion) Identificador() string { return m.ID }

type registroMigraciones struct {
	col *storage.Coleccion[Migracion]
	log logger.Logger
}

func nuevoRegistroMigraciones(kv storage.KV, log logger.Logger) *registroMigraciones {
	return &registroMigraciones{
		col: storage.NuevaColeccion[Migracion](kv, log, ClaveMigraciones),
		log: log,
	}
}

func (r *registroMigraciones) aplicada(id string) bool {
	_, ok := r.col.Buscar(id)
	return ok
}

// marcar registra la migración como aplicada. Idempotente.
func (r *registroMigraciones) marcar(id string, ahora time.Time) {
	if r.aplicada(id) {
		return
	}
	if err := r.col.Agregar(Migracion{ID: id, AplicadaEn: fechas.Nueva(ahora)}); err != nil {
		r.log.Error("no se pudo registrar la migración", map[string]any{
			"migracion": id,
			"err":       err.Error(),
		})
	}
}
