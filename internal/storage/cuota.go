package storage

import (
	"strings"

	"petla/internal/platform/logger"
)

// PresupuestoDefecto modela los ~5 MiB del almacenamiento local original.
const PresupuestoDefecto int64 = 5 << 20

// UmbralEviccion: sobre este ratio de uso se evacúan claves desechables
// antes de escrituras que pueden crecer (mascotas, usuario).
const UmbralEviccion = 0.80

// PrefijosDesechables marca claves que se pueden perder sin daño:
// caches, previews y borradores. Nunca claves primarias de entidades.
var PrefijosDesechables = []string{"cache_", "preview_", "borrador_", "tmp_"}

// AsegurarCapacidad evacúa claves desechables si el uso supera el umbral.
// En backends sin presupuesto UsageRatio es 0 y esto es un no-op.
func AsegurarCapacidad(kv KV, log logger.Logger) {
	ratio := kv.UsageRatio()
	if ratio <= UmbralEviccion {
		return
	}

	evacuadas := 0
	for _, clave := range kv.Keys() {
		if !esDesechable(clave) {
			continue
		}
		kv.Remove(clave)
		evacuadas++
	}

	log.Warn("capacidad sobre umbral, claves desechables evacuadas", map[string]any{
		"ratio":     ratio,
		"evacuadas": evacuadas,
	})
}

func esDesechable(clave string) bool {
	for _, p := range PrefijosDesechables {
		if strings.HasPrefix(clave, p) {
			return true
		}
	}
	return false
}
