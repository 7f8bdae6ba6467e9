package citas

import (
	"encoding/json"

	"petla/internal/platform/logger"
	"petla/internal/storage"
)

const (
	Clave        = "citas"
	ClavePre     = "preCitas"
	prefijoRecbo = "comprobante_"
)

// ClaveComprobante es la clave independiente del comprobante de una cita.
func ClaveComprobante(citaID string) string {
	return prefijoRecbo + citaID
}

// NuevaColeccion arma la colección de citas. Cada guardado duplica los
// comprobantes inline bajo su clave independiente: si la colección de
// citas se corrompe parcialmente, el comprobante sobrevive solo.
func NuevaColeccion(kv storage.KV, log logger.Logger) *storage.Coleccion[Cita] {
	return storage.NuevaColeccion[Cita](kv, log, Clave).
		ConPostGuardado(func(items []Cita) {
			duplicarComprobantes(kv, log, items)
		})
}

// NuevaColeccionPre arma la colección de pre-citas.
func NuevaColeccionPre(kv storage.KV, log logger.Logger) *storage.Coleccion[PreCita] {
	return storage.NuevaColeccion[PreCita](kv, log, ClavePre)
}

func duplicarComprobantes(kv storage.KV, log logger.Logger, items []Cita) {
	for _, c := range items {
		if c.Comprobante == nil {
			continue
		}
		b, err := json.Marshal(c.Comprobante)
		if err != nil {
			continue
		}
		if err := kv.Set(ClaveComprobante(c.ID), string(b)); err != nil {
			// la copia inline ya está persistida; se loggea y sigue
			log.Warn("no se pudo duplicar comprobante", map[string]any{
				"cita": c.ID,
				"err":  err.Error(),
			})
		}
	}
}
