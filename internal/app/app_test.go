package app

import (
	"encoding/json"
	"testing"
	"time"

	"petla/internal/domain/fechas"
	"petla/internal/platform/logger"
	"petla/internal/storage"
)

// Helpers compartidos por los tests del paquete.

var ahoraTest = time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)

// sembrar persiste una colección directamente en el kv, como quedaría
// tras una sesión anterior de la app.
func sembrar(t *testing.T, kv storage.KV, clave string, v any) {
	t.Helper()

	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("sembrando %q: %v", clave, err)
	}
	if err := kv.Set(clave, string(b)); err != nil {
		t.Fatalf("sembrando %q: %v", clave, err)
	}
}

// suprimirMigraciones marca todas las migraciones como ya aplicadas, para
// que New no limpie ni auto-repare y el test controle cada pasada.
func suprimirMigraciones(t *testing.T, kv storage.KV) {
	t.Helper()

	sembrar(t, kv, ClaveMigraciones, []Migracion{
		{ID: MigracionDatosFicticios, AplicadaEn: fechas.Nueva(ahoraTest)},
		{ID: MigracionAutoReparacionV2, AplicadaEn: fechas.Nueva(ahoraTest)},
	})
}

// nuevoContexto construye el contexto sobre el kv sembrado y fija el
// reloj para que las pasadas sean determinísticas.
func nuevoContexto(t *testing.T, kv storage.KV) *Contexto {
	t.Helper()

	c := New(kv, logger.Nop())
	c.now = func() time.Time { return ahoraTest }
	return c
}
