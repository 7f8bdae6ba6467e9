package storage

import (
	"strings"
	"testing"

	"petla/internal/platform/logger"
)

func TestMemoria_SetGetRemove(t *testing.T) {
	kv := NewMemoria(0)

	if err := kv.Set("a", "1"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if v, ok := kv.Get("a"); !ok || v != "1" {
		t.Fatalf("Get(a) = %q, %v", v, ok)
	}

	kv.Remove("a")
	if _, ok := kv.Get("a"); ok {
		t.Fatalf("la clave debería haberse borrado")
	}
}

func TestMemoria_CuotaExcedida(t *testing.T) {
	kv := NewMemoria(32)

	err := kv.Set("clave", strings.Repeat("x", 100))
	if err == nil {
		t.Fatalf("se esperaba QuotaError")
	}
	if !EsQuotaError(err) {
		t.Fatalf("se esperaba QuotaError, llegó %T: %v", err, err)
	}
	if _, ok := kv.Get("clave"); ok {
		t.Fatalf("un Set rechazado no debe dejar la clave escrita")
	}
}

func TestMemoria_SobreescribirNoDuplicaUso(t *testing.T) {
	kv := NewMemoria(64)

	grande := strings.Repeat("x", 40)
	if err := kv.Set("k", grande); err != nil {
		t.Fatalf("Set #1: %v", err)
	}
	// reescribir la misma clave libera el valor anterior primero
	if err := kv.Set("k", grande); err != nil {
		t.Fatalf("Set #2 no debería exceder la cuota: %v", err)
	}
}

func TestAsegurarCapacidad_EvacuaSoloDesechables(t *testing.T) {
	kv := NewMemoria(100)

	if err := kv.Set("usuarios", strings.Repeat("u", 30)); err != nil {
		t.Fatalf("Set usuarios: %v", err)
	}
	if err := kv.Set("cache_busqueda", strings.Repeat("c", 25)); err != nil {
		t.Fatalf("Set cache: %v", err)
	}
	if err := kv.Set("tmp_x", strings.Repeat("t", 10)); err != nil {
		t.Fatalf("Set tmp: %v", err)
	}

	if kv.UsageRatio() <= UmbralEviccion {
		t.Fatalf("el setup debería estar sobre el umbral, ratio=%f", kv.UsageRatio())
	}

	AsegurarCapacidad(kv, logger.Nop())

	if _, ok := kv.Get("cache_busqueda"); ok {
		t.Fatalf("cache_ debería haberse evacuado")
	}
	if _, ok := kv.Get("tmp_x"); ok {
		t.Fatalf("tmp_ debería haberse evacuado")
	}
	if _, ok := kv.Get("usuarios"); !ok {
		t.Fatalf("las claves primarias nunca se evacúan")
	}
}

func TestAsegurarCapacidad_BajoUmbralEsNoOp(t *testing.T) {
	kv := NewMemoria(1000)
	_ = kv.Set("cache_x", "valor")

	AsegurarCapacidad(kv, logger.Nop())

	if _, ok := kv.Get("cache_x"); !ok {
		t.Fatalf("bajo el umbral no se evacúa nada")
	}
}

func TestDirectorio_RoundTripClavesRaras(t *testing.T) {
	dir, err := NewDirectorio(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewDirectorio: %v", err)
	}

	// claves con separadores y espacios: el nombre de archivo se escapa
	claves := []string{"comprobante_abc/123", "con espacio", "usuarios"}
	for _, k := range claves {
		if err := dir.Set(k, "v:"+k); err != nil {
			t.Fatalf("Set(%q): %v", k, err)
		}
	}

	for _, k := range claves {
		if v, ok := dir.Get(k); !ok || v != "v:"+k {
			t.Fatalf("Get(%q) = %q, %v", k, v, ok)
		}
	}

	listadas := dir.Keys()
	if len(listadas) != len(claves) {
		t.Fatalf("Keys() = %v, se esperaban %d claves", listadas, len(claves))
	}

	dir.Remove("con espacio")
	if _, ok := dir.Get("con espacio"); ok {
		t.Fatalf("la clave debería haberse borrado")
	}
}

func TestDirectorio_Cuota(t *testing.T) {
	dir, err := NewDirectorio(t.TempDir(), 16)
	if err != nil {
		t.Fatalf("NewDirectorio: %v", err)
	}

	if err := dir.Set("k", strings.Repeat("x", 64)); !EsQuotaError(err) {
		t.Fatalf("se esperaba QuotaError, llegó %v", err)
	}
}
