package storage

import "sync"

// Memoria es el backend en memoria con presupuesto de bytes.
// Modela la cuota de ~5 MiB del almacenamiento local original, así que es
// el único backend (junto con Directorio) donde la evicción tiene sentido.
type Memoria struct {
	mu          sync.RWMutex
	datos       map[string]string
	presupuesto int64
}

// NewMemoria crea el backend. Con presupuesto <= 0 usa PresupuestoDefecto.
func NewMemoria(presupuesto int64) *Memoria {
	if presupuesto <= 0 {
		presupuesto = PresupuestoDefecto
	}
	return &Memoria{
		datos:       make(map[string]string),
		presupuesto: presupuesto,
	}
}

func (m *Memoria) Get(clave string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.datos[clave]
	return v, ok
}

func (m *Memoria) Set(clave, valor string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	uso := m.usoLocked()
	if prev, existe := m.datos[clave]; existe {
		uso -= int64(len(clave) + len(prev))
	}
	uso += int64(len(clave) + len(valor))

	if uso > m.presupuesto {
		return &QuotaError{Clave: clave, Bytes: uso, Presupuesto: m.presupuesto}
	}

	m.datos[clave] = valor
	return nil
}

func (m *Memoria) Remove(clave string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.datos, clave)
}

func (m *Memoria) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.datos))
	for k := range m.datos {
		out = append(out, k)
	}
	return out
}

func (m *Memoria) UsageRatio() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return float64(m.usoLocked()) / float64(m.presupuesto)
}

func (m *Memoria) usoLocked() int64 {
	var total int64
	for k, v := range m.datos {
		total += int64(len(k) + len(v))
	}
	return total
}
