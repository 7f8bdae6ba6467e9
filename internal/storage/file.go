package storage

import (
	"net/url"
	"os"
	"path/filepath"
	"sync"
)

// Directorio persiste cada clave como un archivo dentro de un directorio.
// El nombre de archivo es la clave query-escaped (biyectiva y segura para
// el filesystem), así Keys() recupera las claves originales sin índice.
type Directorio struct {
	mu          sync.Mutex
	raiz        string
	presupuesto int64
}

// NewDirectorio crea (si hace falta) el directorio raíz.
// Con presupuesto <= 0 usa PresupuestoDefecto.
func NewDirectorio(raiz string, presupuesto int64) (*Directorio, error) {
	if err := os.MkdirAll(raiz, 0o755); err != nil {
		return nil, err
	}
	if presupuesto <= 0 {
		presupuesto = PresupuestoDefecto
	}
	return &Directorio{raiz: raiz, presupuesto: presupuesto}, nil
}

func (d *Directorio) ruta(clave string) string {
	return filepath.Join(d.raiz, url.QueryEscape(clave))
}

func (d *Directorio) Get(clave string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, err := os.ReadFile(d.ruta(clave))
	if err != nil {
		return "", false
	}
	return string(b), true
}

func (d *Directorio) Set(clave, valor string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	uso := d.usoLocked()
	if fi, err := os.Stat(d.ruta(clave)); err == nil {
		uso -= fi.Size()
	}
	uso += int64(len(valor))

	if uso > d.presupuesto {
		return &QuotaError{Clave: clave, Bytes: uso, Presupuesto: d.presupuesto}
	}

	return os.WriteFile(d.ruta(clave), []byte(valor), 0o644)
}

func (d *Directorio) Remove(clave string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	_ = os.Remove(d.ruta(clave))
}

func (d *Directorio) Keys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	entradas, err := os.ReadDir(d.raiz)
	if err != nil {
		return nil
	}

	out := make([]string, 0, len(entradas))
	for _, e := range entradas {
		if e.IsDir() {
			continue
		}
		clave, err := url.QueryUnescape(e.Name())
		if err != nil {
			continue
		}
		out = append(out, clave)
	}
	return out
}

func (d *Directorio) UsageRatio() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return float64(d.usoLocked()) / float64(d.presupuesto)
}

func (d *Directorio) usoLocked() int64 {
	var total int64
	entradas, err := os.ReadDir(d.raiz)
	if err != nil {
		return 0
	}
	for _, e := range entradas {
		if fi, err := e.Info(); err == nil {
			total += fi.Size()
		}
	}
	return total
}
