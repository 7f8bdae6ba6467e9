// Package fechas centraliza la rehidratación de fechas persistidas.
//
// Todo campo de fecha se guarda como string ISO y debe volver a ser una
// fecha real en cada carga. Fecha tolera los formatos que conviven en
// datos legados: RFC3339 con o sin fracción, y fecha pura (YYYY-MM-DD).
package fechas

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Fecha envuelve time.Time con marshal/unmarshal tolerante.
type Fecha struct {
	time.Time
}

// Formatos aceptados al rehidratar, en orden de preferencia.
var formatos = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func Nueva(t time.Time) Fecha {
	return Fecha{Time: t}
}

// Parse intenta todos los formatos conocidos.
func Parse(s string) (Fecha, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Fecha{}, fmt.Errorf("fecha vacía")
	}
	for _, f := range formatos {
		if t, err := time.Parse(f, s); err == nil {
			return Fecha{Time: t}, nil
		}
	}
	return Fecha{}, fmt.Errorf("fecha no reconocida: %q", s)
}

func (f Fecha) MarshalJSON() ([]byte, error) {
	if f.IsZero() {
		return []byte(`null`), nil
	}
	return json.Marshal(f.UTC().Format(time.RFC3339))
}

func (f *Fecha) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = Fecha{}
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		*f = Fecha{}
		return nil
	}

	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Igual compara por instante (no por representación ni zona).
func (f Fecha) Igual(otra Fecha) bool {
	return f.Time.Equal(otra.Time)
}

// Futura indica si la fecha es posterior a ahora.
func (f Fecha) Futura(ahora time.Time) bool {
	return f.After(ahora)
}

// Ptr devuelve un puntero, útil para campos opcionales.
func (f Fecha) Ptr() *Fecha {
	return &f
}
