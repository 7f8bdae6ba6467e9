// Package storage implementa el adaptador de persistencia clave-valor y la
// colección JSON genérica que usan todas las familias de entidades.
//
// El contrato imita al almacenamiento local del navegador que reemplaza:
// valores string, escrituras síncronas, y un presupuesto de bytes que puede
// rechazar un Set. Los backends de servidor (postgres, redis) no tienen
// presupuesto y reportan uso cero.
package storage

import "fmt"

// KV es el contrato mínimo de persistencia.
type KV interface {
	// Get devuelve el valor y si la clave existe.
	Get(clave string) (string, bool)
	// Set persiste el valor. Puede devolver *QuotaError si el backend
	// tiene presupuesto y la escritura lo excede.
	Set(clave, valor string) error
	// Remove elimina la clave. Eliminar una clave ausente no es error.
	Remove(clave string)
	// Keys lista todas las claves presentes.
	Keys() []string
	// UsageRatio devuelve uso/presupuesto en [0,1]. Cero si el backend
	// no tiene presupuesto significativo.
	UsageRatio() float64
}

// QuotaError indica que una escritura excede el presupuesto del backend.
type QuotaError struct {
	Clave       string
	Bytes       int64
	Presupuesto int64
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("cuota excedida escribiendo %q: %d bytes sobre presupuesto de %d", e.Clave, e.Bytes, e.Presupuesto)
}

// EsQuotaError ayuda a los llamadores a decidir el fallback de degradación.
func EsQuotaError(err error) bool {
	_, ok := err.(*QuotaError)
	return ok
}
