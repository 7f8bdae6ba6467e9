package storage

import (
	"encoding/json"

	"petla/internal/platform/logger"
)

// Identificable lo implementa todo modelo persistido en colecciones.
type Identificable interface {
	Identificador() string
}

// Coleccion es la lista tipada de una familia de entidades, persistida
// completa bajo una sola clave JSON.
//
// Cargar nunca falla hacia afuera: clave ausente o JSON corrupto devuelven
// lista vacía (se loggea). Guardar escribe a través del KV y,
// si el backend rechaza por cuota y hay hook de degradación, degrada la
// copia y reintenta una sola vez.
type Coleccion[T Identificable] struct {
	clave        string
	kv           KV
	log          logger.Logger
	vigilarCuota bool
	degradar     func([]T) []T
	postGuardado func([]T)
}

func NuevaColeccion[T Identificable](kv KV, log logger.Logger, clave string) *Coleccion[T] {
	return &Coleccion[T]{
		clave: clave,
		kv:    kv,
		log:   log.With(map[string]any{"coleccion": clave}),
	}
}

// ConControlDeCuota hace que Guardar evacúe desechables antes de escribir.
func (c *Coleccion[T]) ConControlDeCuota() *Coleccion[T] {
	c.vigilarCuota = true
	return c
}

// ConDegradacion registra el fallback ante *QuotaError (p.ej. fotos a nil).
func (c *Coleccion[T]) ConDegradacion(fn func([]T) []T) *Coleccion[T] {
	c.degradar = fn
	return c
}

// ConPostGuardado registra un hook que corre tras cada escritura exitosa,
// en todas las variantes de guardado (Agregar, Actualizar, Eliminar, ...).
func (c *Coleccion[T]) ConPostGuardado(fn func([]T)) *Coleccion[T] {
	c.postGuardado = fn
	return c
}

func (c *Coleccion[T]) Clave() string { return c.clave }

// Cargar lee y rehidrata la colección. Las fechas vuelven a ser fechas vía
// fechas.Fecha en los modelos; acá solo se tolera la ausencia o corrupción.
func (c *Coleccion[T]) Cargar() []T {
	raw, ok := c.kv.Get(c.clave)
	if !ok || raw == "" {
		return []T{}
	}

	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		// dato corrupto: se pierde la colección pero no se rompe la app
		c.log.Error("json corrupto, colección vacía", map[string]any{"err": err.Error()})
		return []T{}
	}
	if items == nil {
		return []T{}
	}
	return items
}

func (c *Coleccion[T]) Guardar(items []T) error {
	if items == nil {
		items = []T{}
	}

	if c.vigilarCuota {
		AsegurarCapacidad(c.kv, c.log)
	}

	if err := c.escribir(items); err != nil {
		if !EsQuotaError(err) || c.degradar == nil {
			return err
		}

		c.log.Warn("cuota excedida, reintentando con payload degradado", map[string]any{"err": err.Error()})
		items = c.degradar(items)
		if err := c.escribir(items); err != nil {
			return err
		}
	}

	if c.postGuardado != nil {
		c.postGuardado(items)
	}
	return nil
}

func (c *Coleccion[T]) escribir(items []T) error {
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.kv.Set(c.clave, string(b))
}

// Buscar devuelve el item con ese id, si existe.
func (c *Coleccion[T]) Buscar(id string) (T, bool) {
	for _, item := range c.Cargar() {
		if item.Identificador() == id {
			return item, true
		}
	}
	var cero T
	return cero, false
}

func (c *Coleccion[T]) Agregar(item T) error {
	return c.Guardar(append(c.Cargar(), item))
}

// Actualizar aplica el mutador sobre el item con ese id y persiste.
// Devuelve false si el id no existe.
func (c *Coleccion[T]) Actualizar(id string, mutar func(*T)) (bool, error) {
	items := c.Cargar()
	for i := range items {
		if items[i].Identificador() == id {
			mutar(&items[i])
			return true, c.Guardar(items)
		}
	}
	return false, nil
}

func (c *Coleccion[T]) Eliminar(id string) error {
	items := c.Cargar()
	out := items[:0]
	for _, item := range items {
		if item.Identificador() != id {
			out = append(out, item)
		}
	}
	return c.Guardar(out)
}

// Filtrar persiste solo los items que pasan el predicado y devuelve
// cuántos se eliminaron. Es la base de las eliminaciones en cascada.
func (c *Coleccion[T]) Filtrar(mantener func(T) bool) (int, error) {
	items := c.Cargar()
	out := make([]T, 0, len(items))
	for _, item := range items {
		if mantener(item) {
			out = append(out, item)
		}
	}
	eliminados := len(items) - len(out)
	if eliminados == 0 {
		return 0, nil
	}
	return eliminados, c.Guardar(out)
}
