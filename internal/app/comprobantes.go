package app

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"petla/internal/domain/citas"
	"petla/internal/domain/fechas"
)

// Almacén de comprobantes de pago.
//
// La copia autoritativa vive bajo la clave independiente
// comprobante_{citaId}; la copia inline en la cita es un caché que las
// lecturas reconstruyen. Todas las operaciones son defensivas: ante
// cualquier fallo interno loggean y devuelven false/nil, porque perder un
// comprobante no puede frenar el flujo de la cita.

// GuardarComprobante comprime y persiste el adjunto, pasa la cita a
// "en_validacion" (si el estado lo permite) y limpia notas de rechazo.
func (c *Contexto) GuardarComprobante(citaID, nombreArchivo, tipoMime string, datos []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(datos) == 0 {
		return false
	}
	if _, ok := c.citas.Buscar(citaID); !ok {
		c.log.Warn("comprobante para cita inexistente", map[string]any{"cita": citaID})
		return false
	}

	payload, comprimido := comprimir(datos)
	cmp := citas.Comprobante{
		ID:            fmt.Sprintf("receipt_%s_%d", citaID, c.now().UnixMilli()),
		Datos:         payload,
		NombreArchivo: nombreArchivo,
		TamanoBytes:   int64(len(datos)),
		TipoMime:      tipoMime,
		FechaCaptura:  fechas.Nueva(c.now()),
		Comprimido:    comprimido,
	}

	// Copia autoritativa primero.
	b, err := json.Marshal(cmp)
	if err != nil {
		c.log.Error("no se pudo serializar el comprobante", map[string]any{"cita": citaID, "err": err.Error()})
		return false
	}
	if err := c.kv.Set(citas.ClaveComprobante(citaID), string(b)); err != nil {
		c.log.Error("no se pudo persistir el comprobante", map[string]any{"cita": citaID, "err": err.Error()})
		return false
	}

	// Caché inline + transición de estado.
	ok, err := c.citas.Actualizar(citaID, func(ci *citas.Cita) {
		ci.Comprobante = &cmp
		ci.ComprobantePago = cmp.ID
		ci.NotasAdmin = ""
		if citas.TransicionValida(ci.Estado, citas.EstadoEnValidacion) {
			ci.Estado = citas.EstadoEnValidacion
		}
	})
	if err != nil || !ok {
		c.log.Error("no se pudo adjuntar el comprobante a la cita", map[string]any{"cita": citaID})
		return false
	}

	c.notificar(citas.Clave)
	return true
}

// ObtenerComprobante prefiere la copia inline; si solo existe la copia
// independiente, la devuelve y rellena el caché inline de la cita.
func (c *Contexto) ObtenerComprobante(citaID string) *citas.Comprobante {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ci, ok := c.citas.Buscar(citaID); ok && ci.Comprobante != nil {
		copia := *ci.Comprobante
		return &copia
	}

	raw, ok := c.kv.Get(citas.ClaveComprobante(citaID))
	if !ok || raw == "" {
		return nil
	}

	var cmp citas.Comprobante
	if err := json.Unmarshal([]byte(raw), &cmp); err != nil {
		c.log.Error("comprobante independiente corrupto", map[string]any{"cita": citaID, "err": err.Error()})
		return nil
	}

	// cache-fill: la cita recupera su copia inline
	if _, err := c.citas.Actualizar(citaID, func(ci *citas.Cita) {
		ci.Comprobante = &cmp
		ci.ComprobantePago = cmp.ID
	}); err != nil {
		c.log.Warn("no se pudo rellenar el caché inline", map[string]any{"cita": citaID, "err": err.Error()})
	}

	return &cmp
}

// EliminarComprobante borra la copia independiente y limpia el inline.
func (c *Contexto) EliminarComprobante(citaID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.kv.Remove(citas.ClaveComprobante(citaID))

	if _, err := c.citas.Actualizar(citaID, func(ci *citas.Cita) {
		ci.Comprobante = nil
		ci.ComprobantePago = ""
	}); err != nil {
		c.log.Error("no se pudo limpiar el comprobante inline", map[string]any{"cita": citaID, "err": err.Error()})
		return false
	}
	return true
}

// DatosComprobante decodifica el payload (y lo descomprime si hace falta).
func DatosComprobante(cmp *citas.Comprobante) ([]byte, error) {
	if cmp == nil {
		return nil, fmt.Errorf("comprobante nil")
	}

	datos, err := base64.StdEncoding.DecodeString(cmp.Datos)
	if err != nil {
		return nil, fmt.Errorf("decodificando comprobante: %w", err)
	}
	if !cmp.Comprimido {
		return datos, nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(datos))
	if err != nil {
		return nil, fmt.Errorf("abriendo gzip: %w", err)
	}
	defer zr.Close()

	return io.ReadAll(zr)
}

// comprimir devuelve el payload base64, gzip-eado solo si achica.
func comprimir(datos []byte) (string, bool) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(datos); err == nil && zw.Close() == nil && buf.Len() < len(datos) {
		return base64.StdEncoding.EncodeToString(buf.Bytes()), true
	}
	return base64.StdEncoding.EncodeToString(datos), false
}
