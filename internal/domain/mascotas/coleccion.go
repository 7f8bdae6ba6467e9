package mascotas

import (
	"petla/internal/platform/logger"
	"petla/internal/storage"
)

const Clave = "mascotas"

// NuevaColeccion arma la colección de mascotas.
// Las fotos (data URI) son el campo pesado: ante cuota excedida se
// reintenta una vez con las fotos en blanco antes que perder el resto
// del registro.
func NuevaColeccion(kv storage.KV, log logger.Logger) *storage.Coleccion[Mascota] {
	return storage.NuevaColeccion[Mascota](kv, log, Clave).
		ConControlDeCuota().
		ConDegradacion(SinFotos)
}

// SinFotos devuelve una copia con los campos de foto vaciados.
func SinFotos(lista []Mascota) []Mascota {
	out := make([]Mascota, len(lista))
	copy(out, lista)
	for i := range out {
		out[i].Foto = ""
	}
	return out
}

// BuscarPorNombre resuelve por nombre case-insensitive (join legado).
func BuscarPorNombre(lista []Mascota, nombre string) (Mascota, bool) {
	for _, m := range lista {
		if m.MismoNombre(nombre) {
			return m, true
		}
	}
	return Mascota{}, false
}
