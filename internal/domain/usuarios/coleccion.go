package usuarios

import (
	"petla/internal/platform/logger"
	"petla/internal/storage"
)

// Clave bajo la que se persiste la colección completa.
const Clave = "usuarios"

// ClaveSesion guarda el usuario de la sesión activa.
const ClaveSesion = "user"

// NuevaColeccion arma la colección de usuarios. El registro de usuario
// puede crecer (foto como data URI), así que controla cuota antes de
// escribir.
func NuevaColeccion(kv storage.KV, log logger.Logger) *storage.Coleccion[Usuario] {
	return storage.NuevaColeccion[Usuario](kv, log, Clave).ConControlDeCuota()
}

// PrimerCliente devuelve el primer usuario con rol cliente en orden de
// colección. Es el dueño de reserva para reparaciones.
func PrimerCliente(lista []Usuario) (Usuario, bool) {
	for _, u := range lista {
		if u.EsCliente() {
			return u, true
		}
	}
	return Usuario{}, false
}

// BuscarCliente resuelve un id contra la lista, exigiendo rol cliente.
func BuscarCliente(lista []Usuario, id string) (Usuario, bool) {
	if id == "" {
		return Usuario{}, false
	}
	for _, u := range lista {
		if u.ID == id && u.EsCliente() {
			return u, true
		}
	}
	return Usuario{}, false
}
