package app

import (
	"strings"

	"petla/internal/domain/mascotas"
	"petla/internal/domain/usuarios"
)

// Resolución en dos niveles: id primero, después nombre case-insensitive.
// El motor de reparación y las vistas derivadas usan exactamente estas
// funciones para que nunca estén en desacuerdo sobre a qué mascota o
// dueño apunta una cita.

// resolverMascota busca por id y cae al nombre si el id no resuelve.
func resolverMascota(lista []mascotas.Mascota, id, nombre string) (mascotas.Mascota, bool) {
	if strings.TrimSpace(id) != "" {
		for _, m := range lista {
			if m.ID == id {
				return m, true
			}
		}
	}
	if strings.TrimSpace(nombre) == "" {
		return mascotas.Mascota{}, false
	}
	return mascotas.BuscarPorNombre(lista, nombre)
}

// resolverCliente resuelve un id contra usuarios con rol cliente.
func resolverCliente(lista []usuarios.Usuario, id string) (usuarios.Usuario, bool) {
	return usuarios.BuscarCliente(lista, id)
}

// resolverVeterinario matchea el nombre en texto libre de la cita contra
// los usuarios veterinarios (denormalización legada).
func resolverVeterinario(lista []usuarios.Usuario, nombre string) (usuarios.Usuario, bool) {
	nombre = strings.TrimSpace(nombre)
	if nombre == "" {
		return usuarios.Usuario{}, false
	}
	for _, u := range lista {
		if !u.EsVeterinario() {
			continue
		}
		if strings.EqualFold(u.NombreCompleto(), nombre) || strings.EqualFold(strings.TrimSpace(u.Nombre), nombre) {
			return u, true
		}
	}
	return usuarios.Usuario{}, false
}
