package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"petla/internal/domain/citas"
	"petla/internal/domain/fechas"
	"petla/internal/domain/mascotas"
	"petla/internal/domain/usuarios"
)

// Motor de reconciliación de relaciones (mascotas ↔ citas ↔ dueños).
//
// Los datos legados enlazan entidades por id y, como fallback, por nombre
// en texto libre, así que quedan referencias colgantes: citas que nombran
// mascotas nunca registradas ("fantasma"), mascotas cuyo dueño no existe
// ("huérfanas") y citas sin sus campos de backfill ("incompletas").
//
// Una pasada es determinística, en tres pasos y sin backtracking:
//  1. sintetizar mascotas faltantes a partir de citas fantasma,
//  2. reasignar mascotas huérfanas a un cliente resoluble,
//  3. religar citas incompletas contra el set ya reparado.
//
// Sobre un estado ya consistente la pasada reporta ceros (idempotente).

// fechaNacimientoSintetica es el placeholder para mascotas sintetizadas.
var fechaNacimientoSintetica = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// ReporteReparacion resume una pasada de reconciliación.
type ReporteReparacion struct {
	MascotasCreadas   int      `json:"mascotasCreadas"`
	MascotasReparadas int      `json:"mascotasReparadas"`
	CitasReparadas    int      `json:"citasReparadas"`
	Errores           []string `json:"errores"`
}

// RepararIntegridad es la forma a demanda del motor: se puede invocar
// cuantas veces haga falta y devuelve el reporte estructurado.
func (c *Contexto) RepararIntegridad() ReporteReparacion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reparar()
}

// dispararAutoReparacion es el suscriptor interno: la pasada automática
// corre cuando cambian sus colecciones gatillo.
func (c *Contexto) dispararAutoReparacion(coleccion string) {
	if coleccion != usuarios.Clave && coleccion != citas.Clave {
		return
	}
	c.autoReparar()
}

// autoReparar es la forma automática: corre una única vez (queda anotada
// en el log de migraciones apenas corre, haya reparado algo o no) y solo
// cuando usuarios y citas están ambos no vacíos. Asume lock tomado.
func (c *Contexto) autoReparar() {
	if c.enReparacion || c.migraciones.aplicada(MigracionAutoReparacionV2) {
		return
	}
	if len(c.usuarios.Cargar()) == 0 || len(c.citas.Cargar()) == 0 {
		return
	}

	reporte := c.reparar()
	c.migraciones.marcar(MigracionAutoReparacionV2, c.now())

	c.log.Info("auto-reparación ejecutada", map[string]any{
		"mascotasCreadas":   reporte.MascotasCreadas,
		"mascotasReparadas": reporte.MascotasReparadas,
		"citasReparadas":    reporte.CitasReparadas,
		"errores":           len(reporte.Errores),
	})
}

// reparar ejecuta la pasada completa. Asume lock tomado.
func (c *Contexto) reparar() ReporteReparacion {
	c.enReparacion = true
	defer func() { c.enReparacion = false }()

	reporte := ReporteReparacion{Errores: []string{}}

	listaUsuarios := c.usuarios.Cargar()
	listaMascotas := c.mascotas.Cargar()
	listaCitas := c.citas.Cargar()

	mascotasCambiadas := false
	citasCambiadas := false

	// Paso 1: sintetizar mascotas que las citas nombran pero no existen.
	nombres := make(map[string]bool, len(listaMascotas))
	for _, m := range listaMascotas {
		nombres[claveNombre(m.Nombre)] = true
	}

	for _, cita := range listaCitas {
		nombre := strings.TrimSpace(cita.Mascota)
		if nombre == "" || nombres[claveNombre(nombre)] {
			continue
		}

		dueno, ok := resolverCliente(listaUsuarios, cita.ClienteID)
		if !ok {
			dueno, ok = usuarios.PrimerCliente(listaUsuarios)
		}
		if !ok {
			reporte.Errores = append(reporte.Errores,
				fmt.Sprintf("no hay clientes para asignar la mascota %q de la cita %s", nombre, cita.ID))
			continue
		}

		nueva := mascotas.Mascota{
			ID:              uuid.NewString(),
			Nombre:          nombre,
			Especie:         cita.Especie,
			Raza:            "Desconocida",
			Sexo:            "desconocido",
			FechaNacimiento: fechas.Nueva(fechaNacimientoSintetica).Ptr(),
			Estado:          "Activa",
			ClienteID:       dueno.ID,
		}
		if cita.Fecha.Futura(c.now()) {
			nueva.ProximaCita = cita.Fecha.Ptr()
		}

		listaMascotas = append(listaMascotas, nueva)
		nombres[claveNombre(nombre)] = true
		mascotasCambiadas = true
		reporte.MascotasCreadas++
	}

	// Paso 2: reasignar mascotas cuyo dueño no resuelve a un cliente.
	for i := range listaMascotas {
		if _, ok := resolverCliente(listaUsuarios, listaMascotas[i].ClienteID); ok {
			continue
		}

		dueno, ok := clientePorEspecie(listaUsuarios, listaMascotas, listaMascotas[i])
		if !ok {
			dueno, ok = usuarios.PrimerCliente(listaUsuarios)
		}
		if !ok {
			// sin clientes no hay a quién reasignar; se deja como está
			continue
		}

		listaMascotas[i].ClienteID = dueno.ID
		mascotasCambiadas = true
		reporte.MascotasReparadas++
	}

	// Paso 3: religar citas incompletas contra el set ya reparado.
	for i := range listaCitas {
		if !listaCitas[i].Incompleta() {
			continue
		}

		m, ok := resolverMascota(listaMascotas, listaCitas[i].MascotaID, listaCitas[i].Mascota)
		if !ok {
			reporte.Errores = append(reporte.Errores,
				fmt.Sprintf("cita %s: mascota %q no encontrada", listaCitas[i].ID, listaCitas[i].Mascota))
			continue
		}

		dueno, ok := resolverCliente(listaUsuarios, m.ClienteID)
		if !ok {
			reporte.Errores = append(reporte.Errores,
				fmt.Sprintf("cita %s: dueño de la mascota %q no resuelve", listaCitas[i].ID, m.Nombre))
			continue
		}

		listaCitas[i].MascotaID = m.ID
		listaCitas[i].ClienteID = dueno.ID
		listaCitas[i].ClienteNombre = dueno.NombreCompleto()
		citasCambiadas = true
		reporte.CitasReparadas++
	}

	if mascotasCambiadas {
		if err := c.mascotas.Guardar(listaMascotas); err != nil {
			reporte.Errores = append(reporte.Errores, fmt.Sprintf("persistiendo mascotas: %v", err))
		}
	}
	if citasCambiadas {
		if err := c.citas.Guardar(listaCitas); err != nil {
			reporte.Errores = append(reporte.Errores, fmt.Sprintf("persistiendo citas: %v", err))
		}
	}

	return reporte
}

// CorregirMascotasHuerfanas es la corrección liviana por usuario: toda
// mascota con dueño inválido pasa directo al cliente autenticado.
// Devuelve cuántas se reasignaron.
func (c *Contexto) CorregirMascotasHuerfanas() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sesion == nil || !c.sesion.EsCliente() {
		return 0
	}

	listaUsuarios := c.usuarios.Cargar()
	lista := c.mascotas.Cargar()

	reasignadas := 0
	for i := range lista {
		if _, ok := resolverCliente(listaUsuarios, lista[i].ClienteID); ok {
			continue
		}
		lista[i].ClienteID = c.sesion.ID
		reasignadas++
	}

	if reasignadas > 0 {
		if err := c.mascotas.Guardar(lista); err != nil {
			c.log.Error("no se pudieron guardar las mascotas reasignadas", map[string]any{"err": err.Error()})
			return 0
		}
		c.notificar(mascotas.Clave)
	}
	return reasignadas
}

// clientePorEspecie prefiere un cliente que ya tenga otra mascota de la
// misma especie (primer match en orden de colección).
func clientePorEspecie(listaUsuarios []usuarios.Usuario, listaMascotas []mascotas.Mascota, huerfana mascotas.Mascota) (usuarios.Usuario, bool) {
	for _, u := range listaUsuarios {
		if !u.EsCliente() {
			continue
		}
		for _, m := range listaMascotas {
			if m.ID == huerfana.ID || m.ClienteID != u.ID {
				continue
			}
			if m.MismaEspecie(huerfana.Especie) {
				return u, true
			}
		}
	}
	return usuarios.Usuario{}, false
}

func claveNombre(nombre string) string {
	return strings.ToLower(strings.TrimSpace(nombre))
}
