package app

import (
	"fmt"

	"petla/internal/domain/citas"
	"petla/internal/domain/fechas"
	"petla/internal/domain/mascotas"
	"petla/internal/domain/usuarios"
)

// Vistas derivadas: funciones puras sobre el estado actual, sin mutación.
// Los joins usan el mismo resolver en dos niveles que el motor de
// reparación, así la UI y la reparación nunca están en desacuerdo.

// DuenoConMascotas es el join dueño + sus mascotas.
type DuenoConMascotas struct {
	Dueno    usuarios.Usuario   `json:"dueno"`
	Mascotas []mascotas.Mascota `json:"mascotas"`
}

func (c *Contexto) DuenosConMascotas() []DuenoConMascotas {
	c.mu.Lock()
	defer c.mu.Unlock()

	listaMascotas := c.mascotas.Cargar()

	out := make([]DuenoConMascotas, 0)
	for _, u := range c.usuarios.Cargar() {
		if !u.EsCliente() {
			continue
		}
		fila := DuenoConMascotas{Dueno: u, Mascotas: []mascotas.Mascota{}}
		for _, m := range listaMascotas {
			if m.ClienteID == u.ID {
				fila.Mascotas = append(fila.Mascotas, m)
			}
		}
		out = append(out, fila)
	}
	return out
}

// CitaConRelaciones es el join cita + mascota + dueño resueltos.
// Mascota o Dueno quedan nil cuando no resuelven.
type CitaConRelaciones struct {
	Cita    citas.Cita        `json:"cita"`
	Mascota *mascotas.Mascota `json:"mascota,omitempty"`
	Dueno   *usuarios.Usuario `json:"dueno,omitempty"`
}

func (c *Contexto) CitasConRelaciones() []CitaConRelaciones {
	c.mu.Lock()
	defer c.mu.Unlock()

	listaUsuarios := c.usuarios.Cargar()
	listaMascotas := c.mascotas.Cargar()

	out := make([]CitaConRelaciones, 0)
	for _, ci := range c.citas.Cargar() {
		fila := CitaConRelaciones{Cita: ci}

		if m, ok := resolverMascota(listaMascotas, ci.MascotaID, ci.Mascota); ok {
			copia := m
			fila.Mascota = &copia

			if u, ok := resolverCliente(listaUsuarios, m.ClienteID); ok {
				copiaU := u
				fila.Dueno = &copiaU
			}
		}

		out = append(out, fila)
	}
	return out
}

// Estadisticas agregadas para el dashboard.
type Estadisticas struct {
	TotalUsuarios  int                  `json:"totalUsuarios"`
	TotalClientes  int                  `json:"totalClientes"`
	TotalMascotas  int                  `json:"totalMascotas"`
	TotalCitas     int                  `json:"totalCitas"`
	CitasPorEstado map[citas.Estado]int `json:"citasPorEstado"`
	UltimaVisita   *fechas.Fecha        `json:"ultimaVisita,omitempty"` // max fecha entre citas atendidas
}

func (c *Contexto) Estadisticas() Estadisticas {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Estadisticas{CitasPorEstado: make(map[citas.Estado]int)}

	for _, u := range c.usuarios.Cargar() {
		st.TotalUsuarios++
		if u.EsCliente() {
			st.TotalClientes++
		}
	}
	st.TotalMascotas = len(c.mascotas.Cargar())

	for _, ci := range c.citas.Cargar() {
		st.TotalCitas++
		st.CitasPorEstado[ci.Estado]++

		if ci.Estado == citas.EstadoAtendida {
			if st.UltimaVisita == nil || ci.Fecha.After(st.UltimaVisita.Time) {
				st.UltimaVisita = ci.Fecha.Ptr()
			}
		}
	}
	return st
}

// ReporteIntegridad lista las violaciones sin repararlas: mascotas
// huérfanas, citas incompletas y nombres fantasma. Es el diagnóstico
// de las mismas tres clases que el motor de reparación corrige.
type ReporteIntegridad struct {
	MascotasHuerfanas []string `json:"mascotasHuerfanas"`
	CitasIncompletas  []string `json:"citasIncompletas"`
	MascotasFantasma  []string `json:"mascotasFantasma"`
}

// Consistente indica que no hay violaciones.
func (r ReporteIntegridad) Consistente() bool {
	return len(r.MascotasHuerfanas) == 0 && len(r.CitasIncompletas) == 0 && len(r.MascotasFantasma) == 0
}

func (c *Contexto) ValidarRelaciones() ReporteIntegridad {
	c.mu.Lock()
	defer c.mu.Unlock()

	listaUsuarios := c.usuarios.Cargar()
	listaMascotas := c.mascotas.Cargar()

	r := ReporteIntegridad{
		MascotasHuerfanas: []string{},
		CitasIncompletas:  []string{},
		MascotasFantasma:  []string{},
	}

	for _, m := range listaMascotas {
		if _, ok := resolverCliente(listaUsuarios, m.ClienteID); !ok {
			r.MascotasHuerfanas = append(r.MascotasHuerfanas,
				fmt.Sprintf("mascota %s (%s): dueño %q no resuelve", m.ID, m.Nombre, m.ClienteID))
		}
	}

	fantasmas := make(map[string]bool)
	for _, ci := range c.citas.Cargar() {
		if ci.Incompleta() {
			r.CitasIncompletas = append(r.CitasIncompletas,
				fmt.Sprintf("cita %s (%s): faltan campos de backfill", ci.ID, ci.Mascota))
		}
		if _, ok := resolverMascota(listaMascotas, ci.MascotaID, ci.Mascota); !ok {
			clave := claveNombre(ci.Mascota)
			if clave != "" && !fantasmas[clave] {
				fantasmas[clave] = true
				r.MascotasFantasma = append(r.MascotasFantasma, ci.Mascota)
			}
		}
	}

	return r
}
