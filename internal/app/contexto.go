// Package app es el núcleo del sistema: el facade que la UI (y acá el
// router HTTP) consume. Mantiene la sesión, las colecciones de entidades,
// el motor de reconciliación de relaciones, el almacén de comprobantes y
// las vistas derivadas.
//
// El patrón original era un contexto reactivo global; acá es un objeto
// explícito con suscripción por observador: cada operación mutadora
// notifica el nombre de su colección después de persistir, y la
// reparación automática es un suscriptor más.
package app

import (
	"encoding/json"
	"sync"
	"time"

	"petla/internal/domain/citas"
	"petla/internal/domain/historial"
	"petla/internal/domain/mascotas"
	"petla/internal/domain/newsletter"
	"petla/internal/domain/notificaciones"
	"petla/internal/domain/servicios"
	"petla/internal/domain/usuarios"
	"petla/internal/platform/logger"
	"petla/internal/storage"
)

// Contexto es el store central. Modelo de un solo escritor: el mutex
// serializa todas las operaciones; los observadores corren con el lock
// tomado y no deben reentrar al Contexto.
type Contexto struct {
	mu  sync.Mutex
	kv  storage.KV
	log logger.Logger
	now func() time.Time

	usuarios       *storage.Coleccion[usuarios.Usuario]
	mascotas       *storage.Coleccion[mascotas.Mascota]
	citas          *storage.Coleccion[citas.Cita]
	preCitas       *storage.Coleccion[citas.PreCita]
	historial      *storage.Coleccion[historial.Entrada]
	suscriptores   *storage.Coleccion[newsletter.Suscriptor]
	emails         *storage.Coleccion[newsletter.EmailNewsletter]
	notificaciones *storage.Coleccion[notificaciones.Notificacion]
	servicios      *storage.Coleccion[servicios.Servicio]

	migraciones *registroMigraciones

	sesion       *usuarios.Usuario
	observadores []func(coleccion string)
	enReparacion bool
}

// New construye el contexto sobre el KV dado, carga la sesión, corre las
// migraciones pendientes y deja armado el disparador de auto-reparación.
func New(kv storage.KV, log logger.Logger) *Contexto {
	c := &Contexto{
		kv:  kv,
		log: log.With(map[string]any{"componente": "contexto"}),
		now: time.Now,

		usuarios:       usuarios.NuevaColeccion(kv, log),
		mascotas:       mascotas.NuevaColeccion(kv, log),
		citas:          citas.NuevaColeccion(kv, log),
		preCitas:       citas.NuevaColeccionPre(kv, log),
		historial:      historial.NuevaColeccion(kv, log),
		suscriptores:   newsletter.NuevaColeccionSuscriptores(kv, log),
		emails:         newsletter.NuevaColeccionEmails(kv, log),
		notificaciones: notificaciones.NuevaColeccion(kv, log),
		servicios:      servicios.NuevaColeccion(kv, log),
	}
	c.migraciones = nuevoRegistroMigraciones(kv, log)

	c.cargarSesion()
	c.observadores = append(c.observadores, c.dispararAutoReparacion)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.limpiarDatosFicticios()
	c.autoReparar()

	return c
}

// Suscribir registra un observador. Recibe el nombre de la colección que
// cambió, con el lock del contexto tomado: no reentrar.
func (c *Contexto) Suscribir(fn func(coleccion string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observadores = append(c.observadores, fn)
}

func (c *Contexto) notificar(coleccion string) {
	for _, fn := range c.observadores {
		fn(coleccion)
	}
}

// ---- Sesión ----

func (c *Contexto) cargarSesion() {
	raw, ok := c.kv.Get(usuarios.ClaveSesion)
	if !ok || raw == "" {
		return
	}
	var u usuarios.Usuario
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		c.log.Error("sesión corrupta, se descarta", map[string]any{"err": err.Error()})
		c.kv.Remove(usuarios.ClaveSesion)
		return
	}
	c.sesion = &u
}

// Usuario devuelve el usuario de la sesión activa, o nil.
func (c *Contexto) Usuario() *usuarios.Usuario {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sesion == nil {
		return nil
	}
	copia := *c.sesion
	return &copia
}

// SetUsuario fija (o limpia, con nil) la sesión y la persiste.
func (c *Contexto) SetUsuario(u *usuarios.Usuario) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setUsuario(u)
}

func (c *Contexto) setUsuario(u *usuarios.Usuario) {
	if u == nil {
		c.sesion = nil
		c.kv.Remove(usuarios.ClaveSesion)
		return
	}

	copia := *u
	c.sesion = &copia

	b, err := json.Marshal(copia)
	if err != nil {
		c.log.Error("no se pudo serializar la sesión", map[string]any{"err": err.Error()})
		return
	}

	storage.AsegurarCapacidad(c.kv, c.log)
	if err := c.kv.Set(usuarios.ClaveSesion, string(b)); err != nil {
		c.log.Error("no se pudo persistir la sesión", map[string]any{"err": err.Error()})
	}
}

func (c *Contexto) Logout() {
	c.SetUsuario(nil)
}

func (c *Contexto) Autenticado() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sesion != nil
}

// ---- Datos ficticios ----

// limpiarDatosFicticios elimina los registros de demostración sembrados
// por versiones viejas. Corre una sola vez (registro de migraciones).
func (c *Contexto) limpiarDatosFicticios() {
	if c.migraciones.aplicada(MigracionDatosFicticios) {
		return
	}

	esDemo := func(id string) bool {
		return len(id) > 5 && id[:5] == "demo_"
	}

	nu, _ := c.usuarios.Filtrar(func(u usuarios.Usuario) bool { return !esDemo(u.ID) })
	nm, _ := c.mascotas.Filtrar(func(m mascotas.Mascota) bool { return !esDemo(m.ID) })
	nc, _ := c.citas.Filtrar(func(ci citas.Cita) bool { return !esDemo(ci.ID) })

	if nu+nm+nc > 0 {
		c.log.Info("datos ficticios eliminados", map[string]any{
			"usuarios": nu, "mascotas": nm, "citas": nc,
		})
	}

	c.migraciones.marcar(MigracionDatosFicticios, c.now())
}
