package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"petla/internal/domain/citas"
	"petla/internal/domain/fechas"
	"petla/internal/domain/historial"
	"petla/internal/domain/mascotas"
	"petla/internal/domain/newsletter"
	"petla/internal/domain/notificaciones"
	"petla/internal/domain/servicios"
	"petla/internal/domain/usuarios"
)

var (
	ErrNoEncontrado       = errors.New("no encontrado")
	ErrTransicionInvalida = errors.New("transición de estado inválida")
)

// ---- Usuarios ----

func (c *Contexto) Usuarios() []usuarios.Usuario {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usuarios.Cargar()
}

func (c *Contexto) BuscarUsuario(id string) (usuarios.Usuario, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usuarios.Buscar(id)
}

func (c *Contexto) AgregarUsuario(u usuarios.Usuario) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if err := c.usuarios.Agregar(u); err != nil {
		return err
	}
	c.notificar(usuarios.Clave)
	return nil
}

// ActualizarUsuario aplica el mutador sobre el usuario y, si es el de la
// sesión, refresca también la sesión persistida.
func (c *Contexto) ActualizarUsuario(id string, mutar func(*usuarios.Usuario)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ok, err := c.usuarios.Actualizar(id, mutar)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoEncontrado
	}

	if c.sesion != nil && c.sesion.ID == id {
		if u, ok := c.usuarios.Buscar(id); ok {
			c.setUsuario(&u)
		}
	}

	c.notificar(usuarios.Clave)
	return nil
}

// ---- Mascotas ----

func (c *Contexto) Mascotas() []mascotas.Mascota {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mascotas.Cargar()
}

func (c *Contexto) MascotasDe(clienteID string) []mascotas.Mascota {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]mascotas.Mascota, 0)
	for _, m := range c.mascotas.Cargar() {
		if m.ClienteID == clienteID {
			out = append(out, m)
		}
	}
	return out
}

func (c *Contexto) AgregarMascota(m mascotas.Mascota) (mascotas.Mascota, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if strings.TrimSpace(m.Nombre) == "" {
		return mascotas.Mascota{}, fmt.Errorf("nombre de mascota requerido")
	}
	if m.Estado == "" {
		m.Estado = "Activa"
	}

	if err := c.mascotas.Agregar(m); err != nil {
		return mascotas.Mascota{}, err
	}
	c.notificar(mascotas.Clave)
	return m, nil
}

func (c *Contexto) ActualizarMascota(id string, mutar func(*mascotas.Mascota)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ok, err := c.mascotas.Actualizar(id, mutar)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoEncontrado
	}
	c.notificar(mascotas.Clave)
	return nil
}

// EliminarMascota borra la mascota y arrastra las citas que la
// referencian por nombre (join legado).
func (c *Contexto) EliminarMascota(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.mascotas.Buscar(id)
	if !ok {
		return ErrNoEncontrado
	}

	if err := c.mascotas.Eliminar(id); err != nil {
		return err
	}

	eliminadas, err := c.citas.Filtrar(func(ci citas.Cita) bool {
		return ci.MascotaID != id && !m.MismoNombre(ci.Mascota)
	})
	if err != nil {
		return err
	}
	if eliminadas > 0 {
		c.log.Info("citas arrastradas al eliminar mascota", map[string]any{
			"mascota": m.Nombre, "citas": eliminadas,
		})
	}

	c.notificar(mascotas.Clave)
	c.notificar(citas.Clave)
	return nil
}

// ---- Citas ----

func (c *Contexto) Citas() []citas.Cita {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.citas.Cargar()
}

func (c *Contexto) BuscarCita(id string) (citas.Cita, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.citas.Buscar(id)
}

// CitasDeVeterinario devuelve las citas cuyo veterinario en texto libre
// resuelve al usuario dado.
func (c *Contexto) CitasDeVeterinario(usuarioID string) []citas.Cita {
	c.mu.Lock()
	defer c.mu.Unlock()

	lista := c.usuarios.Cargar()

	out := make([]citas.Cita, 0)
	for _, ci := range c.citas.Cargar() {
		if v, ok := resolverVeterinario(lista, ci.Veterinario); ok && v.ID == usuarioID {
			out = append(out, ci)
		}
	}
	return out
}

func (c *Contexto) AgregarCita(ci citas.Cita) (citas.Cita, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ci.ID == "" {
		ci.ID = uuid.NewString()
	}
	if strings.TrimSpace(ci.Mascota) == "" {
		return citas.Cita{}, fmt.Errorf("nombre de mascota requerido")
	}
	if ci.Estado == "" {
		ci.Estado = citas.EstadoPendientePago
	}

	if err := c.citas.Agregar(ci); err != nil {
		return citas.Cita{}, err
	}
	c.notificar(citas.Clave)
	return ci, nil
}

// CambiarEstadoCita aplica la máquina de estados. Notifica al cliente de
// la cita cuando hay uno resuelto.
func (c *Contexto) CambiarEstadoCita(id string, nuevo citas.Estado, notasAdmin string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ci, ok := c.citas.Buscar(id)
	if !ok {
		return ErrNoEncontrado
	}
	if !citas.TransicionValida(ci.Estado, nuevo) {
		return fmt.Errorf("%w: %s -> %s", ErrTransicionInvalida, ci.Estado, nuevo)
	}

	if _, err := c.citas.Actualizar(id, func(ci *citas.Cita) {
		ci.Estado = nuevo
		if notasAdmin != "" {
			ci.NotasAdmin = notasAdmin
		}
	}); err != nil {
		return err
	}

	if ci.ClienteID != "" {
		c.emitirNotificacion(notificaciones.Notificacion{
			UsuarioID: ci.ClienteID,
			Tipo:      notificaciones.TipoCita,
			Titulo:    "Tu cita cambió de estado",
			Mensaje:   fmt.Sprintf("La cita de %s pasó a %s.", ci.Mascota, nuevo),
			CitaID:    ci.ID,
		})
	}

	c.notificar(citas.Clave)
	return nil
}

func (c *Contexto) EliminarCita(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.citas.Buscar(id); !ok {
		return ErrNoEncontrado
	}
	if err := c.citas.Eliminar(id); err != nil {
		return err
	}
	c.kv.Remove(citas.ClaveComprobante(id))
	c.notificar(citas.Clave)
	return nil
}

// ---- Pre-citas ----

func (c *Contexto) PreCitas() []citas.PreCita {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preCitas.Cargar()
}

func (c *Contexto) AgregarPreCita(p citas.PreCita) (citas.PreCita, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Estado = citas.PreCitaPendiente
	p.FechaCreacion = fechas.Nueva(c.now())

	if err := c.preCitas.Agregar(p); err != nil {
		return citas.PreCita{}, err
	}
	c.notificar(citas.ClavePre)
	return p, nil
}

// AceptarPreCita convierte la solicitud en una cita real, respetando el
// veterinario asignado y la fecha reprogramada si los hay.
func (c *Contexto) AceptarPreCita(id string) (citas.Cita, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.preCitas.Buscar(id)
	if !ok {
		return citas.Cita{}, ErrNoEncontrado
	}
	if p.Estado != citas.PreCitaPendiente {
		return citas.Cita{}, fmt.Errorf("la pre-cita %s ya fue resuelta", id)
	}

	fecha := p.FechaPreferida
	if p.FechaReprogramada != nil {
		fecha = *p.FechaReprogramada
	}

	ci := citas.Cita{
		ID:          uuid.NewString(),
		Mascota:     p.Mascota,
		Especie:     p.Especie,
		Fecha:       fecha,
		Estado:      citas.EstadoPendientePago,
		Veterinario: p.Veterinario,
		Motivo:      p.Motivo,
	}
	if err := c.citas.Agregar(ci); err != nil {
		return citas.Cita{}, err
	}

	if _, err := c.preCitas.Actualizar(id, func(p *citas.PreCita) {
		p.Estado = citas.PreCitaAceptada
	}); err != nil {
		return citas.Cita{}, err
	}

	c.notificar(citas.ClavePre)
	c.notificar(citas.Clave)
	return ci, nil
}

func (c *Contexto) RechazarPreCita(id, notas string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ok, err := c.preCitas.Actualizar(id, func(p *citas.PreCita) {
		p.Estado = citas.PreCitaRechazada
		p.NotasAdmin = notas
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoEncontrado
	}
	c.notificar(citas.ClavePre)
	return nil
}

// ---- Historial clínico ----

func (c *Contexto) Historial() []historial.Entrada {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.historial.Cargar()
}

func (c *Contexto) HistorialDeMascota(mascotaID string) []historial.Entrada {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]historial.Entrada, 0)
	for _, e := range c.historial.Cargar() {
		if e.MascotaID == mascotaID {
			out = append(out, e)
		}
	}
	return out
}

// RegistrarConsulta crea la entrada de historial y notifica al dueño de
// la mascota. El vínculo a la mascota queda inmutable desde acá.
func (c *Contexto) RegistrarConsulta(e historial.Entrada) (historial.Entrada, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.mascotas.Buscar(e.MascotaID)
	if !ok {
		return historial.Entrada{}, ErrNoEncontrado
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.MascotaNombre = m.Nombre
	if e.Estado == "" {
		e.Estado = historial.EntradaCompletada
	}

	if err := c.historial.Agregar(e); err != nil {
		return historial.Entrada{}, err
	}

	if _, ok := resolverCliente(c.usuarios.Cargar(), m.ClienteID); ok {
		c.emitirNotificacion(notificaciones.Notificacion{
			UsuarioID: m.ClienteID,
			Tipo:      notificaciones.TipoConsulta,
			Titulo:    "Consulta registrada",
			Mensaje:   fmt.Sprintf("Se registró una consulta para %s.", m.Nombre),
		})
	}

	c.notificar(historial.Clave)
	return e, nil
}

// ---- Newsletter ----

func (c *Contexto) Suscriptores() []newsletter.Suscriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suscriptores.Cargar()
}

// SuscribirNewsletter reactiva la suscripción si el email (en minúsculas)
// ya existía inactivo, en vez de duplicarla.
func (c *Contexto) SuscribirNewsletter(email string) (newsletter.Suscriptor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return newsletter.Suscriptor{}, fmt.Errorf("email inválido")
	}

	lista := c.suscriptores.Cargar()
	for i := range lista {
		if lista[i].MismoEmail(email) {
			if !lista[i].Activo {
				lista[i].Activo = true
				if err := c.suscriptores.Guardar(lista); err != nil {
					return newsletter.Suscriptor{}, err
				}
				c.notificar(newsletter.ClaveSuscriptores)
			}
			return lista[i], nil
		}
	}

	s := newsletter.Suscriptor{
		ID:               uuid.NewString(),
		Email:            strings.ToLower(email),
		FechaSuscripcion: fechas.Nueva(c.now()),
		Activo:           true,
	}
	if err := c.suscriptores.Agregar(s); err != nil {
		return newsletter.Suscriptor{}, err
	}
	c.notificar(newsletter.ClaveSuscriptores)
	return s, nil
}

func (c *Contexto) EmailsNewsletter() []newsletter.EmailNewsletter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.emails.Cargar()
}

func (c *Contexto) AgregarEmailNewsletter(e newsletter.EmailNewsletter) (newsletter.EmailNewsletter, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Estado == "" {
		e.Estado = newsletter.EmailBorrador
	}
	e.FechaCreacion = fechas.Nueva(c.now())

	if err := c.emails.Agregar(e); err != nil {
		return newsletter.EmailNewsletter{}, err
	}
	c.notificar(newsletter.ClaveEmails)
	return e, nil
}

// MarcarEmailEnviado cierra el correo: estado enviado, fecha de envío y
// cuántos suscriptores activos lo recibieron.
func (c *Contexto) MarcarEmailEnviado(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	activos := 0
	for _, s := range c.suscriptores.Cargar() {
		if s.Activo {
			activos++
		}
	}

	ahora := fechas.Nueva(c.now())
	ok, err := c.emails.Actualizar(id, func(e *newsletter.EmailNewsletter) {
		e.Estado = newsletter.EmailEnviado
		e.FechaEnvio = ahora.Ptr()
		e.Destinatarios = activos
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoEncontrado
	}
	c.notificar(newsletter.ClaveEmails)
	return nil
}

// ---- Notificaciones ----

func (c *Contexto) NotificacionesDe(usuarioID string) []notificaciones.Notificacion {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]notificaciones.Notificacion, 0)
	for _, n := range c.notificaciones.Cargar() {
		if n.UsuarioID == usuarioID {
			out = append(out, n)
		}
	}
	return out
}

func (c *Contexto) MarcarNotificacionLeida(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ok, err := c.notificaciones.Actualizar(id, func(n *notificaciones.Notificacion) {
		n.Leida = true
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoEncontrado
	}
	c.notificar(notificaciones.Clave)
	return nil
}

// emitirNotificacion asume lock tomado.
func (c *Contexto) emitirNotificacion(n notificaciones.Notificacion) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.FechaCreacion = fechas.Nueva(c.now())

	if err := c.notificaciones.Agregar(n); err != nil {
		// una notificación perdida no frena la operación que la emitió
		c.log.Warn("no se pudo emitir la notificación", map[string]any{
			"usuario": n.UsuarioID, "err": err.Error(),
		})
		return
	}
	c.notificar(notificaciones.Clave)
}

// ---- Servicios (catálogo UI) ----

func (c *Contexto) Servicios() []servicios.Servicio {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.servicios.Cargar()
}

func (c *Contexto) AgregarServicio(s servicios.Servicio) (servicios.Servicio, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if err := c.servicios.Agregar(s); err != nil {
		return servicios.Servicio{}, err
	}
	c.notificar(servicios.Clave)
	return s, nil
}
