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
	"petla/internal/domain/notificaciones"
	"petla/internal/domain/usuarios"
)

var (
	ErrEmailRegistrado = errors.New("el email ya está registrado")
	ErrDatosInvalidos  = errors.New("datos de registro inválidos")
)

// clavesConfigUsuario son las claves de configuración por usuario que se
// barren al eliminar la cuenta.
var clavesConfigUsuario = []string{
	"petla_user_bio",
	"petla_user_direccion",
	"petla_user_documento",
	"petla_user_tipo_documento",
	"petla_notifications",
	"petla_theme",
	"petla_security_2fa",
	"petla_security_login_alerts",
	"petla_security_session_timeout",
}

// Login autentica por email o username (case-insensitive) o teléfono
// exacto. Devuelve nil ante cualquier fallo; el rate-limiting, si lo hay,
// es problema del llamador.
//
// La comparación de contraseña es texto plano: compatibilidad con los
// datos legados, no un diseño a conservar en un sistema real. Las cuentas
// cliente sin contraseña guardada entran sin validar (cuentas legadas);
// veterinarios y admins sin contraseña nunca pueden entrar.
func (c *Contexto) Login(identificador, contrasena string) *usuarios.Usuario {
	c.mu.Lock()
	defer c.mu.Unlock()

	var encontrado *usuarios.Usuario
	for _, u := range c.usuarios.Cargar() {
		if u.CoincideIdentificador(identificador) {
			copia := u
			encontrado = &copia
			break
		}
	}
	if encontrado == nil {
		return nil
	}

	if encontrado.Contrasena != "" {
		if encontrado.Contrasena != contrasena {
			return nil
		}
	} else if !encontrado.EsCliente() {
		return nil
	}

	c.setUsuario(encontrado)

	// El original difería una recarga asíncrona para tapar una carrera de
	// persistencia en el mismo tick. Acá las colecciones leen siempre a
	// través del KV, así que basta con releerlas antes de devolver.
	nm := len(c.mascotas.Cargar())
	nc := len(c.citas.Cargar())
	np := len(c.preCitas.Cargar())
	c.log.Debug("sesión iniciada, colecciones releídas", map[string]any{
		"usuario": encontrado.ID, "mascotas": nm, "citas": nc, "preCitas": np,
	})

	return encontrado
}

// DatosRegistro deja pasar todos los campos de perfil.
type DatosRegistro struct {
	Nombre          string
	Apellido        string
	Username        string
	Email           string
	Telefono        string
	Direccion       string
	Genero          string
	FechaNacimiento *fechas.Fecha
	Rol             usuarios.Rol
	Contrasena      string
	Foto            string
	Documento       string
	TipoDocumento   string
	Especialidad    string
	Experiencia     string
	Licencia        string
}

// Registrar crea la cuenta, la deja como sesión activa y, si es cliente,
// emite la notificación de bienvenida. El email se compara
// case-insensitive: misma regla de identidad que el login.
func (c *Contexto) Registrar(datos DatosRegistro) (*usuarios.Usuario, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	email := strings.TrimSpace(datos.Email)
	if email == "" || strings.TrimSpace(datos.Nombre) == "" {
		return nil, ErrDatosInvalidos
	}

	for _, u := range c.usuarios.Cargar() {
		if strings.EqualFold(strings.TrimSpace(u.Email), email) {
			return nil, ErrEmailRegistrado
		}
	}

	rol := datos.Rol
	if rol == "" {
		rol = usuarios.RolCliente
	}

	ahora := c.now()
	u := usuarios.Usuario{
		// id derivado del timestamp como en el esquema legado, con un
		// fragmento aleatorio para que no colisione
		ID:              fmt.Sprintf("%d-%s", ahora.UnixMilli(), uuid.NewString()[:8]),
		Nombre:          strings.TrimSpace(datos.Nombre),
		Apellido:        strings.TrimSpace(datos.Apellido),
		Username:        strings.TrimSpace(datos.Username),
		Email:           email,
		Telefono:        strings.TrimSpace(datos.Telefono),
		Direccion:       strings.TrimSpace(datos.Direccion),
		Genero:          datos.Genero,
		FechaNacimiento: datos.FechaNacimiento,
		Rol:             rol,
		Contrasena:      datos.Contrasena,
		FechaRegistro:   fechas.Nueva(ahora),
		Foto:            datos.Foto,
		Documento:       strings.TrimSpace(datos.Documento),
		TipoDocumento:   datos.TipoDocumento,
		Especialidad:    strings.TrimSpace(datos.Especialidad),
		Experiencia:     strings.TrimSpace(datos.Experiencia),
		Licencia:        strings.TrimSpace(datos.Licencia),
	}

	if err := c.usuarios.Agregar(u); err != nil {
		return nil, err
	}
	c.setUsuario(&u)

	if u.EsCliente() {
		c.emitirNotificacion(notificaciones.Notificacion{
			UsuarioID: u.ID,
			Tipo:      notificaciones.TipoBienvenida,
			Titulo:    "¡Bienvenido a Petla!",
			Mensaje:   fmt.Sprintf("Hola %s, tu cuenta fue creada con éxito.", u.Nombre),
		})
	}

	c.notificar(usuarios.Clave)
	return &u, nil
}

// EliminarCuenta borra en cascada todo lo que depende de una cuenta
// cliente: mascotas, citas, historial de esas mascotas, notificaciones,
// comprobantes y claves de configuración, y al final el usuario.
//
// Dos fases: primero se planifica todo contra el estado en memoria,
// después se persiste colección por colección. No hay transacción entre
// claves del KV; un fallo a mitad de camino devuelve false y la próxima
// escritura exitosa de cada colección converge.
func (c *Contexto) EliminarCuenta(usuarioID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	u, ok := c.usuarios.Buscar(usuarioID)
	if !ok || !u.EsCliente() {
		return false
	}

	// Fase 1: planificar.
	mascotasDe := make(map[string]bool) // ids de mascotas a borrar
	nombresDe := make(map[string]bool)  // nombres (join legado) de esas mascotas
	for _, m := range c.mascotas.Cargar() {
		if m.ClienteID == usuarioID {
			mascotasDe[m.ID] = true
			nombresDe[claveNombre(m.Nombre)] = true
		}
	}

	// Citas del usuario, más las que referencian sus mascotas solo por
	// nombre (citas incompletas aún sin backfill).
	citasDe := make(map[string]bool)
	for _, ci := range c.citas.Cargar() {
		if ci.ClienteID == usuarioID || nombresDe[claveNombre(ci.Mascota)] {
			citasDe[ci.ID] = true
		}
	}

	// Fase 2: persistir cada colección.
	pasos := []func() error{
		func() error {
			_, err := c.mascotas.Filtrar(func(m mascotas.Mascota) bool { return !mascotasDe[m.ID] })
			return err
		},
		func() error {
			_, err := c.citas.Filtrar(func(ci citas.Cita) bool { return !citasDe[ci.ID] })
			return err
		},
		func() error {
			_, err := c.historial.Filtrar(func(e historial.Entrada) bool { return !mascotasDe[e.MascotaID] })
			return err
		},
		func() error {
			_, err := c.notificaciones.Filtrar(func(n notificaciones.Notificacion) bool { return n.UsuarioID != usuarioID })
			return err
		},
	}
	for _, paso := range pasos {
		if err := paso(); err != nil {
			c.log.Error("cascada de eliminación interrumpida", map[string]any{
				"usuario": usuarioID, "err": err.Error(),
			})
			return false
		}
	}

	// Comprobantes independientes de las citas eliminadas.
	for citaID := range citasDe {
		c.kv.Remove(citas.ClaveComprobante(citaID))
	}

	// Configuración por usuario.
	for _, clave := range clavesConfigUsuario {
		c.kv.Remove(clave)
	}

	if err := c.usuarios.Eliminar(usuarioID); err != nil {
		c.log.Error("no se pudo eliminar el usuario", map[string]any{
			"usuario": usuarioID, "err": err.Error(),
		})
		return false
	}

	if c.sesion != nil && c.sesion.ID == usuarioID {
		c.setUsuario(nil)
	}

	c.notificar(usuarios.Clave)
	return true
}
