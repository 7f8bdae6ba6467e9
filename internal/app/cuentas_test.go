package app

import (
	"errors"
	"testing"

	"petla/internal/domain/citas"
	"petla/internal/domain/fechas"
	"petla/internal/domain/historial"
	"petla/internal/domain/mascotas"
	"petla/internal/domain/notificaciones"
	"petla/internal/domain/usuarios"
	"petla/internal/storage"
)

func contextoConCuentas(t *testing.T) (*Contexto, storage.KV) {
	t.Helper()

	kv := storage.NewMemoria(0)
	suprimirMigraciones(t, kv)
	sembrar(t, kv, usuarios.Clave, []usuarios.Usuario{
		{ID: "u-ana", Nombre: "Ana", Apellido: "Paz", Email: "Ana@Example.com",
			Username: "anap", Telefono: "555-1234", Contrasena: "secreta", Rol: usuarios.RolCliente},
		{ID: "u-luis", Nombre: "Luis", Email: "luis@example.com", Rol: usuarios.RolCliente}, // sin contraseña
		{ID: "u-vet", Nombre: "Sofía", Apellido: "Gil", Email: "vet@clinic.com", Rol: usuarios.RolVeterinario},
	})
	return nuevoContexto(t, kv), kv
}

func TestLogin_Identificadores(t *testing.T) {
	casos := []struct {
		nombre        string
		identificador string
		contrasena    string
		quiereID      string
	}{
		{"email exacto", "Ana@Example.com", "secreta", "u-ana"},
		{"email otra caja", "ana@example.COM", "secreta", "u-ana"},
		{"username", "ANAP", "secreta", "u-ana"},
		{"telefono exacto", "555-1234", "secreta", "u-ana"},
		{"con espacios", "  ana@example.com  ", "secreta", "u-ana"},
		{"contraseña incorrecta", "ana@example.com", "otra", ""},
		{"identificador desconocido", "nadie@example.com", "secreta", ""},
		{"identificador vacío", "", "secreta", ""},
	}

	for _, caso := range casos {
		t.Run(caso.nombre, func(t *testing.T) {
			c, _ := contextoConCuentas(t)

			u := c.Login(caso.identificador, caso.contrasena)
			if caso.quiereID == "" {
				if u != nil {
					t.Fatalf("login debería fallar, entró %q", u.ID)
				}
				return
			}
			if u == nil || u.ID != caso.quiereID {
				t.Fatalf("login = %+v, quiere id %q", u, caso.quiereID)
			}
		})
	}
}

func TestLogin_CuentasSinContrasena(t *testing.T) {
	c, _ := contextoConCuentas(t)

	// cliente legado sin contraseña: entra con cualquier cosa
	if u := c.Login("luis@example.com", "loquesea"); u == nil || u.ID != "u-luis" {
		t.Fatalf("el cliente legado sin contraseña debería entrar, dio %+v", u)
	}

	// veterinario sin contraseña: nunca
	if u := c.Login("vet@clinic.com", "loquesea"); u != nil {
		t.Fatalf("un veterinario sin contraseña no debe entrar, entró %q", u.ID)
	}
}

func TestLogin_PersisteLaSesion(t *testing.T) {
	c, kv := contextoConCuentas(t)

	if u := c.Login("ana@example.com", "secreta"); u == nil {
		t.Fatalf("login falló")
	}

	if !c.Autenticado() {
		t.Fatalf("debería haber sesión activa")
	}
	if raw, ok := kv.Get(usuarios.ClaveSesion); !ok || raw == "" {
		t.Fatalf("la sesión debería persistirse bajo %q", usuarios.ClaveSesion)
	}

	c.Logout()
	if c.Autenticado() {
		t.Fatalf("logout debería limpiar la sesión")
	}
	if _, ok := kv.Get(usuarios.ClaveSesion); ok {
		t.Fatalf("logout debería borrar la clave de sesión")
	}
}

func TestRegistrar_EmailDuplicadoCaseInsensitive(t *testing.T) {
	c, _ := contextoConCuentas(t)

	_, err := c.Registrar(DatosRegistro{Nombre: "Otra", Email: "ANA@EXAMPLE.COM"})
	if !errors.Is(err, ErrEmailRegistrado) {
		t.Fatalf("se esperaba ErrEmailRegistrado, llegó %v", err)
	}
}

func TestRegistrar_ClienteQuedaEnSesionYConBienvenida(t *testing.T) {
	c, _ := contextoConCuentas(t)

	u, err := c.Registrar(DatosRegistro{Nombre: "Pedro", Email: "pedro@example.com", Contrasena: "x"})
	if err != nil {
		t.Fatalf("Registrar: %v", err)
	}
	if u.Rol != usuarios.RolCliente {
		t.Fatalf("el rol por defecto es cliente, dio %q", u.Rol)
	}

	sesion := c.Usuario()
	if sesion == nil || sesion.ID != u.ID {
		t.Fatalf("el registro debería dejar la cuenta en sesión")
	}

	notifs := c.NotificacionesDe(u.ID)
	if len(notifs) != 1 || notifs[0].Tipo != notificaciones.TipoBienvenida {
		t.Fatalf("se esperaba la notificación de bienvenida, hay %+v", notifs)
	}
}

func TestRegistrar_DatosInvalidos(t *testing.T) {
	c, _ := contextoConCuentas(t)

	if _, err := c.Registrar(DatosRegistro{Nombre: "", Email: "x@y.com"}); !errors.Is(err, ErrDatosInvalidos) {
		t.Fatalf("sin nombre: %v", err)
	}
	if _, err := c.Registrar(DatosRegistro{Nombre: "X", Email: ""}); !errors.Is(err, ErrDatosInvalidos) {
		t.Fatalf("sin email: %v", err)
	}
}

func TestEliminarCuenta_CascadaCompleta(t *testing.T) {
	kv := storage.NewMemoria(0)
	suprimirMigraciones(t, kv)
	sembrar(t, kv, usuarios.Clave, []usuarios.Usuario{
		{ID: "u-ana", Nombre: "Ana", Apellido: "Paz", Email: "ana@example.com", Contrasena: "secreta", Rol: usuarios.RolCliente},
		{ID: "u-beto", Nombre: "Beto", Email: "beto@example.com", Rol: usuarios.RolCliente},
	})
	sembrar(t, kv, mascotas.Clave, []mascotas.Mascota{
		{ID: "m1", Nombre: "Boby", Especie: "Perro", Estado: "Activa", ClienteID: "u-ana"},
		{ID: "m2", Nombre: "Michi", Especie: "Gato", Estado: "Activa", ClienteID: "u-beto"},
	})
	sembrar(t, kv, citas.Clave, []citas.Cita{
		// cita ya religada al cliente
		{ID: "c1", Mascota: "Boby", MascotaID: "m1", ClienteID: "u-ana", ClienteNombre: "Ana Paz",
			Fecha: fechas.Nueva(ahoraTest), Estado: citas.EstadoConfirmada},
		// cita legada que solo referencia a la mascota por nombre
		{ID: "c2", Mascota: "boby", Fecha: fechas.Nueva(ahoraTest), Estado: citas.EstadoPendientePago},
		// cita de otro cliente: debe sobrevivir
		{ID: "c3", Mascota: "Michi", MascotaID: "m2", ClienteID: "u-beto", ClienteNombre: "Beto",
			Fecha: fechas.Nueva(ahoraTest), Estado: citas.EstadoConfirmada},
	})
	sembrar(t, kv, historial.Clave, []historial.Entrada{
		{ID: "h1", MascotaID: "m1", MascotaNombre: "Boby", Fecha: fechas.Nueva(ahoraTest), Estado: historial.EntradaCompletada},
		{ID: "h2", MascotaID: "m2", MascotaNombre: "Michi", Fecha: fechas.Nueva(ahoraTest), Estado: historial.EntradaCompletada},
	})
	sembrar(t, kv, notificaciones.Clave, []notificaciones.Notificacion{
		{ID: "n1", UsuarioID: "u-ana", Tipo: notificaciones.TipoCita, Titulo: "t", Mensaje: "m"},
		{ID: "n2", UsuarioID: "u-beto", Tipo: notificaciones.TipoCita, Titulo: "t", Mensaje: "m"},
	})
	_ = kv.Set(citas.ClaveComprobante("c1"), `{"id":"receipt_c1_1"}`)
	_ = kv.Set("petla_theme", "oscuro")

	c := nuevoContexto(t, kv)
	if u := c.Login("ana@example.com", "secreta"); u == nil {
		t.Fatalf("login falló")
	}

	if !c.EliminarCuenta("u-ana") {
		t.Fatalf("EliminarCuenta debería devolver true")
	}

	for _, u := range c.Usuarios() {
		if u.ID == "u-ana" {
			t.Fatalf("el usuario debería haberse eliminado")
		}
	}
	for _, m := range c.Mascotas() {
		if m.ClienteID == "u-ana" {
			t.Fatalf("las mascotas del cliente deberían haberse eliminado: %+v", m)
		}
	}

	quedan := c.Citas()
	if len(quedan) != 1 || quedan[0].ID != "c3" {
		t.Fatalf("solo debería sobrevivir la cita de Beto, quedan %+v", quedan)
	}

	historialRestante := c.Historial()
	if len(historialRestante) != 1 || historialRestante[0].ID != "h2" {
		t.Fatalf("el historial de Boby debería haberse eliminado, queda %+v", historialRestante)
	}

	if len(c.NotificacionesDe("u-ana")) != 0 {
		t.Fatalf("las notificaciones del cliente deberían haberse eliminado")
	}
	if len(c.NotificacionesDe("u-beto")) != 1 {
		t.Fatalf("las notificaciones de otros clientes deben sobrevivir")
	}

	if _, ok := kv.Get(citas.ClaveComprobante("c1")); ok {
		t.Fatalf("el comprobante independiente debería haberse eliminado")
	}
	if _, ok := kv.Get("petla_theme"); ok {
		t.Fatalf("las claves de configuración deberían haberse barrido")
	}

	if c.Autenticado() {
		t.Fatalf("eliminar la cuenta en sesión debería cerrar la sesión")
	}
}

func TestEliminarCuenta_SoloClientes(t *testing.T) {
	kv := storage.NewMemoria(0)
	suprimirMigraciones(t, kv)
	sembrar(t, kv, usuarios.Clave, []usuarios.Usuario{
		{ID: "u-adm", Nombre: "Root", Email: "admin@petla.com", Rol: usuarios.RolAdmin},
	})

	c := nuevoContexto(t, kv)
	if c.EliminarCuenta("u-adm") {
		t.Fatalf("las cuentas no-cliente no se eliminan en cascada")
	}
	if c.EliminarCuenta("u-fantasma") {
		t.Fatalf("un id inexistente devuelve false")
	}
}
