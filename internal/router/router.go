// Package router expone el facade por HTTP. Es un consumidor fino del
// núcleo: toda la lógica vive en internal/app.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"petla/internal/app"
	"petla/internal/middleware"
)

func NewRouter(ctx *app.Contexto) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.SesionContext(ctx))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	h := &handlers{ctx: ctx}

	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/login", h.login)
		ar.Post("/registro", h.registro)
		ar.Delete("/cuenta", h.eliminarCuenta)
	})

	r.Route("/mascotas", func(mr chi.Router) {
		mr.Get("/", h.listarMascotas)
		mr.Post("/", h.crearMascota)
		mr.Get("/{mascotaID}", h.verMascota)
		mr.Patch("/{mascotaID}", h.editarMascota)
		mr.Delete("/{mascotaID}", h.borrarMascota)
		mr.Get("/{mascotaID}/historial", h.historialDeMascota)
	})

	r.Route("/citas", func(cr chi.Router) {
		cr.Get("/", h.listarCitas)
		cr.Post("/", h.crearCita)
		cr.Post("/{citaID}/estado", h.cambiarEstadoCita)
		cr.Delete("/{citaID}", h.borrarCita)

		cr.Post("/{citaID}/comprobante", h.subirComprobante)
		cr.Get("/{citaID}/comprobante", h.verComprobante)
		cr.Delete("/{citaID}/comprobante", h.borrarComprobante)
	})

	r.Route("/precitas", func(pr chi.Router) {
		pr.Get("/", h.listarPreCitas)
		pr.Post("/", h.crearPreCita) // pública: formulario del sitio
		pr.Post("/{preCitaID}/aceptar", h.aceptarPreCita)
		pr.Post("/{preCitaID}/rechazar", h.rechazarPreCita)
	})

	r.Post("/historial", h.registrarConsulta)

	r.Post("/newsletter/suscripciones", h.suscribirNewsletter)

	r.Get("/notificaciones", h.listarNotificaciones)
	r.Post("/notificaciones/{notificacionID}/leida", h.marcarLeida)

	r.Get("/servicios", h.listarServicios)
	r.Post("/servicios", h.crearServicio)

	r.Route("/admin", func(ad chi.Router) {
		ad.Get("/diagnostico", h.diagnostico)
		ad.Post("/reparar", h.reparar)
		ad.Get("/estadisticas", h.estadisticas)

		ad.Get("/newsletter/suscriptores", h.listarSuscriptores)
		ad.Get("/newsletter/emails", h.listarEmails)
		ad.Post("/newsletter/emails", h.crearEmail)
		ad.Post("/newsletter/emails/{emailID}/enviar", h.enviarEmail)
	})

	return r
}
