package router

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"petla/internal/app"
	"petla/internal/domain/citas"
	"petla/internal/domain/fechas"
	"petla/internal/domain/historial"
	"petla/internal/domain/mascotas"
	"petla/internal/domain/newsletter"
	"petla/internal/domain/servicios"
	"petla/internal/domain/usuarios"
	"petla/internal/middleware"
)

type handlers struct {
	ctx *app.Contexto
}

// ---- Auth ----

type loginRequest struct {
	Identificador string `json:"identificador"`
	Contrasena    string `json:"contrasena"`
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	u := h.ctx.Login(req.Identificador, req.Contrasena)
	if u == nil {
		http.Error(w, "credenciales inválidas", http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, u)
}

type registroRequest struct {
	Nombre          string       `json:"nombre"`
	Apellido        string       `json:"apellido"`
	Username        string       `json:"username"`
	Email           string       `json:"email"`
	Telefono        string       `json:"telefono"`
	Direccion       string       `json:"direccion"`
	Genero          string       `json:"genero"`
	FechaNacimiento string       `json:"fechaNacimiento"` // YYYY-MM-DD opcional
	Rol             usuarios.Rol `json:"rol"`
	Contrasena      string       `json:"contrasena"`
	Foto            string       `json:"foto"`
	Documento       string       `json:"documento"`
	TipoDocumento   string       `json:"tipoDocumento"`
	Especialidad    string       `json:"especialidad"`
	Experiencia     string       `json:"experiencia"`
	Licencia        string       `json:"licencia"`
}

func (h *handlers) registro(w http.ResponseWriter, r *http.Request) {
	var req registroRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	nacimiento, ok := fechaOpcional(w, req.FechaNacimiento)
	if !ok {
		return
	}

	u, err := h.ctx.Registrar(app.DatosRegistro{
		Nombre:          req.Nombre,
		Apellido:        req.Apellido,
		Username:        req.Username,
		Email:           req.Email,
		Telefono:        req.Telefono,
		Direccion:       req.Direccion,
		Genero:          req.Genero,
		FechaNacimiento: nacimiento,
		Rol:             req.Rol,
		Contrasena:      req.Contrasena,
		Foto:            req.Foto,
		Documento:       req.Documento,
		TipoDocumento:   req.TipoDocumento,
		Especialidad:    req.Especialidad,
		Experiencia:     req.Experiencia,
		Licencia:        req.Licencia,
	})
	if err != nil {
		if errors.Is(err, app.ErrEmailRegistrado) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, u)
}

func (h *handlers) eliminarCuenta(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	// un admin puede eliminar otra cuenta cliente; un cliente, la propia
	objetivo := claims.UsuarioID
	if id := strings.TrimSpace(r.URL.Query().Get("usuarioId")); id != "" {
		if !claims.EsAdmin() && id != claims.UsuarioID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		objetivo = id
	}

	if !h.ctx.EliminarCuenta(objetivo) {
		http.Error(w, "no se pudo eliminar la cuenta", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"eliminada": true})
}

// ---- Mascotas ----

type mascotaRequest struct {
	Nombre          string `json:"nombre"`
	Especie         string `json:"especie"`
	Raza            string `json:"raza"`
	Sexo            string `json:"sexo"`
	FechaNacimiento string `json:"fechaNacimiento"` // YYYY-MM-DD opcional
	Peso            string `json:"peso"`
	Microchip       string `json:"microchip"`
	Foto            string `json:"foto"`
}

func (h *handlers) crearMascota(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || !claims.EsCliente() {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req mascotaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	nacimiento, ok := fechaOpcional(w, req.FechaNacimiento)
	if !ok {
		return
	}

	m, err := h.ctx.AgregarMascota(mascotas.Mascota{
		Nombre:          req.Nombre,
		Especie:         req.Especie,
		Raza:            req.Raza,
		Sexo:            req.Sexo,
		FechaNacimiento: nacimiento,
		Peso:            req.Peso,
		Microchip:       req.Microchip,
		Foto:            req.Foto,
		ClienteID:       claims.UsuarioID,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *handlers) listarMascotas(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if claims.EsAdmin() || claims.EsVeterinario() {
		writeJSON(w, http.StatusOK, h.ctx.Mascotas())
		return
	}
	writeJSON(w, http.StatusOK, h.ctx.MascotasDe(claims.UsuarioID))
}

func (h *handlers) verMascota(w http.ResponseWriter, r *http.Request) {
	m, ok := h.mascotaAutorizada(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type mascotaPatch struct {
	// punteros para PATCH real: nil = no tocar
	Nombre          *string `json:"nombre"`
	Especie         *string `json:"especie"`
	Raza            *string `json:"raza"`
	Sexo            *string `json:"sexo"`
	FechaNacimiento *string `json:"fechaNacimiento"`
	Peso            *string `json:"peso"`
	Microchip       *string `json:"microchip"`
	Estado          *string `json:"estado"`
	ProximaCita     *string `json:"proximaCita"`
	UltimaVacuna    *string `json:"ultimaVacuna"`
	Foto            *string `json:"foto"`
}

func (h *handlers) editarMascota(w http.ResponseWriter, r *http.Request) {
	m, ok := h.mascotaAutorizada(w, r)
	if !ok {
		return
	}

	var req mascotaPatch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	// las fechas llegan como string y se renormalizan acá
	nacimiento, ok := fechaPatch(w, req.FechaNacimiento)
	if !ok {
		return
	}
	proxima, ok := fechaPatch(w, req.ProximaCita)
	if !ok {
		return
	}
	vacuna, ok := fechaPatch(w, req.UltimaVacuna)
	if !ok {
		return
	}

	err := h.ctx.ActualizarMascota(m.ID, func(m *mascotas.Mascota) {
		aplicar(&m.Nombre, req.Nombre)
		aplicar(&m.Especie, req.Especie)
		aplicar(&m.Raza, req.Raza)
		aplicar(&m.Sexo, req.Sexo)
		aplicar(&m.Peso, req.Peso)
		aplicar(&m.Microchip, req.Microchip)
		aplicar(&m.Estado, req.Estado)
		aplicar(&m.Foto, req.Foto)
		if req.FechaNacimiento != nil {
			m.FechaNacimiento = nacimiento
		}
		if req.ProximaCita != nil {
			m.ProximaCita = proxima
		}
		if req.UltimaVacuna != nil {
			m.UltimaVacuna = vacuna
		}
	})
	if err != nil {
		http.Error(w, "mascota no encontrada", http.StatusNotFound)
		return
	}

	actualizada, _ := h.buscarMascota(m.ID)
	writeJSON(w, http.StatusOK, actualizada)
}

func (h *handlers) borrarMascota(w http.ResponseWriter, r *http.Request) {
	m, ok := h.mascotaAutorizada(w, r)
	if !ok {
		return
	}

	if err := h.ctx.EliminarMascota(m.ID); err != nil {
		http.Error(w, "mascota no encontrada", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) historialDeMascota(w http.ResponseWriter, r *http.Request) {
	m, ok := h.mascotaAutorizada(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.ctx.HistorialDeMascota(m.ID))
}

// mascotaAutorizada resuelve la mascota del path y exige dueño, vet o admin.
func (h *handlers) mascotaAutorizada(w http.ResponseWriter, r *http.Request) (mascotas.Mascota, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return mascotas.Mascota{}, false
	}

	m, ok := h.buscarMascota(chi.URLParam(r, "mascotaID"))
	if !ok {
		http.Error(w, "mascota no encontrada", http.StatusNotFound)
		return mascotas.Mascota{}, false
	}

	if !claims.EsAdmin() && !claims.EsVeterinario() && m.ClienteID != claims.UsuarioID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return mascotas.Mascota{}, false
	}
	return m, true
}

func (h *handlers) buscarMascota(id string) (mascotas.Mascota, bool) {
	for _, m := range h.ctx.Mascotas() {
		if m.ID == id {
			return m, true
		}
	}
	return mascotas.Mascota{}, false
}

// ---- Citas ----

type citaRequest struct {
	Mascota      string  `json:"mascota"`
	MascotaID    string  `json:"mascotaId"`
	Especie      string  `json:"especie"`
	Fecha        string  `json:"fecha"`
	Veterinario  string  `json:"veterinario"`
	Motivo       string  `json:"motivo"`
	TipoConsulta string  `json:"tipoConsulta"`
	Ubicacion    string  `json:"ubicacion"`
	Precio       float64 `json:"precio"`
	Notas        string  `json:"notas"`
}

func (h *handlers) crearCita(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req citaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	fecha, err := fechas.Parse(req.Fecha)
	if err != nil {
		http.Error(w, "fecha inválida", http.StatusBadRequest)
		return
	}

	ci := citas.Cita{
		Mascota:      req.Mascota,
		MascotaID:    req.MascotaID,
		Especie:      req.Especie,
		Fecha:        fecha,
		Veterinario:  req.Veterinario,
		Motivo:       req.Motivo,
		TipoConsulta: req.TipoConsulta,
		Ubicacion:    req.Ubicacion,
		Precio:       req.Precio,
		Notas:        req.Notas,
	}
	if claims.EsCliente() {
		if u, ok := h.ctx.BuscarUsuario(claims.UsuarioID); ok {
			ci.ClienteID = u.ID
			ci.ClienteNombre = u.NombreCompleto()
		}
	}

	creada, err := h.ctx.AgregarCita(ci)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, creada)
}

func (h *handlers) listarCitas(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	filas := h.ctx.CitasConRelaciones()
	if claims.EsAdmin() {
		writeJSON(w, http.StatusOK, filas)
		return
	}

	propias := make(map[string]bool)
	if claims.EsVeterinario() {
		for _, ci := range h.ctx.CitasDeVeterinario(claims.UsuarioID) {
			propias[ci.ID] = true
		}
	}

	out := make([]app.CitaConRelaciones, 0)
	for _, f := range filas {
		switch {
		case claims.EsCliente() && f.Cita.ClienteID == claims.UsuarioID:
			out = append(out, f)
		case claims.EsVeterinario() && propias[f.Cita.ID]:
			out = append(out, f)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type estadoRequest struct {
	Estado     citas.Estado `json:"estado"`
	NotasAdmin string       `json:"notasAdmin"`
}

func (h *handlers) cambiarEstadoCita(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || (!claims.EsAdmin() && !claims.EsVeterinario()) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var req estadoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	err := h.ctx.CambiarEstadoCita(chi.URLParam(r, "citaID"), req.Estado, req.NotasAdmin)
	switch {
	case errors.Is(err, app.ErrNoEncontrado):
		http.Error(w, "cita no encontrada", http.StatusNotFound)
	case errors.Is(err, app.ErrTransicionInvalida):
		http.Error(w, err.Error(), http.StatusConflict)
	case err != nil:
		http.Error(w, "internal error", http.StatusInternalServerError)
	default:
		ci, _ := h.ctx.BuscarCita(chi.URLParam(r, "citaID"))
		writeJSON(w, http.StatusOK, ci)
	}
}

func (h *handlers) borrarCita(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || !claims.EsAdmin() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	if err := h.ctx.EliminarCita(chi.URLParam(r, "citaID")); err != nil {
		http.Error(w, "cita no encontrada", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- Comprobantes ----

type comprobanteRequest struct {
	NombreArchivo string `json:"nombreArchivo"`
	TipoMime      string `json:"tipoMime"`
	Datos         string `json:"datos"` // base64
}

func (h *handlers) subirComprobante(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetClaims(r.Context()); !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req comprobanteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	datos, err := base64.StdEncoding.DecodeString(req.Datos)
	if err != nil {
		http.Error(w, "datos debe ser base64", http.StatusBadRequest)
		return
	}

	if !h.ctx.GuardarComprobante(chi.URLParam(r, "citaID"), req.NombreArchivo, req.TipoMime, datos) {
		http.Error(w, "no se pudo guardar el comprobante", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"guardado": true})
}

func (h *handlers) verComprobante(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetClaims(r.Context()); !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	cmp := h.ctx.ObtenerComprobante(chi.URLParam(r, "citaID"))
	if cmp == nil {
		http.Error(w, "comprobante no encontrado", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func (h *handlers) borrarComprobante(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || !claims.EsAdmin() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	if !h.ctx.EliminarComprobante(chi.URLParam(r, "citaID")) {
		http.Error(w, "no se pudo eliminar", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- Pre-citas ----

type preCitaRequest struct {
	Nombre         string `json:"nombre"`
	Telefono       string `json:"telefono"`
	Email          string `json:"email"`
	Mascota        string `json:"mascota"`
	Especie        string `json:"especie"`
	Motivo         string `json:"motivo"`
	FechaPreferida string `json:"fechaPreferida"`
}

func (h *handlers) crearPreCita(w http.ResponseWriter, r *http.Request) {
	var req preCitaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	fecha, err := fechas.Parse(req.FechaPreferida)
	if err != nil {
		http.Error(w, "fechaPreferida inválida", http.StatusBadRequest)
		return
	}

	p, err := h.ctx.AgregarPreCita(citas.PreCita{
		Nombre:         req.Nombre,
		Telefono:       req.Telefono,
		Email:          req.Email,
		Mascota:        req.Mascota,
		Especie:        req.Especie,
		Motivo:         req.Motivo,
		FechaPreferida: fecha,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *handlers) listarPreCitas(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || (!claims.EsAdmin() && !claims.EsVeterinario()) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	writeJSON(w, http.StatusOK, h.ctx.PreCitas())
}

func (h *handlers) aceptarPreCita(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || !claims.EsAdmin() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	ci, err := h.ctx.AceptarPreCita(chi.URLParam(r, "preCitaID"))
	if err != nil {
		if errors.Is(err, app.ErrNoEncontrado) {
			http.Error(w, "pre-cita no encontrada", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusCreated, ci)
}

type rechazoRequest struct {
	Notas string `json:"notas"`
}

func (h *handlers) rechazarPreCita(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || !claims.EsAdmin() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var req rechazoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	if err := h.ctx.RechazarPreCita(chi.URLParam(r, "preCitaID"), req.Notas); err != nil {
		http.Error(w, "pre-cita no encontrada", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- Historial ----

type consultaRequest struct {
	MascotaID     string                   `json:"mascotaId"`
	Fecha         string                   `json:"fecha"`
	Veterinario   string                   `json:"veterinario"`
	TipoConsulta  historial.TipoConsulta   `json:"tipoConsulta"`
	Motivo        string                   `json:"motivo"`
	Diagnostico   string                   `json:"diagnostico"`
	Tratamiento   string                   `json:"tratamiento"`
	Items         []historial.ItemAtencion `json:"items"`
	Vitales       historial.Vitales        `json:"vitales"`
	Observaciones string                   `json:"observaciones"`
	ProximaVisita string                   `json:"proximaVisita"`
	Estado        historial.EstadoEntrada  `json:"estado"`
}

func (h *handlers) registrarConsulta(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || (!claims.EsAdmin() && !claims.EsVeterinario()) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var req consultaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	fecha, err := fechas.Parse(req.Fecha)
	if err != nil {
		http.Error(w, "fecha inválida", http.StatusBadRequest)
		return
	}
	proxima, ok := fechaOpcional(w, req.ProximaVisita)
	if !ok {
		return
	}

	e, err := h.ctx.RegistrarConsulta(historial.Entrada{
		MascotaID:     req.MascotaID,
		Fecha:         fecha,
		Veterinario:   req.Veterinario,
		TipoConsulta:  req.TipoConsulta,
		Motivo:        req.Motivo,
		Diagnostico:   req.Diagnostico,
		Tratamiento:   req.Tratamiento,
		Items:         req.Items,
		Vitales:       req.Vitales,
		Observaciones: req.Observaciones,
		ProximaVisita: proxima,
		Estado:        req.Estado,
	})
	if err != nil {
		if errors.Is(err, app.ErrNoEncontrado) {
			http.Error(w, "mascota no encontrada", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// ---- Newsletter ----

type suscripcionRequest struct {
	Email string `json:"email"`
}

func (h *handlers) suscribirNewsletter(w http.ResponseWriter, r *http.Request) {
	var req suscripcionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	s, err := h.ctx.SuscribirNewsletter(req.Email)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *handlers) listarSuscriptores(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || !claims.EsAdmin() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	writeJSON(w, http.StatusOK, h.ctx.Suscriptores())
}

func (h *handlers) listarEmails(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || !claims.EsAdmin() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	writeJSON(w, http.StatusOK, h.ctx.EmailsNewsletter())
}

type emailRequest struct {
	Asunto    string `json:"asunto"`
	Contenido string `json:"contenido"`
}

func (h *handlers) crearEmail(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || !claims.EsAdmin() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	e, err := h.ctx.AgregarEmailNewsletter(newsletter.EmailNewsletter{
		Asunto:    req.Asunto,
		Contenido: req.Contenido,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *handlers) enviarEmail(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || !claims.EsAdmin() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	if err := h.ctx.MarcarEmailEnviado(chi.URLParam(r, "emailID")); err != nil {
		http.Error(w, "email no encontrado", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- Notificaciones ----

func (h *handlers) listarNotificaciones(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, h.ctx.NotificacionesDe(claims.UsuarioID))
}

func (h *handlers) marcarLeida(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetClaims(r.Context()); !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.ctx.MarcarNotificacionLeida(chi.URLParam(r, "notificacionID")); err != nil {
		http.Error(w, "notificación no encontrada", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- Servicios ----

func (h *handlers) listarServicios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctx.Servicios())
}

func (h *handlers) crearServicio(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || !claims.EsAdmin() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var s servicios.Servicio
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	creado, err := h.ctx.AgregarServicio(s)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, creado)
}

// ---- Admin ----

func (h *handlers) diagnostico(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || !claims.EsAdmin() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	writeJSON(w, http.StatusOK, h.ctx.ValidarRelaciones())
}

func (h *handlers) reparar(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || !claims.EsAdmin() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	writeJSON(w, http.StatusOK, h.ctx.RepararIntegridad())
}

func (h *handlers) estadisticas(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || !claims.EsAdmin() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	writeJSON(w, http.StatusOK, h.ctx.Estadisticas())
}

// ---- Helpers ----

// fechaOpcional parsea una fecha que puede venir vacía. Devuelve ok=false
// si ya respondió un 400.
func fechaOpcional(w http.ResponseWriter, s string) (*fechas.Fecha, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, true
	}
	f, err := fechas.Parse(s)
	if err != nil {
		http.Error(w, "fecha inválida", http.StatusBadRequest)
		return nil, false
	}
	return f.Ptr(), true
}

// fechaPatch: como fechaOpcional pero sobre un campo PATCH (*string),
// donde string vacío limpia el campo.
func fechaPatch(w http.ResponseWriter, s *string) (*fechas.Fecha, bool) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, true
	}
	return fechaOpcional(w, *s)
}

func aplicar(destino *string, valor *string) {
	if valor != nil {
		*destino = strings.TrimSpace(*valor)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
