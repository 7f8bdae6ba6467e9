package router_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"petla/internal/app"
	"petla/internal/platform/logger"
	"petla/internal/router"
	"petla/internal/storage"
)

func nuevoServidor(t *testing.T) *httptest.Server {
	t.Helper()

	ctx := app.New(storage.NewMemoria(0), logger.Nop())
	ts := httptest.NewServer(router.NewRouter(ctx))
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTP_EndToEnd_FlujoDeCita(t *testing.T) {
	ts := nuevoServidor(t)

	// 1) Alta de cuentas
	adminID := registrar(t, ts.URL, map[string]any{
		"nombre": "Root", "email": "admin@petla.com", "rol": "admin", "contrasena": "admin123",
	})
	clienteID := registrar(t, ts.URL, map[string]any{
		"nombre": "Ana", "apellido": "Paz", "email": "ana@example.com", "contrasena": "secreta",
	})

	// 2) Sin sesión no se listan mascotas
	{
		st, _ := doReq(t, ts.URL, "GET", "/mascotas", "", nil)
		if st != http.StatusUnauthorized {
			t.Fatalf("se esperaba 401 sin sesión, llegó %d", st)
		}
	}

	// 3) La clienta registra su mascota
	mascotaID := crearRecurso(t, ts.URL, "/mascotas", clienteID, map[string]any{
		"nombre": "Boby", "especie": "Perro", "raza": "Mestizo", "fechaNacimiento": "2021-05-10",
	})

	// 4) Y agenda una cita
	citaID := crearRecurso(t, ts.URL, "/citas", clienteID, map[string]any{
		"mascota":   "Boby",
		"mascotaId": mascotaID,
		"especie":   "Perro",
		"fecha":     time.Now().UTC().AddDate(0, 1, 0).Format(time.RFC3339),
		"motivo":    "control anual",
		"precio":    50,
	})
	{
		st, body := doReq(t, ts.URL, "GET", "/citas", clienteID, nil)
		if st != http.StatusOK {
			t.Fatalf("listar citas: %d body=%s", st, body)
		}
		var filas []struct {
			Cita struct {
				ID     string `json:"id"`
				Estado string `json:"estado"`
			} `json:"cita"`
		}
		if err := json.Unmarshal(body, &filas); err != nil {
			t.Fatalf("citas ilegibles: %v body=%s", err, body)
		}
		if len(filas) != 1 || filas[0].Cita.Estado != "pendiente_pago" {
			t.Fatalf("la cita nueva debería estar pendiente_pago: %s", body)
		}
	}

	// 5) Confirmar sin comprobante es una transición inválida
	{
		st, _ := doReq(t, ts.URL, "POST", "/citas/"+citaID+"/estado", adminID, map[string]any{
			"estado": "confirmada",
		})
		if st != http.StatusConflict {
			t.Fatalf("se esperaba 409 por transición inválida, llegó %d", st)
		}
	}

	// 6) La clienta sube el comprobante: la cita pasa a en_validacion
	{
		st, body := doReq(t, ts.URL, "POST", "/citas/"+citaID+"/comprobante", clienteID, map[string]any{
			"nombreArchivo": "recibo.png",
			"tipoMime":      "image/png",
			"datos":         base64.StdEncoding.EncodeToString([]byte("contenido del recibo")),
		})
		if st != http.StatusCreated {
			t.Fatalf("subir comprobante: %d body=%s", st, body)
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/citas/"+citaID+"/comprobante", clienteID, nil)
		if st != http.StatusOK {
			t.Fatalf("ver comprobante: %d body=%s", st, body)
		}
	}

	// 7) El admin valida el pago
	{
		st, body := doReq(t, ts.URL, "POST", "/citas/"+citaID+"/estado", adminID, map[string]any{
			"estado": "confirmada",
		})
		if st != http.StatusOK {
			t.Fatalf("confirmar cita: %d body=%s", st, body)
		}
		var ci struct {
			Estado string `json:"estado"`
		}
		_ = json.Unmarshal(body, &ci)
		if ci.Estado != "confirmada" {
			t.Fatalf("estado = %q, quiere confirmada", ci.Estado)
		}
	}

	// 8) El diagnóstico del admin reporta un estado consistente
	{
		st, body := doReq(t, ts.URL, "GET", "/admin/diagnostico", adminID, nil)
		if st != http.StatusOK {
			t.Fatalf("diagnóstico: %d body=%s", st, body)
		}
		var rep struct {
			Huerfanas   []string `json:"mascotasHuerfanas"`
			Incompletas []string `json:"citasIncompletas"`
			Fantasma    []string `json:"mascotasFantasma"`
		}
		_ = json.Unmarshal(body, &rep)
		if len(rep.Huerfanas)+len(rep.Incompletas)+len(rep.Fantasma) != 0 {
			t.Fatalf("el estado debería ser consistente: %s", body)
		}
	}

	// 9) Las rutas de admin rechazan a la clienta
	{
		st, _ := doReq(t, ts.URL, "GET", "/admin/estadisticas", clienteID, nil)
		if st != http.StatusForbidden {
			t.Fatalf("se esperaba 403 para cliente en /admin, llegó %d", st)
		}
	}
}

func TestHTTP_PreCitas_FormularioPublico(t *testing.T) {
	ts := nuevoServidor(t)

	adminID := registrar(t, ts.URL, map[string]any{
		"nombre": "Root", "email": "admin@petla.com", "rol": "admin", "contrasena": "admin123",
	})
	registrar(t, ts.URL, map[string]any{
		"nombre": "Ana", "email": "ana@example.com", "contrasena": "secreta",
	})

	// el formulario del sitio entra sin sesión
	preCitaID := crearRecurso(t, ts.URL, "/precitas", "", map[string]any{
		"nombre":         "Visitante",
		"telefono":       "555-9999",
		"email":          "visitante@example.com",
		"mascota":        "Rocky",
		"especie":        "Perro",
		"motivo":         "vacunación",
		"fechaPreferida": time.Now().UTC().AddDate(0, 0, 7).Format(time.RFC3339),
	})

	// pero listarlas exige staff
	{
		st, _ := doReq(t, ts.URL, "GET", "/precitas", "", nil)
		if st != http.StatusForbidden {
			t.Fatalf("listar precitas sin sesión: %d", st)
		}
	}

	// el admin la acepta y nace la cita real
	{
		st, body := doReq(t, ts.URL, "POST", "/precitas/"+preCitaID+"/aceptar", adminID, nil)
		if st != http.StatusCreated {
			t.Fatalf("aceptar precita: %d body=%s", st, body)
		}
		var ci struct {
			Mascota string `json:"mascota"`
			Estado  string `json:"estado"`
		}
		_ = json.Unmarshal(body, &ci)
		if ci.Mascota != "Rocky" || ci.Estado != "pendiente_pago" {
			t.Fatalf("cita aceptada: %s", body)
		}
	}

	// aceptarla dos veces no vale
	{
		st, _ := doReq(t, ts.URL, "POST", "/precitas/"+preCitaID+"/aceptar", adminID, nil)
		if st != http.StatusConflict {
			t.Fatalf("re-aceptar debería dar 409, llegó %d", st)
		}
	}
}

func TestHTTP_LoginYRegistroDuplicado(t *testing.T) {
	ts := nuevoServidor(t)

	registrar(t, ts.URL, map[string]any{
		"nombre": "Ana", "email": "ana@example.com", "contrasena": "secreta",
	})

	{
		st, body := doReq(t, ts.URL, "POST", "/auth/login", "", map[string]any{
			"identificador": "ANA@EXAMPLE.COM", "contrasena": "secreta",
		})
		if st != http.StatusOK {
			t.Fatalf("login: %d body=%s", st, body)
		}
	}
	{
		st, _ := doReq(t, ts.URL, "POST", "/auth/login", "", map[string]any{
			"identificador": "ana@example.com", "contrasena": "incorrecta",
		})
		if st != http.StatusUnauthorized {
			t.Fatalf("login con contraseña mala: %d", st)
		}
	}
	{
		st, _ := doReq(t, ts.URL, "POST", "/auth/registro", "", map[string]any{
			"nombre": "Otra", "email": "Ana@Example.com", "contrasena": "x",
		})
		if st != http.StatusConflict {
			t.Fatalf("registro duplicado: %d", st)
		}
	}
}

func registrar(t *testing.T, baseURL string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/auth/registro", "", payload)
	if st != http.StatusCreated {
		t.Fatalf("registro: %d body=%s", st, body)
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("registro sin id: %s", body)
	}
	return resp.ID
}

func crearRecurso(t *testing.T, baseURL, path, usuarioID string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", path, usuarioID, payload)
	if st != http.StatusCreated {
		t.Fatalf("POST %s: %d body=%s", path, st, body)
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("POST %s sin id: %s", path, body)
	}
	return resp.ID
}

func doReq(t *testing.T, baseURL, method, path, usuarioID string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if usuarioID != "" {
		req.Header.Set("X-Usuario-ID", usuarioID)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
