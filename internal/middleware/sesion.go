// Package middleware aporta el contexto de sesión para los handlers.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"petla/internal/domain/usuarios"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// Claims es la identidad resuelta del request.
type Claims struct {
	UsuarioID string
	Rol       usuarios.Rol
}

func (c Claims) EsAdmin() bool       { return c.Rol == usuarios.RolAdmin }
func (c Claims) EsVeterinario() bool { return c.Rol == usuarios.RolVeterinario }
func (c Claims) EsCliente() bool     { return c.Rol == usuarios.RolCliente }

// Resolvedor busca un usuario por id. Lo implementa el Contexto; la
// interfaz evita acoplar el middleware al paquete app.
type Resolvedor interface {
	BuscarUsuario(id string) (usuarios.Usuario, bool)
}

// SesionContext:
// - Si viene X-Usuario-ID y resuelve contra el store => setea claims.
// - Si no, el request sigue igual; cada handler decide si exige sesión.
func SesionContext(res Resolvedor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get("X-Usuario-ID"))
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}

			u, ok := res.BuscarUsuario(id)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims := Claims{UsuarioID: u.ID, Rol: u.Rol}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetClaims(ctx context.Context) (Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return Claims{}, false
	}
	c, ok := v.(Claims)
	return c, ok
}
