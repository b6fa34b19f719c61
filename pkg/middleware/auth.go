package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/alenadem/stonecart/config"
	"github.com/alenadem/stonecart/pkg/response"
)

// AdminAuth guards the admin mutation routes with a static bearer token
// (ADMIN_TOKEN). When no token is configured the routes are disabled
// outright rather than left open.
func AdminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := config.AdminToken()
		if want == "" {
			response.Forbidden(w)
			return
		}

		got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			response.Unauthorized(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}
