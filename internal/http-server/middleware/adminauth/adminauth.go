// Package adminauth guards the admin HTTP API with the shared admin secret.
package adminauth

import (
	"careBooker/internal/lib/api/response"
	"crypto/subtle"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
)

const Header = "X-Admin-Secret"

func New(log *slog.Logger, secret string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		log := log.With(
			slog.String("component", "middleware/adminauth"),
		)

		fn := func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(Header)
			if got == "" {
				log.Warn("missing admin secret", slog.String("path", r.URL.Path))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("admin secret is required"))
				return
			}

			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				log.Warn("wrong admin secret", slog.String("path", r.URL.Path))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("wrong admin secret"))
				return
			}

			next.ServeHTTP(w, r)
		}

		return http.HandlerFunc(fn)
	}
}
