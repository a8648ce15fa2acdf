package router

import (
	"net/http"

	"github.com/shandysiswandi/goverify/internal/pkg/config"
)

// middlewareMaintenance answers 503 for routes listed in
// app.maintenance.endpoints as "METHOD /path". The list is re-read on every
// request so a config reload takes effect without a restart.
func middlewareMaintenance(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg != nil {
				route := r.Method + " " + matchedRoutePath(r)
				for _, blocked := range cfg.GetArray("app.maintenance.endpoints") {
					if blocked == route {
						writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
						return
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
