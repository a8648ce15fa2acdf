package app

import (
	"context"
	"net/http"
	"time"

	"github.com/shandysiswandi/goverify/internal/pkg/router"
)

type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

func (h healthResponse) Message() string { return "health check" }

func (h healthResponse) StatusCode() int {
	if h.Status != "ok" {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

type pinger func(ctx context.Context) error

// checkHealth pings every component with a shared deadline.
func checkHealth(ctx context.Context, pingers map[string]pinger) healthResponse {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Components: make(map[string]string, len(pingers))}
	for name, ping := range pingers {
		if err := ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Components[name] = "down"
			continue
		}
		resp.Components[name] = "up"
	}
	return resp
}

func (a *App) health(r *router.Request) (any, error) {
	return checkHealth(r.Context(), map[string]pinger{
		"postgres": a.dbConn.Ping,
		"redis": func(ctx context.Context) error {
			return a.cacheConn.Ping(ctx).Err()
		},
	}), nil
}
