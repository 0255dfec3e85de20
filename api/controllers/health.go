package controllers

import (
	"context"
	"net/http"

	"github.com/merkadolite/merkadolite-backend/api/responses"
	"github.com/merkadolite/merkadolite-backend/pkg/config"
	pkgerrors "github.com/merkadolite/merkadolite-backend/pkg/errors"
	"github.com/merkadolite/merkadolite-backend/pkg/logger"
)

// Pinger is implemented by the db and redis clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Merkado-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness after probing each wired dependency. Nil
// dependencies are skipped so the worker can reuse the handler.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Merkado-Env", cfg.App.Env)
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
