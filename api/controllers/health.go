package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/trustchain-backend/api/responses"
	"github.com/angelmondragon/trustchain-backend/pkg/config"
	"github.com/angelmondragon/trustchain-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/trustchain-backend/pkg/errors"
	"github.com/angelmondragon/trustchain-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// LedgerStatus reports whether the audit ledger is reachable.
type LedgerStatus interface {
	Online() bool
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-TrustChain-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady fails when the database is down. An offline ledger only degrades.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, ledgerStatus LedgerStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-TrustChain-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unreachable").
					WithDetails(map[string]string{"database": "down"}))
				return
			}
		}

		ledgerState := "offline"
		if ledgerStatus != nil && ledgerStatus.Online() {
			ledgerState = "online"
		}
		status := "ready"
		if ledgerState == "offline" {
			status = "degraded"
		}

		responses.WriteSuccess(w, map[string]string{
			"status":   status,
			"database": "up",
			"ledger":   ledgerState,
		})
	}
}
