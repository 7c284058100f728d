package controllers

import (
	"net/http"

	"github.com/angelmondragon/trustchain-backend/api/middleware"
	"github.com/angelmondragon/trustchain-backend/api/responses"
	"github.com/angelmondragon/trustchain-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/trustchain-backend/pkg/errors"
	"github.com/angelmondragon/trustchain-backend/pkg/logger"
)

// requireActor writes UNAUTHORIZED and returns false when the request carries no identity.
func requireActor(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (auth.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return auth.Actor{}, false
	}
	return actor, true
}

func serviceUnavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
}
