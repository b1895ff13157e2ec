package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/pharmacare-app/pharmacare-backend/api/middleware"
	"github.com/pharmacare-app/pharmacare-backend/pkg/enums"
	pkgerrors "github.com/pharmacare-app/pharmacare-backend/pkg/errors"
)

// actorID extracts the authenticated user id seeded by the auth middleware.
func actorID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return id, nil
}

func actorRole(r *http.Request) enums.UserRole {
	return enums.UserRole(middleware.RoleFromContext(r.Context()))
}
