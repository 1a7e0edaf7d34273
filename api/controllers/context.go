package controllers

import (
	"context"

	"github.com/google/uuid"

	"github.com/subtrackr/subtrackr-backend/api/middleware"
	pkgerrors "github.com/subtrackr/subtrackr-backend/pkg/errors"
)

func tenantFromContext(ctx context.Context) (uuid.UUID, error) {
	raw := middleware.TenantIDFromContext(ctx)
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant context missing")
	}
	tenantID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid tenant id")
	}
	return tenantID, nil
}
