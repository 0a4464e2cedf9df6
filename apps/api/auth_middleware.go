package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	platformauth "github.com/prosektorweb/inbox-api/platform/auth"
	"github.com/prosektorweb/inbox-api/platform/gcp"
)

// buildAuthMiddleware constructs the JWT middleware with tenant claim enforcement.
func buildAuthMiddleware(ctx context.Context, cfg config, logger *zap.Logger) func(http.Handler) http.Handler {
	var verify platformauth.VerifyFunc
	switch cfg.AuthProvider {
	case "firebase":
		_, fbAuth, err := gcp.InitFirebaseAuth(ctx)
		if err != nil {
			logger.Fatal("init firebase auth", zap.Error(err))
		}
		verify = platformauth.FirebaseTokenVerifier(fbAuth)
	case "dev":
		logger.Warn("using dev auth middleware; do not use in production")
		verify = platformauth.UnsignedTokenVerifier()
	default:
		logger.Fatal("unsupported auth provider", zap.String("provider", cfg.AuthProvider))
	}

	extract := func(claims map[string]interface{}) (*platformauth.UserCredentials, error) {
		creds, err := platformauth.DefaultCredentialExtractor(claims)
		if err != nil {
			return nil, err
		}
		if creds.TenantID == nil || *creds.TenantID == "" {
			return nil, errors.New("tenant claim required")
		}

		// The tenant claim must be the internal tenant UUID; anything else is
		// a stale or foreign token.
		tid, parseErr := uuid.Parse(*creds.TenantID)
		if parseErr != nil {
			return nil, errors.New("tenant claim is not a valid tenant id")
		}
		idStr := tid.String()
		creds.TenantID = &idStr

		return creds, nil
	}

	return platformauth.JWT(verify, extract)
}
