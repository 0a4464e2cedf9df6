package middleware

import (
	"net/http"

	"go.uber.org/zap"

	platformauth "github.com/prosektorweb/inbox-api/platform/auth"
	"github.com/prosektorweb/inbox-api/platform/httpapi"
	platformlogging "github.com/prosektorweb/inbox-api/platform/logging"
	"github.com/prosektorweb/inbox-api/platform/requestid"
	"github.com/prosektorweb/inbox-api/platform/requesttrace"
)

// RequestTrace populates the context with request-scoped AuditInfo so services and repositories can stamp audit fields.
// It should run after authentication middleware so user credentials are available when present.
func RequestTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := platformlogging.FromRequest(r, nil)
		reqID, _ := requestid.FromContext(r.Context())

		var audit requesttrace.AuditInfo
		if creds, ok := platformauth.UserFromContext(r.Context()); ok && creds != nil {
			var err error
			audit, err = requesttrace.FromCredentials(creds, reqID)
			if err != nil {
				if logger != nil {
					logger.Error("build audit info from credentials", zap.Error(err))
				}
				httpapi.WriteError(w, r, &httpapi.Error{
					Code:    httpapi.CodeUnauthenticated,
					Message: "authentication required",
				})
				return
			}
		} else {
			audit = requesttrace.Anonymous(reqID)
		}

		ctx := requesttrace.IntoContext(r.Context(), audit)
		if logger != nil {
			fields := []zap.Field{zap.String("actor_kind", string(audit.ActorKind))}
			if audit.UserID != nil && *audit.UserID != "" {
				fields = append(fields, zap.String("user_id", *audit.UserID))
			}
			if audit.TenantID != nil && *audit.TenantID != "" {
				fields = append(fields, zap.String("tenant_id", *audit.TenantID))
			}
			logger = logger.With(fields...)
			ctx = platformlogging.WithLogger(ctx, logger)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
