package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Dosada05/gamejam/models"
)

type contextKey string

const identityContextKey contextKey = "identity"

// WithIdentity stores the verified caller in ctx.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext returns the caller placed by Authenticate.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(models.Identity)
	return id, ok && id.UserID > 0
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
