package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/auth/entity"
)

type ctxKey struct{}

// WithPrincipal stores the authenticated caller on the context.
func WithPrincipal(ctx context.Context, p entity.Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// PrincipalFrom returns the caller stored by RequireUser.
func PrincipalFrom(ctx context.Context) (entity.Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(entity.Principal)
	return p, ok
}

// UserIDFrom is a shortcut for handlers that only need the id.
func UserIDFrom(ctx context.Context) (int64, bool) {
	p, ok := PrincipalFrom(ctx)
	return p.ID, ok
}

// RequireUser rejects requests without a valid bearer token.
func RequireUser(tokens *TokenIssuer, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
				return
			}
			p, err := tokens.Parse(raw)
			if err != nil {
				logger.Debugw("token rejected", "err", err, "path", r.URL.Path)
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
