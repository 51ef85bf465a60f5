package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/fasting"
)

// Pinger is satisfied by *sqlx.DB and *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the handlers and collaborators the routes are built from.
type Deps struct {
	BasePath string
	Auth     *auth.Handler
	Fasting  *fasting.Handler
	Tokens   *auth.TokenIssuer
	DB       Pinger
}

// RegisterRoutes mounts HTTP handlers using the standard library's http.ServeMux.
func RegisterRoutes(logger *zap.SugaredLogger, d Deps) http.Handler {
	mux := http.NewServeMux()
	p := d.BasePath

	mux.HandleFunc("GET "+p+"/health", healthHandler(d.DB))

	mux.HandleFunc("POST "+p+"/auth/signup", d.Auth.Signup)
	mux.HandleFunc("POST "+p+"/auth/login", d.Auth.Login)

	requireUser := auth.RequireUser(d.Tokens, logger)
	protected := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, requireUser(fn))
	}
	f := d.Fasting
	protected("POST "+p+"/sessions", f.StartSession)
	protected("GET "+p+"/sessions", f.ListSessions)
	protected("GET "+p+"/sessions/{id}", f.GetSession)
	protected("POST "+p+"/sessions/{id}/end", f.EndSession)
	protected("POST "+p+"/sessions/{id}/pause", f.PauseSession)
	protected("POST "+p+"/sessions/{id}/resume", f.ResumeSession)
	protected("POST "+p+"/sessions/{id}/logs", f.AddLog)
	protected("GET "+p+"/sessions/{id}/logs", f.ListLogs)
	protected("POST "+p+"/coach", f.Coach)
	protected("POST "+p+"/health-monitor", f.MonitorHealth)
	protected("POST "+p+"/meal-plan", f.PlanMeals)
	protected("GET "+p+"/analytics", f.Analytics)

	// request id outermost so every log line carries it
	return RequestIDMiddleware()(LoggingMiddleware(logger)(SecurityHeadersMiddleware()(mux)))
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, body := http.StatusOK, map[string]string{"status": "ok"}
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				status, body = http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": "database unavailable"}
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
