package fasting

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/auth"
)

// Handler exposes the fasting endpoints. Every route expects auth.RequireUser
// in front of it.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

const maxListLimit = 200

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	var in StartInput
	if !h.decode(w, r, &in) {
		return
	}
	sess, err := h.svc.StartSession(r.Context(), userID, in)
	if err != nil {
		h.fail(w, err, "start session failed")
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = min(n, maxListLimit)
	}
	list, err := h.svc.ListSessions(r.Context(), userID, limit)
	if err != nil {
		h.fail(w, err, "list sessions failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": list})
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	sess, err := h.svc.GetSession(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		h.fail(w, err, "get session failed")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	var in EndInput
	// an empty body ends the fast as completed
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Debugw("invalid payload", "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	res, err := h.svc.EndSession(r.Context(), userID, r.PathValue("id"), in)
	if err != nil {
		h.fail(w, err, "end session failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) PauseSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	sess, err := h.svc.PauseSession(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		h.fail(w, err, "pause session failed")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) ResumeSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	sess, err := h.svc.ResumeSession(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		h.fail(w, err, "resume session failed")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) AddLog(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	var in LogInput
	if !h.decode(w, r, &in) {
		return
	}
	l, err := h.svc.AddLog(r.Context(), userID, r.PathValue("id"), in)
	if err != nil {
		h.fail(w, err, "add log failed")
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	logs, err := h.svc.ListLogs(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		h.fail(w, err, "list logs failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

func (h *Handler) Coach(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	var in CoachInput
	if !h.decode(w, r, &in) {
		return
	}
	resp, err := h.svc.Coach(r.Context(), userID, in)
	if err != nil {
		h.fail(w, err, "coach failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"response": resp})
}

func (h *Handler) MonitorHealth(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	var in MonitorInput
	if !h.decode(w, r, &in) {
		return
	}
	res, err := h.svc.MonitorHealth(r.Context(), userID, in)
	if err != nil {
		h.fail(w, err, "health monitoring failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) PlanMeals(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	var in MealInput
	if !h.decode(w, r, &in) {
		return
	}
	plan, err := h.svc.PlanMeals(r.Context(), userID, in)
	if err != nil {
		h.fail(w, err, "meal planning failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mealPlan": plan})
}

func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	report, err := h.svc.Analytics(r.Context(), userID, r.URL.Query().Get("timeframe"))
	if err != nil {
		h.fail(w, err, "analytics failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) user(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := auth.UserIDFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	return id, ok
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.logger.Debugw("invalid payload", "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return false
	}
	return true
}

// fail maps service errors to status codes. Unexpected errors are logged and
// answered with msg only.
func (h *Handler) fail(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
	case errors.Is(err, ErrActiveSession), errors.Is(err, ErrInvalidStatus):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		h.logger.Errorw(msg, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msg})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
