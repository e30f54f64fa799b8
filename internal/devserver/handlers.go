package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Alexander-D-Karpov/sleeves/internal/reward"
	"github.com/Alexander-D-Karpov/sleeves/pkg/types"
)

const (
	sessionCookieName = "sessionid"
	sessionTTL        = 14 * 24 * time.Hour
)

type Handlers struct {
	state  *State
	engine *reward.Engine
	logger *zap.Logger
}

func NewHandlers(state *State, engine *reward.Engine, logger *zap.Logger) *Handlers {
	return &Handlers{state: state, engine: engine, logger: logger}
}

type detail struct {
	Detail string `json:"detail"`
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("encode response", zap.Error(err))
	}
}

func (h *Handlers) writeDetail(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, detail{Detail: msg})
}

func (h *Handlers) currentUser(r *http.Request) *types.AuthUser {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	return h.state.SessionUser(cookie.Value)
}

func (h *Handlers) Songs(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.state.Songs())
}

func (h *Handlers) Sleeves(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.state.Sleeves())
}

// Inventory returns the caller's grants when signed in, else the grants of
// ?owner=, else every grant.
func (h *Handlers) Inventory(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if user := h.currentUser(r); user != nil {
		owner = user.Username
	}

	items, err := h.state.Inventory(owner)
	if err != nil {
		h.writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handlers) OpenSleeve(w http.ResponseWriter, r *http.Request) {
	sleeve, ok := h.state.Sleeve(chi.URLParam(r, "sleeveID"))
	if !ok {
		h.writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if !sleeve.CanOpen() {
		h.writeDetail(w, http.StatusBadRequest, "Sleeve is empty")
		return
	}

	entry, err := h.engine.Draw(sleeve.Contents)
	if err != nil {
		h.logger.Error("draw failed", zap.String("sleeve", sleeve.ID), zap.Error(err))
		h.writeDetail(w, http.StatusInternalServerError, "Sleeve contents are invalid")
		return
	}

	owned := h.state.Grant(entry, h.currentUser(r))
	h.writeJSON(w, http.StatusCreated, owned)
}

func (h *Handlers) readCredentials(w http.ResponseWriter, r *http.Request) (types.Credentials, bool) {
	var creds types.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		h.writeDetail(w, http.StatusBadRequest, "Invalid JSON body")
		return creds, false
	}

	creds.Username = strings.TrimSpace(creds.Username)
	if creds.Username == "" || strings.TrimSpace(creds.Password) == "" {
		h.writeDetail(w, http.StatusBadRequest, "Username and password are required")
		return creds, false
	}
	return creds, true
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.readCredentials(w, r)
	if !ok {
		return
	}

	user, err := h.state.Register(creds.Username, creds.Password)
	if errors.Is(err, errUsernameTaken) {
		h.writeDetail(w, http.StatusBadRequest, "Username already taken")
		return
	}
	if err != nil {
		h.logger.Error("register", zap.Error(err))
		h.writeDetail(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	h.startSession(w, user)
	h.writeJSON(w, http.StatusCreated, types.SessionResponse{User: &user})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.readCredentials(w, r)
	if !ok {
		return
	}

	user, err := h.state.Authenticate(creds.Username, creds.Password)
	if err != nil {
		h.writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	h.startSession(w, user)
	h.writeJSON(w, http.StatusOK, types.SessionResponse{User: &user})
}

func (h *Handlers) Session(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, types.SessionResponse{User: h.currentUser(r)})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		h.state.DeleteSession(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) startSession(w http.ResponseWriter, user types.AuthUser) {
	id := h.state.CreateSession(user.Username)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionTTL.Seconds()),
	})
}
