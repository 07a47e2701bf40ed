package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/vbonduro/dishout/internal/accounts"
	"github.com/vbonduro/dishout/internal/photostore"
	"github.com/vbonduro/dishout/internal/service"
	"github.com/vbonduro/dishout/internal/session"
)

const maxJSONBody = 8 << 20 // avatars arrive as data URLs

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json failed", "error", err)
	}
}

// writeState serves the viewer's projection of st.
func writeState(w http.ResponseWriter, status int, st session.State) {
	writeJSON(w, status, st.ForViewer())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a single JSON value from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// statusFor maps the errors a handler can expect to HTTP statuses. Anything
// else is a server error.
func statusFor(err error) (int, bool) {
	switch {
	case errors.Is(err, accounts.ErrMissingFields),
		errors.Is(err, accounts.ErrUnknownType),
		errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrMissingURL),
		errors.Is(err, service.ErrEmptyImage):
		return http.StatusBadRequest, true
	case errors.Is(err, accounts.ErrIncorrectPassword),
		errors.Is(err, service.ErrNotLoggedIn):
		return http.StatusUnauthorized, true
	case errors.Is(err, service.ErrNotRestaurant):
		return http.StatusForbidden, true
	case errors.Is(err, accounts.ErrAccountNotFound),
		errors.Is(err, photostore.ErrNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, accounts.ErrEmailTaken):
		return http.StatusConflict, true
	default:
		return http.StatusInternalServerError, false
	}
}

// fail writes err as a JSON error. Unexpected errors are logged and
// reported without detail.
func (s *Server) fail(w http.ResponseWriter, msg string, err error) {
	status, known := statusFor(err)
	if !known {
		s.serverError(w, msg, err)
		return
	}
	writeError(w, status, err.Error())
}

func (s *Server) serverError(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
