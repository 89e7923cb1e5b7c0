package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/xNORAGAMIx/udhaari/internal/api"
	"github.com/xNORAGAMIx/udhaari/internal/views"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

// seeOther ends a successful action by navigating, the way the pages do.
func seeOther(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// actionStatus maps an action's error onto a response status.
func actionStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, views.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, views.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, views.ErrSettleNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, views.ErrThrottled):
		return http.StatusTooManyRequests
	case errors.Is(err, views.ErrSessionEnded):
		return http.StatusUnauthorized
	}

	// The backend's own client errors pass through; anything else is a
	// failed upstream call.
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status
	}
	return http.StatusBadGateway
}

// input is a submitted form, sent either as JSON or url-encoded.
type input map[string]string

func readInput(r *http.Request) (input, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		in := make(input, len(raw))
		for k, v := range raw {
			switch v := v.(type) {
			case nil:
			case string:
				in[k] = v
			default:
				in[k] = fmt.Sprint(v)
			}
		}
		return in, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("invalid form: %w", err)
	}
	in := make(input, len(r.Form))
	for k := range r.Form {
		in[k] = r.Form.Get(k)
	}
	return in, nil
}

// bind reads the submitted form or answers 400.
func bind(w http.ResponseWriter, r *http.Request) (input, bool) {
	in, err := readInput(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return nil, false
	}
	return in, true
}

func (in input) checked(key string) bool {
	switch strings.ToLower(in[key]) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
