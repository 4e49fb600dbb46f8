package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/MikeSquared-Agency/ValueCharts/internal/history"
	"github.com/MikeSquared-Agency/ValueCharts/internal/model"
)

const maxBodyBytes = 1 << 20

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps model errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrOutOfRange),
		errors.Is(err, model.ErrUndefinedValue),
		errors.Is(err, model.ErrDegenerateRange),
		errors.Is(err, model.ErrDegenerateWeights),
		errors.Is(err, model.ErrInvalidWeight),
		errors.Is(err, model.ErrEmptyFunction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, history.ErrNothingToUndo), errors.Is(err, history.ErrNothingToRedo):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

// decodeRequest decodes a JSON body into v and checks its validate tags.
func decodeRequest(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func validUsername(username string) error {
	if err := validate.Var(username, "required,max=64,excludesall=/?#"); err != nil {
		return fmt.Errorf("invalid username %q: %w", username, model.ErrValidation)
	}
	return nil
}

func validChartName(name string) error {
	if err := validate.Var(name, "required,max=200"); err != nil {
		return fmt.Errorf("invalid chart name %q: %w", name, model.ErrValidation)
	}
	return nil
}

// authorized reports whether the request carries the chart's password.
// Charts without a password are open.
func authorized(c *model.Chart, r *http.Request) bool {
	if c.Password == "" {
		return true
	}
	given := r.URL.Query().Get("password")
	return subtle.ConstantTimeCompare([]byte(given), []byte(c.Password)) == 1
}

// redact returns a copy of c that is safe to send to clients.
func redact(c *model.Chart) *model.Chart {
	out := c.Clone()
	out.Password = ""
	return out
}
