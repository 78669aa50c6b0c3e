package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/anasol/cafe-orders/internal/orders"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP codes. Processing failures stay
// generic on the wire; the cause is already logged inside the service.
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	msg := "order processing failed"

	switch {
	case errors.Is(err, orders.ErrValidation):
		code, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, orders.ErrUnauthenticated):
		code, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, orders.ErrForbidden):
		code, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, orders.ErrBranchNotFound),
		errors.Is(err, orders.ErrProductNotFound),
		errors.Is(err, orders.ErrUserNotFound):
		code, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, orders.ErrInsufficientStock):
		code, msg = http.StatusConflict, err.Error()
	case errors.Is(err, orders.ErrInvalidTransition):
		code, msg = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, orders.ErrConflict):
		code, msg = http.StatusConflict, err.Error()
	}

	writeJSON(w, code, map[string]string{"error": msg})
}
