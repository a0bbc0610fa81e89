package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"tornadogo-backend/internal/dispatch"
)

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func Success(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, data)
}

// EngineError maps dispatch error kinds to HTTP status codes.
func EngineError(w http.ResponseWriter, err error) {
	var (
		validation *dispatch.ValidationError
		notFound   *dispatch.NotFoundError
		authz      *dispatch.AuthorizationError
		transition *dispatch.StateTransitionError
	)

	switch {
	case errors.As(err, &validation):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.As(err, &authz):
		Error(w, http.StatusForbidden, err.Error())
	case errors.As(err, &transition):
		Error(w, http.StatusConflict, err.Error())
	default:
		Error(w, http.StatusInternalServerError, "internal server error")
	}
}
