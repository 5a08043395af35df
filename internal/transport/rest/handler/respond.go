package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"speakexam/internal/flow"
	"speakexam/internal/logger"
	"speakexam/internal/model"
	"speakexam/internal/service"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// decode reads a JSON body into v and validates it
func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid request body")
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid %s: failed %q", verrs[0].Field(), verrs[0].Tag())
		}
		return err
	}
	return nil
}

// writeServiceError maps service and flow errors to HTTP responses
func writeServiceError(w http.ResponseWriter, err error) {
	var limitErr *flow.WordLimitError
	switch {
	case errors.As(err, &limitErr):
		writeJSON(w, http.StatusUnprocessableEntity, model.WordLimitResponse{
			Error:     limitErr.Error(),
			WordCount: limitErr.Count,
			Limit:     limitErr.Limit,
		})
	case errors.Is(err, flow.ErrEmptyAnswer):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, flow.ErrInvalidAction):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrTranscriptionFailed):
		writeError(w, http.StatusBadGateway, service.ErrTranscriptionFailed.Error())
	default:
		logger.Log.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
