package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"mindquest/internal/logger"
	"mindquest/internal/models"
)

func respondWithError(log *logger.Logger, w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		if status >= http.StatusInternalServerError {
			log.Error(logMsg, "status", status, "error", err)
		} else {
			log.Debug(logMsg, "status", status, "error", err)
		}
	}

	respondWithJSON(log, w, status, map[string]string{"error": userMsg})
}

func respondWithJSON(log *logger.Logger, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn("Failed to write response", "error", err)
	}
}

// respondWithServiceError maps a domain error to its HTTP status
func respondWithServiceError(log *logger.Logger, w http.ResponseWriter, logMsg string, err error) {
	switch {
	case errors.Is(err, models.ErrSessionNotFound):
		respondWithError(log, w, http.StatusNotFound, ErrSessionNotFound, logMsg, err)
	case errors.Is(err, models.ErrUnknownEntity):
		respondWithError(log, w, http.StatusNotFound, ErrUnknownEntity, logMsg, err)
	case errors.Is(err, models.ErrInvalidInput):
		respondWithError(log, w, http.StatusBadRequest, err.Error(), logMsg, err)
	case errors.Is(err, models.ErrSensorUnavailable):
		respondWithError(log, w, http.StatusServiceUnavailable, ErrSensorUnavailable, logMsg, err)
	case errors.Is(err, models.ErrReportsUnavailable):
		respondWithError(log, w, http.StatusServiceUnavailable, ErrReportsUnavailable, logMsg, err)
	default:
		respondWithError(log, w, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("unexpected data after JSON object")
	}
	return nil
}
