package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"mindquest/internal/assessment"
	"mindquest/internal/emotion"
	"mindquest/internal/logger"
	"mindquest/internal/models"
	"mindquest/internal/risk"
	"mindquest/internal/service"
)

// SensorFactory builds the emotion sensor attached when a client asks for server-side sampling
type SensorFactory func() emotion.Sensor

// AssessmentHandler serves the assessment session API
type AssessmentHandler struct {
	svc       *service.AssessmentService
	newSensor SensorFactory
	log       *logger.Logger
}

// NewAssessmentHandler creates a new assessment handler
func NewAssessmentHandler(svc *service.AssessmentService, newSensor SensorFactory, log *logger.Logger) *AssessmentHandler {
	if newSensor == nil {
		newSensor = func() emotion.Sensor { return emotion.NewSimulatedSensor(time.Now().UnixNano()) }
	}
	return &AssessmentHandler{
		svc:       svc,
		newSensor: newSensor,
		log:       logger.OrNop(log),
	}
}

// RegisterRoutes mounts the API on mux
func (h *AssessmentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/questionnaire", h.Questionnaire)
	mux.HandleFunc("GET /api/sessions", h.Roster)
	mux.HandleFunc("POST /api/sessions", h.CreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", h.GetSession)
	mux.HandleFunc("PUT /api/sessions/{id}/profile", h.UpdateProfile)
	mux.HandleFunc("POST /api/sessions/{id}/questionnaire", h.SubmitQuestionnaire)
	mux.HandleFunc("POST /api/sessions/{id}/emotions", h.RecordObservation)
	mux.HandleFunc("POST /api/sessions/{id}/emotions/reset", h.ResetEmotions)
	mux.HandleFunc("POST /api/sessions/{id}/attempts", h.RecordAttempt)
	mux.HandleFunc("POST /api/sessions/{id}/results", h.RecordResult)
	mux.HandleFunc("GET /api/sessions/{id}/history/{gameId}", h.GameHistory)
	mux.HandleFunc("GET /api/sessions/{id}/snapshots", h.RiskTimeline)
	mux.HandleFunc("POST /api/sessions/{id}/sensor/start", h.StartSensor)
	mux.HandleFunc("POST /api/sessions/{id}/sensor/stop", h.StopSensor)
	mux.HandleFunc("POST /api/sessions/{id}/report", h.SendReport)
	mux.HandleFunc("GET /api/reports/{id}", h.SharedReport)
}

// Questionnaire lists the screening questions
func (h *AssessmentHandler) Questionnaire(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(h.log, w, http.StatusOK, map[string]any{"questions": risk.Questions})
}

// CreateSession starts a new assessment
func (h *AssessmentHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var profile models.UserProfile
	if err := decodeJSON(w, r, &profile); err != nil {
		respondWithError(h.log, w, http.StatusBadRequest, ErrInvalidJSON, "Failed to decode profile", err)
		return
	}

	d, err := h.svc.CreateSession(profile)
	if err != nil {
		respondWithServiceError(h.log, w, "Failed to create session", err)
		return
	}
	respondWithJSON(h.log, w, http.StatusCreated, d)
}

// GetSession returns the session dashboard
func (h *AssessmentHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Dashboard(r.PathValue("id"))
	if err != nil {
		respondWithServiceError(h.log, w, "Failed to load session", err)
		return
	}
	respondWithJSON(h.log, w, http.StatusOK, d)
}

// UpdateProfile replaces the child's profile
func (h *AssessmentHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var profile models.UserProfile
	if err := decodeJSON(w, r, &profile); err != nil {
		respondWithError(h.log, w, http.StatusBadRequest, ErrInvalidJSON, "Failed to decode profile", err)
		return
	}

	d, err := h.svc.UpdateProfile(r.PathValue("id"), profile)
	if err != nil {
		respondWithServiceError(h.log, w, "Failed to update profile", err)
		return
	}
	respondWithJSON(h.log, w, http.StatusOK, d)
}

type questionnaireRequest struct {
	Answers map[string]string `json:"answers"`
}

// SubmitQuestionnaire scores the baseline questionnaire
func (h *AssessmentHandler) SubmitQuestionnaire(w http.ResponseWriter, r *http.Request) {
	var req questionnaireRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(h.log, w, http.StatusBadRequest, ErrInvalidJSON, "Failed to decode questionnaire", err)
		return
	}

	id := r.PathValue("id")
	scores, err := h.svc.SubmitQuestionnaire(id, req.Answers)
	if err != nil {
		respondWithServiceError(h.log, w, "Failed to submit questionnaire", err)
		return
	}
	h.respondWithRisk(w, id, map[string]any{"scores": scores})
}

type observationRequest struct {
	Label     models.EmotionLabel `json:"label"`
	Timestamp *time.Time          `json:"timestamp,omitempty"`
}

// RecordObservation feeds one emotion label into the session tracker
func (h *AssessmentHandler) RecordObservation(w http.ResponseWriter, r *http.Request) {
	var req observationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(h.log, w, http.StatusBadRequest, ErrInvalidJSON, "Failed to decode observation", err)
		return
	}

	ts := time.Now()
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}
	metrics, err := h.svc.RecordObservation(r.PathValue("id"), req.Label, ts)
	if err != nil {
		respondWithServiceError(h.log, w, "Failed to record observation", err)
		return
	}
	respondWithJSON(h.log, w, http.StatusOK, metrics)
}

// ResetEmotions clears the emotion history and counters
func (h *AssessmentHandler) ResetEmotions(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ResetEmotions(r.PathValue("id")); err != nil {
		respondWithServiceError(h.log, w, "Failed to reset emotions", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type attemptRequest struct {
	GameID models.GameID `json:"gameId"`
	models.TaskAttempt
}

// RecordAttempt scores a single task attempt and routes it to a condition
func (h *AssessmentHandler) RecordAttempt(w http.ResponseWriter, r *http.Request) {
	var req attemptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(h.log, w, http.StatusBadRequest, ErrInvalidJSON, "Failed to decode attempt", err)
		return
	}

	attemptRisk, state, err := h.svc.RecordAttempt(r.PathValue("id"), req.GameID, req.TaskAttempt)
	if err != nil {
		respondWithServiceError(h.log, w, "Failed to record attempt", err)
		return
	}
	respondWithJSON(h.log, w, http.StatusOK, map[string]any{
		"attemptRisk": attemptRisk,
		"risk":        state,
	})
}

// RecordResult applies a completed game session
func (h *AssessmentHandler) RecordResult(w http.ResponseWriter, r *http.Request) {
	var result models.GameResult
	if err := decodeJSON(w, r, &result); err != nil {
		respondWithError(h.log, w, http.StatusBadRequest, ErrInvalidJSON, "Failed to decode game result", err)
		return
	}

	sessionRisk, state, err := h.svc.RecordGameResult(r.PathValue("id"), result)
	if err != nil {
		respondWithServiceError(h.log, w, "Failed to record game result", err)
		return
	}
	respondWithJSON(h.log, w, http.StatusOK, map[string]any{
		"sessionRisk": sessionRisk,
		"riskLevel":   risk.SessionRiskLevel(sessionRisk),
		"risk":        state,
	})
}

// GameHistory lists the stored results of one game
func (h *AssessmentHandler) GameHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.svc.GameHistory(r.PathValue("id"), models.GameID(r.PathValue("gameId")))
	if err != nil {
		respondWithServiceError(h.log, w, "Failed to load game history", err)
		return
	}
	if history == nil {
		history = []models.GameHistoryEntry{}
	}
	respondWithJSON(h.log, w, http.StatusOK, map[string]any{"history": history})
}

// Roster lists recent sessions with their overall risk for practitioners
func (h *AssessmentHandler) Roster(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		respondWithServiceError(h.log, w, "Invalid roster limit", err)
		return
	}
	roster, err := h.svc.Roster(limit)
	if err != nil {
		respondWithServiceError(h.log, w, "Failed to list sessions", err)
		return
	}
	respondWithJSON(h.log, w, http.StatusOK, map[string]any{"sessions": roster})
}

// RiskTimeline returns the stored risk snapshots of a session, oldest first
func (h *AssessmentHandler) RiskTimeline(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		respondWithServiceError(h.log, w, "Invalid timeline limit", err)
		return
	}
	snaps, err := h.svc.RiskTimeline(r.PathValue("id"), limit)
	if err != nil {
		respondWithServiceError(h.log, w, "Failed to load risk timeline", err)
		return
	}
	respondWithJSON(h.log, w, http.StatusOK, map[string]any{"snapshots": snaps})
}

// queryLimit reads the optional limit query parameter
func queryLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return service.DefaultListLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: limit must be a number", models.ErrInvalidInput)
	}
	return limit, nil
}

// StartSensor attaches server-side emotion sampling to the session
func (h *AssessmentHandler) StartSensor(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.svc.StartSampling(r.Context(), id, h.newSensor()); err != nil {
		respondWithServiceError(h.log, w, "Failed to start emotion sampling", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StopSensor pauses server-side emotion sampling
func (h *AssessmentHandler) StopSensor(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.StopSampling(r.PathValue("id")); err != nil {
		respondWithServiceError(h.log, w, "Failed to stop emotion sampling", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reportRequest struct {
	Email string `json:"email"`
}

// SendReport emails the risk summary to a parent
func (h *AssessmentHandler) SendReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(h.log, w, http.StatusBadRequest, ErrInvalidJSON, "Failed to decode report request", err)
		return
	}

	if err := h.svc.SendReport(r.Context(), r.PathValue("id"), req.Email); err != nil {
		respondWithServiceError(h.log, w, "Failed to send report", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// SharedReport serves the read-only dashboard behind a signed report link
func (h *AssessmentHandler) SharedReport(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.SharedDashboard(r.PathValue("id"), r.URL.Query().Get("token"))
	if err != nil {
		respondWithServiceError(h.log, w, "Failed to load shared report", err)
		return
	}
	respondWithJSON(h.log, w, http.StatusOK, reportView(d))
}

// reportView is the subset of a dashboard shown through a shared link
func reportView(d assessment.Dashboard) map[string]any {
	return map[string]any{
		"id":            d.ID,
		"name":          d.Profile.Name,
		"risk":          d.Risk,
		"projection":    d.Projection,
		"highAttention": d.HighAttention,
		"summary":       d.Summary,
		"updatedAt":     d.UpdatedAt,
	}
}

func (h *AssessmentHandler) respondWithRisk(w http.ResponseWriter, id string, body map[string]any) {
	d, err := h.svc.Dashboard(id)
	if err != nil {
		respondWithServiceError(h.log, w, "Failed to load session", err)
		return
	}
	body["risk"] = d.Risk
	respondWithJSON(h.log, w, http.StatusOK, body)
}
