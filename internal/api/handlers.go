package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/kisaansetu/advisor/internal/core"
	"github.com/kisaansetu/advisor/internal/session"
)

// timestampLayout renders exchange timestamps as wall-clock HH:MM.
const timestampLayout = "15:04"

type APIHandler struct {
	advisor *core.AdvisorService
	logger  *zap.Logger
}

func NewAPIHandler(advisor *core.AdvisorService, logger *zap.Logger) *APIHandler {
	return &APIHandler{advisor: advisor, logger: logger}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Success: false, Error: msg})
}

// mapError translates core error kinds to HTTP statuses.
func (h *APIHandler) mapError(w http.ResponseWriter, err error) {
	var extErr *core.ExternalServiceError
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, "Invalid session ID")
	case errors.Is(err, core.ErrDataNotReady):
		writeError(w, http.StatusServiceUnavailable, "KCC data not loaded. Please restart the service.")
	case errors.Is(err, core.ErrGenerateTimeout):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.As(err, &extErr):
		h.logger.Error("external service failure", zap.Error(err))
		writeError(w, http.StatusBadGateway, "Upstream AI service failed. Please try again.")
	default:
		h.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"service":     "KisaanSetu AI Assistant",
		"data_loaded": h.advisor.Ready(),
		"corpus_size": h.advisor.CorpusSize(),
	})
}

// StartSessionHandler creates a new farmer session. The whole request
// body is treated as the initial farmer profile.
func (h *APIHandler) StartSessionHandler(w http.ResponseWriter, r *http.Request) {
	profile := map[string]string{}
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	sessionID, farmerProfile := h.advisor.StartSession(profile)

	name := farmerProfile["name"]
	if name == "" {
		name = "farmer"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"session_id":     sessionID,
		"message":        "Session started for " + name,
		"farmer_context": farmerProfile,
	})
}

type askRequest struct {
	Query      string            `json:"query"`
	SessionID  string            `json:"session_id"`
	FarmerInfo map[string]string `json:"farmer_info"`
}

type askResponse struct {
	Success           bool              `json:"success"`
	SessionID         string            `json:"session_id"`
	Query             string            `json:"query"`
	Answer            string            `json:"answer"`
	UsedKCCContext    bool              `json:"used_kcc_context"`
	ConversationCount int               `json:"conversation_count"`
	FarmerContext     map[string]string `json:"farmer_context"`
	TopicsDiscussed   string            `json:"topics_discussed"`
}

func (h *APIHandler) AskHandler(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.advisor.Ask(r.Context(), core.AskRequest{
		Query:         req.Query,
		SessionID:     req.SessionID,
		FarmerProfile: req.FarmerInfo,
	})
	if err != nil {
		h.mapError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, askResponse{
		Success:           true,
		SessionID:         result.SessionID,
		Query:             result.Query,
		Answer:            result.Answer,
		UsedKCCContext:    result.UsedRetrievedContext,
		ConversationCount: result.ConversationCount,
		FarmerContext:     result.FarmerProfile,
		TopicsDiscussed:   result.TopicsDiscussed,
	})
}

type historyEntry struct {
	Query     string `json:"query"`
	Response  string `json:"response"`
	UsedKCC   bool   `json:"used_kcc"`
	Timestamp string `json:"timestamp"`
}

func (h *APIHandler) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	result, err := h.advisor.History(sessionID)
	if err != nil {
		h.mapError(w, err)
		return
	}

	history := make([]historyEntry, 0, len(result.Exchanges))
	for _, exch := range result.Exchanges {
		history = append(history, historyEntry{
			Query:     exch.Query,
			Response:  exch.Answer,
			UsedKCC:   exch.UsedContext,
			Timestamp: exch.Timestamp.Format(timestampLayout),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":              true,
		"session_id":           result.SessionID,
		"conversation_history": history,
		"farmer_context":       result.FarmerProfile,
		"topics_discussed":     result.TopicsDiscussed,
	})
}

// UpdateProfileHandler merges the posted fields into the session's
// farmer profile. Every body field except session_id is a profile
// attribute.
func (h *APIHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	fields := map[string]string{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	sessionID := fields["session_id"]
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	delete(fields, "session_id")

	profile, err := h.advisor.UpdateProfile(sessionID, fields)
	if err != nil {
		h.mapError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"message":        "Profile updated successfully",
		"farmer_context": profile,
	})
}

func (h *APIHandler) GetSessionsHandler(w http.ResponseWriter, r *http.Request) {
	sessions := h.advisor.Sessions()
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"active_sessions": len(sessions),
		"sessions":        sessions,
	})
}
