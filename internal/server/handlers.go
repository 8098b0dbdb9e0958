package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/internradar/internradar/internal/model"
	"github.com/internradar/internradar/internal/store"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "InternRadar API"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleListInternships(w http.ResponseWriter, r *http.Request) {
	postings := s.postings.GetPostings(r.Context())
	if postings == nil {
		postings = []model.Posting{}
	}
	writeJSON(w, http.StatusOK, postings)
}

func (s *Server) handleRefreshInternships(w http.ResponseWriter, r *http.Request) {
	outcome := s.postings.RefreshNow(r.Context())
	if !outcome.Replaced {
		writeError(w, http.StatusBadGateway, "refresh produced no postings, existing snapshot retained")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "internships refreshed successfully",
		"count":   len(outcome.Accepted),
		"new":     len(outcome.New),
	})
}

type saveJobRequest struct {
	InternshipID string `json:"internship_id" validate:"required"`
}

type savedJobResponse struct {
	ID           string `json:"id"`
	InternshipID string `json:"internship_id"`
	SavedAt      string `json:"saved_at"`
}

func (s *Server) handleListSavedJobs(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	ids, err := s.store.SavedJobIDs(r.Context(), claims.UserID)
	if err != nil {
		s.logger.Error("saved jobs lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	// Resolve ids against the current snapshot; postings that dropped out of
	// the feed are returned as ids only.
	saved := make([]model.Posting, 0, len(ids))
	var missing []string
	for _, id := range ids {
		if p, ok := s.postings.Lookup(id); ok {
			saved = append(saved, p)
		} else {
			missing = append(missing, id)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"internships": saved,
		"missing_ids": missing,
	})
}

func (s *Server) handleSaveJob(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	var req saveJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	sj, err := s.store.SaveJob(r.Context(), claims.UserID, req.InternshipID)
	if errors.Is(err, store.ErrAlreadySaved) {
		writeError(w, http.StatusConflict, "internship already saved")
		return
	}
	if err != nil {
		s.logger.Error("saving job failed", "error", err)
		writeError(w, http.StatusInternalServerError, "save failed")
		return
	}

	writeJSON(w, http.StatusCreated, savedJobResponse{
		ID:           sj.ID,
		InternshipID: sj.InternshipID,
		SavedAt:      sj.SavedAt.Format(time.RFC3339),
	})
}

func (s *Server) handleUnsaveJob(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	internshipID := chi.URLParam(r, "internshipID")

	err := s.store.UnsaveJob(r.Context(), claims.UserID, internshipID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "internship not saved")
		return
	}
	if err != nil {
		s.logger.Error("unsaving job failed", "error", err)
		writeError(w, http.StatusInternalServerError, "unsave failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "internship removed from saved jobs"})
}

type subscribeRequest struct {
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone" validate:"omitempty,min=10"`
	Carrier       string `json:"carrier" validate:"omitempty,oneof=verizon att tmobile sprint us_cellular"`
	SMSEnabled    bool   `json:"sms_enabled"`
	DailyDigest   bool   `json:"daily_digest"`
	InstantAlerts bool   `json:"instant_alerts"`
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	if req.SMSEnabled && req.Phone == "" {
		writeError(w, http.StatusBadRequest, "phone is required when sms_enabled is set")
		return
	}

	err := s.store.UpsertSubscriber(r.Context(), store.Subscriber{
		Email:         strings.ToLower(req.Email),
		Phone:         req.Phone,
		Carrier:       req.Carrier,
		SMSEnabled:    req.SMSEnabled,
		DailyDigest:   req.DailyDigest,
		InstantAlerts: req.InstantAlerts,
	})
	if err != nil {
		s.logger.Error("subscribing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "subscription failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "subscribed to notifications"})
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(chi.URLParam(r, "email"))

	err := s.store.DeleteSubscriber(r.Context(), email)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "subscriber not found")
		return
	}
	if err != nil {
		s.logger.Error("unsubscribing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "unsubscribe failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "unsubscribed from notifications"})
}
