// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/reportdesk/internal/auth"
	"github.com/tomtom215/reportdesk/internal/logging"
	"github.com/tomtom215/reportdesk/internal/progress"
	"github.com/tomtom215/reportdesk/internal/validation"
)

// ProgressStages lists the stage table every session runs through.
//
// @Summary List progress stages
// @Tags Progress
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.APIResponse{data=[]progress.Stage}
// @Router /api/v1/progress/stages [get]
func (h *Handler) ProgressStages(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, h.registry.Stages(), time.Now())
}

// ProgressCreate starts a new progress session for the caller.
//
// @Summary Start a progress session
// @Tags Progress
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body validation.ProgressCreateRequest false "Optional label"
// @Success 201 {object} models.APIResponse{data=progress.Snapshot}
// @Failure 400 {object} models.APIResponse "VALIDATION_ERROR"
// @Router /api/v1/progress [post]
func (h *Handler) ProgressCreate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req validation.ProgressCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, "Invalid request body", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr, nil)
		return
	}

	subject := auth.SubjectFromContext(r.Context())
	snap := h.registry.Create(subject.ID, req.Label)
	logging.Ctx(r.Context()).Info().Str("session_id", snap.ID).Msg("Progress session started")
	respondSuccess(w, http.StatusCreated, snap, start)
}

// ProgressGet returns the current state of a session.
//
// @Summary Get a progress session
// @Tags Progress
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Success 200 {object} models.APIResponse{data=progress.Snapshot}
// @Failure 404 {object} models.APIResponse "NOT_FOUND"
// @Router /api/v1/progress/{sessionId} [get]
func (h *Handler) ProgressGet(w http.ResponseWriter, r *http.Request) {
	h.progressOp(w, r, h.registry.Get)
}

// ProgressAdvance moves a running session to its next stage. At the last
// stage it is a no-op.
//
// @Summary Advance a progress session
// @Tags Progress
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Success 200 {object} models.APIResponse{data=progress.Snapshot}
// @Failure 404 {object} models.APIResponse "NOT_FOUND"
// @Failure 409 {object} models.APIResponse "CONFLICT: session not running"
// @Router /api/v1/progress/{sessionId}/advance [post]
func (h *Handler) ProgressAdvance(w http.ResponseWriter, r *http.Request) {
	h.progressOp(w, r, h.registry.Advance)
}

// ProgressComplete finishes a session at 100%.
//
// @Summary Complete a progress session
// @Tags Progress
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Success 200 {object} models.APIResponse{data=progress.Snapshot}
// @Failure 404 {object} models.APIResponse "NOT_FOUND"
// @Failure 409 {object} models.APIResponse "CONFLICT: session already finished"
// @Router /api/v1/progress/{sessionId}/complete [post]
func (h *Handler) ProgressComplete(w http.ResponseWriter, r *http.Request) {
	h.progressOp(w, r, h.registry.Complete)
}

// ProgressError moves a session to the errored state and raises an alert.
//
// @Summary Fail a progress session
// @Tags Progress
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Param body body validation.ProgressErrorRequest true "Error message"
// @Success 200 {object} models.APIResponse{data=progress.Snapshot}
// @Failure 400 {object} models.APIResponse "VALIDATION_ERROR"
// @Failure 404 {object} models.APIResponse "NOT_FOUND"
// @Router /api/v1/progress/{sessionId}/error [post]
func (h *Handler) ProgressError(w http.ResponseWriter, r *http.Request) {
	var req validation.ProgressErrorRequest
	if err := decodeJSONBody(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, "Invalid request body", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr, nil)
		return
	}
	h.progressOp(w, r, func(ownerID, id string) (progress.Snapshot, error) {
		return h.registry.Fail(ownerID, id, req.Message)
	})
}

// ProgressShowAlert raises a transient banner on a session.
//
// @Summary Show a progress alert
// @Tags Progress
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Param body body validation.ProgressAlertRequest true "Alert"
// @Success 201 {object} models.APIResponse{data=progress.Alert}
// @Failure 400 {object} models.APIResponse "VALIDATION_ERROR"
// @Failure 404 {object} models.APIResponse "NOT_FOUND"
// @Router /api/v1/progress/{sessionId}/alerts [post]
func (h *Handler) ProgressShowAlert(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req validation.ProgressAlertRequest
	if err := decodeJSONBody(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, "Invalid request body", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr, nil)
		return
	}
	typ, err := progress.ParseAlertType(req.Type)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}

	subject := auth.SubjectFromContext(r.Context())
	alert, err := h.registry.ShowAlert(subject.ID, chi.URLParam(r, "sessionId"), req.Message, typ)
	if err != nil {
		h.respondProgressError(w, err)
		return
	}
	respondSuccess(w, http.StatusCreated, alert, start)
}

// ProgressDismissAlert removes a banner before it expires.
//
// @Summary Dismiss a progress alert
// @Tags Progress
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Param alertId path string true "Alert ID"
// @Success 204
// @Failure 404 {object} models.APIResponse "NOT_FOUND"
// @Router /api/v1/progress/{sessionId}/alerts/{alertId} [delete]
func (h *Handler) ProgressDismissAlert(w http.ResponseWriter, r *http.Request) {
	subject := auth.SubjectFromContext(r.Context())
	found, err := h.registry.DismissAlert(subject.ID, chi.URLParam(r, "sessionId"), chi.URLParam(r, "alertId"))
	if err != nil {
		h.respondProgressError(w, err)
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Alert not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) progressOp(w http.ResponseWriter, r *http.Request, op func(ownerID, id string) (progress.Snapshot, error)) {
	start := time.Now()
	subject := auth.SubjectFromContext(r.Context())
	snap, err := op(subject.ID, chi.URLParam(r, "sessionId"))
	if err != nil {
		h.respondProgressError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, snap, start)
}

func (h *Handler) respondProgressError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, progress.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, ErrCodeNotFound, msgSessionNotFound, nil)
	case errors.Is(err, progress.ErrNotRunning), errors.Is(err, progress.ErrFinished):
		respondError(w, http.StatusConflict, ErrCodeConflict, err.Error(), nil)
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Progress update failed", err)
	}
}
