// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package api

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/reportdesk/internal/auth"
	"github.com/tomtom215/reportdesk/internal/logging"
	"github.com/tomtom215/reportdesk/internal/metrics"
	"github.com/tomtom215/reportdesk/internal/models"
	"github.com/tomtom215/reportdesk/internal/store"
	"github.com/tomtom215/reportdesk/internal/validation"
)

// saveReportBody keeps the report raw so a non-object can be told apart
// from an object that fails to decode.
type saveReportBody struct {
	Report json.RawMessage `json:"report"`
}

// SaveReport stores the caller's report.
//
// @Summary Save a report
// @Description Stores a non-empty JSON object as a new report owned by the caller. reportId, userId and createdAt are assigned by the server.
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body validation.SaveReportRequest true "Report to save"
// @Success 200 {object} models.SaveReportResponse
// @Failure 400 {object} models.APIResponse "INVALID_PAYLOAD"
// @Failure 403 {object} models.APIResponse "UNAUTHENTICATED or INVALID_TOKEN"
// @Failure 405 {object} models.APIResponse "METHOD_NOT_ALLOWED"
// @Failure 500 {object} models.APIResponse "STORE_FAILURE"
// @Router /saveReport [post]
// @Router /api/v1/reports [post]
func (h *Handler) SaveReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject := auth.SubjectFromContext(ctx)
	logger := logging.Ctx(ctx)

	fields, apiErr := parseReportPayload(w, r)
	if apiErr != nil {
		metrics.ReportsRejected.WithLabelValues("invalid_payload").Inc()
		logger.Warn().Str("reason", apiErr.Message).Msg("Save rejected: invalid report payload")
		respondErrorDetails(w, http.StatusBadRequest, &models.APIError{
			Code:    ErrCodeInvalidPayload,
			Message: msgInvalidPayload,
			Details: apiErr.Details,
		}, nil)
		return
	}

	start := time.Now()
	report, err := h.store.Insert(ctx, subject.ID, fields)
	metrics.RecordStoreOperation("insert", h.store.Backend(), time.Since(start), err)
	if err != nil {
		if errors.Is(err, store.ErrEmptyReport) {
			metrics.ReportsRejected.WithLabelValues("invalid_payload").Inc()
			respondError(w, http.StatusBadRequest, ErrCodeInvalidPayload, msgInvalidPayload, nil)
			return
		}
		logger.Error().Err(err).Msg("Save failed: store insert error")
		respondError(w, http.StatusInternalServerError, ErrCodeStoreFailure, msgSaveFailed, nil)
		return
	}

	metrics.ReportsSaved.Inc()
	logger.Info().Str("report_id", report.ID).Int("fields", len(report.Fields)).Msg("Report saved")
	h.publishSaved(r, report)

	writeJSON(w, http.StatusOK, models.SaveReportResponse{
		Message:  msgReportSaved,
		UserID:   report.UserID,
		ReportID: report.ID,
	})
}

// parseReportPayload decodes {"report": {...}} and requires a non-empty
// object. The returned error carries a reason for logs and details.
func parseReportPayload(w http.ResponseWriter, r *http.Request) (models.Fields, *models.APIError) {
	var body saveReportBody
	if err := decodeJSONBody(w, r, &body); err != nil {
		return nil, &models.APIError{Message: err.Error()}
	}

	raw := bytes.TrimSpace(body.Report)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, &models.APIError{
			Message: "report must be a JSON object",
			Details: map[string]interface{}{"field": "report", "tag": "object"},
		}
	}

	req := validation.SaveReportRequest{}
	if err := json.Unmarshal(raw, &req.Report); err != nil {
		return nil, &models.APIError{Message: err.Error()}
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		return nil, apiErr
	}
	return req.Report, nil
}

// publishSaved notifies subscribers. Failure is logged and never affects
// the response.
func (h *Handler) publishSaved(r *http.Request, report *models.Report) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.PublishReportSaved(r.Context(), models.NewReportSavedEvent(report)); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Str("report_id", report.ID).Msg("Failed to publish report_saved event")
	}
}

// GetReports lists the caller's reports, newest first.
//
// @Summary List reports
// @Description Returns the caller's reports ordered by createdAt descending. Empty array when there are none.
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum number of reports (0 = server default)"
// @Success 200 {array} models.Report
// @Failure 400 {object} models.APIResponse "VALIDATION_ERROR"
// @Failure 403 {object} models.APIResponse "UNAUTHENTICATED or INVALID_TOKEN"
// @Failure 405 {object} models.APIResponse "METHOD_NOT_ALLOWED"
// @Failure 500 {object} models.APIResponse "STORE_FAILURE"
// @Router /getReports [get]
// @Router /api/v1/reports [get]
func (h *Handler) GetReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject := auth.SubjectFromContext(ctx)
	logger := logging.Ctx(ctx)

	limit, err := getIntParam(r, "limit", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}
	query := validation.ListReportsQuery{Limit: limit}
	if apiErr := validateRequest(&query); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr, nil)
		return
	}
	if query.Limit == 0 {
		query.Limit = h.listLimit()
	}

	start := time.Now()
	reports, err := h.store.List(ctx, subject.ID, store.ListOptions{Limit: query.Limit})
	metrics.RecordStoreOperation("list", h.store.Backend(), time.Since(start), err)
	if err != nil {
		logger.Error().Err(err).Msg("List failed: store query error")
		respondError(w, http.StatusInternalServerError, ErrCodeStoreFailure, msgFetchFailed, nil)
		return
	}
	if reports == nil {
		reports = []models.Report{}
	}

	logger.Info().Int("count", len(reports)).Msg("Reports fetched")
	writeJSON(w, http.StatusOK, reports)
}

// GetReport returns one of the caller's reports.
//
// @Summary Get a report
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param reportId path string true "Report ID"
// @Success 200 {object} models.APIResponse{data=models.Report}
// @Failure 403 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse "NOT_FOUND"
// @Failure 500 {object} models.APIResponse "STORE_FAILURE"
// @Router /api/v1/reports/{reportId} [get]
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject := auth.SubjectFromContext(ctx)
	reportID := chi.URLParam(r, "reportId")

	start := time.Now()
	report, err := h.store.Get(ctx, subject.ID, reportID)
	metrics.RecordStoreOperation("get", h.store.Backend(), time.Since(start), ignoreNotFound(err))
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, ErrCodeNotFound, msgReportNotFound, nil)
		return
	case err != nil:
		logging.Ctx(ctx).Error().Err(err).Str("report_id", sanitizeLogValue(reportID)).Msg("Get failed: store query error")
		respondError(w, http.StatusInternalServerError, ErrCodeStoreFailure, msgFetchFailed, nil)
		return
	}
	respondSuccess(w, http.StatusOK, report, start)
}

// ReportStats returns the caller's report totals and daily counts.
//
// @Summary Report statistics
// @Description Total reports for the caller and per-day counts (UTC) for the last 7 days.
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.APIResponse{data=models.ReportStats}
// @Failure 403 {object} models.APIResponse
// @Failure 500 {object} models.APIResponse "STORE_FAILURE"
// @Router /api/v1/reports/stats [get]
func (h *Handler) ReportStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject := auth.SubjectFromContext(ctx)
	until := h.now().UTC()
	since := until.AddDate(0, 0, -(statsWindowDays - 1))

	start := time.Now()
	stats, err := h.store.Stats(ctx, subject.ID, since, until)
	metrics.RecordStoreOperation("stats", h.store.Backend(), time.Since(start), err)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Stats failed: store query error")
		respondError(w, http.StatusInternalServerError, ErrCodeStoreFailure, msgFetchFailed, nil)
		return
	}
	respondSuccess(w, http.StatusOK, stats, start)
}

func ignoreNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}
