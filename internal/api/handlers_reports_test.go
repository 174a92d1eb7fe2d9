// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reportdesk/internal/models"
)

func listReports(t *testing.T, s *testServer, token string) []models.Report {
	t.Helper()
	rec := s.do(t, http.MethodGet, "/getReports", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /getReports status = %d, body %s", rec.Code, rec.Body.String())
	}
	var reports []models.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &reports); err != nil {
		t.Fatalf("decode list: %v (body %s)", err, rec.Body.String())
	}
	return reports
}

func saveReport(t *testing.T, s *testServer, token, report string) models.SaveReportResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/saveReport", token, `{"report":`+report+`}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /saveReport status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp models.SaveReportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode save: %v", err)
	}
	return resp
}

func TestSaveReport_Success(t *testing.T) {
	s := newTestServer(t, nil, nil)
	pub := &recordingPublisher{}
	s.handler.SetEventPublisher(pub)

	resp := saveReport(t, s, tokenAlice, `{"title":"Weekly","score":42,"nested":{"a":[1,2]}}`)
	if resp.Message != "Report successfully saved." {
		t.Errorf("message = %q", resp.Message)
	}
	if resp.UserID != "alice" || resp.ReportID == "" {
		t.Errorf("response = %+v", resp)
	}

	reports := listReports(t, s, tokenAlice)
	if len(reports) != 1 {
		t.Fatalf("list = %d reports, want 1", len(reports))
	}
	got := reports[0]
	if got.ID != resp.ReportID || got.UserID != "alice" {
		t.Errorf("stored report = %+v", got)
	}
	if string(got.Fields["score"]) != "42" {
		t.Errorf("score = %s, want 42", got.Fields["score"])
	}
	if string(got.Fields["nested"]) != `{"a":[1,2]}` {
		t.Errorf("nested = %s", got.Fields["nested"])
	}

	if len(pub.events) != 1 || pub.events[0].ReportID != resp.ReportID || pub.events[0].FieldCount != 3 {
		t.Errorf("published events = %+v", pub.events)
	}
}

func TestSaveReport_ServerFieldsOverwriteClient(t *testing.T) {
	s := newTestServer(t, nil, nil)
	before := time.Now().Add(-time.Second)

	resp := saveReport(t, s, tokenAlice,
		`{"title":"x","createdAt":"1999-01-01T00:00:00Z","userId":"mallory","reportId":"mine"}`)
	if resp.ReportID == "mine" {
		t.Error("client reportId was kept")
	}

	reports := listReports(t, s, tokenAlice)
	if len(reports) != 1 {
		t.Fatalf("list = %d reports, want 1", len(reports))
	}
	got := reports[0]
	if got.UserID != "alice" {
		t.Errorf("userId = %q, want alice", got.UserID)
	}
	if got.CreatedAt.Before(before) {
		t.Errorf("createdAt = %v, want server time", got.CreatedAt)
	}
	if len(listReports(t, s, tokenBob)) != 0 {
		t.Error("spoofed userId leaked the report to another user")
	}
}

func TestSaveReport_InvalidPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"not json", "report=1"},
		{"missing report", `{"other":{"a":1}}`},
		{"null report", `{"report":null}`},
		{"empty object", `{"report":{}}`},
		{"array", `{"report":[1,2]}`},
		{"string", `{"report":"text"}`},
		{"number", `{"report":7}`},
	}

	s := newTestServer(t, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/saveReport", tokenAlice, tt.body)
			resp := assertError(t, rec, http.StatusBadRequest, ErrCodeInvalidPayload)
			if resp.Error.Message != msgInvalidPayload {
				t.Errorf("message = %q", resp.Error.Message)
			}
		})
	}

	if n := len(listReports(t, s, tokenAlice)); n != 0 {
		t.Errorf("rejected saves stored %d reports", n)
	}
}

func TestSaveReport_ErrorCategoriesDoNotWrite(t *testing.T) {
	st := newBadgerStore(t)
	s := newTestServer(t, st, nil)

	cases := []struct {
		name   string
		method string
		token  string
		body   string
		status int
		code   string
	}{
		{"wrong method", http.MethodGet, tokenAlice, "", http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed},
		{"no token", http.MethodPost, "", `{"report":{"a":1}}`, http.StatusForbidden, ErrCodeUnauthenticated},
		{"bad token", http.MethodPost, "garbage", `{"report":{"a":1}}`, http.StatusForbidden, ErrCodeInvalidToken},
		{"invalid payload", http.MethodPost, tokenAlice, `{"report":{}}`, http.StatusBadRequest, ErrCodeInvalidPayload},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, tc.method, "/saveReport", tc.token, tc.body)
			assertError(t, rec, tc.status, tc.code)
		})
	}

	if n := len(listReports(t, s, tokenAlice)); n != 0 {
		t.Errorf("error paths stored %d reports", n)
	}
}

func TestSaveReport_StoreFailure(t *testing.T) {
	fs := &failingStore{}
	s := newTestServer(t, fs, nil)
	pub := &recordingPublisher{}
	s.handler.SetEventPublisher(pub)

	rec := s.do(t, http.MethodPost, "/saveReport", tokenAlice, `{"report":{"a":1}}`)
	resp := assertError(t, rec, http.StatusInternalServerError, ErrCodeStoreFailure)
	if resp.Error.Message != msgSaveFailed {
		t.Errorf("message = %q", resp.Error.Message)
	}
	if fs.inserts != 1 {
		t.Errorf("inserts = %d, want 1", fs.inserts)
	}
	if len(pub.events) != 0 {
		t.Errorf("published %d events for a failed save", len(pub.events))
	}
}

func TestSaveReport_PublishFailureStillSucceeds(t *testing.T) {
	s := newTestServer(t, nil, nil)
	s.handler.SetEventPublisher(&recordingPublisher{err: errStoreDown})

	saveReport(t, s, tokenAlice, `{"a":1}`)
	if n := len(listReports(t, s, tokenAlice)); n != 1 {
		t.Errorf("list = %d reports, want 1", n)
	}
}

func TestGetReports_Empty(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := s.do(t, http.MethodGet, "/getReports", tokenAlice, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := rec.Body.String(); body != "[]" {
		t.Errorf("body = %s, want []", body)
	}
}

func TestGetReports_NewestFirst(t *testing.T) {
	s := newTestServer(t, nil, nil)
	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, saveReport(t, s, tokenAlice, `{"n":`+string(rune('0'+i))+`}`).ReportID)
	}

	reports := listReports(t, s, tokenAlice)
	if len(reports) != len(ids) {
		t.Fatalf("list = %d reports, want %d", len(reports), len(ids))
	}
	for i, r := range reports {
		want := ids[len(ids)-1-i]
		if r.ID != want {
			t.Errorf("reports[%d] = %s, want %s", i, r.ID, want)
		}
		if i > 0 && !r.CreatedAt.Before(reports[i-1].CreatedAt) {
			t.Errorf("reports[%d].createdAt %v not before %v", i, r.CreatedAt, reports[i-1].CreatedAt)
		}
	}
}

func TestGetReports_Limit(t *testing.T) {
	s := newTestServer(t, nil, nil)
	for i := 0; i < 3; i++ {
		saveReport(t, s, tokenAlice, `{"a":1}`)
	}

	rec := s.do(t, http.MethodGet, "/getReports?limit=2", tokenAlice, "")
	var reports []models.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &reports); err != nil {
		t.Fatal(err)
	}
	if len(reports) != 2 {
		t.Errorf("limit=2 returned %d reports", len(reports))
	}

	for _, q := range []string{"limit=abc", "limit=-1", "limit=5000"} {
		rec := s.do(t, http.MethodGet, "/getReports?"+q, tokenAlice, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rec.Code)
		}
	}
}

func TestGetReports_Isolation(t *testing.T) {
	s := newTestServer(t, nil, nil)
	saveReport(t, s, tokenAlice, `{"owner":"alice"}`)
	saveReport(t, s, tokenBob, `{"owner":"bob"}`)
	saveReport(t, s, tokenBob, `{"owner":"bob"}`)

	for token, want := range map[string]int{tokenAlice: 1, tokenBob: 2} {
		reports := listReports(t, s, token)
		if len(reports) != want {
			t.Errorf("%s: %d reports, want %d", token, len(reports), want)
		}
		for _, r := range reports {
			if `"`+r.UserID+`"` != string(r.Fields["owner"]) {
				t.Errorf("%s: saw report %+v owned by %s", token, r.Fields, r.UserID)
			}
		}
	}
}

func TestGetReports_StoreFailure(t *testing.T) {
	s := newTestServer(t, &failingStore{}, nil)
	rec := s.do(t, http.MethodGet, "/getReports", tokenAlice, "")
	resp := assertError(t, rec, http.StatusInternalServerError, ErrCodeStoreFailure)
	if resp.Error.Message != msgFetchFailed {
		t.Errorf("message = %q", resp.Error.Message)
	}
}

func TestGetReport(t *testing.T) {
	s := newTestServer(t, nil, nil)
	saved := saveReport(t, s, tokenAlice, `{"title":"one"}`)

	rec := s.do(t, http.MethodGet, "/api/v1/reports/"+saved.ReportID, tokenAlice, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var got models.Report
	dataAs(t, rec, &got)
	if got.ID != saved.ReportID || string(got.Fields["title"]) != `"one"` {
		t.Errorf("report = %+v", got)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/reports/"+saved.ReportID, tokenBob, "")
	assertError(t, rec, http.StatusNotFound, ErrCodeNotFound)

	rec = s.do(t, http.MethodGet, "/api/v1/reports/does-not-exist", tokenAlice, "")
	assertError(t, rec, http.StatusNotFound, ErrCodeNotFound)
}

func TestV1Reports_Envelope(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := s.do(t, http.MethodPost, "/api/v1/reports", tokenAlice, `{"report":{"a":1}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/api/v1/reports", tokenAlice, "")
	var reports []models.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &reports); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(reports) != 1 {
		t.Errorf("list = %d reports, want 1", len(reports))
	}
}

func TestReportStats(t *testing.T) {
	s := newTestServer(t, nil, nil)
	saveReport(t, s, tokenAlice, `{"a":1}`)
	saveReport(t, s, tokenAlice, `{"a":2}`)

	rec := s.do(t, http.MethodGet, "/api/v1/reports/stats", tokenAlice, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var stats models.ReportStats
	dataAs(t, rec, &stats)
	if stats.Total != 2 {
		t.Errorf("total = %d, want 2", stats.Total)
	}
	var sum int64
	for _, d := range stats.Daily {
		sum += d.Count
	}
	if sum != 2 {
		t.Errorf("daily counts sum to %d, want 2", sum)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/reports/stats", tokenBob, "")
	dataAs(t, rec, &stats)
	if stats.Total != 0 {
		t.Errorf("bob total = %d, want 0", stats.Total)
	}
}

func TestReportStats_WindowFollowsHandlerClock(t *testing.T) {
	s := newTestServer(t, nil, nil)
	saveReport(t, s, tokenAlice, `{"a":1}`)
	s.handler.now = func() time.Time { return time.Date(2026, 1, 10, 15, 0, 0, 0, time.UTC) }

	rec := s.do(t, http.MethodGet, "/api/v1/reports/stats", tokenAlice, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var stats models.ReportStats
	dataAs(t, rec, &stats)
	if len(stats.Daily) != 7 {
		t.Fatalf("Daily has %d days, want 7", len(stats.Daily))
	}
	if first, last := stats.Daily[0].Date, stats.Daily[6].Date; first != "2026-01-04" || last != "2026-01-10" {
		t.Errorf("window = %s..%s, want 2026-01-04..2026-01-10", first, last)
	}
	for _, d := range stats.Daily {
		if d.Count != 0 {
			t.Errorf("counted %d on %s, want 0", d.Count, d.Date)
		}
	}
	if stats.Total != 1 {
		t.Errorf("Total = %d, want 1", stats.Total)
	}
}
