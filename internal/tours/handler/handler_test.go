package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dojoflow_backend/internal/tours/transport"
	"dojoflow_backend/platform/apperr"
	"dojoflow_backend/platform/httpkit"
	"dojoflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type fakeService struct {
	Service
	slug    string
	booked  transport.BookTourResponse
	updated transport.TourResponse
	err     error
}

func (f *fakeService) BookTour(_ context.Context, slug string, _ transport.BookTourRequest) (transport.BookTourResponse, error) {
	f.slug = slug
	return f.booked, f.err
}

func (f *fakeService) UpdateTourStatus(_ context.Context, _ uuid.UUID, slug string, _ uuid.UUID, _ transport.UpdateTourStatusRequest) (transport.TourResponse, error) {
	f.slug = slug
	return f.updated, f.err
}

func newRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	rg := r.Group("/tours", func(c *gin.Context) {
		c.Set(httpkit.ContextFranchiseIDKey, uuid.New())
		c.Set(httpkit.ContextFranchiseSlugKey, "downtown")
	})
	New(svc, validator.New()).RegisterRoutes(rg)
	return r
}

func send(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const bookBody = `{"leadId":"9a1f6a3e-43a5-4c44-9a1b-0f7e5a8d9c11","scheduledAt":"2026-06-01T15:00:00Z"}`

func TestBookRendersSuccessEnvelope(t *testing.T) {
	tourID, leadID := uuid.New(), uuid.New()
	svc := &fakeService{booked: transport.BookTourResponse{
		Tour:        transport.TourResponse{ID: tourID, LeadID: leadID, Status: "scheduled", ScheduledAt: time.Date(2026, 6, 1, 15, 0, 0, 0, time.UTC)},
		LeadID:      leadID,
		LeadCreated: true,
	}}

	w := send(newRouter(svc), http.MethodPost, "/tours", bookBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Success     bool                   `json:"success"`
		Tour        transport.TourResponse `json:"tour"`
		LeadID      uuid.UUID              `json:"leadId"`
		LeadCreated bool                   `json:"leadCreated"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.Tour.ID != tourID || body.LeadID != leadID || !body.LeadCreated {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
	if svc.slug != "downtown" {
		t.Fatalf("expected franchise slug to reach the service, got %q", svc.slug)
	}
}

func TestBookFailures(t *testing.T) {
	tourID, leadID := uuid.New(), uuid.New()
	partial := apperr.Wrap(apperr.KindPartial, "Tour booked, but failed to update lead status.", errors.New("db down")).
		WithDetails(transport.PartialBookingDetails{TourID: tourID, LeadID: leadID})

	cases := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantText string
	}{
		{name: "missing time", body: `{"leadId":"9a1f6a3e-43a5-4c44-9a1b-0f7e5a8d9c11"}`, wantCode: http.StatusBadRequest, wantText: "validation failed"},
		{name: "closed day", body: bookBody, err: apperr.Validation("We are closed on Sun."), wantCode: http.StatusBadRequest, wantText: "closed on Sun"},
		{name: "partial", body: bookBody, err: partial, wantCode: http.StatusMultiStatus, wantText: tourID.String()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := send(newRouter(&fakeService{err: tc.err}), http.MethodPost, "/tours", tc.body)
			if w.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d: %s", tc.wantCode, w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tc.wantText) || strings.Contains(w.Body.String(), `"success"`) {
				t.Fatalf("unexpected body %s", w.Body.String())
			}
		})
	}
}

func TestUpdateStatusRendersSuccessEnvelope(t *testing.T) {
	tourID := uuid.New()
	svc := &fakeService{updated: transport.TourResponse{ID: tourID, Status: "completed"}}

	w := send(newRouter(svc), http.MethodPatch, "/tours/"+tourID.String()+"/status", `{"status":"completed"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Success bool                   `json:"success"`
		Tour    transport.TourResponse `json:"tour"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.Tour.ID != tourID || body.Tour.Status != "completed" {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}
