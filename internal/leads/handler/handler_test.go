package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dojoflow_backend/internal/leads/lifecycle"
	"dojoflow_backend/internal/leads/transport"
	"dojoflow_backend/platform/apperr"
	"dojoflow_backend/platform/httpkit"
	"dojoflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type fakeService struct {
	Service
	scope     lifecycle.Scope
	statusReq transport.ChangeStatusRequest
	lead      transport.LeadResponse
	err       error
}

func (f *fakeService) UpdateStatus(_ context.Context, scope lifecycle.Scope, _ uuid.UUID, req transport.ChangeStatusRequest) (transport.LeadResponse, error) {
	f.scope = scope
	f.statusReq = req
	return f.lead, f.err
}

func newRouter(svc Service, franchiseID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	val := validator.New()
	_ = val.RegisterValidation("lead_status", validator.OneOf("new", "contacted", "tour_booked"))

	r := gin.New()
	rg := r.Group("/leads", func(c *gin.Context) {
		c.Set(httpkit.ContextFranchiseIDKey, franchiseID)
		c.Set(httpkit.ContextFranchiseSlugKey, "downtown")
	})
	New(svc, val).RegisterRoutes(rg)
	return r
}

func patchStatus(r *gin.Engine, id, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPatch, "/leads/"+id+"/status", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUpdateStatusRendersSuccessEnvelope(t *testing.T) {
	franchiseID, leadID := uuid.New(), uuid.New()
	svc := &fakeService{lead: transport.LeadResponse{ID: leadID, FranchiseID: franchiseID, Status: "tour_booked"}}
	r := newRouter(svc, franchiseID)

	w := patchStatus(r, leadID.String(), `{"status":"tour_booked"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Success bool                   `json:"success"`
		Lead    transport.LeadResponse `json:"lead"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.Lead.ID != leadID || body.Lead.Status != "tour_booked" {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
	if svc.scope.FranchiseID != franchiseID || svc.scope.Slug != "downtown" || svc.statusReq.Status != "tour_booked" {
		t.Fatalf("service called with %+v %+v", svc.scope, svc.statusReq)
	}
}

func TestUpdateStatusErrors(t *testing.T) {
	cases := []struct {
		name     string
		id       string
		body     string
		err      error
		wantCode int
	}{
		{name: "bad id", id: "nope", body: `{"status":"new"}`, wantCode: http.StatusBadRequest},
		{name: "unknown status", id: uuid.NewString(), body: `{"status":"promoted"}`, wantCode: http.StatusBadRequest},
		{name: "missing lead", id: uuid.NewString(), body: `{"status":"new"}`, err: apperr.NotFound("Lead not found"), wantCode: http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter(&fakeService{err: tc.err}, uuid.New())
			w := patchStatus(r, tc.id, tc.body)
			if w.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d: %s", tc.wantCode, w.Code, w.Body.String())
			}
			if strings.Contains(w.Body.String(), `"success"`) {
				t.Fatalf("failures must not carry the success flag: %s", w.Body.String())
			}
		})
	}
}
