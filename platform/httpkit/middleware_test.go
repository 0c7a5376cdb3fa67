package httpkit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dojoflow_backend/platform/apperr"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type testJWTConfig struct{}

func (testJWTConfig) GetJWTAccessSecret() string { return "test-secret" }

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newScopedEngine(franchiseID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	resolver := func(_ context.Context, slug string) (uuid.UUID, error) {
		if slug != "downtown" {
			return uuid.UUID{}, apperr.NotFound("Franchise not found")
		}
		return franchiseID, nil
	}
	group := engine.Group("/franchises/:slug", AuthRequired(testJWTConfig{}), RequireFranchise(resolver))
	group.GET("/ping", func(c *gin.Context) {
		id, slug, _ := Franchise(c)
		c.JSON(http.StatusOK, gin.H{"franchiseId": id.String(), "slug": slug, "viewAs": ViewAs(c)})
	})
	group.POST("/admin-only", RequireAnyRole("owner"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return engine
}

func doRequest(engine *gin.Engine, method, path, token string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequiredRejectsMissingAndRefreshTokens(t *testing.T) {
	engine := newScopedEngine(uuid.New())

	if rec := doRequest(engine, http.MethodGet, "/franchises/downtown/ping", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	refresh := signToken(t, jwt.MapClaims{"sub": uuid.NewString(), "type": "refresh", "exp": time.Now().Add(time.Hour).Unix()})
	if rec := doRequest(engine, http.MethodGet, "/franchises/downtown/ping", refresh, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for refresh token, got %d", rec.Code)
	}
}

func TestRequireFranchiseScopesTenant(t *testing.T) {
	franchiseID := uuid.New()
	engine := newScopedEngine(franchiseID)

	own := signToken(t, jwt.MapClaims{
		"sub": uuid.NewString(), "type": "access", "tenant_id": franchiseID.String(),
		"roles": []string{"staff"}, "exp": time.Now().Add(time.Hour).Unix(),
	})
	rec := doRequest(engine, http.MethodGet, "/franchises/downtown/ping", own, map[string]string{ViewAsHeader: "instructor"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for own franchise, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["franchiseId"] != franchiseID.String() || body["viewAs"] != "instructor" {
		t.Fatalf("unexpected body %v", body)
	}

	other := signToken(t, jwt.MapClaims{
		"sub": uuid.NewString(), "type": "access", "tenant_id": uuid.NewString(),
		"roles": []string{"owner"}, "exp": time.Now().Add(time.Hour).Unix(),
	})
	if rec := doRequest(engine, http.MethodGet, "/franchises/downtown/ping", other, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign franchise, got %d", rec.Code)
	}

	admin := signToken(t, jwt.MapClaims{
		"sub": uuid.NewString(), "type": "access", "roles": []string{"admin"}, "exp": time.Now().Add(time.Hour).Unix(),
	})
	if rec := doRequest(engine, http.MethodGet, "/franchises/downtown/ping", admin, nil); rec.Code != http.StatusOK {
		t.Fatalf("expected admin to pass, got %d", rec.Code)
	}
	if rec := doRequest(engine, http.MethodGet, "/franchises/uptown/ping", admin, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown slug, got %d", rec.Code)
	}
}

func TestViewAsDoesNotGrantRoles(t *testing.T) {
	franchiseID := uuid.New()
	engine := newScopedEngine(franchiseID)

	staff := signToken(t, jwt.MapClaims{
		"sub": uuid.NewString(), "type": "access", "tenant_id": franchiseID.String(),
		"roles": []string{"staff"}, "exp": time.Now().Add(time.Hour).Unix(),
	})
	rec := doRequest(engine, http.MethodPost, "/franchises/downtown/admin-only", staff, map[string]string{ViewAsHeader: "owner"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected view-as header to be ignored for authorization, got %d", rec.Code)
	}
}

func TestHandleErrorMapsKinds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err  error
		want int
	}{
		{apperr.NotFound("missing"), http.StatusNotFound},
		{apperr.Validation("bad"), http.StatusBadRequest},
		{apperr.Partial("half"), http.StatusMultiStatus},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		if !HandleError(c, tc.err) {
			t.Fatal("expected error to be handled")
		}
		if rec.Code != tc.want {
			t.Fatalf("error %v: expected %d, got %d", tc.err, tc.want, rec.Code)
		}
	}
}
