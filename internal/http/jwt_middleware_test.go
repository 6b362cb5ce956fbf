package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"kindred-match/internal/domain"
	"kindred-match/internal/service"
)

func protectedMatchesRouter(jwtSvc *service.JWTService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/matches/people", JWTAuthMiddleware(jwtSvc), func(c *gin.Context) {
		claims, ok := GetAuthClaims(c)
		if !ok {
			c.Status(http.StatusUnauthorized)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID})
	})
	return r
}

func TestJWTAuthMiddleware_AllowsValidAccessToken(t *testing.T) {
	jwtSvc := newTestJWTService()
	member := domain.User{ID: "member-ana", Email: "ana@kindred.club", DisplayName: "Ana", CreatedAt: time.Now().UTC()}
	pair, err := jwtSvc.GeneratePair(member)
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}

	r := protectedMatchesRouter(jwtSvc)
	req := httptest.NewRequest(http.MethodGet, "/matches/people", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestJWTAuthMiddleware_AcceptsLowercaseScheme(t *testing.T) {
	jwtSvc := newTestJWTService()
	member := domain.User{ID: "member-ana", Email: "ana@kindred.club", CreatedAt: time.Now().UTC()}
	pair, err := jwtSvc.GeneratePair(member)
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}

	r := protectedMatchesRouter(jwtSvc)
	req := httptest.NewRequest(http.MethodGet, "/matches/people", nil)
	req.Header.Set("Authorization", "bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with lowercase scheme, got %d", rec.Code)
	}
}

func TestJWTAuthMiddleware_RejectsMissingToken(t *testing.T) {
	r := protectedMatchesRouter(newTestJWTService())

	req := httptest.NewRequest(http.MethodGet, "/matches/people", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestJWTAuthMiddleware_RejectsRefreshTokenOnProtectedRoute(t *testing.T) {
	jwtSvc := newTestJWTService()
	member := domain.User{ID: "member-ana", Email: "ana@kindred.club", CreatedAt: time.Now().UTC()}
	pair, err := jwtSvc.GeneratePair(member)
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}

	r := protectedMatchesRouter(jwtSvc)
	req := httptest.NewRequest(http.MethodGet, "/matches/people", nil)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for refresh token on access route, got %d", rec.Code)
	}
}
