package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pizzastore/apperr"
	"pizzastore/models"
	"pizzastore/policy"
)

type fakeSource map[string]models.UserRole

func (f fakeSource) Principal(_ context.Context, login string) (policy.Principal, error) {
	role, ok := f[login]
	if !ok {
		return policy.Principal{}, apperr.New(apperr.Unauthenticated, "fake", "account no longer exists")
	}
	return policy.Principal{Login: login, Role: role}, nil
}

func newRouter(tokens *Tokens, src PrincipalSource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	auth := r.Group("/", AuthRequired(tokens, src))
	auth.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"login": GetPrincipal(c).Login})
	})
	auth.GET("/menu-admin", RequirePermission(policy.UpdateMenu), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokens([]byte("secret"), time.Hour)
	tok, err := tokens.GenerateToken("alice")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := tokens.Parse(tok)
	if err != nil || claims.Login != "alice" {
		t.Fatalf("Parse = %+v, %v", claims, err)
	}
	if _, err := NewTokens([]byte("other"), time.Hour).Parse(tok); err == nil {
		t.Fatalf("token signed with another secret must fail")
	}
}

func TestExpiredToken(t *testing.T) {
	tokens := NewTokens([]byte("secret"), time.Minute)
	tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := tokens.GenerateToken("alice")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := NewTokens([]byte("secret"), time.Minute).Parse(tok); err == nil {
		t.Fatalf("expired token accepted")
	}
}

func TestAuthRequired(t *testing.T) {
	tokens := NewTokens([]byte("secret"), time.Hour)
	r := newRouter(tokens, fakeSource{"alice": models.RoleCustomer, "meg": models.RoleManager})
	alice, _ := tokens.GenerateToken("alice")
	meg, _ := tokens.GenerateToken("meg")
	ghost, _ := tokens.GenerateToken("ghost")

	cases := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"no header", "/me", "", http.StatusUnauthorized},
		{"garbage", "/me", "not-a-jwt", http.StatusUnauthorized},
		{"valid", "/me", alice, http.StatusOK},
		{"deleted account", "/me", ghost, http.StatusUnauthorized},
		{"customer on manager route", "/menu-admin", alice, http.StatusForbidden},
		{"manager on manager route", "/menu-admin", meg, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, tc.path, tc.token)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tc.want, w.Body.String())
			}
			if w.Header().Get(RequestIDHeader) == "" {
				t.Fatalf("missing request id header")
			}
		})
	}
}
