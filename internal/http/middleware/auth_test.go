package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func authRouter(secret string, requireAuth bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(secret))
	handlers := []gin.HandlerFunc{}
	if requireAuth {
		handlers = append(handlers, RequireAuth())
	}
	handlers = append(handlers, func(c *gin.Context) {
		uid, _ := c.Get(ctxKeyUserID)
		s, _ := uid.(string)
		c.String(http.StatusOK, s)
	})
	r.GET("/whoami", handlers...)
	return r
}

func get(r *gin.Engine, bearer string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuth_ValidToken_SetsUserID(t *testing.T) {
	r := authRouter("s3cret", false)

	w := get(r, "Bearer "+signToken(t, "s3cret", jwt.MapClaims{"user_id": "u42"}))
	if w.Code != http.StatusOK || w.Body.String() != "u42" {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}

	// sub is the fallback subject claim
	w = get(r, "Bearer "+signToken(t, "s3cret", jwt.MapClaims{"sub": "u43"}))
	if w.Code != http.StatusOK || w.Body.String() != "u43" {
		t.Fatalf("sub fallback: %d %q", w.Code, w.Body.String())
	}
}

func TestAuth_RejectsBadTokens(t *testing.T) {
	r := authRouter("s3cret", false)

	cases := []struct {
		name   string
		bearer string
	}{
		{"not a bearer", "Basic dXNlcjpwdw=="},
		{"wrong key", "Bearer " + signToken(t, "other", jwt.MapClaims{"user_id": "u1"})},
		{"garbage", "Bearer not.a.jwt"},
		{"no subject", "Bearer " + signToken(t, "s3cret", jwt.MapClaims{"foo": "bar"})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := get(r, tc.bearer); w.Code != http.StatusUnauthorized {
				t.Fatalf("got %d, want 401", w.Code)
			}
		})
	}
}

func TestAuth_MissingHeaderPassesThrough(t *testing.T) {
	// Without RequireAuth an anonymous request reaches the handler.
	r := authRouter("s3cret", false)
	if w := get(r, ""); w.Code != http.StatusOK || w.Body.String() != "" {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}

	// With RequireAuth the same request is refused.
	r = authRouter("s3cret", true)
	if w := get(r, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", w.Code)
	}
}

func TestAuth_EmptySecretIsNoop(t *testing.T) {
	r := authRouter("", false)
	// Even a garbage header goes through untouched.
	if w := get(r, "Bearer whatever"); w.Code != http.StatusOK || w.Body.String() != "" {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}
}
