package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/xandme/xandme-backend/internal/services"
)

func creditsRequest(h *Handlers, user string) *httptest.ResponseRecorder {
	r := gin.New()
	r.GET("/me/credits", h.MyCredits)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me/credits", nil)
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestMyCredits_LazyProfileStartsAtZero(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newChatDB(t)
	h := New(Services{Profiles: services.NewProfileService(db)})

	w := creditsRequest(h, "u-new")
	if w.Code != http.StatusOK {
		t.Fatalf("credits -> %d body=%s", w.Code, w.Body.String())
	}
	var out CreditsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.Credits != 0 {
		t.Fatalf("fresh profile should have 0 credits, got %d", out.Credits)
	}
}

func TestMyCredits_ReflectsGrantedBalance(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newChatDB(t)
	h := New(Services{Profiles: services.NewProfileService(db)})

	// First read creates the row, then a grant shows up on the next read.
	if w := creditsRequest(h, "u-buyer"); w.Code != http.StatusOK {
		t.Fatalf("bootstrap read -> %d", w.Code)
	}
	if err := db.Exec(`UPDATE profiles SET credits = 3 WHERE user_id = ?`, "u-buyer").Error; err != nil {
		t.Fatalf("grant: %v", err)
	}

	w := creditsRequest(h, "u-buyer")
	var out CreditsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.Credits != 3 {
		t.Fatalf("credits=%d want 3", out.Credits)
	}
}
