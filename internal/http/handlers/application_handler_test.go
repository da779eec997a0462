package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/xandme/xandme-backend/internal/domain"
	"github.com/xandme/xandme-backend/internal/services"
)

func postApplication(h *Handlers, body string) *httptest.ResponseRecorder {
	r := gin.New()
	r.POST("/applications", h.SubmitApplication)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/applications", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestSubmitApplication_StoresNormalizedForm(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newChatDB(t)
	h := New(Services{Application: services.NewApplicationService(db)})

	w := postApplication(h, `{
		"prenom":"Claire","nom":"Durand","email":"claire@exemple.fr",
		"country_code":"+33","telephone":"06 12 34 56 78",
		"expertises":["Comptabilité"," Audit ",""],
		"ville":"Lyon","pays":"France"
	}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("submit -> %d body=%s", w.Code, w.Body.String())
	}
	var out SubmitApplicationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.ID == 0 {
		t.Fatalf("expected a stored id")
	}

	var app domain.ExpertApplication
	if err := db.First(&app, out.ID).Error; err != nil {
		t.Fatalf("load application: %v", err)
	}
	if app.Telephone != "+330612345678" {
		t.Fatalf("phone not normalized: %q", app.Telephone)
	}
	if app.Expertises != "Comptabilité; Audit" {
		t.Fatalf("expertises not cleaned: %q", app.Expertises)
	}
}

func TestSubmitApplication_Validation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newChatDB(t)
	h := New(Services{Application: services.NewApplicationService(db)})

	cases := []struct {
		name string
		body string
		code string
	}{
		{"binding", `{"prenom":"Claire"}`, ErrCodeBadRequest},
		{"bad email", `{"prenom":"Claire","nom":"Durand","email":"not-an-email","expertises":["Audit"]}`, ErrCodeValidationFailed},
		{"blank expertises", `{"prenom":"Claire","nom":"Durand","email":"c@d.fr","expertises":["  "]}`, ErrCodeValidationFailed},
		{"blank names", `{"prenom":"  ","nom":"  ","email":"c@d.fr","expertises":["Audit"]}`, ErrCodeValidationFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postApplication(h, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
			}
			var e ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
				t.Fatalf("json: %v", err)
			}
			if e.Code != tc.code {
				t.Fatalf("code=%q want %q", e.Code, tc.code)
			}
		})
	}
}
