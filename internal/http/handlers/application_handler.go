// Expert application HTTP handler.
//
//   - POST /applications  (public, insert-only onboarding form)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xandme/xandme-backend/internal/services"
)

// SubmitApplicationRequest is the JSON payload of the onboarding form.
type SubmitApplicationRequest struct {
	Prenom      string   `json:"prenom" binding:"required" example:"Claire"`
	Nom         string   `json:"nom" binding:"required" example:"Durand"`
	Email       string   `json:"email" binding:"required" example:"claire@exemple.fr"`
	CountryCode string   `json:"country_code" example:"+33"`
	Telephone   string   `json:"telephone" example:"06 12 34 56 78"`
	Expertises  []string `json:"expertises" binding:"required" example:"Comptabilité,Audit"`
	Message     string   `json:"message" example:"10 ans d'expérience en cabinet"`
	Ville       string   `json:"ville" example:"Lyon"`
	Pays        string   `json:"pays" example:"France"`
}

// SubmitApplicationResponse acknowledges a stored application.
type SubmitApplicationResponse struct {
	ID int64 `json:"id"`
}

// SubmitApplication godoc
// @ID          submitApplication
// @Summary     Apply to become a listed expert
// @Description Validates and stores an onboarding application. Review happens out of band.
// @Tags        Applications
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.SubmitApplicationRequest  true  "Application payload"
//
// @Success     201  {object} handlers.SubmitApplicationResponse
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /applications [post]
func (h *Handlers) SubmitApplication(c *gin.Context) {
	var req SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "prenom, nom, email and expertises are required")
		return
	}

	app, err := h.svc.Application.Submit(c.Request.Context(), services.ApplicationInput{
		Prenom:      req.Prenom,
		Nom:         req.Nom,
		Email:       req.Email,
		CountryCode: req.CountryCode,
		Telephone:   req.Telephone,
		Expertises:  req.Expertises,
		Message:     req.Message,
		Ville:       req.Ville,
		Pays:        req.Pays,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields), errors.Is(err, services.ErrInvalidEmail):
			fail(c, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not store application")
		}
		return
	}
	ok(c, http.StatusCreated, SubmitApplicationResponse{ID: app.ID})
}
