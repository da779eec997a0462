// Research wizard HTTP handlers.
//
//   - GET  /research/catalog  (sectors, regions/cities, budget bands)
//   - POST /research          (credit-gated market-research run)
//
// The run endpoint is where credits are spent: an invalid selection or an
// empty balance never reaches the assistant backend, and the 402 response
// carries the upsell hint the client renders.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xandme/xandme-backend/internal/domain"
	"github.com/xandme/xandme-backend/internal/services"
)

// RunResearchRequest is the completed wizard selection.
type RunResearchRequest struct {
	Sector       string `json:"sector" binding:"required" example:"Restauration"`
	Subsector    string `json:"subsector" example:"Restauration rapide"`
	Region       string `json:"region" binding:"required" example:"Auvergne-Rhône-Alpes"`
	City         string `json:"city" binding:"required" example:"Lyon"`
	Budget       string `json:"budget" binding:"required" example:"10 000 € – 50 000 €"`
	DocumentPath string `json:"document_path" example:"u1/5f3a.../business-plan.pdf"`
}

// RunResearchResponse returns the chat holding the research exchange.
type RunResearchResponse struct {
	Chat    *domain.Chat    `json:"chat"`
	Message *domain.Message `json:"message"`
}

// ResearchCatalog godoc
// @ID          researchCatalog
// @Summary     Research wizard catalogs
// @Description Returns the sector tree, the region→cities map, and the budget bands the wizard validates against.
// @Tags        Research
// @Produce     json
//
// @Success     200  {object} services.WizardCatalog
// @Router      /research/catalog [get]
func (h *Handlers) ResearchCatalog(c *gin.Context) {
	ok(c, http.StatusOK, services.Catalog())
}

// RunResearch godoc
// @ID          runResearch
// @Summary     Run a market research
// @Description Validates the wizard selection, debits one credit, relays the research request to the assistant backend, and returns the resulting market-research chat. A failed relay refunds the credit.
// @Tags        Research
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID"  example(user123)
// @Param       body       body    handlers.RunResearchRequest  true  "Completed wizard selection"
//
// @Success     201  {object} handlers.RunResearchResponse
// @Failure     400  {object} handlers.ErrorResponse "Invalid selection"
// @Failure     402  {object} handlers.ErrorResponse "No credits left"
// @Failure     502  {object} handlers.ErrorResponse "Assistant backend unavailable"
// @Router      /research [post]
func (h *Handlers) RunResearch(c *gin.Context) {
	var req RunResearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "sector, region, city and budget are required")
		return
	}

	chat, msg, err := h.svc.Wizard.Run(c.Request.Context(), userID(c), services.Selection{
		Sector:       req.Sector,
		Subsector:    req.Subsector,
		Region:       req.Region,
		City:         req.City,
		Budget:       req.Budget,
		DocumentPath: req.DocumentPath,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidSelection):
			fail(c, http.StatusBadRequest, ErrCodeValidationFailed, "selection does not match the catalogs")
		case errors.Is(err, services.ErrInsufficientCredits):
			fail(c, http.StatusPaymentRequired, ErrCodePaymentRequired, "no credits left, purchase a credit to run a research")
		case errors.Is(err, services.ErrAssistantFailed):
			fail(c, http.StatusBadGateway, ErrCodeAnswerFailed, "assistant backend unavailable, credit refunded")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, RunResearchResponse{Chat: chat, Message: msg})
}
