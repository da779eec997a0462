// Expert directory HTTP handlers.
//
// This file exposes the public expert directory:
//   - GET /experts            (free-text search with filters, relevance-ranked)
//   - GET /experts/facets     (country→cities map and activity labels)
//   - GET /experts/{idExpert} (full profile with normalized service offers)
//
// Directory reads are unauthenticated; the handlers only shape query
// parameters and map service errors to the envelope.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xandme/xandme-backend/internal/domain"
	"github.com/xandme/xandme-backend/internal/services"
)

// ListExpertsResponse wraps a directory search result.
type ListExpertsResponse struct {
	Experts []domain.Expert `json:"experts"`
	Count   int             `json:"count"`
}

// ListExperts godoc
// @ID          listExperts
// @Summary     Search the expert directory
// @Description Free-text search ranked by relevance. Terms OR together; the ville and categorie filters AND with the text match. An empty result is a valid answer.
// @Tags        Experts
// @Produce     json
//
// @Param       q          query  string  false "Free-text query (whitespace-separated terms)"  example(comptable lyon)
// @Param       ville      query  string  false "Exact city filter"                             example(Lyon)
// @Param       categorie  query  string  false "Activity / expertise category filter"          example(Comptabilité)
//
// @Success     200  {object} handlers.ListExpertsResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /experts [get]
func (h *Handlers) ListExperts(c *gin.Context) {
	experts, err := h.svc.Directory.Search(
		c.Request.Context(),
		strings.TrimSpace(c.Query("q")),
		strings.TrimSpace(c.Query("ville")),
		strings.TrimSpace(c.Query("categorie")),
	)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if experts == nil {
		experts = []domain.Expert{}
	}
	ok(c, http.StatusOK, ListExpertsResponse{Experts: experts, Count: len(experts)})
}

// ExpertFacets godoc
// @ID          expertFacets
// @Summary     Directory facets
// @Description Returns the country→cities map and activity labels derived from the current directory.
// @Tags        Experts
// @Produce     json
//
// @Success     200  {object} search.Facets
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /experts/facets [get]
func (h *Handlers) ExpertFacets(c *gin.Context) {
	f, err := h.svc.Directory.Facets(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, f)
}

// GetExpert godoc
// @ID          getExpert
// @Summary     Expert profile
// @Description Returns the full expert profile for a public id or profile slug, with the service catalog normalized into its canonical shape.
// @Tags        Experts
// @Produce     json
//
// @Param       idExpert  path  string  true  "Expert public id or slug"  example(claire-durand-ex42)
//
// @Success     200  {object} services.ExpertProfile
// @Failure     404  {object} handlers.ErrorResponse "Expert not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /experts/{idExpert} [get]
func (h *Handlers) GetExpert(c *gin.Context) {
	ref := c.Param("idExpert")
	// Gin's router cannot mount a static /experts/facets next to the
	// :idExpert wildcard, so the facets path is dispatched here.
	if ref == "facets" {
		h.ExpertFacets(c)
		return
	}
	p, err := h.svc.Directory.Profile(c.Request.Context(), ref)
	if err != nil {
		if errors.Is(err, services.ErrExpertNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "expert not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, p)
}
