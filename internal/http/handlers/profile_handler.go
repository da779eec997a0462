// Profile HTTP handler.
//
//   - GET /me/credits  (the caller's research credit balance)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreditsResponse carries the caller's credit balance.
type CreditsResponse struct {
	Credits int `json:"credits"`
}

// MyCredits godoc
// @ID          myCredits
// @Summary     My credit balance
// @Description Returns the caller's research credit balance. A first-time caller sees zero; the profile row is created lazily.
// @Tags        Profile
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID"  example(user123)
//
// @Success     200  {object} handlers.CreditsResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /me/credits [get]
func (h *Handlers) MyCredits(c *gin.Context) {
	n, err := h.svc.Profiles.Credits(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, CreditsResponse{Credits: n})
}
