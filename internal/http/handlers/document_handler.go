// Document upload HTTP handlers.
//
//   - POST /documents  (auth, multipart; PDF/DOCX/plain text up to 20 MiB)
//   - GET  /documents  (the caller's uploads)
//
// The optional country block-list is checked against the CF-IPCountry header
// set by the edge.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xandme/xandme-backend/internal/domain"
	"github.com/xandme/xandme-backend/internal/services"
)

// geoCountryHeader is the edge geolocation header carrying the caller's
// ISO country code.
const geoCountryHeader = "CF-IPCountry"

// UploadDocument godoc
// @ID          uploadDocument
// @Summary     Upload a document
// @Description Accepts one multipart file field named "file". Allowed types: PDF, DOCX, plain text; at most 20 MiB.
// @Tags        Documents
// @Accept      multipart/form-data
// @Produce     json
//
// @Param       X-User-ID  header    string  true  "User ID"  example(user123)
// @Param       file       formData  file    true  "Document to upload"
//
// @Success     201  {object} domain.Document
// @Failure     400  {object} handlers.ErrorResponse "Missing or rejected file"
// @Failure     403  {object} handlers.ErrorResponse "Uploads refused from this country"
// @Failure     413  {object} handlers.ErrorResponse "File too large"
// @Failure     503  {object} handlers.ErrorResponse "Storage not configured"
// @Router      /documents [post]
func (h *Handlers) UploadDocument(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, `multipart field "file" required`)
		return
	}

	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable file")
		return
	}
	defer f.Close()

	doc, err := h.svc.Uploads.Accept(
		c.Request.Context(),
		userID(c),
		fh.Filename,
		fh.Header.Get("Content-Type"),
		c.GetHeader(geoCountryHeader),
		fh.Size,
		f,
	)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnsupportedFileType):
			fail(c, http.StatusBadRequest, ErrCodeUploadRejected, "only PDF, DOCX and plain text are accepted")
		case errors.Is(err, services.ErrFileTooLarge):
			fail(c, http.StatusRequestEntityTooLarge, ErrCodeUploadRejected, "file exceeds the 20 MiB limit")
		case errors.Is(err, services.ErrCountryBlocked):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "uploads are not accepted from this country")
		case errors.Is(err, services.ErrNotConfigured):
			fail(c, http.StatusServiceUnavailable, ErrCodeNotConfigured, "document storage is not configured")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not store document")
		}
		return
	}
	ok(c, http.StatusCreated, doc)
}

// ListDocuments godoc
// @ID          listDocuments
// @Summary     List my documents
// @Tags        Documents
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID"  example(user123)
//
// @Success     200  {array}  domain.Document
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /documents [get]
func (h *Handlers) ListDocuments(c *gin.Context) {
	out, err := h.svc.Uploads.List(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if out == nil {
		out = []domain.Document{}
	}
	ok(c, http.StatusOK, out)
}
