package handler

import (
	"net/http"

	"medbill-backend/internal/models"
	"medbill-backend/internal/services/documents"

	"github.com/gin-gonic/gin"
)

type QuotationHandler struct {
	service *documents.Service
}

func NewQuotationHandler(s *documents.Service) *QuotationHandler {
	return &QuotationHandler{service: s}
}

func (h *QuotationHandler) NextSerial(c *gin.Context) {
	serialNo, err := h.service.NextSerial(c.Request.Context(), models.KindQuotation)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"serialNo": serialNo})
}

func (h *QuotationHandler) Create(c *gin.Context) {
	var req documents.CreateRequest
	if !bindAndValidate(c, &req) {
		return
	}
	res, err := h.service.CreateQuotation(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *QuotationHandler) List(c *gin.Context) {
	page, err := h.service.ListQuotations(c.Request.Context(), c.Query("cursor"), queryLimit(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *QuotationHandler) BySerial(c *gin.Context) {
	fill, err := h.service.QuotationAutofill(c.Request.Context(), serialParam(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, fill)
}

func (h *QuotationHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	q, err := h.service.GetQuotation(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *QuotationHandler) Verify(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	v, err := h.service.VerifyQuotation(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *QuotationHandler) PDF(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	doc, err := h.service.QuotationPDF(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	sendPDF(c, doc.Filename, doc.Content)
}

func (h *QuotationHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteQuotation(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "quotation deleted"})
}
