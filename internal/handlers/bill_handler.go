package handler

import (
	"net/http"

	"medbill-backend/internal/models"
	"medbill-backend/internal/services/documents"

	"github.com/gin-gonic/gin"
)

type BillHandler struct {
	service *documents.Service
}

func NewBillHandler(s *documents.Service) *BillHandler {
	return &BillHandler{service: s}
}

func (h *BillHandler) NextSerial(c *gin.Context) {
	serialNo, err := h.service.NextSerial(c.Request.Context(), models.KindBill)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"serialNo": serialNo})
}

func (h *BillHandler) Create(c *gin.Context) {
	var req documents.CreateRequest
	if !bindAndValidate(c, &req) {
		return
	}
	res, err := h.service.CreateBill(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *BillHandler) List(c *gin.Context) {
	page, err := h.service.ListBills(c.Request.Context(), c.Query("cursor"), queryLimit(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *BillHandler) Search(c *gin.Context) {
	bills, err := h.service.SearchBills(c.Request.Context(), c.Query("serialNo"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bills": bills})
}

func (h *BillHandler) Monthly(c *gin.Context) {
	report, err := h.service.MonthlyBills(c.Request.Context(), c.Query("month"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// BySerial returns the bill in the shape used to prefill the billing form.
func (h *BillHandler) BySerial(c *gin.Context) {
	fill, err := h.service.BillAutofill(c.Request.Context(), serialParam(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, fill)
}

func (h *BillHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	bill, err := h.service.GetBill(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func (h *BillHandler) Verify(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	v, err := h.service.VerifyBill(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *BillHandler) PDF(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	doc, err := h.service.BillPDF(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	sendPDF(c, doc.Filename, doc.Content)
}

func (h *BillHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteBill(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "bill deleted"})
}
