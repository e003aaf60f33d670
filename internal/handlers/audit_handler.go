package handler

import (
	"net/http"

	"medbill-backend/internal/services/documents"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	service *documents.Service
}

func NewAuditHandler(s *documents.Service) *AuditHandler {
	return &AuditHandler{service: s}
}

func (h *AuditHandler) List(c *gin.Context) {
	entries, err := h.service.AuditLogs(c.Request.Context(), c.Query("serialNo"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entries})
}
