package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/coursehub-api/pkg/response"
)

type receiptOpener interface {
	Open(ctx context.Context, token string) (string, []byte, error)
}

// ReceiptHandler serves stored PDF receipts behind signed links.
type ReceiptHandler struct {
	receipts receiptOpener
}

// NewReceiptHandler constructs a ReceiptHandler.
func NewReceiptHandler(receipts receiptOpener) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts}
}

// Download godoc
// @Summary Download a payment receipt
// @Tags Receipts
// @Produce application/pdf
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /receipts/download [get]
func (h *ReceiptHandler) Download(c *gin.Context) {
	filename, data, err := h.receipts.Open(c.Request.Context(), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "private, no-store")
	c.Data(http.StatusOK, "application/pdf", data)
}
