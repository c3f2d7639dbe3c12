package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nina-protocol/nina-indexer-sub000/internal/events"
	"github.com/nina-protocol/nina-indexer-sub000/internal/logic"
	"gorm.io/gorm"
)

type TransactionHandler struct {
	transactionLogic *logic.TransactionLogic
	coordinator      *events.Coordinator
}

func NewTransactionHandler(db *gorm.DB, coordinator *events.Coordinator) *TransactionHandler {
	return &TransactionHandler{
		transactionLogic: logic.NewTransactionLogic(db),
		coordinator:      coordinator,
	}
}

// GetTransactions returns the indexed transaction feed, newest first.
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	page, pageSize := parsePagination(c, 20)

	transactions, total, err := h.transactionLogic.GetTransactions(page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"pagination":   NewPagination(page, pageSize, total),
	})
}

// ProcessTransaction runs the full ingest path for a single signature on
// demand, without waiting for the next scheduled sync.
func (h *TransactionHandler) ProcessTransaction(c *gin.Context) {
	signature := c.Param("signature")
	if signature == "" {
		ErrorResponse(c, http.StatusBadRequest, "transaction signature is required")
		return
	}

	processed, err := h.coordinator.ProcessSignature(c.Request.Context(), signature)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "transaction processed", gin.H{
		"signature": signature,
		"indexed":   processed,
	})
}
