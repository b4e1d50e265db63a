package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ledger-api/internal/repository"
	"ledger-api/internal/service"
)

type LedgerController struct {
	ledger service.LedgerService
	logger *logrus.Logger
}

func NewLedgerController(ledger service.LedgerService, logger *logrus.Logger) *LedgerController {
	return &LedgerController{
		ledger: ledger,
		logger: logger,
	}
}

// GetTransaction returns a single transaction by its id.
// @Summary Get a transaction
// @Tags ledger
// @Produce json
// @Param transactionId path string true "Transaction ID"
// @Success 200 {object} models.Transaction
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/ledger/transactions/{transactionId} [get]
func (ctrl *LedgerController) GetTransaction(c *gin.Context) {
	transactionID := c.Param("transactionId")

	transaction, err := ctrl.ledger.GetTransaction(c.Request.Context(), transactionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "transaction not found", Code: "not_found"})
			return
		}
		ctrl.logger.WithError(err).WithField("transaction_id", transactionID).Error("Failed to load transaction")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "internal_error"})
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// GetUserTransactions returns a page of a user's transactions, newest
// first.
// @Summary List a user's transactions
// @Tags ledger
// @Produce json
// @Param userId path string true "User ID"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} models.Transaction
// @Security BearerAuth
// @Router /api/ledger/users/{userId}/transactions [get]
func (ctrl *LedgerController) GetUserTransactions(c *gin.Context) {
	userID := c.Param("userId")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	transactions, err := ctrl.ledger.GetUserTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		ctrl.logger.WithError(err).WithField("user_id", userID).Error("Failed to list transactions")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"limit":        limit,
		"offset":       offset,
	})
}

// GetWallet returns a user's wallet.
// @Summary Get a user's wallet
// @Tags ledger
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} models.Wallet
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/ledger/wallets/{userId} [get]
func (ctrl *LedgerController) GetWallet(c *gin.Context) {
	userID := c.Param("userId")

	wallet, err := ctrl.ledger.GetWallet(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "wallet not found", Code: "not_found"})
			return
		}
		ctrl.logger.WithError(err).WithField("user_id", userID).Error("Failed to load wallet")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "internal_error"})
		return
	}

	c.JSON(http.StatusOK, wallet)
}

// GetAuditLogs returns the audit records for a transaction.
// @Summary Get a transaction's audit trail
// @Tags ledger
// @Produce json
// @Param transactionId path string true "Transaction ID"
// @Success 200 {array} models.AuditLog
// @Security BearerAuth
// @Router /api/ledger/transactions/{transactionId}/audit [get]
func (ctrl *LedgerController) GetAuditLogs(c *gin.Context) {
	transactionID := c.Param("transactionId")

	logs, err := ctrl.ledger.GetAuditLogs(c.Request.Context(), transactionID)
	if err != nil {
		ctrl.logger.WithError(err).WithField("transaction_id", transactionID).Error("Failed to load audit logs")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"audit_logs": logs})
}
