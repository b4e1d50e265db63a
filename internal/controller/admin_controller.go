package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ledger-api/internal/engine"
	"ledger-api/internal/service"
)

// UndoTransactionRequest is the admin reversal request body.
type UndoTransactionRequest struct {
	TransactionID string `json:"transaction_id" binding:"required,txid"`
	Reason        string `json:"reason" binding:"omitempty,max=500"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error        string   `json:"error"`
	Code         string   `json:"code,omitempty"`
	ActionsTaken []string `json:"actions_taken,omitempty"`
	Failures     []string `json:"failures,omitempty"`
}

type AdminController struct {
	admin  service.AdminService
	logger *logrus.Logger
}

func NewAdminController(admin service.AdminService, logger *logrus.Logger) *AdminController {
	return &AdminController{
		admin:  admin,
		logger: logger,
	}
}

// UndoTransaction reverses a committed transaction.
// @Summary Reverse a transaction
// @Description Applies compensating adjustments across all ledgers the transaction touched and records a compensating transaction
// @Tags admin
// @Accept json
// @Produce json
// @Param request body UndoTransactionRequest true "Reversal request"
// @Success 200 {object} engine.ReversalResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/ledger/admin/undo-transaction [post]
func (ctrl *AdminController) UndoTransaction(c *gin.Context) {
	var body UndoTransactionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_request"})
		return
	}

	reversedBy := c.GetString("user_id")
	if reversedBy == "" && c.GetBool("internal_service") {
		reversedBy = "internal-service"
	}

	request := &engine.ReversalRequest{
		TransactionID:  body.TransactionID,
		Reason:         body.Reason,
		ReversedBy:     reversedBy,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	}

	result, err := ctrl.admin.UndoTransaction(c.Request.Context(), request)
	if err != nil {
		ctrl.respondError(c, request.TransactionID, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (ctrl *AdminController) respondError(c *gin.Context, transactionID string, err error) {
	var validation *engine.ValidationError
	var partial *engine.PartialReversalError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: validation.Error(), Code: "validation_failed"})

	case errors.Is(err, engine.ErrTransactionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "transaction not found", Code: "not_found"})

	case errors.Is(err, engine.ErrAlreadyReversed):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "transaction already reversed", Code: "already_reversed"})

	case errors.Is(err, engine.ErrNotReversible):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "transaction is not reversible", Code: "not_reversible"})

	case errors.Is(err, engine.ErrReversalInProgress):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "reversal already in progress", Code: "reversal_in_progress"})

	case errors.As(err, &partial):
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:        "reversal partially applied",
			Code:         "partial_reversal",
			ActionsTaken: partial.ActionsTaken,
			Failures:     partial.Failures,
		})

	default:
		ctrl.logger.WithError(err).WithField("transaction_id", transactionID).
			Error("Reversal failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "internal_error"})
	}
}
