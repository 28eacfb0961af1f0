package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"library-backend/internal/domains/loan/model"
	"library-backend/internal/domains/loan/service"
	titleModel "library-backend/internal/domains/title/model"
	"library-backend/internal/shared"
	"library-backend/internal/shared/response"
	"library-backend/pkg/logger"
)

type Handler struct {
	ledger service.ServiceInterface
}

func NewHandler(ledger service.ServiceInterface) *Handler {
	return &Handler{ledger: ledger}
}

// identity returns the caller set by the auth middleware, or the zero identity
// which the ledger rejects as unauthorized
func identity(c *gin.Context) shared.Identity {
	id, _ := shared.IdentityFrom(c.Request.Context())
	return id
}

// Borrow - POST /api/v1/loans/borrow
func (h *Handler) Borrow(c *gin.Context) {
	var req model.BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeValidation, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}

	res, err := h.ledger.Borrow(c.Request.Context(), identity(c), req.ParsedTitleID())
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, res)
}

// Return - PUT /api/v1/loans/:id/return
func (h *Handler) Return(c *gin.Context) {
	loanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeValidation, "Invalid loan ID")
		return
	}

	res, err := h.ledger.Return(c.Request.Context(), identity(c), loanID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res)
}

// MyLoans - GET /api/v1/loans/my
func (h *Handler) MyLoans(c *gin.Context) {
	views, err := h.ledger.ListMyLoans(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, views)
}

// TitleLoans - GET /api/v1/admin/titles/:id/loans
func (h *Handler) TitleLoans(c *gin.Context) {
	titleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeValidation, "Invalid title ID")
		return
	}

	loans, err := h.ledger.ListTitleLoans(c.Request.Context(), titleID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, loans, &response.Meta{Total: len(loans)})
}

func mapLoanError(err error) (int, string, string) {
	switch {
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusUnauthorized, model.ErrCodeUnauthorized, "Unauthorized"
	case errors.Is(err, model.ErrDuplicateActiveLoan):
		return http.StatusConflict, model.ErrCodeDuplicate, "You already borrowed this book"
	case errors.Is(err, titleModel.ErrInventoryExhausted):
		return http.StatusConflict, model.ErrCodeExhausted, "No copies available"
	case errors.Is(err, model.ErrActiveLoanNotFound):
		return http.StatusNotFound, model.ErrCodeLoanNotFound, "Active loan not found"
	case errors.Is(err, titleModel.ErrTitleNotFound):
		return http.StatusNotFound, model.ErrCodeTitleNotFound, "Book not found"
	default:
		return http.StatusInternalServerError, model.ErrCodeStore, "Internal server error"
	}
}

func respondError(c *gin.Context, err error) {
	status, code, message := mapLoanError(err)
	if status == http.StatusInternalServerError {
		logger.ErrorWithFields("loan request failed", err, map[string]interface{}{
			"path":       c.Request.URL.Path,
			"request_id": c.GetString("request_id"),
		})
	}
	response.ErrorResponse(c, status, code, message)
}
