package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/plagiafix/plagiafix/internal/services"
	"github.com/plagiafix/plagiafix/internal/utils"
)

type CreditHandler struct {
	svc services.CreditService
}

func NewCreditHandler(svc services.CreditService) *CreditHandler {
	return &CreditHandler{svc: svc}
}

type PurchaseRequest struct {
	Provider  string `json:"provider" binding:"required"` // paystack|bitcoin
	Reference string `json:"reference" binding:"required"`
}

func (h *CreditHandler) Purchase(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "CreditHandler.Purchase", "invalid request body", err))
		return
	}

	balance, credited, err := h.svc.Purchase(c.Request.Context(), userID, req.Provider, req.Reference)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance, "credited": credited})
}

func (h *CreditHandler) Balance(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	balance, err := h.svc.Balance(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

func (h *CreditHandler) History(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	rows, err := h.svc.History(c.Request.Context(), userID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": rows})
}
