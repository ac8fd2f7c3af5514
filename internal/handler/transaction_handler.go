package handler

import (
	"errors"
	"net/http"

	"github.com/blues/fundraiser/internal/logic"
	"github.com/blues/fundraiser/internal/pubkey"
	"github.com/blues/fundraiser/internal/runtime"
	"github.com/gin-gonic/gin"
)

// TransactionHandler 交易与账户处理器
type TransactionHandler struct {
	txLogic *logic.TransactionLogic
}

// NewTransactionHandler 创建交易处理器
func NewTransactionHandler(rt *runtime.Runtime) *TransactionHandler {
	return &TransactionHandler{
		txLogic: logic.NewTransactionLogic(rt),
	}
}

// SubmitTransaction 提交已签名交易
func (h *TransactionHandler) SubmitTransaction(c *gin.Context) {
	var tx runtime.Transaction
	if err := c.ShouldBindJSON(&tx); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid transaction: "+err.Error())
		return
	}

	receipt, err := h.txLogic.Submit(c.Request.Context(), &tx)
	resp := ReceiptResponse{
		ID:        receipt.ID,
		Opcode:    receipt.Opcode.String(),
		Success:   receipt.Success,
		ErrorKind: receipt.Kind,
		Timestamp: receipt.Timestamp,
	}
	if err != nil {
		resp.Error = err.Error()
		InvocationErrorResponse(c, receipt.Kind, resp.Error, &resp)
		return
	}
	SuccessResponse(c, http.StatusOK, "transaction committed", resp)
}

// GetAccount 查询账户
func (h *TransactionHandler) GetAccount(c *gin.Context) {
	addr, err := pubkey.Parse(c.Param("address"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的地址")
		return
	}

	view, err := h.txLogic.GetAccount(addr)
	if err != nil {
		if errors.Is(err, logic.ErrAccountNotFound) {
			ErrorResponse(c, http.StatusNotFound, err.Error())
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	acc := view.Account
	SuccessResponse(c, http.StatusOK, "ok", AccountResponse{
		Address:    acc.Address.String(),
		Lamports:   acc.Lamports,
		Owner:      acc.Owner.String(),
		Executable: acc.Executable,
		Data:       acc.Data,
		Kind:       view.Kind,
		Decoded:    view.Decoded,
	})
}
