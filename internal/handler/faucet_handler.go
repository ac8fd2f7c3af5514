package handler

import (
	"net/http"

	"github.com/blues/fundraiser/internal/pubkey"
	"github.com/blues/fundraiser/internal/runtime"
	"github.com/gin-gonic/gin"
)

// FaucetHandler 开发网水龙头，仅在 debug 模式注册
type FaucetHandler struct {
	rt *runtime.Runtime
}

// NewFaucetHandler 创建水龙头处理器
func NewFaucetHandler(rt *runtime.Runtime) *FaucetHandler {
	return &FaucetHandler{rt: rt}
}

// AirdropRequest 空投请求
type AirdropRequest struct {
	Address  pubkey.Address `json:"address" binding:"required"`
	Lamports uint64         `json:"lamports" binding:"required,min=1"`
}

// MintRequest 代币发放请求，目标为 owner 的关联代币账户，不存在时先创建
type MintRequest struct {
	Mint   pubkey.Address `json:"mint" binding:"required"`
	Owner  pubkey.Address `json:"owner" binding:"required"`
	Amount uint64         `json:"amount" binding:"required,min=1"`
}

// CreateMintRequest 创建币种请求
type CreateMintRequest struct {
	Address   pubkey.Address `json:"address" binding:"required"`
	Authority pubkey.Address `json:"authority" binding:"required"`
	Decimals  uint8          `json:"decimals" binding:"max=19"`
}

// CreateMint 创建币种
func (h *FaucetHandler) CreateMint(c *gin.Context) {
	var req CreateMintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.rt.CreateMint(req.Address, req.Authority, req.Decimals); err != nil {
		ErrorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "mint created", gin.H{"mint": req.Address, "decimals": req.Decimals})
}

// Airdrop 发放 lamports
func (h *FaucetHandler) Airdrop(c *gin.Context) {
	var req AirdropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.rt.Airdrop(req.Address, req.Lamports); err != nil {
		ErrorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "airdropped", gin.H{"address": req.Address, "lamports": req.Lamports})
}

// MintTo 向 owner 的关联代币账户增发
func (h *FaucetHandler) MintTo(c *gin.Context) {
	var req MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	dest, err := h.rt.Token().AssociatedAddress(req.Owner, req.Mint)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if _, ok := h.rt.Bank().Get(dest); !ok {
		if _, err := h.rt.CreateTokenAccount(req.Owner, req.Mint); err != nil {
			ErrorResponse(c, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}
	if err := h.rt.MintTo(req.Mint, dest, req.Amount); err != nil {
		ErrorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "minted", gin.H{"tokenAccount": dest, "amount": req.Amount})
}
