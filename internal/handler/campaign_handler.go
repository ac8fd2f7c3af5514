package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/blues/fundraiser/internal/logic"
	"github.com/blues/fundraiser/internal/model"
	"github.com/blues/fundraiser/internal/pubkey"
	"github.com/blues/fundraiser/internal/runtime"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CampaignHandler 活动查询处理器
type CampaignHandler struct {
	campaignLogic *logic.CampaignLogic
	recordLogic   *logic.RecordLogic
	clock         runtime.Clock
}

// NewCampaignHandler 创建活动处理器
func NewCampaignHandler(db *gorm.DB, clock runtime.Clock) *CampaignHandler {
	return &CampaignHandler{
		campaignLogic: logic.NewCampaignLogic(db),
		recordLogic:   logic.NewRecordLogic(db),
		clock:         clock,
	}
}

// GetCampaigns 获取活动列表
func (h *CampaignHandler) GetCampaigns(c *gin.Context) {
	page, pageSize := pageParams(c)
	campaigns, total, err := h.campaignLogic.GetCampaigns(c.Query("status"), c.Query("maker"), page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	items := make([]CampaignResponse, 0, len(campaigns))
	for i := range campaigns {
		items = append(items, toCampaignResponse(&campaigns[i]))
	}
	SuccessResponse(c, http.StatusOK, "ok", PageResponse{
		Items:      items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetCampaign 获取活动详情
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	address, ok := addressParam(c)
	if !ok {
		return
	}
	campaign, err := h.campaignLogic.GetCampaign(address)
	if err != nil {
		h.lookupError(c, err)
		return
	}

	settlement, err := h.recordLogic.GetSettlement(address)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", gin.H{
		"campaign":   toCampaignResponse(campaign),
		"settlement": settlement,
	})
}

// GetCampaignStats 获取活动统计
func (h *CampaignHandler) GetCampaignStats(c *gin.Context) {
	address, ok := addressParam(c)
	if !ok {
		return
	}
	stats, err := h.campaignLogic.GetCampaignStats(address, h.clock.Now())
	if err != nil {
		h.lookupError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", stats)
}

// GetAllCampaignStats 获取全部活动汇总
func (h *CampaignHandler) GetAllCampaignStats(c *gin.Context) {
	stats, err := h.campaignLogic.GetAllCampaignStats()
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", stats)
}

// GetContributions 获取活动贡献记录
func (h *CampaignHandler) GetContributions(c *gin.Context) {
	address, ok := addressParam(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)
	records, total, err := h.recordLogic.GetContributions(address, page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", PageResponse{
		Items:      records,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetRefunds 获取活动退款记录
func (h *CampaignHandler) GetRefunds(c *gin.Context) {
	address, ok := addressParam(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)
	records, total, err := h.recordLogic.GetRefunds(address, page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", PageResponse{
		Items:      records,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetSettlement 获取活动结算记录
func (h *CampaignHandler) GetSettlement(c *gin.Context) {
	address, ok := addressParam(c)
	if !ok {
		return
	}
	record, err := h.recordLogic.GetSettlement(address)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	if record == nil {
		ErrorResponse(c, http.StatusNotFound, "活动尚未结算")
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", record)
}

// GetContributorRecords 获取出资者的贡献记录
func (h *CampaignHandler) GetContributorRecords(c *gin.Context) {
	address, ok := addressParam(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)
	records, total, err := h.recordLogic.GetContributorRecords(address, page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", PageResponse{
		Items:      records,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetInstructions 获取调用流水
func (h *CampaignHandler) GetInstructions(c *gin.Context) {
	page, pageSize := pageParams(c)
	records, total, err := h.recordLogic.GetInstructions(c.Query("opcode"), page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", PageResponse{
		Items:      records,
		Pagination: newPagination(page, pageSize, total),
	})
}

func (h *CampaignHandler) lookupError(c *gin.Context, err error) {
	if errors.Is(err, logic.ErrCampaignNotFound) {
		ErrorResponse(c, http.StatusNotFound, err.Error())
		return
	}
	ErrorResponse(c, http.StatusInternalServerError, err.Error())
}

// addressParam 解析并规范化路径中的地址
func addressParam(c *gin.Context) (string, bool) {
	addr, err := pubkey.Parse(c.Param("address"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的地址")
		return "", false
	}
	return addr.String(), true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	return page, pageSize
}

func toCampaignResponse(m *model.CampaignModel) CampaignResponse {
	return CampaignResponse{
		Address:       m.Address,
		Maker:         m.Maker,
		Mint:          m.Mint,
		Escrow:        m.Escrow,
		AmountToRaise: m.AmountToRaise,
		CurrentAmount: m.CurrentAmount,
		Contributors:  m.Contributors,
		DurationDays:  m.DurationDays,
		TimeStarted:   m.TimeStarted,
		EndTime:       m.EndTime,
		Status:        string(m.Status),
	}
}
