package handler

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// 通用响应结构
type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	ErrorKind string      `json:"errorKind,omitempty"`
	Data      interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// PageResponse 分页列表响应
type PageResponse struct {
	Items      interface{} `json:"items"`
	Pagination Pagination  `json:"pagination"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
}

// 交易相关响应模型

// ReceiptResponse 调用回执
type ReceiptResponse struct {
	ID        string `json:"id"`
	Opcode    string `json:"opcode"`
	Success   bool   `json:"success"`
	ErrorKind string `json:"errorKind,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// AccountResponse 账户响应
type AccountResponse struct {
	Address    string        `json:"address"`
	Lamports   uint64        `json:"lamports"`
	Owner      string        `json:"owner"`
	Executable bool          `json:"executable"`
	Data       hexutil.Bytes `json:"data"`
	Kind       string        `json:"kind"`
	Decoded    interface{}   `json:"decoded,omitempty"`
}

// 活动相关响应模型

// CampaignResponse 活动响应
type CampaignResponse struct {
	Address       string `json:"address"`
	Maker         string `json:"maker"`
	Mint          string `json:"mint"`
	Escrow        string `json:"escrow"`
	AmountToRaise uint64 `json:"amountToRaise"`
	CurrentAmount uint64 `json:"currentAmount"`
	Contributors  int64  `json:"contributors"`
	DurationDays  uint8  `json:"durationDays"`
	TimeStarted   int64  `json:"timeStarted"`
	EndTime       int64  `json:"endTime"`
	Status        string `json:"status"`
}
