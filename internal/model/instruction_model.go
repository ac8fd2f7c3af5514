package model

import (
	"time"
)

// InstructionModel 调用流水，成功与失败的调用都会记录
type InstructionModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TxId      string `json:"tx_id" gorm:"uniqueIndex;not null"`
	ProgramId string `json:"program_id" gorm:"not null"`
	Opcode    string `json:"opcode" gorm:"index;not null"`
	Accounts  string `json:"accounts" gorm:"type:text"` // JSON 编码的账户列表
	Data      string `json:"data" gorm:"type:text"`     // hex 编码的指令数据
	Nonce     uint64 `json:"nonce"`
	Success   bool   `json:"success" gorm:"index"`
	ErrorKind string `json:"error_kind"`
	Error     string `json:"error" gorm:"type:text"`
	Timestamp int64  `json:"timestamp" gorm:"index"`
}

// TableName 自定义表名
func (InstructionModel) TableName() string {
	return "instruction"
}
