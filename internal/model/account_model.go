package model

import (
	"time"
)

// AccountModel 账户快照，启动时用于恢复内存账户存储
type AccountModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Address    string `json:"address" gorm:"uniqueIndex;not null"`
	Lamports   uint64 `json:"lamports" gorm:"not null"`
	Owner      string `json:"owner" gorm:"index;not null"`
	Data       []byte `json:"data"`
	Executable bool   `json:"executable" gorm:"default:false"`
	LastTx     string `json:"last_tx"`
}

// TableName 自定义表名
func (AccountModel) TableName() string {
	return "account"
}
