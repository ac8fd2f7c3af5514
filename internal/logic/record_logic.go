package logic

import (
	"fmt"

	"github.com/blues/fundraiser/internal/model"
	"gorm.io/gorm"
)

// RecordLogic 贡献、退款、结算记录查询
type RecordLogic struct {
	db *gorm.DB
}

// NewRecordLogic 创建记录查询逻辑
func NewRecordLogic(db *gorm.DB) *RecordLogic {
	return &RecordLogic{db: db}
}

// GetContributions 获取活动贡献记录
func (l *RecordLogic) GetContributions(campaign string, page, pageSize int) ([]model.ContributionModel, int64, error) {
	var records []model.ContributionModel
	total, err := paginate(l.db.Model(&model.ContributionModel{}).Where("campaign = ?", campaign), page, pageSize, &records)
	if err != nil {
		return nil, 0, fmt.Errorf("获取贡献记录失败: %w", err)
	}
	return records, total, nil
}

// GetContributorRecords 获取出资者在所有活动中的贡献记录
func (l *RecordLogic) GetContributorRecords(contributor string, page, pageSize int) ([]model.ContributionModel, int64, error) {
	var records []model.ContributionModel
	total, err := paginate(l.db.Model(&model.ContributionModel{}).Where("contributor = ?", contributor), page, pageSize, &records)
	if err != nil {
		return nil, 0, fmt.Errorf("获取贡献记录失败: %w", err)
	}
	return records, total, nil
}

// GetRefunds 获取活动退款记录
func (l *RecordLogic) GetRefunds(campaign string, page, pageSize int) ([]model.RefundRecordModel, int64, error) {
	var records []model.RefundRecordModel
	total, err := paginate(l.db.Model(&model.RefundRecordModel{}).Where("campaign = ?", campaign), page, pageSize, &records)
	if err != nil {
		return nil, 0, fmt.Errorf("获取退款记录失败: %w", err)
	}
	return records, total, nil
}

// GetSettlement 获取活动结算记录，未结算时返回 nil
func (l *RecordLogic) GetSettlement(campaign string) (*model.SettlementRecordModel, error) {
	var records []model.SettlementRecordModel
	if err := l.db.Where("campaign = ?", campaign).Limit(1).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("获取结算记录失败: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// GetInstructions 获取调用流水，opcode 为空时不过滤
func (l *RecordLogic) GetInstructions(opcode string, page, pageSize int) ([]model.InstructionModel, int64, error) {
	query := l.db.Model(&model.InstructionModel{})
	if opcode != "" {
		query = query.Where("opcode = ?", opcode)
	}
	var records []model.InstructionModel
	total, err := paginate(query, page, pageSize, &records)
	if err != nil {
		return nil, 0, fmt.Errorf("获取调用流水失败: %w", err)
	}
	return records, total, nil
}

func paginate(query *gorm.DB, page, pageSize int, dest interface{}) (int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	err := query.Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(dest).Error
	return total, err
}
