package store

import (
	"fmt"

	"github.com/blues/fundraiser/internal/account"
	"github.com/blues/fundraiser/internal/logger"
	"github.com/blues/fundraiser/internal/model"
	"github.com/blues/fundraiser/internal/program"
	"github.com/blues/fundraiser/internal/pubkey"
	"github.com/blues/fundraiser/internal/runtime"
	"github.com/blues/fundraiser/internal/state"
	"github.com/blues/fundraiser/internal/token"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// accountSet 按地址索引回执中的前后状态
type accountSet struct {
	metas    []runtime.AccountMeta
	after    map[pubkey.Address]*account.Account
	previous map[pubkey.Address]*account.Account
}

func newAccountSet(receipt *runtime.Receipt) *accountSet {
	set := &accountSet{
		metas:    receipt.Message.Accounts,
		after:    make(map[pubkey.Address]*account.Account, len(receipt.Accounts)),
		previous: make(map[pubkey.Address]*account.Account, len(receipt.Previous)),
	}
	for _, acc := range receipt.Accounts {
		set.after[acc.Address] = acc
	}
	for _, acc := range receipt.Previous {
		set.previous[acc.Address] = acc
	}
	return set
}

func (a *accountSet) address(i int) pubkey.Address {
	return a.metas[i].Address
}

func (a *accountSet) get(i int) *account.Account {
	return a.after[a.metas[i].Address]
}

func (a *accountSet) before(i int) *account.Account {
	return a.previous[a.metas[i].Address]
}

// projector 单个操作码的投影处理器
type projector func(tx *gorm.DB, receipt *runtime.Receipt, set *accountSet, payload []byte) error

// registerProjectors 注册全部投影处理器
func (s *Store) registerProjectors() {
	s.projectors = map[program.Opcode]projector{
		program.OpInitialize: s.projectInitialize,
		program.OpContribute: s.projectContribute,
		program.OpCheckout:   s.projectCheckout,
		program.OpRefund:     s.projectRefund,
	}
}

// project 按操作码分派到投影处理器
func (s *Store) project(tx *gorm.DB, receipt *runtime.Receipt) error {
	op, payload, err := program.SplitInstruction(receipt.Message.Data)
	if err != nil {
		return err
	}
	p, ok := s.projectors[op]
	if !ok {
		logger.Warn("No projector found for opcode: %s", op)
		return nil
	}
	return p(tx, receipt, newAccountSet(receipt), payload)
}

// 账户: maker, mint, campaign, escrow, ...
func (s *Store) projectInitialize(tx *gorm.DB, receipt *runtime.Receipt, set *accountSet, _ []byte) error {
	record, err := state.DecodeCampaign(set.get(2).Data)
	if err != nil {
		return fmt.Errorf("decode campaign: %w", err)
	}
	row := model.CampaignModel{
		Address:       set.address(2).String(),
		Maker:         record.Maker.String(),
		Mint:          record.Mint.String(),
		Escrow:        set.address(3).String(),
		Bump:          record.Bump,
		AmountToRaise: record.AmountToRaise,
		CurrentAmount: record.CurrentAmount,
		DurationDays:  record.Duration,
		TimeStarted:   record.TimeStarted,
		EndTime:       record.TimeStarted + int64(record.Duration)*program.SecondsPerDay,
		Status:        model.CampaignStatusActive,
		InitTx:        receipt.ID,
	}
	// 退款释放后同一地址可以重新初始化
	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save campaign %s: %w", row.Address, err)
	}
	return nil
}

// 账户: contributor, mint, campaign, contributor token, contribution, escrow, ...
func (s *Store) projectContribute(tx *gorm.DB, receipt *runtime.Receipt, set *accountSet, payload []byte) error {
	args, err := program.DecodeContribute(payload)
	if err != nil {
		return err
	}
	record, err := state.DecodeCampaign(set.get(2).Data)
	if err != nil {
		return fmt.Errorf("decode campaign: %w", err)
	}
	total, err := state.DecodeContribution(set.get(4).Data)
	if err != nil {
		return fmt.Errorf("decode contribution: %w", err)
	}
	campaign := set.address(2).String()
	row := model.ContributionModel{
		Campaign:    campaign,
		Contributor: set.address(0).String(),
		Record:      set.address(4).String(),
		Amount:      args.Amount,
		Total:       total,
		TxId:        receipt.ID,
		Timestamp:   receipt.Timestamp,
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("save contribution: %w", err)
	}

	var contributors int64
	if err := tx.Model(&model.ContributionModel{}).
		Where("campaign = ?", campaign).
		Distinct("contributor").
		Count(&contributors).Error; err != nil {
		return err
	}
	return tx.Model(&model.CampaignModel{}).
		Where("address = ?", campaign).
		Updates(map[string]interface{}{
			"current_amount": record.CurrentAmount,
			"contributors":   contributors,
		}).Error
}

// 账户: maker, mint, campaign, escrow, maker token, ...
func (s *Store) projectCheckout(tx *gorm.DB, receipt *runtime.Receipt, set *accountSet, _ []byte) error {
	record, err := state.DecodeCampaign(set.get(2).Data)
	if err != nil {
		return fmt.Errorf("decode campaign: %w", err)
	}
	vault, err := token.DecodeAccount(set.before(3).Data)
	if err != nil {
		return fmt.Errorf("decode escrow: %w", err)
	}
	campaign := set.address(2).String()
	row := model.SettlementRecordModel{
		Campaign:       campaign,
		Maker:          set.address(0).String(),
		MakerToken:     set.address(4).String(),
		TotalAmount:    record.CurrentAmount,
		SettledAmount:  vault.Amount,
		TxId:           receipt.ID,
		SettlementTime: receipt.Timestamp,
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("save settlement: %w", err)
	}
	return tx.Model(&model.CampaignModel{}).
		Where("address = ?", campaign).
		Update("status", model.CampaignStatusSettled).Error
}

// 账户: contributor, maker, mint, campaign, contribution, contributor token, escrow, ...
func (s *Store) projectRefund(tx *gorm.DB, receipt *runtime.Receipt, set *accountSet, _ []byte) error {
	amount, err := state.DecodeContribution(set.before(4).Data)
	if err != nil {
		return fmt.Errorf("decode contribution: %w", err)
	}
	campaign := set.address(3).String()
	contributor := set.address(0).String()
	closed := !set.get(3).IsAllocated()
	row := model.RefundRecordModel{
		Campaign:       campaign,
		Contributor:    contributor,
		Record:         set.address(4).String(),
		Amount:         amount,
		CampaignClosed: closed,
		TxId:           receipt.ID,
		RefundTime:     receipt.Timestamp,
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("save refund: %w", err)
	}
	if err := tx.Model(&model.ContributionModel{}).
		Where("campaign = ? AND contributor = ?", campaign, contributor).
		Update("refunded", true).Error; err != nil {
		return err
	}

	status := model.CampaignStatusGoalMissed
	if closed {
		status = model.CampaignStatusClosed
	}
	return tx.Model(&model.CampaignModel{}).
		Where("address = ?", campaign).
		Update("status", status).Error
}
