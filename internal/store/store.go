package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/blues/fundraiser/internal/account"
	"github.com/blues/fundraiser/internal/logger"
	"github.com/blues/fundraiser/internal/model"
	"github.com/blues/fundraiser/internal/program"
	"github.com/blues/fundraiser/internal/pubkey"
	"github.com/blues/fundraiser/internal/runtime"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const genesisTx = "genesis"

// Store 持久化调用流水、账户快照和业务投影，实现 runtime.CommitHook
type Store struct {
	db         *gorm.DB
	program    pubkey.Address
	projectors map[program.Opcode]projector
}

// New 创建存储，只为 programID 的调用维护投影
func New(db *gorm.DB, programID pubkey.Address) *Store {
	s := &Store{db: db, program: programID}
	s.registerProjectors()
	return s
}

// DB 返回底层连接
func (s *Store) DB() *gorm.DB {
	return s.db
}

// OnCommit 在一个数据库事务中写入流水、账户快照与投影
func (s *Store) OnCommit(ctx context.Context, receipt *runtime.Receipt) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.saveInstruction(tx, receipt); err != nil {
			return err
		}
		if !receipt.Success || receipt.Message.ProgramID != s.program {
			return nil
		}
		if err := s.saveAccounts(tx, receipt.ID, receipt.Accounts); err != nil {
			return err
		}
		return s.project(tx, receipt)
	})
}

// OnGenesis 保存管理操作（空投、增发）直接写入的账户
func (s *Store) OnGenesis(ctx context.Context, accounts []*account.Account) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.saveAccounts(tx, genesisTx, accounts)
	})
}

func (s *Store) saveInstruction(tx *gorm.DB, receipt *runtime.Receipt) error {
	accounts, err := json.Marshal(receipt.Message.Accounts)
	if err != nil {
		return fmt.Errorf("encode accounts: %w", err)
	}
	row := model.InstructionModel{
		TxId:      receipt.ID,
		ProgramId: receipt.Message.ProgramID.String(),
		Opcode:    receipt.Opcode.String(),
		Accounts:  string(accounts),
		Data:      hexutil.Encode(receipt.Message.Data),
		Nonce:     receipt.Message.Nonce,
		Success:   receipt.Success,
		ErrorKind: receipt.Kind,
		Timestamp: receipt.Timestamp,
	}
	if receipt.Err != nil {
		row.Error = receipt.Err.Error()
	}
	// 同一交易标识只保留一行：失败后重新提交成功时覆盖结果，被拒绝的重放不改写
	conflict := clause.OnConflict{DoNothing: true}
	if receipt.Success {
		conflict = clause.OnConflict{
			Columns:   []clause.Column{{Name: "tx_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"success", "error_kind", "error", "timestamp", "updated_at"}),
		}
	}
	if err := tx.Clauses(conflict).Create(&row).Error; err != nil {
		return fmt.Errorf("save instruction %s: %w", receipt.ID, err)
	}
	return nil
}

func (s *Store) saveAccounts(tx *gorm.DB, txID string, accounts []*account.Account) error {
	for _, acc := range accounts {
		if !acc.IsAllocated() {
			if err := tx.Where("address = ?", acc.Address.String()).Delete(&model.AccountModel{}).Error; err != nil {
				return fmt.Errorf("delete account %s: %w", acc.Address, err)
			}
			continue
		}
		row := model.AccountModel{
			Address:    acc.Address.String(),
			Lamports:   acc.Lamports,
			Owner:      acc.Owner.String(),
			Data:       acc.Data,
			Executable: acc.Executable,
			LastTx:     txID,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "address"}},
			DoUpdates: clause.AssignmentColumns([]string{"lamports", "owner", "data", "executable", "last_tx", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("save account %s: %w", acc.Address, err)
		}
	}
	return nil
}

// LoadBank 从账户快照恢复内存账户存储，返回恢复的账户数量
func (s *Store) LoadBank(ctx context.Context, bank *runtime.Bank) (int, error) {
	var rows []model.AccountModel
	if err := s.db.WithContext(ctx).Order("address").Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("load accounts: %w", err)
	}
	for _, row := range rows {
		addr, err := pubkey.Parse(row.Address)
		if err != nil {
			return 0, err
		}
		owner, err := pubkey.Parse(row.Owner)
		if err != nil {
			return 0, err
		}
		acc := account.New(addr, row.Lamports, owner, len(row.Data))
		copy(acc.Data, row.Data)
		acc.Executable = row.Executable
		bank.Put(acc)
	}
	logger.Info("restored %d accounts from store", len(rows))
	return len(rows), nil
}

// ExecutedTransactions 返回已成功提交的交易标识
func (s *Store) ExecutedTransactions(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&model.InstructionModel{}).
		Where("success = ?", true).
		Pluck("tx_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("load executed transactions: %w", err)
	}
	return ids, nil
}

// Restore 恢复账户状态和已提交交易集合，之后重放的交易仍会被拒绝
func (s *Store) Restore(ctx context.Context, rt *runtime.Runtime) error {
	if _, err := s.LoadBank(ctx, rt.Bank()); err != nil {
		return err
	}
	ids, err := s.ExecutedTransactions(ctx)
	if err != nil {
		return err
	}
	rt.RestoreExecuted(ids)
	logger.Info("restored %d executed transactions from store", len(ids))
	return nil
}
