package program

import (
	"fmt"
	"math/bits"

	"github.com/blues/fundraiser/internal/account"
	"github.com/blues/fundraiser/internal/derive"
	"github.com/blues/fundraiser/internal/logger"
	"github.com/blues/fundraiser/internal/pubkey"
)

const (
	// SecondsPerDay 每天秒数
	SecondsPerDay = 86400
	// BpsScale 基点分母
	BpsScale = 10000

	CampaignLabel     = "campaign"
	ContributionLabel = "contribution"
)

// Processor 众筹托管程序，按操作码分派到各处理器
type Processor struct {
	deriver            *derive.Deriver
	maxContributionBps uint64
}

// NewProcessor 创建处理器。maxContributionBps 为单个贡献者上限占目标金额的基点数，范围 (0, 10000]。
func NewProcessor(programID pubkey.Address, maxContributionBps uint64) (*Processor, error) {
	if maxContributionBps == 0 || maxContributionBps > BpsScale {
		return nil, fmt.Errorf("max contribution bps %d out of range (0, %d]", maxContributionBps, BpsScale)
	}
	return &Processor{
		deriver:            derive.NewDeriver(programID),
		maxContributionBps: maxContributionBps,
	}, nil
}

// ID 程序身份
func (p *Processor) ID() pubkey.Address {
	return p.deriver.Program()
}

// Deriver 返回派生器，客户端用它计算活动和贡献地址
func (p *Processor) Deriver() *derive.Deriver {
	return p.deriver
}

// CampaignAddress 计算 maker 的活动地址与 bump
func (p *Processor) CampaignAddress(maker pubkey.Address) (pubkey.Address, byte, error) {
	return p.deriver.Find(CampaignLabel, maker)
}

// ContributionAddress 计算贡献记录地址与 bump
func (p *Processor) ContributionAddress(campaign, contributor pubkey.Address) (pubkey.Address, byte, error) {
	return p.deriver.Find(ContributionLabel, campaign, contributor)
}

// Process 执行一条指令
func (p *Processor) Process(env Env, accounts []*account.Account, data []byte) error {
	op, payload, err := SplitInstruction(data)
	if err != nil {
		return err
	}
	logger.Debug("program %s: %s with %d accounts", p.ID(), op, len(accounts))

	switch op {
	case OpInitialize:
		args, err := DecodeInitialize(payload)
		if err != nil {
			return err
		}
		return p.initialize(env, accounts, args)
	case OpContribute:
		args, err := DecodeContribute(payload)
		if err != nil {
			return err
		}
		return p.contribute(env, accounts, args)
	case OpCheckout:
		return p.checkout(env, accounts)
	case OpRefund:
		args, err := DecodeRefund(payload)
		if err != nil {
			return err
		}
		return p.refund(env, accounts, args)
	}
	return fmt.Errorf("%w: unhandled opcode %d", ErrInvalidInstructionData, op)
}

// ContributionCap floor(target × bps / 10000)，中间结果使用128位避免溢出
func ContributionCap(target, bps uint64) uint64 {
	if bps >= BpsScale {
		return target
	}
	hi, lo := bits.Mul64(target, bps)
	q, _ := bits.Div64(hi, lo, BpsScale)
	return q
}

// MinimumContribution 一个完整单位（10^decimals），超出 uint64 时返回 false
func MinimumContribution(decimals uint8) (uint64, bool) {
	unit := uint64(1)
	for i := uint8(0); i < decimals; i++ {
		hi, lo := bits.Mul64(unit, 10)
		if hi != 0 {
			return 0, false
		}
		unit = lo
	}
	return unit, true
}

// WindowOpen now − started < days × 86400
func WindowOpen(now, started int64, days uint8) bool {
	return now-started < int64(days)*SecondsPerDay
}

// WindowElapsed 按整天计算: days < (now − started) / 86400
func WindowElapsed(now, started int64, days uint8) bool {
	elapsed := now - started
	if elapsed < 0 {
		return false
	}
	return int64(days) < elapsed/SecondsPerDay
}

func requireAccounts(accounts []*account.Account, n int) error {
	if len(accounts) < n {
		return fmt.Errorf("%w: got %d, want %d", ErrNotEnoughAccountKeys, len(accounts), n)
	}
	return nil
}
