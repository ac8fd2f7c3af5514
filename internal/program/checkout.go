package program

import (
	"fmt"

	"github.com/blues/fundraiser/internal/account"
	"github.com/blues/fundraiser/internal/derive"
	"github.com/blues/fundraiser/internal/logger"
	"github.com/blues/fundraiser/internal/pubkey"
)

// checkout 目标达成且窗口结束后，maker 提走托管资金并关闭托管账户。
// 活动记录保留，防止同地址重新初始化后复用旧的贡献记录。
//
// 账户: maker, mint, campaign, escrow, maker token, token program, system program
func (p *Processor) checkout(env Env, accounts []*account.Account) error {
	if err := requireAccounts(accounts, 7); err != nil {
		return err
	}
	maker, mint, campaign, escrow, makerToken := accounts[0], accounts[1], accounts[2], accounts[3], accounts[4]

	if campaign.Owner != p.ID() {
		return fmt.Errorf("%w: campaign %s", ErrOwnershipMismatch, campaign.Address)
	}
	record, err := p.readCampaign(campaign)
	if err != nil {
		return err
	}

	if !maker.IsSigner() || record.Maker != maker.Address {
		return fmt.Errorf("%w: %s is not the signing maker", ErrUnauthorized, maker.Address)
	}
	destination, err := env.LoadTokenAccount(makerToken)
	if err != nil {
		return fmt.Errorf("maker token account: %w", err)
	}
	if destination.Owner != maker.Address {
		return fmt.Errorf("%w: maker token account owned by %s", ErrOwnershipMismatch, destination.Owner)
	}
	if mint.Address != record.Mint || destination.Mint != record.Mint {
		return fmt.Errorf("%w: campaign accepts %s", ErrMintMismatch, record.Mint)
	}
	if record.CurrentAmount < record.AmountToRaise {
		return fmt.Errorf("%w: %d of %d", ErrGoalNotReached, record.CurrentAmount, record.AmountToRaise)
	}
	if !WindowElapsed(env.Now(), record.TimeStarted, record.Duration) {
		return ErrWindowStillOpen
	}

	capability, err := p.deriver.Authorize(env.Scope(), campaign.Address, derive.Seeds{
		Label:   CampaignLabel,
		Parents: []pubkey.Address{maker.Address},
		Bump:    record.Bump,
	})
	if err != nil {
		return fmt.Errorf("campaign: %w", err)
	}
	vault, err := p.loadEscrow(env, escrow, campaign, record.Mint)
	if err != nil {
		return err
	}

	if err := env.Transfer(escrow, makerToken, campaign, vault.Amount, capability.Signer()); err != nil {
		return fmt.Errorf("transfer to maker: %w", err)
	}
	if err := env.CloseAccount(escrow, maker, campaign, capability.Signer()); err != nil {
		return fmt.Errorf("close escrow: %w", err)
	}

	logger.Debug("campaign %s checked out: %d to %s", campaign.Address, vault.Amount, maker.Address)
	return nil
}
