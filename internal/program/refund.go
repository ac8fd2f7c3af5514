package program

import (
	"fmt"

	"github.com/blues/fundraiser/internal/account"
	"github.com/blues/fundraiser/internal/derive"
	"github.com/blues/fundraiser/internal/logger"
	"github.com/blues/fundraiser/internal/pubkey"
	"github.com/blues/fundraiser/internal/state"
	"github.com/blues/fundraiser/internal/token"
)

// refund 目标未达成且窗口结束后，贡献者取回自己的存款。托管清空时整个活动一并释放。
//
// 账户: contributor, maker, mint, campaign, contribution, contributor token, escrow, token program, system program
func (p *Processor) refund(env Env, accounts []*account.Account, args RefundArgs) error {
	if err := requireAccounts(accounts, 9); err != nil {
		return err
	}
	contributor, maker, mint, campaign := accounts[0], accounts[1], accounts[2], accounts[3]
	contribution, contributorToken, escrow := accounts[4], accounts[5], accounts[6]

	if err := p.deriver.Verify(contribution.Address, derive.Seeds{
		Label:   ContributionLabel,
		Parents: []pubkey.Address{campaign.Address, contributor.Address},
		Bump:    args.Bump,
	}); err != nil {
		return fmt.Errorf("contribution: %w", err)
	}
	if !contributor.IsSigner() {
		return fmt.Errorf("%w: contributor %s did not sign", ErrUnauthorized, contributor.Address)
	}
	if campaign.Owner != p.ID() {
		return fmt.Errorf("%w: campaign %s", ErrOwnershipMismatch, campaign.Address)
	}
	record, err := p.readCampaign(campaign)
	if err != nil {
		return err
	}
	if !WindowElapsed(env.Now(), record.TimeStarted, record.Duration) {
		return ErrWindowStillOpen
	}
	if record.CurrentAmount >= record.AmountToRaise {
		return fmt.Errorf("%w: %d of %d", ErrGoalAlreadyReached, record.CurrentAmount, record.AmountToRaise)
	}
	if mint.Address != record.Mint {
		return fmt.Errorf("%w: campaign accepts %s", ErrMintMismatch, record.Mint)
	}

	capability, err := p.deriver.Authorize(env.Scope(), campaign.Address, derive.Seeds{
		Label:   CampaignLabel,
		Parents: []pubkey.Address{maker.Address},
		Bump:    record.Bump,
	})
	if err != nil {
		return fmt.Errorf("campaign: %w", err)
	}

	entry, err := state.LoadContribution(contribution)
	if err != nil {
		return err
	}
	amount := entry.Amount()
	entry.Release()
	if contribution.Owner != p.ID() {
		return fmt.Errorf("%w: contribution %s owned by %s", ErrOwnershipMismatch, contribution.Address, contribution.Owner)
	}
	if _, err := p.loadEscrow(env, escrow, campaign, record.Mint); err != nil {
		return err
	}

	if err := env.Transfer(escrow, contributorToken, campaign, amount, capability.Signer()); err != nil {
		return fmt.Errorf("refund transfer: %w", err)
	}
	if err := env.Reclaim(contribution, contributor); err != nil {
		return fmt.Errorf("release contribution: %w", err)
	}
	logger.Debug("campaign %s: refunded %d to %s", campaign.Address, amount, contributor.Address)

	vault, err := env.LoadTokenAccount(escrow)
	if err != nil {
		return fmt.Errorf("escrow: %w", err)
	}
	if vault.Amount != 0 {
		return nil
	}
	if err := env.CloseAccount(escrow, maker, campaign, capability.Signer()); err != nil {
		return fmt.Errorf("close escrow: %w", err)
	}
	if err := env.Reclaim(campaign, maker); err != nil {
		return fmt.Errorf("release campaign: %w", err)
	}
	logger.Debug("campaign %s torn down after last refund", campaign.Address)
	return nil
}

// loadEscrow 校验托管账户地址、币种和所有者
func (p *Processor) loadEscrow(env Env, escrow, campaign *account.Account, mint pubkey.Address) (token.AccountData, error) {
	expected, err := env.AssociatedAddress(campaign.Address, mint)
	if err != nil {
		return token.AccountData{}, err
	}
	if expected != escrow.Address {
		return token.AccountData{}, fmt.Errorf("%w: escrow %s, want %s", ErrAddressMismatch, escrow.Address, expected)
	}
	vault, err := env.LoadTokenAccount(escrow)
	if err != nil {
		return token.AccountData{}, fmt.Errorf("escrow: %w", err)
	}
	if vault.Owner != campaign.Address {
		return token.AccountData{}, fmt.Errorf("%w: escrow owned by %s", ErrOwnershipMismatch, vault.Owner)
	}
	if vault.Mint != mint {
		return token.AccountData{}, fmt.Errorf("%w: escrow holds %s", ErrMintMismatch, vault.Mint)
	}
	return vault, nil
}
