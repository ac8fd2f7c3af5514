package program

import (
	"fmt"

	"github.com/blues/fundraiser/internal/account"
	"github.com/blues/fundraiser/internal/derive"
	"github.com/blues/fundraiser/internal/logger"
	"github.com/blues/fundraiser/internal/pubkey"
	"github.com/blues/fundraiser/internal/state"
)

// initialize 创建活动记录和托管账户
//
// 账户: maker, mint, campaign, escrow, system program, token program
func (p *Processor) initialize(env Env, accounts []*account.Account, args InitializeArgs) error {
	if err := requireAccounts(accounts, 6); err != nil {
		return err
	}
	maker, mint, campaign, escrow := accounts[0], accounts[1], accounts[2], accounts[3]

	if !maker.IsSigner() {
		return fmt.Errorf("%w: maker %s did not sign", ErrUnauthorized, maker.Address)
	}
	if args.AmountToRaise == 0 {
		return fmt.Errorf("%w: amount to raise must be positive", ErrInvalidArgument)
	}
	if args.DurationDays == 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidArgument)
	}

	capability, err := p.deriver.Authorize(env.Scope(), campaign.Address, derive.Seeds{
		Label:   CampaignLabel,
		Parents: []pubkey.Address{maker.Address},
		Bump:    args.Bump,
	})
	if err != nil {
		return fmt.Errorf("campaign: %w", err)
	}

	if _, err := env.LoadMint(mint); err != nil {
		return fmt.Errorf("%w: %v", ErrOwnershipMismatch, err)
	}
	expectedEscrow, err := env.AssociatedAddress(campaign.Address, mint.Address)
	if err != nil {
		return err
	}
	if expectedEscrow != escrow.Address {
		return fmt.Errorf("%w: escrow %s, want %s", ErrAddressMismatch, escrow.Address, expectedEscrow)
	}

	if err := env.CreateAccount(maker, campaign, env.MinimumBalance(state.CampaignLen), state.CampaignLen, p.ID(), capability.Signer()); err != nil {
		return fmt.Errorf("allocate campaign: %w", err)
	}

	view, err := state.LoadCampaign(campaign)
	if err != nil {
		return err
	}
	view.Init(state.CampaignData{
		Maker:         maker.Address,
		Mint:          mint.Address,
		AmountToRaise: args.AmountToRaise,
		CurrentAmount: 0,
		Duration:      args.DurationDays,
		TimeStarted:   env.Now(),
		Bump:          args.Bump,
	})
	view.Release()

	if err := env.CreateAssociatedAccount(maker, escrow, campaign.Address, mint); err != nil {
		return fmt.Errorf("allocate escrow: %w", err)
	}

	logger.Debug("campaign %s initialized: target %d, %d days", campaign.Address, args.AmountToRaise, args.DurationDays)
	return nil
}
