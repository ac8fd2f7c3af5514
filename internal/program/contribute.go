package program

import (
	"fmt"
	"math/bits"

	"github.com/blues/fundraiser/internal/account"
	"github.com/blues/fundraiser/internal/derive"
	"github.com/blues/fundraiser/internal/logger"
	"github.com/blues/fundraiser/internal/pubkey"
	"github.com/blues/fundraiser/internal/state"
)

// contribute 校验并记录一笔贡献，资金转入托管账户
//
// 账户: contributor, mint, campaign, contributor token, contribution, escrow, token program, system program
func (p *Processor) contribute(env Env, accounts []*account.Account, args ContributeArgs) error {
	if err := requireAccounts(accounts, 8); err != nil {
		return err
	}
	contributor, mint, campaign := accounts[0], accounts[1], accounts[2]
	contributorToken, contribution, escrow := accounts[3], accounts[4], accounts[5]

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

	source, err := env.LoadTokenAccount(contributorToken)
	if err != nil {
		return fmt.Errorf("contributor token account: %w", err)
	}
	vault, err := env.LoadTokenAccount(escrow)
	if err != nil {
		return fmt.Errorf("escrow: %w", err)
	}
	mintData, err := env.LoadMint(mint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMintMismatch, err)
	}

	if record.Mint != mint.Address || source.Mint != mint.Address || vault.Mint != mint.Address {
		return fmt.Errorf("%w: campaign accepts %s", ErrMintMismatch, record.Mint)
	}
	if vault.Owner != campaign.Address {
		return fmt.Errorf("%w: escrow owned by %s", ErrOwnershipMismatch, vault.Owner)
	}
	unit, ok := MinimumContribution(mintData.Decimals)
	if !ok || args.Amount <= unit {
		return fmt.Errorf("%w: %d must exceed one whole unit", ErrAmountTooSmall, args.Amount)
	}
	if !WindowOpen(env.Now(), record.TimeStarted, record.Duration) {
		return ErrWindowClosed
	}
	capability, err := p.deriver.Authorize(env.Scope(), contribution.Address, derive.Seeds{
		Label:   ContributionLabel,
		Parents: []pubkey.Address{campaign.Address, contributor.Address},
		Bump:    args.Bump,
	})
	if err != nil {
		return fmt.Errorf("contribution: %w", err)
	}

	limit := ContributionCap(record.AmountToRaise, p.maxContributionBps)
	total, carry := bits.Add64(record.CurrentAmount, args.Amount, 0)
	if carry != 0 {
		return fmt.Errorf("%w: campaign total", ErrArithmeticOverflow)
	}

	var amount uint64
	switch {
	case !contribution.IsAllocated():
		amount = args.Amount
		if amount > limit {
			return fmt.Errorf("%w: %d over cap %d", ErrContributionCapExceeded, amount, limit)
		}
		if err := env.CreateAccount(contributor, contribution, env.MinimumBalance(state.ContributionLen), state.ContributionLen, p.ID(), capability.Signer()); err != nil {
			return fmt.Errorf("allocate contribution: %w", err)
		}
		logger.Debug("contribution record %s allocated", contribution.Address)
	case contribution.Owner == p.ID():
		view, err := state.LoadContribution(contribution)
		if err != nil {
			return err
		}
		previous := view.Amount()
		view.Release()
		var carry uint64
		amount, carry = bits.Add64(previous, args.Amount, 0)
		if carry != 0 || amount > limit {
			return fmt.Errorf("%w: %d over cap %d", ErrContributionCapExceeded, amount, limit)
		}
	default:
		return fmt.Errorf("%w: contribution %s owned by %s", ErrOwnershipMismatch, contribution.Address, contribution.Owner)
	}

	if err := env.Transfer(contributorToken, escrow, contributor, args.Amount, nil); err != nil {
		return fmt.Errorf("transfer to escrow: %w", err)
	}

	// 转账成功后再提交记录字段
	entry, err := state.LoadContribution(contribution)
	if err != nil {
		return err
	}
	entry.SetAmount(amount)
	entry.Release()

	view, err := state.LoadCampaign(campaign)
	if err != nil {
		return err
	}
	view.SetCurrentAmount(total)
	view.Release()

	logger.Debug("campaign %s: +%d from %s, total %d", campaign.Address, args.Amount, contributor.Address, total)
	return nil
}

// readCampaign 读取活动记录的值拷贝并立即释放租借
func (p *Processor) readCampaign(campaign *account.Account) (state.CampaignData, error) {
	view, err := state.LoadCampaign(campaign)
	if err != nil {
		return state.CampaignData{}, err
	}
	defer view.Release()
	return view.Data(), nil
}
