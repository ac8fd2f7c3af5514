package runtime

import (
	"errors"
	"fmt"

	"github.com/blues/fundraiser/internal/account"
	"github.com/blues/fundraiser/internal/derive"
	"github.com/blues/fundraiser/internal/pubkey"
	"github.com/blues/fundraiser/internal/token"
)

var (
	ErrAccountInUse          = errors.New("account already in use")
	ErrInsufficientLamports  = errors.New("insufficient lamports")
	ErrIllegalOwner          = errors.New("account not owned by calling program")
	ErrPayerNotSigner        = errors.New("payer must sign")
	ErrAccountNotWritable    = errors.New("account not writable")
	ErrAssociatedAddress     = errors.New("associated token address mismatch")
	ErrNewAccountNotAuthored = errors.New("new account address not authorized")
)

// invocation 单次调用的宿主环境，实现 program.Env
type invocation struct {
	runtime *Runtime
	scope   *derive.Scope
	now     int64
}

func (inv *invocation) Program() pubkey.Address {
	return inv.runtime.program.ID()
}

func (inv *invocation) Scope() *derive.Scope {
	return inv.scope
}

func (inv *invocation) Now() int64 {
	return inv.now
}

func (inv *invocation) MinimumBalance(size int) uint64 {
	return inv.runtime.rent.MinimumBalance(size)
}

func (inv *invocation) AssociatedAddress(owner, mint pubkey.Address) (pubkey.Address, error) {
	return inv.runtime.token.AssociatedAddress(owner, mint)
}

func (inv *invocation) LoadTokenAccount(acc *account.Account) (token.AccountData, error) {
	return inv.runtime.token.LoadAccount(acc)
}

func (inv *invocation) LoadMint(acc *account.Account) (token.MintData, error) {
	return inv.runtime.token.LoadMint(acc)
}

func (inv *invocation) CreateAccount(payer, newAccount *account.Account, deposit uint64, size int, owner pubkey.Address, signer *derive.Signer) error {
	if signer != nil {
		if err := signer.Redeem(inv.scope, newAccount.Address); err != nil {
			return fmt.Errorf("%w: %v", ErrNewAccountNotAuthored, err)
		}
	} else if !newAccount.IsSigner() {
		return ErrNewAccountNotAuthored
	}
	return inv.allocate(payer, newAccount, deposit, size, owner)
}

func (inv *invocation) allocate(payer, newAccount *account.Account, deposit uint64, size int, owner pubkey.Address) error {
	if !payer.IsSigner() {
		return fmt.Errorf("%w: %s", ErrPayerNotSigner, payer.Address)
	}
	if !payer.IsWritable() || !newAccount.IsWritable() {
		return ErrAccountNotWritable
	}
	if newAccount.IsAllocated() {
		return fmt.Errorf("%w: %s", ErrAccountInUse, newAccount.Address)
	}
	if payer.Lamports < deposit {
		return fmt.Errorf("%w: payer has %d, needs %d", ErrInsufficientLamports, payer.Lamports, deposit)
	}
	payer.Lamports -= deposit
	newAccount.Lamports = deposit
	newAccount.Owner = owner
	newAccount.Data = account.NewData(size)
	return nil
}

func (inv *invocation) CreateAssociatedAccount(payer, acc *account.Account, owner pubkey.Address, mint *account.Account) error {
	tokens := inv.runtime.token
	expected, err := tokens.AssociatedAddress(owner, mint.Address)
	if err != nil {
		return err
	}
	if expected != acc.Address {
		return fmt.Errorf("%w: %s, want %s", ErrAssociatedAddress, acc.Address, expected)
	}
	if err := inv.allocate(payer, acc, inv.MinimumBalance(token.AccountLen), token.AccountLen, tokens.ID()); err != nil {
		return err
	}
	return tokens.InitializeAccount(acc, mint, owner)
}

func (inv *invocation) Transfer(from, to, authority *account.Account, amount uint64, signer *derive.Signer) error {
	if !from.IsWritable() || !to.IsWritable() {
		return ErrAccountNotWritable
	}
	return inv.runtime.token.Transfer(inv.scope, from, to, authority, amount, signer)
}

func (inv *invocation) CloseAccount(acc, destination, authority *account.Account, signer *derive.Signer) error {
	if !acc.IsWritable() || !destination.IsWritable() {
		return ErrAccountNotWritable
	}
	return inv.runtime.token.CloseAccount(inv.scope, acc, destination, authority, signer, inv.runtime.system)
}

func (inv *invocation) Reclaim(acc, beneficiary *account.Account) error {
	if acc.Owner != inv.Program() {
		return fmt.Errorf("%w: %s", ErrIllegalOwner, acc.Address)
	}
	if !acc.IsWritable() || !beneficiary.IsWritable() {
		return ErrAccountNotWritable
	}
	if acc.Borrowed() {
		return account.ErrAccountBorrowed
	}
	if acc.Address == beneficiary.Address {
		return fmt.Errorf("%w: beneficiary is the reclaimed account", ErrIllegalOwner)
	}
	beneficiary.Lamports += acc.Lamports
	acc.Reset(inv.runtime.system)
	return nil
}
