package runtime

import (
	"context"
	"fmt"

	"github.com/blues/fundraiser/internal/account"
	"github.com/blues/fundraiser/internal/logger"
	"github.com/blues/fundraiser/internal/pubkey"
	"github.com/blues/fundraiser/internal/token"
)

// 以下为宿主管理操作（开发网水龙头与测试准备），不经过签名校验

// GenesisHook 可选接口，接收管理操作直接写入的账户
type GenesisHook interface {
	OnGenesis(ctx context.Context, accounts []*account.Account) error
}

func (r *Runtime) notifyGenesis(accounts ...*account.Account) {
	for _, h := range r.hooks {
		g, ok := h.(GenesisHook)
		if !ok {
			continue
		}
		if err := g.OnGenesis(context.Background(), accounts); err != nil {
			logger.Error("genesis hook failed: %v", err)
		}
	}
}

// Airdrop 给地址增加 lamports
func (r *Runtime) Airdrop(addr pubkey.Address, lamports uint64) error {
	unlock := r.bank.lock([]pubkey.Address{addr})
	defer unlock()

	acc, ok := r.bank.Get(addr)
	if !ok {
		acc = &account.Account{Address: addr, Owner: r.system}
	}
	if acc.Lamports+lamports < acc.Lamports {
		return fmt.Errorf("airdrop overflow for %s", addr)
	}
	acc.Lamports += lamports
	r.bank.Put(acc)
	r.notifyGenesis(acc)
	return nil
}

// CreateMint 在 addr 创建币种
func (r *Runtime) CreateMint(addr, authority pubkey.Address, decimals uint8) error {
	unlock := r.bank.lock([]pubkey.Address{addr})
	defer unlock()

	if _, ok := r.bank.Get(addr); ok {
		return fmt.Errorf("%w: %s", ErrAccountInUse, addr)
	}
	mint := account.New(addr, r.rent.MinimumBalance(token.MintLen), r.token.ID(), token.MintLen)
	if err := r.token.InitializeMint(mint, authority, decimals); err != nil {
		return err
	}
	r.bank.Put(mint)
	r.notifyGenesis(mint)
	return nil
}

// CreateTokenAccount 创建 owner 在 mint 下的关联代币账户并返回地址
func (r *Runtime) CreateTokenAccount(owner, mint pubkey.Address) (pubkey.Address, error) {
	addr, err := r.token.AssociatedAddress(owner, mint)
	if err != nil {
		return pubkey.Zero, err
	}
	unlock := r.bank.lock([]pubkey.Address{addr, mint})
	defer unlock()

	if _, ok := r.bank.Get(addr); ok {
		return pubkey.Zero, fmt.Errorf("%w: %s", ErrAccountInUse, addr)
	}
	mintAcc, ok := r.bank.Get(mint)
	if !ok {
		return pubkey.Zero, fmt.Errorf("mint %s not found", mint)
	}
	acc := account.New(addr, r.rent.MinimumBalance(token.AccountLen), r.token.ID(), token.AccountLen)
	if err := r.token.InitializeAccount(acc, mintAcc, owner); err != nil {
		return pubkey.Zero, err
	}
	r.bank.Put(acc)
	r.notifyGenesis(acc)
	return addr, nil
}

// MintTo 以币种权限增发到目标代币账户
func (r *Runtime) MintTo(mint, dest pubkey.Address, amount uint64) error {
	unlock := r.bank.lock([]pubkey.Address{mint, dest})
	defer unlock()

	mintAcc, ok := r.bank.Get(mint)
	if !ok {
		return fmt.Errorf("mint %s not found", mint)
	}
	destAcc, ok := r.bank.Get(dest)
	if !ok {
		return fmt.Errorf("token account %s not found", dest)
	}
	m, err := r.token.LoadMint(mintAcc)
	if err != nil {
		return err
	}
	authority := &account.Account{Address: m.Authority}
	authority.SetMeta(true, false)
	if err := r.token.MintTo(mintAcc, destAcc, authority, amount); err != nil {
		return err
	}
	r.bank.commit([]*account.Account{mintAcc, destAcc})
	r.notifyGenesis(mintAcc, destAcc)
	return nil
}

// TokenBalance 查询代币账户余额
func (r *Runtime) TokenBalance(addr pubkey.Address) (uint64, error) {
	acc, ok := r.bank.Get(addr)
	if !ok {
		return 0, fmt.Errorf("token account %s not found", addr)
	}
	d, err := r.token.LoadAccount(acc)
	if err != nil {
		return 0, err
	}
	return d.Amount, nil
}
