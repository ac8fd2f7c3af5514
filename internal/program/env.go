package program

import (
	"github.com/blues/fundraiser/internal/account"
	"github.com/blues/fundraiser/internal/derive"
	"github.com/blues/fundraiser/internal/pubkey"
	"github.com/blues/fundraiser/internal/token"
)

// Env 宿主环境提供给处理器的外部能力：时钟、存储押金、代币服务和账户分配
type Env interface {
	// Program 当前程序身份
	Program() pubkey.Address
	// Scope 本次调用作用域，委托签名只在其中有效
	Scope() *derive.Scope
	// Now 当前 unix 时间（秒）
	Now() int64
	// MinimumBalance 保持 size 字节账户分配所需的存储押金
	MinimumBalance(size int) uint64

	AssociatedAddress(owner, mint pubkey.Address) (pubkey.Address, error)
	LoadTokenAccount(acc *account.Account) (token.AccountData, error)
	LoadMint(acc *account.Account) (token.MintData, error)

	// CreateAccount 由 payer 出资分配 newAccount。newAccount 为派生地址时需提供 signer。
	CreateAccount(payer, newAccount *account.Account, deposit uint64, size int, owner pubkey.Address, signer *derive.Signer) error
	// CreateAssociatedAccount 分配并初始化 owner 在 mint 下的关联代币账户
	CreateAssociatedAccount(payer, acc *account.Account, owner pubkey.Address, mint *account.Account) error
	Transfer(from, to, authority *account.Account, amount uint64, signer *derive.Signer) error
	CloseAccount(acc, destination, authority *account.Account, signer *derive.Signer) error
	// Reclaim 释放本程序拥有的记录，押金归 beneficiary
	Reclaim(acc, beneficiary *account.Account) error
}
