package token

import (
	"errors"
	"fmt"

	"github.com/blues/fundraiser/internal/account"
	"github.com/blues/fundraiser/internal/derive"
	"github.com/blues/fundraiser/internal/pubkey"
)

var (
	ErrInvalidAccount    = errors.New("invalid token account")
	ErrInsufficientFunds = errors.New("insufficient token funds")
	ErrMintMismatch      = errors.New("token mint mismatch")
	ErrOwnerMismatch     = errors.New("token account owner mismatch")
	ErrNonZeroBalance    = errors.New("token account balance is not zero")
	ErrMissingAuthority  = errors.New("missing token authority signature")
	ErrAlreadyInUse      = errors.New("token account already initialized")
	ErrOverflow          = errors.New("token amount overflow")
)

const associatedLabel = "associated"

// Service 代币服务，宿主侧实现转账、关闭和关联账户
type Service struct {
	id      pubkey.Address
	deriver *derive.Deriver
}

// NewService 创建代币服务
func NewService(id pubkey.Address) *Service {
	return &Service{id: id, deriver: derive.NewDeriver(id)}
}

// ID 代币程序身份
func (s *Service) ID() pubkey.Address {
	return s.id
}

// AssociatedAddress 计算 owner 在 mint 下的关联代币账户地址
func (s *Service) AssociatedAddress(owner, mint pubkey.Address) (pubkey.Address, error) {
	addr, _, err := s.deriver.Find(associatedLabel, owner, mint)
	return addr, err
}

// LoadAccount 读取代币账户
func (s *Service) LoadAccount(acc *account.Account) (AccountData, error) {
	if acc.Owner != s.id {
		return AccountData{}, fmt.Errorf("%w: %s not owned by token program", ErrInvalidAccount, acc.Address)
	}
	return DecodeAccount(acc.Data)
}

// LoadMint 读取币种
func (s *Service) LoadMint(acc *account.Account) (MintData, error) {
	if acc.Owner != s.id {
		return MintData{}, fmt.Errorf("%w: mint %s not owned by token program", ErrInvalidAccount, acc.Address)
	}
	return DecodeMint(acc.Data)
}

// InitializeMint 初始化币种账户
func (s *Service) InitializeMint(acc *account.Account, authority pubkey.Address, decimals uint8) error {
	if acc.Owner != s.id || len(acc.Data) != MintLen {
		return fmt.Errorf("%w: mint %s not allocated for token program", ErrInvalidAccount, acc.Address)
	}
	return s.write(acc, func(buf []byte) {
		MintData{Authority: authority, Decimals: decimals}.put(buf)
	})
}

// InitializeAccount 初始化代币账户
func (s *Service) InitializeAccount(acc *account.Account, mint *account.Account, owner pubkey.Address) error {
	if acc.Owner != s.id || len(acc.Data) != AccountLen {
		return fmt.Errorf("%w: %s not allocated for token program", ErrInvalidAccount, acc.Address)
	}
	if _, err := s.LoadMint(mint); err != nil {
		return err
	}
	if existing, _ := DecodeAccount(acc.Data); !existing.Mint.IsZero() {
		return ErrAlreadyInUse
	}
	return s.write(acc, func(buf []byte) {
		AccountData{Mint: mint.Address, Owner: owner}.put(buf)
	})
}

// MintTo 增发到目标账户，需币种权限签名
func (s *Service) MintTo(mint, dest, authority *account.Account, amount uint64) error {
	m, err := s.LoadMint(mint)
	if err != nil {
		return err
	}
	if m.Authority != authority.Address || !authority.IsSigner() {
		return ErrMissingAuthority
	}
	d, err := s.LoadAccount(dest)
	if err != nil {
		return err
	}
	if d.Mint != mint.Address {
		return ErrMintMismatch
	}
	if m.Supply+amount < m.Supply || d.Amount+amount < d.Amount {
		return ErrOverflow
	}
	m.Supply += amount
	d.Amount += amount
	if err := s.write(mint, m.put); err != nil {
		return err
	}
	return s.write(dest, d.put)
}

// Transfer 从 from 向 to 转账。authority 必须是活跃签名者，或由 signer 提供委托签名。
func (s *Service) Transfer(scope *derive.Scope, from, to, authority *account.Account, amount uint64, signer *derive.Signer) error {
	src, err := s.LoadAccount(from)
	if err != nil {
		return err
	}
	dst, err := s.LoadAccount(to)
	if err != nil {
		return err
	}
	if src.Mint != dst.Mint {
		return ErrMintMismatch
	}
	if src.Owner != authority.Address {
		return ErrOwnerMismatch
	}
	if err := authorize(scope, authority, signer); err != nil {
		return err
	}
	if src.Amount < amount {
		return fmt.Errorf("%w: balance %d, requested %d", ErrInsufficientFunds, src.Amount, amount)
	}
	if from.Address == to.Address {
		return nil
	}
	if dst.Amount+amount < dst.Amount {
		return ErrOverflow
	}
	src.Amount -= amount
	dst.Amount += amount
	if err := s.write(from, src.put); err != nil {
		return err
	}
	return s.write(to, dst.put)
}

// CloseAccount 关闭零余额代币账户，存储押金转给 dest
func (s *Service) CloseAccount(scope *derive.Scope, acc, dest, authority *account.Account, signer *derive.Signer, system pubkey.Address) error {
	d, err := s.LoadAccount(acc)
	if err != nil {
		return err
	}
	if d.Owner != authority.Address {
		return ErrOwnerMismatch
	}
	if acc.Address == dest.Address {
		return fmt.Errorf("%w: destination is the closed account", ErrInvalidAccount)
	}
	if err := authorize(scope, authority, signer); err != nil {
		return err
	}
	if d.Amount != 0 {
		return ErrNonZeroBalance
	}
	if acc.Borrowed() {
		return account.ErrAccountBorrowed
	}
	if dest.Lamports+acc.Lamports < dest.Lamports {
		return ErrOverflow
	}
	dest.Lamports += acc.Lamports
	acc.Reset(system)
	return nil
}

func authorize(scope *derive.Scope, authority *account.Account, signer *derive.Signer) error {
	if signer != nil {
		return signer.Redeem(scope, authority.Address)
	}
	if !authority.IsSigner() {
		return ErrMissingAuthority
	}
	return nil
}

func (s *Service) write(acc *account.Account, put func([]byte)) error {
	buf, release, err := acc.Borrow()
	if err != nil {
		return err
	}
	defer release()
	put(buf)
	return nil
}
