package derive

import (
	"errors"

	"github.com/blues/fundraiser/internal/pubkey"
)

var (
	ErrScopeEnded       = errors.New("invocation scope ended")
	ErrSignerConsumed   = errors.New("signer already consumed")
	ErrSignerScope      = errors.New("signer belongs to another invocation")
	ErrSignerAuthority  = errors.New("signer does not match authority")
	ErrMissingSignature = errors.New("missing signer")
)

// Scope 单次调用的作用域，调用结束后其下所有能力失效
type Scope struct {
	ended bool
}

// NewScope 创建调用作用域
func NewScope() *Scope {
	return &Scope{}
}

// End 结束作用域
func (s *Scope) End() {
	s.ended = true
}

// Ended 作用域是否已结束
func (s *Scope) Ended() bool {
	return s.ended
}

// Capability 委托签名能力，只能由 Deriver.Authorize 构造
type Capability struct {
	scope   *Scope
	address pubkey.Address
	seeds   Seeds
}

// Address 能力所代表的派生地址
func (c *Capability) Address() pubkey.Address {
	return c.address
}

// Seeds 返回种子元组副本
func (c *Capability) Seeds() Seeds {
	parents := make([]pubkey.Address, len(c.seeds.Parents))
	copy(parents, c.seeds.Parents)
	return Seeds{Label: c.seeds.Label, Parents: parents, Bump: c.seeds.Bump}
}

// Signer 为一次外部调用签发一次性签名
func (c *Capability) Signer() *Signer {
	return &Signer{capability: c}
}

// Signer 一次性签名，被一次外部调用消费
type Signer struct {
	capability *Capability
	used       bool
}

// Address 签名代表的地址
func (s *Signer) Address() pubkey.Address {
	if s == nil || s.capability == nil {
		return pubkey.Zero
	}
	return s.capability.address
}

// Redeem 由宿主在执行外部调用时消费签名
func (s *Signer) Redeem(scope *Scope, authority pubkey.Address) error {
	if s == nil || s.capability == nil {
		return ErrMissingSignature
	}
	if s.used {
		return ErrSignerConsumed
	}
	if s.capability.scope != scope {
		return ErrSignerScope
	}
	if scope.Ended() {
		return ErrScopeEnded
	}
	if s.capability.address != authority {
		return ErrSignerAuthority
	}
	s.used = true
	return nil
}
