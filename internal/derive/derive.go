package derive

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/blues/fundraiser/internal/pubkey"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// MaxSeedLen 单个种子的最大长度
	MaxSeedLen = 32
	// MaxParents 父身份数量上限
	MaxParents = 14

	marker = "ProgramDerivedAddress"
)

var (
	ErrAddressMismatch = errors.New("address mismatch")
	ErrOnCurve         = errors.New("derived address is on curve")
	ErrNoViableBump    = errors.New("no viable bump seed")
	ErrSeedTooLong     = errors.New("seed exceeds maximum length")
)

// Seeds 派生地址的种子元组
type Seeds struct {
	Label   string
	Parents []pubkey.Address
	Bump    byte
}

func (s Seeds) String() string {
	return fmt.Sprintf("%s/%d parents/bump %d", s.Label, len(s.Parents), s.Bump)
}

// Deriver 程序作用域的地址派生器，程序身份在构造时注入
type Deriver struct {
	program pubkey.Address
}

// NewDeriver 创建派生器
func NewDeriver(program pubkey.Address) *Deriver {
	return &Deriver{program: program}
}

// Program 返回程序身份
func (d *Deriver) Program() pubkey.Address {
	return d.program
}

// Create 按给定种子和 bump 计算派生地址。落在 ed25519 曲线上的结果被拒绝，
// 保证外部不可能持有对应私钥。
func (d *Deriver) Create(seeds Seeds) (pubkey.Address, error) {
	if len(seeds.Label) > MaxSeedLen {
		return pubkey.Zero, ErrSeedTooLong
	}
	if len(seeds.Parents) > MaxParents {
		return pubkey.Zero, fmt.Errorf("%w: %d parents", ErrSeedTooLong, len(seeds.Parents))
	}

	parts := make([][]byte, 0, len(seeds.Parents)+4)
	parts = append(parts, []byte(seeds.Label))
	for i := range seeds.Parents {
		parts = append(parts, seeds.Parents[i][:])
	}
	parts = append(parts, []byte{seeds.Bump}, d.program[:], []byte(marker))

	var addr pubkey.Address
	copy(addr[:], crypto.Keccak256(parts...))
	if IsOnCurve(addr) {
		return pubkey.Zero, ErrOnCurve
	}
	return addr, nil
}

// Find 从 255 向下搜索第一个可用的 bump
func (d *Deriver) Find(label string, parents ...pubkey.Address) (pubkey.Address, byte, error) {
	for bump := 255; bump >= 0; bump-- {
		addr, err := d.Create(Seeds{Label: label, Parents: parents, Bump: byte(bump)})
		if err == nil {
			return addr, byte(bump), nil
		}
		if !errors.Is(err, ErrOnCurve) {
			return pubkey.Zero, 0, err
		}
	}
	return pubkey.Zero, 0, ErrNoViableBump
}

// Verify 用种子重新派生并与传入地址比较
func (d *Deriver) Verify(supplied pubkey.Address, seeds Seeds) error {
	expected, err := d.Create(seeds)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAddressMismatch, err)
	}
	if expected != supplied {
		return ErrAddressMismatch
	}
	return nil
}

// Authorize 重新派生成功后，授予本次调用内对该地址的委托签名能力
func (d *Deriver) Authorize(scope *Scope, supplied pubkey.Address, seeds Seeds) (*Capability, error) {
	if err := d.Verify(supplied, seeds); err != nil {
		return nil, err
	}
	if scope == nil || scope.Ended() {
		return nil, ErrScopeEnded
	}
	parents := make([]pubkey.Address, len(seeds.Parents))
	copy(parents, seeds.Parents)
	return &Capability{
		scope:   scope,
		address: supplied,
		seeds:   Seeds{Label: seeds.Label, Parents: parents, Bump: seeds.Bump},
	}, nil
}

// IsOnCurve 判断32字节是否为合法的 ed25519 点编码
func IsOnCurve(addr pubkey.Address) bool {
	_, err := new(edwards25519.Point).SetBytes(addr[:])
	return err == nil
}
