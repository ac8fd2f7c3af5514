package pubkey

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Size 地址字节长度
const Size = 32

// Address 32字节账户地址
type Address [Size]byte

// Zero 零地址，同时作为系统程序地址的默认值
var Zero Address

// FromBytes 从字节切片构造地址
func FromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != Size {
		return a, fmt.Errorf("invalid address length %d", len(b))
	}
	copy(a[:], b)
	return a, nil
}

// FromPublicKey 由 ed25519 公钥得到地址
func FromPublicKey(pub ed25519.PublicKey) Address {
	var a Address
	copy(a[:], pub)
	return a
}

// Parse 解析 0x 前缀的十六进制地址
func Parse(s string) (Address, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return Zero, fmt.Errorf("parse address %q: %w", s, err)
	}
	return FromBytes(b)
}

// MustParse 解析地址，失败时 panic，仅用于常量
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) String() string {
	return hexutil.Encode(a[:])
}

// Bytes 返回地址字节
func (a Address) Bytes() []byte {
	return a[:]
}

// IsZero 是否零地址
func (a Address) IsZero() bool {
	return a == Zero
}

// Compare 字典序比较，用于加锁排序
func (a Address) Compare(b Address) int {
	return bytes.Compare(a[:], b[:])
}

// MarshalText 实现 encoding.TextMarshaler
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
