package token

import (
	"encoding/binary"
	"fmt"

	"github.com/blues/fundraiser/internal/account"
	"github.com/blues/fundraiser/internal/pubkey"
)

// 代币账户布局: mint | owner | amount
const (
	AccountLen = pubkey.Size*2 + 8
	// MintLen 币种账户布局: authority | supply | decimals
	MintLen = pubkey.Size + 8 + 1
)

// AccountData 代币账户
type AccountData struct {
	Mint   pubkey.Address `json:"mint"`
	Owner  pubkey.Address `json:"owner"`
	Amount uint64         `json:"amount"`
}

// MintData 币种
type MintData struct {
	Authority pubkey.Address `json:"authority"`
	Supply    uint64         `json:"supply"`
	Decimals  uint8          `json:"decimals"`
}

// DecodeAccount 解码代币账户
func DecodeAccount(buf []byte) (AccountData, error) {
	if len(buf) != AccountLen {
		return AccountData{}, fmt.Errorf("%w: token account length %d", ErrInvalidAccount, len(buf))
	}
	var d AccountData
	copy(d.Mint[:], buf[0:32])
	copy(d.Owner[:], buf[32:64])
	d.Amount = binary.LittleEndian.Uint64(buf[64:72])
	return d, nil
}

// Encode 编码代币账户
func (d AccountData) Encode() []byte {
	buf := account.NewData(AccountLen)
	d.put(buf)
	return buf
}

func (d AccountData) put(buf []byte) {
	copy(buf[0:32], d.Mint[:])
	copy(buf[32:64], d.Owner[:])
	binary.LittleEndian.PutUint64(buf[64:72], d.Amount)
}

// DecodeMint 解码币种
func DecodeMint(buf []byte) (MintData, error) {
	if len(buf) != MintLen {
		return MintData{}, fmt.Errorf("%w: mint length %d", ErrInvalidAccount, len(buf))
	}
	var d MintData
	copy(d.Authority[:], buf[0:32])
	d.Supply = binary.LittleEndian.Uint64(buf[32:40])
	d.Decimals = buf[40]
	return d, nil
}

// Encode 编码币种
func (d MintData) Encode() []byte {
	buf := account.NewData(MintLen)
	d.put(buf)
	return buf
}

func (d MintData) put(buf []byte) {
	copy(buf[0:32], d.Authority[:])
	binary.LittleEndian.PutUint64(buf[32:40], d.Supply)
	buf[40] = d.Decimals
}
