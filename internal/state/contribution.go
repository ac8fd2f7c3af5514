package state

import (
	"encoding/binary"

	"github.com/blues/fundraiser/internal/account"
)

const (
	// ContributionLen 贡献记录长度
	ContributionLen   = 8
	contributionAlign = 8
)

// Contribution 贡献记录视图
type Contribution struct {
	lease
}

// LoadContribution 租借账户数据并返回贡献视图
func LoadContribution(acc *account.Account) (*Contribution, error) {
	l, err := acquire(acc, ContributionLen, contributionAlign)
	if err != nil {
		return nil, err
	}
	return &Contribution{lease: l}, nil
}

// DecodeContribution 解码贡献金额
func DecodeContribution(buf []byte) (uint64, error) {
	if err := checkLayout(buf, ContributionLen, contributionAlign); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf), nil
}

// EncodeContribution 编码贡献金额
func EncodeContribution(amount uint64) []byte {
	buf := account.NewData(ContributionLen)
	binary.LittleEndian.PutUint64(buf, amount)
	return buf
}

func (c *Contribution) Amount() uint64 {
	return binary.LittleEndian.Uint64(c.bytes())
}

func (c *Contribution) SetAmount(v uint64) {
	binary.LittleEndian.PutUint64(c.bytes(), v)
}
