package state

import (
	"encoding/binary"

	"github.com/blues/fundraiser/internal/account"
	"github.com/blues/fundraiser/internal/pubkey"
)

// 活动记录布局，无填充
const (
	offMaker         = 0
	offMint          = offMaker + pubkey.Size
	offAmountToRaise = offMint + pubkey.Size
	offCurrentAmount = offAmountToRaise + 8
	offDuration      = offCurrentAmount + 8
	offTimeStarted   = offDuration + 1
	offBump          = offTimeStarted + 8

	// CampaignLen 活动记录总长度
	CampaignLen = offBump + 1
)

// CampaignData 活动记录的值拷贝
type CampaignData struct {
	Maker         pubkey.Address `json:"maker"`
	Mint          pubkey.Address `json:"mint"`
	AmountToRaise uint64         `json:"amount_to_raise"`
	CurrentAmount uint64         `json:"current_amount"`
	Duration      uint8          `json:"duration"`
	TimeStarted   int64          `json:"time_started"`
	Bump          uint8          `json:"bump"`
}

// Encode 编码为定长字节
func (d CampaignData) Encode() []byte {
	buf := account.NewData(CampaignLen)
	encodeCampaign(buf, d)
	return buf
}

func encodeCampaign(buf []byte, d CampaignData) {
	copy(buf[offMaker:offMint], d.Maker[:])
	copy(buf[offMint:offAmountToRaise], d.Mint[:])
	binary.LittleEndian.PutUint64(buf[offAmountToRaise:], d.AmountToRaise)
	binary.LittleEndian.PutUint64(buf[offCurrentAmount:], d.CurrentAmount)
	buf[offDuration] = d.Duration
	binary.LittleEndian.PutUint64(buf[offTimeStarted:], uint64(d.TimeStarted))
	buf[offBump] = d.Bump
}

// DecodeCampaign 从字节解码出值拷贝，不持有缓冲区
func DecodeCampaign(buf []byte) (CampaignData, error) {
	if err := checkLayout(buf, CampaignLen, 1); err != nil {
		return CampaignData{}, err
	}
	v := Campaign{lease: lease{buf: buf}}
	return v.Data(), nil
}

// Campaign 活动记录视图，读写直接作用于账户缓冲区
type Campaign struct {
	lease
}

// LoadCampaign 租借账户数据并返回活动视图
func LoadCampaign(acc *account.Account) (*Campaign, error) {
	l, err := acquire(acc, CampaignLen, 1)
	if err != nil {
		return nil, err
	}
	return &Campaign{lease: l}, nil
}

func (c *Campaign) Maker() pubkey.Address {
	var a pubkey.Address
	copy(a[:], c.bytes()[offMaker:offMint])
	return a
}

func (c *Campaign) Mint() pubkey.Address {
	var a pubkey.Address
	copy(a[:], c.bytes()[offMint:offAmountToRaise])
	return a
}

func (c *Campaign) AmountToRaise() uint64 {
	return binary.LittleEndian.Uint64(c.bytes()[offAmountToRaise:])
}

func (c *Campaign) CurrentAmount() uint64 {
	return binary.LittleEndian.Uint64(c.bytes()[offCurrentAmount:])
}

func (c *Campaign) SetCurrentAmount(v uint64) {
	binary.LittleEndian.PutUint64(c.bytes()[offCurrentAmount:], v)
}

func (c *Campaign) Duration() uint8 {
	return c.bytes()[offDuration]
}

func (c *Campaign) TimeStarted() int64 {
	return int64(binary.LittleEndian.Uint64(c.bytes()[offTimeStarted:]))
}

func (c *Campaign) Bump() uint8 {
	return c.bytes()[offBump]
}

// Init 写入全部字段
func (c *Campaign) Init(d CampaignData) {
	encodeCampaign(c.bytes(), d)
}

// Data 返回当前字段的值拷贝
func (c *Campaign) Data() CampaignData {
	return CampaignData{
		Maker:         c.Maker(),
		Mint:          c.Mint(),
		AmountToRaise: c.AmountToRaise(),
		CurrentAmount: c.CurrentAmount(),
		Duration:      c.Duration(),
		TimeStarted:   c.TimeStarted(),
		Bump:          c.Bump(),
	}
}
