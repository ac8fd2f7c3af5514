package state

import (
	"testing"

	"github.com/blues/fundraiser/internal/account"
	"github.com/blues/fundraiser/internal/pubkey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testMaker = pubkey.MustParse("0x0101010101010101010101010101010101010101010101010101010101010101")
	testMint  = pubkey.MustParse("0x0202020202020202020202020202020202020202020202020202020202020202")
	testOwner = pubkey.MustParse("0x4646464646464646464646464646464646464646464646464646464646464646")
)

func sampleCampaign() CampaignData {
	return CampaignData{
		Maker:         testMaker,
		Mint:          testMint,
		AmountToRaise: 100_000_000,
		CurrentAmount: 2_500_000,
		Duration:      5,
		TimeStarted:   1_700_000_000,
		Bump:          254,
	}
}

func TestCampaignLayout(t *testing.T) {
	assert.Equal(t, 90, CampaignLen)

	buf := sampleCampaign().Encode()
	require.Len(t, buf, CampaignLen)
	assert.Equal(t, testMaker[:], buf[0:32])
	assert.Equal(t, testMint[:], buf[32:64])
	assert.Equal(t, []byte{0x00, 0xe1, 0xf5, 0x05, 0, 0, 0, 0}, buf[64:72])
	assert.Equal(t, byte(5), buf[80])
	assert.Equal(t, byte(254), buf[89])

	decoded, err := DecodeCampaign(buf)
	require.NoError(t, err)
	assert.Equal(t, sampleCampaign(), decoded)
}

func TestDecodeRejectsWrongLength(t *testing.T) {
	_, err := DecodeCampaign(make([]byte, CampaignLen-1))
	assert.ErrorIs(t, err, ErrMalformedRecord)

	_, err = DecodeCampaign(make([]byte, CampaignLen+1))
	assert.ErrorIs(t, err, ErrMalformedRecord)

	_, err = DecodeContribution(nil)
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestContributionRequiresAlignment(t *testing.T) {
	aligned := EncodeContribution(42)
	amount, err := DecodeContribution(aligned)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), amount)

	shifted := account.NewData(ContributionLen + 1)[1:]
	_, err = DecodeContribution(shifted)
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestCampaignViewWritesThrough(t *testing.T) {
	acc := &account.Account{Address: testMaker, Owner: testOwner, Data: account.NewData(CampaignLen)}

	view, err := LoadCampaign(acc)
	require.NoError(t, err)
	view.Init(sampleCampaign())
	view.SetCurrentAmount(3_000_000)
	assert.Equal(t, uint64(3_000_000), view.CurrentAmount())
	view.Release()

	decoded, err := DecodeCampaign(acc.Data)
	require.NoError(t, err)
	assert.Equal(t, uint64(3_000_000), decoded.CurrentAmount)
	assert.Equal(t, testMaker, decoded.Maker)
}

func TestViewHoldsExclusiveBorrow(t *testing.T) {
	acc := &account.Account{Data: EncodeContribution(7)}

	view, err := LoadContribution(acc)
	require.NoError(t, err)
	assert.True(t, acc.Borrowed())

	_, err = LoadContribution(acc)
	assert.ErrorIs(t, err, account.ErrAccountBorrowed)

	view.SetAmount(8)
	assert.Equal(t, uint64(8), view.Amount())
	view.Release()
	assert.False(t, acc.Borrowed())

	// 释放两次无副作用
	view.Release()

	again, err := LoadContribution(acc)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), again.Amount())
	again.Release()
}

func TestReleasedViewPanics(t *testing.T) {
	acc := &account.Account{Data: EncodeContribution(1)}
	view, err := LoadContribution(acc)
	require.NoError(t, err)
	view.Release()

	assert.PanicsWithValue(t, ErrViewReleased, func() { view.Amount() })
}

func TestLoadReleasesBorrowOnLayoutError(t *testing.T) {
	acc := &account.Account{Data: account.NewData(CampaignLen - 1)}

	_, err := LoadCampaign(acc)
	assert.ErrorIs(t, err, ErrMalformedRecord)
	assert.False(t, acc.Borrowed())
}
