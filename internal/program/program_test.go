package program

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/blues/fundraiser/internal/pubkey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstructionEncoding(t *testing.T) {
	initData := InitializeArgs{Bump: 253, AmountToRaise: 1_000_000, DurationDays: 7}.Encode()
	assert.Equal(t, []byte{0, 253, 0x40, 0x42, 0x0f, 0, 0, 0, 0, 0, 7}, initData)

	op, payload, err := SplitInstruction(initData)
	require.NoError(t, err)
	assert.Equal(t, OpInitialize, op)
	args, err := DecodeInitialize(payload)
	require.NoError(t, err)
	assert.Equal(t, InitializeArgs{Bump: 253, AmountToRaise: 1_000_000, DurationDays: 7}, args)

	contribute := ContributeArgs{Bump: 9, Amount: 20_000}.Encode()
	assert.Len(t, contribute, 10)
	op, payload, err = SplitInstruction(contribute)
	require.NoError(t, err)
	assert.Equal(t, OpContribute, op)
	cargs, err := DecodeContribute(payload)
	require.NoError(t, err)
	assert.Equal(t, uint64(20_000), cargs.Amount)

	assert.Equal(t, []byte{2}, EncodeCheckout())
	assert.Equal(t, []byte{3, 4}, RefundArgs{Bump: 4}.Encode())
}

func TestInstructionRejectsBadData(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"unknown opcode", []byte{4}},
		{"short initialize", []byte{0, 1, 2}},
		{"long contribute", append(ContributeArgs{}.Encode(), 0)},
		{"short refund", []byte{3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProcessor(pubkey.Zero, BpsScale)
			require.NoError(t, err)
			err = p.Process(nil, nil, tt.data)
			assert.ErrorIs(t, err, ErrInvalidInstructionData)
			assert.Equal(t, "InvalidInstructionData", Kind(err))
		})
	}
}

func TestOpcodeString(t *testing.T) {
	assert.Equal(t, "contribute", OpContribute.String())
	assert.Equal(t, "opcode(9)", Opcode(9).String())
}

func TestNewProcessorBpsRange(t *testing.T) {
	_, err := NewProcessor(pubkey.Zero, 0)
	assert.Error(t, err)
	_, err = NewProcessor(pubkey.Zero, BpsScale+1)
	assert.Error(t, err)

	p, err := NewProcessor(pubkey.Zero, 1)
	require.NoError(t, err)
	assert.Equal(t, pubkey.Zero, p.ID())
}

func TestContributionCap(t *testing.T) {
	assert.Equal(t, uint64(10_000_000), ContributionCap(100_000_000, 1000))
	assert.Equal(t, uint64(100_000_000), ContributionCap(100_000_000, BpsScale))
	assert.Equal(t, uint64(0), ContributionCap(9_999, 1))
	assert.Equal(t, uint64(1), ContributionCap(10_000, 1))
	// 中间乘积超出64位
	assert.Equal(t, uint64(math.MaxUint64/2), ContributionCap(math.MaxUint64, 5000))
}

func TestMinimumContribution(t *testing.T) {
	unit, ok := MinimumContribution(0)
	assert.True(t, ok)
	assert.Equal(t, uint64(1), unit)

	unit, ok = MinimumContribution(6)
	assert.True(t, ok)
	assert.Equal(t, uint64(1_000_000), unit)

	unit, ok = MinimumContribution(19)
	assert.True(t, ok)
	assert.Equal(t, uint64(10_000_000_000_000_000_000), unit)

	_, ok = MinimumContribution(20)
	assert.False(t, ok)
}

func TestWindows(t *testing.T) {
	const started = int64(1_000)
	const days = uint8(5)
	end := started + int64(days)*SecondsPerDay

	tests := []struct {
		now     int64
		open    bool
		elapsed bool
	}{
		{started - 10, true, false},
		{started, true, false},
		{end - 1, true, false},
		{end, false, false},
		{end + SecondsPerDay - 1, false, false},
		{end + SecondsPerDay, false, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("now=%d", tt.now), func(t *testing.T) {
			assert.Equal(t, tt.open, WindowOpen(tt.now, started, days))
			assert.Equal(t, tt.elapsed, WindowElapsed(tt.now, started, days))
		})
	}

	// 零天的活动在一整天后才可结算
	assert.False(t, WindowOpen(started, started, 0))
	assert.False(t, WindowElapsed(started+SecondsPerDay-1, started, 0))
	assert.True(t, WindowElapsed(started+SecondsPerDay, started, 0))
}

func TestKind(t *testing.T) {
	assert.Equal(t, "", Kind(nil))
	assert.Equal(t, "GoalNotReached", Kind(fmt.Errorf("checkout: %w", ErrGoalNotReached)))
	assert.Equal(t, "MalformedRecord", Kind(ErrMalformedRecord))
	assert.Equal(t, "AddressMismatch", Kind(ErrAddressMismatch))
	assert.Equal(t, KindExternal, Kind(errors.New("token transfer failed")))
}
