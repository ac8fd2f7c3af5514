package program

import (
	"errors"

	"github.com/blues/fundraiser/internal/derive"
	"github.com/blues/fundraiser/internal/state"
)

var (
	ErrMalformedRecord         = state.ErrMalformedRecord
	ErrAddressMismatch         = derive.ErrAddressMismatch
	ErrUnauthorized            = errors.New("unauthorized")
	ErrOwnershipMismatch       = errors.New("ownership mismatch")
	ErrMintMismatch            = errors.New("mint mismatch")
	ErrAmountTooSmall          = errors.New("amount too small")
	ErrWindowClosed            = errors.New("campaign window closed")
	ErrWindowStillOpen         = errors.New("campaign window still open")
	ErrGoalNotReached          = errors.New("goal not reached")
	ErrGoalAlreadyReached      = errors.New("goal already reached")
	ErrContributionCapExceeded = errors.New("contribution cap exceeded")
	ErrInvalidArgument         = errors.New("invalid argument")
	ErrInvalidInstructionData  = errors.New("invalid instruction data")
	ErrNotEnoughAccountKeys    = errors.New("not enough account keys")
	ErrArithmeticOverflow      = errors.New("arithmetic overflow")
)

// KindExternal 外部调用失败
const KindExternal = "ExternalCallFailed"

var kinds = []struct {
	err  error
	name string
}{
	{ErrMalformedRecord, "MalformedRecord"},
	{ErrAddressMismatch, "AddressMismatch"},
	{ErrUnauthorized, "Unauthorized"},
	{ErrOwnershipMismatch, "OwnershipMismatch"},
	{ErrMintMismatch, "MintMismatch"},
	{ErrAmountTooSmall, "AmountTooSmall"},
	{ErrWindowClosed, "WindowClosed"},
	{ErrWindowStillOpen, "WindowStillOpen"},
	{ErrGoalNotReached, "GoalNotReached"},
	{ErrGoalAlreadyReached, "GoalAlreadyReached"},
	{ErrContributionCapExceeded, "ContributionCapExceeded"},
	{ErrInvalidArgument, "InvalidArgument"},
	{ErrInvalidInstructionData, "InvalidInstructionData"},
	{ErrNotEnoughAccountKeys, "NotEnoughAccountKeys"},
	{ErrArithmeticOverflow, "ArithmeticOverflow"},
}

// Kind 返回错误的稳定分类名，成功时为空串
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return KindExternal
}
