package logic

import (
	"context"
	"errors"

	"github.com/blues/fundraiser/internal/account"
	"github.com/blues/fundraiser/internal/pubkey"
	"github.com/blues/fundraiser/internal/runtime"
	"github.com/blues/fundraiser/internal/state"
	"github.com/blues/fundraiser/internal/token"
)

var ErrAccountNotFound = errors.New("账户不存在")

// TransactionLogic 提交交易与查询账户
type TransactionLogic struct {
	rt *runtime.Runtime
}

// NewTransactionLogic 创建交易逻辑
func NewTransactionLogic(rt *runtime.Runtime) *TransactionLogic {
	return &TransactionLogic{rt: rt}
}

// Submit 执行已签名交易。调用失败时回执和错误同时返回
func (l *TransactionLogic) Submit(ctx context.Context, tx *runtime.Transaction) (*runtime.Receipt, error) {
	return l.rt.Execute(ctx, tx)
}

// AccountView 账户及其解码后的内容
type AccountView struct {
	Account *account.Account
	Kind    string
	Decoded interface{}
}

// GetAccount 查询账户，能识别的布局一并解码
func (l *TransactionLogic) GetAccount(addr pubkey.Address) (*AccountView, error) {
	acc, ok := l.rt.Bank().Get(addr)
	if !ok {
		return nil, ErrAccountNotFound
	}
	view := &AccountView{Account: acc, Kind: "system"}
	switch acc.Owner {
	case l.rt.ProgramID():
		if d, err := state.DecodeCampaign(acc.Data); err == nil {
			view.Kind, view.Decoded = "campaign", d
		} else if amount, err := state.DecodeContribution(acc.Data); err == nil {
			view.Kind, view.Decoded = "contribution", map[string]uint64{"amount": amount}
		} else {
			view.Kind = "program"
		}
	case l.rt.Token().ID():
		if d, err := token.DecodeAccount(acc.Data); err == nil {
			view.Kind, view.Decoded = "token_account", d
		} else if d, err := token.DecodeMint(acc.Data); err == nil {
			view.Kind, view.Decoded = "mint", d
		} else {
			view.Kind = "token"
		}
	}
	return view, nil
}
