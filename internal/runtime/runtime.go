package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blues/fundraiser/internal/account"
	"github.com/blues/fundraiser/internal/derive"
	"github.com/blues/fundraiser/internal/logger"
	"github.com/blues/fundraiser/internal/program"
	"github.com/blues/fundraiser/internal/pubkey"
	"github.com/blues/fundraiser/internal/token"
	"go.uber.org/zap"
)

var (
	ErrReadOnlyModified     = errors.New("read-only account modified")
	ErrLamportsNotConserved = errors.New("lamports not conserved")
	ErrBorrowLeaked         = errors.New("account data still borrowed after invocation")
	ErrProgramPanic         = errors.New("program panicked")
	ErrDuplicateTransaction = errors.New("transaction already executed")
)

// Program 可被宿主调用的程序
type Program interface {
	ID() pubkey.Address
	Process(env program.Env, accounts []*account.Account, data []byte) error
}

// CommitHook 每次调用结束后收到回执，用于持久化和日志
type CommitHook interface {
	OnCommit(ctx context.Context, receipt *Receipt) error
}

// Receipt 调用回执
type Receipt struct {
	ID        string
	Opcode    program.Opcode
	Message   Message
	Success   bool
	Err       error
	Kind      string
	Timestamp int64
	// Accounts 成功时为提交后的账户状态，Previous 为对应的调用前状态
	Accounts []*account.Account
	Previous []*account.Account
}

// Options 宿主配置
type Options struct {
	SystemProgram pubkey.Address
	Clock         Clock
	Rent          Rent
}

// Runtime 参考宿主：校验签名、锁定账户集合、快照并在失败时整体丢弃
type Runtime struct {
	bank    *Bank
	program Program
	token   *token.Service
	system  pubkey.Address
	clock   Clock
	rent    Rent
	hooks   []CommitHook

	// executed 已提交的交易标识，拒绝重放
	executedMu sync.Mutex
	executed   map[string]struct{}
}

// New 创建宿主
func New(bank *Bank, prog Program, tokens *token.Service, opts Options) *Runtime {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Rent == (Rent{}) {
		opts.Rent = DefaultRent
	}
	return &Runtime{
		bank:     bank,
		program:  prog,
		token:    tokens,
		system:   opts.SystemProgram,
		clock:    opts.Clock,
		rent:     opts.Rent,
		executed: make(map[string]struct{}),
	}
}

// AddHook 注册提交回调
func (r *Runtime) AddHook(h CommitHook) {
	r.hooks = append(r.hooks, h)
}

func (r *Runtime) Bank() *Bank {
	return r.bank
}

func (r *Runtime) Token() *token.Service {
	return r.token
}

func (r *Runtime) Clock() Clock {
	return r.clock
}

func (r *Runtime) Rent() Rent {
	return r.rent
}

func (r *Runtime) ProgramID() pubkey.Address {
	return r.program.ID()
}

func (r *Runtime) SystemProgram() pubkey.Address {
	return r.system
}

// RestoreExecuted 恢复已提交的交易标识，重启后继续拒绝重放
func (r *Runtime) RestoreExecuted(ids []string) {
	r.executedMu.Lock()
	defer r.executedMu.Unlock()
	for _, id := range ids {
		r.executed[id] = struct{}{}
	}
}

func (r *Runtime) isExecuted(id string) bool {
	r.executedMu.Lock()
	defer r.executedMu.Unlock()
	_, ok := r.executed[id]
	return ok
}

// markExecuted 记录交易标识，已存在时返回 false
func (r *Runtime) markExecuted(id string) bool {
	r.executedMu.Lock()
	defer r.executedMu.Unlock()
	if _, ok := r.executed[id]; ok {
		return false
	}
	r.executed[id] = struct{}{}
	return true
}

// Execute 执行一笔交易，失败时不产生任何状态变化。
// 回调在账户集合仍被锁定时执行，持久化顺序与提交顺序一致。
func (r *Runtime) Execute(ctx context.Context, tx *Transaction) (*Receipt, error) {
	receipt := &Receipt{ID: tx.ID(), Message: tx.Message, Timestamp: r.clock.Now()}
	if len(tx.Message.Data) > 0 {
		receipt.Opcode = program.Opcode(tx.Message.Data[0])
	}
	log := logger.With(zap.String("tx", receipt.ID), zap.Stringer("opcode", receipt.Opcode))

	addrs := make([]pubkey.Address, len(tx.Message.Accounts))
	for i, meta := range tx.Message.Accounts {
		addrs[i] = meta.Address
	}
	unlock := r.bank.lock(addrs)
	defer unlock()

	start := time.Now()
	err := r.execute(tx, receipt)
	receipt.Success = err == nil
	receipt.Err = err
	receipt.Kind = Kind(err)

	if err != nil {
		log.Warn("invocation failed in %s: %s: %v", time.Since(start), receipt.Kind, err)
	} else {
		log.Info("invocation committed in %s, %d accounts", time.Since(start), len(receipt.Accounts))
	}

	for _, h := range r.hooks {
		if hookErr := h.OnCommit(ctx, receipt); hookErr != nil {
			log.Error("commit hook failed: %v", hookErr)
		}
	}
	return receipt, err
}

func (r *Runtime) execute(tx *Transaction, receipt *Receipt) error {
	if tx.Message.ProgramID != r.program.ID() {
		return fmt.Errorf("%w: %s", ErrUnknownProgram, tx.Message.ProgramID)
	}
	if err := tx.verify(); err != nil {
		return err
	}
	if r.isExecuted(receipt.ID) {
		return fmt.Errorf("%w: %s", ErrDuplicateTransaction, receipt.ID)
	}

	n := len(tx.Message.Accounts)

	// 同一地址重复出现时共享同一个账户对象
	loaded := make(map[pubkey.Address]*account.Account, n)
	snapshots := make(map[pubkey.Address]*account.Account, n)
	writable := make(map[pubkey.Address]bool, n)
	signer := make(map[pubkey.Address]bool, n)
	order := make([]pubkey.Address, 0, n)
	for _, meta := range tx.Message.Accounts {
		writable[meta.Address] = writable[meta.Address] || meta.IsWritable
		signer[meta.Address] = signer[meta.Address] || meta.IsSigner
		if _, ok := loaded[meta.Address]; ok {
			continue
		}
		acc, ok := r.bank.Get(meta.Address)
		if !ok {
			acc = &account.Account{Address: meta.Address, Owner: r.system}
		}
		loaded[meta.Address] = acc
		snapshots[meta.Address] = acc.Clone()
		order = append(order, meta.Address)
	}
	accounts := make([]*account.Account, len(tx.Message.Accounts))
	for i, meta := range tx.Message.Accounts {
		acc := loaded[meta.Address]
		acc.SetMeta(signer[meta.Address], writable[meta.Address])
		accounts[i] = acc
	}

	inv := &invocation{runtime: r, scope: derive.NewScope(), now: r.clock.Now()}
	err := r.call(inv, accounts, tx.Message.Data)
	if err != nil {
		return err
	}

	var before, after uint64
	committed := make([]*account.Account, 0, len(order))
	previous := make([]*account.Account, 0, len(order))
	for _, addr := range order {
		acc, snap := loaded[addr], snapshots[addr]
		if acc.Borrowed() {
			return fmt.Errorf("%w: %s", ErrBorrowLeaked, addr)
		}
		before += snap.Lamports
		after += acc.Lamports
		if !writable[addr] && changed(snap, acc) {
			return fmt.Errorf("%w: %s", ErrReadOnlyModified, addr)
		}
		committed = append(committed, acc)
		previous = append(previous, snap)
	}
	if before != after {
		return fmt.Errorf("%w: %d before, %d after", ErrLamportsNotConserved, before, after)
	}
	// 不同账户集合上的同一交易不共享锁，这里原子地占用标识
	if !r.markExecuted(receipt.ID) {
		return fmt.Errorf("%w: %s", ErrDuplicateTransaction, receipt.ID)
	}

	r.bank.commit(committed)
	receipt.Accounts = committed
	receipt.Previous = previous
	return nil
}

// call 调用程序，程序内的 panic 按失败处理
func (r *Runtime) call(inv *invocation, accounts []*account.Account, data []byte) (err error) {
	defer func() {
		inv.scope.End()
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrProgramPanic, p)
		}
	}()
	return r.program.Process(inv, accounts, data)
}

func changed(a, b *account.Account) bool {
	return a.Lamports != b.Lamports || a.Owner != b.Owner || !bytes.Equal(a.Data, b.Data)
}

// Kind 错误分类，宿主层错误优先
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingSignature), errors.Is(err, ErrBadSignature):
		return "SignatureVerificationFailed"
	case errors.Is(err, ErrUnknownProgram):
		return "UnknownProgram"
	case errors.Is(err, ErrDuplicateTransaction):
		return "DuplicateTransaction"
	}
	return program.Kind(err)
}
