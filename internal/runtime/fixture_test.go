package runtime_test

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/blues/fundraiser/internal/logger"
	"github.com/blues/fundraiser/internal/program"
	"github.com/blues/fundraiser/internal/pubkey"
	"github.com/blues/fundraiser/internal/runtime"
	"github.com/blues/fundraiser/internal/state"
	"github.com/blues/fundraiser/internal/token"
	"github.com/stretchr/testify/require"
)

const (
	startTime = int64(1000)
	day       = int64(program.SecondsPerDay)
	decimals  = 4
	target    = uint64(100_000_000)
	window    = uint8(5)
)

var (
	programID = pubkey.MustParse("0x4646464646464646464646464646464646464646464646464646464646464646")
	tokenID   = pubkey.MustParse("0x5454545454545454545454545454545454545454545454545454545454545454")
	systemID  = pubkey.Zero
)

func init() {
	logger.SetDefaultLogger(logger.NewNop())
}

func newKey(seed byte) (ed25519.PrivateKey, pubkey.Address) {
	priv := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{seed}, ed25519.SeedSize))
	return priv, pubkey.FromPublicKey(priv.Public().(ed25519.PublicKey))
}

func signer(addr pubkey.Address) runtime.AccountMeta {
	return runtime.AccountMeta{Address: addr, IsSigner: true, IsWritable: true}
}

func writable(addr pubkey.Address) runtime.AccountMeta {
	return runtime.AccountMeta{Address: addr, IsWritable: true}
}

func readonly(addr pubkey.Address) runtime.AccountMeta {
	return runtime.AccountMeta{Address: addr}
}

type contributor struct {
	key    ed25519.PrivateKey
	addr   pubkey.Address
	tokens pubkey.Address
	record pubkey.Address
	bump   byte
}

type fixture struct {
	t     *testing.T
	rt    *runtime.Runtime
	clock *runtime.FixedClock
	proc  *program.Processor
	nonce uint64

	mint pubkey.Address

	makerKey     ed25519.PrivateKey
	maker        pubkey.Address
	makerTokens  pubkey.Address
	campaign     pubkey.Address
	campaignBump byte
	escrow       pubkey.Address
}

func newFixture(t *testing.T, bps uint64) *fixture {
	t.Helper()
	proc, err := program.NewProcessor(programID, bps)
	require.NoError(t, err)

	clock := runtime.NewFixedClock(startTime)
	rt := runtime.New(runtime.NewBank(), proc, token.NewService(tokenID), runtime.Options{
		SystemProgram: systemID,
		Clock:         clock,
	})
	f := &fixture{t: t, rt: rt, clock: clock, proc: proc}

	_, authority := newKey(200)
	_, f.mint = newKey(201)
	require.NoError(t, rt.CreateMint(f.mint, authority, decimals))

	f.makerKey, f.maker = newKey(1)
	require.NoError(t, rt.Airdrop(f.maker, 10_000_000_000))
	f.makerTokens, err = rt.CreateTokenAccount(f.maker, f.mint)
	require.NoError(t, err)

	f.campaign, f.campaignBump, err = proc.CampaignAddress(f.maker)
	require.NoError(t, err)
	f.escrow, err = rt.Token().AssociatedAddress(f.campaign, f.mint)
	require.NoError(t, err)
	return f
}

// at 把时钟设置为活动开始后的第 days 天再加 seconds 秒
func (f *fixture) at(days, seconds int64) {
	f.clock.Set(startTime + days*day + seconds)
}

func (f *fixture) send(keys []ed25519.PrivateKey, data []byte, metas ...runtime.AccountMeta) (*runtime.Receipt, error) {
	f.t.Helper()
	f.nonce++
	tx, err := runtime.NewTransaction(runtime.Message{
		ProgramID: programID,
		Accounts:  metas,
		Data:      data,
		Nonce:     f.nonce,
	}, keys...)
	require.NoError(f.t, err)
	return f.rt.Execute(context.Background(), tx)
}

func (f *fixture) initialize(amount uint64, days uint8) error {
	_, err := f.send([]ed25519.PrivateKey{f.makerKey},
		program.InitializeArgs{Bump: f.campaignBump, AmountToRaise: amount, DurationDays: days}.Encode(),
		signer(f.maker), readonly(f.mint), writable(f.campaign), writable(f.escrow), readonly(systemID), readonly(tokenID))
	return err
}

func (f *fixture) newContributor(seed byte, tokens uint64) *contributor {
	f.t.Helper()
	c := &contributor{}
	c.key, c.addr = newKey(seed)
	require.NoError(f.t, f.rt.Airdrop(c.addr, 1_000_000_000))
	var err error
	c.tokens, err = f.rt.CreateTokenAccount(c.addr, f.mint)
	require.NoError(f.t, err)
	require.NoError(f.t, f.rt.MintTo(f.mint, c.tokens, tokens))
	c.record, c.bump, err = f.proc.ContributionAddress(f.campaign, c.addr)
	require.NoError(f.t, err)
	return c
}

func (f *fixture) contribute(c *contributor, amount uint64) (*runtime.Receipt, error) {
	return f.send([]ed25519.PrivateKey{c.key},
		program.ContributeArgs{Bump: c.bump, Amount: amount}.Encode(),
		signer(c.addr), readonly(f.mint), writable(f.campaign), writable(c.tokens),
		writable(c.record), writable(f.escrow), readonly(tokenID), readonly(systemID))
}

func (f *fixture) checkout() (*runtime.Receipt, error) {
	return f.send([]ed25519.PrivateKey{f.makerKey}, program.EncodeCheckout(),
		signer(f.maker), readonly(f.mint), writable(f.campaign), writable(f.escrow),
		writable(f.makerTokens), readonly(tokenID), readonly(systemID))
}

func (f *fixture) refund(c *contributor) (*runtime.Receipt, error) {
	return f.send([]ed25519.PrivateKey{c.key}, program.RefundArgs{Bump: c.bump}.Encode(),
		signer(c.addr), writable(f.maker), readonly(f.mint), writable(f.campaign), writable(c.record),
		writable(c.tokens), writable(f.escrow), readonly(tokenID), readonly(systemID))
}

func (f *fixture) tokenBalance(addr pubkey.Address) uint64 {
	f.t.Helper()
	amount, err := f.rt.TokenBalance(addr)
	require.NoError(f.t, err)
	return amount
}

func (f *fixture) lamports(addr pubkey.Address) uint64 {
	acc, ok := f.rt.Bank().Get(addr)
	if !ok {
		return 0
	}
	return acc.Lamports
}

func (f *fixture) allocated(addr pubkey.Address) bool {
	_, ok := f.rt.Bank().Get(addr)
	return ok
}

func (f *fixture) campaignRecord() state.CampaignData {
	f.t.Helper()
	acc, ok := f.rt.Bank().Get(f.campaign)
	require.True(f.t, ok, "campaign not allocated")
	d, err := state.DecodeCampaign(acc.Data)
	require.NoError(f.t, err)
	return d
}

func (f *fixture) contributionAmount(c *contributor) uint64 {
	f.t.Helper()
	acc, ok := f.rt.Bank().Get(c.record)
	require.True(f.t, ok, "contribution record not allocated")
	amount, err := state.DecodeContribution(acc.Data)
	require.NoError(f.t, err)
	return amount
}

// requireUnchanged 执行 fn 并断言账户存储没有任何变化
func (f *fixture) requireUnchanged(fn func()) {
	f.t.Helper()
	before := f.rt.Bank().Accounts()
	fn()
	require.Equal(f.t, before, f.rt.Bank().Accounts())
}
