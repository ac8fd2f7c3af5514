package router_test

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blues/fundraiser/internal/config"
	"github.com/blues/fundraiser/internal/handler"
	"github.com/blues/fundraiser/internal/logger"
	"github.com/blues/fundraiser/internal/program"
	"github.com/blues/fundraiser/internal/pubkey"
	"github.com/blues/fundraiser/internal/router"
	"github.com/blues/fundraiser/internal/runtime"
	"github.com/blues/fundraiser/internal/store"
	"github.com/blues/fundraiser/internal/token"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	programID = pubkey.MustParse("0x4646464646464646464646464646464646464646464646464646464646464646")
	tokenID   = pubkey.MustParse("0x5454545454545454545454545454545454545454545454545454545454545454")
)

func init() {
	logger.SetDefaultLogger(logger.NewNop())
	gin.SetMode(gin.TestMode)
}

type apiFixture struct {
	t      *testing.T
	engine *gin.Engine
	rt     *runtime.Runtime
	proc   *program.Processor
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	db, err := store.Open(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	proc, err := program.NewProcessor(programID, program.BpsScale)
	require.NoError(t, err)
	rt := runtime.New(runtime.NewBank(), proc, token.NewService(tokenID), runtime.Options{
		Clock: runtime.NewFixedClock(1_000),
	})
	rt.AddHook(store.New(db, programID))

	cfg := &config.Config{Server: config.ServerConfig{Mode: gin.DebugMode}}
	return &apiFixture{t: t, engine: router.Setup(db, rt, cfg), rt: rt, proc: proc}
}

func (f *apiFixture) do(method, path string, body interface{}) (int, handler.Response) {
	f.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	var resp handler.Response
	require.NoError(f.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func newKey(seed byte) (ed25519.PrivateKey, pubkey.Address) {
	priv := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{seed}, ed25519.SeedSize))
	return priv, pubkey.FromPublicKey(priv.Public().(ed25519.PublicKey))
}

func TestCampaignLifecycleOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	_, mint := newKey(201)
	_, authority := newKey(200)
	makerKey, maker := newKey(1)

	code, _ := f.do(http.MethodPost, "/api/v1/faucet/mints", handler.CreateMintRequest{Address: mint, Authority: authority, Decimals: 2})
	require.Equal(t, http.StatusOK, code)
	code, _ = f.do(http.MethodPost, "/api/v1/faucet/airdrop", handler.AirdropRequest{Address: maker, Lamports: 1_000_000_000})
	require.Equal(t, http.StatusOK, code)

	campaign, bump, err := f.proc.CampaignAddress(maker)
	require.NoError(t, err)
	escrow, err := f.rt.Token().AssociatedAddress(campaign, mint)
	require.NoError(t, err)

	tx, err := runtime.NewTransaction(runtime.Message{
		ProgramID: programID,
		Accounts: []runtime.AccountMeta{
			{Address: maker, IsSigner: true, IsWritable: true},
			{Address: mint},
			{Address: campaign, IsWritable: true},
			{Address: escrow, IsWritable: true},
			{Address: pubkey.Zero},
			{Address: tokenID},
		},
		Data:  program.InitializeArgs{Bump: bump, AmountToRaise: 50_000, DurationDays: 3}.Encode(),
		Nonce: 1,
	}, makerKey)
	require.NoError(t, err)

	code, resp := f.do(http.MethodPost, "/api/v1/transactions", tx)
	require.Equal(t, http.StatusOK, code, resp.Message)
	assert.True(t, resp.Success)

	// 重复提交同一交易被拒绝，不影响已有状态
	code, resp = f.do(http.MethodPost, "/api/v1/transactions", tx)
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, resp.Success)
	assert.Equal(t, "DuplicateTransaction", resp.ErrorKind)
	assert.Contains(t, resp.Message, tx.ID())

	code, resp = f.do(http.MethodGet, "/api/v1/campaigns/"+campaign.String(), nil)
	require.Equal(t, http.StatusOK, code)
	data := resp.Data.(map[string]interface{})
	detail := data["campaign"].(map[string]interface{})
	assert.Equal(t, maker.String(), detail["maker"])
	assert.Equal(t, "active", detail["status"])
	assert.Nil(t, data["settlement"])

	code, resp = f.do(http.MethodGet, "/api/v1/campaigns?status=active", nil)
	require.Equal(t, http.StatusOK, code)
	page := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(1), page["pagination"].(map[string]interface{})["total"])

	code, resp = f.do(http.MethodGet, "/api/v1/accounts/"+campaign.String(), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "campaign", resp.Data.(map[string]interface{})["kind"])

	code, _ = f.do(http.MethodGet, "/api/v1/campaigns/"+campaign.String()+"/settlement", nil)
	assert.Equal(t, http.StatusNotFound, code)

	// 相同交易只记录一次流水
	code, resp = f.do(http.MethodGet, "/api/v1/instructions?opcode=initialize", nil)
	require.Equal(t, http.StatusOK, code)
	page = resp.Data.(map[string]interface{})
	assert.Equal(t, float64(1), page["pagination"].(map[string]interface{})["total"])
}

func TestRejectsBadRequests(t *testing.T) {
	f := newAPIFixture(t)

	code, _ := f.do(http.MethodGet, "/api/v1/campaigns/not-an-address", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	_, unknown := newKey(9)
	code, _ = f.do(http.MethodGet, "/api/v1/campaigns/"+unknown.String(), nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = f.do(http.MethodGet, "/api/v1/accounts/"+unknown.String(), nil)
	assert.Equal(t, http.StatusNotFound, code)

	// 缺少签名
	tx := runtime.Transaction{Message: runtime.Message{
		ProgramID: programID,
		Accounts:  []runtime.AccountMeta{{Address: unknown, IsSigner: true, IsWritable: true}},
		Data:      program.EncodeCheckout(),
	}}
	code, resp := f.do(http.MethodPost, "/api/v1/transactions", tx)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "SignatureVerificationFailed", resp.ErrorKind)
	assert.NotEmpty(t, resp.Message)
}
