package derive

import (
	"bytes"
	"crypto/ed25519"
	"strings"
	"testing"

	"github.com/blues/fundraiser/internal/pubkey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testProgram = pubkey.MustParse("0x4646464646464646464646464646464646464646464646464646464646464646")
	testParent  = pubkey.MustParse("0x0101010101010101010101010101010101010101010101010101010101010101")
)

func TestFindIsDeterministicAndOffCurve(t *testing.T) {
	d := NewDeriver(testProgram)

	addr, bump, err := d.Find("campaign", testParent)
	require.NoError(t, err)
	assert.False(t, IsOnCurve(addr))

	again, againBump, err := d.Find("campaign", testParent)
	require.NoError(t, err)
	assert.Equal(t, addr, again)
	assert.Equal(t, bump, againBump)

	created, err := d.Create(Seeds{Label: "campaign", Parents: []pubkey.Address{testParent}, Bump: bump})
	require.NoError(t, err)
	assert.Equal(t, addr, created)

	// 更高的 bump 都落在曲线上
	for b := 255; b > int(bump); b-- {
		_, err := d.Create(Seeds{Label: "campaign", Parents: []pubkey.Address{testParent}, Bump: byte(b)})
		assert.ErrorIs(t, err, ErrOnCurve)
	}
}

func TestFindDependsOnEverySeed(t *testing.T) {
	d := NewDeriver(testProgram)
	base, _, err := d.Find("campaign", testParent)
	require.NoError(t, err)

	otherLabel, _, err := d.Find("contribution", testParent)
	require.NoError(t, err)
	assert.NotEqual(t, base, otherLabel)

	otherParent, _, err := d.Find("campaign", pubkey.Zero)
	require.NoError(t, err)
	assert.NotEqual(t, base, otherParent)

	otherProgram, _, err := NewDeriver(pubkey.Zero).Find("campaign", testParent)
	require.NoError(t, err)
	assert.NotEqual(t, base, otherProgram)
}

func TestCreateRejectsLongSeeds(t *testing.T) {
	d := NewDeriver(testProgram)

	_, err := d.Create(Seeds{Label: strings.Repeat("x", MaxSeedLen+1)})
	assert.ErrorIs(t, err, ErrSeedTooLong)

	_, err = d.Create(Seeds{Label: "campaign", Parents: make([]pubkey.Address, MaxParents+1)})
	assert.ErrorIs(t, err, ErrSeedTooLong)

	_, _, err = d.Find(strings.Repeat("x", MaxSeedLen+1))
	assert.ErrorIs(t, err, ErrSeedTooLong)
}

func TestVerify(t *testing.T) {
	d := NewDeriver(testProgram)
	addr, bump, err := d.Find("campaign", testParent)
	require.NoError(t, err)
	seeds := Seeds{Label: "campaign", Parents: []pubkey.Address{testParent}, Bump: bump}

	assert.NoError(t, d.Verify(addr, seeds))
	assert.ErrorIs(t, d.Verify(testParent, seeds), ErrAddressMismatch)

	wrongBump := seeds
	wrongBump.Bump = bump - 1
	assert.ErrorIs(t, d.Verify(addr, wrongBump), ErrAddressMismatch)

	assert.ErrorIs(t, NewDeriver(pubkey.Zero).Verify(addr, seeds), ErrAddressMismatch)
}

func TestAuthorizeAndRedeem(t *testing.T) {
	d := NewDeriver(testProgram)
	addr, bump, err := d.Find("campaign", testParent)
	require.NoError(t, err)
	seeds := Seeds{Label: "campaign", Parents: []pubkey.Address{testParent}, Bump: bump}

	t.Run("mismatch grants nothing", func(t *testing.T) {
		capability, err := d.Authorize(NewScope(), testParent, seeds)
		assert.ErrorIs(t, err, ErrAddressMismatch)
		assert.Nil(t, capability)
	})

	t.Run("ended scope", func(t *testing.T) {
		scope := NewScope()
		scope.End()
		_, err := d.Authorize(scope, addr, seeds)
		assert.ErrorIs(t, err, ErrScopeEnded)
	})

	t.Run("signer is single use", func(t *testing.T) {
		scope := NewScope()
		capability, err := d.Authorize(scope, addr, seeds)
		require.NoError(t, err)
		assert.Equal(t, addr, capability.Address())

		signer := capability.Signer()
		assert.Equal(t, addr, signer.Address())
		require.NoError(t, signer.Redeem(scope, addr))
		assert.ErrorIs(t, signer.Redeem(scope, addr), ErrSignerConsumed)

		// 同一能力可以签发新的签名
		assert.NoError(t, capability.Signer().Redeem(scope, addr))
	})

	t.Run("signer bound to authority", func(t *testing.T) {
		scope := NewScope()
		capability, err := d.Authorize(scope, addr, seeds)
		require.NoError(t, err)
		assert.ErrorIs(t, capability.Signer().Redeem(scope, testParent), ErrSignerAuthority)
	})

	t.Run("signer bound to scope", func(t *testing.T) {
		scope := NewScope()
		capability, err := d.Authorize(scope, addr, seeds)
		require.NoError(t, err)
		assert.ErrorIs(t, capability.Signer().Redeem(NewScope(), addr), ErrSignerScope)

		scope.End()
		assert.ErrorIs(t, capability.Signer().Redeem(scope, addr), ErrScopeEnded)
	})

	t.Run("nil signer", func(t *testing.T) {
		var signer *Signer
		assert.Equal(t, pubkey.Zero, signer.Address())
		assert.ErrorIs(t, signer.Redeem(NewScope(), addr), ErrMissingSignature)
	})
}

func TestCapabilitySeedsAreCopied(t *testing.T) {
	d := NewDeriver(testProgram)
	addr, bump, err := d.Find("campaign", testParent)
	require.NoError(t, err)
	parents := []pubkey.Address{testParent}

	capability, err := d.Authorize(NewScope(), addr, Seeds{Label: "campaign", Parents: parents, Bump: bump})
	require.NoError(t, err)
	parents[0] = pubkey.Zero

	seeds := capability.Seeds()
	assert.Equal(t, testParent, seeds.Parents[0])
	seeds.Parents[0] = pubkey.Zero
	assert.Equal(t, testParent, capability.Seeds().Parents[0])
}

func TestIsOnCurve(t *testing.T) {
	key := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{7}, ed25519.SeedSize))
	assert.True(t, IsOnCurve(pubkey.FromPublicKey(key.Public().(ed25519.PublicKey))))
}
