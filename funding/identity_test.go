package funding_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heart2help/fundclient/funding"
)

func TestResolverResolve(t *testing.T) {
	t.Parallel()

	t.Run("it stays disconnected when no account is authorized", func(t *testing.T) {
		t.Parallel()

		resolver := funding.NewResolver(newFakeWallet(), newFakeContract(adminAddr))

		_, ok, err := resolver.Resolve(context.Background())

		require.NoError(t, err, "An absent session is not an error")
		assert.False(t, ok)
		assert.Equal(t, funding.StateDisconnected, resolver.State())
	})

	t.Run("it recognizes the administrator regardless of hex casing", func(t *testing.T) {
		t.Parallel()

		// same address, entered lowercase on one side and checksummed on the other
		lower := common.HexToAddress("0x71c7656ec7ab88b098defb751b7401b5f6d8976f")
		checksummed := common.HexToAddress("0x71C7656EC7ab88b098defB751B7401B5f6d8976F")

		resolver := funding.NewResolver(newFakeWallet(lower), newFakeContract(checksummed))

		id, ok, err := resolver.Resolve(context.Background())

		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, id.Admin, "Equality is case-insensitive over the hex form")
		assert.Equal(t, funding.StateConnected, resolver.State())
	})

	t.Run("it resolves a non-admin account as a plain donor candidate", func(t *testing.T) {
		t.Parallel()

		resolver := funding.NewResolver(newFakeWallet(donorAddr), newFakeContract(adminAddr))

		id, ok, err := resolver.Resolve(context.Background())

		require.NoError(t, err)
		require.True(t, ok)
		assert.False(t, id.Admin)
		assert.Equal(t, donorAddr, id.Account)
	})

	t.Run("it is idempotent with no intervening wallet change", func(t *testing.T) {
		t.Parallel()

		resolver := funding.NewResolver(newFakeWallet(donorAddr), newFakeContract(adminAddr))

		first, okFirst, err := resolver.Resolve(context.Background())
		require.NoError(t, err)
		second, okSecond, err := resolver.Resolve(context.Background())
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, okFirst, okSecond)
	})

	t.Run("it wraps wallet failures as boundary errors", func(t *testing.T) {
		t.Parallel()

		wallet := newFakeWallet(donorAddr)
		wallet.accountsErr = errors.New("provider gone")
		resolver := funding.NewResolver(wallet, newFakeContract(adminAddr))

		_, _, err := resolver.Resolve(context.Background())

		var boundary *funding.BoundaryError
		require.ErrorAs(t, err, &boundary)
		assert.Contains(t, boundary.Error(), "provider gone", "Underlying message surfaces verbatim")
		assert.Equal(t, funding.StateDisconnected, resolver.State())
	})
}

func TestResolverConnect(t *testing.T) {
	t.Parallel()

	t.Run("it prompts and derives the role", func(t *testing.T) {
		t.Parallel()

		wallet := newFakeWallet(adminAddr)
		resolver := funding.NewResolver(wallet, newFakeContract(adminAddr))

		id, err := resolver.Connect(context.Background())

		require.NoError(t, err)
		assert.True(t, id.Admin)
		assert.Equal(t, 1, wallet.requestCalls)
		assert.Equal(t, funding.StateConnected, resolver.State())
	})

	t.Run("it reports a declined prompt", func(t *testing.T) {
		t.Parallel()

		wallet := newFakeWallet(adminAddr)
		wallet.requestErr = funding.ErrUserRejected
		resolver := funding.NewResolver(wallet, newFakeContract(adminAddr))

		_, err := resolver.Connect(context.Background())

		assert.ErrorIs(t, err, funding.ErrUserRejected)
		assert.Equal(t, funding.StateDisconnected, resolver.State())
	})

	t.Run("it treats an empty authorization result as rejection", func(t *testing.T) {
		t.Parallel()

		resolver := funding.NewResolver(newFakeWallet(), newFakeContract(adminAddr))

		_, err := resolver.Connect(context.Background())

		assert.ErrorIs(t, err, funding.ErrUserRejected)
	})
}

func TestResolverDonorRegistered(t *testing.T) {
	t.Parallel()

	t.Run("it fetches the donor flag lazily", func(t *testing.T) {
		t.Parallel()

		contract := newFakeContract(adminAddr)
		contract.registered[donorAddr] = true
		resolver := funding.NewResolver(newFakeWallet(donorAddr), contract)

		registered, err := resolver.DonorRegistered(context.Background(), donorAddr)

		require.NoError(t, err)
		assert.True(t, registered)

		registered, err = resolver.DonorRegistered(context.Background(), adminAddr)

		require.NoError(t, err)
		assert.False(t, registered)
	})
}
