package state

import (
	"errors"
	"math/big"
	"testing"

	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	token = common.HexToAddress("0x1111111111111111111111111111111111111111")
	alice = common.HexToAddress("0xa11ce00000000000000000000000000000000000")
	bob   = common.HexToAddress("0xb0b0000000000000000000000000000000000000")
)

func TestVaultTransferAndRevert(t *testing.T) {
	journal := NewJournal()
	vault := NewVault(journal)

	require.NoError(t, vault.Credit(token, alice, big.NewInt(100)))
	journal.Commit()

	snap := journal.Snapshot()
	require.NoError(t, vault.Transfer(token, alice, bob, big.NewInt(40)))
	require.Equal(t, int64(60), vault.BalanceOf(token, alice).Int64())
	require.Equal(t, int64(40), vault.BalanceOf(token, bob).Int64())

	journal.RevertToSnapshot(snap)
	require.Equal(t, int64(100), vault.BalanceOf(token, alice).Int64())
	require.Equal(t, int64(0), vault.BalanceOf(token, bob).Int64())
	require.Equal(t, 0, journal.Length())
}

func TestVaultInsufficientBalance(t *testing.T) {
	vault := NewVault(NewJournal())
	err := vault.Transfer(token, alice, bob, big.NewInt(1))
	require.True(t, errors.Is(err, tokens.ErrInsufficientBalance), "got %v", err)

	err = vault.Credit(token, alice, big.NewInt(-1))
	require.True(t, errors.Is(err, tokens.ErrInvalidAmount), "got %v", err)
}

func TestNestedSnapshots(t *testing.T) {
	journal := NewJournal()
	vault := NewVault(journal)
	wnative := common.HexToAddress("0x2222222222222222222222222222222222222222")

	require.NoError(t, vault.Credit(tokens.NativeToken, alice, big.NewInt(10)))
	outer := journal.Snapshot()
	require.NoError(t, vault.Wrap(wnative, alice, big.NewInt(4)))
	inner := journal.Snapshot()
	require.NoError(t, vault.Unwrap(wnative, alice, big.NewInt(4)))
	journal.RevertToSnapshot(inner)

	require.Equal(t, int64(6), vault.BalanceOf(tokens.NativeToken, alice).Int64())
	require.Equal(t, int64(4), vault.BalanceOf(wnative, alice).Int64())

	journal.RevertToSnapshot(outer)
	require.Equal(t, int64(10), vault.BalanceOf(tokens.NativeToken, alice).Int64())
	require.Equal(t, int64(0), vault.BalanceOf(wnative, alice).Int64())
}

func TestVaultBalancesSnapshotAndRestore(t *testing.T) {
	journal := NewJournal()
	vault := NewVault(journal)
	require.NoError(t, vault.Credit(token, bob, big.NewInt(5)))
	require.NoError(t, vault.Credit(token, alice, big.NewInt(7)))
	require.NoError(t, vault.Debit(token, bob, big.NewInt(5)))
	journal.Commit()

	balances := vault.Balances()
	require.Len(t, balances, 2)
	require.Equal(t, alice, balances[0].Account)
	require.Equal(t, int64(7), balances[0].Amount.Int64())
	require.Equal(t, bob, balances[1].Account)
	require.Equal(t, int64(0), balances[1].Amount.Int64())

	restored := NewVault(NewJournal())
	for _, bal := range balances {
		restored.Restore(bal.Token, bal.Account, bal.Amount)
	}
	require.Equal(t, int64(7), restored.BalanceOf(token, alice).Int64())
	require.Len(t, restored.Balances(), 1)
}
