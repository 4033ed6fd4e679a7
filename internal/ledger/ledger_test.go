package ledger

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/wrapsim/internal/domain"
	"github.com/vadiminshakov/wrapsim/internal/events"
	"github.com/vadiminshakov/wrapsim/internal/storage/simstate"
	"go.uber.org/zap"
)

var wethKey = Key{ChainID: 1, Address: common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")}

func TestLedger_ReadMissing(t *testing.T) {
	l, err := New()
	require.NoError(t, err)

	_, ok := l.Read(Key{ChainID: 1, Native: true})
	assert.False(t, ok)
}

func TestLedger_CreditCreatesFromZero(t *testing.T) {
	l, err := New()
	require.NoError(t, err)

	e, err := l.Credit(wethKey, "1.25", 18)
	require.NoError(t, err)
	assert.Equal(t, "1.25", e.Balance)
	assert.Equal(t, int32(18), e.Decimals)

	read, ok := l.Read(wethKey)
	require.True(t, ok)
	assert.Equal(t, e, read)
}

func TestLedger_DebitIsNotGuarded(t *testing.T) {
	l, err := New()
	require.NoError(t, err)

	e, err := l.Debit(Key{ChainID: 1, Native: true}, "0.5", 18)
	require.NoError(t, err)
	assert.Equal(t, "-0.5", e.Balance)
}

func TestLedger_InvalidAmount(t *testing.T) {
	l, err := New()
	require.NoError(t, err)

	_, err = l.Credit(wethKey, "abc", 18)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = l.Debit(wethKey, "1", -1)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, ok := l.Read(wethKey)
	assert.False(t, ok)
}

func TestLedger_RoundTripNoDrift(t *testing.T) {
	l, err := New()
	require.NoError(t, err)

	start := "3.141592653589793238"
	_, err = l.Credit(wethKey, start, 18)
	require.NoError(t, err)

	amount := "0.000000000000000001"
	for i := 0; i < 50; i++ {
		_, err := l.Credit(wethKey, amount, 18)
		require.NoError(t, err)
		_, err = l.Debit(wethKey, amount, 18)
		require.NoError(t, err)
	}
	for i := 0; i < 50; i++ {
		_, err := l.Credit(wethKey, "123.456789012345678", 18)
		require.NoError(t, err)
		_, err = l.Debit(wethKey, "123.456789012345678", 18)
		require.NoError(t, err)
	}

	e, ok := l.Read(wethKey)
	require.True(t, ok)
	assert.Equal(t, start, e.Balance)
}

func TestLedger_TruncatesToDecimals(t *testing.T) {
	l, err := New()
	require.NoError(t, err)

	usdc := Key{ChainID: 1, Address: common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")}
	e, err := l.Credit(usdc, "1.1234567", 6)
	require.NoError(t, err)
	assert.Equal(t, "1.123456", e.Balance)
}

func TestKeyFor(t *testing.T) {
	native := domain.NewNativeCurrency(1, "ETH", "Ether")
	native.Address = common.HexToAddress("0x01")
	assert.Equal(t, Key{ChainID: 1, Native: true}, KeyFor(native))

	weth, ok := domain.WrappedNative(1)
	require.True(t, ok)
	assert.Equal(t, wethKey, KeyFor(weth))
}

func TestLedger_PersistAndRestore(t *testing.T) {
	dir := t.TempDir()
	store, err := simstate.NewStore(dir, "session")
	require.NoError(t, err)

	l, err := New(WithStore(store), WithLogger(zap.NewNop()), WithSession("abc"))
	require.NoError(t, err)
	_, err = l.Debit(Key{ChainID: 1, Native: true}, "1", 18)
	require.NoError(t, err)
	_, err = l.Credit(wethKey, "1", 18)
	require.NoError(t, err)

	restored, err := New(WithStore(store))
	require.NoError(t, err)
	assert.Equal(t, l.Entries(), restored.Entries())

	require.NoError(t, restored.Clear())
	assert.Empty(t, restored.Entries())

	fresh, err := New(WithStore(store))
	require.NoError(t, err)
	assert.Empty(t, fresh.Entries())
}

func TestEntry_Value(t *testing.T) {
	assert.True(t, Entry{Balance: "2.5"}.Value().Equal(decimal.NewFromFloat(2.5)))
	assert.True(t, Entry{Balance: "bad"}.Value().IsZero())
}

func TestLedger_PublishesChanges(t *testing.T) {
	b := events.NewBalanceBroadcaster(8)
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	l, err := New(WithBroadcaster(b))
	require.NoError(t, err)

	_, err = l.Debit(Key{ChainID: 1, Native: true}, "0.25", 18)
	require.NoError(t, err)
	_, err = l.Credit(wethKey, "0.25", 18)
	require.NoError(t, err)
	require.NoError(t, l.Clear())

	debit := <-ch
	assert.Equal(t, events.ChangeDebit, debit.Kind)
	assert.True(t, debit.Native)
	assert.Equal(t, "0.25", debit.Delta)
	assert.Equal(t, "-0.25", debit.Balance)
	assert.Empty(t, debit.Address)

	credit := <-ch
	assert.Equal(t, events.ChangeCredit, credit.Kind)
	assert.Equal(t, wethKey.Address.Hex(), credit.Address)
	assert.Equal(t, "0.25", credit.Balance)

	cleared := <-ch
	assert.Equal(t, events.ChangeClear, cleared.Kind)
}

func TestLedger_InvalidAmountPublishesNothing(t *testing.T) {
	b := events.NewBalanceBroadcaster(8)
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	l, err := New(WithBroadcaster(b))
	require.NoError(t, err)
	_, err = l.Credit(wethKey, "abc", 18)
	require.Error(t, err)
	assert.Len(t, ch, 0)
}

func TestLedger_SeedOnlyUntracked(t *testing.T) {
	l, err := New()
	require.NoError(t, err)

	e, created, err := l.Seed(wethKey, "2.5", 18)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "2.5", e.Balance)

	_, err = l.Debit(wethKey, "1", 18)
	require.NoError(t, err)

	e, created, err = l.Seed(wethKey, "7", 18)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "1.5", e.Balance)

	_, _, err = l.Seed(Key{ChainID: 1, Native: true}, "x", 18)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, ok := l.Read(Key{ChainID: 1, Native: true})
	assert.False(t, ok)
}
