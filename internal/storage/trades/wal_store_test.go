package trades

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"eth-trade-bot-go/internal/domain"
)

func TestWALStore_SaveAndRecover(t *testing.T) {
	dir := t.TempDir()

	store, err := NewWALStore(dir)
	require.NoError(t, err)

	trades := []domain.Trade{
		{
			ID:        uuid.New().String(),
			Side:      domain.SideBuy,
			Amount:    decimal.RequireFromString("1.5"),
			Price:     decimal.NewFromInt(2000),
			TxID:      "0xabc",
			Timestamp: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:        uuid.New().String(),
			Side:      domain.SideSell,
			Amount:    decimal.RequireFromString("1.5"),
			Price:     decimal.NewFromInt(2100),
			TxID:      "0xdef",
			Timestamp: time.Date(2025, 6, 12, 12, 0, 0, 0, time.UTC),
		},
	}
	for _, trade := range trades {
		require.NoError(t, store.Save(trade))
	}
	require.NoError(t, store.Close())

	// reopen and recover
	store, err = NewWALStore(dir)
	require.NoError(t, err)
	defer store.Close()

	recovered, err := store.All()
	require.NoError(t, err)
	require.Len(t, recovered, 2)

	for i, trade := range trades {
		require.Equal(t, trade.ID, recovered[i].ID)
		require.Equal(t, trade.Side, recovered[i].Side)
		require.Equal(t, trade.TxID, recovered[i].TxID)
		require.True(t, trade.Amount.Equal(recovered[i].Amount))
		require.True(t, trade.Price.Equal(recovered[i].Price))
		require.True(t, trade.Timestamp.Equal(recovered[i].Timestamp))
	}
}

func TestWALStore_Empty(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	recovered, err := store.All()
	require.NoError(t, err)
	require.Empty(t, recovered)
}
