package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"eth-trade-bot-go/internal/domain"
)

func newTestLedger(t *testing.T) *Ledger {
	l, err := NewLedger(nil, zap.NewNop())
	require.NoError(t, err)
	return l
}

func TestLedger_WeeklyReport(t *testing.T) {
	l := newTestLedger(t)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	require.NoError(t, l.Append(domain.Trade{
		Side:      domain.SideBuy,
		Amount:    decimal.NewFromFloat(1.0),
		Price:     decimal.NewFromInt(2000),
		Timestamp: now.Add(-2 * 24 * time.Hour),
	}))
	require.NoError(t, l.Append(domain.Trade{
		Side:      domain.SideSell,
		Amount:    decimal.NewFromFloat(1.0),
		Price:     decimal.NewFromInt(2100),
		Timestamp: now.Add(-1 * 24 * time.Hour),
	}))

	report := l.WeeklyReport(now)
	require.Equal(t, 2, report.Count)
	require.True(t, report.NetUSD.Equal(decimal.NewFromInt(100)),
		"expected netUSD 100, got %s", report.NetUSD.String())
}

func TestLedger_WeeklyReportStrictBoundary(t *testing.T) {
	l := newTestLedger(t)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	// exactly 7 days old: excluded
	require.NoError(t, l.Append(domain.Trade{
		Side:      domain.SideSell,
		Amount:    decimal.NewFromFloat(1.0),
		Price:     decimal.NewFromInt(2100),
		Timestamp: now.Add(-7 * 24 * time.Hour),
	}))
	// just inside the window: included
	require.NoError(t, l.Append(domain.Trade{
		Side:      domain.SideSell,
		Amount:    decimal.NewFromFloat(1.0),
		Price:     decimal.NewFromInt(2200),
		Timestamp: now.Add(-7*24*time.Hour + time.Second),
	}))

	report := l.WeeklyReport(now)
	require.Equal(t, 1, report.Count)
	require.True(t, report.NetUSD.Equal(decimal.NewFromInt(2200)))
}

func TestLedger_WeeklyReportEmpty(t *testing.T) {
	l := newTestLedger(t)

	report := l.WeeklyReport(time.Now())
	require.Equal(t, 0, report.Count)
	require.True(t, report.NetUSD.IsZero())
}

func TestLedger_AppendOnly(t *testing.T) {
	l := newTestLedger(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Append(domain.Trade{
			Side:      domain.SideBuy,
			Amount:    decimal.NewFromInt(1),
			Price:     decimal.NewFromInt(int64(2000 + i)),
			Timestamp: time.Now(),
		}))
	}

	require.Equal(t, 5, l.Len())
}
