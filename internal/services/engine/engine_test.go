package engine

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"eth-trade-bot-go/internal/domain"
	"eth-trade-bot-go/internal/services/ledger"
	"eth-trade-bot-go/internal/services/stoploss"
)

type fakePricer struct {
	price decimal.Decimal
	err   error
}

func (f *fakePricer) GetPrice(context.Context) (domain.PricePoint, error) {
	if f.err != nil {
		return domain.PricePoint{}, f.err
	}
	return domain.PricePoint{Price: f.price, Source: domain.PriceSourcePrimary, Timestamp: time.Now()}, nil
}

type fakeMarket struct {
	snapshot domain.IndicatorSnapshot
	err      error
	calls    int
}

func (f *fakeMarket) Refresh(context.Context) (domain.IndicatorSnapshot, error) {
	f.calls++
	if f.err != nil {
		return domain.IndicatorSnapshot{}, f.err
	}
	return f.snapshot, nil
}

type fakeExecutor struct {
	balance      decimal.Decimal
	balanceCalls int
	buyErr       error
	buyCalls     int
	sellErr      error
	sellCalls    int
}

func (f *fakeExecutor) Balance(context.Context) (decimal.Decimal, error) {
	f.balanceCalls++
	return f.balance, nil
}

func (f *fakeExecutor) BuySwap(_ context.Context, _ decimal.Decimal) (string, error) {
	f.buyCalls++
	if f.buyErr != nil {
		return "", f.buyErr
	}
	return "0xbuy", nil
}

func (f *fakeExecutor) SellSwap(_ context.Context, _ decimal.Decimal) (string, error) {
	f.sellCalls++
	if f.sellErr != nil {
		return "", f.sellErr
	}
	return "0xsell", nil
}

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) Notify(_ context.Context, message string) {
	f.messages = append(f.messages, message)
}

type engineFixture struct {
	engine   *Engine
	pricer   *fakePricer
	market   *fakeMarket
	executor *fakeExecutor
	notifier *fakeNotifier
	ledger   *ledger.Ledger
	monitor  *stoploss.Monitor
}

func newFixture(t *testing.T) *engineFixture {
	t.Helper()

	l, err := ledger.NewLedger(nil, zap.NewNop())
	require.NoError(t, err)

	f := &engineFixture{
		pricer:   &fakePricer{price: decimal.NewFromInt(2000)},
		market:   &fakeMarket{},
		executor: &fakeExecutor{balance: decimal.NewFromInt(10)},
		notifier: &fakeNotifier{},
		ledger:   l,
		monitor:  stoploss.NewMonitor(zap.NewNop()),
	}

	f.engine = New(zap.NewNop(), domain.Pair{From: "ETH", To: "USD"},
		decimal.NewFromInt(1), f.pricer, f.market, f.executor, f.notifier,
		f.ledger, f.monitor, 10*time.Millisecond)

	return f
}

func snapshotAboveVWAP() domain.IndicatorSnapshot {
	return domain.IndicatorSnapshot{
		Close: decimal.NewFromInt(2100),
		VWAP:  decimal.NewFromInt(2000),
	}
}

func snapshotBelowVWAP() domain.IndicatorSnapshot {
	return domain.IndicatorSnapshot{
		Close: decimal.NewFromInt(1900),
		VWAP:  decimal.NewFromInt(2000),
	}
}

func TestEngine_BuySkippedWhilePositionOpen(t *testing.T) {
	f := newFixture(t)
	f.market.snapshot = snapshotAboveVWAP()

	outcome := f.engine.DecideAndMaybeBuy(context.Background(), decimal.NewFromInt(1))
	require.Equal(t, domain.OutcomeExecuted, outcome.Status)
	require.Equal(t, 1, f.ledger.Len())

	// a second buy must not pyramid onto the open position
	outcome = f.engine.DecideAndMaybeBuy(context.Background(), decimal.NewFromInt(2))
	require.Equal(t, domain.OutcomeSkipped, outcome.Status)
	require.Equal(t, "position already open", outcome.Reason)
	require.Equal(t, 1, f.executor.buyCalls)
	require.Equal(t, 1, f.ledger.Len())

	// the tracked position keeps its original size
	position := f.monitor.Position()
	require.True(t, position.Amount.Equal(decimal.NewFromInt(1)))
}

func TestEngine_BuyExecutesAboveVWAP(t *testing.T) {
	f := newFixture(t)
	f.market.snapshot = snapshotAboveVWAP()

	outcome := f.engine.DecideAndMaybeBuy(context.Background(), decimal.NewFromInt(2))

	require.Equal(t, domain.OutcomeExecuted, outcome.Status)
	require.Equal(t, "0xbuy", outcome.TxID)
	require.Equal(t, 1, f.executor.buyCalls)
	require.Equal(t, 1, f.ledger.Len(), "exactly one trade appended")

	position := f.monitor.Position()
	require.True(t, position.Armed)
	require.True(t, position.OpeningPrice.Equal(decimal.NewFromInt(2000)),
		"opening price must equal the price used at decision time")

	report := f.engine.WeeklyReport(time.Now())
	require.Equal(t, 1, report.Count)
	require.True(t, report.NetUSD.Equal(decimal.NewFromInt(-4000)), "buy is negative cash flow")
}

func TestEngine_BuySkippedBelowVWAP(t *testing.T) {
	f := newFixture(t)
	f.market.snapshot = snapshotBelowVWAP()

	// unchanged indicators must skip deterministically
	for i := 0; i < 2; i++ {
		outcome := f.engine.DecideAndMaybeBuy(context.Background(), decimal.NewFromInt(2))
		require.Equal(t, domain.OutcomeSkipped, outcome.Status)
		require.NotEmpty(t, outcome.Reason)
	}

	require.Equal(t, 0, f.executor.buyCalls)
	require.Equal(t, 0, f.ledger.Len())
	require.False(t, f.monitor.Position().Armed)
}

func TestEngine_BuyFundingGuard(t *testing.T) {
	f := newFixture(t)
	f.market.snapshot = snapshotAboveVWAP()
	f.executor.balance = decimal.NewFromInt(1)

	outcome := f.engine.DecideAndMaybeBuy(context.Background(), decimal.NewFromInt(2))

	require.Equal(t, domain.OutcomeAbandoned, outcome.Status)
	require.Equal(t, domain.ErrInsufficientFunds.Error(), outcome.Reason)
	require.Equal(t, 2, f.executor.balanceCalls, "one check plus exactly one re-check")
	require.Equal(t, 0, f.executor.buyCalls)
	require.Equal(t, 0, f.ledger.Len(), "zero trades appended")
	require.Len(t, f.notifier.messages, 2, "one wait notification plus one retry-failed notification")
}

func TestEngine_BuyFundingGuardRecovers(t *testing.T) {
	f := newFixture(t)
	f.market.snapshot = snapshotAboveVWAP()
	f.executor.balance = decimal.NewFromInt(2) // enough from the start

	outcome := f.engine.DecideAndMaybeBuy(context.Background(), decimal.NewFromInt(2))

	require.Equal(t, domain.OutcomeExecuted, outcome.Status)
	require.Equal(t, 1, f.executor.balanceCalls, "no wait when funded")
}

func TestEngine_BuyDataUnavailable(t *testing.T) {
	f := newFixture(t)
	f.market.err = domain.ErrDataUnavailable

	outcome := f.engine.DecideAndMaybeBuy(context.Background(), decimal.NewFromInt(1))

	require.Equal(t, domain.OutcomeSkipped, outcome.Status)
	require.Equal(t, 0, f.executor.buyCalls)
	require.NotEmpty(t, f.notifier.messages, "skipped action must produce a reason")
}

func TestEngine_BuyExecutionFailure(t *testing.T) {
	f := newFixture(t)
	f.market.snapshot = snapshotAboveVWAP()
	f.executor.buyErr = errors.New("nonce too low")

	outcome := f.engine.DecideAndMaybeBuy(context.Background(), decimal.NewFromInt(1))

	require.Equal(t, domain.OutcomeAbandoned, outcome.Status)
	require.Equal(t, 0, f.ledger.Len(), "no trade without an accepted broadcast")
	require.False(t, f.monitor.Position().Armed)
}

func TestEngine_SellExecutesBelowVWAP(t *testing.T) {
	f := newFixture(t)
	f.market.snapshot = snapshotBelowVWAP()
	f.monitor.Arm(decimal.NewFromInt(2000), decimal.NewFromInt(3))

	outcome := f.engine.DecideAndMaybeSell(context.Background())

	require.Equal(t, domain.OutcomeExecuted, outcome.Status)
	require.Equal(t, 1, f.executor.sellCalls)
	require.Equal(t, 1, f.ledger.Len())
	require.False(t, f.monitor.Position().Armed, "sell closes the position")
}

func TestEngine_SellSkippedAboveVWAP(t *testing.T) {
	f := newFixture(t)
	f.market.snapshot = snapshotAboveVWAP()

	outcome := f.engine.DecideAndMaybeSell(context.Background())

	require.Equal(t, domain.OutcomeSkipped, outcome.Status)
	require.Equal(t, 0, f.executor.sellCalls)
}

func TestEngine_StopLossForcedSell(t *testing.T) {
	f := newFixture(t)
	f.monitor.Arm(decimal.NewFromInt(2000), decimal.NewFromInt(1))
	f.pricer.price = decimal.NewFromInt(1900) // below 2000 * 0.975

	triggered := f.engine.CheckStopLoss(context.Background())
	require.True(t, triggered)
	require.Equal(t, 1, f.executor.sellCalls, "exactly one forced sell attempt")
	require.Equal(t, 1, f.ledger.Len())

	// same price, second invocation: no second forced sell
	triggered = f.engine.CheckStopLoss(context.Background())
	require.False(t, triggered, "successful forced sell disarms the monitor")
	require.Equal(t, 1, f.executor.sellCalls)
}

func TestEngine_StopLossFailedSellKeepsPosition(t *testing.T) {
	f := newFixture(t)
	f.monitor.Arm(decimal.NewFromInt(2000), decimal.NewFromInt(1))
	f.pricer.price = decimal.NewFromInt(1900)
	f.executor.sellErr = errors.New("broadcast failed")

	triggered := f.engine.CheckStopLoss(context.Background())
	require.True(t, triggered)
	require.Equal(t, stoploss.StateTriggered, f.monitor.State())
	require.Equal(t, 0, f.ledger.Len(), "failed broadcast must not be recorded")

	triggered = f.engine.CheckStopLoss(context.Background())
	require.True(t, triggered)
	require.Equal(t, 1, f.executor.sellCalls, "no automatic retry after the single attempt")
}

func TestEngine_StopLossNotArmed(t *testing.T) {
	f := newFixture(t)

	require.False(t, f.engine.CheckStopLoss(context.Background()))
	require.Equal(t, 0, f.executor.sellCalls)
}

func TestEngine_StopLossAboveThresholdHolds(t *testing.T) {
	f := newFixture(t)
	f.monitor.Arm(decimal.NewFromInt(2000), decimal.NewFromInt(1))
	f.pricer.price = decimal.NewFromInt(1990)

	require.False(t, f.engine.CheckStopLoss(context.Background()))
	require.Equal(t, 0, f.executor.sellCalls)
	require.Equal(t, stoploss.StateArmed, f.monitor.State())
}

func TestEngine_CurrentStatus(t *testing.T) {
	f := newFixture(t)
	f.executor.balance = decimal.NewFromInt(4)
	f.pricer.price = decimal.NewFromInt(2100)
	f.monitor.Arm(decimal.NewFromInt(2000), decimal.NewFromInt(4))

	status, err := f.engine.CurrentStatus(context.Background())
	require.NoError(t, err)
	require.True(t, status.Balance.Equal(decimal.NewFromInt(4)))
	require.True(t, status.Price.Equal(decimal.NewFromInt(2100)))
	require.True(t, status.UnrealizedPnL.Equal(decimal.NewFromInt(400)))
}

func TestEngine_CurrentStatusNoPosition(t *testing.T) {
	f := newFixture(t)

	status, err := f.engine.CurrentStatus(context.Background())
	require.NoError(t, err)
	require.True(t, status.UnrealizedPnL.IsZero())
}
