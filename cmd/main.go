// Command bot runs the unattended ETH/USD trading agent. It polls market
// data from Kraken (or Binance) with a CoinGecko price fallback, decides
// trades against the daily VWAP and executes swaps on Uniswap.
//
// Usage:
//
//	bot --config config.yaml
//	bot (uses CLI arguments)
//
// Required environment variables:
//
//	ETH_PRIVATE_KEY    hex-encoded wallet private key
//	COINGECKO_API_KEY  optional, enables the pro CoinGecko endpoint
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	binance "github.com/adshao/go-binance/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"eth-trade-bot-go/config"
	"eth-trade-bot-go/internal"
	"eth-trade-bot-go/internal/clients"
	"eth-trade-bot-go/internal/services/engine"
	"eth-trade-bot-go/internal/services/executor"
	"eth-trade-bot-go/internal/services/ledger"
	"eth-trade-bot-go/internal/services/market"
	"eth-trade-bot-go/internal/services/notifier"
	"eth-trade-bot-go/internal/services/pricer"
	"eth-trade-bot-go/internal/services/stoploss"
	"eth-trade-bot-go/internal/storage/trades"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		primary  pricer.Pricer
		provider market.CandleProvider
	)
	switch cfg.Platform {
	case "kraken":
		krakenClient := clients.NewKrakenClient(logger)
		primary = pricer.NewKrakenPricer(krakenClient, cfg.KrakenPair)
		provider = market.NewKrakenCandleProvider(krakenClient, cfg.KrakenPair)
	case "binance":
		binanceClient := binance.NewClient(os.Getenv("BINANCE_API_KEY"), os.Getenv("BINANCE_API_SECRET"))
		primary = pricer.NewBinancePricer(binanceClient, cfg.Pair)
		provider = market.NewBinanceCandleProvider(binanceClient, cfg.Pair)
	default:
		log.Fatalf("unsupported platform %q", cfg.Platform)
	}

	coingeckoClient := clients.NewCoinGeckoClient(os.Getenv("COINGECKO_API_KEY"), logger)
	secondary := pricer.NewCoinGeckoPricer(coingeckoClient, cfg.CoinGeckoAssetID)
	prices := pricer.NewFallbackPricer(primary, secondary, logger)

	collector := market.NewCollector(provider, cfg.CandleInterval, cfg.CandleLimit, nil, logger)

	var store ledger.Store
	if cfg.WalDir != "" {
		walStore, err := trades.NewWALStore(cfg.WalDir)
		if err != nil {
			log.Fatal(err)
		}
		defer walStore.Close()
		store = walStore
	}

	tradeLedger, err := ledger.NewLedger(store, logger)
	if err != nil {
		log.Fatal(err)
	}

	privateKey := os.Getenv("ETH_PRIVATE_KEY")
	if privateKey == "" {
		log.Fatal("ETH_PRIVATE_KEY environment variable must be set")
	}

	exec, err := executor.NewUniswapExecutor(ctx, executor.Config{
		RPCURL:        cfg.Chain.RPCURL,
		PrivateKeyHex: privateKey,
		RouterAddress: cfg.Chain.RouterAddress,
		TokenAddress:  cfg.Chain.TokenAddress,
		WETHAddress:   cfg.Chain.WETHAddress,
		GasLimit:      cfg.Chain.GasLimit,
		GasPriceGwei:  cfg.Chain.GasPriceGwei,
	}, logger)
	if err != nil {
		log.Fatal(err)
	}

	monitor := stoploss.NewMonitor(logger)
	notify := notifier.NewLogNotifier(logger)

	eng := engine.New(logger, cfg.Pair, cfg.TradeAmount,
		prices, collector, exec, notify, tradeLedger, monitor, cfg.FundingRetryWait)

	bot := internal.NewTradingBot(eng, notify, cfg, logger)
	if err := bot.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal(err)
	}
}
