package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"eth-trade-bot-go/internal/domain"
)

const (
	defaultCandleInterval    = 24 * time.Hour
	defaultCandleLimit       = 60
	defaultPollPriceInterval = time.Minute
	defaultReportInterval    = 7 * 24 * time.Hour
	defaultFundingRetryWait  = 10 * time.Minute
	defaultGasLimit          = 2000000
	defaultGasPriceGwei      = 50
)

// Chain holds the on-chain execution parameters.
type Chain struct {
	RPCURL        string
	RouterAddress string
	TokenAddress  string
	WETHAddress   string
	GasLimit      uint64
	GasPriceGwei  int64
}

// Config is the full runtime configuration of the bot.
type Config struct {
	Platform          string
	Pair              domain.Pair
	KrakenPair        string
	CoinGeckoAssetID  string
	TradeAmount       decimal.Decimal
	CandleInterval    time.Duration
	CandleLimit       int
	PollPriceInterval time.Duration
	ReportInterval    time.Duration
	FundingRetryWait  time.Duration
	WalDir            string
	Chain             Chain
}

type configTmp struct {
	Platform          string        `yaml:"platform"`
	Pair              string        `yaml:"pair"`
	KrakenPair        string        `yaml:"kraken_pair,omitempty"`
	CoinGeckoAssetID  string        `yaml:"coingecko_asset_id,omitempty"`
	TradeAmount       string        `yaml:"trade_amount"`
	CandleInterval    time.Duration `yaml:"candle_interval,omitempty"`
	CandleLimit       int           `yaml:"candle_limit,omitempty"`
	PollPriceInterval time.Duration `yaml:"poll_price_interval,omitempty"`
	ReportInterval    time.Duration `yaml:"report_interval,omitempty"`
	FundingRetryWait  time.Duration `yaml:"funding_retry_wait,omitempty"`
	WalDir            string        `yaml:"wal_dir,omitempty"`
	Chain             chainTmp      `yaml:"chain"`
}

type chainTmp struct {
	RPCURL        string `yaml:"rpc_url"`
	RouterAddress string `yaml:"router_address"`
	TokenAddress  string `yaml:"token_address"`
	WETHAddress   string `yaml:"weth_address"`
	GasLimit      uint64 `yaml:"gas_limit,omitempty"`
	GasPriceGwei  int64  `yaml:"gas_price_gwei,omitempty"`
}

// Get loads the configuration from the yaml file passed via -config, or from
// CLI flags when no file is given. Invalid configuration is a fatal error:
// the caller is expected to exit.
func Get() (Config, error) {
	config := flag.String("config", "", "path to yaml config")
	pairFlag := flag.String("pair", "ETH_USD", "trade pair, example: ETH_USD")
	platform := flag.String("platform", "kraken", "market data platform: kraken or binance")
	amount := flag.String("amount", "0.1", "trade amount in base asset units, example: 0.1")
	rpcURL := flag.String("rpcurl", "", "ethereum node rpc url")
	router := flag.String("router", "", "uniswap v2 router address")
	token := flag.String("token", "", "erc20 token address for the quote leg")
	weth := flag.String("weth", "", "wrapped ether address")
	flag.Parse()

	if *config != "" {
		return getYaml(*config)
	}

	pair, err := getPairFromString(*pairFlag)
	if err != nil {
		return Config{}, err
	}
	tradeAmount, err := decimal.NewFromString(*amount)
	if err != nil {
		return Config{}, fmt.Errorf("invalid --amount provided, --amount=%s", *amount)
	}

	cfg := Config{
		Platform:    *platform,
		Pair:        pair,
		TradeAmount: tradeAmount,
		Chain: Chain{
			RPCURL:        *rpcURL,
			RouterAddress: *router,
			TokenAddress:  *token,
			WETHAddress:   *weth,
		},
	}
	applyDefaults(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp configTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, err
	}

	pair, err := getPairFromString(tmp.Pair)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'pair' param in yaml config: %s, error: %w", tmp.Pair, err)
	}
	tradeAmount, err := decimal.NewFromString(tmp.TradeAmount)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'trade_amount' param in yaml config (correct format is 0.1), error: %w", err)
	}

	cfg := Config{
		Platform:          tmp.Platform,
		Pair:              pair,
		KrakenPair:        tmp.KrakenPair,
		CoinGeckoAssetID:  tmp.CoinGeckoAssetID,
		TradeAmount:       tradeAmount,
		CandleInterval:    tmp.CandleInterval,
		CandleLimit:       tmp.CandleLimit,
		PollPriceInterval: tmp.PollPriceInterval,
		ReportInterval:    tmp.ReportInterval,
		FundingRetryWait:  tmp.FundingRetryWait,
		WalDir:            tmp.WalDir,
		Chain: Chain{
			RPCURL:        tmp.Chain.RPCURL,
			RouterAddress: tmp.Chain.RouterAddress,
			TokenAddress:  tmp.Chain.TokenAddress,
			WETHAddress:   tmp.Chain.WETHAddress,
			GasLimit:      tmp.Chain.GasLimit,
			GasPriceGwei:  tmp.Chain.GasPriceGwei,
		},
	}
	applyDefaults(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Platform == "" {
		cfg.Platform = "kraken"
	}
	if cfg.KrakenPair == "" {
		cfg.KrakenPair = "XETHZUSD"
	}
	if cfg.CoinGeckoAssetID == "" {
		cfg.CoinGeckoAssetID = "ethereum"
	}
	if cfg.CandleInterval == 0 {
		cfg.CandleInterval = defaultCandleInterval
	}
	if cfg.CandleLimit == 0 {
		cfg.CandleLimit = defaultCandleLimit
	}
	if cfg.PollPriceInterval == 0 {
		cfg.PollPriceInterval = defaultPollPriceInterval
	}
	if cfg.ReportInterval == 0 {
		cfg.ReportInterval = defaultReportInterval
	}
	if cfg.FundingRetryWait == 0 {
		cfg.FundingRetryWait = defaultFundingRetryWait
	}
	if cfg.Chain.GasLimit == 0 {
		cfg.Chain.GasLimit = defaultGasLimit
	}
	if cfg.Chain.GasPriceGwei == 0 {
		cfg.Chain.GasPriceGwei = defaultGasPriceGwei
	}
}

func validate(cfg Config) error {
	if cfg.Platform != "kraken" && cfg.Platform != "binance" {
		return fmt.Errorf("unsupported platform %q, expected kraken or binance", cfg.Platform)
	}
	if !cfg.TradeAmount.IsPositive() {
		return fmt.Errorf("trade amount must be positive, got %s", cfg.TradeAmount.String())
	}
	if cfg.Chain.RPCURL == "" {
		return fmt.Errorf("chain rpc url is required")
	}
	if cfg.Chain.RouterAddress == "" || cfg.Chain.TokenAddress == "" || cfg.Chain.WETHAddress == "" {
		return fmt.Errorf("router, token and weth addresses are required")
	}
	return nil
}

func getPairFromString(pairStr string) (domain.Pair, error) {
	pairElements := strings.Split(pairStr, "_")
	if len(pairElements) != 2 {
		return domain.Pair{}, fmt.Errorf("pair must be in FROM_TO format, got %q", pairStr)
	}
	return domain.Pair{From: pairElements[0], To: pairElements[1]}, nil
}
