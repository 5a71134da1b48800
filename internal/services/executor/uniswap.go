package executor

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"eth-trade-bot-go/internal/domain"
)

// swapDeadline is how far in the future a swap transaction stays valid.
const swapDeadline = 1000 * time.Second

const ethDecimals = 18

// Router fragment covering the two swap calls this bot submits.
const uniswapRouterABI = `[
	{"constant":false,"inputs":[{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"name":"swapExactETHForTokens","outputs":[{"name":"amounts","type":"uint256[]"}],"payable":true,"stateMutability":"payable","type":"function"},
	{"constant":false,"inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"name":"swapExactTokensForETH","outputs":[{"name":"amounts","type":"uint256[]"}],"payable":false,"stateMutability":"nonpayable","type":"function"}
]`

// Config holds the chain connection and swap parameters.
type Config struct {
	RPCURL        string
	PrivateKeyHex string
	RouterAddress string
	TokenAddress  string
	WETHAddress   string
	GasLimit      uint64
	GasPriceGwei  int64
	// MinOut is the minimum output amount (slippage guard) in the smallest
	// unit of the output asset.
	MinOut *big.Int
}

// UniswapExecutor submits market swaps through a Uniswap V2 style router.
type UniswapExecutor struct {
	client    *ethclient.Client
	routerABI abi.ABI
	router    common.Address
	token     common.Address
	weth      common.Address
	wallet    common.Address
	key       *ecdsa.PrivateKey
	chainID   *big.Int
	gasLimit  uint64
	gasPrice  *big.Int
	minOut    *big.Int
	logger    *zap.Logger
}

// NewUniswapExecutor dials the RPC endpoint and verifies connectivity.
// Errors here are configuration failures and fatal at startup.
func NewUniswapExecutor(ctx context.Context, cfg Config, logger *zap.Logger) (*UniswapExecutor, error) {
	keyHex := cfg.PrivateKeyHex
	if len(keyHex) >= 2 && (keyHex[:2] == "0x" || keyHex[:2] == "0X") {
		keyHex = keyHex[2:]
	}

	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, errors.Wrap(err, "invalid private key")
	}

	pub, ok := key.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("error casting public key to ECDSA")
	}
	wallet := crypto.PubkeyToAddress(*pub)

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to RPC endpoint %s", cfg.RPCURL)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch chain id")
	}

	parsedABI, err := abi.JSON(strings.NewReader(uniswapRouterABI))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse router ABI")
	}

	minOut := cfg.MinOut
	if minOut == nil {
		minOut = big.NewInt(0)
	}

	logger.Info("connected to chain",
		zap.String("rpc_url", cfg.RPCURL),
		zap.String("chain_id", chainID.String()),
		zap.String("wallet", wallet.Hex()))

	return &UniswapExecutor{
		client:    client,
		routerABI: parsedABI,
		router:    common.HexToAddress(cfg.RouterAddress),
		token:     common.HexToAddress(cfg.TokenAddress),
		weth:      common.HexToAddress(cfg.WETHAddress),
		wallet:    wallet,
		key:       key,
		chainID:   chainID,
		gasLimit:  cfg.GasLimit,
		gasPrice:  new(big.Int).Mul(big.NewInt(cfg.GasPriceGwei), big.NewInt(params.GWei)),
		minOut:    minOut,
		logger:    logger,
	}, nil
}

// Balance returns the wallet's ETH balance.
func (e *UniswapExecutor) Balance(ctx context.Context) (decimal.Decimal, error) {
	wei, err := e.client.BalanceAt(ctx, e.wallet, nil)
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "failed to get wallet balance")
	}

	return decimal.NewFromBigInt(wei, -ethDecimals), nil
}

// BuySwap swaps native currency for the token via swapExactETHForTokens.
func (e *UniswapExecutor) BuySwap(ctx context.Context, amountETH decimal.Decimal) (string, error) {
	deadline := big.NewInt(time.Now().Add(swapDeadline).Unix())
	path := []common.Address{e.weth, e.token}

	data, err := e.routerABI.Pack("swapExactETHForTokens", e.minOut, path, e.wallet, deadline)
	if err != nil {
		return "", errors.Wrapf(domain.ErrExecutionFailed, "failed to pack buy call: %s", err)
	}

	value := amountETH.Shift(ethDecimals).BigInt()

	txID, err := e.submit(ctx, data, value)
	if err != nil {
		return "", err
	}

	e.logger.Info("buy swap broadcast",
		zap.String("amount_eth", amountETH.String()),
		zap.String("tx_id", txID))

	return txID, nil
}

// SellSwap swaps token back to native currency via swapExactTokensForETH.
func (e *UniswapExecutor) SellSwap(ctx context.Context, amountETH decimal.Decimal) (string, error) {
	deadline := big.NewInt(time.Now().Add(swapDeadline).Unix())
	path := []common.Address{e.token, e.weth}
	amountIn := amountETH.Shift(ethDecimals).BigInt()

	data, err := e.routerABI.Pack("swapExactTokensForETH", amountIn, e.minOut, path, e.wallet, deadline)
	if err != nil {
		return "", errors.Wrapf(domain.ErrExecutionFailed, "failed to pack sell call: %s", err)
	}

	txID, err := e.submit(ctx, data, big.NewInt(0))
	if err != nil {
		return "", err
	}

	e.logger.Info("sell swap broadcast",
		zap.String("amount", amountETH.String()),
		zap.String("tx_id", txID))

	return txID, nil
}

// submit builds, signs and broadcasts a router call. Returning without error
// means the node accepted the transaction; it is not awaited to mine.
func (e *UniswapExecutor) submit(ctx context.Context, data []byte, value *big.Int) (string, error) {
	nonce, err := e.client.PendingNonceAt(ctx, e.wallet)
	if err != nil {
		return "", errors.Wrapf(domain.ErrExecutionFailed, "failed to fetch nonce: %s", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &e.router,
		Value:    value,
		Gas:      e.gasLimit,
		GasPrice: e.gasPrice,
		Data:     data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(e.chainID), e.key)
	if err != nil {
		return "", errors.Wrapf(domain.ErrExecutionFailed, "failed to sign transaction: %s", err)
	}

	if err := e.client.SendTransaction(ctx, signed); err != nil {
		return "", errors.Wrapf(domain.ErrExecutionFailed, "failed to broadcast transaction: %s", err)
	}

	return signed.Hash().Hex(), nil
}

// Wallet returns the wallet address derived from the configured key.
func (e *UniswapExecutor) Wallet() common.Address {
	return e.wallet
}
