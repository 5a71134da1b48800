// Package trades persists the trade ledger in a write-ahead log so that the
// record survives restarts.
package trades

import (
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"eth-trade-bot-go/internal/domain"
)

const (
	segmentThreshold  = 1000
	maxSegments       = 100
	walDirPermissions = 0o755

	tradeKeyPrefix = "trade_"
)

// WALStore persists trades in an append-only WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.Mutex
}

// NewWALStore initializes a WAL-backed trade store in the given directory.
func NewWALStore(dir string) (*WALStore, error) {
	if err := os.MkdirAll(dir, walDirPermissions); err != nil {
		return nil, errors.Wrapf(err, "failed to ensure WAL directory %s", dir)
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "trades_",
		SegmentThreshold: segmentThreshold,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init trade WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save appends the trade to the WAL.
func (s *WALStore) Save(trade domain.Trade) error {
	if s == nil || s.wal == nil {
		return errors.New("trade store is not initialized")
	}

	payload, err := json.Marshal(trade)
	if err != nil {
		return errors.Wrap(err, "marshal trade")
	}

	key := tradeKeyPrefix + trade.ID

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// All returns every persisted trade in append order.
func (s *WALStore) All() ([]domain.Trade, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("trade store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var result []domain.Trade
	for msg := range s.wal.Iterator() {
		if !strings.HasPrefix(msg.Key, tradeKeyPrefix) {
			continue
		}

		var trade domain.Trade
		if err := json.Unmarshal(msg.Value, &trade); err != nil {
			return nil, errors.Wrapf(err, "unmarshal trade %s", msg.Key)
		}
		result = append(result, trade)
	}

	return result, nil
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return nil
	}
	return s.wal.Close()
}
