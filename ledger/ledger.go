package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mezonai/simplechain/block"
	ledgererrors "github.com/mezonai/simplechain/errors"
	"github.com/mezonai/simplechain/events"
	"github.com/mezonai/simplechain/hasher"
	"github.com/mezonai/simplechain/logx"
	"github.com/mezonai/simplechain/monitoring"
	"github.com/mezonai/simplechain/store"
	"github.com/mezonai/simplechain/stringutil"
)

// Ledger is the chain manager. Writers (AddBlock, Initialize, ValidateChain)
// are serialized by mu; GetBlock and ValidateBlock never take it because
// persisted blocks are immutable.
type Ledger struct {
	mu       sync.Mutex
	store    store.BlockStore
	hasher   hasher.Hasher
	clock    func() time.Time
	eventBus *events.EventBus
}

type Option func(*Ledger)

// WithClock overrides the wall clock used to timestamp new blocks
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) {
		l.clock = clock
	}
}

// WithEventBus publishes BlockAdded and ChainValidated events on bus
func WithEventBus(bus *events.EventBus) Option {
	return func(l *Ledger) {
		l.eventBus = bus
	}
}

func NewLedger(bs store.BlockStore, h hasher.Hasher, opts ...Option) *Ledger {
	if h == nil {
		h = hasher.SHA256()
	}
	l := &Ledger{
		store:  bs,
		hasher: h,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Hasher returns the digest function the ledger seals blocks with
func (l *Ledger) Hasher() hasher.Hasher {
	return l.hasher
}

// Initialize writes the genesis block at height 0 unless a block is already there
func (l *Ledger) Initialize() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.store.Get(block.GenesisHeight)
	if err == nil {
		logx.Info("LEDGER", "Genesis block already exists, skipping creation")
		l.refreshHeightMetric()
		return nil
	}
	if !errors.Is(err, ledgererrors.ErrNotFound) {
		logx.Error("LEDGER", "Failed to check genesis block: ", err)
		return err
	}

	genesis := block.Genesis(l.hasher)
	if err := l.store.Put(genesis.Height, genesis.Canonical()); err != nil {
		logx.Error("LEDGER", "Failed to persist genesis block: ", err)
		return err
	}

	monitoring.SetBlockHeight(genesis.Height)
	logx.Info("LEDGER", "Genesis block created with hash: ", genesis.Hash)
	return nil
}

// AddBlock appends a block carrying body and returns it as persisted
func (l *Ledger) AddBlock(body string) (*block.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := time.Now()
	blk, size, err := l.appendBlockWithoutLocking(body)
	if err != nil {
		monitoring.IncreaseAddBlockFailures()
		logx.Error("LEDGER", "Failed to add block: ", err)
		return nil, err
	}

	monitoring.RecordAddBlock(time.Since(start), size)
	monitoring.SetBlockHeight(blk.Height)
	logx.Info("LEDGER", fmt.Sprintf("Added block | height=%d | hash=%s", blk.Height, stringutil.ShortenHash(blk.Hash)))

	if l.eventBus != nil {
		l.eventBus.Publish(events.NewBlockAdded(blk.Height, blk.Hash))
	}
	return blk.Clone(), nil
}

// appendBlockWithoutLocking runs read height -> fetch predecessor -> hash -> persist.
// Caller must hold l.mu. Nothing is written unless every earlier step succeeded.
func (l *Ledger) appendBlockWithoutLocking(body string) (*block.Block, int, error) {
	tip, err := l.GetBlockHeight()
	if err != nil {
		return nil, 0, err
	}

	prev, err := l.GetBlock(tip)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch predecessor %d: %w", tip, err)
	}

	blk := block.NewBlock(body)
	blk.Height = tip + 1
	blk.Timestamp = l.clock().Unix()
	blk.PreviousBlockHash = prev.Hash
	blk.Seal(l.hasher)

	// count-1 points below the real tip when a height is missing; never overwrite
	_, err = l.store.Get(blk.Height)
	if err == nil {
		return nil, 0, ledgererrors.NewError(ledgererrors.ErrCodeStoreFailure, fmt.Sprintf(ledgererrors.ErrMsgHeightOccupied, blk.Height))
	}
	if !errors.Is(err, ledgererrors.ErrNotFound) {
		return nil, 0, err
	}

	data := blk.Canonical()
	if err := l.store.Put(blk.Height, data); err != nil {
		return nil, 0, err
	}
	return blk, len(data), nil
}

// GetBlockHeight returns the height of the newest block, i.e. the block count minus one
func (l *Ledger) GetBlockHeight() (uint64, error) {
	count, err := l.store.Count()
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, ledgererrors.NewError(ledgererrors.ErrCodeEmptyChain, ledgererrors.ErrMsgEmptyChain)
	}
	return count - 1, nil
}

// GetBlock fetches and decodes the block at height
func (l *Ledger) GetBlock(height uint64) (*block.Block, error) {
	data, err := l.store.Get(height)
	if err != nil {
		return nil, err
	}

	blk, err := block.Decode(data)
	if err != nil {
		return nil, ledgererrors.Wrap(ledgererrors.ErrCodeStoreFailure, err, fmt.Sprintf("Block record at height %d is unreadable", height))
	}
	return blk, nil
}

// ValidateBlock recomputes the hash of the block at height and compares it with
// the stored one. A record that no longer decodes is reported as invalid.
func (l *Ledger) ValidateBlock(height uint64) (bool, error) {
	data, err := l.store.Get(height)
	if err != nil {
		return false, err
	}

	_, reason := l.checkRecord(height, data)
	valid := reason == nil
	monitoring.RecordBlockValidation(valid)
	return valid, nil
}

// checkRecord verifies a stored record in isolation. The returned error is the
// reason it is invalid and is never surfaced to callers; blk is nil only when
// the record does not decode.
func (l *Ledger) checkRecord(height uint64, data []byte) (*block.Block, error) {
	blk, err := block.Decode(data)
	if err != nil {
		logx.Warn("LEDGER", fmt.Sprintf("Block #%d undecodable: %v", height, err))
		return nil, err
	}

	computed := blk.ComputeHash(l.hasher)
	if computed != blk.Hash {
		logx.Warn("LEDGER", fmt.Sprintf("Block #%d invalid hash: %s<>%s", height, blk.Hash, computed))
		return blk, errHashMismatch
	}
	return blk, nil
}

// refreshHeightMetric is best effort; errors are only logged
func (l *Ledger) refreshHeightMetric() {
	height, err := l.GetBlockHeight()
	if err != nil {
		logx.Warn("LEDGER", "Could not read block height: ", err)
		return
	}
	monitoring.SetBlockHeight(height)
}
