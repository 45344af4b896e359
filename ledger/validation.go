package ledger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mezonai/simplechain/block"
	"github.com/mezonai/simplechain/events"
	"github.com/mezonai/simplechain/logx"
	"github.com/mezonai/simplechain/monitoring"
	"github.com/mezonai/simplechain/stringutil"
)

var errHashMismatch = errors.New("hash mismatch")

// ValidateChain scans every block from genesis to the current height and returns
// the sorted heights that fail validation. An empty result means the chain is
// intact. Height i is reported when:
//   - block i fails its self-hash check or does not decode
//   - block i is stored under a key other than its own height
//   - i+1 is present and block[i].hash != block[i+1].previousBlockHash
//   - i is missing from the store
//   - i is 0 and genesis has a non-empty previous hash
//
// The scan holds the writer lock, so it sees a consistent snapshot.
func (l *Ledger) ValidateChain() ([]uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := time.Now()
	maxHeight, err := l.GetBlockHeight()
	if err != nil {
		logx.Error("LEDGER", "Failed to read chain height: ", err)
		return nil, err
	}

	scan := newChainScan(maxHeight)
	err = l.store.Iterate(func(height uint64, value []byte) bool {
		if height > maxHeight {
			return false
		}
		blk, reason := l.checkRecord(height, value)
		scan.visit(height, blk, reason)
		return true
	})
	if err != nil {
		logx.Error("LEDGER", "Chain scan aborted: ", err)
		return nil, err
	}

	invalid := scan.result()
	monitoring.RecordChainValidation(time.Since(start), len(invalid))
	if len(invalid) > 0 {
		logx.Warn("LEDGER", fmt.Sprintf("Block errors = %d | heights=%v", len(invalid), invalid))
	} else {
		logx.Info("LEDGER", fmt.Sprintf("No errors detected | height=%d", maxHeight))
	}

	if l.eventBus != nil {
		l.eventBus.Publish(events.NewChainValidated(maxHeight, invalid))
	}
	return invalid, nil
}

// chainScan accumulates validation findings while blocks stream by in height order
type chainScan struct {
	maxHeight  uint64
	next       uint64
	prev       *block.Block
	prevHeight uint64
	invalid    map[uint64]struct{}
}

func newChainScan(maxHeight uint64) *chainScan {
	return &chainScan{
		maxHeight: maxHeight,
		invalid:   make(map[uint64]struct{}),
	}
}

func (s *chainScan) flag(height uint64) {
	s.invalid[height] = struct{}{}
}

// visit consumes the record at height. blk is nil when the record did not
// decode; reason is non-nil when its self-hash check failed.
func (s *chainScan) visit(height uint64, blk *block.Block, reason error) {
	for ; s.next < height; s.next++ {
		logx.Warn("LEDGER", fmt.Sprintf("Block #%d missing", s.next))
		s.flag(s.next)
	}
	s.next = height + 1

	if reason != nil {
		s.flag(height)
	}
	if blk == nil {
		s.prev = nil
		return
	}

	if blk.Height != height {
		logx.Warn("LEDGER", fmt.Sprintf("Block #%d claims height %d", height, blk.Height))
		s.flag(height)
	}
	if height == block.GenesisHeight && blk.PreviousBlockHash != "" {
		logx.Warn("LEDGER", "Genesis block has a previous hash")
		s.flag(height)
	}
	if s.prev != nil && s.prevHeight+1 == height && s.prev.Hash != blk.PreviousBlockHash {
		logx.Warn("LEDGER", fmt.Sprintf("Block #%d link broken: %s<>%s", s.prevHeight, stringutil.ShortenHash(s.prev.Hash), stringutil.ShortenHash(blk.PreviousBlockHash)))
		s.flag(s.prevHeight)
	}

	s.prev = blk
	s.prevHeight = height
}

// result flags heights never seen up to maxHeight and returns the sorted set
func (s *chainScan) result() []uint64 {
	for ; s.next <= s.maxHeight; s.next++ {
		logx.Warn("LEDGER", fmt.Sprintf("Block #%d missing", s.next))
		s.flag(s.next)
	}

	out := make([]uint64, 0, len(s.invalid))
	for h := range s.invalid {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
