package events

import (
	"time"
)

// EventType is an enum-like string type for ledger events
type EventType string

const (
	EventBlockAdded     EventType = "BlockAdded"
	EventChainValidated EventType = "ChainValidated"
)

// LedgerEvent represents any event that occurs in the ledger
type LedgerEvent interface {
	Type() EventType
	Timestamp() time.Time
	Height() uint64
}

// BlockAdded event when a block has been persisted
type BlockAdded struct {
	height    uint64
	blockHash string
	timestamp time.Time
}

func NewBlockAdded(height uint64, blockHash string) *BlockAdded {
	return &BlockAdded{
		height:    height,
		blockHash: blockHash,
		timestamp: time.Now(),
	}
}

func (e *BlockAdded) Type() EventType {
	return EventBlockAdded
}

func (e *BlockAdded) Timestamp() time.Time {
	return e.timestamp
}

func (e *BlockAdded) Height() uint64 {
	return e.height
}

func (e *BlockAdded) BlockHash() string {
	return e.blockHash
}

// ChainValidated event after a full chain scan
type ChainValidated struct {
	height         uint64
	invalidHeights []uint64
	timestamp      time.Time
}

func NewChainValidated(height uint64, invalidHeights []uint64) *ChainValidated {
	return &ChainValidated{
		height:         height,
		invalidHeights: invalidHeights,
		timestamp:      time.Now(),
	}
}

func (e *ChainValidated) Type() EventType {
	return EventChainValidated
}

func (e *ChainValidated) Timestamp() time.Time {
	return e.timestamp
}

// Height is the chain height the scan covered
func (e *ChainValidated) Height() uint64 {
	return e.height
}

func (e *ChainValidated) InvalidHeights() []uint64 {
	return e.invalidHeights
}

func (e *ChainValidated) Intact() bool {
	return len(e.invalidHeights) == 0
}
