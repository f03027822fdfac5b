// Package domain contains the chain head and fee types that drive evaluation ticks.
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Block is a chain head. Its number is the tick every evaluation is keyed on.
type Block struct {
	Number     uint64
	Hash       common.Hash
	ParentHash common.Hash
	Timestamp  time.Time
	BaseFee    *big.Int
}

// Tick returns the block number.
func (b *Block) Tick() uint64 {
	if b == nil {
		return 0
	}
	return b.Number
}

// ConnectionState represents the state of the head subscription.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
)

// Gauge maps the state onto the eth_connection_state metric.
func (s ConnectionState) Gauge() int64 {
	switch s {
	case StateConnecting:
		return 1
	case StateConnected:
		return 2
	case StateReconnecting:
		return 3
	default:
		return 0
	}
}

// ConnectionStatus is a point-in-time view of the subscriber.
type ConnectionStatus struct {
	State      ConnectionState
	LastBlock  uint64
	Reconnects int
	UsingHTTP  bool
}
