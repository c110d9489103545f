// Package ui provides the Bubble Tea dashboard for the pool watcher.
package ui

import (
	chaindomain "github.com/fd1az/amm-quoter/business/blockchain/domain"
	quotingapp "github.com/fd1az/amm-quoter/business/quoting/app"
)

// BlockUpdateMsg carries the results recomputed for one block.
type BlockUpdateMsg struct {
	Update *quotingapp.BlockUpdate
}

// ConnectionStatusMsg is sent when the head subscription changes state.
type ConnectionStatusMsg struct {
	Status chaindomain.ConnectionStatus
}

// ErrorMsg is sent when a block could not be processed.
type ErrorMsg struct {
	Error error
}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}
