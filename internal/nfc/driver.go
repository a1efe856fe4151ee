// Package nfc owns the physical NFC reader. All card operations go through
// a single Reader that serializes access to one transceiver and falls back
// to a deterministic simulation when no hardware is present.
package nfc

import "time"

// WriteOp describes one card write: the record to burn and how long to
// wait for a card to be presented. MemberID is carried so the simulated
// backend can fabricate a stable card identifier.
type WriteOp struct {
	Record   string
	MemberID int64
	Timeout  time.Duration
}

// Driver is the low-level transceiver capability. Implementations are not
// safe for concurrent use; Reader serializes all calls.
//
// Timeouts are wall-clock from the start of the wait-for-card phase.
// A timeout returns common.ErrHardwareTimeout; transport and driver
// failures return common.ErrHardwareFault (wrapped with detail).
type Driver interface {
	// Open initializes the transceiver. Called once before first use.
	Open() error

	// Type identifies the backend for status reporting.
	Type() string

	// Write waits for a card and writes op.Record onto its data area,
	// formatting the card for structured storage if needed. Returns the
	// card identifier. No partial write is left behind on timeout.
	Write(op WriteOp) (cardID string, err error)

	// Read waits for a card and returns its structured records. A card
	// with no compatible data yields an empty records slice.
	Read(timeout time.Duration) (cardID string, records []string, err error)

	Close() error
}

// WriteResult reports the outcome of a card write.
type WriteResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	CardID       string `json:"card_id,omitempty"`
	TokenWritten string `json:"token_written,omitempty"`
}

// ReadResult reports the outcome of a card read.
type ReadResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	CardID      string `json:"card_id,omitempty"`
	Content     string `json:"content,omitempty"`
	RecordCount int    `json:"records_count"`
}

// Status describes the reader without requiring a card present.
type Status struct {
	Connected  bool   `json:"connected"`
	ReaderType string `json:"reader_type"`
	Timeout    int    `json:"timeout"`
}
