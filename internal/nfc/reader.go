package nfc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Naimehossein77/gym-nfc/internal/common"
	"github.com/Naimehossein77/gym-nfc/internal/logging"
)

// DefaultTimeout bounds the wait for a card when the caller does not
// specify one.
const DefaultTimeout = 30 * time.Second

// Options configures the reader gateway.
type Options struct {
	// Timeout is the default wait-for-card bound. Zero means DefaultTimeout.
	Timeout time.Duration

	// ForceSimulation skips hardware probing entirely.
	ForceSimulation bool

	Logger logging.Logger
}

// Reader is the process-wide gateway to the single NFC transceiver.
//
// One mutex serializes Write and Read: two card operations are never
// concurrent, including their wait-for-card windows. The hardware probe
// runs once per process and its result is cached until Reset.
type Reader struct {
	// mu is held for the whole duration of one card operation, and by
	// Reset and Close so the driver is never torn down mid-operation.
	// Lock order: mu before probeMu.
	mu sync.Mutex

	probeMu   sync.Mutex
	probed    bool
	available bool
	driver    Driver

	timeout  time.Duration
	forceSim bool
	logger   logging.Logger

	// newHardwareDriver is a seam for tests.
	newHardwareDriver func() Driver
}

func NewReader(opts Options) *Reader {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Reader{
		timeout:           timeout,
		forceSim:          opts.ForceSimulation,
		logger:            logger.With("module", "nfc"),
		newHardwareDriver: func() Driver { return newPCSCDriver() },
	}
}

// Probe initializes the hardware driver exactly once and reports whether
// real hardware is available. On failure (or when simulation is forced)
// the gateway transparently substitutes the simulation backend.
func (r *Reader) Probe(ctx context.Context) bool {
	r.probeMu.Lock()
	defer r.probeMu.Unlock()

	if r.probed {
		return r.available
	}
	r.probed = true

	if r.forceSim {
		r.logger.Info(ctx, "simulation mode forced, skipping hardware probe")
		r.driver = newSimulator()
		r.available = false
		return false
	}

	hw := r.newHardwareDriver()
	if err := hw.Open(); err != nil {
		r.logger.Warn(ctx, "hardware probe failed, falling back to simulation", "error", err)
		r.driver = newSimulator()
		r.available = false
		return false
	}

	r.logger.Info(ctx, "NFC reader initialized", "reader", hw.Type())
	r.driver = hw
	r.available = true
	return true
}

// Reset clears the cached probe result and closes the current driver so the
// next operation re-probes. Waits for any in-flight card operation first.
// Intended for operational recovery, not routine use.
func (r *Reader) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.probeMu.Lock()
	defer r.probeMu.Unlock()

	var err error
	if r.driver != nil {
		err = r.driver.Close()
	}
	r.driver = nil
	r.probed = false
	r.available = false
	return err
}

// ensureDriver resolves the current driver and whether it is real hardware.
// Callers must hold r.mu so the snapshot stays valid for the operation.
func (r *Reader) ensureDriver(ctx context.Context) (Driver, bool) {
	r.Probe(ctx)
	r.probeMu.Lock()
	defer r.probeMu.Unlock()
	return r.driver, r.available
}

func (r *Reader) effectiveTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return r.timeout
	}
	return timeout
}

// Write burns a token record onto the next presented card. The record is
// "token|member_id|timestamp". Failures are reported in the result, never
// as partial writes.
func (r *Reader) Write(ctx context.Context, token string, memberID int64, timeout time.Duration) WriteResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	driver, hardware := r.ensureDriver(ctx)
	wait := r.effectiveTimeout(timeout)

	record := fmt.Sprintf("%s|%d|%s", token, memberID, time.Now().Format(time.RFC3339))
	r.logger.Info(ctx, "starting card write", "member_id", memberID, "timeout", wait)

	cardID, err := driver.Write(WriteOp{Record: record, MemberID: memberID, Timeout: wait})
	if err != nil {
		if errors.Is(err, common.ErrHardwareTimeout) {
			return WriteResult{
				Success: false,
				Message: fmt.Sprintf("No NFC card detected within %.0f seconds", wait.Seconds()),
			}
		}
		r.logger.Error(ctx, "card write failed", "error", err)
		return WriteResult{
			Success: false,
			Message: fmt.Sprintf("Error writing to card: %v", err),
			CardID:  cardID,
		}
	}

	msg := fmt.Sprintf("Token successfully written to card %s", cardID)
	if !hardware {
		msg += " (simulation mode)"
	}
	r.logger.Info(ctx, "card write complete", "card_id", cardID)

	return WriteResult{
		Success:      true,
		Message:      msg,
		CardID:       cardID,
		TokenWritten: token,
	}
}

// Read returns the structured records on the next presented card. A card
// with no compatible data is a success with RecordCount 0.
func (r *Reader) Read(ctx context.Context, timeout time.Duration) ReadResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	driver, _ := r.ensureDriver(ctx)
	wait := r.effectiveTimeout(timeout)

	r.logger.Info(ctx, "starting card read", "timeout", wait)

	cardID, records, err := driver.Read(wait)
	if err != nil {
		if errors.Is(err, common.ErrHardwareTimeout) {
			return ReadResult{
				Success: false,
				Message: fmt.Sprintf("No NFC card detected within %.0f seconds", wait.Seconds()),
			}
		}
		r.logger.Error(ctx, "card read failed", "error", err)
		return ReadResult{
			Success: false,
			Message: fmt.Sprintf("Error reading card: %v", err),
			CardID:  cardID,
		}
	}

	if len(records) == 0 {
		return ReadResult{
			Success:     true,
			Message:     fmt.Sprintf("Card %s detected but no compatible data found", cardID),
			CardID:      cardID,
			RecordCount: 0,
		}
	}

	content := records[0]
	for _, rec := range records[1:] {
		content += "\n" + rec
	}

	return ReadResult{
		Success:     true,
		Message:     fmt.Sprintf("Successfully read data from card %s", cardID),
		CardID:      cardID,
		Content:     content,
		RecordCount: len(records),
	}
}

// Status reports the probe result without requiring a card present.
func (r *Reader) Status(ctx context.Context) Status {
	connected := r.Probe(ctx)

	r.probeMu.Lock()
	readerType := simReaderType
	if r.driver != nil {
		readerType = r.driver.Type()
	}
	r.probeMu.Unlock()

	return Status{
		Connected:  connected,
		ReaderType: readerType,
		Timeout:    int(r.timeout.Seconds()),
	}
}

// Close releases the driver after any in-flight operation completes.
// Called on shutdown.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.probeMu.Lock()
	defer r.probeMu.Unlock()
	if r.driver == nil {
		return nil
	}
	return r.driver.Close()
}
