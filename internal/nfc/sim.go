package nfc

import (
	"fmt"
	"time"
)

// simReaderType mirrors the hardware model so status output looks the same
// in both modes.
const simReaderType = "Simulated ACS ACR122U"

// simDelay is the artificial card-presentation delay, kept well below real
// presentation times so simulated provisioning stays snappy.
const simDelay = 100 * time.Millisecond

// simulator is the Driver used when no hardware is available or when
// simulation is forced. Writes always succeed against a pseudo card whose
// identifier is derived from the member, so repeated runs are reproducible.
type simulator struct{}

func newSimulator() *simulator { return &simulator{} }

func (s *simulator) Open() error { return nil }

func (s *simulator) Type() string { return simReaderType }

func (s *simulator) Write(op WriteOp) (string, error) {
	delay := simDelay
	if op.Timeout > 0 && op.Timeout < delay {
		delay = op.Timeout
	}
	time.Sleep(delay)
	return fmt.Sprintf("SIM%04d", op.MemberID), nil
}

func (s *simulator) Read(timeout time.Duration) (string, []string, error) {
	delay := simDelay
	if timeout > 0 && timeout < delay {
		delay = timeout
	}
	time.Sleep(delay)
	return "SIM0001", []string{"SIMULATED_TOKEN|1|2024-01-01T12:00:00"}, nil
}

func (s *simulator) Close() error { return nil }
