package nfc

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/Naimehossein77/gym-nfc/internal/common"
	"github.com/ebfe/scard"
)

// Tag memory layout (Type 2 tags, 4-byte pages, user memory from page 4):
// page 4 holds the magic, then a big-endian uint16 record length, then the
// record bytes. Writing the magic header is what "formats" a blank card.
const (
	tagMagic     = "GYM1"
	tagFirstPage = 4
	tagPageSize  = 4
	maxRecordLen = 128
)

// pcscDriver talks to a PC/SC reader (ACS ACR122U) through pcscd.
type pcscDriver struct {
	ctx    *scard.Context
	reader string
}

func newPCSCDriver() *pcscDriver { return &pcscDriver{} }

// Open establishes the PC/SC context and picks the first attached reader.
// Failure here means no hardware; the gateway falls back to simulation.
func (d *pcscDriver) Open() error {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return fmt.Errorf("%w: establish context: %v", common.ErrHardwareFault, err)
	}

	readers, err := ctx.ListReaders()
	if err != nil || len(readers) == 0 {
		ctx.Release()
		return fmt.Errorf("%w: no PC/SC readers attached", common.ErrHardwareFault)
	}

	d.ctx = ctx
	d.reader = readers[0]
	return nil
}

func (d *pcscDriver) Type() string { return d.reader }

func (d *pcscDriver) Close() error {
	if d.ctx == nil {
		return nil
	}
	err := d.ctx.Release()
	d.ctx = nil
	return err
}

// waitForCard blocks until a card is present on the reader or the timeout
// elapses, then connects to it. The timeout is wall-clock from call start.
func (d *pcscDriver) waitForCard(timeout time.Duration) (*scard.Card, error) {
	deadline := time.Now().Add(timeout)
	states := []scard.ReaderState{{Reader: d.reader, CurrentState: scard.StateUnaware}}

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, common.ErrHardwareTimeout
		}

		if err := d.ctx.GetStatusChange(states, remaining); err != nil {
			if err == scard.ErrTimeout {
				return nil, common.ErrHardwareTimeout
			}
			return nil, fmt.Errorf("%w: status change: %v", common.ErrHardwareFault, err)
		}

		if states[0].EventState&scard.StatePresent != 0 {
			card, err := d.ctx.Connect(d.reader, scard.ShareShared, scard.ProtocolAny)
			if err != nil {
				return nil, fmt.Errorf("%w: connect: %v", common.ErrHardwareFault, err)
			}
			return card, nil
		}

		states[0].CurrentState = states[0].EventState
	}
}

// transmit sends an APDU and checks the SW1/SW2 trailer.
func transmit(card *scard.Card, apdu []byte) ([]byte, error) {
	resp, err := card.Transmit(apdu)
	if err != nil {
		return nil, fmt.Errorf("%w: transmit: %v", common.ErrHardwareFault, err)
	}
	if len(resp) < 2 || resp[len(resp)-2] != 0x90 || resp[len(resp)-1] != 0x00 {
		return nil, fmt.Errorf("%w: card rejected command (sw=% x)", common.ErrHardwareFault, resp)
	}
	return resp[:len(resp)-2], nil
}

// cardUID reads the card identifier via the reader's GET DATA pseudo-APDU.
func cardUID(card *scard.Card) (string, error) {
	uid, err := transmit(card, []byte{0xFF, 0xCA, 0x00, 0x00, 0x00})
	if err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(uid)), nil
}

func readPage(card *scard.Card, page byte, length byte) ([]byte, error) {
	return transmit(card, []byte{0xFF, 0xB0, 0x00, page, length})
}

func writePage(card *scard.Card, page byte, data []byte) error {
	apdu := append([]byte{0xFF, 0xD6, 0x00, page, byte(len(data))}, data...)
	_, err := transmit(card, apdu)
	return err
}

func (d *pcscDriver) Write(op WriteOp) (string, error) {
	if len(op.Record) > maxRecordLen {
		return "", fmt.Errorf("%w: record too long (%d bytes)", common.ErrHardwareFault, len(op.Record))
	}

	card, err := d.waitForCard(op.Timeout)
	if err != nil {
		return "", err
	}
	defer card.Disconnect(scard.LeaveCard)

	uid, err := cardUID(card)
	if err != nil {
		return "", err
	}

	// header (magic + length) followed by the record, padded to page size
	buf := make([]byte, 0, len(tagMagic)+2+len(op.Record)+tagPageSize)
	buf = append(buf, tagMagic...)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(op.Record)))
	buf = append(buf, op.Record...)
	for len(buf)%tagPageSize != 0 {
		buf = append(buf, 0x00)
	}

	// Pages are written back to front so the magic header lands last: a
	// card is only recognized as formatted once its record is complete.
	for off := len(buf) - tagPageSize; off >= 0; off -= tagPageSize {
		page := byte(tagFirstPage + off/tagPageSize)
		if err := writePage(card, page, buf[off:off+tagPageSize]); err != nil {
			return uid, err
		}
	}

	return uid, nil
}

func (d *pcscDriver) Read(timeout time.Duration) (string, []string, error) {
	card, err := d.waitForCard(timeout)
	if err != nil {
		return "", nil, err
	}
	defer card.Disconnect(scard.LeaveCard)

	uid, err := cardUID(card)
	if err != nil {
		return "", nil, err
	}

	header, err := readPage(card, tagFirstPage, 16)
	if err != nil {
		return uid, nil, err
	}
	if len(header) < len(tagMagic)+2 || !bytes.Equal(header[:len(tagMagic)], []byte(tagMagic)) {
		// unformatted or foreign card: no compatible data
		return uid, nil, nil
	}

	recordLen := int(binary.BigEndian.Uint16(header[len(tagMagic) : len(tagMagic)+2]))
	if recordLen > maxRecordLen {
		return uid, nil, nil
	}

	data := header[len(tagMagic)+2:]
	page := byte(tagFirstPage + 16/tagPageSize)
	for len(data) < recordLen {
		chunk, err := readPage(card, page, 16)
		if err != nil {
			return uid, nil, err
		}
		data = append(data, chunk...)
		page += 16 / tagPageSize
	}

	content := string(data[:recordLen])
	records := strings.Split(content, "\n")
	return uid, records, nil
}
