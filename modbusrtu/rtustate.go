// Package modbusrtu implements the Modbus RTU serial transport glue around the
// transport-agnostic frame engine in github.com/fieldbuslabs/modbus: CRC-checked
// binary framing over an io.ReadWriter (typically a go.bug.st/serial.Port), with a
// Server that answers requests against a modbus.Context and a Client that issues them.
package modbusrtu

import (
	"encoding/hex"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/fieldbuslabs/modbus"
)

var errYetToConnect = errors.New("yet to connect")

// ErrMissingPacketData is returned by connState.tryRx when the port has not yet
// delivered a complete frame; the caller should read again and retry.
var ErrMissingPacketData = errors.New("modbusrtu: missing packet data")

// CRCError describes a received packet whose CRC does not match. Server and Client in
// this package do not return it: they report a CRC mismatch as modbus.ErrBadCRC.
type CRCError struct {
	Packet []byte
}

func (e CRCError) Error() string {
	return "bad CRC:\n" + hex.Dump(e.Packet)
}

// connState stores the persisting state of a serial connection: the raw port, a
// receive ring buffer, and whatever request/response is in flight. It is shared
// between a Server or Client's methods, protected by mu where state crosses goroutines.
type connState struct {
	mu       sync.Mutex
	port     io.ReadWriter
	closeErr error

	murx       sync.Mutex
	lastRxTime time.Time
	dataStart  int
	dataEnd    int
	rxbuf      [512]byte
}

// tryRx tries to read one complete address+PDU+CRC packet from the port. If the frame
// is not yet fully buffered it returns ErrMissingPacketData and the caller should call
// again once more bytes may have arrived. isResponse selects whether the length oracle
// treats fc as a request or response function code (a response needs fc from the
// outstanding request since the frame itself is symmetric in that respect).
func (cs *connState) tryRx(isResponse bool, fc modbus.FunctionCode) (pdu []byte, address uint8, err error) {
	cs.murx.Lock()
	defer cs.murx.Unlock()
	if cs.dataEnd > 256 || cs.buffered() == 0 {
		cs.resetRxBuf()
	}
	if buffered := cs.buffered(); buffered < 2 {
		n, rerr := cs.read(2 - buffered)
		buffered += n
		if buffered < 2 {
			if rerr != nil {
				return nil, 0, rerr
			}
			return nil, 0, ErrMissingPacketData
		}
	}

	hdr := cs.rxBytes()
	var more int
	var ok bool
	if isResponse {
		more, ok = modbus.GuessResponseFrameLen(modbus.ProtoRTU, fc, hdr)
	} else {
		more, ok = modbus.GuessRequestFrameLen(modbus.ProtoRTU, hdr)
	}
	if !ok {
		if more > 0 {
			if _, rerr := cs.read(more); rerr != nil {
				return nil, 0, rerr
			}
		}
		return nil, 0, ErrMissingPacketData
	}
	if more > 0 {
		n, rerr := cs.read(more)
		if rerr != nil {
			return nil, 0, rerr
		}
		if n < more {
			return nil, 0, ErrMissingPacketData
		}
	}

	total := cs.buffered()
	packet := cs.rxbuf[cs.dataStart : cs.dataStart+total]
	address = packet[0]
	cs.dataStart += total
	return packet, address, nil
}

func (cs *connState) read(upTo int) (n int, err error) {
	if upTo > len(cs.rxbuf)-cs.dataEnd {
		return 0, errors.New("modbusrtu: read overflow")
	}
	n, err = cs.port.Read(cs.rxbuf[cs.dataEnd : cs.dataEnd+upTo])
	if n != 0 {
		cs.lastRxTime = time.Now()
		cs.dataEnd += n
	}
	return n, err
}

func (cs *connState) buffered() int { return cs.dataEnd - cs.dataStart }

func (cs *connState) rxBytes() []byte { return cs.rxbuf[cs.dataStart:cs.dataEnd] }

// Err returns the error responsible for a closed connection.
//
// Err is safe to call concurrently.
func (cs *connState) Err() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.closeErr
}

func (cs *connState) resetRxBuf() {
	if cs.dataStart != cs.dataEnd && cs.buffered() < 256 {
		cs.dataEnd = copy(cs.rxbuf[:], cs.rxbuf[cs.dataStart:cs.dataEnd])
	} else {
		cs.dataEnd = 0
	}
	cs.dataStart = 0
}
