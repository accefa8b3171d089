// Package modbusascii implements the Modbus ASCII serial transport glue around the
// transport-agnostic frame engine in github.com/fieldbuslabs/modbus: LRC-checked frames
// delimited by a leading ':' and a trailing CRLF, each hex-encoding a binary address+PDU+LRC
// frame, over an io.ReadWriter (typically a go.bug.st/serial.Port).
package modbusascii

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/fieldbuslabs/modbus"
)

var errYetToConnect = errors.New("yet to connect")

// FormatError is returned when a received line is not a well formed ASCII frame: missing
// the leading ':', an odd number of hex digits, or a non-hex digit.
type FormatError struct {
	Line []byte
}

func (e FormatError) Error() string {
	return "modbusascii: malformed frame: " + string(e.Line)
}

// connState stores the persisting state of a serial connection: the raw port, a line
// reader, and a scratch buffer the decoded binary frame is built into. It is shared
// between a Server or Client's methods.
type connState struct {
	mu       sync.Mutex
	port     io.ReadWriter
	closeErr error

	murx   sync.Mutex
	reader *bufio.Reader
	binbuf [264]byte
}

func newConnState(port io.ReadWriter) connState {
	return connState{port: port, closeErr: errYetToConnect, reader: bufio.NewReaderSize(port, 600)}
}

// tryRx reads one line off the port, hex-decodes it into a binary address+PDU+LRC frame,
// and returns it along with the address byte. The LRC itself is left unchecked here;
// modbus.Frame's Parse/Request's parseEnvelope validate it against the decoded bytes.
func (cs *connState) tryRx() (pdu []byte, address uint8, err error) {
	cs.murx.Lock()
	defer cs.murx.Unlock()

	line, err := cs.reader.ReadBytes('\n')
	if err != nil {
		if len(line) == 0 {
			return nil, 0, err
		}
	}
	line = bytes.TrimRight(line, "\r\n")
	if len(line) < 3 || line[0] != ':' {
		return nil, 0, FormatError{Line: line}
	}
	hexBody := line[1:]
	if len(hexBody)%2 != 0 {
		return nil, 0, FormatError{Line: line}
	}
	n := len(hexBody) / 2
	if n > len(cs.binbuf) || n < 3 {
		return nil, 0, FormatError{Line: line}
	}
	decoded, ok := modbus.ASCIIDecode(cs.binbuf[:n], hexBody)
	if !ok || decoded != n {
		return nil, 0, FormatError{Line: line}
	}
	return cs.binbuf[:n], cs.binbuf[0], nil
}

// writeFrame hex-encodes bin as an uppercase ':'-delimited, CRLF-terminated ASCII line
// and writes it to the port.
func (cs *connState) writeFrame(bin []byte) error {
	line := make([]byte, 0, 1+2*len(bin)+2)
	line = append(line, ':')
	hexBody := make([]byte, 2*len(bin))
	modbus.ASCIIEncode(hexBody, bin)
	line = append(line, hexBody...)
	line = append(line, '\r', '\n')
	_, err := cs.port.Write(line)
	return err
}

// Err returns the error responsible for a closed connection. Err is safe to call
// concurrently.
func (cs *connState) Err() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.closeErr
}
