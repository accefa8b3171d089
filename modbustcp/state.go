// Package modbustcp implements the Modbus TCP/IP transport glue around the
// transport-agnostic frame engine in github.com/fieldbuslabs/modbus: MBAP framing over
// a net.Conn, with a Server that answers requests against a modbus.Context and a Client
// that issues them.
package modbustcp

import (
	"net"
	"sync"

	"github.com/fieldbuslabs/modbus"
)

// serverState stores the persisting state of a server connection. Since this state is
// shared between frames it is protected by a mutex so that Server's concurrency-safe
// methods (Err, IsConnected, Addr) can be called while HandleNext is blocked reading.
type serverState struct {
	mu       sync.Mutex
	listener *net.TCPListener
	conn     *net.TCPConn
	ctx      modbus.Context
	observer modbus.Observer
	closeErr error
}

// Err returns the error responsible for a closed connection: the error last passed to
// CloseConn, or a "not yet connected" error before Accept succeeds. It is nil while a
// connection is active.
//
// Err is safe to call concurrently.
func (cs *serverState) Err() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.closeErr
}

// CloseConn closes the connection so that future calls to Err() return argument err.
func (cs *serverState) CloseConn(err error) {
	if err == nil {
		panic("cannot close connection with nil error")
	}
	cs.mu.Lock()
	cs.closeErr = err
	if cs.conn != nil {
		cs.conn.Close()
	}
	if cs.listener != nil {
		cs.listener.Close()
	}
	cs.mu.Unlock()
}

// IsConnected returns true if there is an active connection to a modbus client. It is
// shorthand for cs.Err() == nil.
//
// IsConnected is safe to call concurrently.
func (cs *serverState) IsConnected() bool { return cs.Err() == nil }
