package modbustcp

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/fieldbuslabs/modbus"
)

// Client is a Modbus TCP client: it dials a server, issues requests built with
// modbus.Request, and parses the matching responses.
type Client struct {
	conn    net.Conn
	req     *modbus.Request
	timeout time.Duration
	rxbuf   [264]byte
}

// ClientConfig provides configuration parameters to DialClient.
type ClientConfig struct {
	// Address is the server's formatted numeric IP with port, e.g. "192.168.1.35:502".
	Address string
	// UnitID addresses the specific device behind a gateway; 255 is the
	// conventional TCP "don't care" value when there is no gateway.
	UnitID uint8
	// DialTimeout bounds how long DialClient waits to connect.
	DialTimeout time.Duration
	// Timeout, if nonzero, bounds how long each request waits for its response.
	Timeout time.Duration
}

// DialClient connects to a Modbus TCP server and returns a ready Client.
func DialClient(cfg ClientConfig) (*Client, error) {
	conn, err := net.DialTimeout("tcp", cfg.Address, cfg.DialTimeout)
	if err != nil {
		return nil, err
	}
	return &Client{
		conn:    conn,
		req:     modbus.NewRequest(cfg.UnitID, modbus.ProtoTCP),
		timeout: cfg.Timeout,
	}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

// do sends the bytes gen has already written via sink and reads back one response
// frame, returning it for the caller's Parse* call.
func (c *Client) do(gen func(sink modbus.Sink) error) ([]byte, error) {
	c.req.TransactionID++
	sink := &modbus.GrowingSink{}
	if err := gen(sink); err != nil {
		return nil, err
	}
	if c.timeout > 0 {
		c.conn.SetDeadline(time.Now().Add(c.timeout))
		defer c.conn.SetDeadline(time.Time{})
	}
	if _, err := c.conn.Write(sink.Bytes()); err != nil {
		return nil, err
	}
	const hdrLen = 8
	rx := c.rxbuf[:]
	if _, err := io.ReadFull(c.conn, rx[:hdrLen]); err != nil {
		return nil, err
	}
	more, ok := modbus.GuessResponseFrameLen(modbus.ProtoTCP, c.req.Func, rx[:hdrLen])
	if !ok {
		return nil, errors.New("modbustcp: could not size response")
	}
	if hdrLen+more > len(rx) {
		return nil, errors.New("modbustcp: response longer than buffer")
	}
	if more > 0 {
		if _, err := io.ReadFull(c.conn, rx[hdrLen:hdrLen+more]); err != nil {
			return nil, err
		}
	}
	return rx[:hdrLen+more], nil
}

// ReadHoldingRegisters reads count holding registers starting at reg.
func (c *Client) ReadHoldingRegisters(reg, count uint16) ([]uint16, error) {
	resp, err := c.do(func(s modbus.Sink) error { return c.req.GenerateReadHoldingRegisters(reg, count, s) })
	if err != nil {
		return nil, err
	}
	return c.req.ParseU16List(resp, nil)
}

// ReadInputRegisters reads count input registers starting at reg.
func (c *Client) ReadInputRegisters(reg, count uint16) ([]uint16, error) {
	resp, err := c.do(func(s modbus.Sink) error { return c.req.GenerateReadInputRegisters(reg, count, s) })
	if err != nil {
		return nil, err
	}
	return c.req.ParseU16List(resp, nil)
}

// ReadCoils reads count coils starting at reg.
func (c *Client) ReadCoils(reg, count uint16) ([]bool, error) {
	resp, err := c.do(func(s modbus.Sink) error { return c.req.GenerateReadCoils(reg, count, s) })
	if err != nil {
		return nil, err
	}
	return c.req.ParseBool(resp, nil)
}

// ReadDiscreteInputs reads count discrete inputs starting at reg.
func (c *Client) ReadDiscreteInputs(reg, count uint16) ([]bool, error) {
	resp, err := c.do(func(s modbus.Sink) error { return c.req.GenerateReadDiscreteInputs(reg, count, s) })
	if err != nil {
		return nil, err
	}
	return c.req.ParseBool(resp, nil)
}

// WriteSingleCoil writes one coil.
func (c *Client) WriteSingleCoil(reg uint16, value bool) error {
	resp, err := c.do(func(s modbus.Sink) error { return c.req.GenerateWriteSingleCoil(reg, value, s) })
	if err != nil {
		return err
	}
	return c.req.ParseOK(resp)
}

// WriteSingleRegister writes one holding register.
func (c *Client) WriteSingleRegister(reg uint16, value uint16) error {
	resp, err := c.do(func(s modbus.Sink) error { return c.req.GenerateWriteSingleRegister(reg, value, s) })
	if err != nil {
		return err
	}
	return c.req.ParseOK(resp)
}

// WriteMultipleCoils writes consecutive coils starting at reg.
func (c *Client) WriteMultipleCoils(reg uint16, values []bool) error {
	resp, err := c.do(func(s modbus.Sink) error { return c.req.GenerateWriteMultipleCoils(reg, values, s) })
	if err != nil {
		return err
	}
	return c.req.ParseOK(resp)
}

// WriteMultipleRegisters writes consecutive holding registers starting at reg.
func (c *Client) WriteMultipleRegisters(reg uint16, values []uint16) error {
	resp, err := c.do(func(s modbus.Sink) error { return c.req.GenerateWriteMultipleRegisters(reg, values, s) })
	if err != nil {
		return err
	}
	return c.req.ParseOK(resp)
}
