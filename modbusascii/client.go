package modbusascii

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/fieldbuslabs/modbus"
)

var errWrongAddress = errors.New("modbusascii: response from wrong address")

// Client is a Modbus ASCII client: it owns a serial port, issues requests built with
// modbus.Request, and parses the matching responses.
type Client struct {
	state   connState
	req     *modbus.Request
	muTx    sync.Mutex
	timeout time.Duration
}

// NewClient returns a Client reading and writing over port, waiting up to timeout for
// each response.
func NewClient(port io.ReadWriter, unitID uint8, timeout time.Duration) *Client {
	return &Client{
		state:   newConnState(port),
		req:     modbus.NewRequest(unitID, modbus.ProtoASCII),
		timeout: timeout,
	}
}

func (c *Client) do(devAddr uint8, gen func(sink modbus.Sink) error) ([]byte, error) {
	c.muTx.Lock()
	defer c.muTx.Unlock()

	sink := &modbus.GrowingSink{}
	if err := gen(sink); err != nil {
		return nil, err
	}
	if err := c.state.writeFrame(sink.Bytes()); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(c.timeout)
	errCount := 0
	var pdu []byte
	var addr uint8
	var err error
	for time.Until(deadline) > 0 && errCount < 5 {
		pdu, addr, err = c.state.tryRx()
		if err == nil && addr == devAddr {
			break
		}
		if err != nil {
			errCount++
			time.Sleep(time.Millisecond)
		}
	}
	if err != nil {
		return nil, err
	}
	if addr != devAddr {
		return nil, errWrongAddress
	}
	return pdu, nil
}

// ReadHoldingRegisters reads count holding registers starting at reg from devAddr.
func (c *Client) ReadHoldingRegisters(devAddr uint8, reg, count uint16) ([]uint16, error) {
	c.req.UnitID = devAddr
	resp, err := c.do(devAddr, func(s modbus.Sink) error { return c.req.GenerateReadHoldingRegisters(reg, count, s) })
	if err != nil {
		return nil, err
	}
	return c.req.ParseU16List(resp, nil)
}

// ReadInputRegisters reads count input registers starting at reg from devAddr.
func (c *Client) ReadInputRegisters(devAddr uint8, reg, count uint16) ([]uint16, error) {
	c.req.UnitID = devAddr
	resp, err := c.do(devAddr, func(s modbus.Sink) error { return c.req.GenerateReadInputRegisters(reg, count, s) })
	if err != nil {
		return nil, err
	}
	return c.req.ParseU16List(resp, nil)
}

// ReadCoils reads count coils starting at reg from devAddr.
func (c *Client) ReadCoils(devAddr uint8, reg, count uint16) ([]bool, error) {
	c.req.UnitID = devAddr
	resp, err := c.do(devAddr, func(s modbus.Sink) error { return c.req.GenerateReadCoils(reg, count, s) })
	if err != nil {
		return nil, err
	}
	return c.req.ParseBool(resp, nil)
}

// WriteSingleCoil writes one coil on devAddr.
func (c *Client) WriteSingleCoil(devAddr uint8, reg uint16, value bool) error {
	c.req.UnitID = devAddr
	resp, err := c.do(devAddr, func(s modbus.Sink) error { return c.req.GenerateWriteSingleCoil(reg, value, s) })
	if err != nil {
		return err
	}
	return c.req.ParseOK(resp)
}

// WriteSingleRegister writes one holding register on devAddr.
func (c *Client) WriteSingleRegister(devAddr uint8, reg uint16, value uint16) error {
	c.req.UnitID = devAddr
	resp, err := c.do(devAddr, func(s modbus.Sink) error { return c.req.GenerateWriteSingleRegister(reg, value, s) })
	if err != nil {
		return err
	}
	return c.req.ParseOK(resp)
}

// WriteMultipleRegisters writes consecutive holding registers on devAddr.
func (c *Client) WriteMultipleRegisters(devAddr uint8, reg uint16, values []uint16) error {
	c.req.UnitID = devAddr
	resp, err := c.do(devAddr, func(s modbus.Sink) error { return c.req.GenerateWriteMultipleRegisters(reg, values, s) })
	if err != nil {
		return err
	}
	return c.req.ParseOK(resp)
}
