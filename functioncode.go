/*
Package modbus implements a transport-agnostic Modbus protocol engine: a codec and
context manager that parses Modbus request frames, executes them against an in-memory
register model, produces correctly framed responses, and symmetrically builds client
requests and parses server responses.

# Glossary

  - MBAP: Modbus Application Protocol header, used on TCP/UDP.
  - ADU: Application Data Unit. The PDU plus whatever envelope the transport adds.
  - PDU: Protocol Data Unit. The function code and its associated data.
  - Unit id: logical device address on a Modbus bus (0 is broadcast on RTU/ASCII).

# Modbus Data Model

	Data table type   | Structure  | Access     | Comments
	Discrete Inputs   | Single bit | Read-only  | Data provided by an IO system
	Coils             | Single bit | Read/Write | Alterable by application program
	Input Registers   | 16bit word | Read-only  | Data provided by an IO system
	Holding Registers | 16bit word | Read/Write | Alterable by application program

The engine itself performs no I/O: it consumes an already materialized request buffer
and writes responses into a caller-supplied [Sink]. It is not allocation-free:
[Frame.ProcessRead] builds each read payload in a temporary slice before pushing it,
and the [Request] generators assemble each request in a temporary [GrowingSink]. Hosts
wrap a [Context] in whatever concurrency primitive fits their process model; see
[Frame] for the read/write access split.
*/
package modbus

// FunctionCode identifies a Modbus operation.
type FunctionCode uint8

const (
	FCReadCoils              FunctionCode = 0x01
	FCReadDiscreteInputs     FunctionCode = 0x02
	FCReadHoldingRegisters   FunctionCode = 0x03
	FCReadInputRegisters     FunctionCode = 0x04
	FCWriteSingleCoil        FunctionCode = 0x05
	FCWriteSingleRegister    FunctionCode = 0x06
	FCWriteMultipleCoils     FunctionCode = 0x0F
	FCWriteMultipleRegisters FunctionCode = 0x10
)

// IsRead reports whether fc is one of the four read-only data access functions.
func (fc FunctionCode) IsRead() bool {
	return fc == FCReadCoils || fc == FCReadDiscreteInputs ||
		fc == FCReadHoldingRegisters || fc == FCReadInputRegisters
}

// IsWrite reports whether fc is one of the four data-modifying functions.
func (fc FunctionCode) IsWrite() bool {
	return fc == FCWriteSingleCoil || fc == FCWriteSingleRegister ||
		fc == FCWriteMultipleCoils || fc == FCWriteMultipleRegisters
}

// Supported reports whether fc is one of the eight function codes this engine
// implements. Any other code is rejected with ExceptionIllegalFunction.
func (fc FunctionCode) Supported() bool {
	switch fc {
	case FCReadCoils, FCReadDiscreteInputs, FCReadHoldingRegisters, FCReadInputRegisters,
		FCWriteSingleCoil, FCWriteSingleRegister, FCWriteMultipleCoils, FCWriteMultipleRegisters:
		return true
	default:
		return false
	}
}

func (fc FunctionCode) String() string {
	switch fc {
	case FCReadCoils:
		return "read coils"
	case FCReadDiscreteInputs:
		return "read discrete inputs"
	case FCReadHoldingRegisters:
		return "read holding registers"
	case FCReadInputRegisters:
		return "read input registers"
	case FCWriteSingleCoil:
		return "write single coil"
	case FCWriteSingleRegister:
		return "write single register"
	case FCWriteMultipleCoils:
		return "write multiple coils"
	case FCWriteMultipleRegisters:
		return "write multiple registers"
	default:
		return "unknown function code"
	}
}

// Exception is a Modbus protocol exception code. Exceptions are not engine errors:
// they are successful responses whose payload reports that the request itself was
// invalid. See [Frame.FinalizeResponse].
type Exception uint8

const (
	// ExceptionNone means the request completed without a Modbus-level error.
	ExceptionNone              Exception = 0x00
	ExceptionIllegalFunction   Exception = 0x01
	ExceptionIllegalDataAddr   Exception = 0x02
	ExceptionIllegalDataValue  Exception = 0x03
	ExceptionSlaveDeviceFail   Exception = 0x04
	ExceptionAcknowledge       Exception = 0x05
	ExceptionSlaveDeviceBusy   Exception = 0x06
	ExceptionNegativeAck       Exception = 0x07
	ExceptionMemoryParityError Exception = 0x08
)

func (e Exception) Error() string {
	switch e {
	case ExceptionNone:
		return "no exception"
	case ExceptionIllegalFunction:
		return "illegal function"
	case ExceptionIllegalDataAddr:
		return "illegal data address"
	case ExceptionIllegalDataValue:
		return "illegal data value"
	case ExceptionSlaveDeviceFail:
		return "slave device failure"
	case ExceptionAcknowledge:
		return "acknowledge"
	case ExceptionSlaveDeviceBusy:
		return "slave device busy"
	case ExceptionNegativeAck:
		return "negative acknowledge"
	case ExceptionMemoryParityError:
		return "memory parity error"
	default:
		return "unknown exception"
	}
}

// exceptionFromByte maps a raw Modbus exception code byte to an Exception, used by the
// client to interpret a server's error response. Unknown codes map to ExceptionNone so
// callers can distinguish "not an exception" from "recognized exception" via the bool.
func exceptionFromByte(b byte) (Exception, bool) {
	switch Exception(b) {
	case ExceptionIllegalFunction, ExceptionIllegalDataAddr, ExceptionIllegalDataValue,
		ExceptionSlaveDeviceFail, ExceptionAcknowledge, ExceptionSlaveDeviceBusy,
		ExceptionNegativeAck, ExceptionMemoryParityError:
		return Exception(b), true
	default:
		return ExceptionNone, false
	}
}
