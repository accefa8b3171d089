package modbus

// Context is the in-memory register model a [Frame] reads and writes. Read-path
// operations (ProcessRead) only need Context implementations to be safe for concurrent
// read access; write-path operations (ProcessWrite) need exclusive access. The engine
// itself takes no lock: see the package doc and SPEC_FULL.md §1.5 for the host's
// responsibility to serialize access around each phase.
//
// reg is always the zero-based register or bit address; count, where present, is the
// number of consecutive elements starting at reg. The reference implementation returns
// ErrOutOfBoundsContext when reg+count (or reg+len(values)) exceeds the configured space
// size, and ErrOutOfBounds when a single-element or typed multi-word access does.
type Context interface {
	// Coil returns the current value of one coil.
	Coil(reg uint16) (bool, error)
	// Discrete returns the current value of one discrete input.
	Discrete(reg uint16) (bool, error)
	// Input returns the current value of one input register.
	Input(reg uint16) (uint16, error)
	// Holding returns the current value of one holding register.
	Holding(reg uint16) (uint16, error)

	// SetCoil sets one coil.
	SetCoil(reg uint16, value bool) error
	// SetDiscrete sets one discrete input. Only the host, never the wire protocol,
	// calls this: discretes are read-only from the bus side.
	SetDiscrete(reg uint16, value bool) error
	// SetInput sets one input register. Only the host calls this.
	SetInput(reg uint16, value uint16) error
	// SetHolding sets one holding register.
	SetHolding(reg uint16, value uint16) error

	// CoilsBulk appends count coils starting at reg to dst and returns the result.
	CoilsBulk(reg, count uint16, dst []bool) ([]bool, error)
	// DiscretesBulk appends count discrete inputs starting at reg to dst.
	DiscretesBulk(reg, count uint16, dst []bool) ([]bool, error)
	// InputsBulk appends count input registers starting at reg to dst.
	InputsBulk(reg, count uint16, dst []uint16) ([]uint16, error)
	// HoldingsBulk appends count holding registers starting at reg to dst.
	HoldingsBulk(reg, count uint16, dst []uint16) ([]uint16, error)

	// SetCoilsBulk sets len(values) consecutive coils starting at reg.
	SetCoilsBulk(reg uint16, values []bool) error
	// SetDiscretesBulk sets len(values) consecutive discrete inputs starting at reg.
	// Host-only, mirroring SetDiscrete.
	SetDiscretesBulk(reg uint16, values []bool) error
	// SetInputsBulk sets len(values) consecutive input registers starting at reg.
	// Host-only, mirroring SetInput.
	SetInputsBulk(reg uint16, values []uint16) error
	// SetHoldingsBulk sets len(values) consecutive holding registers starting at reg.
	SetHoldingsBulk(reg uint16, values []uint16) error

	// CoilsAsBytes appends ceil(count/8) packed bits, coil reg first in bit 0 of the
	// first byte, to dst. Used to build the byte-count-prefixed wire payload for
	// FCReadCoils directly, without an intermediate []bool.
	CoilsAsBytes(reg, count uint16, dst []byte) ([]byte, error)
	// DiscretesAsBytes is the DiscretesBulk counterpart of CoilsAsBytes.
	DiscretesAsBytes(reg, count uint16, dst []byte) ([]byte, error)
	// SetCoilsFromBytes sets count coils starting at reg from packed bits in values.
	SetCoilsFromBytes(reg, count uint16, values []byte) error
	// SetDiscretesFromBytes is the host-only counterpart of SetCoilsFromBytes.
	SetDiscretesFromBytes(reg, count uint16, values []byte) error

	// HoldingsAsBytes appends 2*count big-endian bytes, one register per two bytes, to
	// dst. Used to build the wire payload for FCReadHoldingRegisters directly.
	HoldingsAsBytes(reg, count uint16, dst []byte) ([]byte, error)
	// InputsAsBytes is the InputsBulk counterpart of HoldingsAsBytes.
	InputsAsBytes(reg, count uint16, dst []byte) ([]byte, error)
	// SetHoldingsFromBytes sets count registers starting at reg from big-endian pairs
	// in values, which must be exactly 2*count bytes long.
	SetHoldingsFromBytes(reg, count uint16, values []byte) error
	// SetInputsFromBytes is the host-only counterpart of SetHoldingsFromBytes.
	SetInputsFromBytes(reg, count uint16, values []byte) error

	// HoldingsU32 reads two consecutive holding registers as a big-endian uint32,
	// high word first.
	HoldingsU32(reg uint16) (uint32, error)
	// InputsU32 is the read-only counterpart of HoldingsU32.
	InputsU32(reg uint16) (uint32, error)
	// SetHoldingsU32 writes a uint32 across two consecutive holding registers.
	SetHoldingsU32(reg uint16, value uint32) error
	// SetInputsU32 is the host-only counterpart of SetHoldingsU32.
	SetInputsU32(reg uint16, value uint32) error

	// HoldingsI32 reads two consecutive holding registers as a big-endian int32, high
	// word first, reinterpreting the same bits HoldingsU32 would return.
	HoldingsI32(reg uint16) (int32, error)
	// InputsI32 is the read-only counterpart of HoldingsI32.
	InputsI32(reg uint16) (int32, error)
	// SetHoldingsI32 writes an int32 across two consecutive holding registers.
	SetHoldingsI32(reg uint16, value int32) error
	// SetInputsI32 is the host-only counterpart of SetHoldingsI32.
	SetInputsI32(reg uint16, value int32) error

	// HoldingsU64 reads four consecutive holding registers as a big-endian uint64.
	HoldingsU64(reg uint16) (uint64, error)
	// InputsU64 is the read-only counterpart of HoldingsU64.
	InputsU64(reg uint16) (uint64, error)
	// SetHoldingsU64 writes a uint64 across four consecutive holding registers.
	SetHoldingsU64(reg uint16, value uint64) error
	// SetInputsU64 is the host-only counterpart of SetHoldingsU64.
	SetInputsU64(reg uint16, value uint64) error

	// HoldingsI64 reads four consecutive holding registers as a big-endian int64,
	// reinterpreting the same bits HoldingsU64 would return.
	HoldingsI64(reg uint16) (int64, error)
	// InputsI64 is the read-only counterpart of HoldingsI64.
	InputsI64(reg uint16) (int64, error)
	// SetHoldingsI64 writes an int64 across four consecutive holding registers.
	SetHoldingsI64(reg uint16, value int64) error
	// SetInputsI64 is the host-only counterpart of SetHoldingsI64.
	SetInputsI64(reg uint16, value int64) error

	// HoldingsF32 reads two consecutive holding registers as an IEEE-754 float32,
	// using the same big-endian word order as HoldingsU32.
	HoldingsF32(reg uint16) (float32, error)
	// InputsF32 is the read-only counterpart of HoldingsF32.
	InputsF32(reg uint16) (float32, error)
	// SetHoldingsF32 writes a float32 across two consecutive holding registers.
	SetHoldingsF32(reg uint16, value float32) error
	// SetInputsF32 is the host-only counterpart of SetHoldingsF32.
	SetInputsF32(reg uint16, value float32) error

	// HoldingsF64 reads four consecutive holding registers as an IEEE-754 float64.
	HoldingsF64(reg uint16) (float64, error)
	// InputsF64 is the read-only counterpart of HoldingsF64.
	InputsF64(reg uint16) (float64, error)
	// SetHoldingsF64 writes a float64 across four consecutive holding registers.
	SetHoldingsF64(reg uint16, value float64) error
	// SetInputsF64 is the host-only counterpart of SetHoldingsF64.
	SetInputsF64(reg uint16, value float64) error

	// Bounds reports the configured size of each of the four spaces, in the order
	// coils, discretes, inputs, holdings.
	Bounds() (coils, discretes, inputs, holdings uint16)

	// Snapshot appends a deterministic byte-stream encoding of the whole register set to
	// dst and returns the result: coils, then discretes, then inputs, then holdings, in
	// that order. Coils and discretes are packed LSB-first, 8 per byte, with any unused
	// high bits of a space's final byte set to zero. Inputs and holdings are encoded two
	// bytes per register, high byte first. The format carries no length prefixes of its
	// own; a restoring Context must have the same Bounds as the one that produced it.
	Snapshot(dst []byte) ([]byte, error)
	// Restore overwrites every coil, discrete, input, and holding register from a byte
	// stream previously produced by Snapshot against a Context with identical Bounds.
	// It returns ErrOutOfBoundsContext if data is not exactly the expected length.
	Restore(data []byte) error
}
