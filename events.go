package modbus

// WriteEvent describes a successful write that a Frame is about to finalize a response
// for. Reg and Count describe the affected span in the space named by Space.
type WriteEvent struct {
	Space WriteEventSpace
	Reg   uint16
	Count uint16
}

// WriteEventSpace names which of the four register spaces a WriteEvent touched.
type WriteEventSpace uint8

const (
	WriteEventCoils WriteEventSpace = iota
	WriteEventHoldings
)

func (s WriteEventSpace) String() string {
	if s == WriteEventCoils {
		return "coils"
	}
	return "holdings"
}

// Observer receives a callback after a write request has been applied to the Context
// but before the response is finalized onto the wire. The callback must not mutate the
// context it is passed; it exists for hosts to log, meter, or push change notifications
// without the engine itself doing any I/O.
type Observer func(event WriteEvent, ctx Context)
