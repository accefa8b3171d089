package modbus

// Quantity bounds enforced at classification time. Exceeding one of these produces
// ExceptionIllegalDataValue, not a parse error: the frame is well formed, just asking
// for more than the protocol allows in one request.
const (
	maxBitQuantity       = 2000
	maxRegisterQuantity  = 125
	maxWriteMultipleByte = 246
)

// Frame drives one request/response cycle through three phases: Parse validates the
// envelope and classifies the request; ProcessRead or ProcessWrite (chosen by ReadOnly)
// executes it against a Context; FinalizeResponse completes the wire response, adding
// the Modbus exception byte and/or CRC/LRC trailer as the protocol requires.
//
// A Frame holds no reference across phase boundaries other than the request buffer and
// response Sink supplied at construction, so a host can take and release whatever lock
// guards its Context between ProcessRead/ProcessWrite and the phases around it.
type Frame struct {
	// UnitID is the address this Frame answers for. A request addressed to any other
	// non-broadcast unit id is never processed; on RTU/ASCII it gets no response, on
	// TCP/UDP it gets an empty response echoing its unit id and function code.
	UnitID uint8

	buf   []byte
	sink  Sink
	proto Proto

	// ProcessingRequired reports whether Parse classified a function this engine
	// implements and whose quantity passed validation, meaning ProcessRead or
	// ProcessWrite must be called before FinalizeResponse.
	ProcessingRequired bool
	// ResponseRequired reports whether a response must be sent at all. False for
	// broadcast requests, which never produce a response.
	ResponseRequired bool
	// ReadOnly reports whether the request only reads the context (call
	// ProcessRead) or requires exclusive write access (call ProcessWrite).
	ReadOnly bool

	frameStart int

	// Func, Reg and Count are the parsed request fields, valid once Parse returns
	// with no error.
	Func  FunctionCode
	Reg   uint16
	Count uint16

	// Error is the Modbus exception to report in the response, or ExceptionNone if
	// the request completed normally.
	Error Exception

	broadcast bool
}

// NewFrame constructs a Frame over a complete request ADU already read from the wire.
// buf must be exactly one frame, sized per [GuessRequestFrameLen]. sink receives the
// response bytes; proto selects MBAP vs RTU/ASCII envelope handling.
func NewFrame(unitID uint8, buf []byte, proto Proto, sink Sink) *Frame {
	return &Frame{
		UnitID: unitID,
		buf:    buf,
		proto:  proto,
		sink:   sink,
		Count:  1,
		ReadOnly: true,
	}
}

// Parse validates the envelope (MBAP header or CRC/LRC trailer), resolves the unit id,
// and classifies the function code, register, and quantity. A non-nil error means the
// frame itself is unusable (ErrFrameBroken, ErrFrameCRCError, ErrFrameLRCError); it is
// distinct from [Frame.Error], which reports a well-formed request that the Modbus
// protocol itself rejects.
func (f *Frame) Parse() error {
	if f.proto == ProtoTCP || f.proto == ProtoUDP {
		if len(f.buf) < mbapHeaderLen+2 {
			return ErrBrokenFrame
		}
		protoID := getWord(f.buf[2:4])
		length := getWord(f.buf[4:6])
		if protoID != 0 || length < 2 || length > 253 {
			return ErrBrokenFrame
		}
		f.frameStart = 6
	}
	if len(f.buf) < f.frameStart+2 {
		return ErrBrokenFrame
	}
	unit := f.buf[f.frameStart]
	f.broadcast = (unit == 0 || unit == 255) && f.proto != ProtoTCP && f.proto != ProtoUDP
	if !f.broadcast && unit != f.UnitID {
		if f.proto != ProtoTCP && f.proto != ProtoUDP {
			// RTU/ASCII have no gateway concept: a frame addressed to another
			// unit id is silently dropped.
			return nil
		}
		// MBAP carries no broadcast concept, so a TCP/UDP unit mismatch still
		// gets a response: the request's unit id is mirrored back and the
		// engine reports an empty success without running any processing,
		// matching widely deployed gateway behavior.
		f.ResponseRequired = true
		if err := f.sink.PushSlice(f.buf[0:4]); err != nil {
			return err
		}
		if err := f.pushTCPLength(2); err != nil {
			return err
		}
		return f.sink.PushSlice([]byte{unit, f.buf[f.frameStart+1]})
	}
	if !f.broadcast && (f.proto == ProtoTCP || f.proto == ProtoUDP) {
		if err := f.sink.PushSlice(f.buf[0:4]); err != nil {
			return err
		}
	}
	f.Func = FunctionCode(f.buf[f.frameStart+1])

	checkFrameCRC := func(n int) bool {
		switch f.proto {
		case ProtoTCP, ProtoUDP:
			return true
		case ProtoRTU:
			if len(f.buf) < n+2 {
				return false
			}
			want := getWord([]byte{f.buf[n+1], f.buf[n]})
			return calcCRC16(f.buf[:n]) == want
		case ProtoASCII:
			if len(f.buf) < n+1 {
				return false
			}
			return calcLRC(f.buf[:n]) == f.buf[n]
		default:
			return false
		}
	}

	switch f.Func {
	case FCReadCoils, FCReadDiscreteInputs:
		if f.broadcast {
			return nil
		}
		if len(f.buf) < f.frameStart+6 || !checkFrameCRC(f.frameStart + 6) {
			return frameEnvelopeError(f.proto)
		}
		f.ResponseRequired = true
		f.Count = getWord(f.buf[f.frameStart+4 : f.frameStart+6])
		if f.Count == 0 || f.Count > maxBitQuantity {
			f.Error = ExceptionIllegalDataValue
			return nil
		}
		f.ProcessingRequired = true
		f.Reg = getWord(f.buf[f.frameStart+2 : f.frameStart+4])
		return nil

	case FCReadHoldingRegisters, FCReadInputRegisters:
		if f.broadcast {
			return nil
		}
		if len(f.buf) < f.frameStart+6 || !checkFrameCRC(f.frameStart + 6) {
			return frameEnvelopeError(f.proto)
		}
		f.ResponseRequired = true
		f.Count = getWord(f.buf[f.frameStart+4 : f.frameStart+6])
		if f.Count == 0 || f.Count > maxRegisterQuantity {
			f.Error = ExceptionIllegalDataValue
			return nil
		}
		f.ProcessingRequired = true
		f.Reg = getWord(f.buf[f.frameStart+2 : f.frameStart+4])
		return nil

	case FCWriteSingleCoil, FCWriteSingleRegister:
		if len(f.buf) < f.frameStart+6 || !checkFrameCRC(f.frameStart + 6) {
			return frameEnvelopeError(f.proto)
		}
		if !f.broadcast {
			f.ResponseRequired = true
		}
		f.ProcessingRequired = true
		f.ReadOnly = false
		f.Reg = getWord(f.buf[f.frameStart+2 : f.frameStart+4])
		return nil

	case FCWriteMultipleCoils, FCWriteMultipleRegisters:
		if len(f.buf) < f.frameStart+7 {
			return frameEnvelopeError(f.proto)
		}
		byteCount := int(f.buf[f.frameStart+6])
		n := f.frameStart + 7 + byteCount
		if len(f.buf) < n || !checkFrameCRC(n) {
			return frameEnvelopeError(f.proto)
		}
		if !f.broadcast {
			f.ResponseRequired = true
		}
		count := getWord(f.buf[f.frameStart+4 : f.frameStart+6])
		wantBytes := int(count) * 2
		if f.Func == FCWriteMultipleCoils {
			wantBytes = (int(count) + 7) / 8
		}
		// byteCount <= 246 with a matching count caps coils at 1968 and registers at 123.
		if count == 0 || byteCount != wantBytes || byteCount > maxWriteMultipleByte {
			f.Error = ExceptionIllegalDataValue
			return nil
		}
		f.ProcessingRequired = true
		f.ReadOnly = false
		f.Reg = getWord(f.buf[f.frameStart+2 : f.frameStart+4])
		f.Count = count
		return nil

	default:
		if !f.broadcast {
			f.ResponseRequired = true
			f.Error = ExceptionIllegalFunction
		}
		return nil
	}
}

func frameEnvelopeError(proto Proto) error {
	switch proto {
	case ProtoRTU:
		return ErrBadCRC
	case ProtoASCII:
		return ErrBadLRC
	default:
		return ErrBrokenFrame
	}
}

// ProcessRead executes a read-only request against ctx, pushing the response payload
// (unit id, function code, byte count, data) onto the sink. It only returns an error
// when the sink itself runs out of room; an address out of range in ctx instead sets
// Error to ExceptionIllegalDataAddr for FinalizeResponse to report.
func (f *Frame) ProcessRead(ctx Context) error {
	switch f.Func {
	case FCReadCoils, FCReadDiscreteInputs:
		dataLen := f.Count >> 3
		if f.Count%8 != 0 {
			dataLen++
		}
		var payload []byte
		var err error
		if f.Func == FCReadCoils {
			payload, err = ctx.CoilsAsBytes(f.Reg, f.Count, payload)
		} else {
			payload, err = ctx.DiscretesAsBytes(f.Reg, f.Count, payload)
		}
		if err != nil {
			if err == ErrOutOfBoundsContext || err == ErrOutOfBounds {
				f.Error = ExceptionIllegalDataAddr
				return nil
			}
			return err
		}
		// Nothing is pushed onto the sink until the context access above is known
		// to succeed, so a failed read never leaves a partial success response for
		// FinalizeResponse to build an exception frame on top of.
		if err := f.pushTCPLength(dataLen + 3); err != nil {
			return err
		}
		if err := f.sink.PushSlice(f.buf[f.frameStart : f.frameStart+2]); err != nil {
			return err
		}
		if err := f.sink.Push(byte(dataLen)); err != nil {
			return err
		}
		return f.sink.PushSlice(payload)

	case FCReadHoldingRegisters, FCReadInputRegisters:
		dataLen := f.Count << 1
		var payload []byte
		var err error
		if f.Func == FCReadHoldingRegisters {
			payload, err = ctx.HoldingsAsBytes(f.Reg, f.Count, payload)
		} else {
			payload, err = ctx.InputsAsBytes(f.Reg, f.Count, payload)
		}
		if err != nil {
			if err == ErrOutOfBoundsContext || err == ErrOutOfBounds {
				f.Error = ExceptionIllegalDataAddr
				return nil
			}
			return err
		}
		if err := f.pushTCPLength(dataLen + 3); err != nil {
			return err
		}
		if err := f.sink.PushSlice(f.buf[f.frameStart : f.frameStart+2]); err != nil {
			return err
		}
		if err := f.sink.Push(byte(dataLen)); err != nil {
			return err
		}
		return f.sink.PushSlice(payload)

	default:
		return nil
	}
}

// ProcessWrite executes a write request against ctx, pushing the echoed request header
// onto the sink on success. If obs is non-nil, it is invoked with the resulting
// WriteEvent immediately after ctx is updated and before the response is pushed.
func (f *Frame) ProcessWrite(ctx Context, obs Observer) error {
	switch f.Func {
	case FCWriteSingleCoil:
		raw := getWord(f.buf[f.frameStart+4 : f.frameStart+6])
		var val bool
		switch raw {
		case 0xff00:
			val = true
		case 0x0000:
			val = false
		default:
			f.Error = ExceptionIllegalDataValue
			return nil
		}
		if err := ctx.SetCoil(f.Reg, val); err != nil {
			f.Error = ExceptionIllegalDataAddr
			return nil
		}
		if obs != nil {
			obs(WriteEvent{Space: WriteEventCoils, Reg: f.Reg, Count: 1}, ctx)
		}
		if err := f.pushTCPLength(6); err != nil {
			return err
		}
		return f.sink.PushSlice(f.buf[f.frameStart : f.frameStart+6])

	case FCWriteSingleRegister:
		val := getWord(f.buf[f.frameStart+4 : f.frameStart+6])
		if err := ctx.SetHolding(f.Reg, val); err != nil {
			f.Error = ExceptionIllegalDataAddr
			return nil
		}
		if obs != nil {
			obs(WriteEvent{Space: WriteEventHoldings, Reg: f.Reg, Count: 1}, ctx)
		}
		if err := f.pushTCPLength(6); err != nil {
			return err
		}
		return f.sink.PushSlice(f.buf[f.frameStart : f.frameStart+6])

	case FCWriteMultipleCoils, FCWriteMultipleRegisters:
		byteCount := int(f.buf[f.frameStart+6])
		values := f.buf[f.frameStart+7 : f.frameStart+7+byteCount]
		var err error
		var space WriteEventSpace
		if f.Func == FCWriteMultipleCoils {
			err = ctx.SetCoilsFromBytes(f.Reg, f.Count, values)
			space = WriteEventCoils
		} else {
			err = ctx.SetHoldingsFromBytes(f.Reg, f.Count, values)
			space = WriteEventHoldings
		}
		if err != nil {
			f.Error = ExceptionIllegalDataAddr
			return nil
		}
		if obs != nil {
			obs(WriteEvent{Space: space, Reg: f.Reg, Count: f.Count}, ctx)
		}
		if err := f.pushTCPLength(6); err != nil {
			return err
		}
		return f.sink.PushSlice(f.buf[f.frameStart : f.frameStart+6])

	default:
		return nil
	}
}

// pushTCPLength writes the two-byte MBAP length field when proto is TCP/UDP; it is a
// no-op on RTU/ASCII, which carry no explicit length field.
func (f *Frame) pushTCPLength(payloadLen uint16) error {
	if f.proto != ProtoTCP && f.proto != ProtoUDP {
		return nil
	}
	var buf [2]byte
	putWord(buf[:], payloadLen)
	return f.sink.PushSlice(buf[:])
}

// FinalizeResponse completes the response: if Error is set, it appends the exception
// byte(s) instead of whatever ProcessRead/ProcessWrite already pushed being assumed
// present (exception responses are built fresh here), and on RTU/ASCII it appends the
// CRC or LRC trailer. Call this exactly once, after ProcessRead/ProcessWrite if
// ProcessingRequired was true, whenever ResponseRequired is true.
func (f *Frame) FinalizeResponse() error {
	if f.Error != ExceptionNone {
		switch f.proto {
		case ProtoTCP, ProtoUDP:
			// Parse already pushed the transaction id and protocol id (buf[0:4])
			// for any non-broadcast TCP/UDP request; the length field here covers
			// only what follows.
			if err := f.sink.PushSlice([]byte{0, 3, f.UnitID, byte(f.Func) | 0x80, byte(f.Error)}); err != nil {
				return err
			}
		case ProtoRTU, ProtoASCII:
			if err := f.sink.PushSlice([]byte{f.UnitID, byte(f.Func) | 0x80, byte(f.Error)}); err != nil {
				return err
			}
		}
	}
	switch f.proto {
	case ProtoRTU:
		ss, ok := f.sink.(*SliceSink)
		if ok {
			crc := calcCRC16(ss.Bytes())
			var buf [2]byte
			buf[0] = byte(crc)
			buf[1] = byte(crc >> 8)
			return f.sink.PushSlice(buf[:])
		}
		gs, ok := f.sink.(*GrowingSink)
		if ok {
			crc := calcCRC16(gs.Bytes())
			var buf [2]byte
			buf[0] = byte(crc)
			buf[1] = byte(crc >> 8)
			return f.sink.PushSlice(buf[:])
		}
		return nil
	case ProtoASCII:
		ss, ok := f.sink.(*SliceSink)
		if ok {
			return f.sink.Push(calcLRC(ss.Bytes()))
		}
		gs, ok := f.sink.(*GrowingSink)
		if ok {
			return f.sink.Push(calcLRC(gs.Bytes()))
		}
		return nil
	default:
		return nil
	}
}

// Changes reports the register span this Frame's write request will affect, for hosts
// that want to know what changed without diffing the whole Context. It returns false
// for read requests and for anything Parse has not yet classified as a write.
func (f *Frame) Changes() (WriteEvent, bool) {
	switch f.Func {
	case FCWriteSingleCoil:
		return WriteEvent{Space: WriteEventCoils, Reg: f.Reg, Count: 1}, true
	case FCWriteMultipleCoils:
		return WriteEvent{Space: WriteEventCoils, Reg: f.Reg, Count: f.Count}, true
	case FCWriteSingleRegister:
		return WriteEvent{Space: WriteEventHoldings, Reg: f.Reg, Count: 1}, true
	case FCWriteMultipleRegisters:
		return WriteEvent{Space: WriteEventHoldings, Reg: f.Reg, Count: f.Count}, true
	default:
		return WriteEvent{}, false
	}
}
