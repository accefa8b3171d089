package modbus

// Request builds a Modbus request ADU for a single transaction and parses the matching
// response. A Request is reusable across calls: each Generate* method overwrites Func,
// Reg, and Count before writing the request bytes.
type Request struct {
	// TransactionID is echoed by the server on TCP/UDP and checked by Parse*; it is
	// meaningless on RTU/ASCII, which carry no transaction id on the wire.
	TransactionID uint16
	UnitID        uint8
	Proto         Proto

	Func  FunctionCode
	Reg   uint16
	Count uint16
}

// NewRequest constructs a Request addressed to unitID over proto, with TransactionID
// starting at 1.
func NewRequest(unitID uint8, proto Proto) *Request {
	return &Request{TransactionID: 1, UnitID: unitID, Proto: proto}
}

// GenerateReadCoils writes a FCReadCoils request for count coils starting at reg.
func (r *Request) GenerateReadCoils(reg, count uint16, sink Sink) error {
	r.Reg, r.Count, r.Func = reg, count, FCReadCoils
	return r.generate(nil, sink)
}

// GenerateReadDiscreteInputs writes a FCReadDiscreteInputs request.
func (r *Request) GenerateReadDiscreteInputs(reg, count uint16, sink Sink) error {
	r.Reg, r.Count, r.Func = reg, count, FCReadDiscreteInputs
	return r.generate(nil, sink)
}

// GenerateReadHoldingRegisters writes a FCReadHoldingRegisters request.
func (r *Request) GenerateReadHoldingRegisters(reg, count uint16, sink Sink) error {
	r.Reg, r.Count, r.Func = reg, count, FCReadHoldingRegisters
	return r.generate(nil, sink)
}

// GenerateReadInputRegisters writes a FCReadInputRegisters request.
func (r *Request) GenerateReadInputRegisters(reg, count uint16, sink Sink) error {
	r.Reg, r.Count, r.Func = reg, count, FCReadInputRegisters
	return r.generate(nil, sink)
}

// GenerateWriteSingleCoil writes a FCWriteSingleCoil request.
func (r *Request) GenerateWriteSingleCoil(reg uint16, value bool, sink Sink) error {
	r.Reg, r.Count, r.Func = reg, 1, FCWriteSingleCoil
	if value {
		return r.generate([]byte{0xff, 0x00}, sink)
	}
	return r.generate([]byte{0x00, 0x00}, sink)
}

// GenerateWriteSingleRegister writes a FCWriteSingleRegister request.
func (r *Request) GenerateWriteSingleRegister(reg uint16, value uint16, sink Sink) error {
	r.Reg, r.Count, r.Func = reg, 1, FCWriteSingleRegister
	var data [2]byte
	putWord(data[:], value)
	return r.generate(data[:], sink)
}

// GenerateWriteMultipleCoils writes a FCWriteMultipleCoils request for the given coil
// values, packing them 8 to a byte per the wire format.
func (r *Request) GenerateWriteMultipleCoils(reg uint16, values []bool, sink Sink) error {
	if len(values) > 4000 {
		return ErrOutOfBounds
	}
	r.Reg, r.Count, r.Func = reg, uint16(len(values)), FCWriteMultipleCoils
	data := make([]byte, 0, (len(values)+7)/8)
	var cbyte byte
	var bidx uint
	for _, v := range values {
		if v {
			cbyte |= 1 << bidx
		}
		bidx++
		if bidx > 7 {
			data = append(data, cbyte)
			cbyte, bidx = 0, 0
		}
	}
	if bidx > 0 {
		data = append(data, cbyte)
	}
	return r.generate(data, sink)
}

// GenerateWriteMultipleRegisters writes a FCWriteMultipleRegisters request.
func (r *Request) GenerateWriteMultipleRegisters(reg uint16, values []uint16, sink Sink) error {
	if len(values) > 125 {
		return ErrOutOfBounds
	}
	r.Reg, r.Count, r.Func = reg, uint16(len(values)), FCWriteMultipleRegisters
	data := make([]byte, len(values)*2)
	for i, v := range values {
		putWord(data[2*i:2*i+2], v)
	}
	return r.generate(data, sink)
}

// generate writes the common envelope (MBAP header or bare unit id) and function/reg
// fields, then data, then the length field or CRC/LRC trailer, all into sink.
func (r *Request) generate(data []byte, sink Sink) error {
	if r.Proto == ProtoTCP || r.Proto == ProtoUDP {
		var hdr [6]byte
		putWord(hdr[0:2], r.TransactionID)
		// protocol id (2 bytes of 0), length filled in below
		gs := &GrowingSink{}
		if err := gs.PushSlice(hdr[:]); err != nil {
			return err
		}
		if err := r.writeBody(gs); err != nil {
			return err
		}
		if err := r.writeData(data, gs); err != nil {
			return err
		}
		buf := gs.Bytes()
		var length [2]byte
		putWord(length[:], uint16(len(buf)-6))
		buf[4], buf[5] = length[0], length[1]
		return sink.PushSlice(buf)
	}

	gs := &GrowingSink{}
	if err := r.writeBody(gs); err != nil {
		return err
	}
	if err := r.writeData(data, gs); err != nil {
		return err
	}
	buf := gs.Bytes()
	switch r.Proto {
	case ProtoRTU:
		crc := calcCRC16(buf)
		if err := sink.PushSlice(buf); err != nil {
			return err
		}
		return sink.PushSlice([]byte{byte(crc), byte(crc >> 8)})
	case ProtoASCII:
		lrc := calcLRC(buf)
		if err := sink.PushSlice(buf); err != nil {
			return err
		}
		return sink.Push(lrc)
	default:
		return sink.PushSlice(buf)
	}
}

func (r *Request) writeBody(gs *GrowingSink) error {
	var reg [2]byte
	putWord(reg[:], r.Reg)
	return gs.PushSlice([]byte{r.UnitID, byte(r.Func), reg[0], reg[1]})
}

func (r *Request) writeData(data []byte, gs *GrowingSink) error {
	switch r.Func {
	case FCReadCoils, FCReadDiscreteInputs, FCReadHoldingRegisters, FCReadInputRegisters:
		var count [2]byte
		putWord(count[:], r.Count)
		return gs.PushSlice(count[:])
	case FCWriteSingleCoil, FCWriteSingleRegister:
		return gs.PushSlice(data)
	case FCWriteMultipleCoils, FCWriteMultipleRegisters:
		var count [2]byte
		putWord(count[:], r.Count)
		if err := gs.PushSlice(count[:]); err != nil {
			return err
		}
		if err := gs.Push(byte(len(data))); err != nil {
			return err
		}
		return gs.PushSlice(data)
	default:
		return nil
	}
}

// parseEnvelope validates buf against the outstanding request and returns the offsets
// of the unit id byte (followed by the PDU) and of the end of the PDU within buf.
func (r *Request) parseEnvelope(buf []byte) (start, end int, err error) {
	switch r.Proto {
	case ProtoTCP, ProtoUDP:
		if len(buf) < mbapHeaderLen+2 {
			return 0, 0, errShortBuffer
		}
		trID := getWord(buf[0:2])
		protoID := getWord(buf[2:4])
		if trID != r.TransactionID || protoID != 0 {
			return 0, 0, ErrBrokenFrame
		}
		return 6, len(buf), nil
	case ProtoRTU:
		if len(buf) < 5 {
			return 0, 0, errShortBuffer
		}
		n := len(buf)
		crc := calcCRC16(buf[:n-2])
		if crc != getWord([]byte{buf[n-1], buf[n-2]}) {
			return 0, 0, ErrBadCRC
		}
		return 0, n - 2, nil
	case ProtoASCII:
		if len(buf) < 4 {
			return 0, 0, errShortBuffer
		}
		n := len(buf)
		if calcLRC(buf[:n-1]) != buf[n-1] {
			return 0, 0, ErrBadLRC
		}
		return 0, n - 1, nil
	default:
		return 0, 0, ErrBrokenFrame
	}
}

// ParseOK validates a response against the outstanding request without extracting any
// data, returning a Modbus exception if the server reported one.
func (r *Request) ParseOK(buf []byte) error {
	start, end, err := r.parseEnvelope(buf)
	if err != nil {
		return err
	}
	return r.checkUnitAndFunc(buf, start, end)
}

func (r *Request) checkUnitAndFunc(buf []byte, start, end int) error {
	if buf[start] != r.UnitID {
		return ErrCommError
	}
	fc := buf[start+1]
	if fc != byte(r.Func) {
		if exc, ok := exceptionFromByte(buf[start+2]); ok {
			return exc
		}
		return ErrCommError
	}
	if r.Func.IsRead() {
		byteCount := int(buf[start+2])
		if byteCount*2 < (end-start)-3 {
			return ErrBrokenFrame
		}
	}
	return nil
}

// ParseU16List validates the response and appends its register values to dst,
// returning the extended slice. Valid for the four read function codes over inputs or
// holding registers.
func (r *Request) ParseU16List(buf []byte, dst []uint16) ([]uint16, error) {
	start, end, err := r.parseEnvelope(buf)
	if err != nil {
		return dst, err
	}
	if err := r.checkUnitAndFunc(buf, start, end); err != nil {
		return dst, err
	}
	pos := start + 3
	for pos < end-1 && len(dst) < int(r.Count) {
		dst = append(dst, getWord(buf[pos:pos+2]))
		pos += 2
	}
	return dst, nil
}

// ParseBool validates the response and appends its bit values to dst, returning the
// extended slice. Valid for FCReadCoils/FCReadDiscreteInputs responses.
func (r *Request) ParseBool(buf []byte, dst []bool) ([]bool, error) {
	start, end, err := r.parseEnvelope(buf)
	if err != nil {
		return dst, err
	}
	if err := r.checkUnitAndFunc(buf, start, end); err != nil {
		return dst, err
	}
	for pos := start + 3; pos < end; pos++ {
		b := buf[pos]
		for i := uint(0); i < 8; i++ {
			if len(dst) >= int(r.Count) {
				return dst, nil
			}
			dst = append(dst, b>>i&1 == 1)
		}
	}
	return dst, nil
}
