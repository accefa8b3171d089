package modbus

import "testing"

// checkGuessRequestFrameLen verifies the property spec.md §8 names for the request-side
// oracle: for every prefix length p of a complete, valid frame F, GuessRequestFrameLen
// either asks for more header bytes, or reports exactly how many more bytes complete F —
// so driving it to completion from any starting prefix always lands on len(F).
func checkGuessRequestFrameLen(t *testing.T, proto Proto, frame []byte) {
	t.Helper()
	for p := 0; p <= len(frame); p++ {
		need, ok := GuessRequestFrameLen(proto, frame[:p])
		if !ok {
			continue
		}
		if p+need != len(frame) {
			t.Fatalf("proto %v: GuessRequestFrameLen(frame[:%d]) = (%d, true), p+need = %d, want %d",
				proto, p, need, p+need, len(frame))
		}
	}
}

func checkGuessResponseFrameLen(t *testing.T, proto Proto, fc FunctionCode, frame []byte) {
	t.Helper()
	for p := 0; p <= len(frame); p++ {
		need, ok := GuessResponseFrameLen(proto, fc, frame[:p])
		if !ok {
			continue
		}
		if p+need != len(frame) {
			t.Fatalf("proto %v: GuessResponseFrameLen(frame[:%d]) = (%d, true), p+need = %d, want %d",
				proto, p, need, p+need, len(frame))
		}
	}
}

func TestGuessRequestFrameLenTCP(t *testing.T) {
	req := NewRequest(1, ProtoTCP)
	sink := &GrowingSink{}
	if err := req.GenerateReadHoldingRegisters(0, 5, sink); err != nil {
		t.Fatalf("generate: %v", err)
	}
	// 0001 0000 0006 01 03 0000 0005: 12 bytes total, length field 6.
	if len(sink.Bytes()) != 12 {
		t.Fatalf("request length = %d, want 12", len(sink.Bytes()))
	}
	checkGuessRequestFrameLen(t, ProtoTCP, sink.Bytes())
}

func TestGuessRequestFrameLenTCPWriteMultipleRegisters(t *testing.T) {
	req := NewRequest(7, ProtoTCP)
	sink := &GrowingSink{}
	if err := req.GenerateWriteMultipleRegisters(10, []uint16{1, 2, 3, 4}, sink); err != nil {
		t.Fatalf("generate: %v", err)
	}
	checkGuessRequestFrameLen(t, ProtoTCP, sink.Bytes())
}

func TestGuessRequestFrameLenUDP(t *testing.T) {
	req := NewRequest(2, ProtoUDP)
	sink := &GrowingSink{}
	if err := req.GenerateWriteSingleRegister(3, 42, sink); err != nil {
		t.Fatalf("generate: %v", err)
	}
	checkGuessRequestFrameLen(t, ProtoUDP, sink.Bytes())
}

func TestGuessRequestFrameLenRTU(t *testing.T) {
	req := NewRequest(4, ProtoRTU)
	sink := &GrowingSink{}
	if err := req.GenerateReadCoils(0, 20, sink); err != nil {
		t.Fatalf("generate: %v", err)
	}
	checkGuessRequestFrameLen(t, ProtoRTU, sink.Bytes())

	sink2 := &GrowingSink{}
	values := []bool{true, false, true, true, false, true, true, true, false}
	if err := req.GenerateWriteMultipleCoils(0, values, sink2); err != nil {
		t.Fatalf("generate: %v", err)
	}
	checkGuessRequestFrameLen(t, ProtoRTU, sink2.Bytes())
}

func TestGuessResponseFrameLenTCP(t *testing.T) {
	ctx := NewStorage(0, 0, 0, 10)
	ctx.SetHolding(2, 777)
	ctx.SetHolding(3, 778)

	req := NewRequest(9, ProtoTCP)
	reqSink := &GrowingSink{}
	if err := req.GenerateReadHoldingRegisters(2, 2, reqSink); err != nil {
		t.Fatalf("generate: %v", err)
	}

	respSink := &GrowingSink{}
	f := NewFrame(9, reqSink.Bytes(), ProtoTCP, respSink)
	if err := f.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := f.ProcessRead(ctx); err != nil {
		t.Fatalf("ProcessRead: %v", err)
	}
	if err := f.FinalizeResponse(); err != nil {
		t.Fatalf("FinalizeResponse: %v", err)
	}

	checkGuessResponseFrameLen(t, ProtoTCP, FCReadHoldingRegisters, respSink.Bytes())
}

func TestGuessResponseFrameLenRTUException(t *testing.T) {
	ctx := NewStorage(0, 0, 0, 4)

	req := NewRequest(1, ProtoRTU)
	reqSink := &GrowingSink{}
	if err := req.GenerateReadHoldingRegisters(0, 200, reqSink); err != nil {
		t.Fatalf("generate: %v", err)
	}

	respSink := NewSliceSink(make([]byte, 32))
	f := NewFrame(1, reqSink.Bytes(), ProtoRTU, respSink)
	if err := f.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := f.ProcessRead(ctx); err != nil {
		t.Fatalf("ProcessRead: %v", err)
	}
	if err := f.FinalizeResponse(); err != nil {
		t.Fatalf("FinalizeResponse: %v", err)
	}

	checkGuessResponseFrameLen(t, ProtoRTU, FCReadHoldingRegisters, respSink.Bytes())
}
