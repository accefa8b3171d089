package modbus

import "testing"

func TestStorageRegisterRoundTrip(t *testing.T) {
	s := NewStorage(16, 16, 16, 16)

	if err := s.SetCoil(3, true); err != nil {
		t.Fatal(err)
	}
	if v, err := s.Coil(3); err != nil || !v {
		t.Fatalf("Coil(3) = %v, %v", v, err)
	}

	if err := s.SetHolding(0, 0xBEEF); err != nil {
		t.Fatal(err)
	}
	if v, err := s.Holding(0); err != nil || v != 0xBEEF {
		t.Fatalf("Holding(0) = %#04x, %v", v, err)
	}
}

func TestStorageOutOfBounds(t *testing.T) {
	s := NewStorage(4, 4, 4, 4)
	if _, err := s.Coil(4); err != ErrOutOfBounds {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	if err := s.SetHolding(10, 1); err != ErrOutOfBounds {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
}

func TestStorageU32F32RoundTrip(t *testing.T) {
	s := NewStorage(0, 0, 10, 10)

	if err := s.SetHoldingsU32(0, 0xDEADBEEF); err != nil {
		t.Fatal(err)
	}
	if v, err := s.HoldingsU32(0); err != nil || v != 0xDEADBEEF {
		t.Fatalf("HoldingsU32(0) = %#08x, %v", v, err)
	}
	hi, _ := s.Holding(0)
	lo, _ := s.Holding(1)
	if hi != 0xDEAD || lo != 0xBEEF {
		t.Fatalf("expected high word 0xDEAD low word 0xBEEF, got %#04x %#04x", hi, lo)
	}

	if err := s.SetHoldingsF32(2, 3.5); err != nil {
		t.Fatal(err)
	}
	if v, err := s.HoldingsF32(2); err != nil || v != 3.5 {
		t.Fatalf("HoldingsF32(2) = %v, %v", v, err)
	}
}

func TestStorageI32RoundTrip(t *testing.T) {
	s := NewStorage(0, 0, 10, 10)

	if err := s.SetHoldingsI32(0, -12345); err != nil {
		t.Fatal(err)
	}
	if v, err := s.HoldingsI32(0); err != nil || v != -12345 {
		t.Fatalf("HoldingsI32(0) = %d, %v", v, err)
	}
	// Same bits as the equivalent HoldingsU32 call.
	wantI32 := int32(-12345)
	if u, err := s.HoldingsU32(0); err != nil || u != uint32(wantI32) {
		t.Fatalf("HoldingsU32(0) = %#08x, %v", u, err)
	}

	if err := s.SetInputsI32(0, -1); err != nil {
		t.Fatal(err)
	}
	if v, err := s.InputsI32(0); err != nil || v != -1 {
		t.Fatalf("InputsI32(0) = %d, %v", v, err)
	}
}

func TestStorageI64RoundTrip(t *testing.T) {
	s := NewStorage(0, 0, 10, 10)

	if err := s.SetHoldingsI64(0, -9876543210); err != nil {
		t.Fatal(err)
	}
	if v, err := s.HoldingsI64(0); err != nil || v != -9876543210 {
		t.Fatalf("HoldingsI64(0) = %d, %v", v, err)
	}
	wantI64 := int64(-9876543210)
	if u, err := s.HoldingsU64(0); err != nil || u != uint64(wantI64) {
		t.Fatalf("HoldingsU64(0) = %#016x, %v", u, err)
	}

	if err := s.SetInputsI64(4, -1); err != nil {
		t.Fatal(err)
	}
	if v, err := s.InputsI64(4); err != nil || v != -1 {
		t.Fatalf("InputsI64(4) = %d, %v", v, err)
	}
}

func TestStorageU64F64RoundTrip(t *testing.T) {
	s := NewStorage(0, 0, 10, 10)
	if err := s.SetHoldingsU64(0, 0x0102030405060708); err != nil {
		t.Fatal(err)
	}
	if v, err := s.HoldingsU64(0); err != nil || v != 0x0102030405060708 {
		t.Fatalf("HoldingsU64(0) = %#016x, %v", v, err)
	}

	if err := s.SetHoldingsF64(4, 2.71828); err != nil {
		t.Fatal(err)
	}
	if v, err := s.HoldingsF64(4); err != nil || v != 2.71828 {
		t.Fatalf("HoldingsF64(4) = %v, %v", v, err)
	}
}

func TestStorageBulkAndBytes(t *testing.T) {
	s := NewStorage(20, 0, 0, 20)
	if err := s.SetCoilsBulk(0, []bool{true, false, true, true}); err != nil {
		t.Fatal(err)
	}
	got, err := s.CoilsBulk(0, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []bool{true, false, true, true}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("CoilsBulk[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	packed, err := s.CoilsAsBytes(0, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(packed) != 1 || packed[0] != 0b1101 {
		t.Fatalf("CoilsAsBytes = %08b, want 00001101", packed)
	}

	if err := s.SetHoldingsBulk(0, []uint16{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	wb, err := s.HoldingsAsBytes(0, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	want2 := []byte{0, 1, 0, 2, 0, 3}
	for i := range want2 {
		if wb[i] != want2[i] {
			t.Fatalf("HoldingsAsBytes[%d] = %d, want %d", i, wb[i], want2[i])
		}
	}
}

func TestStorageBoundsReported(t *testing.T) {
	s := NewStorage(1, 2, 3, 4)
	c, d, i, h := s.Bounds()
	if c != 1 || d != 2 || i != 3 || h != 4 {
		t.Fatalf("Bounds() = %d %d %d %d", c, d, i, h)
	}
}
