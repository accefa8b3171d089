package modbus

import "testing"

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	s := NewStorage(12, 5, 4, 6)
	if err := s.SetCoilsBulk(0, []bool{true, false, true, true, false, true, true, true, false, true, false, true}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetDiscretesBulk(0, []bool{true, true, false, true, false}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetInputsBulk(0, []uint16{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetHoldingsBulk(0, []uint16{0xDEAD, 0xBEEF, 1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}

	snap, err := s.Snapshot(nil)
	if err != nil {
		t.Fatal(err)
	}
	wantLen := 2 /* coils: ceil(12/8) */ + 1 /* discretes: ceil(5/8) */ + 4*2 + 6*2
	if len(snap) != wantLen {
		t.Fatalf("Snapshot len = %d, want %d", len(snap), wantLen)
	}

	other := NewStorage(12, 5, 4, 6)
	if err := other.Restore(snap); err != nil {
		t.Fatal(err)
	}

	gotCoils, err := other.CoilsBulk(0, 12, nil)
	if err != nil {
		t.Fatal(err)
	}
	wantCoils, _ := s.CoilsBulk(0, 12, nil)
	for i := range wantCoils {
		if gotCoils[i] != wantCoils[i] {
			t.Fatalf("coil %d = %v, want %v", i, gotCoils[i], wantCoils[i])
		}
	}

	gotDiscretes, err := other.DiscretesBulk(0, 5, nil)
	if err != nil {
		t.Fatal(err)
	}
	wantDiscretes, _ := s.DiscretesBulk(0, 5, nil)
	for i := range wantDiscretes {
		if gotDiscretes[i] != wantDiscretes[i] {
			t.Fatalf("discrete %d = %v, want %v", i, gotDiscretes[i], wantDiscretes[i])
		}
	}

	gotInputs, err := other.InputsBulk(0, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	wantInputs, _ := s.InputsBulk(0, 4, nil)
	for i := range wantInputs {
		if gotInputs[i] != wantInputs[i] {
			t.Fatalf("input %d = %d, want %d", i, gotInputs[i], wantInputs[i])
		}
	}

	gotHoldings, err := other.HoldingsBulk(0, 6, nil)
	if err != nil {
		t.Fatal(err)
	}
	wantHoldings, _ := s.HoldingsBulk(0, 6, nil)
	for i := range wantHoldings {
		if gotHoldings[i] != wantHoldings[i] {
			t.Fatalf("holding %d = %#04x, want %#04x", i, gotHoldings[i], wantHoldings[i])
		}
	}
}

func TestRestoreRejectsWrongLength(t *testing.T) {
	s := NewStorage(8, 8, 2, 2)
	if err := s.Restore(make([]byte, 3)); err != ErrOutOfBoundsContext {
		t.Fatalf("expected ErrOutOfBoundsContext, got %v", err)
	}
}
