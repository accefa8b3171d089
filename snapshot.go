package modbus

// Snapshot appends the deterministic byte-stream encoding described on the Context
// interface to dst: coils, discretes, inputs, holdings, in that order.
func (s *Storage) Snapshot(dst []byte) ([]byte, error) {
	coilsB, err := s.CoilsAsBytes(0, uint16(len(s.coils)), nil)
	if err != nil {
		return dst, err
	}
	discretesB, err := s.DiscretesAsBytes(0, uint16(len(s.discretes)), nil)
	if err != nil {
		return dst, err
	}
	inputsB, err := s.InputsAsBytes(0, uint16(len(s.inputs)), nil)
	if err != nil {
		return dst, err
	}
	holdingsB, err := s.HoldingsAsBytes(0, uint16(len(s.holdings)), nil)
	if err != nil {
		return dst, err
	}
	out := append(dst, coilsB...)
	out = append(out, discretesB...)
	out = append(out, inputsB...)
	out = append(out, holdingsB...)
	return out, nil
}

// Restore implements the Context counterpart of Snapshot.
func (s *Storage) Restore(data []byte) error {
	coilsLen := (len(s.coils) + 7) / 8
	discretesLen := (len(s.discretes) + 7) / 8
	inputsLen := len(s.inputs) * 2
	holdingsLen := len(s.holdings) * 2
	want := coilsLen + discretesLen + inputsLen + holdingsLen
	if len(data) != want {
		return ErrOutOfBoundsContext
	}

	off := 0
	if err := s.SetCoilsFromBytes(0, uint16(len(s.coils)), data[off:off+coilsLen]); err != nil {
		return err
	}
	off += coilsLen
	if err := s.SetDiscretesFromBytes(0, uint16(len(s.discretes)), data[off:off+discretesLen]); err != nil {
		return err
	}
	off += discretesLen
	if err := s.SetInputsFromBytes(0, uint16(len(s.inputs)), data[off:off+inputsLen]); err != nil {
		return err
	}
	off += inputsLen
	return s.SetHoldingsFromBytes(0, uint16(len(s.holdings)), data[off:off+holdingsLen])
}
