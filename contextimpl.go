package modbus

import "math"

// Storage sizes for the two named reference contexts. Go has no const-generic array
// lengths, so unlike a fixed-array implementation these are runtime slice lengths
// handed to NewStorage; nothing stops a caller from picking any other sizes.
const (
	SmallStorageSize = 1_000
	FullStorageSize  = 10_000
)

// Storage is the reference [Context] implementation: four runtime-sized slices holding
// the coil, discrete, input, and holding register spaces.
type Storage struct {
	coils     []bool
	discretes []bool
	inputs    []uint16
	holdings  []uint16
}

// NewStorage allocates a Storage with the given per-space sizes.
func NewStorage(coils, discretes, inputs, holdings int) *Storage {
	return &Storage{
		coils:     make([]bool, coils),
		discretes: make([]bool, discretes),
		inputs:    make([]uint16, inputs),
		holdings:  make([]uint16, holdings),
	}
}

// NewStorageSmall returns a Storage with SmallStorageSize registers of each type.
func NewStorageSmall() *Storage {
	return NewStorage(SmallStorageSize, SmallStorageSize, SmallStorageSize, SmallStorageSize)
}

// NewStorageFull returns a Storage with FullStorageSize registers of each type.
func NewStorageFull() *Storage {
	return NewStorage(FullStorageSize, FullStorageSize, FullStorageSize, FullStorageSize)
}

func (s *Storage) Bounds() (coils, discretes, inputs, holdings uint16) {
	return uint16(len(s.coils)), uint16(len(s.discretes)), uint16(len(s.inputs)), uint16(len(s.holdings))
}

func (s *Storage) Coil(reg uint16) (bool, error) {
	if int(reg) >= len(s.coils) {
		return false, ErrOutOfBounds
	}
	return s.coils[reg], nil
}

func (s *Storage) Discrete(reg uint16) (bool, error) {
	if int(reg) >= len(s.discretes) {
		return false, ErrOutOfBounds
	}
	return s.discretes[reg], nil
}

func (s *Storage) Input(reg uint16) (uint16, error) {
	if int(reg) >= len(s.inputs) {
		return 0, ErrOutOfBounds
	}
	return s.inputs[reg], nil
}

func (s *Storage) Holding(reg uint16) (uint16, error) {
	if int(reg) >= len(s.holdings) {
		return 0, ErrOutOfBounds
	}
	return s.holdings[reg], nil
}

func (s *Storage) SetCoil(reg uint16, value bool) error {
	if int(reg) >= len(s.coils) {
		return ErrOutOfBounds
	}
	s.coils[reg] = value
	return nil
}

func (s *Storage) SetDiscrete(reg uint16, value bool) error {
	if int(reg) >= len(s.discretes) {
		return ErrOutOfBounds
	}
	s.discretes[reg] = value
	return nil
}

func (s *Storage) SetInput(reg uint16, value uint16) error {
	if int(reg) >= len(s.inputs) {
		return ErrOutOfBounds
	}
	s.inputs[reg] = value
	return nil
}

func (s *Storage) SetHolding(reg uint16, value uint16) error {
	if int(reg) >= len(s.holdings) {
		return ErrOutOfBounds
	}
	s.holdings[reg] = value
	return nil
}

func boolsBulk(space []bool, reg, count uint16, dst []bool) ([]bool, error) {
	to := int(reg) + int(count)
	if to > len(space) {
		return dst, ErrOutOfBoundsContext
	}
	return append(dst, space[reg:to]...), nil
}

func wordsBulk(space []uint16, reg, count uint16, dst []uint16) ([]uint16, error) {
	to := int(reg) + int(count)
	if to > len(space) {
		return dst, ErrOutOfBoundsContext
	}
	return append(dst, space[reg:to]...), nil
}

func setBoolsBulk(space []bool, reg uint16, values []bool) error {
	to := int(reg) + len(values)
	if to > len(space) {
		return ErrOutOfBoundsContext
	}
	copy(space[reg:to], values)
	return nil
}

func setWordsBulk(space []uint16, reg uint16, values []uint16) error {
	to := int(reg) + len(values)
	if to > len(space) {
		return ErrOutOfBoundsContext
	}
	copy(space[reg:to], values)
	return nil
}

func (s *Storage) CoilsBulk(reg, count uint16, dst []bool) ([]bool, error) {
	return boolsBulk(s.coils, reg, count, dst)
}

func (s *Storage) DiscretesBulk(reg, count uint16, dst []bool) ([]bool, error) {
	return boolsBulk(s.discretes, reg, count, dst)
}

func (s *Storage) InputsBulk(reg, count uint16, dst []uint16) ([]uint16, error) {
	return wordsBulk(s.inputs, reg, count, dst)
}

func (s *Storage) HoldingsBulk(reg, count uint16, dst []uint16) ([]uint16, error) {
	return wordsBulk(s.holdings, reg, count, dst)
}

func (s *Storage) SetCoilsBulk(reg uint16, values []bool) error {
	return setBoolsBulk(s.coils, reg, values)
}

func (s *Storage) SetDiscretesBulk(reg uint16, values []bool) error {
	return setBoolsBulk(s.discretes, reg, values)
}

func (s *Storage) SetInputsBulk(reg uint16, values []uint16) error {
	return setWordsBulk(s.inputs, reg, values)
}

func (s *Storage) SetHoldingsBulk(reg uint16, values []uint16) error {
	return setWordsBulk(s.holdings, reg, values)
}

// boolsAsBytes packs count bools starting at reg into dst, one bit per bool, reg first
// in bit 0 of the first output byte.
func boolsAsBytes(space []bool, reg, count uint16, dst []byte) ([]byte, error) {
	to := int(reg) + int(count)
	if to > len(space) {
		return dst, ErrOutOfBoundsContext
	}
	creg := int(reg)
	for creg < to {
		var cbyte byte
		for i := 0; i < 8 && creg < to; i++ {
			if space[creg] {
				cbyte |= 1 << uint(i)
			}
			creg++
		}
		dst = append(dst, cbyte)
	}
	return dst, nil
}

func setBoolsFromBytes(space []bool, reg, count uint16, values []byte) error {
	to := int(reg) + int(count)
	if to > len(space) {
		return ErrOutOfBoundsContext
	}
	creg := int(reg)
	for _, b := range values {
		for i := 0; i < 8 && creg < to; i++ {
			space[creg] = b&(1<<uint(i)) != 0
			creg++
		}
		if creg >= to {
			break
		}
	}
	return nil
}

func (s *Storage) CoilsAsBytes(reg, count uint16, dst []byte) ([]byte, error) {
	return boolsAsBytes(s.coils, reg, count, dst)
}

func (s *Storage) DiscretesAsBytes(reg, count uint16, dst []byte) ([]byte, error) {
	return boolsAsBytes(s.discretes, reg, count, dst)
}

func (s *Storage) SetCoilsFromBytes(reg, count uint16, values []byte) error {
	return setBoolsFromBytes(s.coils, reg, count, values)
}

func (s *Storage) SetDiscretesFromBytes(reg, count uint16, values []byte) error {
	return setBoolsFromBytes(s.discretes, reg, count, values)
}

func wordsAsBytes(space []uint16, reg, count uint16, dst []byte) ([]byte, error) {
	to := int(reg) + int(count)
	if to > len(space) {
		return dst, ErrOutOfBoundsContext
	}
	for _, w := range space[reg:to] {
		dst = append(dst, byte(w>>8), byte(w))
	}
	return dst, nil
}

func setWordsFromBytes(space []uint16, reg, count uint16, values []byte) error {
	to := int(reg) + int(count)
	if to > len(space) || len(values) < int(count)*2 {
		return ErrOutOfBoundsContext
	}
	for i := 0; i < int(count); i++ {
		space[int(reg)+i] = getWord(values[2*i : 2*i+2])
	}
	return nil
}

func (s *Storage) HoldingsAsBytes(reg, count uint16, dst []byte) ([]byte, error) {
	return wordsAsBytes(s.holdings, reg, count, dst)
}

func (s *Storage) InputsAsBytes(reg, count uint16, dst []byte) ([]byte, error) {
	return wordsAsBytes(s.inputs, reg, count, dst)
}

func (s *Storage) SetHoldingsFromBytes(reg, count uint16, values []byte) error {
	return setWordsFromBytes(s.holdings, reg, count, values)
}

func (s *Storage) SetInputsFromBytes(reg, count uint16, values []byte) error {
	return setWordsFromBytes(s.inputs, reg, count, values)
}

func wordsU32(space []uint16, reg uint16) (uint32, error) {
	if int(reg)+2 > len(space) {
		return 0, ErrOutOfBounds
	}
	return uint32(space[reg])<<16 | uint32(space[reg+1]), nil
}

func setWordsU32(space []uint16, reg uint16, value uint32) error {
	if int(reg)+2 > len(space) {
		return ErrOutOfBounds
	}
	space[reg] = uint16(value >> 16)
	space[reg+1] = uint16(value)
	return nil
}

func (s *Storage) HoldingsU32(reg uint16) (uint32, error) { return wordsU32(s.holdings, reg) }
func (s *Storage) InputsU32(reg uint16) (uint32, error)   { return wordsU32(s.inputs, reg) }
func (s *Storage) SetHoldingsU32(reg uint16, value uint32) error {
	return setWordsU32(s.holdings, reg, value)
}
func (s *Storage) SetInputsU32(reg uint16, value uint32) error {
	return setWordsU32(s.inputs, reg, value)
}

func (s *Storage) HoldingsI32(reg uint16) (int32, error) {
	v, err := wordsU32(s.holdings, reg)
	return int32(v), err
}
func (s *Storage) InputsI32(reg uint16) (int32, error) {
	v, err := wordsU32(s.inputs, reg)
	return int32(v), err
}
func (s *Storage) SetHoldingsI32(reg uint16, value int32) error {
	return setWordsU32(s.holdings, reg, uint32(value))
}
func (s *Storage) SetInputsI32(reg uint16, value int32) error {
	return setWordsU32(s.inputs, reg, uint32(value))
}

func wordsU64(space []uint16, reg uint16) (uint64, error) {
	if int(reg)+4 > len(space) {
		return 0, ErrOutOfBounds
	}
	return uint64(space[reg])<<48 | uint64(space[reg+1])<<32 | uint64(space[reg+2])<<16 | uint64(space[reg+3]), nil
}

func setWordsU64(space []uint16, reg uint16, value uint64) error {
	if int(reg)+4 > len(space) {
		return ErrOutOfBounds
	}
	space[reg] = uint16(value >> 48)
	space[reg+1] = uint16(value >> 32)
	space[reg+2] = uint16(value >> 16)
	space[reg+3] = uint16(value)
	return nil
}

func (s *Storage) HoldingsU64(reg uint16) (uint64, error) { return wordsU64(s.holdings, reg) }
func (s *Storage) InputsU64(reg uint16) (uint64, error)   { return wordsU64(s.inputs, reg) }
func (s *Storage) SetHoldingsU64(reg uint16, value uint64) error {
	return setWordsU64(s.holdings, reg, value)
}
func (s *Storage) SetInputsU64(reg uint16, value uint64) error {
	return setWordsU64(s.inputs, reg, value)
}

func (s *Storage) HoldingsI64(reg uint16) (int64, error) {
	v, err := wordsU64(s.holdings, reg)
	return int64(v), err
}
func (s *Storage) InputsI64(reg uint16) (int64, error) {
	v, err := wordsU64(s.inputs, reg)
	return int64(v), err
}
func (s *Storage) SetHoldingsI64(reg uint16, value int64) error {
	return setWordsU64(s.holdings, reg, uint64(value))
}
func (s *Storage) SetInputsI64(reg uint16, value int64) error {
	return setWordsU64(s.inputs, reg, uint64(value))
}

func (s *Storage) HoldingsF32(reg uint16) (float32, error) {
	v, err := wordsU32(s.holdings, reg)
	return math.Float32frombits(v), err
}

func (s *Storage) InputsF32(reg uint16) (float32, error) {
	v, err := wordsU32(s.inputs, reg)
	return math.Float32frombits(v), err
}

func (s *Storage) SetHoldingsF32(reg uint16, value float32) error {
	return setWordsU32(s.holdings, reg, math.Float32bits(value))
}

func (s *Storage) SetInputsF32(reg uint16, value float32) error {
	return setWordsU32(s.inputs, reg, math.Float32bits(value))
}

func (s *Storage) HoldingsF64(reg uint16) (float64, error) {
	v, err := wordsU64(s.holdings, reg)
	return math.Float64frombits(v), err
}

func (s *Storage) InputsF64(reg uint16) (float64, error) {
	v, err := wordsU64(s.inputs, reg)
	return math.Float64frombits(v), err
}

func (s *Storage) SetHoldingsF64(reg uint16, value float64) error {
	return setWordsU64(s.holdings, reg, math.Float64bits(value))
}

func (s *Storage) SetInputsF64(reg uint16, value float64) error {
	return setWordsU64(s.inputs, reg, math.Float64bits(value))
}

var _ Context = (*Storage)(nil)
