package havoc

import (
	"encoding/binary"
	"math"
)

// Boundary values ordered by the smallest width that can hold them. A window
// of width w draws from interestingValues[:interestingCount(w)].
var interestingValues = [...]int64{
	// 8 bit
	math.MinInt8, -1, 0, 1, 16, 32, 64, 100, math.MaxInt8,
	// 16 bit
	math.MinInt16, -129, 128, math.MaxUint8, 256, 512, 1000, 1024, 4096, math.MaxInt16,
	// 32 bit
	math.MinInt32, -100663046, -32769, 32768, math.MaxUint16, 65536, 100663045, math.MaxInt32,
	// 64 bit
	math.MinInt64, -2147483649, 2147483648, math.MaxUint32, 4294967296, math.MaxInt64,
}

const (
	interesting8  = 9
	interesting16 = interesting8 + 10
	interesting32 = interesting16 + 8
	interesting64 = len(interestingValues)
)

func interestingCount(width int) int {
	switch width {
	case 1:
		return interesting8
	case 2:
		return interesting16
	case 4:
		return interesting32
	default:
		return interesting64
	}
}

// The maximum delta for arithmetic mutations.
const maxDelta = 35

// widthChoices returns how many of the widths 1, 2, 4, 8 fit into n bytes.
func widthChoices(n int) int {
	switch {
	case n >= 8:
		return 4
	case n >= 4:
		return 3
	case n >= 2:
		return 2
	default:
		return 1
	}
}

func loadInt(data []byte, width int, bigEndian bool) uint64 {
	switch width {
	case 1:
		return uint64(data[0])
	case 2:
		if bigEndian {
			return uint64(binary.BigEndian.Uint16(data))
		}

		return uint64(binary.LittleEndian.Uint16(data))
	case 4:
		if bigEndian {
			return uint64(binary.BigEndian.Uint32(data))
		}

		return uint64(binary.LittleEndian.Uint32(data))
	default:
		if bigEndian {
			return binary.BigEndian.Uint64(data)
		}

		return binary.LittleEndian.Uint64(data)
	}
}

func storeInt(data []byte, v uint64, width int, bigEndian bool) {
	switch width {
	case 1:
		data[0] = byte(v)
	case 2:
		if bigEndian {
			binary.BigEndian.PutUint16(data, uint16(v))
		} else {
			binary.LittleEndian.PutUint16(data, uint16(v))
		}
	case 4:
		if bigEndian {
			binary.BigEndian.PutUint32(data, uint32(v))
		} else {
			binary.LittleEndian.PutUint32(data, uint32(v))
		}
	default:
		if bigEndian {
			binary.BigEndian.PutUint64(data, v)
		} else {
			binary.LittleEndian.PutUint64(data, v)
		}
	}
}
