package havoc

import "slices"

// Upper bound on the run length moved by the block strategies.
const maxBlockLen = 32

// apply runs s on m.buf. The caller has checked s.applicable.
func (m *Mutator) apply(s Strategy) {
	switch s {
	case BitFlip:
		m.bitFlip()
	case ByteFlip:
		m.byteFlip()
	case Arithmetic:
		m.arithmetic()
	case Interesting:
		m.interesting()
	case BlockInsert:
		m.blockInsert()
	case BlockDuplicate:
		m.blockDuplicate()
	case BlockDelete:
		m.blockDelete()
	}
}

func (m *Mutator) bitFlip() {
	i := m.rng.IntN(len(m.buf))
	bit := m.rng.IntN(8)
	m.buf[i] ^= 1 << bit
}

func (m *Mutator) byteFlip() {
	i := m.rng.IntN(len(m.buf))
	x := byte(1 + m.rng.IntN(255))

	if m.rng.Bool() {
		m.buf[i] ^= x
	} else {
		m.buf[i] += x
	}
}

func (m *Mutator) arithmetic() {
	width := 1 << m.rng.IntN(widthChoices(len(m.buf)))
	off := m.rng.IntN(len(m.buf) - width + 1)
	bigEndian := m.rng.Bool()
	delta := uint64(1 + m.rng.IntN(maxDelta))

	v := loadInt(m.buf[off:], width, bigEndian)
	if m.rng.Bool() {
		v += delta
	} else {
		v -= delta
	}

	storeInt(m.buf[off:], v, width, bigEndian)
}

func (m *Mutator) interesting() {
	width := 1 << m.rng.IntN(widthChoices(len(m.buf)))
	off := m.rng.IntN(len(m.buf) - width + 1)
	bigEndian := m.rng.Bool()
	v := interestingValues[m.rng.IntN(interestingCount(width))]

	storeInt(m.buf[off:], uint64(v), width, bigEndian)
}

func (m *Mutator) blockInsert() {
	n := len(m.buf)
	k := 1 + m.rng.IntN(min(maxBlockLen, m.maxLen-n))
	pos := m.rng.IntN(n + 1)

	m.grow(k)
	copy(m.buf[pos+k:], m.buf[pos:n])

	for i := pos; i < pos+k; i++ {
		m.buf[i] = byte(m.rng.Uint64())
	}
}

func (m *Mutator) blockDuplicate() {
	n := len(m.buf)
	from := m.rng.IntN(n)
	k := 1 + m.rng.IntN(min(maxBlockLen, n-from, m.maxLen-n))
	to := m.rng.IntN(n + 1)

	// Source and destination may overlap once the tail shifts.
	m.scratch = append(m.scratch[:0], m.buf[from:from+k]...)

	m.grow(k)
	copy(m.buf[to+k:], m.buf[to:n])
	copy(m.buf[to:], m.scratch)
}

func (m *Mutator) blockDelete() {
	n := len(m.buf)
	k := 1 + m.rng.IntN(min(maxBlockLen, n-1))
	pos := m.rng.IntN(n - k + 1)

	m.buf = append(m.buf[:pos], m.buf[pos+k:]...)
}

// grow extends m.buf by k bytes, keeping existing content.
func (m *Mutator) grow(k int) {
	n := len(m.buf)
	m.buf = slices.Grow(m.buf, k)[:n+k]
}
