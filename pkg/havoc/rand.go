package havoc

import "math/bits"

// Rand is a xoshiro256** generator seeded through splitmix64.
//
// The zero value is not usable; call [NewRand] or [Rand.Reset]. Rand is a
// plain value with no locking and must not be shared between goroutines.
type Rand struct {
	s0, s1, s2, s3 uint64
}

// NewRand returns a generator seeded from seed.
func NewRand(seed uint64) *Rand {
	r := &Rand{}
	r.Reset(seed)

	return r
}

// Reset re-seeds r. Two generators reset with the same seed produce the same
// sequence.
func (r *Rand) Reset(seed uint64) {
	x := seed
	r.s0 = splitmix64(&x)
	r.s1 = splitmix64(&x)
	r.s2 = splitmix64(&x)
	r.s3 = splitmix64(&x)
}

// Uint64 returns the next 64 random bits.
func (r *Rand) Uint64() uint64 {
	result := bits.RotateLeft64(r.s1*5, 7) * 9
	t := r.s1 << 17

	r.s2 ^= r.s0
	r.s3 ^= r.s1
	r.s1 ^= r.s2
	r.s0 ^= r.s3
	r.s2 ^= t
	r.s3 = bits.RotateLeft64(r.s3, 45)

	return result
}

// Uint64N returns a uniform value in [0, n). Returns 0 when n is 0.
//
// Uses Lemire's multiply-shift reduction with rejection, so the result has
// no modulo bias.
func (r *Rand) Uint64N(n uint64) uint64 {
	if n == 0 {
		return 0
	}

	hi, lo := bits.Mul64(r.Uint64(), n)
	if lo < n {
		thresh := -n % n
		for lo < thresh {
			hi, lo = bits.Mul64(r.Uint64(), n)
		}
	}

	return hi
}

// IntN returns a uniform value in [0, n). Returns 0 when n <= 0.
func (r *Rand) IntN(n int) int {
	if n <= 0 {
		return 0
	}

	return int(r.Uint64N(uint64(n)))
}

// Bool returns a uniform boolean from the top bit of the next draw.
func (r *Rand) Bool() bool {
	return r.Uint64()>>63 == 1
}

func splitmix64(x *uint64) uint64 {
	*x += 0x9e3779b97f4a7c15

	z := *x
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb

	return z ^ (z >> 31)
}

// DeriveSeed returns the seed for the index-th member of a campaign started
// from base. Distinct indexes give unrelated streams; the mapping is stable.
func DeriveSeed(base, index uint64) uint64 {
	x := base ^ bits.RotateLeft64(index, 32)

	return splitmix64(&x)
}
