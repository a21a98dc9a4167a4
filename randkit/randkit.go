// Package randkit provides a deterministic, reseedable pseudo-random number generator
// based on the MT19937 Mersenne Twister,
// with seeding and bounded-draw semantics that are bit-compatible
// with the random module of the CPython standard library.
//
// The point of the package is reproducibility across ecosystems:
// a dataset shuffled here with a given seed has the same element order
// as the one shuffled by random.Random(seed).shuffle with the same seed.
// Treat the generator's output as a compatibility contract, not as an implementation detail.
//
// Rand is not safe for concurrent use.
package randkit

import "math/bits"

const (
	mtN       = 624
	mtM       = 397
	matrixA   = 0x9908b0df
	upperMask = 0x80000000
	lowerMask = 0x7fffffff
)

// Rand is a MT19937 generator.
type Rand struct {
	mt  [mtN]uint32
	mti int
}

// New returns a Rand seeded with the given seed.
func New(seed int64) *Rand {
	r := &Rand{}
	r.Seed(seed)
	return r
}

// Seed reinitialises the generator state from the given seed,
// discarding any previous state.
// The absolute value of the seed is used,
// and seeds wider than 32 bits are folded in as 32 bit words, low word first.
func (r *Rand) Seed(seed int64) {
	u := uint64(seed)
	if seed < 0 {
		u = uint64(-seed)
	}
	key := []uint32{uint32(u)}
	if hi := uint32(u >> 32); hi != 0 {
		key = append(key, hi)
	}
	r.seedWithKey(key)
}

func (r *Rand) seedWord(s uint32) {
	r.mt[0] = s
	for i := 1; i < mtN; i++ {
		r.mt[i] = 1812433253*(r.mt[i-1]^(r.mt[i-1]>>30)) + uint32(i)
	}
	r.mti = mtN
}

// seedWithKey is the init_by_array initialisation of MT19937.
func (r *Rand) seedWithKey(key []uint32) {
	r.seedWord(19650218)
	i, j := 1, 0
	k := mtN
	if mtN < len(key) {
		k = len(key)
	}
	for ; 0 < k; k-- {
		r.mt[i] = (r.mt[i] ^ ((r.mt[i-1] ^ (r.mt[i-1] >> 30)) * 1664525)) + key[j] + uint32(j)
		i++
		j++
		if mtN <= i {
			r.mt[0] = r.mt[mtN-1]
			i = 1
		}
		if len(key) <= j {
			j = 0
		}
	}
	for k = mtN - 1; 0 < k; k-- {
		r.mt[i] = (r.mt[i] ^ ((r.mt[i-1] ^ (r.mt[i-1] >> 30)) * 1566083941)) - uint32(i)
		i++
		if mtN <= i {
			r.mt[0] = r.mt[mtN-1]
			i = 1
		}
	}
	r.mt[0] = 0x80000000
}

// Uint32 returns the next raw 32 bit word of the generator.
func (r *Rand) Uint32() uint32 {
	if mtN <= r.mti {
		r.twist()
	}
	y := r.mt[r.mti]
	r.mti++
	y ^= y >> 11
	y ^= (y << 7) & 0x9d2c5680
	y ^= (y << 15) & 0xefc60000
	y ^= y >> 18
	return y
}

func (r *Rand) twist() {
	for kk := 0; kk < mtN-mtM; kk++ {
		y := (r.mt[kk] & upperMask) | (r.mt[kk+1] & lowerMask)
		r.mt[kk] = r.mt[kk+mtM] ^ (y >> 1) ^ ((y & 1) * matrixA)
	}
	for kk := mtN - mtM; kk < mtN-1; kk++ {
		y := (r.mt[kk] & upperMask) | (r.mt[kk+1] & lowerMask)
		r.mt[kk] = r.mt[kk+mtM-mtN] ^ (y >> 1) ^ ((y & 1) * matrixA)
	}
	y := (r.mt[mtN-1] & upperMask) | (r.mt[0] & lowerMask)
	r.mt[mtN-1] = r.mt[mtM-1] ^ (y >> 1) ^ ((y & 1) * matrixA)
	r.mti = 0
}

// Bits returns the top k bits of the next generator word, k must be within [1, 32].
func (r *Rand) Bits(k int) uint32 {
	if k < 1 || 32 < k {
		panic("randkit: Bits is only defined for k within [1, 32]")
	}
	return r.Uint32() >> (32 - k)
}

// IntN returns a uniform value from [0, n) by rejection sampling,
// drawing only as many bits as the bit length of n.
// n must fit in 32 bits, since Bits draws a single generator word.
func (r *Rand) IntN(n int) int {
	if n <= 0 {
		panic("randkit: IntN requires a positive n")
	}
	if uint64(n) > 1<<32-1 {
		panic("randkit: IntN only supports n up to 32 bits")
	}
	k := bits.Len32(uint32(n))
	v := r.Bits(k)
	for uint32(n) <= v {
		v = r.Bits(k)
	}
	return int(v)
}

// Shuffle pseudo-randomises the order of n elements through the swap function.
// It walks the elements from the last position towards the front,
// which is the visiting order the compatibility contract requires.
func (r *Rand) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; 0 < i; i-- {
		j := r.IntN(i + 1)
		swap(i, j)
	}
}

// Vals shuffles the values of the slice in place using Shuffle.
func Vals[T any](r *Rand, vs []T) {
	r.Shuffle(len(vs), func(i, j int) {
		vs[i], vs[j] = vs[j], vs[i]
	})
}
