package lsm

import (
	"hash/fnv"
	"math"
)

// BloomFilter is a probabilistic set-membership structure: false positives
// are possible, false negatives are not. Used by SSTable.Get for the cheap
// negative lookups the tuning contract (spec §4.3) calls for on the indices
// family.
//
// Bits live packed into 64-bit words rather than one bool per bit, the
// same packed layout MarshalBinary/UnmarshalBinary use for the on-disk
// footer — carried into the live filter too instead of keeping a separate
// bool slice that has to be packed from scratch on every serialize.
type BloomFilter struct {
	words     []uint64
	numBits   uint64
	hashCount int
}

// NewBloomFilter sizes a filter for expectedItems at the given false
// positive rate by first deriving a bits-per-key budget from the target
// rate, then building on NewBloomFilterBits — the tuning contract's own
// sizing knob (spec §4.3: "N bits/key on the indices family") rather than
// a second, independent size formula.
func NewBloomFilter(expectedItems int, falsePositiveRate float64) *BloomFilter {
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = 0.01
	}
	bitsPerKey := int(math.Ceil(-math.Log(falsePositiveRate) / (math.Ln2 * math.Ln2)))
	return NewBloomFilterBits(expectedItems, bitsPerKey)
}

// NewBloomFilterBits sizes a filter directly from a bits-per-key budget, the
// form the tuning contract names explicitly ("10 bits/key on the indices
// family").
func NewBloomFilterBits(expectedItems, bitsPerKey int) *BloomFilter {
	if expectedItems <= 0 {
		expectedItems = 1
	}
	if bitsPerKey <= 0 {
		bitsPerKey = 10
	}
	const maxBits = 8_000_000_000 // ~1GB packed
	numBits := uint64(expectedItems) * uint64(bitsPerKey)
	if numBits < 64 {
		numBits = 64
	}
	if numBits > maxBits {
		numBits = maxBits
	}
	hashCount := int(math.Round(float64(bitsPerKey) * math.Ln2))
	if hashCount < 1 {
		hashCount = 1
	}
	if hashCount > 30 {
		hashCount = 30
	}
	return &BloomFilter{
		words:     make([]uint64, (numBits+63)/64),
		numBits:   numBits,
		hashCount: hashCount,
	}
}

func (bf *BloomFilter) Add(key []byte) {
	lo, hi := splitHash(key)
	for i := 0; i < bf.hashCount; i++ {
		bit := bf.probe(lo, hi, i)
		bf.words[bit/64] |= 1 << (bit % 64)
	}
}

// MayContain returns false only when key is definitely absent.
func (bf *BloomFilter) MayContain(key []byte) bool {
	lo, hi := splitHash(key)
	for i := 0; i < bf.hashCount; i++ {
		bit := bf.probe(lo, hi, i)
		if bf.words[bit/64]&(1<<(bit%64)) == 0 {
			return false
		}
	}
	return true
}

// probe derives the i-th bit position from a key's two hash halves via
// Kirsch-Mitzenmacher double hashing (hash(key,i) = lo + i*hi), spending a
// single fnv.New64a() pass per key instead of one hash.Hash per probe.
func (bf *BloomFilter) probe(lo, hi uint64, i int) uint64 {
	if hi%2 == 0 {
		hi++ // force an odd step; probes can still repeat when it shares a factor with numBits
	}
	return (lo + uint64(i)*hi) % bf.numBits
}

func splitHash(key []byte) (lo, hi uint64) {
	h := fnv.New64a()
	_, _ = h.Write(key)
	sum := h.Sum64()
	return sum & 0xFFFFFFFF, sum >> 32
}

// EstimateFalsePositiveRate reports the current estimated false-positive
// rate given itemCount entries added, used for column-family statistics.
func (bf *BloomFilter) EstimateFalsePositiveRate(itemCount int) float64 {
	k := float64(bf.hashCount)
	n := float64(itemCount)
	m := float64(bf.numBits)
	return math.Pow(1.0-math.Exp(-k*n/m), k)
}

// MarshalBinary packs the filter into bytes for SSTable footer storage.
func (bf *BloomFilter) MarshalBinary() []byte {
	byteCount := int((bf.numBits + 7) / 8)
	data := make([]byte, byteCount)
	for i, w := range bf.words {
		for b := 0; b < 8; b++ {
			byteIdx := i*8 + b
			if byteIdx >= byteCount {
				break
			}
			data[byteIdx] = byte(w >> (b * 8))
		}
	}
	return data
}

// UnmarshalBinary restores a filter previously packed with MarshalBinary.
func (bf *BloomFilter) UnmarshalBinary(data []byte) {
	for i := range bf.words {
		var w uint64
		for b := 0; b < 8; b++ {
			byteIdx := i*8 + b
			if byteIdx >= len(data) {
				break
			}
			w |= uint64(data[byteIdx]) << (b * 8)
		}
		bf.words[i] = w
	}
}
