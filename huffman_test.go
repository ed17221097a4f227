package deflate

import (
	"math/rand"
	"testing"
)

// kraftSum returns the code-space usage scaled by 1<<maxBits. A usable
// prefix code uses exactly the whole space.
func kraftSum(codes []hcode, maxBits int) uint64 {
	var sum uint64
	for _, c := range codes {
		if c.len > 0 {
			sum += 1 << (uint(maxBits) - uint(c.len))
		}
	}
	return sum
}

func checkCode(t *testing.T, freq []uint16, maxBits int) *huffmanEncoder {
	t.Helper()
	enc := newHuffmanEncoder(len(freq))
	enc.generate(freq, maxBits)

	used := 0
	for i, c := range enc.codes {
		if int(c.len) > maxBits {
			t.Fatalf("symbol %d: code length %d exceeds %d", i, c.len, maxBits)
		}
		if freq[i] > 0 && c.len == 0 {
			t.Fatalf("symbol %d: frequency %d but no code", i, freq[i])
		}
		if c.len > 0 {
			used++
		}
	}
	if used == 0 {
		return enc
	}
	if sum := kraftSum(enc.codes, maxBits); sum != 1<<uint(maxBits) {
		t.Fatalf("Kraft sum %d of %d", sum, 1<<uint(maxBits))
	}
	return enc
}

func TestHuffmanUniform(t *testing.T) {
	freq := make([]uint16, maxNumLit)
	for i := range freq {
		freq[i] = 10
	}
	checkCode(t, freq, 15)
}

func TestHuffmanRandom(t *testing.T) {
	r := rand.New(rand.NewSource(9))
	for trial := 0; trial < 50; trial++ {
		freq := make([]uint16, maxNumLit)
		n := r.Intn(len(freq)) + 1
		for i := 0; i < n; i++ {
			freq[r.Intn(len(freq))] = uint16(r.Intn(1 << 14))
		}
		freq[endBlockMarker] = 1
		checkCode(t, freq, 15)
	}
}

// Fibonacci-like frequencies build the deepest possible unconstrained
// tree, so they exercise the length-limiting repair.
func TestHuffmanLengthLimiting(t *testing.T) {
	freq := make([]uint16, 32)
	a, b := uint16(1), uint16(1)
	for i := range freq {
		freq[i] = a
		a, b = b, a+b
		if a < b { // stop before overflow
			continue
		}
		a, b = 1, 1
	}
	enc := checkCode(t, freq, 15)

	deepest := 0
	for _, c := range enc.codes {
		if int(c.len) > deepest {
			deepest = int(c.len)
		}
	}
	if deepest != 15 {
		t.Fatalf("deepest code is %d bits, want the 15-bit limit hit", deepest)
	}

	// The same skew must also fit the 7-bit codegen alphabet.
	checkCode(t, freq[:codegenCodeCount], 7)
}

func TestHuffmanSingleSymbol(t *testing.T) {
	freq := make([]uint16, 30)
	freq[5] = 100
	enc := checkCode(t, freq, 15)
	if enc.codes[5].len != 1 {
		t.Fatalf("lone symbol got a %d-bit code", enc.codes[5].len)
	}
	if enc.codes[4].len != 1 {
		t.Fatal("no companion code for the lone symbol")
	}
}

func TestHuffmanEmpty(t *testing.T) {
	freq := make([]uint16, 30)
	checkCode(t, freq, 15)
}

func TestFixedEncodings(t *testing.T) {
	if sum := kraftSum(fixedLiteralEncoding.codes, 15); sum != 1<<15 {
		t.Fatalf("fixed literal Kraft sum %d", sum)
	}
	for i, c := range fixedOffsetEncoding.codes {
		if c.len != 5 {
			t.Fatalf("offset %d has %d-bit fixed code", i, c.len)
		}
	}
	if got := fixedLiteralEncoding.codes[0].len; got != 8 {
		t.Fatalf("literal 0 has %d-bit fixed code", got)
	}
	if got := fixedLiteralEncoding.codes[endBlockMarker].len; got != 7 {
		t.Fatalf("end-of-block has %d-bit fixed code", got)
	}
	if got := fixedLiteralEncoding.codes[280].len; got != 8 {
		t.Fatalf("symbol 280 has %d-bit fixed code", got)
	}
}
