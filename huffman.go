package deflate

import (
	"math/bits"
	"sort"
)

const maxBitsLimit = 16

// hcode is a huffman code along with its bit length. The code value is
// stored bit-reversed so it can be shifted into the LSB-first bit writer
// without another reversal at write time.
type hcode struct {
	code uint16
	len  uint8
}

// treeNode is a node in the Huffman construction arena. A leaf stores its
// symbol in right with left == -1; an internal node stores the arena
// indexes of its children. The tree only lives inside generate: it is
// discarded as soon as the bit lengths have been extracted.
type treeNode struct {
	freq  uint32
	left  int32
	right int32
}

type huffmanEncoder struct {
	codes []hcode
	nodes []treeNode // construction arena, reused between blocks
}

func newHuffmanEncoder(size int) *huffmanEncoder {
	return &huffmanEncoder{codes: make([]hcode, size)}
}

// generate builds a canonical prefix code for the given frequency
// histogram, assigning no code longer than maxBits. Symbols with zero
// frequency get length zero. If only one symbol has a nonzero frequency,
// an adjacent symbol is assigned a dummy one-bit code as well, so that the
// canonical derivation on the decode side always sees at least two leaves.
func (h *huffmanEncoder) generate(freq []uint16, maxBits int) {
	for i := range h.codes {
		h.codes[i] = hcode{}
	}

	list := h.nodes[:0]
	for i, f := range freq {
		if f != 0 {
			list = append(list, treeNode{freq: uint32(f), left: -1, right: int32(i)})
		}
	}
	n := len(list)
	h.nodes = list

	switch n {
	case 0:
		return
	case 1:
		sym := int(list[0].right)
		h.codes[sym].len = 1
		if sym == 0 {
			h.codes[1].len = 1
		} else {
			h.codes[sym-1].len = 1
		}
		h.assignCodes()
		return
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].freq != list[j].freq {
			return list[i].freq < list[j].freq
		}
		return list[i].right < list[j].right
	})

	// Repeatedly merge the two cheapest active nodes. Both queues are in
	// nondecreasing frequency order, so the cheapest candidates are always
	// at the queue fronts.
	leaf, node := 0, n
	for k := 0; k < n-1; k++ {
		var c [2]int32
		for j := range c {
			if leaf < n && (node >= len(list) || list[leaf].freq <= list[node].freq) {
				c[j] = int32(leaf)
				leaf++
			} else {
				c[j] = int32(node)
				node++
			}
		}
		list = append(list, treeNode{
			freq:  list[c[0]].freq + list[c[1]].freq,
			left:  c[0],
			right: c[1],
		})
	}
	h.nodes = list

	// Count leaves per depth, clamping anything deeper than maxBits.
	var blCount [64]uint16
	overflow := 0
	depths := make([]uint8, n)
	setDepths(list, int32(len(list)-1), depths)
	for _, d := range depths {
		if int(d) > maxBits {
			overflow++
			blCount[maxBits]++
		} else {
			blCount[d]++
		}
	}

	// Repay the bit-length debt left by clamping: move leaves down from the
	// shortest feasible depth until the Kraft inequality holds again.
	for overflow > 0 {
		b := maxBits - 1
		for blCount[b] == 0 {
			b--
		}
		blCount[b]--
		blCount[b+1] += 2
		blCount[maxBits]--
		overflow -= 2
	}

	// Hand the shortest lengths to the most frequent symbols. The leaves
	// are still sorted by frequency, so walking from the back keeps the
	// assignment optimal.
	i := n - 1
	for l := 1; l <= maxBits; l++ {
		for c := blCount[l]; c > 0; c-- {
			h.codes[list[i].right].len = uint8(l)
			i--
		}
	}

	h.assignCodes()
}

// setDepths records the depth of every leaf, indexed by arena position.
// The walk is iterative; pending right children are parked per level.
func setDepths(pool []treeNode, root int32, depth []uint8) {
	var stack [64]int32
	level := 0
	stack[0] = -1
	p := root
	for {
		if pool[p].left >= 0 {
			level++
			stack[level] = pool[p].right
			p = pool[p].left
			continue
		}
		depth[p] = uint8(level)
		for level >= 0 && stack[level] == -1 {
			level--
		}
		if level < 0 {
			return
		}
		p = stack[level]
		stack[level] = -1
	}
}

// assignCodes derives the canonical code values from the assigned lengths:
// for each length, codes are handed out in increasing symbol order. The
// stored values are bit-reversed for the LSB-first writer.
func (h *huffmanEncoder) assignCodes() {
	var blCount [maxBitsLimit]uint16
	for _, c := range h.codes {
		blCount[c.len]++
	}
	blCount[0] = 0

	var nextCode [maxBitsLimit]uint16
	code := uint16(0)
	for l := 1; l < maxBitsLimit; l++ {
		code = (code + blCount[l-1]) << 1
		nextCode[l] = code
	}

	for i, c := range h.codes {
		if c.len == 0 {
			continue
		}
		h.codes[i].code = bits.Reverse16(nextCode[c.len]) >> (16 - c.len)
		nextCode[c.len]++
	}
}

// bitLength returns the cost in bits of coding the histogram with this code.
func (h *huffmanEncoder) bitLength(freq []uint16) int {
	total := 0
	for i, f := range freq {
		if f != 0 {
			total += int(f) * int(h.codes[i].len)
		}
	}
	return total
}

// Fixed code tables from RFC 1951 section 3.2.6.
var (
	fixedLiteralEncoding = fixedEncoding(288, func(i int) uint8 {
		switch {
		case i < 144:
			return 8
		case i < 256:
			return 9
		case i < 280:
			return 7
		default:
			return 8
		}
	})
	fixedOffsetEncoding = fixedEncoding(offsetCodeCount, func(i int) uint8 { return 5 })
)

func fixedEncoding(size int, lens func(int) uint8) *huffmanEncoder {
	h := newHuffmanEncoder(size)
	for i := range h.codes {
		h.codes[i].len = lens(i)
	}
	h.assignCodes()
	return h
}
