package deflate

import (
	"encoding/binary"
	"math/bits"
)

const (
	logWindowSize = 15
	windowSize    = 1 << logWindowSize
	windowMask    = windowSize - 1

	minMatchLength = baseMatchLength

	hashBits = 15
	hashSize = 1 << hashBits

	// A 3-byte match is only worth emitting if it does not reach too far
	// back: the distance extra bits would cost more than the literals.
	tooFar = 4096
)

// compressionLevel parametrizes the search effort of the hash chain
// matcher. Higher levels walk longer chains and accept later cutoffs,
// trading CPU time for ratio. Level 0 bypasses matching entirely.
type compressionLevel struct {
	good, lazy, nice, chain int
}

var levels = [10]compressionLevel{
	{}, // 0: stored blocks only
	{4, 4, 8, 4},
	{4, 5, 16, 8},
	{4, 6, 32, 32},
	{4, 4, 16, 16},
	{8, 16, 32, 32},
	{8, 16, 128, 128},
	{8, 32, 128, 256},
	{32, 128, 258, 1024},
	{32, 258, 258, 4096},
}

// hashChain is a MatchFinder using hash chains: head[h] holds the most
// recent position whose 3-byte hash is h, and prev[pos&windowMask] links
// each position to the previous one sharing its hash. Positions are
// stored +1 so that zero means an empty slot. The tables belong to a
// single compression run; concurrent runs get their own.
type hashChain struct {
	compressionLevel
	head [hashSize]uint32
	prev [windowSize]uint32
}

func newHashChain(level int) *hashChain {
	return &hashChain{compressionLevel: levels[level]}
}

func (q *hashChain) Reset() {
	q.head = [hashSize]uint32{}
	q.prev = [windowSize]uint32{}
}

const prime3bytes = 506832829

func hash3(src []byte, i int) uint32 {
	u := uint32(src[i]) | uint32(src[i+1])<<8 | uint32(src[i+2])<<16
	return (u * prime3bytes) >> (32 - hashBits)
}

// FindMatches looks for matches in src, appends them to dst, and returns
// dst. Matching is lazy: a match found at one position is held back for
// one byte, and dropped if the next position offers a longer one.
func (q *hashChain) FindMatches(dst []Match, src []byte) []Match {
	if len(src) < minMatchLength {
		if len(src) > 0 {
			dst = append(dst, Match{Unmatched: len(src)})
		}
		return dst
	}

	maxInsertIndex := len(src) - (minMatchLength - 1)

	unmatched := 0
	prevLength := 0
	prevOffset := 0
	byteAvailable := false

	i := 0
	for i < len(src) {
		chainHead := -1
		if i < maxInsertIndex {
			h := hash3(src, i)
			chainHead = int(q.head[h]) - 1
			q.prev[i&windowMask] = q.head[h]
			q.head[h] = uint32(i + 1)
		}

		length, offset := 0, 0
		if chainHead >= 0 && prevLength < q.lazy && len(src)-i > prevLength {
			length, offset = q.findMatch(src, i, chainHead, prevLength)
		}

		if prevLength >= minMatchLength && length <= prevLength {
			// The match that started at i-1 was not beaten. Emit it.
			dst = append(dst, Match{
				Unmatched: unmatched,
				Length:    prevLength,
				Distance:  prevOffset,
			})
			unmatched = 0

			// Insert every position covered by the match into the chains;
			// i-1 and i are already in.
			end := i - 1 + prevLength
			for j := i + 1; j < end && j < maxInsertIndex; j++ {
				h := hash3(src, j)
				q.prev[j&windowMask] = q.head[h]
				q.head[h] = uint32(j + 1)
			}
			i = end
			byteAvailable = false
			prevLength = 0
		} else {
			if byteAvailable {
				unmatched++
			}
			prevLength = length
			prevOffset = offset
			byteAvailable = true
			i++
		}
	}
	if byteAvailable {
		unmatched++
	}
	if unmatched > 0 {
		dst = append(dst, Match{Unmatched: unmatched})
	}
	return dst
}

// findMatch walks the hash chain at pos looking for a match longer than
// prevLength. At most chain entries are examined, a quarter of that once
// a good-length match is already in hand, and the walk stops early at a
// nice-length match.
func (q *hashChain) findMatch(src []byte, pos, chainHead, prevLength int) (length, offset int) {
	lookahead := len(src) - pos
	if lookahead > maxMatchLength {
		lookahead = maxMatchLength
	}

	nice := q.nice
	if nice > lookahead {
		nice = lookahead
	}

	tries := q.chain
	best := prevLength
	if best < minMatchLength-1 {
		best = minMatchLength - 1
	}
	if best >= q.good {
		tries >>= 2
	}

	wPos := src[pos : pos+lookahead]
	wEnd := src[pos+best]

	i := chainHead
	for tries > 0 {
		if pos-i > maxMatchOffset {
			break
		}
		if src[i+best] == wEnd {
			n := matchLen(src[i:i+lookahead], wPos)
			if n > best && (n > minMatchLength || pos-i <= tooFar) {
				best = n
				length = n
				offset = pos - i
				if n >= nice {
					break
				}
				wEnd = src[pos+n]
			}
		}
		tries--
		if pos-i >= windowSize {
			// The chain link for i has been overwritten by a newer position.
			break
		}
		next := int(q.prev[i&windowMask]) - 1
		if next < 0 || next >= i {
			break
		}
		i = next
	}
	return length, offset
}

// matchLen returns the length of the common prefix of a and b.
// The slices must have the same length.
func matchLen(a, b []byte) int {
	var checked int
	for len(a) >= 8 {
		if diff := binary.LittleEndian.Uint64(a) ^ binary.LittleEndian.Uint64(b); diff != 0 {
			return checked + bits.TrailingZeros64(diff)>>3
		}
		checked += 8
		a = a[8:]
		b = b[8:]
	}
	for i := range a {
		if a[i] != b[i] {
			return checked + i
		}
	}
	return checked + len(a)
}
