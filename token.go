package deflate

const (
	// 0-255 literals, 256 end of block, 257-285 length codes.
	maxNumLit        = 286
	endBlockMarker   = 256
	lengthCodesStart = 257

	// The largest distance code.
	offsetCodeCount = 30

	// The number of codegen (code length) codes.
	codegenCodeCount = 19

	// A block is flushed once it holds this many tokens. The cap bounds the
	// cost of rebuilding the Huffman tables and keeps the per-block table
	// overhead amortized.
	maxBlockTokens = 14000

	// 2 bits: type, 30 bits: payload.
	matchType = 1 << 30

	// A match token holds (length - baseMatchLength) << lengthShift
	// in the upper bits and (offset - baseMatchOffset) in the lower bits.
	lengthShift = 22
	offsetMask  = 1<<lengthShift - 1

	baseMatchLength = 3   // The smallest match length per the RFC
	maxMatchLength  = 258 // The largest match length
	baseMatchOffset = 1   // The smallest match offset
	maxMatchOffset  = 1 << 15
)

// The number of extra bits needed by length code X - lengthCodesStart.
var lengthExtraBits = [29]uint8{
	/* 257 */ 0, 0, 0,
	/* 260 */ 0, 0, 0, 0, 0, 1, 1, 1, 1, 2,
	/* 270 */ 2, 2, 2, 3, 3, 3, 3, 4, 4, 4,
	/* 280 */ 4, 5, 5, 5, 5, 0,
}

// The length indicated by length code X - lengthCodesStart,
// minus baseMatchLength.
var lengthBase = [29]uint8{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 10,
	12, 14, 16, 20, 24, 28, 32, 40, 48, 56,
	64, 80, 96, 112, 128, 160, 192, 224, 255,
}

// Distance code extra bits.
var offsetExtraBits = [30]uint8{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3,
	4, 4, 5, 5, 6, 6, 7, 7, 8, 8,
	9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

// The smallest distance (minus baseMatchOffset) covered by each distance code.
var offsetBase = [30]uint32{
	0x000000, 0x000001, 0x000002, 0x000003, 0x000004,
	0x000006, 0x000008, 0x00000c, 0x000010, 0x000018,
	0x000020, 0x000030, 0x000040, 0x000060, 0x000080,
	0x0000c0, 0x000100, 0x000180, 0x000200, 0x000300,
	0x000400, 0x000600, 0x000800, 0x000c00, 0x001000,
	0x001800, 0x002000, 0x003000, 0x004000, 0x006000,
}

// The odd order in which the codegen code sizes are written.
var codegenOrder = [codegenCodeCount]uint8{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// lengthCodes maps (length - baseMatchLength) to a length code
// relative to lengthCodesStart.
var lengthCodes [256]uint8

// offsetCodes maps a short offset (minus baseMatchOffset) to a distance code.
// Offsets of 256 and above are mapped through offsetCodes[off>>7] + 14.
var offsetCodes [256]uint8

func init() {
	for code := 0; code < 28; code++ {
		for i := int(lengthBase[code]); i < int(lengthBase[code+1]); i++ {
			lengthCodes[i] = uint8(code)
		}
	}
	// Code 28 means length 258 exactly, with no extra bits.
	lengthCodes[maxMatchLength-baseMatchLength] = 28

	// Distance codes 0-15 cover offsets below 256; larger offsets reuse the
	// same table shifted by 7 bits (see offsetCode).
	for code := 0; code < 16; code++ {
		next := 256
		if code < 15 {
			next = int(offsetBase[code+1])
		}
		for i := int(offsetBase[code]); i < next; i++ {
			offsetCodes[i] = uint8(code)
		}
	}
}

// lengthCode returns the length code for a match length in
// [baseMatchLength, maxMatchLength].
func lengthCode(length int) int {
	return lengthCodesStart + int(lengthCodes[length-baseMatchLength])
}

// offsetCode returns the distance code for a match offset in
// [baseMatchOffset, maxMatchOffset].
func offsetCode(offset int) int {
	off := offset - baseMatchOffset
	if off < 256 {
		return int(offsetCodes[off])
	}
	return int(offsetCodes[off>>7]) + 14
}

// A token is either a literal byte, or a (length, distance) match.
type token uint32

func literalToken(literal byte) token {
	return token(literal)
}

func matchToken(length, offset int) token {
	return token(matchType | (length-baseMatchLength)<<lengthShift | (offset - baseMatchOffset))
}

func (t token) literal() byte { return byte(t) }

func (t token) length() int { return int(t>>lengthShift)&0xff + baseMatchLength }

func (t token) offset() int { return int(t&offsetMask) + baseMatchOffset }

// tokens accumulates the tokens for one block, together with the running
// frequency histograms the block encoder needs. The histograms are owned
// per block and reset after each block is written.
type tokens struct {
	tokens [maxBlockTokens + 1]token
	n      int

	litHist [maxNumLit]uint16
	offHist [offsetCodeCount]uint16
}

func (t *tokens) reset() {
	if t.n == 0 {
		return
	}
	t.n = 0
	for i := range t.litHist {
		t.litHist[i] = 0
	}
	for i := range t.offHist {
		t.offHist[i] = 0
	}
}

func (t *tokens) addLiteral(b byte) {
	t.tokens[t.n] = literalToken(b)
	t.n++
	t.litHist[b]++
}

func (t *tokens) addMatch(length, offset int) {
	if debugDeflate {
		if length < baseMatchLength || length > maxMatchLength {
			panic("invalid match length")
		}
		if offset < baseMatchOffset || offset > maxMatchOffset {
			panic("invalid match offset")
		}
	}
	t.tokens[t.n] = matchToken(length, offset)
	t.n++
	t.litHist[lengthCode(length)]++
	t.offHist[offsetCode(offset)]++
}

func (t *tokens) addEOB() {
	t.tokens[t.n] = token(endBlockMarker)
	t.n++
	t.litHist[endBlockMarker]++
}
