package deflate

import "math/bits"

const (
	maxCodeLen = 16
	numCodes   = 19 // number of code-length codes

	huffmanChunkBits  = 9
	huffmanNumChunks  = 1 << huffmanChunkBits
	huffmanCountMask  = 15
	huffmanValueShift = 4
)

// huffmanDecoder is a flat table for decoding several bits at a time.
// chunks is indexed by the next huffmanChunkBits bits of input (the codes
// are bit-reversed, so this is a simple mask). Each chunk holds the
// decoded symbol and the number of bits it consumes; codes longer than
// huffmanChunkBits go through one level of indirection into links.
type huffmanDecoder struct {
	min      int // the minimum code length
	chunks   [huffmanNumChunks]uint32
	links    [][]uint32
	linkMask uint32
}

// init builds the decoding table from an array of code lengths.
// It returns false if the lengths do not describe a usable prefix code:
// the Kraft sum must come out exact, except for the degenerate case of a
// single one-bit code.
func (h *huffmanDecoder) init(lengths []int) bool {
	if h.min != 0 {
		*h = huffmanDecoder{}
	}

	var count [maxCodeLen]int
	var min, max int
	for _, n := range lengths {
		if n == 0 {
			continue
		}
		if min == 0 || n < min {
			min = n
		}
		if n > max {
			max = n
		}
		count[n]++
	}

	if max == 0 {
		return true
	}

	code := 0
	var nextcode [maxCodeLen]int
	for i := min; i <= max; i++ {
		code <<= 1
		nextcode[i] = code
		code += count[i]
	}

	if code != 1<<uint(max) && !(code == 1 && max == 1) {
		return false
	}

	h.min = min
	if max > huffmanChunkBits {
		numLinks := 1 << (uint(max) - huffmanChunkBits)
		h.linkMask = uint32(numLinks - 1)

		// Reserve the chunk slots that act as pointers into links.
		link := nextcode[huffmanChunkBits+1] >> 1
		h.links = make([][]uint32, huffmanNumChunks-link)
		for j := uint(link); j < huffmanNumChunks; j++ {
			reverse := int(bits.Reverse16(uint16(j))) >> (16 - huffmanChunkBits)
			off := j - uint(link)
			h.chunks[reverse] = uint32(off<<huffmanValueShift | (huffmanChunkBits + 1))
			h.links[off] = make([]uint32, numLinks)
		}
	}

	for i, n := range lengths {
		if n == 0 {
			continue
		}
		code := nextcode[n]
		nextcode[n]++
		chunk := uint32(i<<huffmanValueShift | n)
		reverse := int(bits.Reverse16(uint16(code))) >> (16 - n)
		if n <= huffmanChunkBits {
			for off := reverse; off < len(h.chunks); off += 1 << uint(n) {
				h.chunks[off] = chunk
			}
		} else {
			value := h.chunks[reverse&(huffmanNumChunks-1)] >> huffmanValueShift
			linktab := h.links[value]
			reverse >>= huffmanChunkBits
			for off := reverse; off < len(linktab); off += 1 << uint(n-huffmanChunkBits) {
				linktab[off] = chunk
			}
		}
	}

	return true
}

// fixedLiteralDecoder is the decode table equivalent to
// fixedLiteralEncoding. Built once; read-only afterwards.
var fixedLiteralDecoder huffmanDecoder

func init() {
	var lengths [288]int
	for i := range lengths {
		lengths[i] = int(fixedLiteralEncoding.codes[i].len)
	}
	fixedLiteralDecoder.init(lengths[:])
}

// decompressor holds the state for a single Decompress call. Nothing in
// it is shared: concurrent calls on different inputs are independent.
type decompressor struct {
	src []byte
	off int    // next unread byte in src
	b   uint32 // bit buffer, LSB first
	nb  uint   // number of valid bits in b

	out  []byte
	base int // length of out before this call; back references stop here

	h1, h2   huffmanDecoder
	lens     [maxNumLit + offsetCodeCount]int
	codebits [numCodes]int
}

// Decompress appends the decompression of the raw DEFLATE stream src to
// dst and returns the result. Input past the final block is ignored.
func Decompress(dst, src []byte) ([]byte, error) {
	f := &decompressor{src: src, out: dst, base: len(dst)}
	if err := f.inflate(); err != nil {
		return nil, err
	}
	return f.out, nil
}

func (f *decompressor) inflate() error {
	for {
		headerOff := f.off
		v, err := f.readBits(3)
		if err != nil {
			return err
		}
		final := v&1 != 0

		switch v >> 1 {
		case 0:
			err = f.storedBlock()
		case 1:
			err = f.huffmanBlock(&fixedLiteralDecoder, nil)
		case 2:
			if err = f.readTables(); err == nil {
				err = f.huffmanBlock(&f.h1, &f.h2)
			}
		default:
			err = UnsupportedBlockTypeError(headerOff)
		}
		if err != nil {
			return err
		}
		if final {
			return nil
		}
	}
}

func (f *decompressor) moreBits() error {
	if f.off >= len(f.src) {
		return MalformedInputError(f.off)
	}
	f.b |= uint32(f.src[f.off]) << f.nb
	f.off++
	f.nb += 8
	return nil
}

func (f *decompressor) readBits(n uint) (uint32, error) {
	for f.nb < n {
		if err := f.moreBits(); err != nil {
			return 0, err
		}
	}
	v := f.b & (1<<n - 1)
	f.b >>= n
	f.nb -= n
	return v, nil
}

// huffSym reads one symbol using the decoder's flat table.
func (f *decompressor) huffSym(h *huffmanDecoder) (int, error) {
	// Since a code is at most maxCodeLen-1 bits and reads happen strictly
	// on demand, nb never exceeds 7 unconsumed bits after a return.
	n := uint(h.min)
	nb, b := f.nb, f.b
	for {
		for nb < n {
			if f.off >= len(f.src) {
				f.b, f.nb = b, nb
				return 0, MalformedInputError(f.off)
			}
			b |= uint32(f.src[f.off]) << (nb & 31)
			f.off++
			nb += 8
		}
		chunk := h.chunks[b&(huffmanNumChunks-1)]
		n = uint(chunk & huffmanCountMask)
		if n > huffmanChunkBits {
			chunk = h.links[chunk>>huffmanValueShift][(b>>huffmanChunkBits)&h.linkMask]
			n = uint(chunk & huffmanCountMask)
		}
		if n <= nb {
			if n == 0 {
				f.b, f.nb = b, nb
				return 0, MalformedInputError(f.off)
			}
			f.b = b >> (n & 31)
			f.nb = nb - n
			return int(chunk >> huffmanValueShift), nil
		}
	}
}

// storedBlock discards the bits up to the next byte boundary, then copies
// a length-prefixed run of raw bytes to the output.
func (f *decompressor) storedBlock() error {
	f.b = 0
	f.nb = 0

	if f.off+4 > len(f.src) {
		return MalformedInputError(f.off)
	}
	n := int(f.src[f.off]) | int(f.src[f.off+1])<<8
	nn := int(f.src[f.off+2]) | int(f.src[f.off+3])<<8
	f.off += 4
	if uint16(nn) != ^uint16(n) {
		return MalformedInputError(f.off)
	}
	if f.off+n > len(f.src) {
		return MalformedInputError(f.off)
	}
	f.out = append(f.out, f.src[f.off:f.off+n]...)
	f.off += n
	return nil
}

// readTables reads the dynamic-block table description and builds the
// literal/length and distance decoders.
func (f *decompressor) readTables() error {
	v, err := f.readBits(5 + 5 + 4)
	if err != nil {
		return err
	}
	nlit := int(v&0x1f) + 257
	ndist := int(v>>5&0x1f) + 1
	nclen := int(v>>10&0xf) + 4
	if nlit > maxNumLit || ndist > offsetCodeCount {
		return MalformedInputError(f.off)
	}

	for i := 0; i < nclen; i++ {
		b, err := f.readBits(3)
		if err != nil {
			return err
		}
		f.codebits[codegenOrder[i]] = int(b)
	}
	for i := nclen; i < len(codegenOrder); i++ {
		f.codebits[codegenOrder[i]] = 0
	}
	if !f.h1.init(f.codebits[:]) {
		return MalformedInputError(f.off)
	}

	for i, n := 0, nlit+ndist; i < n; {
		x, err := f.huffSym(&f.h1)
		if err != nil {
			return err
		}
		if x < 16 {
			f.lens[i] = x
			i++
			continue
		}
		var rep int
		var nb uint
		var b int
		switch x {
		case 16:
			if i == 0 {
				return MalformedInputError(f.off)
			}
			rep, nb, b = 3, 2, f.lens[i-1]
		case 17:
			rep, nb, b = 3, 3, 0
		default: // 18
			rep, nb, b = 11, 7, 0
		}
		extra, err := f.readBits(nb)
		if err != nil {
			return err
		}
		rep += int(extra)
		if i+rep > n {
			return MalformedInputError(f.off)
		}
		for j := 0; j < rep; j++ {
			f.lens[i] = b
			i++
		}
	}

	if !f.h1.init(f.lens[:nlit]) || !f.h2.init(f.lens[nlit:nlit+ndist]) {
		return MalformedInputError(f.off)
	}

	// The end-of-block code has to be readable in one step.
	if f.h1.min < f.lens[endBlockMarker] {
		f.h1.min = f.lens[endBlockMarker]
	}
	return nil
}

// huffmanBlock decodes one fixed or dynamic block. A nil distance decoder
// selects the fixed 5-bit distance codes.
func (f *decompressor) huffmanBlock(hl, hd *huffmanDecoder) error {
	for {
		v, err := f.huffSym(hl)
		if err != nil {
			return err
		}
		if v < 256 {
			f.out = append(f.out, byte(v))
			continue
		}
		if v == 256 {
			return nil
		}
		if v >= maxNumLit {
			return MalformedInputError(f.off)
		}

		li := v - lengthCodesStart
		length := int(lengthBase[li]) + baseMatchLength
		if eb := uint(lengthExtraBits[li]); eb > 0 {
			extra, err := f.readBits(eb)
			if err != nil {
				return err
			}
			length += int(extra)
		}

		var sym int
		if hd == nil {
			raw, err := f.readBits(5)
			if err != nil {
				return err
			}
			sym = int(bits.Reverse8(uint8(raw << 3)))
		} else {
			if sym, err = f.huffSym(hd); err != nil {
				return err
			}
		}
		if sym >= offsetCodeCount {
			return MalformedInputError(f.off)
		}
		dist := int(offsetBase[sym]) + baseMatchOffset
		if eb := uint(offsetExtraBits[sym]); eb > 0 {
			extra, err := f.readBits(eb)
			if err != nil {
				return err
			}
			dist += int(extra)
		}

		if dist > len(f.out)-f.base {
			return MalformedInputError(f.off)
		}

		// Copy from the window. The source may overlap the bytes being
		// written when length exceeds the distance; that is the normal
		// encoding of a run.
		start := len(f.out) - dist
		for k := 0; k < length; k++ {
			f.out = append(f.out, f.out[start+k])
		}
	}
}
