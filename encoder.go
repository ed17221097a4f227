package deflate

const (
	maxStoreBlockSize = 65535

	badCode = 255
)

// blockEncoder serializes one DEFLATE block at a time, choosing between
// the stored, fixed-Huffman and dynamic-Huffman encodings by estimated
// bit cost. All scratch state lives here, scoped to a single Compress
// call, so independent calls never share tables.
type blockEncoder struct {
	w bitWriter

	literalFreq [maxNumLit]uint16
	offsetFreq  [offsetCodeCount]uint16
	codegenFreq [codegenCodeCount]uint16

	// codegen holds the run-length encoded code lengths for the literal
	// and distance tables, terminated by badCode. It needs one extra slot
	// for the terminator.
	codegen [maxNumLit + offsetCodeCount + 1]uint8

	literalEncoding *huffmanEncoder
	offsetEncoding  *huffmanEncoder
	codegenEncoding *huffmanEncoder
}

func newBlockEncoder(dst []byte) *blockEncoder {
	return &blockEncoder{
		w:               bitWriter{buf: dst},
		literalEncoding: newHuffmanEncoder(maxNumLit),
		offsetEncoding:  newHuffmanEncoder(offsetCodeCount),
		codegenEncoding: newHuffmanEncoder(codegenCodeCount),
	}
}

func (e *blockEncoder) finish() []byte {
	return e.w.finish()
}

// writeBlock writes the accumulated tokens as a single block with the
// cheapest of the three encodings. input is the span of source bytes the
// tokens were produced from; it is needed for the stored fallback.
func (e *blockEncoder) writeBlock(t *tokens, input []byte, eof bool) {
	t.addEOB()

	copy(e.literalFreq[:], t.litHist[:])
	copy(e.offsetFreq[:], t.offHist[:])
	if e.numOffsets() == 0 {
		// No matches in this block. Count one distance code anyway so the
		// distance tree stays encodable.
		e.offsetFreq[0] = 1
	}

	e.literalEncoding.generate(e.literalFreq[:], 15)
	e.offsetEncoding.generate(e.offsetFreq[:], 15)

	// A dummy code length may have been assigned next to a lone symbol, so
	// the table sizes come from the assigned lengths, not the histograms.
	numLiterals := maxNumLit
	for numLiterals > lengthCodesStart && e.literalEncoding.codes[numLiterals-1].len == 0 {
		numLiterals--
	}
	numOffsets := offsetCodeCount
	for numOffsets > 1 && e.offsetEncoding.codes[numOffsets-1].len == 0 {
		numOffsets--
	}

	extraBits := e.extraBitSize()
	fixedSize := 3 + fixedLiteralEncoding.bitLength(e.literalFreq[:]) +
		fixedOffsetEncoding.bitLength(e.offsetFreq[:]) + extraBits

	e.generateCodegen(numLiterals, numOffsets)
	e.codegenEncoding.generate(e.codegenFreq[:], 7)
	dynamicSize, numCodegens := e.dynamicSize(extraBits)

	size := fixedSize
	dynamic := false
	if dynamicSize < fixedSize {
		size = dynamicSize
		dynamic = true
	}

	if storedSize := (len(input) + 5) * 8; len(input) <= maxStoreBlockSize && storedSize < size {
		e.writeStoredHeader(len(input), eof)
		e.w.writeBytes(input)
		return
	}

	if dynamic {
		e.writeDynamicHeader(numLiterals, numOffsets, numCodegens, eof)
		e.writeTokens(t.tokens[:t.n], e.literalEncoding.codes, e.offsetEncoding.codes)
	} else {
		e.writeFixedHeader(eof)
		e.writeTokens(t.tokens[:t.n], fixedLiteralEncoding.codes, fixedOffsetEncoding.codes)
	}
}

func (e *blockEncoder) numOffsets() int {
	n := offsetCodeCount
	for n > 0 && e.offsetFreq[n-1] == 0 {
		n--
	}
	return n
}

// extraBitSize returns the number of bits the tokens will spend on
// length and distance extra bits, independent of the code tables.
func (e *blockEncoder) extraBitSize() int {
	total := 0
	for i, f := range e.literalFreq[lengthCodesStart:] {
		total += int(f) * int(lengthExtraBits[i])
	}
	for i, f := range e.offsetFreq {
		total += int(f) * int(offsetExtraBits[i])
	}
	return total
}

// generateCodegen run-length encodes the concatenated literal and distance
// code lengths into e.codegen, using codes 16 (repeat previous 3-6 times),
// 17 (repeat zero 3-10 times) and 18 (repeat zero 11-138 times), and
// fills codegenFreq. RFC 1951 section 3.2.7.
func (e *blockEncoder) generateCodegen(numLiterals, numOffsets int) {
	for i := range e.codegenFreq {
		e.codegenFreq[i] = 0
	}

	codegen := e.codegen[:]
	cgnl := codegen[:numLiterals]
	for i := range cgnl {
		cgnl[i] = e.literalEncoding.codes[i].len
	}
	cgnl = codegen[numLiterals : numLiterals+numOffsets]
	for i := range cgnl {
		cgnl[i] = e.offsetEncoding.codes[i].len
	}
	codegen[numLiterals+numOffsets] = badCode

	size := codegen[0]
	count := 1
	outIndex := 0
	for inIndex := 1; size != badCode; inIndex++ {
		nextSize := codegen[inIndex]
		if nextSize == size {
			count++
			continue
		}
		if size != 0 {
			codegen[outIndex] = size
			outIndex++
			e.codegenFreq[size]++
			count--
			for count >= 3 {
				n := 6
				if n > count {
					n = count
				}
				codegen[outIndex] = 16
				codegen[outIndex+1] = uint8(n - 3)
				outIndex += 2
				e.codegenFreq[16]++
				count -= n
			}
		} else {
			for count >= 11 {
				n := 138
				if n > count {
					n = count
				}
				codegen[outIndex] = 18
				codegen[outIndex+1] = uint8(n - 11)
				outIndex += 2
				e.codegenFreq[18]++
				count -= n
			}
			if count >= 3 {
				codegen[outIndex] = 17
				codegen[outIndex+1] = uint8(count - 3)
				outIndex += 2
				e.codegenFreq[17]++
				count = 0
			}
		}
		count--
		for ; count >= 0; count-- {
			codegen[outIndex] = size
			outIndex++
			e.codegenFreq[size]++
		}
		size = nextSize
		count = 1
	}
	codegen[outIndex] = badCode
}

// dynamicSize returns the bit cost of the dynamic encoding, including the
// table description, and the number of codegen lengths to transmit.
func (e *blockEncoder) dynamicSize(extraBits int) (size, numCodegens int) {
	// Trim by assigned length, not frequency: a dummy length placed next to
	// a lone codegen symbol still has to be transmitted.
	numCodegens = len(e.codegenFreq)
	for numCodegens > 4 && e.codegenEncoding.codes[codegenOrder[numCodegens-1]].len == 0 {
		numCodegens--
	}
	header := 3 + 5 + 5 + 4 + 3*numCodegens +
		e.codegenEncoding.bitLength(e.codegenFreq[:]) +
		int(e.codegenFreq[16])*2 +
		int(e.codegenFreq[17])*3 +
		int(e.codegenFreq[18])*7
	size = header +
		e.literalEncoding.bitLength(e.literalFreq[:]) +
		e.offsetEncoding.bitLength(e.offsetFreq[:]) +
		extraBits
	return size, numCodegens
}

// writeStoredHeader byte-aligns the stream and writes the stored-block
// header. A zero-length final block is written as a fixed-Huffman end of
// block instead: 10 bits rather than 5 bytes.
func (e *blockEncoder) writeStoredHeader(length int, eof bool) {
	if length == 0 && eof {
		e.writeFixedHeader(true)
		e.w.writeCode(fixedLiteralEncoding.codes[endBlockMarker])
		return
	}
	var flag uint32
	if eof {
		flag = 1
	}
	e.w.writeBits(flag, 3)
	e.w.alignByte()
	e.w.writeBits(uint32(length), 16)
	e.w.writeBits(uint32(^uint16(length)), 16)
	e.w.alignByte()
}

func (e *blockEncoder) writeFixedHeader(eof bool) {
	var value uint32 = 2
	if eof {
		value = 3
	}
	e.w.writeBits(value, 3)
}

// writeDynamicHeader writes the 3-bit block header followed by the
// HLIT/HDIST/HCLEN counts and the run-length coded code length tables.
func (e *blockEncoder) writeDynamicHeader(numLiterals, numOffsets, numCodegens int, eof bool) {
	var firstBits uint32 = 4
	if eof {
		firstBits = 5
	}
	e.w.writeBits(firstBits, 3)
	e.w.writeBits(uint32(numLiterals-257), 5)
	e.w.writeBits(uint32(numOffsets-1), 5)
	e.w.writeBits(uint32(numCodegens-4), 4)

	for i := 0; i < numCodegens; i++ {
		e.w.writeBits(uint32(e.codegenEncoding.codes[codegenOrder[i]].len), 3)
	}

	i := 0
	for {
		codeWord := e.codegen[i]
		i++
		if codeWord == badCode {
			break
		}
		e.w.writeCode(e.codegenEncoding.codes[codeWord])
		switch codeWord {
		case 16:
			e.w.writeBits(uint32(e.codegen[i]), 2)
			i++
		case 17:
			e.w.writeBits(uint32(e.codegen[i]), 3)
			i++
		case 18:
			e.w.writeBits(uint32(e.codegen[i]), 7)
			i++
		}
	}
}

// writeTokens writes the token stream, including the end-of-block marker,
// with the supplied literal/length and distance codes.
func (e *blockEncoder) writeTokens(toks []token, leCodes, oeCodes []hcode) {
	for _, t := range toks {
		if t < matchType {
			e.w.writeCode(leCodes[t])
			continue
		}

		length := t.length()
		lc := lengthCode(length) - lengthCodesStart
		e.w.writeCode(leCodes[lengthCodesStart+lc])
		if eb := lengthExtraBits[lc]; eb > 0 {
			e.w.writeBits(uint32(length-baseMatchLength)-uint32(lengthBase[lc]), uint(eb))
		}

		offset := t.offset()
		oc := offsetCode(offset)
		e.w.writeCode(oeCodes[oc])
		if eb := offsetExtraBits[oc]; eb > 0 {
			e.w.writeBits(uint32(offset-baseMatchOffset)-offsetBase[oc], uint(eb))
		}
	}
}
