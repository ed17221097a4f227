package deflate

// bitWriter packs bits LSB-first into a growing byte buffer. Up to 48 bits
// are staged in a 64-bit accumulator between flushes.
type bitWriter struct {
	buf   []byte
	bits  uint64
	nbits uint
}

func (w *bitWriter) writeBits(b uint32, nb uint) {
	w.bits |= uint64(b) << w.nbits
	w.nbits += nb
	if w.nbits >= 48 {
		w.flush48()
	}
}

func (w *bitWriter) writeCode(c hcode) {
	w.bits |= uint64(c.code) << w.nbits
	w.nbits += uint(c.len)
	if w.nbits >= 48 {
		w.flush48()
	}
}

func (w *bitWriter) flush48() {
	bits := w.bits
	w.bits >>= 48
	w.nbits -= 48
	w.buf = append(w.buf,
		byte(bits),
		byte(bits>>8),
		byte(bits>>16),
		byte(bits>>24),
		byte(bits>>32),
		byte(bits>>40),
	)
}

// alignByte pads the stream with zero bits up to the next byte boundary
// and drains the accumulator. Stored blocks require this alignment.
func (w *bitWriter) alignByte() {
	for w.nbits > 0 {
		w.buf = append(w.buf, byte(w.bits))
		w.bits >>= 8
		if w.nbits > 8 {
			w.nbits -= 8
		} else {
			w.nbits = 0
		}
	}
	w.bits = 0
}

// writeBytes appends raw bytes. The stream must be byte-aligned.
func (w *bitWriter) writeBytes(p []byte) {
	if debugDeflate && w.nbits != 0 {
		panic("writeBytes on unaligned stream")
	}
	w.buf = append(w.buf, p...)
}

// finish drains any remaining bits and returns the buffer.
func (w *bitWriter) finish() []byte {
	w.alignByte()
	return w.buf
}
