package deflate

// Compression levels.
const (
	NoCompression      = 0
	BestSpeed          = 1
	BestCompression    = 9
	DefaultCompression = 6
)

// Enable extra assertions.
const debugDeflate = false

// Compress appends the raw DEFLATE (RFC 1951) compression of src to dst
// and returns the result. Levels outside [0, 9] are replaced with the
// closest level available. Compression cannot fail: incompressible input
// falls back to stored blocks.
func Compress(dst, src []byte, level int) []byte {
	if level < NoCompression {
		level = NoCompression
	}
	if level > BestCompression {
		level = BestCompression
	}

	e := newBlockEncoder(dst)
	if level == NoCompression {
		storedBlocks(e, src)
		return e.finish()
	}

	matches := newHashChain(level).FindMatches(nil, src)

	var t tokens
	pos := 0
	blockStart := 0
	flush := func() {
		e.writeBlock(&t, src[blockStart:pos], false)
		t.reset()
		blockStart = pos
	}
	for _, m := range matches {
		for j := 0; j < m.Unmatched; j++ {
			t.addLiteral(src[pos])
			pos++
			if t.n == maxBlockTokens {
				flush()
			}
		}
		if m.Length > 0 {
			if debugDeflate && m.Distance > pos {
				panic("match distance exceeds output produced")
			}
			t.addMatch(m.Length, m.Distance)
			pos += m.Length
			if t.n == maxBlockTokens {
				flush()
			}
		}
	}
	e.writeBlock(&t, src[blockStart:], true)
	return e.finish()
}

// storedBlocks writes src as a sequence of stored blocks, 64 KiB less one
// byte at most each. Level 0 takes this path for the whole input.
func storedBlocks(e *blockEncoder, src []byte) {
	if len(src) == 0 {
		e.writeStoredHeader(0, true)
		return
	}
	for len(src) > 0 {
		n := len(src)
		if n > maxStoreBlockSize {
			n = maxStoreBlockSize
		}
		e.writeStoredHeader(n, n == len(src))
		e.w.writeBytes(src[:n])
		src = src[n:]
	}
}
