package deflate

import (
	"bytes"
	"testing"
)

func TestReservedBlockType(t *testing.T) {
	_, err := Decompress(nil, []byte{0x07})
	if _, ok := err.(UnsupportedBlockTypeError); !ok {
		t.Fatalf("got %v, want UnsupportedBlockTypeError", err)
	}
	if off := int64(err.(UnsupportedBlockTypeError)); off != 0 {
		t.Fatalf("error reports offset %d", off)
	}
}

func TestTruncatedInput(t *testing.T) {
	compressed := Compress(nil, testText(10000), 6)
	for _, n := range []int{0, 1, 2, len(compressed) / 2, len(compressed) - 1} {
		if _, err := Decompress(nil, compressed[:n]); err == nil {
			t.Fatalf("no error decoding %d of %d bytes", n, len(compressed))
		}
	}
}

func TestStoredLengthMismatch(t *testing.T) {
	// Final stored block claiming LEN=1 with a bad ones-complement.
	_, err := Decompress(nil, []byte{0x01, 0x01, 0x00, 0x00, 0x00, 'x'})
	if _, ok := err.(MalformedInputError); !ok {
		t.Fatalf("got %v, want MalformedInputError", err)
	}
}

func TestStoredTruncatedBody(t *testing.T) {
	_, err := Decompress(nil, []byte{0x01, 0x10, 0x00, 0xef, 0xff, 'x'})
	if _, ok := err.(MalformedInputError); !ok {
		t.Fatalf("got %v, want MalformedInputError", err)
	}
}

func TestDistanceBeforeStart(t *testing.T) {
	// A fixed block whose first token is a match can't be valid: there is
	// nothing yet to copy from.
	var w bitWriter
	w.writeBits(1, 1) // final
	w.writeBits(1, 2) // fixed Huffman
	w.writeCode(fixedLiteralEncoding.codes[lengthCodesStart])
	w.writeBits(0, 5) // distance 1
	_, err := Decompress(nil, w.finish())
	if _, ok := err.(MalformedInputError); !ok {
		t.Fatalf("got %v, want MalformedInputError", err)
	}
}

func TestDistanceStopsAtDstBoundary(t *testing.T) {
	// Back references may not reach into bytes that were already in dst
	// before the call.
	var w bitWriter
	w.writeBits(1, 1)
	w.writeBits(1, 2)
	w.writeCode(fixedLiteralEncoding.codes['x'])
	w.writeCode(fixedLiteralEncoding.codes[lengthCodesStart])
	w.writeBits(bitReverse5(1), 5) // distance 2, but only 1 byte produced
	stream := w.finish()

	if _, err := Decompress([]byte("prefix"), stream); err == nil {
		t.Fatal("back reference reached into the dst prefix")
	}
}

func bitReverse5(v uint32) uint32 {
	var r uint32
	for i := 0; i < 5; i++ {
		r = r<<1 | v&1
		v >>= 1
	}
	return r
}

func TestOverlappingCopy(t *testing.T) {
	// length > distance encodes a run; the copy must read bytes it is
	// writing.
	var w bitWriter
	w.writeBits(1, 1)
	w.writeBits(1, 2)
	w.writeCode(fixedLiteralEncoding.codes['a'])
	w.writeCode(fixedLiteralEncoding.codes[lengthCodesStart+7]) // length 10
	w.writeBits(0, 5)                                           // distance 1
	w.writeCode(fixedLiteralEncoding.codes[endBlockMarker])

	out, err := Decompress(nil, w.finish())
	if err != nil {
		t.Fatal(err)
	}
	if want := bytes.Repeat([]byte("a"), 11); !bytes.Equal(out, want) {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestInvalidDynamicHeader(t *testing.T) {
	// HLIT of 30 claims 287 literal/length codes.
	var w bitWriter
	w.writeBits(1, 1)  // final
	w.writeBits(2, 2)  // dynamic
	w.writeBits(30, 5) // HLIT
	w.writeBits(0, 5)  // HDIST
	w.writeBits(0, 4)  // HCLEN
	_, err := Decompress(nil, w.finish())
	if _, ok := err.(MalformedInputError); !ok {
		t.Fatalf("got %v, want MalformedInputError", err)
	}
}

func TestGarbageAfterFinalBlock(t *testing.T) {
	data := testText(1000)
	compressed := Compress(nil, data, 6)
	compressed = append(compressed, "trailing junk"...)
	out, err := Decompress(nil, compressed)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, data) {
		t.Fatal("decompressed output doesn't match")
	}
}
