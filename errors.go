package deflate

import (
	"errors"
	"fmt"
	"strconv"
)

// MalformedInputError reports a compressed stream that cannot be decoded:
// an undefined Huffman code, a back reference past the start of the
// output, inconsistent stored-block length fields, or a truncated stream.
// The value is the approximate byte offset in the compressed input.
type MalformedInputError int64

func (e MalformedInputError) Error() string {
	return "deflate: malformed input near offset " + strconv.FormatInt(int64(e), 10)
}

// UnsupportedBlockTypeError reports the reserved block type 3, which no
// conforming encoder produces. The value is the byte offset of the block
// header.
type UnsupportedBlockTypeError int64

func (e UnsupportedBlockTypeError) Error() string {
	return "deflate: reserved block type at offset " + strconv.FormatInt(int64(e), 10)
}

// ChecksumMismatchError reports a container whose checksum trailer
// (Adler-32 for zlib, CRC-32 for gzip) does not match the decompressed
// data.
type ChecksumMismatchError struct {
	Want, Got uint32
}

func (e ChecksumMismatchError) Error() string {
	return fmt.Sprintf("deflate: checksum mismatch: stream has %#08x, data has %#08x", e.Want, e.Got)
}

// ErrDictionary is returned when a zlib stream requires a preset
// dictionary, which this package does not support.
var ErrDictionary = errors.New("deflate: preset dictionary not supported")
