package deflate

import "hash/adler32"

// CompressZlib appends a zlib-wrapped (RFC 1950) compression of src to
// dst and returns the result.
func CompressZlib(dst, src []byte, level int) []byte {
	const cmf = 0x78 // deflate, 32K window
	var flevel uint8
	switch {
	case level < 2:
		flevel = 0
	case level < 6:
		flevel = 1
	case level == 6:
		flevel = 2
	default:
		flevel = 3
	}
	flg := flevel << 6
	flg += 31 - (uint8(cmf<<8%31)+flg)%31

	dst = append(dst, cmf, flg)
	dst = Compress(dst, src, level)
	return appendUint32(dst, adler32.Checksum(src))
}

// DecompressZlib appends the decompression of the zlib stream src to dst
// and returns the result. The Adler-32 trailer is verified against the
// decompressed bytes.
func DecompressZlib(dst, src []byte) ([]byte, error) {
	if len(src) < 8 {
		return nil, MalformedInputError(len(src))
	}
	cmf, flg := src[0], src[1]
	if cmf&0x0f != 8 || cmf>>4 > 7 {
		return nil, MalformedInputError(0)
	}
	if (uint32(cmf)<<8|uint32(flg))%31 != 0 {
		return nil, MalformedInputError(1)
	}
	if flg&0x20 != 0 {
		return nil, ErrDictionary
	}

	base := len(dst)
	out, err := Decompress(dst, src[2:len(src)-4])
	if err != nil {
		return nil, err
	}

	trailer := src[len(src)-4:]
	want := uint32(trailer[0])<<24 | uint32(trailer[1])<<16 | uint32(trailer[2])<<8 | uint32(trailer[3])
	if got := adler32.Checksum(out[base:]); got != want {
		return nil, ChecksumMismatchError{Want: want, Got: got}
	}
	return out, nil
}

func appendUint32(b []byte, v uint32) []byte {
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
