package deflate

import (
	"hash/crc32"
	"time"
)

const (
	gzipFTEXT    = 1 << 0
	gzipFHCRC    = 1 << 1
	gzipFEXTRA   = 1 << 2
	gzipFNAME    = 1 << 3
	gzipFCOMMENT = 1 << 4
)

// CompressGzip appends a gzip (RFC 1952) compression of src to dst and
// returns the result. The header carries no file name or extra fields.
func CompressGzip(dst, src []byte, level int) []byte {
	dst = append(dst,
		0x1f, 0x8b, // magic number
		8, // CM = deflate
		0, // FLG
	)
	dst = appendUint32LE(dst, uint32(time.Now().Unix()))
	dst = append(dst,
		0,   // XFL
		255, // OS (unspecified)
	)
	dst = Compress(dst, src, level)
	dst = appendUint32LE(dst, crc32.ChecksumIEEE(src))
	return appendUint32LE(dst, uint32(len(src)))
}

// DecompressGzip appends the decompression of the gzip stream src to dst
// and returns the result. The CRC-32 and length trailer are verified.
func DecompressGzip(dst, src []byte) ([]byte, error) {
	if len(src) < 18 {
		return nil, MalformedInputError(len(src))
	}
	if src[0] != 0x1f || src[1] != 0x8b {
		return nil, MalformedInputError(0)
	}
	if src[2] != 8 {
		return nil, MalformedInputError(2)
	}
	flg := src[3]
	if flg&0xe0 != 0 {
		return nil, MalformedInputError(3)
	}

	off := 10
	if flg&gzipFEXTRA != 0 {
		if off+2 > len(src) {
			return nil, MalformedInputError(off)
		}
		xlen := int(src[off]) | int(src[off+1])<<8
		off += 2 + xlen
	}
	for _, bit := range []byte{gzipFNAME, gzipFCOMMENT} {
		if flg&bit == 0 {
			continue
		}
		for {
			if off >= len(src) {
				return nil, MalformedInputError(off)
			}
			off++
			if src[off-1] == 0 {
				break
			}
		}
	}
	if flg&gzipFHCRC != 0 {
		off += 2
	}
	if off+8 > len(src) {
		return nil, MalformedInputError(off)
	}

	base := len(dst)
	out, err := Decompress(dst, src[off:len(src)-8])
	if err != nil {
		return nil, err
	}
	body := out[base:]

	trailer := src[len(src)-8:]
	wantCRC := uint32(trailer[0]) | uint32(trailer[1])<<8 | uint32(trailer[2])<<16 | uint32(trailer[3])<<24
	if got := crc32.ChecksumIEEE(body); got != wantCRC {
		return nil, ChecksumMismatchError{Want: wantCRC, Got: got}
	}
	wantLen := uint32(trailer[4]) | uint32(trailer[5])<<8 | uint32(trailer[6])<<16 | uint32(trailer[7])<<24
	if uint32(len(body)) != wantLen {
		return nil, MalformedInputError(len(src) - 4)
	}
	return out, nil
}

func appendUint32LE(dst []byte, v uint32) []byte {
	return append(dst, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}
