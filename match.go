// The deflate package implements the DEFLATE compressed data format
// (RFC 1951) and its zlib (RFC 1950) and gzip (RFC 1952) containers.
//
// Compression has two main parts:
//   - Something that looks for repeated sequences of bytes
//   - An encoder for the compressed data format (an entropy coder)
//
// Although these are logically two separate steps, the implementations are
// usually closely tied together. This package keeps them apart, connected by
// an intermediate representation of the repeats that were found.
package deflate

// A Match is the basic unit of LZ77 compression.
type Match struct {
	Unmatched int // the number of unmatched bytes since the previous match
	Length    int // the number of bytes in the matched string; it may be 0 at the end of the input
	Distance  int // how far back in the stream to copy from
}

// A MatchFinder performs the LZ77 stage of compression, looking for matches.
type MatchFinder interface {
	// FindMatches looks for matches in src, appends them to dst, and returns dst.
	FindMatches(dst []Match, src []byte) []Match

	// Reset clears any internal state, preparing the MatchFinder to be used with
	// a new stream.
	Reset()
}
