package deflate

import (
	"bytes"
	"testing"

	"github.com/golang/snappy"
	kflate "github.com/klauspost/compress/flate"
)

func benchmarkCompress(b *testing.B, level int) {
	data := testText(1 << 20)
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	compressed := Compress(nil, data, level)
	b.ReportMetric(float64(len(data))/float64(len(compressed)), "ratio")
	for i := 0; i < b.N; i++ {
		Compress(compressed[:0], data, level)
	}
}

func BenchmarkCompressLevel1(b *testing.B) { benchmarkCompress(b, 1) }
func BenchmarkCompressLevel6(b *testing.B) { benchmarkCompress(b, 6) }
func BenchmarkCompressLevel9(b *testing.B) { benchmarkCompress(b, 9) }

func BenchmarkDecompress(b *testing.B) {
	data := testText(1 << 20)
	compressed := Compress(nil, data, 6)
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	var out []byte
	for i := 0; i < b.N; i++ {
		var err error
		out, err = Decompress(out[:0], compressed)
		if err != nil {
			b.Fatal(err)
		}
	}
}

// Reference codecs on the same input, for comparison.

func BenchmarkKlauspostFlate(b *testing.B) {
	data := testText(1 << 20)
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	buf := new(bytes.Buffer)
	w, err := kflate.NewWriter(buf, 6)
	if err != nil {
		b.Fatal(err)
	}
	w.Write(data)
	w.Close()
	b.ReportMetric(float64(len(data))/float64(buf.Len()), "ratio")
	for i := 0; i < b.N; i++ {
		buf.Reset()
		w.Reset(buf)
		w.Write(data)
		w.Close()
	}
}

func BenchmarkSnappy(b *testing.B) {
	data := testText(1 << 20)
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	buf := new(bytes.Buffer)
	w := snappy.NewBufferedWriter(buf)
	w.Write(data)
	w.Close()
	b.ReportMetric(float64(len(data))/float64(buf.Len()), "ratio")
	for i := 0; i < b.N; i++ {
		buf.Reset()
		w.Reset(buf)
		w.Write(data)
		w.Close()
	}
}

// TestSnappyReference pins the comparison corpus: snappy and this
// package must both round-trip it.
func TestSnappyReference(t *testing.T) {
	data := testText(1 << 18)

	snappyOut, err := snappy.Decode(nil, snappy.Encode(nil, data))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(snappyOut, data) {
		t.Fatal("snappy round trip failed")
	}

	ours, err := Decompress(nil, Compress(nil, data, 6))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(ours, snappyOut) {
		t.Fatal("codecs disagree on the corpus")
	}
}
