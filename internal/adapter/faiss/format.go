package faiss

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// On-disk layout written by faiss::write_index for flat indexes:
//
//	fourcc     uint32   "IxFI" (inner product) or "IxF2" (L2)
//	d          int32
//	ntotal     int64
//	dummy      int64 x2
//	is_trained uint8
//	metric     int32
//	[metric_arg float32, only when metric > 1]
//	n          uint64   number of float32 values (ntotal * d)
//	data       float32 x n
//
// All fields are little-endian.

var (
	fourccFlatIP = fourcc("IxFI")
	fourccFlatL2 = fourcc("IxF2")
)

const (
	headerDummy int64 = 1 << 20

	// readChunk is how many floats are decoded per read, so a header that
	// overstates the payload fails on EOF instead of allocating up front.
	readChunk = 1 << 16
)

// ErrUnsupportedIndex is returned for index types other than IndexFlatIP/IndexFlatL2.
var ErrUnsupportedIndex = errors.New("unsupported faiss index type")

func fourcc(s string) uint32 {
	return uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16 | uint32(s[3])<<24
}

// Decode parses a serialized flat index.
func Decode(data []byte) (*FlatIndex, error) {
	return read(bytes.NewReader(data), int64(len(data)))
}

// Read parses a serialized flat index from r.
func Read(r io.Reader) (*FlatIndex, error) {
	return read(r, -1)
}

// read parses an index; size is the total input length, or -1 when unknown.
func read(r io.Reader, size int64) (*FlatIndex, error) {
	cr := &countingReader{r: r}
	br := bufio.NewReader(cr)

	var h uint32
	if err := binary.Read(br, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("failed to read index header: %w", err)
	}
	if h != fourccFlatIP && h != fourccFlatL2 {
		var tag [4]byte
		binary.LittleEndian.PutUint32(tag[:], h)
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedIndex, tag[:])
	}

	var hdr struct {
		D         int32
		NTotal    int64
		Dummy1    int64
		Dummy2    int64
		IsTrained uint8
		Metric    int32
	}
	if err := binary.Read(br, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("failed to read index header: %w", err)
	}
	if hdr.Metric > 1 {
		var arg float32
		if err := binary.Read(br, binary.LittleEndian, &arg); err != nil {
			return nil, fmt.Errorf("failed to read metric argument: %w", err)
		}
	}
	if hdr.D <= 0 || hdr.NTotal < 0 {
		return nil, fmt.Errorf("invalid index header: d=%d ntotal=%d", hdr.D, hdr.NTotal)
	}

	metric := Metric(hdr.Metric)
	if metric != MetricInnerProduct && metric != MetricL2 {
		return nil, fmt.Errorf("%w: metric %d", ErrUnsupportedIndex, hdr.Metric)
	}

	var n uint64
	if err := binary.Read(br, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("failed to read vector count: %w", err)
	}
	if uint64(hdr.NTotal) > maxFloats/uint64(hdr.D) {
		return nil, fmt.Errorf("invalid index header: d=%d ntotal=%d is too large", hdr.D, hdr.NTotal)
	}
	if n != uint64(hdr.NTotal)*uint64(hdr.D) {
		return nil, fmt.Errorf("vector data size mismatch: expected %d floats, got %d", hdr.NTotal*int64(hdr.D), n)
	}
	if size >= 0 {
		consumed := cr.n - int64(br.Buffered())
		if remaining := size - consumed; n > uint64(remaining)/4 {
			return nil, fmt.Errorf("vector data truncated: header declares %d floats but only %d bytes remain", n, remaining)
		}
	}

	data, err := readFloats(br, int(n))
	if err != nil {
		return nil, fmt.Errorf("failed to read vector data: %w", err)
	}
	for _, v := range data {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, fmt.Errorf("index contains non-finite values")
		}
	}

	return &FlatIndex{
		dim:    int(hdr.D),
		ntotal: int(hdr.NTotal),
		metric: metric,
		data:   data,
	}, nil
}

// maxFloats caps the vector payload so its byte length fits in an int.
const maxFloats = uint64(math.MaxInt / 4)

func readFloats(r io.Reader, n int) ([]float32, error) {
	data := make([]float32, 0, min(n, readChunk))
	buf := make([]float32, min(n, readChunk))
	for len(data) < n {
		chunk := buf[:min(n-len(data), readChunk)]
		if err := binary.Read(r, binary.LittleEndian, chunk); err != nil {
			return nil, err
		}
		data = append(data, chunk...)
	}
	return data, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Write serializes idx in the faiss flat index format.
func Write(w io.Writer, idx *FlatIndex) error {
	h := fourccFlatIP
	if idx.metric == MetricL2 {
		h = fourccFlatL2
	}

	fields := []any{
		h,
		int32(idx.dim),
		int64(idx.ntotal),
		headerDummy,
		headerDummy,
		uint8(1),
		int32(idx.metric),
		uint64(len(idx.data)),
		idx.data,
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return nil
}

// Encode is Write into a byte slice.
func Encode(idx *FlatIndex) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, idx); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
