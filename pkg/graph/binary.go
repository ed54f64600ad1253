package graph

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"unsafe"
)

const (
	magicBytes = "ELEVGRPH"
	version    = uint32(1)
	maxNodes   = 10_000_000
	maxEdges   = 50_000_000
)

// ErrCorruptGraph is returned when a binary graph file fails magic,
// version, size, or CRC32 validation.
var ErrCorruptGraph = errors.New("corrupt graph")

// fileHeader is the binary header.
type fileHeader struct {
	Magic    [8]byte
	Version  uint32
	NumNodes uint32
	NumEdges uint32
}

// WriteBinary serializes a Graph to a binary file, writing to a temp path
// and renaming atomically on success.
func WriteBinary(path string, g *Graph) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath)
	}()

	crcWriter := crc32Writer{w: f, hash: crc32.NewIEEE()}
	w := &crcWriter

	hdr := fileHeader{
		Version:  version,
		NumNodes: uint32(g.NumNodes()),
		NumEdges: uint32(g.NumEdges()),
	}
	copy(hdr.Magic[:], magicBytes)
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if err := writeInt64Slice(w, g.nodeID); err != nil {
		return fmt.Errorf("write nodeID: %w", err)
	}
	if err := writeFloat64Slice(w, g.x); err != nil {
		return fmt.Errorf("write x: %w", err)
	}
	if err := writeFloat64Slice(w, g.y); err != nil {
		return fmt.Errorf("write y: %w", err)
	}
	if err := writeFloat64Slice(w, g.elev); err != nil {
		return fmt.Errorf("write elev: %w", err)
	}

	if err := writeInt64Slice(w, g.edgeID); err != nil {
		return fmt.Errorf("write edgeID: %w", err)
	}
	if err := writeInt32Slice(w, g.edgeFrom); err != nil {
		return fmt.Errorf("write edgeFrom: %w", err)
	}
	if err := writeInt32Slice(w, g.edgeTo); err != nil {
		return fmt.Errorf("write edgeTo: %w", err)
	}
	if err := writeFloat64Slice(w, g.length); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	if err := writeFloat64Slice(w, g.climb); err != nil {
		return fmt.Errorf("write climb: %w", err)
	}

	if err := writeInt32Slice(w, g.firstOut); err != nil {
		return fmt.Errorf("write firstOut: %w", err)
	}
	if err := writeInt32Slice(w, g.outEdges); err != nil {
		return fmt.Errorf("write outEdges: %w", err)
	}

	checksum := crcWriter.hash.Sum32()
	if err := binary.Write(f, binary.LittleEndian, checksum); err != nil {
		return fmt.Errorf("write CRC32: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// ReadBinary deserializes a Graph from a binary file written by WriteBinary.
func ReadBinary(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	crcReader := crc32Reader{r: f, hash: crc32.NewIEEE()}
	r := &crcReader

	var hdr fileHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrCorruptGraph, err)
	}
	if string(hdr.Magic[:]) != magicBytes {
		return nil, fmt.Errorf("%w: invalid magic bytes %q", ErrCorruptGraph, hdr.Magic)
	}
	if hdr.Version != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptGraph, hdr.Version)
	}
	if hdr.NumNodes > maxNodes {
		return nil, fmt.Errorf("%w: NumNodes %d exceeds limit %d", ErrCorruptGraph, hdr.NumNodes, maxNodes)
	}
	if hdr.NumEdges > maxEdges {
		return nil, fmt.Errorf("%w: NumEdges %d exceeds limit %d", ErrCorruptGraph, hdr.NumEdges, maxEdges)
	}

	g := &Graph{}
	numNodes := int(hdr.NumNodes)
	numEdges := int(hdr.NumEdges)

	if g.nodeID, err = readInt64Slice(r, numNodes); err != nil {
		return nil, fmt.Errorf("%w: read nodeID: %v", ErrCorruptGraph, err)
	}
	if g.x, err = readFloat64Slice(r, numNodes); err != nil {
		return nil, fmt.Errorf("%w: read x: %v", ErrCorruptGraph, err)
	}
	if g.y, err = readFloat64Slice(r, numNodes); err != nil {
		return nil, fmt.Errorf("%w: read y: %v", ErrCorruptGraph, err)
	}
	if g.elev, err = readFloat64Slice(r, numNodes); err != nil {
		return nil, fmt.Errorf("%w: read elev: %v", ErrCorruptGraph, err)
	}

	if g.edgeID, err = readInt64Slice(r, numEdges); err != nil {
		return nil, fmt.Errorf("%w: read edgeID: %v", ErrCorruptGraph, err)
	}
	if g.edgeFrom, err = readInt32Slice(r, numEdges); err != nil {
		return nil, fmt.Errorf("%w: read edgeFrom: %v", ErrCorruptGraph, err)
	}
	if g.edgeTo, err = readInt32Slice(r, numEdges); err != nil {
		return nil, fmt.Errorf("%w: read edgeTo: %v", ErrCorruptGraph, err)
	}
	if g.length, err = readFloat64Slice(r, numEdges); err != nil {
		return nil, fmt.Errorf("%w: read length: %v", ErrCorruptGraph, err)
	}
	if g.climb, err = readFloat64Slice(r, numEdges); err != nil {
		return nil, fmt.Errorf("%w: read climb: %v", ErrCorruptGraph, err)
	}

	if g.firstOut, err = readInt32Slice(r, numNodes+1); err != nil {
		return nil, fmt.Errorf("%w: read firstOut: %v", ErrCorruptGraph, err)
	}
	if g.outEdges, err = readInt32Slice(r, numEdges); err != nil {
		return nil, fmt.Errorf("%w: read outEdges: %v", ErrCorruptGraph, err)
	}

	expectedCRC := crcReader.hash.Sum32()
	var storedCRC uint32
	if err := binary.Read(f, binary.LittleEndian, &storedCRC); err != nil {
		return nil, fmt.Errorf("%w: read CRC32: %v", ErrCorruptGraph, err)
	}
	if storedCRC != expectedCRC {
		return nil, fmt.Errorf("%w: CRC32 mismatch: stored=%08x computed=%08x", ErrCorruptGraph, storedCRC, expectedCRC)
	}

	if err := validateCSR(g.firstOut, g.outEdges, numNodes, numEdges); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptGraph, err)
	}

	g.nodeIndex = make(map[int64]int32, numNodes)
	for i, id := range g.nodeID {
		g.nodeIndex[id] = int32(i)
	}
	g.edgeIndex = make(map[int64]int32, numEdges)
	for i, id := range g.edgeID {
		g.edgeIndex[id] = int32(i)
	}

	return g, nil
}

// validateCSR checks CSR invariants so corrupt offset/size data is caught
// before it can cause an out-of-bounds panic at query time.
func validateCSR(firstOut, outEdges []int32, numNodes, numEdges int) error {
	if len(firstOut) != numNodes+1 {
		return fmt.Errorf("firstOut length %d != numNodes+1 %d", len(firstOut), numNodes+1)
	}
	if int(firstOut[numNodes]) != len(outEdges) {
		return fmt.Errorf("outEdges length %d != firstOut[numNodes] %d", len(outEdges), firstOut[numNodes])
	}
	for i := 1; i <= numNodes; i++ {
		if firstOut[i] < firstOut[i-1] {
			return fmt.Errorf("firstOut not monotonic at %d: %d < %d", i, firstOut[i], firstOut[i-1])
		}
	}
	for i, e := range outEdges {
		if e < 0 || int(e) >= numEdges {
			return fmt.Errorf("outEdges[%d]=%d out of range [0,%d)", i, e, numEdges)
		}
	}
	return nil
}

// Zero-copy I/O helpers using unsafe.Slice.

func writeInt32Slice(w io.Writer, s []int32) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
	_, err := w.Write(b)
	return err
}

func writeInt64Slice(w io.Writer, s []int64) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8)
	_, err := w.Write(b)
	return err
}

func writeFloat64Slice(w io.Writer, s []float64) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8)
	_, err := w.Write(b)
	return err
}

func readInt32Slice(r io.Reader, n int) ([]int32, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]int32, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*4)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func readInt64Slice(r io.Reader, n int) ([]int64, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]int64, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*8)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func readFloat64Slice(r io.Reader, n int) ([]float64, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]float64, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*8)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

// CRC32 wrapping writers/readers.

type crc32Writer struct {
	w    io.Writer
	hash crc32Hash
}

type crc32Hash interface {
	Write([]byte) (int, error)
	Sum32() uint32
}

func (cw *crc32Writer) Write(p []byte) (int, error) {
	cw.hash.Write(p)
	return cw.w.Write(p)
}

type crc32Reader struct {
	r    io.Reader
	hash crc32Hash
}

func (cr *crc32Reader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.hash.Write(p[:n])
	}
	return n, err
}
