package ntfs

import (
	"io"
	"testing"
)

// memImage is a trivial image.Reader backed by an in-memory byte slice,
// used to exercise ClusterStream without touching the filesystem.
type memImage struct {
	data []byte
}

func (m *memImage) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
func (m *memImage) Size() (int64, error) { return int64(len(m.data)), nil }
func (m *memImage) Close() error         { return nil }

func TestClusterStream_ContiguousRead(t *testing.T) {
	const clusterSize = 512
	img := &memImage{data: make([]byte, clusterSize*4)}
	for i := range img.data {
		img.data[i] = byte(i % 256)
	}

	attr := &Attribute{
		Runlist:         Runlist{{VCNStart: 0, Length: 4, LCN: 0}},
		DataSize:        clusterSize * 4,
		InitializedSize: clusterSize * 4,
	}
	s := newClusterStream(img, attr, clusterSize)

	buf := make([]byte, 100)
	n, err := s.ReadAt(buf, 1000)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if n != 100 {
		t.Fatalf("n = %d, want 100", n)
	}
	for i, b := range buf {
		want := byte((1000 + i) % 256)
		if b != want {
			t.Fatalf("byte %d = %d, want %d", i, b, want)
		}
	}
}

func TestClusterStream_SparseExtent(t *testing.T) {
	const clusterSize = 512
	img := &memImage{data: make([]byte, clusterSize*2)}
	for i := range img.data {
		img.data[i] = 0xFF
	}

	attr := &Attribute{
		Runlist: Runlist{
			{VCNStart: 0, Length: 1, Sparse: true},
			{VCNStart: 1, Length: 1, LCN: 0},
		},
		DataSize:        clusterSize * 2,
		InitializedSize: clusterSize * 2,
	}
	s := newClusterStream(img, attr, clusterSize)

	buf := make([]byte, clusterSize)
	if _, err := s.ReadAt(buf, 0); err != nil {
		t.Fatalf("ReadAt sparse: %v", err)
	}
	for _, b := range buf {
		if b != 0 {
			t.Fatal("expected sparse extent to read as zero")
		}
	}

	if _, err := s.ReadAt(buf, clusterSize); err != nil {
		t.Fatalf("ReadAt allocated: %v", err)
	}
	for _, b := range buf {
		if b != 0xFF {
			t.Fatal("expected allocated extent to read backing bytes")
		}
	}
}

func TestClusterStream_UninitializedTailZeroFilled(t *testing.T) {
	const clusterSize = 512
	img := &memImage{data: make([]byte, clusterSize)}
	for i := range img.data {
		img.data[i] = 0xAA
	}

	attr := &Attribute{
		Runlist:         Runlist{{VCNStart: 0, Length: 1, LCN: 0}},
		DataSize:        clusterSize,
		InitializedSize: 100,
	}
	s := newClusterStream(img, attr, clusterSize)

	buf := make([]byte, clusterSize)
	n, err := s.ReadAt(buf, 0)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if n != clusterSize {
		t.Fatalf("n = %d, want %d", n, clusterSize)
	}
	for i := 0; i < 100; i++ {
		if buf[i] != 0xAA {
			t.Fatalf("byte %d in initialized region = %x, want 0xAA", i, buf[i])
		}
	}
	for i := 100; i < clusterSize; i++ {
		if buf[i] != 0 {
			t.Fatalf("byte %d past initialized size = %x, want 0", i, buf[i])
		}
	}
}

func TestClusterStream_ReadPastDataSizeReturnsEOF(t *testing.T) {
	const clusterSize = 512
	img := &memImage{data: make([]byte, clusterSize)}
	attr := &Attribute{
		Runlist:         Runlist{{VCNStart: 0, Length: 1, LCN: 0}},
		DataSize:        10,
		InitializedSize: 10,
	}
	s := newClusterStream(img, attr, clusterSize)

	buf := make([]byte, 10)
	if _, err := s.ReadAt(buf, 10); err != io.EOF {
		t.Fatalf("ReadAt at DataSize boundary: %v", err)
	}
}

func TestClusterStream_SeekAndRead(t *testing.T) {
	const clusterSize = 512
	img := &memImage{data: make([]byte, clusterSize)}
	for i := range img.data {
		img.data[i] = byte(i)
	}
	attr := &Attribute{
		Runlist:         Runlist{{VCNStart: 0, Length: 1, LCN: 0}},
		DataSize:        clusterSize,
		InitializedSize: clusterSize,
	}
	s := newClusterStream(img, attr, clusterSize)

	if _, err := s.Seek(50, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	buf := make([]byte, 4)
	n, err := s.Read(buf)
	if err != nil || n != 4 {
		t.Fatalf("Read after seek: n=%d err=%v", n, err)
	}
	if buf[0] != 50 {
		t.Fatalf("buf[0] = %d, want 50", buf[0])
	}
}
