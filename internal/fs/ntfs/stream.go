package ntfs

import (
	"io"

	"github.com/s0up4200/go-ntfs/internal/fs/image"
)

// ClusterStream implements io.ReadSeeker over a non-resident attribute's
// runlist, translating logical byte offsets into (VCN, intra-cluster
// offset) pairs and reading the backing clusters from the volume image.
// Sparse extents are synthesized as zero bytes without issuing I/O, and
// reads beyond InitializedSize up to DataSize are zero-filled.
type ClusterStream struct {
	img         image.Reader
	runlist     Runlist
	clusterSize uint32
	dataSize    uint64
	initSize    uint64
	pos         int64
}

func newClusterStream(img image.Reader, attr *Attribute, clusterSize uint32) *ClusterStream {
	return &ClusterStream{
		img:         img,
		runlist:     attr.Runlist,
		clusterSize: clusterSize,
		dataSize:    attr.DataSize,
		initSize:    attr.InitializedSize,
	}
}

func (s *ClusterStream) Size() int64 { return int64(s.dataSize) }

func (s *ClusterStream) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = s.pos
	case io.SeekEnd:
		base = int64(s.dataSize)
	default:
		return 0, newErr(KindInvalidArgument, "invalid whence", nil)
	}
	newPos := base + offset
	if newPos < 0 {
		return 0, newErr(KindInvalidArgument, "negative seek position", nil)
	}
	s.pos = newPos
	return s.pos, nil
}

// Read fills p starting at the stream's current position, advancing it by
// the number of bytes read. It returns io.EOF only once pos has reached
// DataSize; reads that start before DataSize but would run past it are
// truncated rather than erroring.
func (s *ClusterStream) Read(p []byte) (int, error) {
	n, err := s.ReadAt(p, s.pos)
	s.pos += int64(n)
	return n, err
}

// ReadAt reads len(p) bytes (or as many as remain before DataSize) starting
// at byte offset off, without touching the stream's cursor.
func (s *ClusterStream) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, newErr(KindInvalidArgument, "negative read offset", nil)
	}
	if uint64(off) >= s.dataSize {
		return 0, io.EOF
	}
	remaining := s.dataSize - uint64(off)
	if uint64(len(p)) > remaining {
		p = p[:remaining]
	}

	total := 0
	for len(p) > 0 {
		n, err := s.readChunk(p, uint64(off)+uint64(total))
		total += n
		p = p[n:]
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}

// readChunk reads a contiguous run within a single extent (or zero-fills a
// sparse/uninitialized one), returning as many bytes as fit in p up to the
// extent boundary.
func (s *ClusterStream) readChunk(p []byte, off uint64) (int, error) {
	vcn := off / uint64(s.clusterSize)
	intraOff := off % uint64(s.clusterSize)

	if off >= s.initSize {
		n := len(p)
		if uint64(n) > s.dataSize-off {
			n = int(s.dataSize - off)
		}
		for i := range p[:n] {
			p[i] = 0
		}
		return n, nil
	}

	ext, ok := s.runlist.findExtent(vcn)
	if !ok {
		return 0, newErrf(KindCorruptRunlist, nil, "no extent covers VCN %d", vcn)
	}

	bytesLeftInExtent := (ext.VCNEnd()-vcn)*uint64(s.clusterSize) - intraOff
	n := len(p)
	if uint64(n) > bytesLeftInExtent {
		n = int(bytesLeftInExtent)
	}
	if uint64(n) > s.initSize-off {
		n = int(s.initSize - off)
	}
	if n <= 0 {
		return 0, nil
	}

	if ext.Sparse {
		for i := range p[:n] {
			p[i] = 0
		}
		return n, nil
	}

	byteOff := int64(ext.LCN)*int64(s.clusterSize) + int64(intraOff)
	got, err := s.img.ReadAt(p[:n], byteOff)
	if err != nil {
		return got, newErrf(KindIO, err, "reading cluster data at image offset %d", byteOff)
	}
	return got, nil
}
