package ntfs

import (
	"io"
	"time"
)

// DirEntry is a resolved MFT record exposed through the façade: a
// directory or a file, with its names, times, and data streams.
type DirEntry struct {
	vol *Volume
	mft *MFTEntry
}

// Index returns the entry's MFT record index.
func (d *DirEntry) Index() uint64 { return d.mft.Index }

// IsDirectory reports whether this entry is a directory.
func (d *DirEntry) IsDirectory() bool { return d.mft.IsDirectory }

// IsExtension reports whether the underlying MFT record is an attribute-list
// extension record rather than a base file/directory record. Resolving by
// index can still land on one directly (e.g. a raw MFT scan); callers that
// only want navigable entries should skip these.
func (d *DirEntry) IsExtension() bool { return d.mft.IsExtension }

// Name returns the entry's preferred display name: the long (WIN32/POSIX)
// $FILE_NAME if one exists, else the DOS short name.
func (d *DirEntry) Name() string {
	if fn := d.mft.PreferredFileName(); fn != nil {
		return fn.Name
	}
	return ""
}

// Times returns the creation, modification, MFT-modification, and access
// times from $STANDARD_INFORMATION, falling back to the zero time if the
// attribute is missing.
func (d *DirEntry) Times() (created, modified, mftModified, accessed time.Time) {
	si := d.mft.StandardInformation
	if si == nil {
		return
	}
	return si.CreationTime, si.ModificationTime, si.MFTModificationTime, si.AccessTime
}

// VolumeName returns the $VOLUME_NAME string, or "" if this entry is not
// the volume record (MFT index 3) or carries no $VOLUME_NAME attribute.
func (d *DirEntry) VolumeName() string {
	if d.mft.VolumeName == nil {
		return ""
	}
	return d.mft.VolumeName.Name
}

// FileAttributes returns the DOS-visible attribute bits from
// $STANDARD_INFORMATION.
func (d *DirEntry) FileAttributes() uint32 {
	if d.mft.StandardInformation == nil {
		return 0
	}
	return d.mft.StandardInformation.FileAttributes
}

// Size returns the default data stream's logical size, or 0 if the entry
// is a directory or has no unnamed $DATA attribute.
func (d *DirEntry) Size() uint64 {
	data := d.mft.DefaultDataAttribute()
	if data == nil {
		return 0
	}
	if data.NonResident {
		return data.DataSize
	}
	return uint64(len(data.ResidentValue()))
}

// StreamNames returns the names of all alternate data streams (named
// $DATA attributes), excluding the default unnamed stream.
func (d *DirEntry) StreamNames() []string {
	var names []string
	for _, a := range d.mft.DataAttrs {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return names
}

// Open returns a reader for the default data stream.
func (d *DirEntry) Open() (io.ReadSeeker, error) {
	return d.openStream(d.mft.DefaultDataAttribute())
}

// OpenStream returns a reader for the named alternate data stream.
func (d *DirEntry) OpenStream(name string) (io.ReadSeeker, error) {
	return d.openStream(d.mft.NamedDataAttribute(name))
}

func (d *DirEntry) openStream(attr *Attribute) (io.ReadSeeker, error) {
	if attr == nil {
		return nil, newErr(KindInvalidArgument, "no such data stream", nil)
	}
	if !attr.NonResident {
		return &residentReader{data: attr.ResidentValue()}, nil
	}
	return newClusterStream(d.vol.img, attr, d.vol.boot.ClusterSize), nil
}

// residentReader adapts a resident attribute's in-record bytes to
// io.ReadSeeker.
type residentReader struct {
	data []byte
	pos  int64
}

func (r *residentReader) Read(p []byte) (int, error) {
	if r.pos >= int64(len(r.data)) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += int64(n)
	return n, nil
}

func (r *residentReader) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = r.pos
	case io.SeekEnd:
		base = int64(len(r.data))
	default:
		return 0, newErr(KindInvalidArgument, "invalid whence", nil)
	}
	pos := base + offset
	if pos < 0 {
		return 0, newErr(KindInvalidArgument, "negative seek position", nil)
	}
	r.pos = pos
	return pos, nil
}

// Children lists a directory's entries in collation order, deduplicating
// the short/long $FILE_NAME pairs NTFS stores for the same file into one
// entry. Returns an error if called on a non-directory entry.
func (d *DirEntry) Children() ([]*DirEntry, error) {
	if !d.mft.IsDirectory {
		return nil, newErr(KindInvalidArgument, "not a directory", nil)
	}
	if d.mft.IndexRoot == nil {
		return nil, newErr(KindMalformedAttribute, "directory has no $INDEX_ROOT", nil)
	}

	rootEntries, err := parseIndexRoot(d.mft.IndexRoot.ResidentValue())
	if err != nil {
		return nil, err
	}

	var readNode func(vcn uint64) ([]IndexEntry, error)
	if d.mft.IndexAllocation != nil {
		stream := newClusterStream(d.vol.img, d.mft.IndexAllocation, d.vol.boot.ClusterSize)
		nodeSize := d.vol.boot.IndexBufferSize
		readNode = func(vcn uint64) ([]IndexEntry, error) {
			byteOff := int64(vcn) * int64(d.vol.boot.ClusterSize)
			buf := make([]byte, nodeSize)
			n, err := stream.ReadAt(buf, byteOff)
			if err != nil {
				return nil, err
			}
			if uint32(n) != nodeSize {
				return nil, newErr(KindIO, "short read of index allocation node", nil)
			}
			return parseIndexAllocationNode(buf)
		}
	}

	seen := make(map[uint64]bool)
	var children []*DirEntry
	err = walkIndexInOrder(rootEntries, readNode, func(e IndexEntry) error {
		if e.Name == nil || !acceptableNamespace(e.Name.Namespace) {
			return nil
		}
		idx := e.FileRef.Index()
		if seen[idx] {
			return nil
		}
		seen[idx] = true

		if err := d.vol.checkAborted(); err != nil {
			return err
		}

		child, ok, err := d.vol.GetByIndex(idx)
		if err != nil {
			return err
		}
		if ok {
			children = append(children, child)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return children, nil
}
