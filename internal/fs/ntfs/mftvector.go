package ntfs

import (
	"container/list"
	"io"
	"sync"

	"github.com/s0up4200/go-ntfs/internal/fs/image"
)

// MFTVector is the bootstrapped view of the Master File Table: record 0's
// own $DATA runlist, used to locate every other record by index, fronted
// by an LRU cache of parsed entries.
type MFTVector struct {
	img        image.Reader
	boot       *BootParameters
	recordSize uint32
	runlist    Runlist
	recordCnt  uint64

	mu       sync.Mutex
	cache    map[uint64]*list.Element
	order    *list.List
	capacity int
}

type cacheItem struct {
	index uint64
	entry *MFTEntry
}

// OpenMFTVector bootstraps the MFT by reading record 0 directly at the
// boot sector's declared MFT offset, parsing it as an ordinary record to
// recover its own $DATA runlist, then re-deriving that same record through
// the runlist and checking the two parses agree. A mismatch means the boot
// sector's MFT location and the table's self-description disagree, which
// is fatal.
func OpenMFTVector(img image.Reader, boot *BootParameters, cacheCapacity int) (*MFTVector, error) {
	if cacheCapacity <= 0 {
		cacheCapacity = defaultMFTCacheCapacity
	}

	raw := make([]byte, boot.MFTEntrySize)
	if _, err := img.ReadAt(raw, boot.mftOffset()); err != nil {
		return nil, newErrf(KindIO, err, "reading MFT record 0 at offset %d", boot.mftOffset())
	}

	bootstrapEntry, err := parseMFTRecord(raw, MFTRecordMFT, nil, nil)
	if err != nil {
		return nil, newErrf(KindMalformedBootSector, err, "parsing bootstrap MFT record 0")
	}
	dataAttr := bootstrapEntry.DefaultDataAttribute()
	if dataAttr == nil || !dataAttr.NonResident {
		return nil, newErr(KindMalformedBootSector, "MFT record 0 has no non-resident $DATA attribute", nil)
	}

	v := &MFTVector{
		img:        img,
		boot:       boot,
		recordSize: boot.MFTEntrySize,
		runlist:    dataAttr.Runlist,
		recordCnt:  dataAttr.DataSize / uint64(boot.MFTEntrySize),
		cache:      make(map[uint64]*list.Element),
		order:      list.New(),
		capacity:   cacheCapacity,
	}

	verify := make([]byte, boot.MFTEntrySize)
	n, err := v.readRawRecord(MFTRecordMFT, verify)
	if err != nil || n != len(verify) {
		return nil, newErrf(KindMalformedBootSector, err, "re-reading MFT record 0 through its own runlist")
	}
	reparsed, err := parseMFTRecord(verify, MFTRecordMFT, nil, nil)
	if err != nil {
		return nil, newErrf(KindMalformedBootSector, err, "re-parsing MFT record 0 through its own runlist")
	}
	if reparsed.DefaultDataAttribute() == nil || reparsed.DefaultDataAttribute().DataSize != dataAttr.DataSize {
		return nil, newErr(KindMalformedBootSector, "MFT record 0 is not idempotent under its own runlist", nil)
	}

	v.put(MFTRecordMFT, bootstrapEntry)
	return v, nil
}

// RecordCount returns the number of MFT record slots implied by $MFT's
// $DATA size, not the number of in-use records.
func (v *MFTVector) RecordCount() uint64 { return v.recordCnt }

func (v *MFTVector) readRawRecord(index uint64, buf []byte) (int, error) {
	byteOff := int64(index) * int64(v.recordSize)
	vcn := uint64(byteOff) / uint64(v.boot.ClusterSize)
	ext, ok := v.runlist.findExtent(vcn)
	if !ok {
		return 0, newErrf(KindOutOfBounds, nil, "MFT record %d not covered by $MFT runlist", index)
	}
	if ext.Sparse {
		for i := range buf {
			buf[i] = 0
		}
		return len(buf), nil
	}
	intraClusterOff := uint64(byteOff) % uint64(v.boot.ClusterSize)
	physOff := int64(ext.LCN)*int64(v.boot.ClusterSize) + int64(intraClusterOff)
	return v.img.ReadAt(buf, physOff)
}

// Get returns the parsed MFT entry at index, folding any $ATTRIBUTE_LIST
// extensions, or (nil, false, err) if the record itself is corrupt. A
// corrupt record never poisons the cache or invalidates other lookups.
func (v *MFTVector) Get(index uint64) (*MFTEntry, bool, error) {
	if index >= v.recordCnt {
		return nil, false, nil
	}

	v.mu.Lock()
	if el, ok := v.cache[index]; ok {
		v.order.MoveToFront(el)
		entry := el.Value.(*cacheItem).entry
		v.mu.Unlock()
		return entry, true, nil
	}
	v.mu.Unlock()

	buf := make([]byte, v.recordSize)
	n, err := v.readRawRecord(index, buf)
	if err != nil {
		return nil, false, newErrf(KindIO, err, "reading MFT record %d", index)
	}
	if n != len(buf) {
		return nil, false, newErrf(KindIO, io.ErrUnexpectedEOF, "short read for MFT record %d", index)
	}

	entry, err := parseMFTRecord(buf, index, v.loadExtensionRecord, v.readAttributeList)
	if err != nil {
		return nil, false, err
	}
	if !entry.InUse {
		return nil, false, nil
	}

	v.put(index, entry)
	return entry, true, nil
}

func (v *MFTVector) loadExtensionRecord(ref FileReference) ([]byte, error) {
	idx := ref.Index()
	if idx >= v.recordCnt {
		return nil, newErrf(KindOutOfBounds, nil, "extension record index %d out of range", idx)
	}
	buf := make([]byte, v.recordSize)
	n, err := v.readRawRecord(idx, buf)
	if err != nil {
		return nil, err
	}
	if n != len(buf) {
		return nil, io.ErrUnexpectedEOF
	}
	return buf, nil
}

// readAttributeList reads a non-resident $ATTRIBUTE_LIST's full value
// through its own runlist, the same way OpenVolume reads $UpCase: a
// ClusterStream over the attribute, not a record lookup by file reference.
func (v *MFTVector) readAttributeList(attr *Attribute) ([]byte, error) {
	stream := newClusterStream(v.img, attr, v.boot.ClusterSize)
	buf := make([]byte, attr.DataSize)
	n, err := stream.ReadAt(buf, 0)
	if err != nil {
		return nil, err
	}
	if uint64(n) != attr.DataSize {
		return nil, newErrf(KindIO, io.ErrUnexpectedEOF, "short read of $ATTRIBUTE_LIST value (%d of %d bytes)", n, attr.DataSize)
	}
	return buf, nil
}

// put inserts entry into the LRU cache, evicting the least-recently-used
// entry if at capacity.
func (v *MFTVector) put(index uint64, entry *MFTEntry) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if el, ok := v.cache[index]; ok {
		el.Value.(*cacheItem).entry = entry
		v.order.MoveToFront(el)
		return
	}

	el := v.order.PushFront(&cacheItem{index: index, entry: entry})
	v.cache[index] = el

	for v.order.Len() > v.capacity {
		back := v.order.Back()
		if back == nil {
			break
		}
		v.order.Remove(back)
		delete(v.cache, back.Value.(*cacheItem).index)
	}
}
