package ntfs

import (
	"container/list"
	"testing"
)

func TestMFTVector_LRUEviction(t *testing.T) {
	v := &MFTVector{
		cache:    make(map[uint64]*list.Element),
		order:    list.New(),
		capacity: 2,
	}
	v.put(1, &MFTEntry{Index: 1})
	v.put(2, &MFTEntry{Index: 2})
	v.put(3, &MFTEntry{Index: 3}) // evicts 1

	if _, ok := v.cache[1]; ok {
		t.Fatal("expected index 1 to be evicted")
	}
	if _, ok := v.cache[2]; !ok {
		t.Fatal("expected index 2 to remain")
	}
	if _, ok := v.cache[3]; !ok {
		t.Fatal("expected index 3 to remain")
	}
}

func TestMFTVector_LRUTouchOnGet(t *testing.T) {
	v := &MFTVector{
		cache:     make(map[uint64]*list.Element),
		order:     list.New(),
		capacity:  2,
		recordCnt: 10,
	}
	v.put(1, &MFTEntry{Index: 1, InUse: true})
	v.put(2, &MFTEntry{Index: 2, InUse: true})

	if _, ok, err := v.Get(1); err != nil || !ok {
		t.Fatalf("Get(1) = ok=%v err=%v", ok, err)
	}
	v.put(3, &MFTEntry{Index: 3, InUse: true}) // should evict 2, not 1 (touched)

	if _, ok := v.cache[1]; !ok {
		t.Fatal("expected recently-touched index 1 to survive eviction")
	}
	if _, ok := v.cache[2]; ok {
		t.Fatal("expected index 2 to be evicted")
	}
}
