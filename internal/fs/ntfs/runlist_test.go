package ntfs

import "testing"

func TestDecodeRunlist_SingleRun(t *testing.T) {
	// header 0x21: 1 length byte, 2 offset bytes. length=16 clusters, LCN delta=+1000.
	data := []byte{0x21, 0x10, 0xE8, 0x03, 0x00}
	rl, err := decodeRunlist(data, 0)
	if err != nil {
		t.Fatalf("decodeRunlist: %v", err)
	}
	if len(rl) != 1 {
		t.Fatalf("got %d extents, want 1", len(rl))
	}
	if rl[0].LCN != 1000 || rl[0].Length != 16 || rl[0].Sparse {
		t.Fatalf("unexpected extent: %+v", rl[0])
	}
}

func TestDecodeRunlist_SparseThenAllocated(t *testing.T) {
	// header 0x01: 1 length byte, 0 offset bytes -> sparse run of 5 clusters.
	// header 0x11: 1 length byte, 1 offset byte -> 3 clusters at LCN delta +20.
	data := []byte{
		0x01, 0x05,
		0x11, 0x03, 0x14,
	}
	rl, err := decodeRunlist(data, 100)
	if err != nil {
		t.Fatalf("decodeRunlist: %v", err)
	}
	if len(rl) != 2 {
		t.Fatalf("got %d extents, want 2", len(rl))
	}
	if !rl[0].Sparse || rl[0].VCNStart != 100 || rl[0].Length != 5 {
		t.Fatalf("unexpected first extent: %+v", rl[0])
	}
	if rl[1].Sparse || rl[1].VCNStart != 105 || rl[1].LCN != 20 {
		t.Fatalf("unexpected second extent: %+v", rl[1])
	}
	if err := rl.validateContiguous(); err != nil {
		t.Fatalf("validateContiguous: %v", err)
	}
}

func TestDecodeRunlist_NegativeDelta(t *testing.T) {
	// First run at LCN 50, second run backs up by 10 (delta -10) to LCN 40.
	data := []byte{
		0x11, 0x04, 0x32, // length 4, LCN delta +50
		0x11, 0x02, 0xF6, // length 2, LCN delta -10 (0xF6 = -10 as int8)
	}
	rl, err := decodeRunlist(data, 0)
	if err != nil {
		t.Fatalf("decodeRunlist: %v", err)
	}
	if rl[0].LCN != 50 {
		t.Fatalf("first LCN = %d, want 50", rl[0].LCN)
	}
	if rl[1].LCN != 40 {
		t.Fatalf("second LCN = %d, want 40", rl[1].LCN)
	}
}

func TestDecodeRunlist_TruncatedData(t *testing.T) {
	data := []byte{0x21, 0x10} // claims 1 length + 2 offset bytes, only the length byte present
	if _, err := decodeRunlist(data, 0); err == nil {
		t.Fatal("expected error for truncated run")
	}
}

func TestRunlist_FindExtent(t *testing.T) {
	rl := Runlist{
		{VCNStart: 0, Length: 10, LCN: 100},
		{VCNStart: 10, Length: 5, LCN: 200},
	}
	e, ok := rl.findExtent(12)
	if !ok || e.LCN != 200 {
		t.Fatalf("findExtent(12) = %+v, %v", e, ok)
	}
	if _, ok := rl.findExtent(15); ok {
		t.Fatal("findExtent(15) should miss (past end)")
	}
}
