package ntfs

import (
	"encoding/binary"
	"testing"
)

// buildIndexEntry builds one leaf index entry (no subnode) carrying a
// $FILE_NAME key for fileRef.
func buildIndexEntry(fileRef FileReference, name string, isEnd bool) []byte {
	if isEnd {
		b := make([]byte, 16)
		binary.LittleEndian.PutUint16(b[8:], 16)
		binary.LittleEndian.PutUint16(b[12:], indexEntryEnd)
		return b
	}
	key := buildFileNameValue(5, name)
	entryLen := 16 + len(key)
	b := make([]byte, entryLen)
	binary.LittleEndian.PutUint64(b[0:8], uint64(fileRef))
	binary.LittleEndian.PutUint16(b[8:], uint16(entryLen))
	binary.LittleEndian.PutUint16(b[10:], uint16(len(key)))
	copy(b[16:], key)
	return b
}

// buildIndexEntryNS builds one leaf index entry whose $FILE_NAME key carries
// an explicit namespace, for exercising namespace-filtered lookup.
func buildIndexEntryNS(fileRef FileReference, name string, ns Namespace) []byte {
	key := buildFileNameValue(5, name)
	key[65] = byte(ns)
	entryLen := 16 + len(key)
	b := make([]byte, entryLen)
	binary.LittleEndian.PutUint64(b[0:8], uint64(fileRef))
	binary.LittleEndian.PutUint16(b[8:], uint16(entryLen))
	binary.LittleEndian.PutUint16(b[10:], uint16(len(key)))
	copy(b[16:], key)
	return b
}

func buildIndexRoot(entries [][]byte) []byte {
	var payload []byte
	for _, e := range entries {
		payload = append(payload, e...)
	}
	header := make([]byte, 32) // attr_type,collation_rule,entry_size,clusters + index header (16 bytes)
	binary.LittleEndian.PutUint32(header[16:], 16)                        // firstEntryOff relative to header[16:]
	binary.LittleEndian.PutUint32(header[20:], uint32(16+len(payload)))   // totalSize
	binary.LittleEndian.PutUint32(header[24:], uint32(16+len(payload)))   // allocSize
	return append(header, payload...)
}

func TestParseIndexRoot_TwoEntries(t *testing.T) {
	e1 := buildIndexEntry(FileReference(100), "alpha.txt", false)
	e2 := buildIndexEntry(0, "", true)
	root := buildIndexRoot([][]byte{e1, e2})

	entries, err := parseIndexRoot(root)
	if err != nil {
		t.Fatalf("parseIndexRoot: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Name == nil || entries[0].Name.Name != "alpha.txt" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if !entries[1].IsEnd {
		t.Fatal("expected second entry to be the end marker")
	}
}

func TestLookupIndexEntry_ExactMatch(t *testing.T) {
	e1 := buildIndexEntry(FileReference(100), "alpha.txt", false)
	e2 := buildIndexEntry(0, "", true)
	root := buildIndexRoot([][]byte{e1, e2})
	entries, err := parseIndexRoot(root)
	if err != nil {
		t.Fatalf("parseIndexRoot: %v", err)
	}

	up := asciiUpCaseTable()
	found, ok, err := lookupIndexEntry(up, entries, "ALPHA.TXT", nil)
	if err != nil {
		t.Fatalf("lookupIndexEntry: %v", err)
	}
	if !ok {
		t.Fatal("expected case-insensitive match")
	}
	if found.FileRef.Index() != 100 {
		t.Fatalf("FileRef.Index() = %d, want 100", found.FileRef.Index())
	}
}

func TestLookupIndexEntry_Miss(t *testing.T) {
	e1 := buildIndexEntry(FileReference(100), "alpha.txt", false)
	e2 := buildIndexEntry(0, "", true)
	root := buildIndexRoot([][]byte{e1, e2})
	entries, err := parseIndexRoot(root)
	if err != nil {
		t.Fatalf("parseIndexRoot: %v", err)
	}

	up := asciiUpCaseTable()
	_, ok, err := lookupIndexEntry(up, entries, "missing.txt", nil)
	if err != nil {
		t.Fatalf("lookupIndexEntry: %v", err)
	}
	if ok {
		t.Fatal("expected miss for absent name")
	}
}

func TestLookupIndexEntry_DOSOnlyNameSkipped(t *testing.T) {
	e1 := buildIndexEntryNS(FileReference(100), "PROGRA~1", NamespaceDOS)
	e2 := buildIndexEntry(0, "", true)
	root := buildIndexRoot([][]byte{e1, e2})
	entries, err := parseIndexRoot(root)
	if err != nil {
		t.Fatalf("parseIndexRoot: %v", err)
	}

	up := asciiUpCaseTable()
	_, ok, err := lookupIndexEntry(up, entries, "PROGRA~1", nil)
	if err != nil {
		t.Fatalf("lookupIndexEntry: %v", err)
	}
	if ok {
		t.Fatal("expected a DOS-only namespace entry to never match during lookup")
	}
}
