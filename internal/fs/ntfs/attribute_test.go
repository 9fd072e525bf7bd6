package ntfs

import (
	"encoding/binary"
	"testing"
)

func TestDecodeAttribute_Terminator(t *testing.T) {
	data := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	_, _, terminator, err := decodeAttribute(data)
	if err != nil {
		t.Fatalf("decodeAttribute: %v", err)
	}
	if !terminator {
		t.Fatal("expected terminator=true")
	}
}

// buildResidentAttribute builds a minimal resident attribute record
// header + value, matching the layout in constants.go.
func buildResidentAttribute(typ AttrType, value []byte) []byte {
	const headerLen = 24
	total := headerLen + len(value)
	b := make([]byte, total)
	binary.LittleEndian.PutUint32(b[attrTypeOff:], uint32(typ))
	binary.LittleEndian.PutUint32(b[attrLengthOff:], uint32(total))
	b[attrNonResidentOff] = 0
	b[attrNameLenOff] = 0
	binary.LittleEndian.PutUint16(b[attrNameOffOff:], headerLen)
	binary.LittleEndian.PutUint32(b[attrResValueLenOff:], uint32(len(value)))
	binary.LittleEndian.PutUint16(b[attrResValueOffOff:], headerLen)
	copy(b[headerLen:], value)
	return b
}

func TestDecodeAttribute_Resident(t *testing.T) {
	value := []byte("hello world")
	raw := buildResidentAttribute(AttrData, value)
	attr, recLen, terminator, err := decodeAttribute(raw)
	if err != nil {
		t.Fatalf("decodeAttribute: %v", err)
	}
	if terminator {
		t.Fatal("unexpected terminator")
	}
	if recLen != uint32(len(raw)) {
		t.Fatalf("recLen = %d, want %d", recLen, len(raw))
	}
	if attr.NonResident {
		t.Fatal("expected resident attribute")
	}
	if string(attr.ResidentValue()) != "hello world" {
		t.Fatalf("resident value = %q", attr.ResidentValue())
	}
}

func buildFileNameValue(parentIndex uint64, name string) []byte {
	nameUnits := utf16Units(name)
	b := make([]byte, 66+len(nameUnits)*2)
	binary.LittleEndian.PutUint64(b[0:8], parentIndex)
	b[64] = byte(len(nameUnits))
	b[65] = byte(NamespaceWin32)
	for i, u := range nameUnits {
		binary.LittleEndian.PutUint16(b[66+i*2:], u)
	}
	return b
}

func TestParseFileName_RoundTrip(t *testing.T) {
	raw := buildFileNameValue(5, "hello.txt")
	fn, err := ParseFileName(raw)
	if err != nil {
		t.Fatalf("ParseFileName: %v", err)
	}
	if fn.Name != "hello.txt" {
		t.Fatalf("Name = %q, want hello.txt", fn.Name)
	}
	if fn.ParentRef.Index() != 5 {
		t.Fatalf("ParentRef.Index() = %d, want 5", fn.ParentRef.Index())
	}
	if fn.Namespace != NamespaceWin32 {
		t.Fatalf("Namespace = %v, want Win32", fn.Namespace)
	}
}

func TestFileReference_IndexAndSequence(t *testing.T) {
	ref := FileReference(uint64(42) | uint64(7)<<48)
	if ref.Index() != 42 {
		t.Fatalf("Index() = %d, want 42", ref.Index())
	}
	if ref.Sequence() != 7 {
		t.Fatalf("Sequence() = %d, want 7", ref.Sequence())
	}
}

func TestFiletimeToTime_Epoch(t *testing.T) {
	tm := filetimeToTime(filetimeEpochDiff100ns)
	if tm.Year() != 1970 || tm.Month() != 1 || tm.Day() != 1 {
		t.Fatalf("filetimeToTime(epoch) = %v, want 1970-01-01", tm)
	}
}
