package ntfs

import "testing"

func makeBootSector(bytesPerSector uint16, sectorsPerCluster uint8, mftEntrySizeByte, indexBufSizeByte int8) []byte {
	b := make([]byte, 512)
	copy(b[3:11], []byte("NTFS    "))
	b[11] = byte(bytesPerSector)
	b[12] = byte(bytesPerSector >> 8)
	b[13] = sectorsPerCluster
	b[64] = byte(mftEntrySizeByte)
	b[68] = byte(indexBufSizeByte)
	b[510] = 0x55
	b[511] = 0xAA
	return b
}

func TestParseBootSector_Valid(t *testing.T) {
	b := makeBootSector(512, 8, -10, -12) // entry=1024, index buf=4096
	bp, err := ParseBootSector(b)
	if err != nil {
		t.Fatalf("ParseBootSector: %v", err)
	}
	if bp.ClusterSize != 4096 {
		t.Fatalf("ClusterSize = %d, want 4096", bp.ClusterSize)
	}
	if bp.MFTEntrySize != 1024 {
		t.Fatalf("MFTEntrySize = %d, want 1024", bp.MFTEntrySize)
	}
	if bp.IndexBufferSize != 4096 {
		t.Fatalf("IndexBufferSize = %d, want 4096", bp.IndexBufferSize)
	}
}

func TestParseBootSector_BadOEMID(t *testing.T) {
	b := makeBootSector(512, 8, -10, -12)
	copy(b[3:11], []byte("FAT32   "))
	if _, err := ParseBootSector(b); err == nil {
		t.Fatal("expected error for bad OEM id")
	}
}

func TestParseBootSector_BadSignature(t *testing.T) {
	b := makeBootSector(512, 8, -10, -12)
	b[511] = 0x00
	if _, err := ParseBootSector(b); err == nil {
		t.Fatal("expected error for missing boot signature")
	}
}

func TestParseBootSector_TooShort(t *testing.T) {
	if _, err := ParseBootSector(make([]byte, 100)); err == nil {
		t.Fatal("expected error for short boot sector")
	}
}

func TestSizeFromSignedByte(t *testing.T) {
	if got := sizeFromSignedByte(2, 4096); got != 8192 {
		t.Fatalf("positive case = %d, want 8192", got)
	}
	if got := sizeFromSignedByte(-10, 4096); got != 1024 {
		t.Fatalf("negative case = %d, want 1024", got)
	}
}
