package ntfs

import "testing"

func TestApplyFixup_RestoresSectorTails(t *testing.T) {
	block := make([]byte, fixupSectorSize*2)
	// USA at offset 0: USN=0xABCD, two slots holding the real tail bytes.
	block[0] = 0xCD
	block[1] = 0xAB
	block[2] = 0x11
	block[3] = 0x22
	block[4] = 0x33
	block[5] = 0x44

	// Each sector's last two bytes must carry the USN before fixup.
	block[fixupSectorSize-2] = 0xCD
	block[fixupSectorSize-1] = 0xAB
	block[2*fixupSectorSize-2] = 0xCD
	block[2*fixupSectorSize-1] = 0xAB

	if err := applyFixup(block, 0, 3); err != nil {
		t.Fatalf("applyFixup: %v", err)
	}

	if block[fixupSectorSize-2] != 0x11 || block[fixupSectorSize-1] != 0x22 {
		t.Fatalf("sector 0 tail not restored: %x %x", block[fixupSectorSize-2], block[fixupSectorSize-1])
	}
	if block[2*fixupSectorSize-2] != 0x33 || block[2*fixupSectorSize-1] != 0x44 {
		t.Fatalf("sector 1 tail not restored: %x %x", block[2*fixupSectorSize-2], block[2*fixupSectorSize-1])
	}
}

func TestApplyFixup_MismatchedUSN(t *testing.T) {
	block := make([]byte, fixupSectorSize)
	block[0] = 0xCD
	block[1] = 0xAB
	block[2] = 0x11
	block[3] = 0x22
	block[fixupSectorSize-2] = 0x00
	block[fixupSectorSize-1] = 0x00

	err := applyFixup(block, 0, 2)
	if err == nil {
		t.Fatal("expected fixup mismatch error")
	}
	if kind, ok := KindOf(err); !ok || kind != KindFixupMismatch {
		t.Fatalf("got kind %v, want KindFixupMismatch", kind)
	}
}

func TestApplyFixup_EmptyUSA(t *testing.T) {
	block := make([]byte, fixupSectorSize)
	if err := applyFixup(block, 0, 0); err == nil {
		t.Fatal("expected error for empty update sequence array")
	}
}
