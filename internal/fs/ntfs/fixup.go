package ntfs

import "encoding/binary"

const fixupSectorSize = 512

// applyFixup validates and restores a multi-sector-transfer protected block
// (an MFT record or an index buffer) in place. usaOffset/usaCount come from
// the block's own header (offsets differ between MFT records and "INDX"
// nodes, so callers pass them in rather than this func re-deriving them).
// Returns FixupMismatch if any sector's saved USN doesn't match.
func applyFixup(block []byte, usaOffset, usaCount uint16) error {
	if usaCount == 0 {
		return newErr(KindFixupMismatch, "update sequence array is empty", nil)
	}
	sectors := int(usaCount) - 1
	if sectors*fixupSectorSize > len(block) {
		// Tolerate a block whose size isn't an exact sector multiple of the
		// USA, which happens when callers pass a truncated tail buffer; cap
		// the sector count to what the block can actually hold.
		sectors = len(block) / fixupSectorSize
	}

	usaEnd := int(usaOffset) + int(usaCount)*2
	if int(usaOffset) < 0 || usaEnd > len(block) {
		return newErr(KindFixupMismatch, "update sequence array out of bounds", nil)
	}

	usn := binary.LittleEndian.Uint16(block[usaOffset : usaOffset+2])

	for i := 0; i < sectors; i++ {
		sectorEnd := (i+1)*fixupSectorSize - 2
		if sectorEnd+2 > len(block) {
			break
		}
		got := binary.LittleEndian.Uint16(block[sectorEnd : sectorEnd+2])
		if got != usn {
			return newErrf(KindFixupMismatch, nil, "sector %d: USN mismatch (got %#x want %#x)", i, got, usn)
		}
		slotOff := int(usaOffset) + 2 + i*2
		copy(block[sectorEnd:sectorEnd+2], block[slotOff:slotOff+2])
	}

	return nil
}
