package ntfs

import (
	"encoding/binary"
	"fmt"
)

// BootParameters is the decoded NTFS boot sector.
type BootParameters struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ClusterSize       uint32
	TotalSectors      uint64
	MFTLCN            uint64
	MFTMirrLCN        uint64
	MFTEntrySize      uint32
	IndexBufferSize   uint32
	VolumeSerial      uint64
}

// mftOffset returns the byte offset of MFT record 0.
func (b *BootParameters) mftOffset() int64 {
	return int64(b.MFTLCN) * int64(b.ClusterSize)
}

func isPowerOfTwo(n uint32) bool {
	return n != 0 && n&(n-1) == 0
}

// sizeFromSignedByte decodes the "bytes per MFT entry" / "bytes per index
// buffer" convention: a non-negative value is a cluster count, a negative
// value b encodes 1<<(-b) bytes directly.
func sizeFromSignedByte(b int8, clusterSize uint32) uint32 {
	if b >= 0 {
		return uint32(b) * clusterSize
	}
	return uint32(1) << uint(-b)
}

// ParseBootSector decodes the 512-byte NTFS boot sector. Failure here is
// fatal to Open.
func ParseBootSector(sector []byte) (*BootParameters, error) {
	if len(sector) < bootSectorSize {
		return nil, newErrf(KindMalformedBootSector, nil, "boot sector too short: %d bytes", len(sector))
	}

	oem := string(sector[bootOEMIDOffset : bootOEMIDOffset+bootOEMIDLen])
	if oem != "NTFS    " {
		return nil, newErrf(KindMalformedBootSector, nil, "bad OEM id %q", oem)
	}
	if sector[bootSignatureHi] != bootSigByte0 || sector[bootSignatureLo] != bootSigByte1 {
		return nil, newErr(KindMalformedBootSector, "missing 0x55AA signature", nil)
	}

	bp := &BootParameters{
		BytesPerSector:    binary.LittleEndian.Uint16(sector[bootBytesPerSectorOffset:]),
		SectorsPerCluster: sector[bootSectorsPerClusterOffset],
		TotalSectors:      binary.LittleEndian.Uint64(sector[bootTotalSectorsOffset:]),
		MFTLCN:            binary.LittleEndian.Uint64(sector[bootMFTLCNOffset:]),
		MFTMirrLCN:        binary.LittleEndian.Uint64(sector[bootMFTMirrLCNOffset:]),
		VolumeSerial:      binary.LittleEndian.Uint64(sector[bootVolumeSerialOffset:]),
	}

	if bp.BytesPerSector == 0 {
		return nil, newErr(KindMalformedBootSector, "bytes per sector is zero", nil)
	}
	bp.ClusterSize = uint32(bp.BytesPerSector) * uint32(bp.SectorsPerCluster)
	if !isPowerOfTwo(bp.ClusterSize) || bp.ClusterSize < 512 {
		return nil, newErrf(KindMalformedBootSector, nil, "invalid cluster size %d", bp.ClusterSize)
	}

	mftEntrySizeByte := int8(sector[bootMFTEntrySizeOffset])
	bp.MFTEntrySize = sizeFromSignedByte(mftEntrySizeByte, bp.ClusterSize)
	if !isPowerOfTwo(bp.MFTEntrySize) {
		return nil, newErrf(KindMalformedBootSector, nil, "invalid MFT entry size %d", bp.MFTEntrySize)
	}

	indexBufSizeByte := int8(sector[bootIndexBufSizeOffset])
	bp.IndexBufferSize = sizeFromSignedByte(indexBufSizeByte, bp.ClusterSize)
	if !isPowerOfTwo(bp.IndexBufferSize) {
		return nil, newErrf(KindMalformedBootSector, nil, "invalid index buffer size %d", bp.IndexBufferSize)
	}

	return bp, nil
}

func (b *BootParameters) String() string {
	return fmt.Sprintf("cluster=%d mftEntry=%d indexBuf=%d mftLCN=%d serial=%#x",
		b.ClusterSize, b.MFTEntrySize, b.IndexBufferSize, b.MFTLCN, b.VolumeSerial)
}
