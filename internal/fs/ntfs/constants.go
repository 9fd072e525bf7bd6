package ntfs

// On-disk layout constants for NTFS, little-endian throughout.
const (
	bootSectorSize = 512

	bootOEMIDOffset   = 3
	bootOEMIDLen      = 8
	bootSignatureHi   = 510 // 0x55
	bootSignatureLo   = 511 // 0xAA
	bootSigByte0      = 0x55
	bootSigByte1      = 0xAA

	bootBytesPerSectorOffset    = 11
	bootSectorsPerClusterOffset = 13
	bootTotalSectorsOffset      = 40
	bootMFTLCNOffset            = 48
	bootMFTMirrLCNOffset        = 56
	bootMFTEntrySizeOffset      = 64
	bootIndexBufSizeOffset      = 68
	bootVolumeSerialOffset      = 72

	mftRecordMagic  = "FILE"
	mftRecordBad    = "BAAD"
	indexNodeMagic  = "INDX"
	attrTerminator  = 0xFFFFFFFF

	// MFT record header field offsets.
	mftUSAOffsetOff   = 4
	mftUSACountOff    = 6
	mftLSNOff         = 8
	mftSeqNumOff      = 16
	mftLinkCountOff   = 18
	mftAttrOff        = 20
	mftFlagsOff       = 22
	mftUsedSizeOff    = 24
	mftAllocSizeOff   = 28
	mftBaseRecordOff  = 32
	mftNextAttrIDOff  = 40

	mftFlagInUse     = 0x0001
	mftFlagDirectory = 0x0002

	// Attribute header field offsets (common part).
	attrTypeOff        = 0
	attrLengthOff       = 4
	attrNonResidentOff  = 8
	attrNameLenOff      = 9
	attrNameOffOff      = 10
	attrFlagsOff        = 12
	attrIDOff           = 14

	// Resident body, starting at offset 16.
	attrResValueLenOff    = 16
	attrResValueOffOff    = 20
	attrResIndexedFlagOff = 22

	// Non-resident body, starting at offset 16.
	attrNRStartVCNOff     = 16
	attrNRLastVCNOff      = 24
	attrNRRunOffOff       = 32
	attrNRCompUnitOff     = 34
	attrNRAllocSizeOff    = 40
	attrNRDataSizeOff     = 48
	attrNRInitSizeOff     = 56
	attrNRHeaderLenNoName = 64

	attrFlagCompressed = 0x0001
	attrFlagEncrypted  = 0x4000
	attrFlagSparse     = 0x8000

	// Reserved MFT indices.
	MFTRecordMFT     = 0
	MFTRecordMFTMirr = 1
	MFTRecordLogFile = 2
	MFTRecordVolume  = 3
	MFTRecordAttrDef = 4
	MFTRecordRoot    = 5
	MFTRecordBitmap  = 6
	MFTRecordBoot    = 7
	MFTRecordBadClus = 8
	MFTRecordSecure  = 9
	MFTRecordUpCase  = 10
	MFTRecordExtend  = 11
)

// AttrType identifies the type of an NTFS attribute.
type AttrType uint32

const (
	AttrStandardInformation AttrType = 0x10
	AttrAttributeList       AttrType = 0x20
	AttrFileName            AttrType = 0x30
	AttrObjectID            AttrType = 0x40
	AttrSecurityDescriptor  AttrType = 0x50
	AttrVolumeName          AttrType = 0x60
	AttrVolumeInformation   AttrType = 0x70
	AttrData                AttrType = 0x80
	AttrIndexRoot           AttrType = 0x90
	AttrIndexAllocation     AttrType = 0xA0
	AttrBitmap              AttrType = 0xB0
	AttrReparsePoint        AttrType = 0xC0
	AttrEA                  AttrType = 0xE0
	AttrEnd                 AttrType = attrTerminator
)

func (t AttrType) String() string {
	switch t {
	case AttrStandardInformation:
		return "$STANDARD_INFORMATION"
	case AttrAttributeList:
		return "$ATTRIBUTE_LIST"
	case AttrFileName:
		return "$FILE_NAME"
	case AttrObjectID:
		return "$OBJECT_ID"
	case AttrSecurityDescriptor:
		return "$SECURITY_DESCRIPTOR"
	case AttrVolumeName:
		return "$VOLUME_NAME"
	case AttrVolumeInformation:
		return "$VOLUME_INFORMATION"
	case AttrData:
		return "$DATA"
	case AttrIndexRoot:
		return "$INDEX_ROOT"
	case AttrIndexAllocation:
		return "$INDEX_ALLOCATION"
	case AttrBitmap:
		return "$BITMAP"
	case AttrReparsePoint:
		return "$REPARSE_POINT"
	case AttrEA:
		return "$EA"
	default:
		return "$UNKNOWN"
	}
}

// Namespace tags a $FILE_NAME attribute.
type Namespace uint8

const (
	NamespacePOSIX   Namespace = 0
	NamespaceWin32   Namespace = 1
	NamespaceDOS     Namespace = 2
	NamespaceWin32DOS Namespace = 3
)

// FileAttribute bits, the DOS-visible subset surfaced on $STANDARD_INFORMATION
// and $FILE_NAME.
const (
	FileAttrReadOnly   = 0x0001
	FileAttrHidden     = 0x0002
	FileAttrSystem     = 0x0004
	FileAttrDirectory  = 0x0010
	FileAttrArchive    = 0x0020
	FileAttrReparse    = 0x0400
	FileAttrCompressed = 0x0800
	FileAttrEncrypted  = 0x4000
)

// Index-entry flags.
const (
	indexEntryHasSubnode = 0x0001
	indexEntryEnd        = 0x0002
)

const defaultMFTCacheCapacity = 1024
