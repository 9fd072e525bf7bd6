package ntfs

import (
	"encoding/binary"
	"time"
	"unicode/utf16"
)

// Attribute is a decoded NTFS attribute header plus its resident body or
// non-resident runlist.
type Attribute struct {
	Type        AttrType
	Name        string // attribute name (not the file name), e.g. "$I30"
	NonResident bool
	Flags       uint16
	ID          uint16

	// Resident.
	residentValue []byte

	// Non-resident.
	FirstVCN        uint64
	LastVCN         uint64
	CompressionUnit uint32
	AllocatedSize   uint64
	DataSize        uint64
	InitializedSize uint64
	Runlist         Runlist
}

func (a *Attribute) Compressed() bool { return a.Flags&attrFlagCompressed != 0 }
func (a *Attribute) Encrypted() bool  { return a.Flags&attrFlagEncrypted != 0 }
func (a *Attribute) SparseFlag() bool { return a.Flags&attrFlagSparse != 0 }

// ResidentValue returns the attribute's content bytes for a resident
// attribute. Callers must check NonResident first.
func (a *Attribute) ResidentValue() []byte { return a.residentValue }

// decodeAttribute decodes one attribute starting at data[0], which must be
// positioned within an MFT record's used region. Returns the attribute, the
// byte length it occupies (its record length), and whether the terminator
// sentinel (0xFFFFFFFF) was hit, in which case attr is nil.
func decodeAttribute(data []byte) (attr *Attribute, recordLen uint32, terminator bool, err error) {
	if len(data) < 4 {
		return nil, 0, false, newErr(KindMalformedAttribute, "attribute header truncated", nil)
	}
	typ := binary.LittleEndian.Uint32(data[attrTypeOff:])
	if typ == attrTerminator {
		return nil, 0, true, nil
	}
	if len(data) < 16 {
		return nil, 0, false, newErr(KindMalformedAttribute, "attribute header shorter than 16 bytes", nil)
	}

	length := binary.LittleEndian.Uint32(data[attrLengthOff:])
	if length < 16 || int(length) > len(data) {
		return nil, 0, false, newErrf(KindMalformedAttribute, nil, "attribute length %d exceeds record bounds", length)
	}
	body := data[:length]

	a := &Attribute{
		Type:        AttrType(typ),
		NonResident: body[attrNonResidentOff] != 0,
		Flags:       binary.LittleEndian.Uint16(body[attrFlagsOff:]),
		ID:          binary.LittleEndian.Uint16(body[attrIDOff:]),
	}

	nameLen := int(body[attrNameLenOff])
	nameOff := binary.LittleEndian.Uint16(body[attrNameOffOff:])
	if nameLen > 0 {
		end := int(nameOff) + nameLen*2
		if end > len(body) {
			return nil, 0, false, newErr(KindMalformedAttribute, "attribute name out of bounds", nil)
		}
		a.Name = decodeUTF16(body[nameOff:end])
	}

	if a.NonResident {
		if len(body) < int(attrNRHeaderLenNoName) {
			return nil, 0, false, newErr(KindMalformedAttribute, "non-resident header truncated", nil)
		}
		a.FirstVCN = binary.LittleEndian.Uint64(body[attrNRStartVCNOff:])
		a.LastVCN = binary.LittleEndian.Uint64(body[attrNRLastVCNOff:])
		runOff := binary.LittleEndian.Uint16(body[attrNRRunOffOff:])
		a.CompressionUnit = uint32(binary.LittleEndian.Uint16(body[attrNRCompUnitOff:]))
		a.AllocatedSize = binary.LittleEndian.Uint64(body[attrNRAllocSizeOff:])
		a.DataSize = binary.LittleEndian.Uint64(body[attrNRDataSizeOff:])
		a.InitializedSize = binary.LittleEndian.Uint64(body[attrNRInitSizeOff:])

		if int(runOff) > len(body) {
			return nil, 0, false, newErr(KindMalformedAttribute, "data run offset out of bounds", nil)
		}
		rl, rerr := decodeRunlist(body[runOff:], a.FirstVCN)
		if rerr != nil {
			return nil, 0, false, rerr
		}
		if err := rl.validateContiguous(); err != nil {
			return nil, 0, false, err
		}
		a.Runlist = rl
	} else {
		if len(body) < attrResIndexedFlagOff+2 {
			return nil, 0, false, newErr(KindMalformedAttribute, "resident header truncated", nil)
		}
		valLen := binary.LittleEndian.Uint32(body[attrResValueLenOff:])
		valOff := binary.LittleEndian.Uint16(body[attrResValueOffOff:])
		end := int(valOff) + int(valLen)
		if end > len(body) {
			return nil, 0, false, newErr(KindMalformedAttribute, "resident value out of bounds", nil)
		}
		a.residentValue = body[valOff:end]
	}

	return a, length, false, nil
}

func decodeUTF16(b []byte) string {
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return string(utf16.Decode(units))
}

// StandardInformation is the decoded $STANDARD_INFORMATION body.
type StandardInformation struct {
	CreationTime       time.Time
	ModificationTime   time.Time
	MFTModificationTime time.Time
	AccessTime         time.Time
	FileAttributes     uint32
}

func ParseStandardInformation(b []byte) (*StandardInformation, error) {
	if len(b) < 48 {
		return nil, newErr(KindMalformedAttribute, "$STANDARD_INFORMATION too short", nil)
	}
	return &StandardInformation{
		CreationTime:        filetimeToTime(binary.LittleEndian.Uint64(b[0:8])),
		ModificationTime:     filetimeToTime(binary.LittleEndian.Uint64(b[8:16])),
		MFTModificationTime:  filetimeToTime(binary.LittleEndian.Uint64(b[16:24])),
		AccessTime:           filetimeToTime(binary.LittleEndian.Uint64(b[24:32])),
		FileAttributes:       binary.LittleEndian.Uint32(b[32:36]),
	}, nil
}

// FileName is the decoded $FILE_NAME body.
type FileName struct {
	ParentRef        FileReference
	CreationTime     time.Time
	ModificationTime time.Time
	MFTModTime       time.Time
	AccessTime       time.Time
	AllocatedSize    uint64
	RealSize         uint64
	FileAttributes   uint32
	Namespace        Namespace
	Name             string
}

func ParseFileName(b []byte) (*FileName, error) {
	if len(b) < 66 {
		return nil, newErr(KindMalformedAttribute, "$FILE_NAME too short", nil)
	}
	fn := &FileName{
		ParentRef:        FileReference(binary.LittleEndian.Uint64(b[0:8])),
		CreationTime:     filetimeToTime(binary.LittleEndian.Uint64(b[8:16])),
		ModificationTime: filetimeToTime(binary.LittleEndian.Uint64(b[16:24])),
		MFTModTime:       filetimeToTime(binary.LittleEndian.Uint64(b[24:32])),
		AccessTime:       filetimeToTime(binary.LittleEndian.Uint64(b[32:40])),
		AllocatedSize:    binary.LittleEndian.Uint64(b[40:48]),
		RealSize:         binary.LittleEndian.Uint64(b[48:56]),
		FileAttributes:   binary.LittleEndian.Uint32(b[56:60]),
		Namespace:        Namespace(b[65]),
	}
	nameLen := int(b[64])
	end := 66 + nameLen*2
	if end > len(b) {
		return nil, newErr(KindMalformedAttribute, "$FILE_NAME name truncated", nil)
	}
	fn.Name = decodeUTF16(b[66:end])
	return fn, nil
}

// VolumeName is the decoded $VOLUME_NAME body.
type VolumeName struct {
	Name string
}

func ParseVolumeName(b []byte) (*VolumeName, error) {
	return &VolumeName{Name: decodeUTF16(b)}, nil
}

// VolumeInformation is the decoded $VOLUME_INFORMATION body.
type VolumeInformation struct {
	MajorVersion uint8
	MinorVersion uint8
	Flags        uint16
}

func ParseVolumeInformation(b []byte) (*VolumeInformation, error) {
	if len(b) < 12 {
		return nil, newErr(KindMalformedAttribute, "$VOLUME_INFORMATION too short", nil)
	}
	return &VolumeInformation{
		MajorVersion: b[8],
		MinorVersion: b[9],
		Flags:        binary.LittleEndian.Uint16(b[10:12]),
	}, nil
}

const filetimeEpochDiff100ns = 116444736000000000

// filetimeToTime converts a Windows FILETIME (100ns intervals since
// 1601-01-01) to a Go time.Time, the same conversion the rawhide NTFS
// example uses.
func filetimeToTime(ft uint64) time.Time {
	if ft < filetimeEpochDiff100ns {
		return time.Time{}
	}
	return time.Unix(0, int64(ft-filetimeEpochDiff100ns)*100).UTC()
}
