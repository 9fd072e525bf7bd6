package ntfs

import (
	"encoding/binary"
)

// FileReference is a 64-bit NTFS file reference: low 48 bits are the MFT
// index, high 16 bits are the sequence number.
type FileReference uint64

func (r FileReference) Index() uint64    { return uint64(r) & 0x0000FFFFFFFFFFFF }
func (r FileReference) Sequence() uint16 { return uint16(uint64(r) >> 48) }

// MFTEntry is one parsed MFT record, after fixup and attribute-list
// folding.
type MFTEntry struct {
	Index        uint64
	SequenceNum  uint16
	InUse        bool
	IsDirectory  bool
	LinkCount    uint16
	BaseRecord   FileReference // zero if this is a base record
	IsExtension  bool

	StandardInformation *StandardInformation
	FileNames           []*FileName
	DataAttrs           []*Attribute // all $DATA attributes, named and unnamed
	IndexRoot           *Attribute   // $INDEX_ROOT, iff directory
	IndexAllocation     *Attribute   // $INDEX_ALLOCATION, iff present
	Bitmap              *Attribute   // $BITMAP attribute (directory index or $MFT record bitmap), iff present
	ObjectID            *Attribute
	ReparsePoint        *Attribute
	VolumeName          *VolumeName        // record 3 only
	VolumeInformation   *VolumeInformation // record 3 only
	Other               []*Attribute       // opaque/unclassified attributes (incl. unknown types)

	Warnings []string
}

// PreferredFileName returns the $FILE_NAME entry to use when no directory
// entry name is available, preferring WIN32/POSIX over DOS short names.
func (e *MFTEntry) PreferredFileName() *FileName {
	var best *FileName
	for _, fn := range e.FileNames {
		switch fn.Namespace {
		case NamespaceWin32, NamespacePOSIX, NamespaceWin32DOS:
			return fn
		case NamespaceDOS:
			if best == nil {
				best = fn
			}
		}
	}
	return best
}

// DefaultDataAttribute returns the nameless $DATA attribute, if any.
func (e *MFTEntry) DefaultDataAttribute() *Attribute {
	for _, a := range e.DataAttrs {
		if a.Name == "" {
			return a
		}
	}
	return nil
}

// NamedDataAttribute returns the $DATA attribute with the given name (an
// alternate data stream), if any.
func (e *MFTEntry) NamedDataAttribute(name string) *Attribute {
	for _, a := range e.DataAttrs {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// mftRecordHeader is the fixed part of an MFT record header.
type mftRecordHeader struct {
	magic        [4]byte
	usaOffset    uint16
	usaCount     uint16
	seqNum       uint16
	linkCount    uint16
	attrOffset   uint16
	flags        uint16
	usedSize     uint32
	allocSize    uint32
	baseRecord   FileReference
	nextAttrID   uint16
}

func parseMFTRecordHeader(data []byte) (*mftRecordHeader, error) {
	if len(data) < 48 {
		return nil, newErr(KindMalformedAttribute, "MFT record header truncated", nil)
	}
	h := &mftRecordHeader{
		usaOffset:  binary.LittleEndian.Uint16(data[mftUSAOffsetOff:]),
		usaCount:   binary.LittleEndian.Uint16(data[mftUSACountOff:]),
		seqNum:     binary.LittleEndian.Uint16(data[mftSeqNumOff:]),
		linkCount:  binary.LittleEndian.Uint16(data[mftLinkCountOff:]),
		attrOffset: binary.LittleEndian.Uint16(data[mftAttrOff:]),
		flags:      binary.LittleEndian.Uint16(data[mftFlagsOff:]),
		usedSize:   binary.LittleEndian.Uint32(data[mftUsedSizeOff:]),
		allocSize:  binary.LittleEndian.Uint32(data[mftAllocSizeOff:]),
		baseRecord: FileReference(binary.LittleEndian.Uint64(data[mftBaseRecordOff:])),
		nextAttrID: binary.LittleEndian.Uint16(data[mftNextAttrIDOff:]),
	}
	copy(h.magic[:], data[0:4])
	return h, nil
}

// parseMFTRecord parses one fixed-size MFT record block in place: applies
// fixup, walks the attribute chain, and folds in any $ATTRIBUTE_LIST
// extensions via loadExtension. loadExtension is nil when parsing an
// extension record itself (extensions are never themselves folded).
// readAttrList reads a non-resident $ATTRIBUTE_LIST's value by its own
// runlist; it may be nil when loadExtension is also nil, or when the caller
// knows the volume carries no non-resident attribute lists.
func parseMFTRecord(block []byte, index uint64, loadExtension func(ref FileReference) ([]byte, error), readAttrList func(attr *Attribute) ([]byte, error)) (*MFTEntry, error) {
	buf := make([]byte, len(block))
	copy(buf, block)

	magic := string(buf[0:4])
	if magic == mftRecordBad {
		return nil, newErrf(KindMalformedAttribute, nil, "MFT record %d marked BAAD", index)
	}
	if magic != mftRecordMagic {
		return nil, newErrf(KindMalformedAttribute, nil, "MFT record %d bad signature %q", index, magic)
	}

	hdr, err := parseMFTRecordHeader(buf)
	if err != nil {
		return nil, err
	}
	if err := applyFixup(buf, hdr.usaOffset, hdr.usaCount); err != nil {
		return nil, err
	}

	usedSize := hdr.usedSize
	if usedSize > uint32(len(buf)) {
		usedSize = uint32(len(buf))
	}

	e := &MFTEntry{
		Index:       index,
		SequenceNum: hdr.seqNum,
		InUse:       hdr.flags&mftFlagInUse != 0,
		IsDirectory: hdr.flags&mftFlagDirectory != 0,
		LinkCount:   hdr.linkCount,
		BaseRecord:  hdr.baseRecord,
		IsExtension: hdr.baseRecord != 0,
	}

	attrs, err := walkAttributes(buf, int(hdr.attrOffset), usedSize)
	if err != nil {
		return nil, err
	}
	if err := classifyAttributes(e, attrs); err != nil {
		return nil, err
	}

	if e.IsExtension || loadExtension == nil {
		return e, nil
	}

	if err := foldAttributeList(e, loadExtension, readAttrList, index); err != nil {
		return nil, err
	}

	return e, nil
}

// walkAttributes decodes a record's attribute chain starting at offset,
// stopping at the terminator sentinel or at usedSize.
func walkAttributes(buf []byte, offset int, usedSize uint32) ([]*Attribute, error) {
	var attrs []*Attribute
	for offset >= 0 && uint32(offset) < usedSize && offset < len(buf) {
		a, length, terminator, err := decodeAttribute(buf[offset:])
		if terminator {
			break
		}
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
		offset += int(length)
	}
	return attrs, nil
}

// classifyAttributes attaches each decoded attribute to the entry's typed
// slots: multiple $FILE_NAME/$DATA attributes are permitted, exactly one
// $STANDARD_INFORMATION, and one $INDEX_ROOT iff the record is a directory.
func classifyAttributes(e *MFTEntry, attrs []*Attribute) error {
	for _, a := range attrs {
		switch a.Type {
		case AttrStandardInformation:
			if a.NonResident {
				return newErr(KindMalformedAttribute, "$STANDARD_INFORMATION must be resident", nil)
			}
			si, err := ParseStandardInformation(a.ResidentValue())
			if err != nil {
				return err
			}
			e.StandardInformation = si
		case AttrFileName:
			if a.NonResident {
				return newErr(KindMalformedAttribute, "$FILE_NAME must be resident", nil)
			}
			fn, err := ParseFileName(a.ResidentValue())
			if err != nil {
				return err
			}
			e.FileNames = append(e.FileNames, fn)
		case AttrData:
			e.DataAttrs = append(e.DataAttrs, a)
		case AttrIndexRoot:
			e.IndexRoot = a
		case AttrIndexAllocation:
			e.IndexAllocation = a
		case AttrBitmap:
			e.Bitmap = a
		case AttrObjectID:
			e.ObjectID = a
		case AttrReparsePoint:
			e.ReparsePoint = a
		case AttrVolumeName:
			vn, err := ParseVolumeName(a.ResidentValue())
			if err != nil {
				return err
			}
			e.VolumeName = vn
		case AttrVolumeInformation:
			vi, err := ParseVolumeInformation(a.ResidentValue())
			if err != nil {
				return err
			}
			e.VolumeInformation = vi
		case AttrAttributeList:
			e.Other = append(e.Other, a)
		default:
			e.Other = append(e.Other, a)
			e.Warnings = append(e.Warnings, "unsupported attribute type "+a.Type.String()+" skipped")
		}
	}
	return nil
}

// attributeListEntry is one decoded entry of an $ATTRIBUTE_LIST body.
type attributeListEntry struct {
	Type       AttrType
	Name       string
	StartVCN   uint64
	FileRef    FileReference
	AttrID     uint16
}

func decodeAttributeListEntries(b []byte) ([]attributeListEntry, error) {
	var entries []attributeListEntry
	off := 0
	for off < len(b) {
		if off+26 > len(b) {
			return nil, newErr(KindInconsistentAttributeList, "$ATTRIBUTE_LIST entry truncated", nil)
		}
		typ := leUint32(b[off:])
		recLen := leUint16(b[off+4:])
		nameLen := int(b[off+6])
		nameOff := int(b[off+7])
		startVCN := leUint64(b[off+8:])
		fileRef := FileReference(leUint64(b[off+16:]))
		attrID := leUint16(b[off+24:])

		if recLen == 0 || int(recLen) > len(b)-off {
			return nil, newErr(KindInconsistentAttributeList, "$ATTRIBUTE_LIST entry length out of bounds", nil)
		}

		entry := attributeListEntry{
			Type:     AttrType(typ),
			StartVCN: startVCN,
			FileRef:  fileRef,
			AttrID:   attrID,
		}
		if nameLen > 0 {
			start := off + nameOff
			end := start + nameLen*2
			if end > off+int(recLen) || end > len(b) {
				return nil, newErr(KindInconsistentAttributeList, "$ATTRIBUTE_LIST entry name out of bounds", nil)
			}
			entry.Name = decodeUTF16(b[start:end])
		}
		entries = append(entries, entry)
		off += int(recLen)
	}
	return entries, nil
}

func leUint16(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }
func leUint32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }
func leUint64(b []byte) uint64 { return binary.LittleEndian.Uint64(b) }

// foldAttributeList resolves a base record's $ATTRIBUTE_LIST, if present,
// by loading each referenced extension record via loadExtension and merging
// its attributes into e. When the list itself is non-resident, its value is
// read from its own runlist via readAttrList, which callers build as a
// ClusterStream over the attribute so this package stays independent of the
// cluster stream implementation's caller (see MFTVector.readAttributeList).
func foldAttributeList(e *MFTEntry, loadExtension func(ref FileReference) ([]byte, error), readAttrList func(attr *Attribute) ([]byte, error), baseIndex uint64) error {
	listAttr := findAttributeListAttr(e)
	if listAttr == nil {
		return nil
	}

	var listData []byte
	if listAttr.NonResident {
		data, err := readNonResidentAttributeList(listAttr, readAttrList, baseIndex)
		if err != nil {
			return err
		}
		listData = data
	} else {
		listData = listAttr.ResidentValue()
	}

	entries, err := decodeAttributeListEntries(listData)
	if err != nil {
		return err
	}

	visited := map[uint64]bool{baseIndex: true}
	for _, ent := range entries {
		if ent.FileRef.Index() == baseIndex {
			continue
		}
		if visited[ent.FileRef.Index()] {
			continue
		}
		visited[ent.FileRef.Index()] = true

		block, err := loadExtension(ent.FileRef)
		if err != nil {
			return newErrf(KindInconsistentAttributeList, err, "loading extension record %d for base %d", ent.FileRef.Index(), baseIndex)
		}
		ext, err := parseMFTRecord(block, ent.FileRef.Index(), nil, nil)
		if err != nil {
			return newErrf(KindInconsistentAttributeList, err, "parsing extension record %d", ent.FileRef.Index())
		}
		if ext.BaseRecord.Index() != baseIndex {
			return newErrf(KindInconsistentAttributeList, nil,
				"extension record %d claims base %d, expected %d", ent.FileRef.Index(), ext.BaseRecord.Index(), baseIndex)
		}

		mergeExtensionAttributes(e, ext)
	}

	return nil
}

func findAttributeListAttr(e *MFTEntry) *Attribute {
	for _, a := range e.Other {
		if a.Type == AttrAttributeList {
			return a
		}
	}
	return nil
}

// readNonResidentAttributeList materializes a non-resident $ATTRIBUTE_LIST
// value via readAttrList, which reads attr's own DataSize bytes through its
// own runlist (a ClusterStream, not a file-reference-keyed record load).
// Attribute lists are always small; reading them whole is fine.
func readNonResidentAttributeList(attr *Attribute, readAttrList func(attr *Attribute) ([]byte, error), baseIndex uint64) ([]byte, error) {
	if readAttrList == nil {
		return nil, newErrf(KindUnsupportedFeature, nil, "no non-resident $ATTRIBUTE_LIST reader available for base record %d", baseIndex)
	}
	data, err := readAttrList(attr)
	if err != nil {
		return nil, newErrf(KindIO, err, "reading non-resident $ATTRIBUTE_LIST for base record %d", baseIndex)
	}
	return data, nil
}

// mergeExtensionAttributes copies a parsed extension record's classified
// attributes into the base entry, keeping the base's own values when both
// declare the same single-valued attribute (i.e. trusting the base record's
// $STANDARD_INFORMATION over a duplicate, which should not occur).
func mergeExtensionAttributes(base, ext *MFTEntry) {
	if base.StandardInformation == nil {
		base.StandardInformation = ext.StandardInformation
	}
	base.FileNames = append(base.FileNames, ext.FileNames...)
	base.DataAttrs = append(base.DataAttrs, ext.DataAttrs...)
	if base.IndexRoot == nil {
		base.IndexRoot = ext.IndexRoot
	}
	if base.IndexAllocation == nil {
		base.IndexAllocation = ext.IndexAllocation
	}
	if base.Bitmap == nil {
		base.Bitmap = ext.Bitmap
	}
	if base.ObjectID == nil {
		base.ObjectID = ext.ObjectID
	}
	if base.ReparsePoint == nil {
		base.ReparsePoint = ext.ReparsePoint
	}
	base.Other = append(base.Other, ext.Other...)
	base.Warnings = append(base.Warnings, ext.Warnings...)
}
