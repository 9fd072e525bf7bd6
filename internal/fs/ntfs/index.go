package ntfs

import (
	"encoding/binary"
)

// IndexEntry is one decoded entry of a directory's B+ tree index: a
// $FILE_NAME key plus the file reference it names, and (if present) the
// VCN of the subnode holding entries collating before this one.
type IndexEntry struct {
	FileRef   FileReference
	Name      *FileName
	HasSubnode bool
	SubnodeVCN uint64
	IsEnd      bool
}

const (
	indxMagicOff     = 0
	indxUSAOffsetOff = 4
	indxUSACountOff  = 6
	indxVCNOff       = 16
	indxHeaderOff    = 24 // index header starts here in an INDX node
)

// indexHeader is the common header preceding a run of index entries, found
// both inside $INDEX_ROOT (at a fixed offset) and at the start of each
// $INDEX_ALLOCATION node's payload (after the "INDX" record header).
type indexHeader struct {
	firstEntryOff uint32
	totalSize     uint32
	allocSize     uint32
}

func parseIndexHeader(b []byte) (indexHeader, error) {
	if len(b) < 16 {
		return indexHeader{}, newErr(KindMalformedAttribute, "index header truncated", nil)
	}
	return indexHeader{
		firstEntryOff: binary.LittleEndian.Uint32(b[0:4]),
		totalSize:     binary.LittleEndian.Uint32(b[4:8]),
		allocSize:     binary.LittleEndian.Uint32(b[8:12]),
	}, nil
}

// decodeIndexEntries walks a run of index entries starting at base+header
// relative offsets, stopping at the end-marker entry.
func decodeIndexEntries(base []byte, hdr indexHeader) ([]IndexEntry, error) {
	var entries []IndexEntry
	off := int(hdr.firstEntryOff)
	end := int(hdr.totalSize)
	if end > len(base) {
		end = len(base)
	}

	for off+16 <= end {
		entryLen := binary.LittleEndian.Uint16(base[off+8:])
		keyLen := binary.LittleEndian.Uint16(base[off+10:])
		flags := binary.LittleEndian.Uint16(base[off+12:])
		if entryLen < 16 || off+int(entryLen) > len(base) {
			return nil, newErr(KindMalformedAttribute, "index entry length out of bounds", nil)
		}

		e := IndexEntry{
			HasSubnode: flags&indexEntryHasSubnode != 0,
			IsEnd:      flags&indexEntryEnd != 0,
		}
		if !e.IsEnd {
			e.FileRef = FileReference(binary.LittleEndian.Uint64(base[off:]))
			if int(keyLen) >= 66 {
				fn, err := ParseFileName(base[off+16 : off+16+int(keyLen)])
				if err != nil {
					return nil, err
				}
				e.Name = fn
			}
		}
		if e.HasSubnode {
			subOff := off + int(entryLen) - 8
			if subOff < off || subOff+8 > len(base) {
				return nil, newErr(KindMalformedAttribute, "index entry subnode VCN out of bounds", nil)
			}
			e.SubnodeVCN = binary.LittleEndian.Uint64(base[subOff:])
		}

		entries = append(entries, e)
		if e.IsEnd {
			break
		}
		off += int(entryLen)
	}

	return entries, nil
}

// parseIndexRoot decodes a directory's $INDEX_ROOT resident body into its
// top-level run of index entries.
func parseIndexRoot(b []byte) ([]IndexEntry, error) {
	if len(b) < 16 {
		return nil, newErr(KindMalformedAttribute, "$INDEX_ROOT truncated", nil)
	}
	hdr, err := parseIndexHeader(b[16:])
	if err != nil {
		return nil, err
	}
	return decodeIndexEntries(b[16:], hdr)
}

// parseIndexAllocationNode decodes one fixup-protected "INDX" node read
// from an $INDEX_ALLOCATION stream at a node boundary (recordSize bytes).
func parseIndexAllocationNode(block []byte) ([]IndexEntry, error) {
	buf := make([]byte, len(block))
	copy(buf, block)

	if len(buf) < indxHeaderOff || string(buf[0:4]) != indexNodeMagic {
		return nil, newErr(KindMalformedAttribute, "INDX node bad signature", nil)
	}
	usaOffset := binary.LittleEndian.Uint16(buf[indxUSAOffsetOff:])
	usaCount := binary.LittleEndian.Uint16(buf[indxUSACountOff:])
	if err := applyFixup(buf, usaOffset, usaCount); err != nil {
		return nil, err
	}

	hdr, err := parseIndexHeader(buf[indxHeaderOff:])
	if err != nil {
		return nil, err
	}
	return decodeIndexEntries(buf[indxHeaderOff:], hdr)
}

// walkIndexInOrder performs an in-order traversal of a directory's B+ tree
// index (children collating before an entry are visited before it), calling
// visit for every non-end entry. readNode reads the INDX node at the given
// VCN (already fixup-applied and decoded into entries) — callers resolve
// it through the directory's $INDEX_ALLOCATION cluster stream.
func walkIndexInOrder(entries []IndexEntry, readNode func(vcn uint64) ([]IndexEntry, error), visit func(IndexEntry) error) error {
	for _, e := range entries {
		if e.HasSubnode {
			if readNode == nil {
				return newErr(KindMalformedAttribute, "index entry has subnode but no allocation stream is present", nil)
			}
			children, err := readNode(e.SubnodeVCN)
			if err != nil {
				return err
			}
			if err := walkIndexInOrder(children, readNode, visit); err != nil {
				return err
			}
		}
		if e.IsEnd {
			continue
		}
		if err := visit(e); err != nil {
			return err
		}
	}
	return nil
}

// lookupIndexEntry performs a binary-descent name lookup: at each node it
// compares name against each entry in collation order (NTFS index entries
// within a node are stored in collated order) and either returns a match,
// descends into a subnode, or concludes the name is absent.
func lookupIndexEntry(up *UpCaseTable, entries []IndexEntry, name string, readNode func(vcn uint64) ([]IndexEntry, error)) (IndexEntry, bool, error) {
	for _, e := range entries {
		if !e.IsEnd && e.Name != nil {
			cmp := up.compareNames(name, e.Name.Name)
			if cmp == 0 && acceptableNamespace(e.Name.Namespace) {
				return e, true, nil
			}
			if cmp > 0 {
				continue
			}
		}
		if e.HasSubnode {
			if readNode == nil {
				return IndexEntry{}, false, newErr(KindMalformedAttribute, "index entry has subnode but no allocation stream is present", nil)
			}
			children, err := readNode(e.SubnodeVCN)
			if err != nil {
				return IndexEntry{}, false, err
			}
			return lookupIndexEntry(up, children, name, readNode)
		}
		break
	}
	return IndexEntry{}, false, nil
}

// acceptableNamespace restricts lookup and enumeration to namespaces that
// designate a canonical-enough name (POSIX, Win32, or the combined
// Win32&DOS short name). A bare DOS-only short name (e.g. "PROGRA~1") is
// never itself an acceptable match: every such entry has a companion Win32
// entry carrying the long name, which this already accepts.
func acceptableNamespace(ns Namespace) bool {
	switch ns {
	case NamespacePOSIX, NamespaceWin32, NamespaceWin32DOS:
		return true
	default:
		return false
	}
}
