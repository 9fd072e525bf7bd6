package ntfs

import "strings"

// ResolvePath resolves a backslash-separated path against the volume
// rooted at the record-5 directory, case-insensitively, returning the
// terminal MFT index. An empty path, or "\", resolves to the root
// directory itself. The tri-state return distinguishes "does not exist"
// (ok=false, err=nil) from a corrupt index that prevented resolution.
func (vol *Volume) ResolvePath(path string) (uint64, bool, error) {
	path = strings.Trim(path, `\`)
	if path == "" {
		return MFTRecordRoot, true, nil
	}

	segments := strings.Split(path, `\`)
	current := uint64(MFTRecordRoot)

	for _, seg := range segments {
		if seg == "" {
			continue
		}
		if err := vol.checkAborted(); err != nil {
			return 0, false, err
		}
		entry, ok, err := vol.mft.Get(current)
		if err != nil {
			return 0, false, err
		}
		if !ok || !entry.IsDirectory {
			return 0, false, nil
		}

		child, found, err := vol.lookupDirectoryEntry(entry, seg)
		if err != nil {
			return 0, false, err
		}
		if !found {
			return 0, false, nil
		}
		current = child.Index()
	}

	return current, true, nil
}

// lookupDirectoryEntry resolves a single path segment within a directory's
// B+ tree index, searching the inline $INDEX_ROOT entries first and then
// descending into $INDEX_ALLOCATION nodes as needed.
func (vol *Volume) lookupDirectoryEntry(dir *MFTEntry, name string) (FileReference, bool, error) {
	if dir.IndexRoot == nil {
		return 0, false, newErrf(KindMalformedAttribute, nil, "MFT record %d is a directory with no $INDEX_ROOT", dir.Index)
	}

	rootEntries, err := parseIndexRoot(dir.IndexRoot.ResidentValue())
	if err != nil {
		return 0, false, err
	}

	var readNode func(vcn uint64) ([]IndexEntry, error)
	if dir.IndexAllocation != nil {
		stream := newClusterStream(vol.img, dir.IndexAllocation, vol.boot.ClusterSize)
		nodeSize := vol.boot.IndexBufferSize
		readNode = func(vcn uint64) ([]IndexEntry, error) {
			byteOff := int64(vcn) * int64(vol.boot.ClusterSize)
			buf := make([]byte, nodeSize)
			n, err := stream.ReadAt(buf, byteOff)
			if err != nil {
				return nil, newErrf(KindIO, err, "reading index allocation node at VCN %d", vcn)
			}
			if uint32(n) != nodeSize {
				return nil, newErrf(KindIO, nil, "short read of index allocation node at VCN %d", vcn)
			}
			return parseIndexAllocationNode(buf)
		}
	}

	entry, found, err := lookupIndexEntry(vol.upCase, rootEntries, name, readNode)
	if err != nil || !found {
		return 0, false, err
	}
	return entry.FileRef, true, nil
}
