package ntfs

// Extent is one decoded run of a non-resident attribute's data-run stream:
// a contiguous range of VCNs mapped either to a contiguous range of LCNs, or
// flagged sparse.
type Extent struct {
	VCNStart uint64
	Length   uint64 // in clusters
	LCN      uint64 // meaningless if Sparse
	Sparse   bool
}

// VCNEnd returns the exclusive end VCN of the extent.
func (e Extent) VCNEnd() uint64 { return e.VCNStart + e.Length }

// Runlist is an ordered, VCN-contiguous sequence of extents.
type Runlist []Extent

// decodeRunlist parses a packed data-run stream starting at data[0]: a
// header byte HN|HL (low nibble length-byte count, high nibble LCN-delta-byte
// count), HL bytes of cluster length, then HN bytes of a signed delta added
// to the running LCN. The stream ends at a 0x00 header byte or at the end
// of data. startVCN is the attribute's first VCN.
func decodeRunlist(data []byte, startVCN uint64) (Runlist, error) {
	var runs Runlist
	var lcn int64
	vcn := startVCN
	off := 0

	for off < len(data) {
		header := data[off]
		if header == 0 {
			break
		}
		lengthBytes := int(header & 0x0F)
		offsetBytes := int(header >> 4)
		off++

		if off+lengthBytes+offsetBytes > len(data) {
			return nil, newErr(KindCorruptRunlist, "data run truncated", nil)
		}

		length := decodeUintLE(data[off : off+lengthBytes])
		off += lengthBytes
		if length == 0 {
			return nil, newErr(KindCorruptRunlist, "zero-length data run", nil)
		}

		sparse := offsetBytes == 0
		if !sparse {
			delta := decodeIntLE(data[off:off+offsetBytes], offsetBytes)
			off += offsetBytes
			lcn += delta
			if lcn < 0 {
				return nil, newErr(KindCorruptRunlist, "negative LCN after delta", nil)
			}
		}

		runs = append(runs, Extent{
			VCNStart: vcn,
			Length:   length,
			LCN:      uint64(lcn),
			Sparse:   sparse,
		})
		vcn += length
	}

	return runs, nil
}

func decodeUintLE(b []byte) uint64 {
	var v uint64
	for i, c := range b {
		v |= uint64(c) << (8 * uint(i))
	}
	return v
}

// decodeIntLE decodes a little-endian two's-complement signed integer of n
// bytes (n in 1..8) into an int64, sign-extending from the top bit of the
// last byte.
func decodeIntLE(b []byte, n int) int64 {
	v := decodeUintLE(b)
	if n > 0 && n < 8 && b[n-1]&0x80 != 0 {
		v |= ^uint64(0) << (8 * uint(n))
	}
	return int64(v)
}

// findExtent binary-searches the runlist for the extent containing vcn.
// Returns ok=false if vcn falls in a gap (which would violate the
// contiguity invariant) or past the end of the runlist.
func (rl Runlist) findExtent(vcn uint64) (Extent, bool) {
	lo, hi := 0, len(rl)
	for lo < hi {
		mid := (lo + hi) / 2
		e := rl[mid]
		if vcn < e.VCNStart {
			hi = mid
		} else if vcn >= e.VCNEnd() {
			lo = mid + 1
		} else {
			return e, true
		}
	}
	return Extent{}, false
}

// totalClusters sums the cluster length of all extents, sparse or not.
func (rl Runlist) totalClusters() uint64 {
	var n uint64
	for _, e := range rl {
		n += e.Length
	}
	return n
}

// validateContiguous checks the VCN-contiguity invariant: runs must tile
// [first..last] with no gaps or overlaps.
func (rl Runlist) validateContiguous() error {
	for i := 1; i < len(rl); i++ {
		if rl[i].VCNStart != rl[i-1].VCNEnd() {
			return newErrf(KindCorruptRunlist, nil, "non-contiguous VCN at extent %d: %d != %d", i, rl[i].VCNStart, rl[i-1].VCNEnd())
		}
	}
	return nil
}
