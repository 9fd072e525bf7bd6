package ntfs

import (
	"sync"
	"sync/atomic"

	"github.com/s0up4200/go-ntfs/internal/fs/image"
)

// Volume is the engine's public façade over one mounted NTFS volume image:
// boot parameters, the bootstrapped MFT vector, and the $UpCase collation
// table needed to walk directory indices.
type Volume struct {
	img    image.Reader
	boot   *BootParameters
	mft    *MFTVector
	upCase *UpCaseTable

	mu      sync.Mutex
	aborted atomic.Bool

	UpCaseFallbackWarning string
}

// Options configures OpenVolume.
type Options struct {
	// MFTCacheCapacity bounds the number of parsed MFT records held in the
	// LRU cache. Zero selects a built-in default.
	MFTCacheCapacity int
}

// OpenVolume reads the boot sector, bootstraps the MFT vector, and loads
// the $UpCase collation table from record 10. The returned Volume owns img
// and will close it from Close.
func OpenVolume(img image.Reader, opts Options) (*Volume, error) {
	sector := make([]byte, bootSectorSize)
	if _, err := img.ReadAt(sector, 0); err != nil {
		return nil, newErrf(KindIO, err, "reading boot sector")
	}
	boot, err := ParseBootSector(sector)
	if err != nil {
		return nil, err
	}

	mft, err := OpenMFTVector(img, boot, opts.MFTCacheCapacity)
	if err != nil {
		return nil, err
	}

	vol := &Volume{img: img, boot: boot, mft: mft}

	upCaseEntry, ok, err := mft.Get(MFTRecordUpCase)
	if err != nil {
		return nil, err
	}
	var upCaseData []byte
	if ok {
		if data := upCaseEntry.DefaultDataAttribute(); data != nil {
			stream := newClusterStream(img, data, boot.ClusterSize)
			buf := make([]byte, data.DataSize)
			if _, err := stream.ReadAt(buf, 0); err == nil {
				upCaseData = buf
			}
		}
	}
	vol.upCase, vol.UpCaseFallbackWarning = loadUpCaseTable(upCaseData)

	return vol, nil
}

// Close closes the underlying volume image.
func (vol *Volume) Close() error { return vol.img.Close() }

// Abort requests that any in-flight directory walk or path resolution stop
// at its next checkpoint. It is safe to call from another goroutine.
func (vol *Volume) Abort() { vol.aborted.Store(true) }

func (vol *Volume) checkAborted() error {
	if vol.aborted.Load() {
		return ErrAborted
	}
	return nil
}

// Boot returns the volume's decoded boot parameters.
func (vol *Volume) Boot() *BootParameters { return vol.boot }

// RecordCount returns the number of MFT record slots on the volume.
func (vol *Volume) RecordCount() uint64 { return vol.mft.RecordCount() }

// SerialNumber returns the volume's 64-bit serial number from the boot
// sector.
func (vol *Volume) SerialNumber() uint64 { return vol.boot.VolumeSerial }

// Root returns the root directory entry.
func (vol *Volume) Root() (*DirEntry, bool, error) {
	return vol.GetByIndex(MFTRecordRoot)
}

// GetByIndex returns the directory or file entry at the given MFT index.
func (vol *Volume) GetByIndex(index uint64) (*DirEntry, bool, error) {
	if err := vol.checkAborted(); err != nil {
		return nil, false, err
	}
	vol.mu.Lock()
	defer vol.mu.Unlock()

	entry, ok, err := vol.mft.Get(index)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &DirEntry{vol: vol, mft: entry}, true, nil
}

// GetByPath resolves a backslash-separated, case-insensitive path from the
// volume root and returns the resulting entry.
func (vol *Volume) GetByPath(path string) (*DirEntry, bool, error) {
	if err := vol.checkAborted(); err != nil {
		return nil, false, err
	}
	index, ok, err := vol.ResolvePath(path)
	if err != nil || !ok {
		return nil, ok, err
	}
	return vol.GetByIndex(index)
}
