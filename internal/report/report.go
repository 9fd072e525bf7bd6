package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/s0up4200/go-ntfs/internal/fs/ntfs"
	"github.com/s0up4200/go-ntfs/internal/settings"
	"github.com/s0up4200/go-ntfs/internal/util"
)

const productVersion = "0.1.0.0"

// WriteReport renders a textual summary of an opened volume: boot
// parameters, MFT record count, and (unless SummaryOnly) a walk of the
// root directory tree. path overrides settings.ReportFileName when
// non-empty; "-" means stdout. An existing report at the target path is
// backed up by renaming it aside before writing.
func WriteReport(path string, vol *ntfs.Volume, volumeLabel string, st settings.Settings) (string, error) {
	reportName := st.ReportFileName
	if strings.Contains(reportName, "{0}") {
		reportName = strings.ReplaceAll(reportName, "{0}", sanitizeLabel(volumeLabel))
	} else if strings.Contains(reportName, "%s") {
		reportName = fmt.Sprintf(reportName, sanitizeLabel(volumeLabel))
	}
	if reportName != "-" && filepath.Ext(reportName) == "" {
		reportName += ".ntfsinfo"
	}
	if path != "" {
		reportName = path
	}

	if reportName != "-" {
		if _, err := os.Stat(reportName); err == nil {
			backup := fmt.Sprintf("%s.%d", reportName, time.Now().Unix())
			_ = os.Rename(reportName, backup)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-20s%s\n", "Volume Label:", volumeLabel)
	fmt.Fprintf(&b, "%-20s%s\n", "NTFSInfo:", productVersion)
	boot := vol.Boot()
	fmt.Fprintf(&b, "%-20s%d bytes\n", "Cluster Size:", boot.ClusterSize)
	fmt.Fprintf(&b, "%-20s%d bytes\n", "MFT Entry Size:", boot.MFTEntrySize)
	fmt.Fprintf(&b, "%-20s%s\n", "Total Sectors:", util.FormatNumber(int64(boot.TotalSectors)))
	volumeSize := float64(boot.TotalSectors) * float64(boot.BytesPerSector)
	fmt.Fprintf(&b, "%-20s%s\n", "Volume Size:", util.FormatFileSize(volumeSize, st.HumanReadableSizes))
	fmt.Fprintf(&b, "%-20s%s\n", "MFT Record Count:", util.FormatNumber(int64(vol.RecordCount())))
	if vol.UpCaseFallbackWarning != "" {
		fmt.Fprintf(&b, "WARNING: %s\n", vol.UpCaseFallbackWarning)
	}
	b.WriteString("\n")

	if st.SummaryOnly {
		if reportName == "-" {
			_, err := os.Stdout.WriteString(b.String())
			return reportName, err
		}
		return reportName, os.WriteFile(reportName, []byte(b.String()), 0o644)
	}

	root, ok, err := vol.Root()
	if err != nil {
		return reportName, err
	}
	if ok {
		if err := writeTree(&b, root, "", st); err != nil {
			return reportName, err
		}
	}

	if reportName == "-" {
		_, err := os.Stdout.WriteString(b.String())
		return reportName, err
	}
	return reportName, os.WriteFile(reportName, []byte(b.String()), 0o644)
}

// writeTree recursively renders a directory's children, indenting by
// depth. Directories are listed before files at each level when
// GroupByDirectory is set.
func writeTree(b *strings.Builder, dir *ntfs.DirEntry, indent string, st settings.Settings) error {
	children, err := dir.Children()
	if err != nil {
		return err
	}
	if st.GroupByDirectory {
		sortDirsFirst(children)
	}

	for _, child := range children {
		name := child.Name()
		if child.IsDirectory() {
			fmt.Fprintf(b, "%s[%s]\n", indent, name)
			if err := writeTree(b, child, indent+"  ", st); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(b, "%s%-40s%15s\n", indent, name, util.FormatFileSize(float64(child.Size()), st.HumanReadableSizes))
		if st.IncludeStreams {
			for _, streamName := range child.StreamNames() {
				fmt.Fprintf(b, "%s  :%s\n", indent, streamName)
			}
		}
	}
	return nil
}

func sortDirsFirst(entries []*ntfs.DirEntry) {
	n := len(entries)
	out := make([]*ntfs.DirEntry, 0, n)
	for _, e := range entries {
		if e.IsDirectory() {
			out = append(out, e)
		}
	}
	for _, e := range entries {
		if !e.IsDirectory() {
			out = append(out, e)
		}
	}
	copy(entries, out)
}

func sanitizeLabel(label string) string {
	if label == "" {
		return "volume"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, label)
}
