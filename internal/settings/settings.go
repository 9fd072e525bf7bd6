package settings

import "path/filepath"

// Settings controls how a volume is opened and reported on.
type Settings struct {
	MFTCacheCapacity   int
	ReportFileName     string
	SummaryOnly        bool
	GroupByDirectory   bool
	IncludeStreams     bool
	SelfUpdateCheck    bool
	HumanReadableSizes bool
}

func Default(reportBaseDir string) Settings {
	return Settings{
		MFTCacheCapacity:   1024,
		ReportFileName:     filepath.Join(reportBaseDir, "NTFSInfo_{0}"),
		SummaryOnly:        false,
		GroupByDirectory:   true,
		IncludeStreams:     true,
		SelfUpdateCheck:    true,
		HumanReadableSizes: true,
	}
}
