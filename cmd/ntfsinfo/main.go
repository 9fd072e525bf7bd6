package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/blang/semver"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"

	"github.com/s0up4200/go-ntfs/internal/fs/image"
	"github.com/s0up4200/go-ntfs/internal/fs/ntfs"
	"github.com/s0up4200/go-ntfs/internal/report"
	"github.com/s0up4200/go-ntfs/internal/settings"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ntfsinfo",
		Short: "Read-only inspection of NTFS volume images",
	}
	root.AddCommand(newLsCmd(), newCatCmd(), newReportCmd(), newSelfUpdateCmd())
	return root
}

func openVolume(imagePath string, cacheCapacity int) (*ntfs.Volume, error) {
	img, err := image.Open(imagePath)
	if err != nil {
		return nil, err
	}
	vol, err := ntfs.OpenVolume(img, ntfs.Options{MFTCacheCapacity: cacheCapacity})
	if err != nil {
		_ = img.Close()
		return nil, err
	}
	return vol, nil
}

func newLsCmd() *cobra.Command {
	var cacheCapacity int
	cmd := &cobra.Command{
		Use:   "ls <image> [path]",
		Short: "List a directory's entries",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 1 {
				path = args[1]
			}
			vol, err := openVolume(args[0], cacheCapacity)
			if err != nil {
				return err
			}
			defer vol.Close()

			dir, ok, err := vol.GetByPath(path)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("path not found: %q", path)
			}
			if !dir.IsDirectory() {
				return fmt.Errorf("not a directory: %q", path)
			}
			children, err := dir.Children()
			if err != nil {
				return err
			}
			for _, c := range children {
				marker := " "
				if c.IsDirectory() {
					marker = "d"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %12d %s\n", marker, c.Size(), c.Name())
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&cacheCapacity, "mft-cache", 0, "MFT entry cache capacity (0 = default)")
	return cmd
}

func newCatCmd() *cobra.Command {
	var cacheCapacity int
	var streamName string
	cmd := &cobra.Command{
		Use:   "cat <image> <path>",
		Short: "Print a file's default data stream to stdout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			vol, err := openVolume(args[0], cacheCapacity)
			if err != nil {
				return err
			}
			defer vol.Close()

			entry, ok, err := vol.GetByPath(args[1])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("path not found: %q", args[1])
			}

			var r io.Reader
			if streamName != "" {
				r, err = entry.OpenStream(streamName)
			} else {
				r, err = entry.Open()
			}
			if err != nil {
				return err
			}
			_, err = io.Copy(cmd.OutOrStdout(), r)
			return err
		},
	}
	cmd.Flags().IntVar(&cacheCapacity, "mft-cache", 0, "MFT entry cache capacity (0 = default)")
	cmd.Flags().StringVar(&streamName, "stream", "", "alternate data stream name")
	return cmd
}

func newReportCmd() *cobra.Command {
	var outPath string
	var summaryOnly bool
	var cacheCapacity int
	var rawBytes bool
	cmd := &cobra.Command{
		Use:   "report <image>",
		Short: "Write a volume report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vol, err := openVolume(args[0], cacheCapacity)
			if err != nil {
				return err
			}
			defer vol.Close()

			cwd, _ := os.Getwd()
			st := settings.Default(cwd)
			st.SummaryOnly = summaryOnly
			st.HumanReadableSizes = !rawBytes

			label, err := volumeLabel(vol)
			if err != nil {
				return err
			}

			written, err := report.WriteReport(outPath, vol, label, st)
			if err != nil {
				return err
			}
			if written != "-" {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", written)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "report file path (\"-\" for stdout)")
	cmd.Flags().BoolVarP(&summaryOnly, "summary", "s", false, "write only the summary block")
	cmd.Flags().IntVar(&cacheCapacity, "mft-cache", 0, "MFT entry cache capacity (0 = default)")
	cmd.Flags().BoolVar(&rawBytes, "bytes", false, "report file and volume sizes in raw bytes instead of human-scaled units")
	return cmd
}

func volumeLabel(vol *ntfs.Volume) (string, error) {
	entry, ok, err := vol.GetByIndex(ntfs.MFTRecordVolume)
	if err != nil || !ok {
		return "", err
	}
	return entry.VolumeName(), nil
}

func newSelfUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "self-update",
		Short: "Update ntfsinfo to the latest release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelfUpdate(cmd.Context())
		},
	}
}

func runSelfUpdate(ctx context.Context) error {
	if version == "" || version == "dev" {
		return errors.New("self-update is only available in release builds")
	}

	if _, err := semver.ParseTolerant(version); err != nil {
		return fmt.Errorf("could not parse version: %w", err)
	}

	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug("s0up4200/go-ntfs"))
	if err != nil {
		return fmt.Errorf("error occurred while detecting version: %w", err)
	}
	if !found {
		return fmt.Errorf("latest version for %s could not be found from github repository", version)
	}

	if latest.LessOrEqual(version) {
		fmt.Printf("Current binary is the latest version: %s\n", version)
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}

	if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
		return fmt.Errorf("error occurred while updating binary: %w", err)
	}

	fmt.Printf("Successfully updated to version: %s\n", latest.Version())
	return nil
}
