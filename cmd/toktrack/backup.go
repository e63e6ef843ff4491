package main

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"

	"github.com/wfarley16/toktrack/internal/pricing"
	"github.com/wfarley16/toktrack/internal/types"
)

// backupFormatVersion is a semver tag for the backup archive's manifest
// shape, independent of types.CacheVersion (which tags the per-parser
// cache file schema carried inside the archive unchanged).
const backupFormatVersion = "v1.0.0"

type backupManifest struct {
	FormatVersion string   `json:"format_version"`
	CacheVersion  uint32   `json:"cache_version"`
	CreatedAt     int64    `json:"created_at"`
	Files         []string `json:"files"`
}

// NewBackupCommand archives the cache, pricing, and session-sidecar
// directories under <home>/.toktrack/ into a single zip file.
func NewBackupCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Archive the cache, pricing, and session sidecar files",
		RunE: func(_ *cobra.Command, _ []string) error {
			if !semver.IsValid(backupFormatVersion) {
				return fmt.Errorf("internal error: invalid backup format version %q", backupFormatVersion)
			}

			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("resolving home directory: %w", err)
			}
			root := filepath.Join(home, ".toktrack")

			if output == "" {
				output = fmt.Sprintf("toktrack-backup-%s.zip", time.Now().UTC().Format("20060102-150405"))
			}

			refreshPricingBeforeBackup(root)

			return writeBackupArchive(root, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "archive path (default toktrack-backup-<timestamp>.zip)")
	return cmd
}

// refreshPricingBeforeBackup force-refetches the pricing table so the
// archived pricing.json isn't stale at export time. A failure here is
// non-fatal: the backup proceeds with whatever pricing cache exists.
func refreshPricingBeforeBackup(root string) {
	path := filepath.Join(root, "pricing.json")
	ps, err := pricing.FromCacheOnlyWithPath(path)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = ps.Refresh(ctx)
}

func writeBackupArchive(root, output string) error {
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	defer zw.Close()

	var files []string
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if err := addFileToZip(zw, path, rel); err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return fmt.Errorf("archiving %s: %w", root, err)
	}

	manifest := backupManifest{
		FormatVersion: backupFormatVersion,
		CacheVersion:  types.CacheVersion,
		CreatedAt:     time.Now().Unix(),
		Files:         files,
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	w, err := zw.Create("manifest.json")
	if err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}

	fmt.Printf("Wrote %s (%d files)\n", output, len(files))
	return nil
}

func addFileToZip(zw *zip.Writer, path, name string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
