// Package convert rewrites templates written in the legacy block-tag
// dialect ({% if %}, {# #}, {{ var }}) into the handlebars-style dialect the
// renderer expects ({{#if}}, {{!-- --}}, {{var}}).
//
// Files are processed one at a time in directory order. A failure on one
// file is recorded in its report and does not stop the others. When
// applying, the original content is written to a sibling backup and
// verified before the file is replaced.
package convert

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/sessionforge/sessionforge/pkg/fsutil"
	"golang.org/x/crypto/blake2b"
)

const (
	// DefaultDir is the conventional templates directory.
	DefaultDir = "sessionforge/templates"

	// DefaultExtension marks legacy template files.
	DefaultExtension = ".tmpl"

	// BackupSuffix is appended to a file name to form its backup.
	BackupSuffix = ".bak"
)

// Status is the outcome for one file.
type Status string

const (
	// StatusUnchanged means no legacy syntax was found.
	StatusUnchanged Status = "unchanged"

	// StatusWouldConvert means legacy syntax was found in a dry run.
	StatusWouldConvert Status = "would_convert"

	// StatusConverted means the file was backed up and rewritten.
	StatusConverted Status = "converted"

	// StatusFailed means the file could not be processed.
	StatusFailed Status = "failed"
)

// FileReport is the change summary for one file.
type FileReport struct {
	Path         string `json:"path" yaml:"path"`
	Status       Status `json:"status" yaml:"status"`
	Counts       Counts `json:"counts" yaml:"counts"`
	BytesBefore  int    `json:"bytes_before" yaml:"bytes_before"`
	BytesAfter   int    `json:"bytes_after" yaml:"bytes_after"`
	DigestBefore string `json:"digest_before,omitempty" yaml:"digest_before,omitempty"`
	DigestAfter  string `json:"digest_after,omitempty" yaml:"digest_after,omitempty"`
	Backup       string `json:"backup,omitempty" yaml:"backup,omitempty"`
	Error        string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summary is the result of converting a directory.
type Summary struct {
	Dir    string       `json:"dir" yaml:"dir"`
	DryRun bool         `json:"dry_run" yaml:"dry_run"`
	Files  []FileReport `json:"files" yaml:"files"`
	Totals Counts       `json:"totals" yaml:"totals"`
}

// Failed returns the number of files that could not be processed.
func (s *Summary) Failed() int {
	n := 0
	for _, f := range s.Files {
		if f.Status == StatusFailed {
			n++
		}
	}
	return n
}

// Changed returns the number of files converted or that would be.
func (s *Summary) Changed() int {
	n := 0
	for _, f := range s.Files {
		if f.Status == StatusConverted || f.Status == StatusWouldConvert {
			n++
		}
	}
	return n
}

// Options configures a Converter.
type Options struct {
	// DryRun reports changes without writing anything.
	DryRun bool

	// Extension selects the files to convert. Defaults to DefaultExtension.
	Extension string
}

// Converter converts legacy templates on disk.
type Converter struct {
	logger zerolog.Logger
	opts   Options
}

// NewConverter creates a converter.
func NewConverter(logger zerolog.Logger, opts Options) *Converter {
	if opts.Extension == "" {
		opts.Extension = DefaultExtension
	}
	return &Converter{
		logger: logger.With().Str("component", "template-converter").Logger(),
		opts:   opts,
	}
}

// ConvertDir converts every matching file directly inside dir. The returned
// error is non-nil only when dir itself cannot be listed or ctx is done;
// per-file failures are in the summary.
func (c *Converter) ConvertDir(ctx context.Context, dir string) (*Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates directory: %w", err)
	}

	summary := &Summary{Dir: dir, DryRun: c.opts.DryRun}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if !entry.Type().IsRegular() || filepath.Ext(entry.Name()) != c.opts.Extension {
			continue
		}

		report := c.ConvertFile(filepath.Join(dir, entry.Name()))
		summary.Files = append(summary.Files, report)
		summary.Totals = summary.Totals.Add(report.Counts)
	}

	c.logger.Info().
		Str("dir", dir).
		Bool("dry_run", c.opts.DryRun).
		Int("files", len(summary.Files)).
		Int("changed", summary.Changed()).
		Int("failed", summary.Failed()).
		Msg("Template conversion finished")

	return summary, nil
}

// ConvertFile converts a single file. It never returns an error; failures
// are reported with StatusFailed.
func (c *Converter) ConvertFile(path string) FileReport {
	report := FileReport{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		return c.fail(report, err)
	}
	original, err := os.ReadFile(path)
	if err != nil {
		return c.fail(report, err)
	}

	converted, counts := Rewrite(original)
	report.Counts = counts
	report.BytesBefore = len(original)
	report.BytesAfter = len(converted)
	report.DigestBefore = digest(original)

	if counts.Total() == 0 {
		report.Status = StatusUnchanged
		c.logger.Debug().Str("path", path).Msg("No legacy syntax found")
		return report
	}

	report.DigestAfter = digest(converted)

	if c.opts.DryRun {
		report.Status = StatusWouldConvert
		return report
	}

	backup := path + BackupSuffix
	if err := writeBackup(backup, original, info.Mode().Perm()); err != nil {
		return c.fail(report, err)
	}
	report.Backup = backup

	if err := fsutil.AtomicWrite(path, converted, info.Mode().Perm()); err != nil {
		return c.fail(report, fmt.Errorf("failed to write converted template: %w", err))
	}

	report.Status = StatusConverted
	c.logger.Debug().
		Str("path", path).
		Str("backup", backup).
		Int("rewrites", counts.Total()).
		Msg("Template converted")

	return report
}

func (c *Converter) fail(report FileReport, err error) FileReport {
	report.Status = StatusFailed
	report.Error = err.Error()
	c.logger.Warn().Err(err).Str("path", report.Path).Msg("Template conversion failed")
	return report
}

// ErrBackupMismatch is returned when a written backup does not read back
// identical to the original.
var ErrBackupMismatch = errors.New("backup content does not match original")

// writeBackup durably writes the backup and reads it back. The original is
// only replaced after this succeeds.
func writeBackup(path string, data []byte, perm os.FileMode) error {
	if err := fsutil.AtomicWrite(path, data, perm); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	written, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to verify backup: %w", err)
	}
	if digest(written) != digest(data) {
		return fmt.Errorf("%s: %w", path, ErrBackupMismatch)
	}
	return nil
}

// digest is the hex BLAKE2b-256 of data.
func digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
