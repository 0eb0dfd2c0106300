package convert

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

const legacyTemplate = `{# Generated for the implementation agent #}
# Implementing {{ component_name }}

{% if has_database_changes %}
Run migrations before starting.
{% endif %}

{% if not_final_session %}
Stop after this session.
{% endif %}
`

func writeTemplate(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestConverter_ConvertFile_Apply(t *testing.T) {
	dir := t.TempDir()
	path := writeTemplate(t, dir, "agent.tmpl", legacyTemplate)

	c := NewConverter(zerolog.Nop(), Options{})
	report := c.ConvertFile(path)

	if report.Status != StatusConverted {
		t.Fatalf("status = %s, error = %s", report.Status, report.Error)
	}

	want := Counts{Comments: 1, Opens: 2, Closes: 2}
	if report.Counts.Comments != want.Comments || report.Counts.Opens != want.Opens || report.Counts.Closes != want.Closes {
		t.Errorf("counts = %+v, want %+v", report.Counts, want)
	}
	if report.Counts.Variables == 0 {
		t.Error("expected a nonzero variable normalization count")
	}
	if report.BytesBefore != len(legacyTemplate) {
		t.Errorf("bytes before = %d, want %d", report.BytesBefore, len(legacyTemplate))
	}

	backup, err := os.ReadFile(path + BackupSuffix)
	if err != nil {
		t.Fatalf("backup not written: %v", err)
	}
	if string(backup) != legacyTemplate {
		t.Error("backup is not byte-identical to the original")
	}
	if report.DigestBefore != digest(backup) {
		t.Error("digest_before does not match the backup")
	}

	converted, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if report.BytesAfter != len(converted) || report.DigestAfter != digest(converted) {
		t.Error("after-size or digest does not match the written file")
	}

	// A second run finds nothing and leaves the file alone.
	if err := os.Remove(path + BackupSuffix); err != nil {
		t.Fatal(err)
	}
	again := c.ConvertFile(path)
	if again.Status != StatusUnchanged || again.Counts.Total() != 0 {
		t.Errorf("second run = %s %+v, want unchanged", again.Status, again.Counts)
	}
	if _, err := os.Stat(path + BackupSuffix); !os.IsNotExist(err) {
		t.Error("second run should not create a backup")
	}
	after, _ := os.ReadFile(path)
	if string(after) != string(converted) {
		t.Error("second run modified the file")
	}
}

func TestConverter_DryRun(t *testing.T) {
	dir := t.TempDir()
	path := writeTemplate(t, dir, "agent.tmpl", legacyTemplate)

	report := NewConverter(zerolog.Nop(), Options{DryRun: true}).ConvertFile(path)
	if report.Status != StatusWouldConvert {
		t.Fatalf("status = %s, want %s", report.Status, StatusWouldConvert)
	}

	content, _ := os.ReadFile(path)
	if string(content) != legacyTemplate {
		t.Error("dry run modified the file")
	}
	if _, err := os.Stat(path + BackupSuffix); !os.IsNotExist(err) {
		t.Error("dry run created a backup")
	}
}

func TestConverter_ConvertDir(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "a.tmpl", legacyTemplate)
	writeTemplate(t, dir, "b.tmpl", "{{component_name}} is already converted\n")
	writeTemplate(t, dir, "notes.md", "{% if x %}ignored{% endif %}")
	if err := os.Mkdir(filepath.Join(dir, "sub.tmpl"), 0755); err != nil {
		t.Fatal(err)
	}

	summary, err := NewConverter(zerolog.Nop(), Options{}).ConvertDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("ConvertDir() error = %v", err)
	}

	if len(summary.Files) != 2 {
		t.Fatalf("processed %d files, want 2", len(summary.Files))
	}
	if filepath.Base(summary.Files[0].Path) != "a.tmpl" || filepath.Base(summary.Files[1].Path) != "b.tmpl" {
		t.Errorf("files not processed in directory order: %v", summary.Files)
	}
	if summary.Changed() != 1 || summary.Failed() != 0 {
		t.Errorf("changed = %d failed = %d, want 1 and 0", summary.Changed(), summary.Failed())
	}
	if summary.Totals.Opens != 2 {
		t.Errorf("total opens = %d, want 2", summary.Totals.Opens)
	}
	if _, err := os.Stat(filepath.Join(dir, "b.tmpl"+BackupSuffix)); !os.IsNotExist(err) {
		t.Error("unchanged file should have no backup")
	}
}

func TestConverter_ContinuesAfterFailure(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	dir := t.TempDir()
	bad := writeTemplate(t, dir, "a.tmpl", legacyTemplate)
	writeTemplate(t, dir, "b.tmpl", legacyTemplate)
	if err := os.Chmod(bad, 0); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(bad, 0644) })

	summary, err := NewConverter(zerolog.Nop(), Options{}).ConvertDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("ConvertDir() error = %v", err)
	}

	if summary.Files[0].Status != StatusFailed || summary.Files[0].Error == "" {
		t.Errorf("first file = %+v, want failed", summary.Files[0])
	}
	if summary.Files[1].Status != StatusConverted {
		t.Errorf("second file status = %s, want converted", summary.Files[1].Status)
	}
}

func TestConverter_MissingDir(t *testing.T) {
	_, err := NewConverter(zerolog.Nop(), Options{}).ConvertDir(context.Background(), filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}
