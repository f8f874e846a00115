package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"jobmate/digest-service/internal/model"
)

// Files are the paths of the reports written for one digest.
type Files struct {
	CSV  string
	HTML string
}

// Writer writes CSV and HTML reports under a root directory.
type Writer struct {
	dir string
}

// NewWriter returns a Writer rooted at dir. Reports go to dir/csv and dir/html.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Dir returns the root output directory.
func (w *Writer) Dir() string { return w.dir }

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// BaseName is the file name, without extension, for a digest's reports.
func BaseName(d model.Digest) string {
	profile := unsafeName.ReplaceAllString(d.ProfileID, "_")
	if profile == "" {
		profile = "digest"
	}
	return fmt.Sprintf("%s_%s", profile, d.StartedAt.Format("20060102_150405"))
}

// Write renders d.Jobs in their current order to both formats.
func (w *Writer) Write(d model.Digest, title string) (Files, error) {
	name := BaseName(d)
	files := Files{
		CSV:  filepath.Join(w.dir, "csv", name+".csv"),
		HTML: filepath.Join(w.dir, "html", name+".html"),
	}

	var csvBuf bytes.Buffer
	if err := WriteCSV(&csvBuf, d.Jobs); err != nil {
		return Files{}, err
	}
	if err := writeFile(files.CSV, csvBuf.Bytes()); err != nil {
		return Files{}, err
	}

	var htmlBuf bytes.Buffer
	if err := WriteHTML(&htmlBuf, BuildPage(title, d.StartedAt, d.Jobs)); err != nil {
		return Files{}, err
	}
	if err := writeFile(files.HTML, htmlBuf.Bytes()); err != nil {
		return Files{}, err
	}
	return files, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
