package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/albapepper/scoracle-standings/internal/standings"
)

// DateLayout is the ISO date used in file names and results.
const DateLayout = "2006-01-02"

// NoTableMessage is the diagnostic written when a page has no tables.
const NoTableMessage = "No table found\n"

// ErrInvalidDate rejects names that are not ISO dates.
var ErrInvalidDate = errors.New("invalid date")

// Paths lists the documents written by a successful run.
type Paths struct {
	JSON string
	CSV  string
}

// Writer persists results under one directory.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter creates a writer for dir. The directory is created on first write.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{dir: dir, logger: logger}
}

// WriteResult writes <date>.json and <date>.csv. Either both end up on
// disk or neither does. A diagnostic left by an earlier run of the same date
// is removed.
func (w *Writer) WriteResult(res *standings.Result) (Paths, error) {
	if err := checkDate(res.Date); err != nil {
		return Paths{}, err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create output dir: %w", err)
	}

	paths := Paths{
		JSON: JSONPath(w.dir, res.Date),
		CSV:  CSVPath(w.dir, res.Date),
	}

	if err := writeAtomic(paths.JSON, func(f io.Writer) error { return EncodeJSON(f, res) }); err != nil {
		return Paths{}, fmt.Errorf("write %s: %w", paths.JSON, err)
	}
	if err := writeAtomic(paths.CSV, func(f io.Writer) error { return EncodeCSV(f, res) }); err != nil {
		if rmErr := os.Remove(paths.JSON); rmErr != nil {
			w.logger.Error("Failed to roll back JSON document", "path", paths.JSON, "error", rmErr)
		}
		return Paths{}, fmt.Errorf("write %s: %w", paths.CSV, err)
	}

	w.logger.Info("Wrote result", "json", paths.JSON, "csv", paths.CSV, "teams", len(res.Teams))
	if err := w.removeStale(ErrorPath(w.dir, res.Date)); err != nil {
		return paths, err
	}
	return paths, nil
}

// WriteNoTable writes the plain-text diagnostic for a page without tables.
// Documents left by an earlier run of the same date are removed.
func (w *Writer) WriteNoTable(date string) (string, error) {
	return w.writeDiagnostic(date, func(f io.Writer) error {
		_, err := io.WriteString(f, NoTableMessage)
		return err
	})
}

// WriteValidationFailure writes the partial result as the diagnostic.
func (w *Writer) WriteValidationFailure(res *standings.Result) (string, error) {
	return w.writeDiagnostic(res.Date, func(f io.Writer) error { return EncodeJSON(f, res) })
}

func (w *Writer) writeDiagnostic(date string, fill func(io.Writer) error) (string, error) {
	if err := checkDate(date); err != nil {
		return "", err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	p := ErrorPath(w.dir, date)
	if err := writeAtomic(p, fill); err != nil {
		return "", fmt.Errorf("write %s: %w", p, err)
	}
	w.logger.Info("Wrote diagnostic", "path", p)
	if err := w.removeStale(JSONPath(w.dir, date), CSVPath(w.dir, date)); err != nil {
		return p, err
	}
	return p, nil
}

// removeStale deletes artifacts of an earlier run on the same date so a
// date never holds both documents and a diagnostic.
func (w *Writer) removeStale(paths ...string) error {
	for _, p := range paths {
		err := os.Remove(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("remove stale %s: %w", p, err)
		}
		w.logger.Info("Removed stale artifact", "path", p)
	}
	return nil
}

// writeAtomic fills a temp file next to path, then renames it into place.
func writeAtomic(path string, fill func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := fill(&buf); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// --------------------------------------------------------------------------
// Paths and lookup
// --------------------------------------------------------------------------

func JSONPath(dir, date string) string  { return filepath.Join(dir, date+".json") }
func CSVPath(dir, date string) string   { return filepath.Join(dir, date+".csv") }
func ErrorPath(dir, date string) string { return filepath.Join(dir, "error_"+date+".log") }

// ValidDate reports whether s is an ISO date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

func checkDate(s string) error {
	if !ValidDate(s) {
		return fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return nil
}

// ReadResult loads <date>.json from dir.
func ReadResult(dir, date string) (*standings.Result, error) {
	data, err := ReadDocument(dir, date)
	if err != nil {
		return nil, err
	}
	var res standings.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decode %s: %w", JSONPath(dir, date), err)
	}
	return &res, nil
}

// Artifact is the content of one persisted file together with the file
// information read from the same open handle.
type Artifact struct {
	Data []byte
	Info os.FileInfo
}

// ReadDocument returns the raw bytes of <date>.json.
func ReadDocument(dir, date string) ([]byte, error) {
	a, err := LoadDocument(dir, date)
	return a.Data, err
}

// ReadTabular returns the raw bytes of <date>.csv.
func ReadTabular(dir, date string) ([]byte, error) {
	a, err := LoadTabular(dir, date)
	return a.Data, err
}

// LoadDocument reads <date>.json along with its file information.
func LoadDocument(dir, date string) (Artifact, error) {
	if err := checkDate(date); err != nil {
		return Artifact{}, err
	}
	return loadArtifact(JSONPath(dir, date))
}

// LoadTabular reads <date>.csv along with its file information.
func LoadTabular(dir, date string) (Artifact, error) {
	if err := checkDate(date); err != nil {
		return Artifact{}, err
	}
	return loadArtifact(CSVPath(dir, date))
}

func loadArtifact(path string) (Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return Artifact{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Artifact{}, err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return Artifact{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Artifact{Data: data, Info: info}, nil
}

// ListDates returns the dates with a structured document, newest first.
func ListDates(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	dates := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, ok := strings.CutSuffix(e.Name(), ".json")
		if ok && ValidDate(name) {
			dates = append(dates, name)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

// LatestDate returns the newest date with a structured document, or
// os.ErrNotExist when there is none.
func LatestDate(dir string) (string, error) {
	dates, err := ListDates(dir)
	if err != nil {
		return "", err
	}
	if len(dates) == 0 {
		return "", os.ErrNotExist
	}
	return dates[0], nil
}
