package batch

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/multierr"

	"github.com/feichai0017/diagnosis-extractor/internal/models"
)

var csvHeader = []string{"Image_Name", "Provisional_Diagnosis"}

// run owns every output handle of a single batch pass. close releases them
// and is safe to call more than once.
type run struct {
	id string

	primaryPath string
	primaryFile *os.File
	primary     *csv.Writer

	rawText   *auxFile
	diagnoses *auxFile
	auxErr    error

	closeOnce sync.Once
	closeErr  error
}

// openRun truncates the primary CSV and writes its header. The auxiliary
// files are only touched when something is appended.
func openRun(id, outputCSV string, cfg *Config) (*run, error) {
	if dir := filepath.Dir(outputCSV); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(outputCSV)
	if err != nil {
		return nil, fmt.Errorf("failed to create output csv: %w", err)
	}

	r := &run{
		id:          id,
		primaryPath: outputCSV,
		primaryFile: f,
		primary:     csv.NewWriter(f),
		rawText:     newAuxFile(cfg.ExtractDir, cfg.RawTextFile),
		diagnoses:   newAuxFile(cfg.ExtractDir, cfg.DiagnosisFile),
	}

	if err := r.writeRow(csvHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	return r, nil
}

// writeRecord appends one row and flushes it so a crash mid-run keeps every
// finished row on disk.
func (r *run) writeRecord(rec models.DiagnosisRecord) error {
	return r.writeRow([]string{rec.ImageName, rec.Diagnosis})
}

func (r *run) writeRow(row []string) error {
	if err := r.primary.Write(row); err != nil {
		return err
	}
	r.primary.Flush()
	return r.primary.Error()
}

// appendRawText and appendDiagnosis never fail the caller; errors are kept
// for the end-of-run summary.
func (r *run) appendRawText(text string) error {
	err := r.rawText.append(text)
	r.auxErr = multierr.Append(r.auxErr, err)
	return err
}

func (r *run) appendDiagnosis(diagnosis string) error {
	err := r.diagnoses.append(diagnosis)
	r.auxErr = multierr.Append(r.auxErr, err)
	return err
}

func (r *run) auxErrors() []error {
	return multierr.Errors(r.auxErr)
}

func (r *run) close() error {
	r.closeOnce.Do(func() {
		r.primary.Flush()
		r.closeErr = multierr.Combine(r.primary.Error(), r.primaryFile.Close())
	})
	return r.closeErr
}

// auxFile is an append-only text stream: one entry per call, newline
// terminated, created on demand, never truncated.
type auxFile struct {
	dir  string
	path string
}

func newAuxFile(dir, name string) *auxFile {
	return &auxFile{dir: dir, path: filepath.Join(dir, name)}
}

func (a *auxFile) append(entry string) error {
	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", a.dir, err)
	}

	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", a.path, err)
	}

	_, werr := f.WriteString(entry + "\n")
	if err := multierr.Combine(werr, f.Close()); err != nil {
		return fmt.Errorf("failed to append to %s: %w", a.path, err)
	}
	return nil
}
