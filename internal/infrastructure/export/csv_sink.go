package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	appjob "github.com/wms/backend/internal/application/job"
)

// CSVFileSink writes export records into one CSV file per job under a
// configured directory. Append keeps the file open across chunks;
// Finalize flushes, closes and hands back the artifact's path.
type CSVFileSink struct {
	directory string

	mu   sync.Mutex
	open map[uuid.UUID]*openFile
}

type openFile struct {
	file   *os.File
	writer *csv.Writer
}

// NewCSVFileSink creates a sink writing into the given directory
func NewCSVFileSink(directory string) (*CSVFileSink, error) {
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	return &CSVFileSink{
		directory: directory,
		open:      make(map[uuid.UUID]*openFile),
	}, nil
}

// Append writes records to the job's file, creating it on first use.
// Creation truncates any partial file a crash left behind; the write
// phase checks HasOpen and restarts from offset zero in that case.
func (s *CSVFileSink) Append(ctx context.Context, jobID uuid.UUID, records [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	of, ok := s.open[jobID]
	if !ok {
		file, err := os.Create(s.path(jobID))
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		of = &openFile{file: file, writer: csv.NewWriter(file)}
		s.open[jobID] = of
	}

	for _, record := range records {
		if err := of.writer.Write(record); err != nil {
			return fmt.Errorf("write export record: %w", err)
		}
	}
	of.writer.Flush()
	return of.writer.Error()
}

// HasOpen reports whether the job's file is open from an earlier Append
func (s *CSVFileSink) HasOpen(jobID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.open[jobID]
	return ok
}

// Finalize closes the job's file and returns its path
func (s *CSVFileSink) Finalize(ctx context.Context, jobID uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	of, ok := s.open[jobID]
	if !ok {
		// export without a single record still produces an artifact
		file, err := os.Create(s.path(jobID))
		if err != nil {
			return "", fmt.Errorf("create export file: %w", err)
		}
		if err := file.Close(); err != nil {
			return "", err
		}
		return s.path(jobID), nil
	}

	of.writer.Flush()
	if err := of.writer.Error(); err != nil {
		of.file.Close()
		delete(s.open, jobID)
		return "", fmt.Errorf("flush export file: %w", err)
	}
	if err := of.file.Close(); err != nil {
		delete(s.open, jobID)
		return "", err
	}
	delete(s.open, jobID)
	return s.path(jobID), nil
}

func (s *CSVFileSink) path(jobID uuid.UUID) string {
	return filepath.Join(s.directory, fmt.Sprintf("export-%s.csv", jobID))
}

var _ appjob.FileSink = (*CSVFileSink)(nil)
