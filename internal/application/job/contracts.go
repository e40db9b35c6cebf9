package job

import (
	"context"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/job"
)

// Row is one record moving through an import or export
type Row map[string]string

// RowReader pulls rows out of a job's attached source in bounded chunks
type RowReader interface {
	// TechnicalName identifies the reader in profile configuration
	TechnicalName() string
	// RequiresHeader reports whether the source carries a header row that
	// the profile must validate
	RequiresHeader() bool
	// FileBased reports whether the reader consumes an attached document
	FileBased() bool
	// MimeType is the expected mime type of the attached document
	MimeType() string
	// ReadHeader returns the source's header row
	ReadHeader(ctx context.Context, jobID uuid.UUID) ([]string, error)
	// ReadChunk returns up to limit rows starting at offset plus the
	// total row count of the source
	ReadChunk(ctx context.Context, jobID uuid.UUID, offset, limit int) ([]Row, int, error)
}

// ImportProfile defines one import kind: where rows come from and what a
// row does to the system
type ImportProfile interface {
	TechnicalName() string
	// Reader returns the configured row reader, nil when none is set up.
	// Headless imports fed from internal sources stage their rows
	// directly and skip the reader entirely.
	Reader() RowReader
	// ValidateHeader checks the source's header row against the profile
	ValidateHeader(header []string) error
	// ProcessRow applies one row. A returned error is recorded against
	// the row and does not abort the job.
	ProcessRow(ctx context.Context, row Row) error
}

// ExportProfile defines one export kind: the queried rows and their file
// representation
type ExportProfile interface {
	TechnicalName() string
	// FetchChunk returns up to limit rows starting at offset plus the
	// total row count
	FetchChunk(ctx context.Context, offset, limit int) ([]Row, int, error)
	// Header returns the output file's header record
	Header() []string
	// FormatRow renders one row as an output record
	FormatRow(row Row) []string
}

// ProfileRegistry resolves profiles by technical name
type ProfileRegistry interface {
	ImportProfile(technicalName string) (ImportProfile, bool)
	ExportProfile(technicalName string) (ExportProfile, bool)
}

// Document is the metadata of a file attached to a job
type Document struct {
	Name     string
	MimeType string
}

// DocumentStore resolves a job's attached document
type DocumentStore interface {
	FindByJob(ctx context.Context, jobID uuid.UUID) (*Document, error)
}

// RowStager buffers rows between the reading and running phases so a
// crash never re-reads the source file
type RowStager interface {
	Stage(ctx context.Context, jobID uuid.UUID, offset int, rows []Row) error
	Fetch(ctx context.Context, jobID uuid.UUID, offset, limit int) ([]Row, error)
	Count(ctx context.Context, jobID uuid.UUID) (int, error)
	Clear(ctx context.Context, jobID uuid.UUID) error
}

// FileSink receives an export's output records chunk by chunk and
// produces the final artifact
type FileSink interface {
	Append(ctx context.Context, jobID uuid.UUID, records [][]string) error
	// HasOpen reports whether the job's artifact is open from an earlier
	// Append. False after a process restart: the write phase must start
	// the artifact over.
	HasOpen(jobID uuid.UUID) bool
	// Finalize closes the artifact and returns its location
	Finalize(ctx context.Context, jobID uuid.UUID) (string, error)
}

// StepOutcome tells the runner what one chunk call achieved
type StepOutcome int

const (
	// OutcomeRepeat re-enqueues the same state with the advanced cursor
	OutcomeRepeat StepOutcome = iota
	// OutcomeAdvance moves to the next state with a fresh cursor
	OutcomeAdvance
	// OutcomeDone means the handler terminalized the job itself
	OutcomeDone
)

// StepHandler processes one bounded chunk of one pipeline state. Chunk
// sizing is handler-defined and targets roughly one second of work.
type StepHandler interface {
	Handle(ctx context.Context, j *job.ResumableJob) (StepOutcome, error)
}

// StepHandlerFunc adapts a function to StepHandler
type StepHandlerFunc func(ctx context.Context, j *job.ResumableJob) (StepOutcome, error)

// Handle calls the function
func (f StepHandlerFunc) Handle(ctx context.Context, j *job.ResumableJob) (StepOutcome, error) {
	return f(ctx, j)
}
