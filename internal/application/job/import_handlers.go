package job

import (
	"context"
	"fmt"

	"github.com/wms/backend/internal/domain/job"
	"go.uber.org/zap"
)

// DefaultChunkSize bounds one chunk of rows. Sized so a chunk takes
// roughly one second of processing, which also bounds the work lost to a
// crash between two chunks.
const DefaultChunkSize = 500

// chunkCursor is the persisted position inside one chunked phase
type chunkCursor struct {
	Offset int `json:"offset"`
}

// ImportHandlers implements the import pipeline's per-state chunk
// handlers
type ImportHandlers struct {
	profiles  ProfileRegistry
	documents DocumentStore
	stager    RowStager
	chunkSize int
	logger    *zap.Logger
}

// NewImportHandlers creates the import handlers
func NewImportHandlers(profiles ProfileRegistry, documents DocumentStore, stager RowStager, logger *zap.Logger) *ImportHandlers {
	return &ImportHandlers{
		profiles:  profiles,
		documents: documents,
		stager:    stager,
		chunkSize: DefaultChunkSize,
		logger:    logger,
	}
}

// SetChunkSize overrides the rows-per-chunk bound
func (h *ImportHandlers) SetChunkSize(size int) {
	if size > 0 {
		h.chunkSize = size
	}
}

// RegisterOn binds the handlers to the runner's import states
func (h *ImportHandlers) RegisterOn(runner *StepRunner) {
	runner.Register(job.JobTypeImport, job.JobStateValidatingFile, StepHandlerFunc(h.Validate))
	runner.Register(job.JobTypeImport, job.JobStateReadingFile, StepHandlerFunc(h.Read))
	runner.Register(job.JobTypeImport, job.JobStateRunning, StepHandlerFunc(h.Run))
	runner.Register(job.JobTypeImport, job.JobStateWritingFile, StepHandlerFunc(h.Finish))
}

// Validate checks the profile configuration and the attached document.
// Every finding is collected before the job fails so the user sees the
// whole report at once.
func (h *ImportHandlers) Validate(ctx context.Context, j *job.ResumableJob) (StepOutcome, error) {
	profile, ok := h.profiles.ImportProfile(j.ProfileTechnicalName)
	if !ok {
		j.RecordValidationErrors([]string{
			fmt.Sprintf("unknown import profile %q", j.ProfileTechnicalName),
		})
		return OutcomeDone, nil
	}

	var findings []string
	reader := profile.Reader()
	if reader == nil || reader.TechnicalName() == "" {
		findings = append(findings, "no reader configured for import profile")
	} else {
		if reader.RequiresHeader() {
			header, err := reader.ReadHeader(ctx, j.ID)
			if err != nil {
				findings = append(findings, fmt.Sprintf("header could not be read: %v", err))
			} else if err := profile.ValidateHeader(header); err != nil {
				findings = append(findings, err.Error())
			}
		}
		if reader.FileBased() {
			doc, err := h.documents.FindByJob(ctx, j.ID)
			if err != nil {
				return OutcomeDone, fmt.Errorf("lookup attached document: %w", err)
			}
			switch {
			case doc == nil:
				findings = append(findings, "no document attached to the import")
			case doc.MimeType != reader.MimeType():
				findings = append(findings, fmt.Sprintf(
					"attached document has mime type %s, expected %s", doc.MimeType, reader.MimeType()))
			}
		}
	}

	if len(findings) > 0 {
		j.RecordValidationErrors(findings)
		return OutcomeDone, nil
	}
	return OutcomeAdvance, nil
}

// Read pulls one chunk of rows from the source into the staging area.
// Repeats with an advanced cursor until the source is exhausted.
func (h *ImportHandlers) Read(ctx context.Context, j *job.ResumableJob) (StepOutcome, error) {
	profile, ok := h.profiles.ImportProfile(j.ProfileTechnicalName)
	if !ok {
		return OutcomeDone, fmt.Errorf("unknown import profile %q", j.ProfileTechnicalName)
	}
	reader := profile.Reader()
	if reader == nil {
		// headless import, rows were staged by the producer
		total, err := h.stager.Count(ctx, j.ID)
		if err != nil {
			return OutcomeDone, fmt.Errorf("count staged rows: %w", err)
		}
		j.SetProgress(0, total)
		return OutcomeAdvance, nil
	}

	var cursor chunkCursor
	if err := j.Cursor(&cursor); err != nil {
		return OutcomeDone, err
	}

	rows, total, err := reader.ReadChunk(ctx, j.ID, cursor.Offset, h.chunkSize)
	if err != nil {
		return OutcomeDone, fmt.Errorf("read source chunk: %w", err)
	}
	if len(rows) > 0 {
		if err := h.stager.Stage(ctx, j.ID, cursor.Offset, rows); err != nil {
			return OutcomeDone, fmt.Errorf("stage rows: %w", err)
		}
	}

	next := cursor.Offset + len(rows)
	j.SetProgress(next, total)
	if next >= total || len(rows) == 0 {
		return OutcomeAdvance, nil
	}
	if err := j.SetCursor(chunkCursor{Offset: next}); err != nil {
		return OutcomeDone, err
	}
	return OutcomeRepeat, nil
}

// Run applies one chunk of staged rows. A failing row is recorded
// against its position and does not abort the chunk.
func (h *ImportHandlers) Run(ctx context.Context, j *job.ResumableJob) (StepOutcome, error) {
	profile, ok := h.profiles.ImportProfile(j.ProfileTechnicalName)
	if !ok {
		return OutcomeDone, fmt.Errorf("unknown import profile %q", j.ProfileTechnicalName)
	}

	total, err := h.stager.Count(ctx, j.ID)
	if err != nil {
		return OutcomeDone, fmt.Errorf("count staged rows: %w", err)
	}

	var cursor chunkCursor
	if err := j.Cursor(&cursor); err != nil {
		return OutcomeDone, err
	}

	rows, err := h.stager.Fetch(ctx, j.ID, cursor.Offset, h.chunkSize)
	if err != nil {
		return OutcomeDone, fmt.Errorf("fetch staged rows: %w", err)
	}
	for i, row := range rows {
		if err := profile.ProcessRow(ctx, row); err != nil {
			j.RecordRowError(cursor.Offset+i+1, err.Error())
		}
	}

	next := cursor.Offset + len(rows)
	j.SetProgress(next, total)
	if next >= total || len(rows) == 0 {
		return OutcomeAdvance, nil
	}
	if err := j.SetCursor(chunkCursor{Offset: next}); err != nil {
		return OutcomeDone, err
	}
	return OutcomeRepeat, nil
}

// Finish clears the staging area and terminalizes the import
func (h *ImportHandlers) Finish(ctx context.Context, j *job.ResumableJob) (StepOutcome, error) {
	if err := h.stager.Clear(ctx, j.ID); err != nil {
		return OutcomeDone, fmt.Errorf("clear staged rows: %w", err)
	}
	if err := j.Complete(); err != nil {
		return OutcomeDone, err
	}
	h.logger.Info("import finished",
		zap.String("job_id", j.ID.String()),
		zap.String("state", j.State.String()),
		zap.Int("rows", j.TotalNumberOfItems),
		zap.Int("row_errors", len(j.Errors)))
	return OutcomeDone, nil
}
