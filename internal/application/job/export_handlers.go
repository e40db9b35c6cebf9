package job

import (
	"context"
	"fmt"

	"github.com/wms/backend/internal/domain/job"
	"go.uber.org/zap"
)

// ExportHandlers implements the export pipeline's per-state chunk
// handlers. Rows are staged during the reading phase so the writing
// phase streams a stable snapshot even when the source tables keep
// changing underneath.
type ExportHandlers struct {
	profiles  ProfileRegistry
	stager    RowStager
	sink      FileSink
	chunkSize int
	logger    *zap.Logger
}

// NewExportHandlers creates the export handlers
func NewExportHandlers(profiles ProfileRegistry, stager RowStager, sink FileSink, logger *zap.Logger) *ExportHandlers {
	return &ExportHandlers{
		profiles:  profiles,
		stager:    stager,
		sink:      sink,
		chunkSize: DefaultChunkSize,
		logger:    logger,
	}
}

// SetChunkSize overrides the rows-per-chunk bound
func (h *ExportHandlers) SetChunkSize(size int) {
	if size > 0 {
		h.chunkSize = size
	}
}

// RegisterOn binds the handlers to the runner's export states
func (h *ExportHandlers) RegisterOn(runner *StepRunner) {
	runner.Register(job.JobTypeExport, job.JobStateValidatingFile, StepHandlerFunc(h.Validate))
	runner.Register(job.JobTypeExport, job.JobStateReadingFile, StepHandlerFunc(h.Read))
	runner.Register(job.JobTypeExport, job.JobStateRunning, StepHandlerFunc(h.Run))
	runner.Register(job.JobTypeExport, job.JobStateWritingFile, StepHandlerFunc(h.Write))
}

// Validate checks that the requested export profile is registered
func (h *ExportHandlers) Validate(ctx context.Context, j *job.ResumableJob) (StepOutcome, error) {
	if _, ok := h.profiles.ExportProfile(j.ProfileTechnicalName); !ok {
		j.RecordValidationErrors([]string{
			fmt.Sprintf("unknown export profile %q", j.ProfileTechnicalName),
		})
		return OutcomeDone, nil
	}
	return OutcomeAdvance, nil
}

// Read pulls one chunk of rows from the profile's query into the
// staging area
func (h *ExportHandlers) Read(ctx context.Context, j *job.ResumableJob) (StepOutcome, error) {
	profile, ok := h.profiles.ExportProfile(j.ProfileTechnicalName)
	if !ok {
		return OutcomeDone, fmt.Errorf("unknown export profile %q", j.ProfileTechnicalName)
	}

	var cursor chunkCursor
	if err := j.Cursor(&cursor); err != nil {
		return OutcomeDone, err
	}

	rows, total, err := profile.FetchChunk(ctx, cursor.Offset, h.chunkSize)
	if err != nil {
		return OutcomeDone, fmt.Errorf("fetch export chunk: %w", err)
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

// Run is a pass-through for exports. Rows carry no side effects, the
// transformation happens while writing the file.
func (h *ExportHandlers) Run(ctx context.Context, j *job.ResumableJob) (StepOutcome, error) {
	return OutcomeAdvance, nil
}

// Write streams staged rows into the file artifact one chunk at a time.
// The header record goes out with the first chunk; the last chunk
// finalizes the artifact and terminalizes the job.
func (h *ExportHandlers) Write(ctx context.Context, j *job.ResumableJob) (StepOutcome, error) {
	profile, ok := h.profiles.ExportProfile(j.ProfileTechnicalName)
	if !ok {
		return OutcomeDone, fmt.Errorf("unknown export profile %q", j.ProfileTechnicalName)
	}

	total, err := h.stager.Count(ctx, j.ID)
	if err != nil {
		return OutcomeDone, fmt.Errorf("count staged rows: %w", err)
	}

	var cursor chunkCursor
	if err := j.Cursor(&cursor); err != nil {
		return OutcomeDone, err
	}

	// a restart loses the sink's open file; the staged snapshot is still
	// complete, so the write phase starts the artifact over
	if cursor.Offset > 0 && !h.sink.HasOpen(j.ID) {
		h.logger.Warn("export artifact lost, restarting write phase",
			zap.String("job_id", j.ID.String()),
			zap.Int("offset", cursor.Offset))
		cursor.Offset = 0
	}

	rows, err := h.stager.Fetch(ctx, j.ID, cursor.Offset, h.chunkSize)
	if err != nil {
		return OutcomeDone, fmt.Errorf("fetch staged rows: %w", err)
	}

	var records [][]string
	if cursor.Offset == 0 {
		records = append(records, profile.Header())
	}
	for _, row := range rows {
		records = append(records, profile.FormatRow(row))
	}
	if len(records) > 0 {
		if err := h.sink.Append(ctx, j.ID, records); err != nil {
			return OutcomeDone, fmt.Errorf("append export records: %w", err)
		}
	}

	next := cursor.Offset + len(rows)
	j.SetProgress(next, total)
	if next < total && len(rows) > 0 {
		if err := j.SetCursor(chunkCursor{Offset: next}); err != nil {
			return OutcomeDone, err
		}
		return OutcomeRepeat, nil
	}

	location, err := h.sink.Finalize(ctx, j.ID)
	if err != nil {
		return OutcomeDone, fmt.Errorf("finalize export artifact: %w", err)
	}
	if err := h.stager.Clear(ctx, j.ID); err != nil {
		return OutcomeDone, fmt.Errorf("clear staged rows: %w", err)
	}
	if err := j.Complete(); err != nil {
		return OutcomeDone, err
	}
	h.logger.Info("export finished",
		zap.String("job_id", j.ID.String()),
		zap.String("artifact", location),
		zap.Int("rows", total))
	return OutcomeDone, nil
}
