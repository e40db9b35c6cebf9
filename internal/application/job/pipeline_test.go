package job

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wms/backend/internal/domain/job"
	"github.com/wms/backend/internal/domain/shared"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type memoryJobRepo struct {
	jobs map[uuid.UUID]*job.ResumableJob
}

func newMemoryJobRepo() *memoryJobRepo {
	return &memoryJobRepo{jobs: make(map[uuid.UUID]*job.ResumableJob)}
}

func cloneJob(j *job.ResumableJob) *job.ResumableJob {
	c := *j
	c.StateData = append(datatypes.JSON(nil), j.StateData...)
	c.Errors = append(datatypes.JSONSlice[job.JobError](nil), j.Errors...)
	return &c
}

func (r *memoryJobRepo) Create(_ context.Context, j *job.ResumableJob) error {
	r.jobs[j.ID] = cloneJob(j)
	return nil
}

func (r *memoryJobRepo) FindByID(_ context.Context, id uuid.UUID) (*job.ResumableJob, error) {
	j, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	return cloneJob(j), nil
}

func (r *memoryJobRepo) Update(_ context.Context, j *job.ResumableJob) error {
	if _, ok := r.jobs[j.ID]; !ok {
		return shared.ErrNotFound
	}
	r.jobs[j.ID] = cloneJob(j)
	return nil
}

func (r *memoryJobRepo) List(_ context.Context, _ shared.Filter) (shared.Paginated[*job.ResumableJob], error) {
	return shared.Paginated[*job.ResumableJob]{}, nil
}

func (r *memoryJobRepo) mustGet(t *testing.T, id uuid.UUID) *job.ResumableJob {
	t.Helper()
	j, ok := r.jobs[id]
	require.True(t, ok)
	return j
}

type queueDispatcher struct {
	msgs []job.StepMessage
}

func (d *queueDispatcher) Dispatch(_ context.Context, msg job.StepMessage) error {
	d.msgs = append(d.msgs, msg)
	return nil
}

type memoryStager struct {
	rows       map[uuid.UUID][]Row
	fetchCalls int
	cleared    []uuid.UUID
}

func newMemoryStager() *memoryStager {
	return &memoryStager{rows: make(map[uuid.UUID][]Row)}
}

func (s *memoryStager) Stage(_ context.Context, jobID uuid.UUID, offset int, rows []Row) error {
	existing := s.rows[jobID]
	if len(existing) < offset {
		return fmt.Errorf("staging gap at offset %d", offset)
	}
	s.rows[jobID] = append(existing[:offset], rows...)
	return nil
}

func (s *memoryStager) Fetch(_ context.Context, jobID uuid.UUID, offset, limit int) ([]Row, error) {
	s.fetchCalls++
	all := s.rows[jobID]
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *memoryStager) Count(_ context.Context, jobID uuid.UUID) (int, error) {
	return len(s.rows[jobID]), nil
}

func (s *memoryStager) Clear(_ context.Context, jobID uuid.UUID) error {
	delete(s.rows, jobID)
	s.cleared = append(s.cleared, jobID)
	return nil
}

type memoryDocs struct {
	docs map[uuid.UUID]*Document
}

func newMemoryDocs() *memoryDocs {
	return &memoryDocs{docs: make(map[uuid.UUID]*Document)}
}

func (d *memoryDocs) FindByJob(_ context.Context, jobID uuid.UUID) (*Document, error) {
	return d.docs[jobID], nil
}

type fakeReader struct {
	rows       []Row
	header     []string
	chunkCalls int
}

func (r *fakeReader) TechnicalName() string { return "csv" }
func (r *fakeReader) RequiresHeader() bool  { return true }
func (r *fakeReader) FileBased() bool       { return true }
func (r *fakeReader) MimeType() string      { return "text/csv" }

func (r *fakeReader) ReadHeader(_ context.Context, _ uuid.UUID) ([]string, error) {
	return r.header, nil
}

func (r *fakeReader) ReadChunk(_ context.Context, _ uuid.UUID, offset, limit int) ([]Row, int, error) {
	r.chunkCalls++
	if offset >= len(r.rows) {
		return nil, len(r.rows), nil
	}
	end := offset + limit
	if end > len(r.rows) {
		end = len(r.rows)
	}
	return r.rows[offset:end], len(r.rows), nil
}

// fakeImportProfile applies rows into a shared map standing in for the
// database, so effects survive a simulated process restart
type fakeImportProfile struct {
	name      string
	reader    RowReader
	headerErr error
	applied   map[string]int
	failOn    map[string]string
}

func (p *fakeImportProfile) TechnicalName() string { return p.name }
func (p *fakeImportProfile) Reader() RowReader     { return p.reader }

func (p *fakeImportProfile) ValidateHeader(_ []string) error {
	return p.headerErr
}

func (p *fakeImportProfile) ProcessRow(_ context.Context, row Row) error {
	if msg, ok := p.failOn[row["id"]]; ok {
		return errors.New(msg)
	}
	p.applied[row["id"]]++
	return nil
}

type fakeExportProfile struct {
	name string
	rows []Row
}

func (p *fakeExportProfile) TechnicalName() string { return p.name }
func (p *fakeExportProfile) Header() []string      { return []string{"id", "name"} }

func (p *fakeExportProfile) FetchChunk(_ context.Context, offset, limit int) ([]Row, int, error) {
	if offset >= len(p.rows) {
		return nil, len(p.rows), nil
	}
	end := offset + limit
	if end > len(p.rows) {
		end = len(p.rows)
	}
	return p.rows[offset:end], len(p.rows), nil
}

func (p *fakeExportProfile) FormatRow(row Row) []string {
	return []string{row["id"], row["name"]}
}

type memorySink struct {
	records   [][]string
	open      map[uuid.UUID]bool
	finalized bool
}

func newMemorySink() *memorySink {
	return &memorySink{open: make(map[uuid.UUID]bool)}
}

func (s *memorySink) Append(_ context.Context, jobID uuid.UUID, records [][]string) error {
	if !s.open[jobID] {
		// first use truncates whatever a crashed run left behind
		s.records = nil
		s.open[jobID] = true
	}
	s.records = append(s.records, records...)
	return nil
}

func (s *memorySink) HasOpen(jobID uuid.UUID) bool {
	return s.open[jobID]
}

func (s *memorySink) Finalize(_ context.Context, jobID uuid.UUID) (string, error) {
	delete(s.open, jobID)
	s.finalized = true
	return "exports/" + jobID.String() + ".csv", nil
}

type pipelineFixture struct {
	repo     *memoryJobRepo
	queue    *queueDispatcher
	stager   *memoryStager
	docs     *memoryDocs
	registry *Registry
	sink     *memorySink
	runner   *StepRunner
	service  *JobService
}

func newPipelineFixture(chunkSize int) *pipelineFixture {
	f := &pipelineFixture{
		repo:     newMemoryJobRepo(),
		queue:    &queueDispatcher{},
		stager:   newMemoryStager(),
		docs:     newMemoryDocs(),
		registry: NewRegistry(),
		sink:     newMemorySink(),
	}
	f.rebuildRunner(chunkSize)
	f.service = NewJobService(f.repo, f.queue, zap.NewNop())
	return f
}

// rebuildRunner stands in for a process restart: fresh handler and
// runner instances over the same persisted repo, stager and queue
func (f *pipelineFixture) rebuildRunner(chunkSize int) {
	logger := zap.NewNop()
	imports := NewImportHandlers(f.registry, f.docs, f.stager, logger)
	imports.SetChunkSize(chunkSize)
	exports := NewExportHandlers(f.registry, f.stager, f.sink, logger)
	exports.SetChunkSize(chunkSize)
	f.runner = NewStepRunner(f.repo, f.queue, logger)
	imports.RegisterOn(f.runner)
	exports.RegisterOn(f.runner)
}

func (f *pipelineFixture) drainN(t *testing.T, limit int) int {
	t.Helper()
	steps := 0
	for len(f.queue.msgs) > 0 && steps < limit {
		msg := f.queue.msgs[0]
		f.queue.msgs = f.queue.msgs[1:]
		require.NoError(t, f.runner.ProcessStep(context.Background(), msg))
		steps++
	}
	return steps
}

func (f *pipelineFixture) drain(t *testing.T) int {
	t.Helper()
	steps := f.drainN(t, 10000)
	require.Empty(t, f.queue.msgs, "queue did not drain")
	return steps
}

func makeRows(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{"id": fmt.Sprintf("row-%04d", i), "name": fmt.Sprintf("item %d", i)}
	}
	return rows
}

func (f *pipelineFixture) registerImport(rows []Row) *fakeImportProfile {
	profile := &fakeImportProfile{
		name:    "product-import",
		reader:  &fakeReader{rows: rows, header: []string{"id", "name"}},
		applied: make(map[string]int),
	}
	f.registry.RegisterImport(profile)
	return profile
}

func (f *pipelineFixture) startImport(t *testing.T) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	j, err := f.service.CreateImport(ctx, "product-import")
	require.NoError(t, err)
	f.docs.docs[j.ID] = &Document{Name: "products.csv", MimeType: "text/csv"}
	require.NoError(t, f.service.ScheduleImport(ctx, j.ID, job.JobStateValidatingFile))
	return j.ID
}

func TestImportPipeline(t *testing.T) {
	t.Run("processes a large file in bounded chunks", func(t *testing.T) {
		f := newPipelineFixture(500)
		profile := f.registerImport(makeRows(2500))
		id := f.startImport(t)
		f.drain(t)

		j := f.repo.mustGet(t, id)
		assert.Equal(t, job.JobStateCompleted, j.State)
		assert.Equal(t, 2500, j.TotalNumberOfItems)
		assert.Equal(t, 2500, j.CurrentItem)
		assert.Len(t, profile.applied, 2500)

		reader := profile.reader.(*fakeReader)
		assert.Equal(t, 5, reader.chunkCalls)
		assert.Equal(t, 5, f.stager.fetchCalls)
		assert.Contains(t, f.stager.cleared, id)
		assert.NotNil(t, j.CompletedAt)
	})

	t.Run("row errors end the job as completed with errors", func(t *testing.T) {
		f := newPipelineFixture(10)
		profile := f.registerImport(makeRows(25))
		profile.failOn = map[string]string{
			"row-0003": "unknown product number",
			"row-0017": "negative quantity",
		}
		id := f.startImport(t)
		f.drain(t)

		j := f.repo.mustGet(t, id)
		assert.Equal(t, job.JobStateCompletedWithErrors, j.State)
		require.Len(t, j.Errors, 2)
		assert.Equal(t, 4, j.Errors[0].Item)
		assert.Equal(t, "unknown product number", j.Errors[0].Message)
		assert.Equal(t, 18, j.Errors[1].Item)
		assert.Len(t, profile.applied, 23)
	})

	t.Run("validation reports every finding at once", func(t *testing.T) {
		f := newPipelineFixture(10)
		profile := f.registerImport(makeRows(5))
		profile.headerErr = errors.New("missing column \"name\"")
		id := f.startImport(t)
		f.docs.docs[id] = &Document{Name: "products.pdf", MimeType: "application/pdf"}
		f.drain(t)

		j := f.repo.mustGet(t, id)
		assert.Equal(t, job.JobStateFailed, j.State)
		require.Len(t, j.Errors, 3)
		assert.Equal(t, "missing column \"name\"", j.Errors[0].Message)
		assert.Contains(t, j.Errors[1].Message, "application/pdf")
		assert.Equal(t, "validation failed", j.Errors[2].Message)
		assert.Empty(t, profile.applied)
	})

	t.Run("unknown profile fails validation", func(t *testing.T) {
		f := newPipelineFixture(10)
		ctx := context.Background()
		j, err := f.service.CreateImport(ctx, "no-such-profile")
		require.NoError(t, err)
		require.NoError(t, f.service.ScheduleImport(ctx, j.ID, job.JobStateValidatingFile))
		f.drain(t)

		got := f.repo.mustGet(t, j.ID)
		assert.Equal(t, job.JobStateFailed, got.State)
		require.Len(t, got.Errors, 2)
		assert.Contains(t, got.Errors[0].Message, "no-such-profile")
	})

	t.Run("resuming after a crash yields the uncrashed end state", func(t *testing.T) {
		f := newPipelineFixture(100)
		profile := f.registerImport(makeRows(1000))
		id := f.startImport(t)

		// a few chunks commit, then the process dies
		f.drainN(t, 7)
		interrupted := f.repo.mustGet(t, id)
		require.False(t, interrupted.State.IsTerminal())

		// restart: new handlers and runner, same persisted state and queue
		f.rebuildRunner(100)
		f.drain(t)

		j := f.repo.mustGet(t, id)
		assert.Equal(t, job.JobStateCompleted, j.State)
		assert.Equal(t, 1000, j.CurrentItem)
		require.Len(t, profile.applied, 1000)
		for rowID, count := range profile.applied {
			assert.Equal(t, 1, count, "row %s applied more than once", rowID)
		}
	})

	t.Run("headless import starts at running over pre-staged rows", func(t *testing.T) {
		f := newPipelineFixture(10)
		profile := &fakeImportProfile{name: "relative-stock-change", applied: make(map[string]int)}
		f.registry.RegisterImport(profile)

		ctx := context.Background()
		j, err := f.service.CreateImport(ctx, "relative-stock-change")
		require.NoError(t, err)
		require.NoError(t, f.stager.Stage(ctx, j.ID, 0, makeRows(25)))
		require.NoError(t, f.service.ScheduleImport(ctx, j.ID, job.JobStateRunning))
		f.drain(t)

		got := f.repo.mustGet(t, j.ID)
		assert.Equal(t, job.JobStateCompleted, got.State)
		assert.Len(t, profile.applied, 25)
	})

	t.Run("a panicking handler fails the job without retry", func(t *testing.T) {
		f := newPipelineFixture(10)
		f.registerImport(makeRows(5))
		id := f.startImport(t)

		f.runner.Register(job.JobTypeImport, job.JobStateReadingFile,
			StepHandlerFunc(func(context.Context, *job.ResumableJob) (StepOutcome, error) {
				panic("boom")
			}))
		f.drain(t)

		j := f.repo.mustGet(t, id)
		assert.Equal(t, job.JobStateFailed, j.State)
		require.Len(t, j.Errors, 1)
		assert.Equal(t, -1, j.Errors[0].Item)
		assert.Equal(t, "unknown error", j.Errors[0].Message)
	})

	t.Run("stale step messages are dropped", func(t *testing.T) {
		f := newPipelineFixture(10)
		f.registerImport(makeRows(5))
		id := f.startImport(t)
		f.drain(t)

		before := f.repo.mustGet(t, id)
		require.True(t, before.State.IsTerminal())

		err := f.runner.ProcessStep(context.Background(),
			job.StepMessage{JobID: id, State: job.JobStateReadingFile})
		require.NoError(t, err)
		assert.Empty(t, f.queue.msgs)
		assert.Equal(t, before.State, f.repo.mustGet(t, id).State)
	})
}

func TestExportPipeline(t *testing.T) {
	t.Run("streams rows into the artifact with a header", func(t *testing.T) {
		f := newPipelineFixture(2)
		f.registry.RegisterExport(&fakeExportProfile{name: "stock-export", rows: makeRows(5)})

		ctx := context.Background()
		j, err := f.service.CreateExport(ctx, "stock-export")
		require.NoError(t, err)
		require.NoError(t, f.service.ScheduleExport(ctx, j.ID))
		f.drain(t)

		got := f.repo.mustGet(t, j.ID)
		assert.Equal(t, job.JobStateCompleted, got.State)
		assert.True(t, f.sink.finalized)
		require.Len(t, f.sink.records, 6)
		assert.Equal(t, []string{"id", "name"}, f.sink.records[0])
		assert.Equal(t, []string{"row-0000", "item 0"}, f.sink.records[1])
		assert.Equal(t, []string{"row-0004", "item 4"}, f.sink.records[5])
		assert.Contains(t, f.stager.cleared, j.ID)
	})

	t.Run("resuming after a crash rewrites the full artifact", func(t *testing.T) {
		f := newPipelineFixture(2)
		f.registry.RegisterExport(&fakeExportProfile{name: "stock-export", rows: makeRows(9)})

		ctx := context.Background()
		j, err := f.service.CreateExport(ctx, "stock-export")
		require.NoError(t, err)
		require.NoError(t, f.service.ScheduleExport(ctx, j.ID))

		// validate, read all chunks, run, then die mid writing_file
		f.drainN(t, 9)
		interrupted := f.repo.mustGet(t, j.ID)
		require.Equal(t, job.JobStateWritingFile, interrupted.State)
		require.NotEmpty(t, f.sink.records)

		// restart: the sink's open file is gone with the process
		f.sink = newMemorySink()
		f.rebuildRunner(2)
		f.drain(t)

		got := f.repo.mustGet(t, j.ID)
		assert.Equal(t, job.JobStateCompleted, got.State)
		assert.True(t, f.sink.finalized)
		require.Len(t, f.sink.records, 10)
		assert.Equal(t, []string{"id", "name"}, f.sink.records[0])
		assert.Equal(t, []string{"row-0000", "item 0"}, f.sink.records[1])
		assert.Equal(t, []string{"row-0008", "item 8"}, f.sink.records[9])
	})

	t.Run("unknown export profile fails validation", func(t *testing.T) {
		f := newPipelineFixture(2)
		ctx := context.Background()
		j, err := f.service.CreateExport(ctx, "no-such-export")
		require.NoError(t, err)
		require.NoError(t, f.service.ScheduleExport(ctx, j.ID))
		f.drain(t)

		got := f.repo.mustGet(t, j.ID)
		assert.Equal(t, job.JobStateFailed, got.State)
	})
}

func TestJobService(t *testing.T) {
	t.Run("rejects scheduling under the wrong type", func(t *testing.T) {
		f := newPipelineFixture(10)
		ctx := context.Background()
		j, err := f.service.CreateImport(ctx, "product-import")
		require.NoError(t, err)

		err = f.service.ScheduleExport(ctx, j.ID)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_JOB_TYPE", de.Code)
	})

	t.Run("rejects scheduling an unknown job", func(t *testing.T) {
		f := newPipelineFixture(10)
		err := f.service.ScheduleImport(context.Background(), uuid.New(), job.JobStateValidatingFile)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("status returns progress and errors", func(t *testing.T) {
		f := newPipelineFixture(10)
		profile := f.registerImport(makeRows(25))
		profile.failOn = map[string]string{"row-0001": "bad row"}
		id := f.startImport(t)
		f.drain(t)

		status, err := f.service.GetStatus(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, job.JobStateCompletedWithErrors, status.State)
		assert.Equal(t, 25, status.CurrentItem)
		require.Len(t, status.Errors, 1)
	})
}
