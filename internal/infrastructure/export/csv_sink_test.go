package export

import (
	"context"
	"encoding/csv"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVFileSink(t *testing.T) {
	t.Run("writes chunks into one file and finalizes", func(t *testing.T) {
		sink, err := NewCSVFileSink(t.TempDir())
		require.NoError(t, err)

		jobID := uuid.New()
		ctx := context.Background()

		require.NoError(t, sink.Append(ctx, jobID, [][]string{
			{"product number", "quantity"},
			{"P-1001", "5"},
		}))
		require.NoError(t, sink.Append(ctx, jobID, [][]string{
			{"P-1002", "12"},
		}))

		path, err := sink.Finalize(ctx, jobID)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(path, "export-"+jobID.String()+".csv"))

		file, err := os.Open(path)
		require.NoError(t, err)
		defer file.Close()

		records, err := csv.NewReader(file).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, []string{"product number", "quantity"}, records[0])
		assert.Equal(t, []string{"P-1002", "12"}, records[2])
	})

	t.Run("reports the open state across chunks", func(t *testing.T) {
		sink, err := NewCSVFileSink(t.TempDir())
		require.NoError(t, err)

		jobID := uuid.New()
		ctx := context.Background()

		assert.False(t, sink.HasOpen(jobID))
		require.NoError(t, sink.Append(ctx, jobID, [][]string{{"P-1001", "5"}}))
		assert.True(t, sink.HasOpen(jobID))

		_, err = sink.Finalize(ctx, jobID)
		require.NoError(t, err)
		assert.False(t, sink.HasOpen(jobID))
	})

	t.Run("a fresh sink starts the artifact over", func(t *testing.T) {
		dir := t.TempDir()
		jobID := uuid.New()
		ctx := context.Background()

		first, err := NewCSVFileSink(dir)
		require.NoError(t, err)
		require.NoError(t, first.Append(ctx, jobID, [][]string{
			{"product number", "quantity"},
			{"P-1001", "5"},
			{"P-1002", "12"},
		}))

		// a restarted process gets a new sink with no open file
		second, err := NewCSVFileSink(dir)
		require.NoError(t, err)
		assert.False(t, second.HasOpen(jobID))

		require.NoError(t, second.Append(ctx, jobID, [][]string{
			{"product number", "quantity"},
			{"P-1001", "5"},
		}))
		path, err := second.Finalize(ctx, jobID)
		require.NoError(t, err)

		file, err := os.Open(path)
		require.NoError(t, err)
		defer file.Close()

		records, err := csv.NewReader(file).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, []string{"product number", "quantity"}, records[0])
		assert.Equal(t, []string{"P-1001", "5"}, records[1])
	})

	t.Run("finalize without records still produces an artifact", func(t *testing.T) {
		sink, err := NewCSVFileSink(t.TempDir())
		require.NoError(t, err)

		path, err := sink.Finalize(context.Background(), uuid.New())
		require.NoError(t, err)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Zero(t, info.Size())
	})
}
