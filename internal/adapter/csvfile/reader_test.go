package csvfile_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrogeo/glorich-etl/internal/adapter/csvfile"
	"github.com/hydrogeo/glorich-etl/internal/domain"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadTable_HappyPath(t *testing.T) {
	path := writeCSV(t, "STAT_ID,pH,Ca\n100001,7.1,1.2\n100002,6.9,0.8\n")
	r := csvfile.NewReader(slog.Default())

	table, err := r.ReadTable(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{"STAT_ID", "pH", "Ca"}, table.Columns())
	require.Equal(t, 2, table.NumRows())
	assert.Equal(t, "100002", table.Value(1, "STAT_ID"))
	assert.Equal(t, "0.8", table.Value(1, "Ca"))
}

func TestReadTable_RaggedRowsPadded(t *testing.T) {
	path := writeCSV(t, "STAT_ID,pH,Ca\n100001,7.1\n")
	r := csvfile.NewReader(slog.Default())

	table, err := r.ReadTable(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "", table.Value(0, "Ca"))
}

func TestReadTable_MissingFile(t *testing.T) {
	r := csvfile.NewReader(slog.Default())
	_, err := r.ReadTable(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReadTable_EmptyFile(t *testing.T) {
	path := writeCSV(t, "")
	r := csvfile.NewReader(slog.Default())
	_, err := r.ReadTable(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header")
}

func TestReadTable_DuplicateHeader(t *testing.T) {
	path := writeCSV(t, "STAT_ID,STAT_ID\n1,2\n")
	r := csvfile.NewReader(slog.Default())
	_, err := r.ReadTable(context.Background(), path)
	require.Error(t, err)
}
