// Package csvfile reads delimited tables from disk. It implements
// pipeline.TableReader.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"

	"github.com/hydrogeo/glorich-etl/internal/domain"
)

// Reader loads comma-delimited tables with a required header row.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a table reader.
func NewReader(logger *slog.Logger) *Reader {
	return &Reader{logger: logger}
}

// ReadTable reads path into a Table. The first record is the header. Rows
// shorter than the header are padded; source files in the wild have
// ragged trailing columns.
func (r *Reader) ReadTable(_ context.Context, path string) (*domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		r.logger.Error("cannot open table", "path", path, "error", err)
		return nil, fmt.Errorf("%s: %w", path, domain.ErrNotFound)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read %s: missing header row", path)
	}

	table, err := domain.NewTable(records[0], records[1:])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	r.logger.Debug("read table", "path", path, "rows", table.NumRows(), "columns", len(table.Columns()))
	return table, nil
}
