package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/collision-query-service/internal/domain"
)

// CSVSource streams rows from a CSV export with a header line.
type CSVSource struct {
	r      *csv.Reader
	closer io.Closer
	header map[string]int
}

// OpenCSV opens the CSV file at path and reads its header.
func OpenCSV(path string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	src, err := NewCSVSource(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	src.closer = f
	return src, nil
}

// NewCSVSource reads the header from r. The caller keeps ownership of r.
func NewCSVSource(r io.Reader) (*CSVSource, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: csv has no header", ErrMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read csv header: %w", ErrMalformed, err)
	}
	return &CSVSource{r: cr, header: headerIndex(header)}, nil
}

func (s *CSVSource) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	batch := make([]domain.RawRecord, 0, batchSize)
	for len(batch) < batchSize {
		row, err := s.r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return batch, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		batch = append(batch, domain.RawRecordFromRow(rowLookup(s.header, row)))
	}
	if len(batch) == 0 {
		return nil, io.EOF
	}
	return batch, nil
}

func (s *CSVSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
