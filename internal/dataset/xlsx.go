package dataset

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/collision-query-service/internal/domain"
)

// XLSXSource streams rows from one worksheet of an Excel workbook. The first
// row of the sheet is the header.
type XLSXSource struct {
	file   *excelize.File
	rows   *excelize.Rows
	header map[string]int
}

// OpenXLSX opens the workbook at path. An empty sheet selects the first one.
func OpenXLSX(path, sheet string) (*XLSXSource, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	src, err := newXLSXSource(f, sheet)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return src, nil
}

// NewXLSXSource reads a workbook from r.
func NewXLSXSource(r io.Reader, sheet string) (*XLSXSource, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read xlsx: %w", ErrMalformed, err)
	}
	src, err := newXLSXSource(f, sheet)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return src, nil
}

func newXLSXSource(f *excelize.File, sheet string) (*XLSXSource, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", ErrMalformed)
		}
		sheet = sheets[0]
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: open sheet %q: %w", ErrMalformed, sheet, err)
	}
	if !rows.Next() {
		_ = rows.Close()
		return nil, fmt.Errorf("%w: sheet %q has no header row", ErrMalformed, sheet)
	}
	header, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("%w: read header of sheet %q: %w", ErrMalformed, sheet, err)
	}

	return &XLSXSource{file: f, rows: rows, header: headerIndex(header)}, nil
}

func (s *XLSXSource) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	batch := make([]domain.RawRecord, 0, batchSize)
	for len(batch) < batchSize && s.rows.Next() {
		row, err := s.rows.Columns()
		if err != nil {
			return batch, fmt.Errorf("%w: read xlsx row: %w", ErrMalformed, err)
		}
		if len(row) == 0 {
			continue
		}
		batch = append(batch, domain.RawRecordFromRow(rowLookup(s.header, row)))
	}
	if err := s.rows.Error(); err != nil {
		return batch, fmt.Errorf("%w: iterate xlsx rows: %w", ErrMalformed, err)
	}
	if len(batch) == 0 {
		return nil, io.EOF
	}
	return batch, nil
}

func (s *XLSXSource) Close() error {
	rowsErr := s.rows.Close()
	if err := s.file.Close(); err != nil {
		return err
	}
	return rowsErr
}
