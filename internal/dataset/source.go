package dataset

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/collision-query-service/internal/domain"
)

// ErrMalformed marks source errors that retrying cannot fix, such as a
// corrupt CSV line or a missing sheet.
var ErrMalformed = errors.New("malformed data source")

// Source streams raw collision rows in batches. ExtractBatch returns io.EOF
// once every row has been delivered; a short batch is not itself the end.
type Source interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawRecord, error)
	Close() error
}

// Options tune how a location is read.
type Options struct {
	// Table is the SQL table holding the rows.
	Table string
	// KeyColumn orders SQL paging. Empty pages in table order.
	KeyColumn string
	// Sheet selects the XLSX worksheet. Empty reads the first sheet.
	Sheet string
}

// Open picks a Source for location: a .csv or .xlsx path, a SQLite file, or
// a postgres://, mysql://, or sqlite:// URL.
func Open(ctx context.Context, location string, opts Options) (Source, error) {
	if scheme, _, ok := strings.Cut(location, "://"); ok {
		return openURL(ctx, strings.ToLower(scheme), location, opts)
	}

	switch strings.ToLower(filepath.Ext(location)) {
	case ".csv":
		return source(OpenCSV(location))
	case ".xlsx":
		return source(OpenXLSX(location, opts.Sheet))
	case ".db", ".sqlite", ".sqlite3":
		return source(OpenSQL(ctx, DialectSQLite, location, opts))
	default:
		return nil, fmt.Errorf("unsupported data source %q: want .csv, .xlsx, .db, or a SQL URL", location)
	}
}

// source converts a concrete constructor result without leaking a typed nil.
func source[S Source](s S, err error) (Source, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openURL(ctx context.Context, scheme, location string, opts Options) (Source, error) {
	switch scheme {
	case "postgres", "postgresql":
		return source(OpenSQL(ctx, DialectPostgres, location, opts))
	case "mysql":
		u, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("parse mysql url: %w", err)
		}
		return source(OpenSQL(ctx, DialectMySQL, mysqlDSN(u), opts))
	case "sqlite", "file":
		return source(OpenSQL(ctx, DialectSQLite, strings.TrimPrefix(location, scheme+"://"), opts))
	default:
		return nil, fmt.Errorf("unsupported data source scheme %q", scheme)
	}
}

// rowLookup returns a column getter over one row. Short rows and unknown
// columns read as "".
func rowLookup(header map[string]int, row []string) func(string) string {
	return func(col string) string {
		i, ok := header[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
}

// headerIndex maps trimmed, upper-cased column names to their position.
// A UTF-8 byte order mark on the first cell is stripped.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		key := strings.ToUpper(strings.TrimSpace(h))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}
