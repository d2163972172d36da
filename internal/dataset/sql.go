package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/couchcryptid/collision-query-service/internal/domain"
)

// Dialect names a database/sql driver and how it quotes identifiers.
type Dialect struct {
	Driver string
	quote  byte
}

var (
	DialectPostgres = Dialect{Driver: "postgres", quote: '"'}
	DialectMySQL    = Dialect{Driver: "mysql", quote: '`'}
	DialectSQLite   = Dialect{Driver: "sqlite", quote: '"'}
)

// QuoteIdent quotes a possibly schema-qualified identifier. Embedded quote
// characters are doubled.
func (d Dialect) QuoteIdent(name string) string {
	q := string(d.quote)
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = q + strings.ReplaceAll(p, q, q+q) + q
	}
	return strings.Join(parts, ".")
}

// SQLSource pages rows out of a table with LIMIT/OFFSET. The offset only
// advances after a batch is scanned, so a failed batch can be retried.
type SQLSource struct {
	db     *sql.DB
	owned  bool
	query  string
	offset int
	done   bool
}

// OpenSQL connects with the dialect's driver and verifies the connection.
func OpenSQL(ctx context.Context, d Dialect, dsn string, opts Options) (*SQLSource, error) {
	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d.Driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", d.Driver, err)
	}
	db.SetMaxOpenConns(2)

	src := NewSQLSource(db, d, opts.Table, opts.KeyColumn)
	src.owned = true
	return src, nil
}

// NewSQLSource reads from an existing connection pool, which the caller
// keeps ownership of.
func NewSQLSource(db *sql.DB, d Dialect, table, keyColumn string) *SQLSource {
	return &SQLSource{db: db, query: selectQuery(d, table, keyColumn)}
}

func selectQuery(d Dialect, table, keyColumn string) string {
	cols := domain.Columns()
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.QuoteIdent(c)
	}
	q := "SELECT " + strings.Join(quoted, ", ") + " FROM " + d.QuoteIdent(table)
	if keyColumn != "" {
		q += " ORDER BY " + d.QuoteIdent(keyColumn)
	}
	return q
}

func (s *SQLSource) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawRecord, error) {
	if s.done {
		return nil, io.EOF
	}

	q := fmt.Sprintf("%s LIMIT %d OFFSET %d", s.query, batchSize, s.offset)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query batch at offset %d: %w", s.offset, err)
	}
	defer rows.Close()

	cols := domain.Columns()
	header := make(map[string]int, len(cols))
	for i, c := range cols {
		header[c] = i
	}

	values := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}

	batch := make([]domain.RawRecord, 0, batchSize)
	row := make([]string, len(cols))
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row at offset %d: %w", s.offset+len(batch), err)
		}
		for i, v := range values {
			row[i] = v.String
		}
		batch = append(batch, domain.RawRecordFromRow(rowLookup(header, row)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows at offset %d: %w", s.offset, err)
	}

	s.offset += len(batch)
	if len(batch) < batchSize {
		s.done = true
	}
	if len(batch) == 0 {
		return nil, io.EOF
	}
	return batch, nil
}

func (s *SQLSource) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// mysqlDSN converts a mysql:// URL into the driver's DSN form.
func mysqlDSN(u *url.URL) string {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	if q := u.Query(); len(q) > 0 {
		cfg.Params = make(map[string]string, len(q))
		for k := range q {
			cfg.Params[k] = q.Get(k)
		}
	}
	return cfg.FormatDSN()
}
