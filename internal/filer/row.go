package filer

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Placeholder renders the i-th (1-based) SQL parameter marker for the
// connection's driver.
type Placeholder func(i int) string

// PlaceholderDollar is the PostgreSQL marker style ($1, $2, ...).
func PlaceholderDollar(i int) string {
	return fmt.Sprintf("$%d", i)
}

// PlaceholderQuestion is the SQLite marker style (?).
func PlaceholderQuestion(int) string {
	return "?"
}

// Cond is one column=value term of a row filer's equality predicate.
type Cond struct {
	Column string
	Value  string
}

// Row is a filer backed by one keyed row of a relational table. The
// table, the predicate, and the placeholder dialect are fixed at
// construction; the connection may be shared with other filers. Every
// value crosses the connection as a driver parameter, never by string
// interpolation.
type Row struct {
	db          *sql.DB
	table       string
	where       []Cond
	placeholder Placeholder
}

// NewRow creates a row filer over db, restricted to the rows matching
// the equality conjunction in where.
func NewRow(db *sql.DB, table string, where []Cond, placeholder Placeholder) *Row {
	if placeholder == nil {
		placeholder = PlaceholderQuestion
	}
	return &Row{db: db, table: table, where: where, placeholder: placeholder}
}

// OpenPostgres opens and pings a PostgreSQL connection for row filers.
func OpenPostgres(url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	return db, nil
}

// OpenSQLite opens a SQLite database file for row filers.
func OpenSQLite(path string) (*sql.DB, error) {
	return sql.Open("sqlite3", path)
}

// bound reports whether the filer has enough configuration to issue
// statements. An unbound filer loads nothing and stores nowhere.
func (r *Row) bound() bool {
	return r.db != nil && r.table != "" && len(r.where) > 0
}

// Load selects the requested fields from the matching row. A missing
// row is an empty result, not an error. NULL columns are treated as
// absent.
func (r *Row) Load(names ...string) (Props, error) {
	if !r.bound() || len(names) == 0 {
		return Props{}, nil
	}

	cols := make([]string, len(names))
	for i, name := range names {
		cols[i] = quoteIdent(name)
	}

	where, args := r.predicate(1)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(cols, ", "), quoteIdent(r.table), where)

	values := make([]sql.NullString, len(names))
	dest := make([]interface{}, len(names))
	for i := range values {
		dest[i] = &values[i]
	}

	err := r.db.QueryRow(query, args...).Scan(dest...)
	if err == sql.ErrNoRows {
		return Props{}, nil
	}
	if err != nil {
		return nil, err
	}

	result := make(Props, len(names))
	for i, name := range names {
		if values[i].Valid {
			result[name] = values[i].String
		}
	}
	return result, nil
}

// Store updates the matching row with the given fields. Fields are
// written in sorted order so the statement text is deterministic.
func (r *Row) Store(props Props) error {
	if !r.bound() || len(props) == 0 {
		return nil
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	sets := make([]string, len(names))
	args := make([]interface{}, 0, len(names)+len(r.where))
	for i, name := range names {
		sets[i] = fmt.Sprintf("%s = %s", quoteIdent(name), r.placeholder(i+1))
		args = append(args, props[name])
	}

	where, whereArgs := r.predicate(len(names) + 1)
	args = append(args, whereArgs...)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		quoteIdent(r.table), strings.Join(sets, ", "), where)

	_, err := r.db.Exec(query, args...)
	return err
}

// predicate renders the equality conjunction starting at parameter
// index start, returning the SQL fragment and its arguments.
func (r *Row) predicate(start int) (string, []interface{}) {
	terms := make([]string, len(r.where))
	args := make([]interface{}, len(r.where))
	for i, cond := range r.where {
		terms[i] = fmt.Sprintf("%s = %s", quoteIdent(cond.Column), r.placeholder(start+i))
		args[i] = cond.Value
	}
	return strings.Join(terms, " AND "), args
}

// quoteIdent quotes a SQL identifier. Values never pass through here;
// they always travel as driver parameters.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
