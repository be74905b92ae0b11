// Package postgres implements the gateway data subsystem over the hosted
// project's direct Postgres connection. Queries are compiled to SQL that
// returns JSON, so results decode exactly like the REST adapter's and the
// two stay interchangeable.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/devblog-app/devblog-api/internal/gateway"
)

type Data struct {
	pool *pgxpool.Pool
	log  *logrus.Logger
}

func NewData(pool *pgxpool.Pool, log *logrus.Logger) *Data {
	return &Data{pool: pool, log: log}
}

var _ gateway.Data = (*Data)(nil)

func (d *Data) Health(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

func (d *Data) Query(ctx context.Context, q *gateway.Query, dest any) error {
	sql, args := compileSelect(q)
	row := d.pool.QueryRow(ctx, sql, args...)
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if q.SingleRow {
				return gateway.ErrNoRows
			}
			payload = []byte("[]")
		} else {
			return err
		}
	}
	if q.SingleRow && string(payload) == "null" {
		return gateway.ErrNoRows
	}
	return json.Unmarshal(payload, dest)
}

func (d *Data) Count(ctx context.Context, q *gateway.Query) (int64, error) {
	sql, args := compileCount(q)
	var n int64
	if err := d.pool.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (d *Data) Insert(ctx context.Context, table string, record map[string]any) error {
	cols := make([]string, 0, len(record))
	for k := range record {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		names[i] = ident(c)
		marks[i] = fmt.Sprintf("$%d", i+1)
		args[i] = record[c]
	}
	sql := "INSERT INTO " + ident(table) + " (" + strings.Join(names, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
	_, err := d.pool.Exec(ctx, sql, args...)
	return err
}

// compileSelect builds a statement returning one JSON value: an array of row
// objects, or a lone object for single-row queries. Embeds become correlated
// subqueries keyed by the convention <singular embed table>_id.
func compileSelect(q *gateway.Query) (string, []any) {
	projection := "to_jsonb(t)"
	if len(q.Columns) > 0 && !(len(q.Columns) == 1 && q.Columns[0] == "*") {
		pairs := make([]string, 0, len(q.Columns))
		for _, c := range q.Columns {
			pairs = append(pairs, fmt.Sprintf("'%s', t.%s", c, ident(c)))
		}
		projection = "jsonb_build_object(" + strings.Join(pairs, ", ") + ")"
	}
	for _, e := range q.Embeds {
		projection += " || jsonb_build_object('" + e.Table + "', " + embedSubquery(e) + ")"
	}

	where, args := compileWhere(q, 1)

	inner := "SELECT " + projection + " AS obj FROM " + ident(q.Table) + " t" + where
	if len(q.Orders) > 0 {
		parts := make([]string, 0, len(q.Orders))
		for _, o := range q.Orders {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			parts = append(parts, "t."+ident(o.Column)+" "+dir)
		}
		inner += " ORDER BY " + strings.Join(parts, ", ")
	}
	if q.HasRange {
		inner += fmt.Sprintf(" OFFSET %d LIMIT %d", q.RangeFrom, q.RangeTo-q.RangeFrom+1)
	}

	if q.SingleRow {
		return "SELECT obj FROM (" + inner + " LIMIT 1) sub", args
	}
	return "SELECT coalesce(jsonb_agg(obj), '[]'::jsonb) FROM (" + inner + ") sub", args
}

// compileCount aliases the table as t, matching the qualification
// compileWhere puts on every condition.
func compileCount(q *gateway.Query) (string, []any) {
	where, args := compileWhere(q, 1)
	return "SELECT count(*) FROM " + ident(q.Table) + " t" + where, args
}

func compileWhere(q *gateway.Query, firstArg int) (string, []any) {
	if len(q.Filters) == 0 {
		return "", nil
	}
	conds := make([]string, 0, len(q.Filters))
	args := make([]any, 0, len(q.Filters))
	for i, f := range q.Filters {
		conds = append(conds, fmt.Sprintf("t.%s = $%d", ident(f.Column), firstArg+i))
		args = append(args, f.Value)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func embedSubquery(e gateway.Embed) string {
	inner := "to_jsonb(e)"
	if len(e.Columns) > 0 && !(len(e.Columns) == 1 && e.Columns[0] == "*") {
		pairs := make([]string, 0, len(e.Columns))
		for _, c := range e.Columns {
			pairs = append(pairs, fmt.Sprintf("'%s', e.%s", c, ident(c)))
		}
		inner = "jsonb_build_object(" + strings.Join(pairs, ", ") + ")"
	}
	return "(SELECT " + inner + " FROM " + ident(e.Table) + " e WHERE e.id = t." + ident(fkColumn(e.Table)) + ")"
}

// fkColumn maps an embedded table to the referencing column on the parent:
// categories -> category_id, users -> user_id.
func fkColumn(table string) string {
	switch {
	case strings.HasSuffix(table, "ies"):
		return strings.TrimSuffix(table, "ies") + "y_id"
	case strings.HasSuffix(table, "s"):
		return strings.TrimSuffix(table, "s") + "_id"
	default:
		return table + "_id"
	}
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
