package gateway

// Query is a transport-agnostic description of one table-scoped read.
// Adapters (REST, Postgres) interpret it; the builder itself performs no IO.
type Query struct {
	Table   string
	Columns []string
	Embeds  []Embed
	Filters []Filter
	Orders  []Order
	// Offset/Limit window, inclusive indices as the hosted API counts them.
	RangeFrom int
	RangeTo   int
	HasRange  bool
	SingleRow bool
}

// Embed selects columns of a related table alongside each row.
type Embed struct {
	Table   string
	Columns []string
}

// Filter is an equality predicate; the only comparison the blog needs.
type Filter struct {
	Column string
	Value  any
}

type Order struct {
	Column string
	Desc   bool
}

// From starts a query against table.
func From(table string) *Query {
	return &Query{Table: table}
}

// Select narrows the returned columns. Without it, adapters return all.
func (q *Query) Select(cols ...string) *Query {
	q.Columns = append(q.Columns, cols...)
	return q
}

// Embed pulls the named related table's columns into each row under a key
// named after the related table.
func (q *Query) Embed(table string, cols ...string) *Query {
	q.Embeds = append(q.Embeds, Embed{Table: table, Columns: cols})
	return q
}

// Eq filters rows where column equals value.
func (q *Query) Eq(column string, value any) *Query {
	q.Filters = append(q.Filters, Filter{Column: column, Value: value})
	return q
}

// Order sorts ascending by column.
func (q *Query) Order(column string) *Query {
	q.Orders = append(q.Orders, Order{Column: column})
	return q
}

// OrderDesc sorts descending by column.
func (q *Query) OrderDesc(column string) *Query {
	q.Orders = append(q.Orders, Order{Column: column, Desc: true})
	return q
}

// Range limits the result to the inclusive window [from, to].
func (q *Query) Range(from, to int) *Query {
	q.RangeFrom, q.RangeTo, q.HasRange = from, to, true
	return q
}

// Single asks for exactly one row; adapters return ErrNoRows on a miss and
// decode into a struct rather than a slice.
func (q *Query) Single() *Query {
	q.SingleRow = true
	return q
}
