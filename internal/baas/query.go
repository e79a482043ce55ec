package baas

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Query is a single call against a named table, shaped like the hosted
// client's `from(table).select().eq().order().limit()` chain. Build one with
// Client.From and run it with Do.
type Query struct {
	client  *Client
	table   string
	token   string
	op      string
	columns string
	body    any
	filters url.Values
	order   []string
	limit   int
}

// From starts a query against table, authenticated with the caller's access
// token (empty means anonymous).
func (c *Client) From(table, accessToken string) *Query {
	return &Query{
		client:  c,
		table:   table,
		token:   accessToken,
		op:      "select",
		columns: "*",
		filters: url.Values{},
	}
}

func (q *Query) Select(columns string) *Query {
	q.op = "select"
	if strings.TrimSpace(columns) != "" {
		q.columns = columns
	}
	return q
}

// Insert sends rows (a struct, map or slice of either) and returns the
// inserted representation.
func (q *Query) Insert(rows any) *Query {
	q.op = "insert"
	q.body = rows
	return q
}

// Update patches every row matching the filters.
func (q *Query) Update(patch any) *Query {
	q.op = "update"
	q.body = patch
	return q
}

// Delete removes every row matching the filters and returns them.
func (q *Query) Delete() *Query {
	q.op = "delete"
	return q
}

func (q *Query) Eq(column string, value any) *Query {
	q.filters.Add(column, "eq."+formatValue(value))
	return q
}

func (q *Query) Order(column string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.order = append(q.order, column+"."+dir)
	return q
}

func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Do executes the query and decodes the returned rows into out, which should
// be a pointer to a slice. out may be nil when the rows are not needed.
func (q *Query) Do(ctx context.Context, out any) error {
	if q.op != "select" && q.op != "insert" && len(q.filters) == 0 {
		// The hosted API refuses unfiltered writes; failing here keeps the
		// error local and obvious.
		return fmt.Errorf("%s on %s requires a filter", q.op, q.table)
	}

	values := url.Values{}
	for k, vs := range q.filters {
		for _, v := range vs {
			values.Add(k, v)
		}
	}
	r := request{
		path:    "/rest/v1/" + url.PathEscape(q.table),
		query:   values,
		token:   q.token,
		body:    q.body,
		headers: map[string]string{},
		table:   q.table,
		op:      q.op,
	}

	switch q.op {
	case "select":
		r.method = http.MethodGet
		values.Set("select", q.columns)
		if len(q.order) > 0 {
			values.Set("order", strings.Join(q.order, ","))
		}
		if q.limit > 0 {
			values.Set("limit", strconv.Itoa(q.limit))
		}
	case "insert":
		r.method = http.MethodPost
		r.headers["Prefer"] = "return=representation"
	case "update":
		r.method = http.MethodPatch
		r.headers["Prefer"] = "return=representation"
	case "delete":
		r.method = http.MethodDelete
		r.headers["Prefer"] = "return=representation"
	default:
		return fmt.Errorf("unsupported operation %q", q.op)
	}

	if err := q.client.do(ctx, r, out); err != nil {
		return fmt.Errorf("%s %s: %w", q.op, q.table, err)
	}
	return nil
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}
