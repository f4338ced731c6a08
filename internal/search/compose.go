package search

import (
	"strconv"
	"strings"
)

// Query is executable SQL text with its bound parameters in placeholder order.
type Query struct {
	SQL  string
	Args []any
}

// Sort is a caller-supplied sort hint using API field names.
type Sort struct {
	Field string
	Order string
}

// SortColumns maps API sort names to storage columns. Unknown or empty names
// resolve to Default; Tiebreaker (the root id column) is always appended.
type SortColumns struct {
	Columns      map[string]string
	Default      string
	DefaultOrder string
	Tiebreaker   string
}

// Column resolves an API sort field to a storage column.
func (c SortColumns) Column(field string) string {
	if col, ok := c.Columns[field]; ok {
		return col
	}
	return c.Default
}

// Direction resolves a sort order hint to ASC or DESC.
func (c SortColumns) Direction(order string) string {
	switch strings.ToUpper(strings.TrimSpace(order)) {
	case "ASC":
		return "ASC"
	case "DESC":
		return "DESC"
	}
	if strings.EqualFold(c.DefaultOrder, "ASC") {
		return "ASC"
	}
	return "DESC"
}

// Where joins predicates with AND behind a single WHERE keyword. It returns an
// empty clause when there are no predicates.
func Where(preds []Predicate) (string, []any) {
	if len(preds) == 0 {
		return "", nil
	}
	clauses := make([]string, len(preds))
	var args []any
	for i, p := range preds {
		clauses[i] = p.Clause
		args = append(args, p.Args...)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Compose builds base + WHERE + ORDER BY + LIMIT ? OFFSET ?. Limit and offset
// are always the last two parameters, in that order.
func Compose(base string, preds []Predicate, sort Sort, cols SortColumns, page Page) Query {
	where, args := Where(preds)

	var b strings.Builder
	b.WriteString(base)
	b.WriteString(where)

	column := cols.Column(sort.Field)
	dir := cols.Direction(sort.Order)
	b.WriteString(" ORDER BY ")
	b.WriteString(column)
	b.WriteString(" ")
	b.WriteString(dir)
	if cols.Tiebreaker != "" && cols.Tiebreaker != column {
		b.WriteString(", ")
		b.WriteString(cols.Tiebreaker)
		b.WriteString(" ")
		b.WriteString(dir)
	}
	b.WriteString(" LIMIT ? OFFSET ?")

	return Query{SQL: b.String(), Args: append(args, page.Limit, page.Offset)}
}

// Rebind rewrites '?' placeholders as PostgreSQL positional parameters ($1, $2, ...).
// Question marks inside single-quoted literals are left alone.
func Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	quoted := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			quoted = !quoted
			b.WriteByte(c)
		case c == '?' && !quoted:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
