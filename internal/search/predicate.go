package search

import (
	"strings"

	"recordhub/pkg/optional"
)

// Predicate is one SQL boolean clause with its bound parameters, in placeholder order.
// Clauses use '?' placeholders; see Rebind.
type Predicate struct {
	Clause string
	Args   []any
}

// Builder accumulates predicates in call order. Callers invoke it in a fixed field
// order so that the same criteria always yields the same query text. Every method
// except Equal is a no-op when its input is absent or empty.
type Builder struct {
	preds []Predicate
}

// Equal always emits column = ?. Use it for mandatory filters such as tenant id.
func (b *Builder) Equal(column string, v any) *Builder {
	b.preds = append(b.preds, Predicate{Clause: column + " = ?", Args: []any{v}})
	return b
}

// EqualOpt emits column = ? when v is present.
func (b *Builder) EqualOpt(column string, v optional.Value[string]) *Builder {
	if s, ok := v.Get(); ok {
		b.Equal(column, s)
	}
	return b
}

// In emits column IN (?, ?, ...) with one placeholder per value, preserving order.
func (b *Builder) In(column string, values []string) *Builder {
	if len(values) == 0 {
		return b
	}
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	b.preds = append(b.preds, Predicate{
		Clause: column + " IN (" + Placeholders(len(values)) + ")",
		Args:   args,
	})
	return b
}

// Contains emits a case-insensitive substring match. LIKE metacharacters in the
// value are escaped so they match literally.
func (b *Builder) Contains(column string, v optional.Value[string]) *Builder {
	if s, ok := v.Get(); ok {
		b.preds = append(b.preds, Predicate{
			Clause: column + " ILIKE ?",
			Args:   []any{"%" + escapeLike(s) + "%"},
		})
	}
	return b
}

// Flag emits column = ? for a present boolean, including an explicit false.
func (b *Builder) Flag(column string, v optional.Value[bool]) *Builder {
	if f, ok := v.Get(); ok {
		b.preds = append(b.preds, Predicate{Clause: column + " = ?", Args: []any{f}})
	}
	return b
}

// AtLeast emits column >= ? for a present lower bound.
func (b *Builder) AtLeast(column string, v optional.Value[int64]) *Builder {
	if n, ok := v.Get(); ok {
		b.preds = append(b.preds, Predicate{Clause: column + " >= ?", Args: []any{n}})
	}
	return b
}

// AtMost emits column <= ? for a present upper bound.
func (b *Builder) AtMost(column string, v optional.Value[int64]) *Builder {
	if n, ok := v.Get(); ok {
		b.preds = append(b.preds, Predicate{Clause: column + " <= ?", Args: []any{n}})
	}
	return b
}

// Predicates returns the accumulated predicates.
func (b *Builder) Predicates() []Predicate {
	return b.preds
}

// Placeholders returns "?, ?, ?" for n parameters.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
