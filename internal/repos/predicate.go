package repos

import (
	"strings"
)

// Pred is a typed WHERE clause. Column names and subquery text come from
// code; every user value travels as a bind argument.
type Pred interface {
	build(sb *strings.Builder, args *[]any)
}

// Compile renders p as SQL text with ? placeholders. A nil or empty
// predicate compiles to "1=1".
func Compile(p Pred) (string, []any) {
	var sb strings.Builder
	args := []any{}
	if isEmpty(p) {
		return "1=1", args
	}
	p.build(&sb, &args)
	return sb.String(), args
}

func isEmpty(p Pred) bool {
	switch v := p.(type) {
	case nil:
		return true
	case group:
		for _, c := range v.parts {
			if !isEmpty(c) {
				return false
			}
		}
		return true
	}
	return false
}

type cmp struct {
	col string
	op  string
	val any
}

func (c cmp) build(sb *strings.Builder, args *[]any) {
	sb.WriteString(c.col)
	sb.WriteString(" ")
	sb.WriteString(c.op)
	sb.WriteString(" ?")
	*args = append(*args, c.val)
}

func Eq(col string, v any) Pred  { return cmp{col, "=", v} }
func Gte(col string, v any) Pred { return cmp{col, ">=", v} }
func Lte(col string, v any) Pred { return cmp{col, "<=", v} }

type in struct {
	col  string
	vals []any
}

func (c in) build(sb *strings.Builder, args *[]any) {
	if len(c.vals) == 0 {
		sb.WriteString("1=0")
		return
	}
	sb.WriteString(c.col)
	sb.WriteString(" IN (")
	for i, v := range c.vals {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("?")
		*args = append(*args, v)
	}
	sb.WriteString(")")
}

// InStrings matches col against any of vals. Returns nil for an empty set
// so callers can treat "nothing selected" as "no constraint".
func InStrings(col string, vals []string) Pred {
	if len(vals) == 0 {
		return nil
	}
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return in{col: col, vals: out}
}

const likeEscape = '!'

// EscapeLike neutralises LIKE wildcards in s using '!' as the escape char.
func EscapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}

type containsFold struct {
	cols   []string
	needle string
}

func (c containsFold) build(sb *strings.Builder, args *[]any) {
	pattern := "%" + EscapeLike(c.needle) + "%"
	sb.WriteString("(")
	for i, col := range c.cols {
		if i > 0 {
			sb.WriteString(" OR ")
		}
		sb.WriteString("LOWER(")
		sb.WriteString(col)
		sb.WriteString(") LIKE LOWER(?) ESCAPE '")
		sb.WriteRune(likeEscape)
		sb.WriteString("'")
		*args = append(*args, pattern)
	}
	sb.WriteString(")")
}

// ContainsFold is a case-insensitive substring match on any of cols.
func ContainsFold(needle string, cols ...string) Pred {
	if needle == "" || len(cols) == 0 {
		return nil
	}
	return containsFold{cols: cols, needle: needle}
}

type exists struct {
	from      string
	correlate string
	where     Pred
}

func (e exists) build(sb *strings.Builder, args *[]any) {
	sb.WriteString("EXISTS (SELECT 1 FROM ")
	sb.WriteString(e.from)
	sb.WriteString(" WHERE ")
	sb.WriteString(e.correlate)
	if !isEmpty(e.where) {
		sb.WriteString(" AND ")
		e.where.build(sb, args)
	}
	sb.WriteString(")")
}

// Exists wraps where in a correlated EXISTS subquery. A nil where still
// requires a correlated row to exist.
func Exists(from, correlate string, where Pred) Pred {
	return exists{from: from, correlate: correlate, where: where}
}

type group struct {
	op    string
	parts []Pred
}

func (g group) build(sb *strings.Builder, args *[]any) {
	n := 0
	sb.WriteString("(")
	for _, p := range g.parts {
		if isEmpty(p) {
			continue
		}
		if n > 0 {
			sb.WriteString(" ")
			sb.WriteString(g.op)
			sb.WriteString(" ")
		}
		p.build(sb, args)
		n++
	}
	sb.WriteString(")")
}

// And joins the non-empty parts. Empty parts are dropped.
func And(parts ...Pred) Pred { return group{op: "AND", parts: parts} }

// Or joins the non-empty parts. Empty parts are dropped.
func Or(parts ...Pred) Pred { return group{op: "OR", parts: parts} }
