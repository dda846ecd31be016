package repos

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompileEmpty(t *testing.T) {
	sql, args := Compile(nil)
	assert.Equal(t, "1=1", sql)
	assert.Empty(t, args)

	sql, _ = Compile(And(nil, Or(nil), InStrings("c.name", nil)))
	assert.Equal(t, "1=1", sql)
}

func TestCompileAndOrIn(t *testing.T) {
	p := And(
		InStrings("c.name", []string{"Valves", "Flanges"}),
		nil,
		Or(Eq("p.stock_status", "IN_STOCK"), Gte("p.id", 3)),
	)
	sql, args := Compile(p)
	assert.Equal(t, "(c.name IN (?,?) AND (p.stock_status = ? OR p.id >= ?))", sql)
	assert.Equal(t, []any{"Valves", "Flanges", "IN_STOCK", 3}, args)
}

func TestContainsFoldEscapesWildcards(t *testing.T) {
	sql, args := Compile(ContainsFold("50%_Off!", "p.title", "c.name"))
	assert.Equal(t, "(LOWER(p.title) LIKE LOWER(?) ESCAPE '!' OR LOWER(c.name) LIKE LOWER(?) ESCAPE '!')", sql)
	assert.Equal(t, []any{"%50!%!_Off!!%", "%50!%!_Off!!%"}, args)
}

func TestUserInputNeverInText(t *testing.T) {
	evil := "x'); DROP TABLE products; --"
	sql, args := Compile(And(ContainsFold(evil, "p.title"), InStrings("m.name", []string{evil})))
	assert.NotContains(t, sql, "DROP")
	assert.Len(t, args, 2)
}

func TestExists(t *testing.T) {
	p := Exists("product_pricing pp", "pp.product_id = p.id", And(Gte("pp.price", "5"), Lte("pp.price", "9")))
	sql, args := Compile(p)
	assert.Equal(t, "EXISTS (SELECT 1 FROM product_pricing pp WHERE pp.product_id = p.id AND (pp.price >= ? AND pp.price <= ?))", sql)
	assert.Equal(t, []any{"5", "9"}, args)

	sql, args = Compile(Exists("product_pricing pp", "pp.product_id = p.id", nil))
	assert.Equal(t, "EXISTS (SELECT 1 FROM product_pricing pp WHERE pp.product_id = p.id)", sql)
	assert.Empty(t, args)
}
