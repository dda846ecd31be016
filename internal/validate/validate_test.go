package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"continental/internal/domain"
	"continental/internal/errs"
)

type sample struct {
	Name  string `json:"full_name" validate:"required,person"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"omitempty,phone"`
	Slug  string `json:"slug" validate:"omitempty,slug"`
}

func TestStructNamesFirstField(t *testing.T) {
	err := Struct(&sample{Email: "a@b.co"})
	require.Error(t, err)
	assert.True(t, errs.IsCode(err, errs.CodeValidation))
	assert.Equal(t, "full_name is required", errs.As(err).Message())
}

func TestStructFormats(t *testing.T) {
	require.NoError(t, Struct(&sample{Name: "Dr. Ana O'Neil", Email: "ana@example.com", Phone: "5551234567", Slug: "ball-valve-2"}))

	err := Struct(&sample{Name: "R2D2", Email: "ana@example.com"})
	require.Error(t, err)
	assert.Contains(t, errs.As(err).Message(), "letters")

	err = Struct(&sample{Name: "Ana", Email: "ana@example.com", Phone: "555-123"})
	require.Error(t, err)
	assert.Contains(t, errs.As(err).Message(), "10-15 digits")

	err = Struct(&sample{Name: "Ana", Email: "ana@example.com", Slug: "Bad Slug"})
	require.Error(t, err)

	err = Struct(&sample{Name: "Ana", Email: "not-an-email"})
	require.Error(t, err)
}

func TestMoneyTreatsJunkAsAbsent(t *testing.T) {
	assert.Nil(t, Money("abc"))
	assert.Nil(t, Money(""))
	assert.Nil(t, Money("-3"))
	m := Money(" 12.50 ")
	require.NotNil(t, m)
	assert.Equal(t, "12.5", m.String())
}

func TestPageAndID(t *testing.T) {
	assert.Equal(t, 1, Page("zero"))
	assert.Equal(t, 1, Page("-2"))
	assert.Equal(t, 3, Page("3"))
	assert.Equal(t, domain.MaxPage, Page("768614336404564652"))
	assert.Equal(t, domain.MaxPage, Page("99999999999999999999999"))

	id, ok := ID("42")
	assert.True(t, ok)
	assert.EqualValues(t, 42, id)
	_, ok = ID("0")
	assert.False(t, ok)
	_, ok = ID("1; DROP")
	assert.False(t, ok)
}

func TestSlugAndList(t *testing.T) {
	_, ok := Slug("ball-valve")
	assert.True(t, ok)
	_, ok = Slug("ball--valve")
	assert.False(t, ok)

	assert.Equal(t, []string{"Valves", "Flanges"}, List(" Valves, ,Flanges "))
	assert.Nil(t, List(""))
}
