package medial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOneOf(t *testing.T) {
	var params = []string{"GRY", "BLK"}

	assert.True(t, OneOf("GRY", params))
	assert.True(t, OneOf(black, params))
	assert.True(t, OneOf(nil, params))
	assert.False(t, OneOf("PNK", params))
	assert.False(t, OneOf("GRY", "GRY"))

	assert.True(t, OneOf(2, []any{1, 2, 3}))
	assert.True(t, OneOf("2", []int{1, 2, 3}))
}

func TestMaxLen(t *testing.T) {
	assert.True(t, MaxLen("widget", 6))
	assert.False(t, MaxLen("widgets", 6))
	assert.True(t, MaxLen("héllo", "5"))
	assert.True(t, MaxLen(nil, 1))
	assert.False(t, MaxLen("x", "many"))
}

func TestPattern(t *testing.T) {
	assert.True(t, Pattern("ABC-123", `^[A-Z]{3}-\d+$`))
	assert.False(t, Pattern("abc-123", `^[A-Z]{3}-\d+$`))
	assert.True(t, Pattern(nil, `^x$`))
	assert.False(t, Pattern("x", `(`))
}

func TestNonEmpty(t *testing.T) {
	assert.True(t, NonEmpty("x", nil))
	assert.True(t, NonEmpty(1, nil))
	assert.False(t, NonEmpty("", nil))
	assert.False(t, NonEmpty(nil, nil))
	assert.False(t, NonEmpty(0, nil))
	assert.False(t, NonEmpty([]string{}, nil))
}

func TestLookupValidator(t *testing.T) {
	for _, name := range []string{"oneof", "maxlen", "pattern", "nonempty"} {
		_, ok := LookupValidator(name)
		assert.True(t, ok, name)
	}
	_, ok := LookupValidator("shiny")
	assert.False(t, ok)
}
