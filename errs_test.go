package medial

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	var cases = []struct {
		err      error
		expected string
	}{
		{&ObjectNotFound{Table: "products", Key: "id", Value: 5}, "Could not find record in table 'products' with key 'id' having value '5'"},
		{&SchemaMismatch{Table: "products", Column: "description"}, "Schema mismatch for table 'products' on column 'description'--no matching property"},
		{ErrUnconfigured, "Medial has not been configured"},
		{&UnsupportedDatabase{Scheme: "https"}, "Database scheme 'https' not supported"},
		{&ConstraintViolation{Msg: "UNIQUE constraint failed"}, "constraint violation: UNIQUE constraint failed"},
		{&SettingReadOnly{Property: "id"}, "property 'id' is read-only"},
		{&InvalidValue{Property: "colour", Value: "PNK"}, "invalid value 'PNK' for property 'colour'"},
		{&UnknownProperty{Table: "products", Property: "price"}, "table 'products' has no property 'price'"},
		{&PersistNonPersistent{ID: "abc"}, "entity abc is not persistable"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, tc.err.Error())
	}
}

func TestErrorPredicates(t *testing.T) {
	var driverErr = errors.New("disk I/O error")

	var wrapped = fmt.Errorf("committing: %w", &ConstraintViolation{Msg: "x", Err: driverErr})
	assert.True(t, IsConstraintViolation(wrapped))
	assert.True(t, errors.Is(wrapped, driverErr))
	assert.False(t, IsDatabaseError(wrapped))

	var dbErr error = &DatabaseError{Op: kindExec, Err: driverErr}
	assert.True(t, IsDatabaseError(dbErr))
	assert.True(t, errors.Is(dbErr, driverErr))
	assert.Equal(t, "database error during exec: disk I/O error", dbErr.Error())

	var notFound = fmt.Errorf("loading: %w", &ObjectNotFound{Table: "t", Key: "id", Value: 1})
	assert.True(t, IsObjectNotFound(notFound))
	assert.True(t, errors.Is(notFound, ErrNoRow))
	assert.False(t, errors.Is(dbErr, ErrNoRow))

	assert.True(t, IsSchemaMismatch(&SchemaMismatch{}))
	assert.True(t, IsUnsupportedDatabase(&UnsupportedDatabase{}))
	assert.True(t, IsPersistNonPersistent(&PersistNonPersistent{}))
	assert.True(t, IsSettingReadOnly(&SettingReadOnly{}))
	assert.True(t, IsInvalidValue(&InvalidValue{}))
	assert.False(t, IsInvalidValue(driverErr))
}
