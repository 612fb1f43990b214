package medial

import (
	"errors"
	"fmt"
)

var (
	// ErrUnconfigured is returned by Default when Configure has not been called.
	ErrUnconfigured = errors.New("Medial has not been configured")
	ErrKeyNotSet    = errors.New("key property is not set")
	ErrNoRow        = errors.New("no row")
)

// ConstraintViolation is returned when a statement violates a database constraint.
type ConstraintViolation struct {
	Msg string
	Err error
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("constraint violation: %s", e.Msg)
}

func (e *ConstraintViolation) Unwrap() error {
	return e.Err
}

// ObjectNotFound is returned when a load by key finds no row.
type ObjectNotFound struct {
	Table string
	Key   string
	Value any
}

func (e *ObjectNotFound) Error() string {
	return fmt.Sprintf("Could not find record in table '%s' with key '%s' having value '%v'", e.Table, e.Key, e.Value)
}

// Is makes errors.Is(err, ErrNoRow) hold for a missing record.
func (e *ObjectNotFound) Is(err error) bool {
	return err == ErrNoRow
}

// SchemaMismatch is returned when a row carries a column with no mapped property.
type SchemaMismatch struct {
	Table  string
	Column string
}

func (e *SchemaMismatch) Error() string {
	return fmt.Sprintf("Schema mismatch for table '%s' on column '%s'--no matching property", e.Table, e.Column)
}

type UnsupportedDatabase struct {
	Scheme string
}

func (e *UnsupportedDatabase) Error() string {
	return fmt.Sprintf("Database scheme '%s' not supported", e.Scheme)
}

// PersistNonPersistent is returned by Commit on an entity created with NonPersistent.
type PersistNonPersistent struct {
	ID string
}

func (e *PersistNonPersistent) Error() string {
	return fmt.Sprintf("entity %s is not persistable", e.ID)
}

type SettingReadOnly struct {
	Property string
}

func (e *SettingReadOnly) Error() string {
	return fmt.Sprintf("property '%s' is read-only", e.Property)
}

// InvalidValue is returned when a property validator rejects a value.
type InvalidValue struct {
	Property string
	Value    any
}

func (e *InvalidValue) Error() string {
	return fmt.Sprintf("invalid value '%v' for property '%s'", e.Value, e.Property)
}

type UnknownProperty struct {
	Table    string
	Property string
}

func (e *UnknownProperty) Error() string {
	return fmt.Sprintf("table '%s' has no property '%s'", e.Table, e.Property)
}

// DatabaseError wraps a driver error that is not a constraint violation.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database error during %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

func IsConstraintViolation(err error) bool {
	var e *ConstraintViolation
	return errors.As(err, &e)
}

// IsObjectNotFound returns true if err is, or wraps, an ObjectNotFound.
func IsObjectNotFound(err error) bool {
	var e *ObjectNotFound
	return errors.As(err, &e)
}

func IsSchemaMismatch(err error) bool {
	var e *SchemaMismatch
	return errors.As(err, &e)
}

func IsUnsupportedDatabase(err error) bool {
	var e *UnsupportedDatabase
	return errors.As(err, &e)
}

func IsPersistNonPersistent(err error) bool {
	var e *PersistNonPersistent
	return errors.As(err, &e)
}

func IsSettingReadOnly(err error) bool {
	var e *SettingReadOnly
	return errors.As(err, &e)
}

func IsInvalidValue(err error) bool {
	var e *InvalidValue
	return errors.As(err, &e)
}

func IsDatabaseError(err error) bool {
	var e *DatabaseError
	return errors.As(err, &e)
}
