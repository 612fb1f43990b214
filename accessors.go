package medial

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/guregu/null.v4"
)

// Typed accessors over Get. An unset or NULL property yields an invalid
// null value; a value that cannot be converted is an error.

func (e *Entity) GetString(name string) null.String {
	switch v := e.values[name].(type) {
	case nil:
		return null.String{}
	case string:
		return null.StringFrom(v)
	case []byte:
		return null.StringFrom(string(v))
	case fmt.Stringer:
		return null.StringFrom(v.String())
	default:
		return null.StringFrom(fmt.Sprint(v))
	}
}

func (e *Entity) GetInt(name string) (null.Int, error) {
	switch v := e.values[name].(type) {
	case nil:
		return null.Int{}, nil
	case int:
		return null.IntFrom(int64(v)), nil
	case int8:
		return null.IntFrom(int64(v)), nil
	case int16:
		return null.IntFrom(int64(v)), nil
	case int32:
		return null.IntFrom(int64(v)), nil
	case int64:
		return null.IntFrom(v), nil
	case uint:
		return null.IntFrom(int64(v)), nil
	case uint8:
		return null.IntFrom(int64(v)), nil
	case uint16:
		return null.IntFrom(int64(v)), nil
	case uint32:
		return null.IntFrom(int64(v)), nil
	case float64:
		return null.IntFrom(int64(v)), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return null.Int{}, fmt.Errorf("property '%s': %w", name, err)
		}
		return null.IntFrom(n), nil
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return null.Int{}, fmt.Errorf("property '%s': %w", name, err)
		}
		return null.IntFrom(n), nil
	default:
		return null.Int{}, fmt.Errorf("property '%s': cannot convert %T to int", name, v)
	}
}

func (e *Entity) GetFloat(name string) (null.Float, error) {
	switch v := e.values[name].(type) {
	case nil:
		return null.Float{}, nil
	case float64:
		return null.FloatFrom(v), nil
	case float32:
		return null.FloatFrom(float64(v)), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return null.Float{}, fmt.Errorf("property '%s': %w", name, err)
		}
		return null.FloatFrom(f), nil
	case []byte:
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return null.Float{}, fmt.Errorf("property '%s': %w", name, err)
		}
		return null.FloatFrom(f), nil
	default:
		n, err := e.GetInt(name)
		if err != nil {
			return null.Float{}, fmt.Errorf("property '%s': cannot convert %T to float", name, v)
		}
		return null.FloatFrom(float64(n.Int64)), nil
	}
}

func (e *Entity) GetBool(name string) (null.Bool, error) {
	switch v := e.values[name].(type) {
	case nil:
		return null.Bool{}, nil
	case bool:
		return null.BoolFrom(v), nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return null.Bool{}, fmt.Errorf("property '%s': %w", name, err)
		}
		return null.BoolFrom(b), nil
	default:
		// SQLite and MySQL store booleans as integers.
		n, err := e.GetInt(name)
		if err != nil {
			return null.Bool{}, fmt.Errorf("property '%s': cannot convert %T to bool", name, v)
		}
		return null.BoolFrom(n.Int64 != 0), nil
	}
}

func (e *Entity) GetTime(name string) (null.Time, error) {
	switch v := e.values[name].(type) {
	case nil:
		return null.Time{}, nil
	case time.Time:
		return null.TimeFrom(v), nil
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return null.TimeFrom(t), nil
			}
		}
		return null.Time{}, fmt.Errorf("property '%s': cannot parse time %q", name, v)
	default:
		return null.Time{}, fmt.Errorf("property '%s': cannot convert %T to time", name, v)
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}
