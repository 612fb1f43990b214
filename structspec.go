package medial

import (
	"database/sql"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"
)

// DBTag is a parsed `db` struct tag: `db:"column,auto key readonly size=20"`.
type DBTag struct {
	Name      string
	Size      int
	Default   string
	IsAuto    bool
	IsKey     bool
	AllowNull bool
	ReadOnly  bool
}

func ParseDBTag(value string) DBTag {
	var tag DBTag
	tagArr := strings.Split(value, ",")
	if len(tagArr) == 0 {
		return tag
	}

	checkBool := func(key string, tagarr []string) bool {
		bval := false
		skey := strings.TrimSpace(tagarr[0])
		if strings.EqualFold(skey, key) {
			bval = true
		}

		if bval && len(tagarr) > 1 {
			sval := strings.TrimSpace(tagarr[1])
			if strings.EqualFold(sval, "false") {
				bval = false
			}
		}

		return bval
	}

	tag.Name = strings.TrimSpace(tagArr[0])
	for _, part := range tagArr[1:] {
		for _, v := range strings.Fields(part) {
			varr := strings.SplitN(v, "=", 2)
			key := strings.TrimSpace(varr[0])

			switch {
			case checkBool("auto", varr):
				tag.IsAuto = true
			case checkBool("key", varr):
				tag.IsKey = true
				tag.AllowNull = false
			case checkBool("allownull", varr):
				tag.AllowNull = !tag.IsKey
			case checkBool("readonly", varr):
				tag.ReadOnly = true
			case len(varr) > 1 && strings.EqualFold(key, "size"):
				tag.Size, _ = strconv.Atoi(varr[1])
			case len(varr) > 1 && strings.EqualFold(key, "default"):
				tag.Default = varr[1]
			}
		}
	}

	return tag
}

type structField struct {
	index    int
	name     string
	property string
	tag      DBTag
}

// structFields returns the fields of t carrying a `db` tag other than "-".
func structFields(t reflect.Type) []structField {
	var fields []structField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		value, ok := f.Tag.Lookup("db")
		if !ok || value == "-" {
			continue
		}

		tag := ParseDBTag(value)
		property := strcase.ToSnake(f.Name)
		if tag.Name == "" {
			tag.Name = property
		}
		fields = append(fields, structField{index: i, name: f.Name, property: property, tag: tag})
	}
	return fields
}

func structType(v any) (reflect.Type, error) {
	t := reflect.TypeOf(v)
	if t == nil {
		return nil, fmt.Errorf("expecting a struct, got nil")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expecting a struct, got %s", t.Kind())
	}
	return t, nil
}

// SpecFromStruct derives an entity spec from the `db` tags of a struct.
// Property names are the snake_case field names; the tag name is the
// column.
func SpecFromStruct(table string, v any) (EntitySpec, error) {
	t, err := structType(v)
	if err != nil {
		return EntitySpec{}, err
	}

	spec := EntitySpec{Table: table}
	for _, f := range structFields(t) {
		p := Property{
			Name:     f.property,
			Type:     t.Field(f.index).Type.String(),
			Auto:     f.tag.IsAuto,
			ReadOnly: f.tag.ReadOnly,
		}
		if f.tag.Name != f.property {
			p.Column = f.tag.Name
		}
		if f.tag.Default != "" {
			p.Default = f.tag.Default
		}
		if f.tag.IsKey {
			spec.Key = p.Name
		}
		spec.Properties = append(spec.Properties, p)
	}

	if len(spec.Properties) == 0 {
		return EntitySpec{}, fmt.Errorf("%s has no db tagged fields", t.Name())
	}

	return spec, nil
}

func (e *Entity) fieldProperty(f structField) (string, bool) {
	if name, ok := e.desc.PropertyForColumn(f.tag.Name); ok {
		return name, true
	}
	if _, ok := e.desc.Property(f.property); ok {
		return f.property, true
	}
	return "", false
}

// Bind copies the entity's values into the `db` tagged fields of the
// struct dest points to. Fields with no matching property, and properties
// that are unset, are left alone.
func (e *Entity) Bind(dest any) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("bind destination must be a non-nil pointer, got %T", dest)
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("bind destination must point to a struct, got %T", dest)
	}

	for _, f := range structFields(rv.Type()) {
		name, ok := e.fieldProperty(f)
		if !ok {
			continue
		}
		v, ok := e.values[name]
		if !ok {
			continue
		}
		if err := setField(rv.Field(f.index), v); err != nil {
			return fmt.Errorf("binding property '%s' to field %s: %w", name, f.name, err)
		}
	}

	return nil
}

// Assign sets every property from the matching `db` tagged field of src.
// Read-only properties, a zero Auto key and the key of a stored entity are
// skipped.
func (e *Entity) Assign(src any) error {
	rv := reflect.ValueOf(src)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("assign source must be a struct, got %T", src)
	}

	for _, f := range structFields(rv.Type()) {
		name, ok := e.fieldProperty(f)
		if !ok {
			continue
		}
		p, _ := e.desc.Property(name)
		fv := rv.Field(f.index)

		if p.ReadOnly {
			continue
		}
		if name == e.desc.Key && (!e.isNew || (p.Auto && fv.IsZero())) {
			continue
		}

		if err := e.Set(name, fv.Interface()); err != nil {
			return err
		}
	}

	return nil
}

func setField(fv reflect.Value, v any) error {
	if v == nil {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}

	if fv.CanAddr() {
		if scanner, ok := fv.Addr().Interface().(sql.Scanner); ok {
			return scanner.Scan(v)
		}
	}

	if fv.Kind() == reflect.Ptr {
		ptr := reflect.New(fv.Type().Elem())
		if err := setField(ptr.Elem(), v); err != nil {
			return err
		}
		fv.Set(ptr)
		return nil
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(fv.Type()) {
		fv.Set(rv)
		return nil
	}

	s, isString := v.(string)
	if b, ok := v.([]byte); ok {
		s, isString = string(b), true
	}

	switch fv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if isString {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return err
			}
			fv.SetInt(n)
			return nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if isString {
			n, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return err
			}
			fv.SetUint(n)
			return nil
		}
	case reflect.Float32, reflect.Float64:
		if isString {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return err
			}
			fv.SetFloat(f)
			return nil
		}
	case reflect.Bool:
		if isString {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return err
			}
			fv.SetBool(b)
			return nil
		}
		if rv.CanInt() {
			fv.SetBool(rv.Int() != 0)
			return nil
		}
	case reflect.String:
		if isString {
			fv.SetString(s)
			return nil
		}
		// Converting an integer to a string would yield a rune.
		fv.SetString(fmt.Sprint(v))
		return nil
	}

	if rv.Type().ConvertibleTo(fv.Type()) {
		fv.Set(rv.Convert(fv.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", v, fv.Type())
}
