package binder

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
)

// Form binds urlencoded bodies and query parameters into struct fields tagged `form:"name"`.
// Supported field kinds are string, bool, signed and unsigned integers, and slices of strings.
// Fields tagged `form:"-"` or without a tag are skipped.
func Form() Func {
	return func(r *http.Request, v any) error {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			return ErrInvalidTarget
		}

		if r.Body != nil {
			r.Body = http.MaxBytesReader(nil, r.Body, MaxBodySize)
		}
		if err := r.ParseForm(); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return ErrBodyTooLarge
			}
			return errors.Join(ErrFailedToParseForm, err)
		}

		elem := rv.Elem()
		typ := elem.Type()
		for i := range typ.NumField() {
			sf := typ.Field(i)
			name := strings.Split(sf.Tag.Get("form"), ",")[0]
			if name == "" || name == "-" || !sf.IsExported() {
				continue
			}
			values, ok := r.Form[name]
			if !ok || len(values) == 0 {
				continue
			}
			if err := setField(elem.Field(i), values); err != nil {
				return fmt.Errorf("%w: field %q: %v", ErrFailedToParseForm, name, err)
			}
		}
		return nil
	}
}

func setField(f reflect.Value, values []string) error {
	raw := strings.TrimSpace(values[0])
	switch f.Kind() {
	case reflect.String:
		f.SetString(raw)
	case reflect.Bool:
		if raw == "" {
			return nil
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		f.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if raw == "" {
			return nil
		}
		n, err := strconv.ParseInt(raw, 10, f.Type().Bits())
		if err != nil {
			return err
		}
		f.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if raw == "" {
			return nil
		}
		n, err := strconv.ParseUint(raw, 10, f.Type().Bits())
		if err != nil {
			return err
		}
		f.SetUint(n)
	case reflect.Slice:
		if f.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", f.Type())
		}
		out := reflect.MakeSlice(f.Type(), len(values), len(values))
		for i, s := range values {
			out.Index(i).SetString(strings.TrimSpace(s))
		}
		f.Set(out)
	default:
		return fmt.Errorf("unsupported type %s", f.Type())
	}
	return nil
}

