// Package binder populates request structs from form and query values
// using `form` and `query` struct tags.
package binder

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

var (
	ErrUnsupportedMediaType = errors.New("binder: unsupported media type")
	ErrInvalidForm          = errors.New("binder: invalid form data")
	ErrInvalidQuery         = errors.New("binder: invalid query data")
	ErrUnsupportedType      = errors.New("binder: unsupported field type")
	ErrNotStructPointer     = errors.New("binder: target must be a non-nil struct pointer")
)

// Form binds application/x-www-form-urlencoded bodies into fields tagged
// `form:"name"`. GET and HEAD requests are skipped so one handler can serve
// both the page and its submission.
func Form() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			return nil
		}

		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "application/x-www-form-urlencoded" {
			return fmt.Errorf("%w: expected application/x-www-form-urlencoded", ErrUnsupportedMediaType)
		}
		if err := r.ParseForm(); err != nil {
			return errors.Join(ErrInvalidForm, err)
		}
		return bindValues(v, "form", r.PostForm, ErrInvalidForm)
	}
}

// Query binds URL query parameters into fields tagged `query:"name"`.
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		return bindValues(v, "query", r.URL.Query(), ErrInvalidQuery)
	}
}

func bindValues(v any, tag string, values url.Values, wrap error) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return ErrNotStructPointer
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := range rt.NumField() {
		field := rt.Field(i)
		name, _, _ := strings.Cut(field.Tag.Get(tag), ",")
		if name == "" || name == "-" || !field.IsExported() {
			continue
		}
		if !values.Has(name) {
			continue
		}

		if err := setField(rv.Field(i), values.Get(name)); err != nil {
			return fmt.Errorf("%w: field %q: %v", wrap, name, err)
		}
	}
	return nil
}

func setField(fv reflect.Value, raw string) error {
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			fv.Set(reflect.New(fv.Type().Elem()))
		}
		fv = fv.Elem()
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetFloat(f)
	case reflect.Bool:
		// Checkboxes submit "on" rather than a parseable bool.
		if raw == "on" {
			fv.SetBool(true)
			return nil
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, fv.Kind())
	}
	return nil
}
