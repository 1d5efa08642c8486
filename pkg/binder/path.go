package binder

import (
	"fmt"
	"net/http"
	"reflect"
)

// Path creates a binder for path parameters, read from `path:` tags.
// extractor returns the raw value of a named parameter, e.g. chi.URLParam.
func Path(extractor func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if extractor == nil {
			return fmt.Errorf("%w: no path extractor", ErrFailedToParsePath)
		}

		rt := reflect.TypeOf(v)
		if rt == nil || rt.Kind() != reflect.Ptr || rt.Elem().Kind() != reflect.Struct {
			return fmt.Errorf("%w: target must be a pointer to struct", ErrFailedToParsePath)
		}

		st := rt.Elem()
		values := make(map[string][]string)
		for i := range st.NumField() {
			field := st.Field(i)
			name, skip := parseFieldTag(field, "path")
			if skip || field.Tag.Get("path") == "" {
				continue
			}
			if val := extractor(r, name); val != "" {
				values[name] = []string{val}
			}
		}

		return bindToStruct(v, "path", values, ErrFailedToParsePath)
	}
}
