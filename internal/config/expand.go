package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
)

// ExpandTemplates expands ${VAR} references in place, walking nested structs,
// struct pointers, slices of structs and string maps. Strings, string
// pointers and string slices are expanded only when tagged `template`
// (`template:"-"` opts out); maps are always expanded. Unexported fields are
// left alone.
func ExpandTemplates[T any](in *T, variables map[string]string) error {
	if in == nil {
		return nil
	}

	e := expander{variables: variables}
	v := reflect.ValueOf(in).Elem()
	switch v.Kind() {
	case reflect.Struct:
		return e.walkStruct(v)
	case reflect.Slice:
		return e.walkSlice(v, true)
	default:
		return fmt.Errorf("cannot expand templates in %s", v.Type())
	}
}

type expander struct {
	variables map[string]string
}

func (e expander) walkStruct(v reflect.Value) error {
	typ := v.Type()
	for i := range typ.NumField() {
		sf := typ.Field(i)
		if !sf.IsExported() {
			continue
		}

		tag, ok := sf.Tag.Lookup("template")
		tagged := ok && tag != "-"

		if err := e.walk(v.Field(i), tagged); err != nil {
			return fmt.Errorf("%s: %w", sf.Name, err)
		}
	}
	return nil
}

func (e expander) walk(field reflect.Value, tagged bool) error {
	switch field.Kind() {
	case reflect.String:
		if !tagged {
			return nil
		}
		return e.setString(field)

	case reflect.Ptr:
		if field.IsNil() {
			return nil
		}
		switch elem := field.Elem(); elem.Kind() {
		case reflect.String:
			if !tagged {
				return nil
			}
			expanded, err := Expand(elem.String(), e.variables)
			if err != nil {
				return err
			}
			// Replace rather than mutate: the pointer may be shared.
			ptr := reflect.New(elem.Type())
			ptr.Elem().SetString(expanded)
			field.Set(ptr)
		case reflect.Struct:
			return e.walkStruct(elem)
		}
		return nil

	case reflect.Map:
		if field.IsNil() || field.Type().Key().Kind() != reflect.String || field.Type().Elem().Kind() != reflect.String {
			return nil
		}
		expanded, err := ExpandMap(field.Interface().(map[string]string), e.variables)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(expanded))
		return nil

	case reflect.Struct:
		return e.walkStruct(field)

	case reflect.Slice:
		return e.walkSlice(field, tagged)
	}
	return nil
}

func (e expander) walkSlice(v reflect.Value, tagged bool) error {
	if v.IsNil() {
		return nil
	}

	elem := v.Type().Elem()
	for i := range v.Len() {
		item := v.Index(i)
		var err error
		switch {
		case elem.Kind() == reflect.String:
			if !tagged {
				return nil
			}
			err = e.setString(item)
		case elem.Kind() == reflect.Struct:
			err = e.walkStruct(item)
		case elem.Kind() == reflect.Ptr && elem.Elem().Kind() == reflect.Struct:
			if !item.IsNil() {
				err = e.walkStruct(item.Elem())
			}
		default:
			return nil
		}
		if err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	return nil
}

func (e expander) setString(v reflect.Value) error {
	expanded, err := Expand(v.String(), e.variables)
	if err != nil {
		return err
	}
	v.SetString(expanded)
	return nil
}

// Expand replaces ${VAR} references in value. Every referenced variable must
// be present in variables.
func Expand(value string, variables map[string]string) (string, error) {
	var errs error

	result := os.Expand(value, func(key string) string {
		if val, ok := variables[key]; ok {
			return val
		}
		errs = errors.Join(errs, fmt.Errorf("environment variable %q is not in the allowed list", key))
		return ""
	})

	if errs != nil {
		return "", errs
	}
	return result, nil
}

// ExpandMap expands every value of values into a new map.
func ExpandMap(values map[string]string, variables map[string]string) (map[string]string, error) {
	if values == nil {
		return nil, nil
	}

	result := make(map[string]string, len(values))
	var errs error
	for k, v := range values {
		expanded, err := Expand(v, variables)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		result[k] = expanded
	}

	if errs != nil {
		return nil, errs
	}
	return result, nil
}
