package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns extracts all column names from struct "db" tags.
// Embedded structs (entity.Catalog, entity.BaseEntity) are walked recursively.
// Called once per repository at construction.
//
// Usage:
//
//	columns := ExtractDBColumns[product.Product]()
//	// ["id", "deletion_mark", "version", "name", "hs_code", ...]
func ExtractDBColumns[T any]() []string {
	var zero T
	return columnsOf(reflect.TypeOf(zero))
}

func columnsOf(t reflect.Type) []string {
	meta := metadataFor(t)
	cols := make([]string, 0, len(meta.fields))
	for _, f := range meta.fields {
		cols = append(cols, f.column)
	}
	return cols
}

// field is a db-tagged field reachable through an index path.
type field struct {
	index  []int
	column string
}

type typeMetadata struct {
	fields []field
}

var typeCache sync.Map // map[reflect.Type]*typeMetadata

// metadataFor returns the cached db-tag layout of t.
func metadataFor(t reflect.Type) *typeMetadata {
	if t == nil {
		return &typeMetadata{}
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}

	meta := &typeMetadata{}
	if t.Kind() == reflect.Struct {
		collectFields(t, nil, meta)
	}
	actual, _ := typeCache.LoadOrStore(t, meta)
	return actual.(*typeMetadata)
}

func collectFields(t reflect.Type, prefix []int, meta *typeMetadata) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		path := append(append([]int(nil), prefix...), i)

		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			collectFields(f.Type, path, meta)
			continue
		}

		tag := f.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		meta.fields = append(meta.fields, field{index: path, column: tag})
	}
}

// StructToMap converts a struct to a column map using "db" tags.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	meta := metadataFor(rv.Type())
	res := make(map[string]any, len(meta.fields))
	for _, f := range meta.fields {
		res[f.column] = rv.FieldByIndex(f.index).Interface()
	}
	return res
}

// FilterColumns keeps the entries of data whose key is in cols, minus skip.
func FilterColumns(data map[string]any, cols []string, skip ...string) map[string]any {
	out := make(map[string]any, len(cols))
	for _, col := range cols {
		skipped := false
		for _, s := range skip {
			if s == col {
				skipped = true
				break
			}
		}
		if skipped {
			continue
		}
		if val, ok := data[col]; ok {
			out[col] = val
		}
	}
	return out
}
