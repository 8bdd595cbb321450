// Package subtract computes the numerical difference between two readings of a counters struct.
package subtract

import (
	"reflect"
)

// Sub computes curr minus prev, field by field, and returns the result in a new value of the same type.
// Neither argument is modified.
//
// If T has a `func (T) Sub(T) T` method, it is used.
// Otherwise, exported fields are processed as follows:
//   - integer and float fields are subtracted.
//   - struct and array fields are processed recursively, honoring their own Sub method.
//   - slice fields are processed element-wise, truncated to the shorter slice.
//   - pointer fields are processed when both pointers are non-nil, otherwise the result is nil.
//   - fields tagged `subtract:"-"`, and fields of other kinds, take the value from curr.
func Sub[T any](curr, prev T) T {
	return sub(reflect.ValueOf(curr), reflect.ValueOf(prev)).Interface().(T)
}

func hasSubMethod(typ reflect.Type) (reflect.Method, bool) {
	m, ok := typ.MethodByName("Sub")
	if !ok || m.Type.NumIn() != 2 || m.Type.NumOut() != 1 {
		return m, false
	}
	return m, m.Type.In(1) == typ && m.Type.Out(0) == typ
}

func sub(curr, prev reflect.Value) reflect.Value {
	typ := curr.Type()
	if m, ok := hasSubMethod(typ); ok {
		return m.Func.Call([]reflect.Value{curr, prev})[0]
	}

	diff := reflect.New(typ).Elem()
	assign(curr, prev, diff)
	return diff
}

func assign(curr, prev, diff reflect.Value) {
	switch curr.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		diff.SetUint(curr.Uint() - prev.Uint())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		diff.SetInt(curr.Int() - prev.Int())
	case reflect.Float32, reflect.Float64:
		diff.SetFloat(curr.Float() - prev.Float())
	case reflect.Struct:
		if _, ok := hasSubMethod(curr.Type()); ok {
			diff.Set(sub(curr, prev))
			return
		}
		for _, field := range reflect.VisibleFields(curr.Type()) {
			if !field.IsExported() || len(field.Index) > 1 {
				continue
			}
			c, p, d := curr.FieldByIndex(field.Index), prev.FieldByIndex(field.Index), diff.FieldByIndex(field.Index)
			if field.Tag.Get("subtract") == "-" {
				d.Set(c)
				continue
			}
			assign(c, p, d)
		}
	case reflect.Array:
		for i := 0; i < curr.Len(); i++ {
			assign(curr.Index(i), prev.Index(i), diff.Index(i))
		}
	case reflect.Slice:
		n := min(curr.Len(), prev.Len())
		diff.Set(reflect.MakeSlice(curr.Type(), n, n))
		for i := 0; i < n; i++ {
			assign(curr.Index(i), prev.Index(i), diff.Index(i))
		}
	case reflect.Ptr:
		if curr.IsNil() || prev.IsNil() {
			return
		}
		diff.Set(reflect.New(curr.Type().Elem()))
		assign(curr.Elem(), prev.Elem(), diff.Elem())
	default:
		diff.Set(curr)
	}
}
