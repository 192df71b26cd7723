package assert

import (
	"fmt"
	"reflect"
)

// NotNil panics if value is nil, including a typed nil stored in an interface.
// It guards constructors against missing dependencies.
func NotNil(value any) {
	if value == nil {
		panic("assert: expected a non-nil value, got untyped nil")
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		if v.IsNil() {
			panic(fmt.Sprintf("assert: expected a non-nil value, got nil %T", value))
		}
	}
}

func NotEmptyStr(str string) {
	if str == "" {
		panic("assert: expected a non-empty string")
	}
}
