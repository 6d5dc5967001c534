package kernel

import (
	"fmt"
	"reflect"
	"strconv"
)

// bindParams orders the route parameters by the action's declared parameter
// names and converts each to the method's parameter type. Every declared name
// must be present in the route.
func bindParams(method reflect.Value, action string, names []string, route Route) ([]reflect.Value, error) {
	typ := method.Type()
	if typ.NumIn() != len(names) {
		return nil, &ConfigurationError{
			Subject: route.Controller + "::" + action,
			Reason:  fmt.Sprintf("action takes %d parameters, %d declared", typ.NumIn(), len(names)),
		}
	}

	args := make([]reflect.Value, 0, len(names))
	for i, name := range names {
		raw, ok := route.Params[name]
		if !ok {
			return nil, &ParameterBindingError{Action: action, Param: name}
		}

		v, err := convertParam(raw, typ.In(i))
		if err != nil {
			return nil, &ParameterBindingError{Action: action, Param: name, Err: err}
		}
		args = append(args, v)
	}

	return args, nil
}

// convertParam converts a raw route parameter to typ.
func convertParam(raw string, typ reflect.Type) (reflect.Value, error) {
	v := reflect.New(typ).Elem()

	switch typ.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return v, err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, typ.Bits())
		if err != nil {
			return v, err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, typ.Bits())
		if err != nil {
			return v, err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, typ.Bits())
		if err != nil {
			return v, err
		}
		v.SetFloat(f)
	case reflect.Interface:
		if !reflect.TypeOf(raw).AssignableTo(typ) {
			return v, fmt.Errorf("cannot bind string to %s", typ)
		}
		v.Set(reflect.ValueOf(raw))
	default:
		return v, fmt.Errorf("unsupported parameter type %s", typ)
	}

	return v, nil
}
