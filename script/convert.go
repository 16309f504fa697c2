package script

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"go.starlark.net/starlark"

	"github.com/hookline/beforesend/event"
)

// toStarlark converts a Value into the Starlark value handed to the
// routine. Objects become dicts with their member order preserved.
func toStarlark(v event.Value) (starlark.Value, error) {
	switch v.Kind() {
	case event.Null:
		return starlark.None, nil
	case event.Bool:
		return starlark.Bool(v.Bool()), nil
	case event.Number:
		return numberToStarlark(v.Number())
	case event.String:
		return starlark.String(v.Str()), nil
	case event.Array:
		items := make([]starlark.Value, v.Len())
		for i := 0; i < v.Len(); i++ {
			item, err := toStarlark(v.Index(i))
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return starlark.NewList(items), nil
	case event.Object:
		dict := starlark.NewDict(v.Len())
		for _, m := range v.Members() {
			val, err := toStarlark(m.Value)
			if err != nil {
				return nil, err
			}
			if err := dict.SetKey(starlark.String(m.Key), val); err != nil {
				return nil, err
			}
		}
		return dict, nil
	}
	return nil, fmt.Errorf("invalid value")
}

// fromStarlark converts a routine's return value back into the Value
// grammar. Dict iteration order is insertion order, so member order
// survives.
func fromStarlark(v starlark.Value) (event.Value, error) {
	switch x := v.(type) {
	case starlark.NoneType:
		return event.NullValue(), nil
	case starlark.Bool:
		return event.BoolValue(bool(x)), nil
	case starlark.Int:
		return event.NumberValue(json.Number(x.String())), nil
	case starlark.Float:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return event.Value{}, fmt.Errorf("non-finite float %v", f)
		}
		return event.NumberValue(json.Number(formatFloat(f))), nil
	case starlark.String:
		return event.StringValue(string(x)), nil
	case *starlark.List:
		return sequenceToValue(x.Len(), x.Index)
	case starlark.Tuple:
		return sequenceToValue(x.Len(), x.Index)
	case *starlark.Dict:
		members := make([]event.Member, 0, x.Len())
		for _, item := range x.Items() {
			key, ok := starlark.AsString(item[0])
			if !ok {
				return event.Value{}, fmt.Errorf("dict key is %s, not string", item[0].Type())
			}
			val, err := fromStarlark(item[1])
			if err != nil {
				return event.Value{}, err
			}
			members = append(members, event.Member{Key: key, Value: val})
		}
		return event.ObjectValue(members...), nil
	}
	return event.Value{}, fmt.Errorf("%s value", v.Type())
}

func sequenceToValue(n int, index func(int) starlark.Value) (event.Value, error) {
	items := make([]event.Value, n)
	for i := 0; i < n; i++ {
		item, err := fromStarlark(index(i))
		if err != nil {
			return event.Value{}, err
		}
		items[i] = item
	}
	return event.ArrayValue(items...), nil
}

// numberToStarlark keeps integers exact, including beyond int64, and
// maps anything with a fraction or exponent to float.
func numberToStarlark(num json.Number) (starlark.Value, error) {
	literal := string(num)
	if !strings.ContainsAny(literal, ".eE") {
		i, ok := new(big.Int).SetString(literal, 10)
		if !ok {
			return nil, fmt.Errorf("malformed number %q", literal)
		}
		return starlark.MakeBigInt(i), nil
	}
	f, err := num.Float64()
	if err != nil {
		return nil, fmt.Errorf("malformed number %q", literal)
	}
	return starlark.Float(f), nil
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	// A bare integer literal would decode as an integer next time
	// around; keep the float-ness visible.
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
