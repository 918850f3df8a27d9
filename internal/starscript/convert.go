package starscript

import "go.starlark.net/starlark"

// FromStarlark converts a Starlark value to a plain Go value.
// Composite values convert element-wise; anything unrecognized falls
// back to its Starlark string representation.
func FromStarlark(v starlark.Value) any {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil

	case starlark.Bool:
		return bool(val)

	case starlark.String:
		return string(val)

	case starlark.Int:
		if i, ok := val.Int64(); ok {
			return i
		}
		return val.String()

	case starlark.Float:
		return float64(val)

	case *starlark.List:
		out := make([]any, 0, val.Len())
		for i := 0; i < val.Len(); i++ {
			out = append(out, FromStarlark(val.Index(i)))
		}
		return out

	case starlark.Tuple:
		out := make([]any, 0, len(val))
		for _, item := range val {
			out = append(out, FromStarlark(item))
		}
		return out

	case *starlark.Dict:
		out := make(map[string]any, val.Len())
		for _, item := range val.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				key = starlark.String(item[0].String())
			}
			out[string(key)] = FromStarlark(item[1])
		}
		return out

	default:
		return v.String()
	}
}
