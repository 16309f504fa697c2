package event

// Clone returns a Value structurally equal to v that shares no mutable
// substructure with it. Member order and number literals are
// preserved. Routines run against a clone so a failure that only
// partially completes never corrupts the caller's original event.
func Clone(v Value) Value {
	switch v.kind {
	case Array:
		items := make([]Value, len(v.arr))
		for i, item := range v.arr {
			items[i] = Clone(item)
		}
		return Value{kind: Array, arr: items}
	case Object:
		members := make([]Member, len(v.obj))
		for i, m := range v.obj {
			members[i] = Member{Key: m.Key, Value: Clone(m.Value)}
		}
		return Value{kind: Object, obj: members}
	default:
		// Scalars carry no mutable state.
		return v
	}
}
