package audit

import "reflect"

// Changes collects the before/after value of each field an update touched.
type Changes map[string]any

// Set records field only if the value actually changed.
func (ch Changes) Set(field string, from, to any) {
	if reflect.DeepEqual(from, to) {
		return
	}
	ch[field] = map[string]any{"from": from, "to": to}
}

func (ch Changes) Empty() bool { return len(ch) == 0 }

// Details wraps the change set for an audit entry.
func (ch Changes) Details() map[string]any {
	return map[string]any{"changes": map[string]any(ch)}
}
