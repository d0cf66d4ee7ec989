package log

import "sort"

const (
	FieldKeyJob     = "job"
	FieldKeySession = "session"
	FieldKeySource  = "source"
	FieldKeyOpener  = "opener"
	FieldKeyMsg     = "msg"
	FieldKeyLevel   = "level"
	FieldKeyTime    = "time"
)

var logKeys = []string{
	FieldKeyMsg,
	FieldKeyLevel,
	FieldKeyTime,
}

// Fields type, used to pass to `WithFields`.
type Fields map[string]any

// Keys returns the sorted field names, without the given ones.
func (fields Fields) Keys(removeKeys ...string) []string {
	var keys []string

	for key := range fields {
		var skip bool

		for _, removeKey := range removeKeys {
			if key == removeKey {
				skip = true
				break
			}
		}

		if !skip {
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)

	return keys
}

// fixKeyClashes keeps user fields named `time`, `msg` or `level` from silently replacing the entry's own ones,
// `log.WithField("level", 1)` ends up as `fields.level`.
func (fields Fields) fixKeyClashes() {
	for _, key := range logKeys {
		if val, ok := fields[key]; ok {
			fields["fields."+key] = val
			delete(fields, key)
		}
	}
}
