package stage

// immutableFields are set when a stage is recorded and never edited afterwards.
var immutableFields = map[string]bool{
	"id":                 true,
	"parent_unit_uuid":   true,
	"session_start_time": true,
	"session_end_time":   true,
	"is_in_db":           true,
	"creation_time":      true,
}

// StripImmutableFields returns a copy of fields without recording-time keys.
func StripImmutableFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if !immutableFields[k] {
			out[k] = v
		}
	}
	return out
}
