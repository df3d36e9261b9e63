package domain

import "encoding/json"

// MarshalJSON flattens Fields into the top-level object next to the
// attributes block, matching the Salesforce REST record shape.
func (r *Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+2)
	for k, v := range r.Fields {
		out[k] = v
	}
	out["attributes"] = r.Attributes
	if r.ID != "" {
		out["Id"] = r.ID
	}
	return json.Marshal(out)
}
