package knowledge

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// Strings decodes a JSON string array column. Malformed or empty input yields nil.
func Strings(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// StringsJSON encodes a string list, always producing a JSON array.
func StringsJSON(in []string) datatypes.JSON {
	if in == nil {
		in = []string{}
	}
	b, _ := json.Marshal(in)
	return datatypes.JSON(b)
}

// Object decodes a JSON object column. Non-object input yields an empty map.
func Object(raw datatypes.JSON) map[string]any {
	out := map[string]any{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}

func ObjectJSON(in map[string]any) datatypes.JSON {
	if in == nil {
		in = map[string]any{}
	}
	b, _ := json.Marshal(in)
	return datatypes.JSON(b)
}

func KPIs(raw datatypes.JSON) []KPI {
	if len(raw) == 0 {
		return nil
	}
	var out []KPI
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func KPIsJSON(in []KPI) datatypes.JSON {
	if in == nil {
		return nil
	}
	b, _ := json.Marshal(in)
	return datatypes.JSON(b)
}
