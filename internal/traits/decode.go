package traits

import (
	"encoding/json"
	"fmt"
)

// Decode reads a persisted traits payload back into its schema variant. The
// traits_version tag picks the shape; unknown tags are an error rather than a
// guess.
func Decode(raw []byte) (Profile, error) {
	var tag struct {
		TraitsVersion int `json:"traits_version"`
	}
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, fmt.Errorf("decode traits envelope: %w", err)
	}
	switch tag.TraitsVersion {
	case SchemaCurrent:
		var p ProfileV3
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode v3 traits: %w", err)
		}
		return &p, nil
	case SchemaLegacy:
		var p ProfileV2
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode v2 traits: %w", err)
		}
		return &p, nil
	default:
		return nil, fmt.Errorf("unknown traits schema version %d", tag.TraitsVersion)
	}
}
