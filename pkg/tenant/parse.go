package tenant

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"
)

// Parse decodes a tenant config document. Documents are JSON but tolerate
// schema drift, so decoding goes through an intermediate map: parse, normalize
// the legacy shapes, then decode into the typed Config.
func Parse(data []byte) (*Config, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse tenant config: %w", err)
	}

	normalizeActionChips(raw)

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build config decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode tenant config: %w", err)
	}

	return cfg, nil
}

// normalizeActionChips rewrites the current map-keyed action_chips schema into
// the ordered sequence the legacy schema used, so a single typed field serves
// both. Map entries are ordered by chip id for determinism.
func normalizeActionChips(raw map[string]interface{}) {
	chips, ok := raw["action_chips"].(map[string]interface{})
	if !ok {
		return
	}

	ids := make([]string, 0, len(chips))
	for id := range chips {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	seq := make([]interface{}, 0, len(chips))
	for _, id := range ids {
		chip, ok := chips[id].(map[string]interface{})
		if !ok {
			continue
		}
		if _, ok := chip["id"]; !ok {
			chip["id"] = id
		}
		seq = append(seq, chip)
	}
	raw["action_chips"] = seq
}
