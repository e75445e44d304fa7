package subscription

import (
	"encoding/json"

	"github.com/nicklaw5/helix/v2"
)

// Status summarizes every EventSub subscription that's relevant to this service
type Status struct {
	Ok            bool    `json:"ok"`
	Subscriptions []State `json:"subscriptions"`
}

// State describes a single EventSub subscription: either one that we require (which
// may be missing), or one that's registered to our callback URL without being required
type State struct {
	Required  bool              `json:"required"`
	Type      string            `json:"type"`
	Version   string            `json:"version"`
	Condition map[string]string `json:"condition"`
	Status    string            `json:"status"`

	subscriptionId string
}

const statusMissing = "missing"

// conditionToMap flattens a condition to only its non-empty fields, so that it
// serializes without the dozens of empty keys helix.EventSubCondition would produce
func conditionToMap(cond *helix.EventSubCondition) map[string]string {
	result := make(map[string]string)
	b, err := json.Marshal(cond)
	if err != nil {
		return result
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(b, &fields); err != nil {
		return result
	}
	for k, v := range fields {
		if s, ok := v.(string); ok && s != "" {
			result[k] = s
		}
	}
	return result
}

// conditionFromMap is the inverse of conditionToMap
func conditionFromMap(m map[string]string) (helix.EventSubCondition, error) {
	var cond helix.EventSubCondition
	b, err := json.Marshal(m)
	if err != nil {
		return cond, err
	}
	err = json.Unmarshal(b, &cond)
	return cond, err
}
