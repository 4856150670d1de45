package output

import (
	"encoding/json"
)

// ToJSON renders any response (snapshot, node list, outcome) with camelCase
// keys as defined on the model types.
func ToJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
