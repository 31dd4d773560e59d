package export

import "encoding/json"

// JSON formats a report as an indented JSON document.
func JSON(r *Report) (string, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
