package utils

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
)

// ReadJSONFile decodes the JSON document at path into v.
func ReadJSONFile(path string, v interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "failed to read %s", path)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return eris.Wrapf(err, "failed to parse %s", path)
	}
	return nil
}
