package polymarket

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// flexString decodes a JSON string or number into a string. The Gamma
// API is loose about scalar types (market IDs in particular show up
// both ways).
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*s = flexString(num.String())
	return nil
}

// Float64 parses the value as a float.
func (s flexString) Float64() (float64, error) {
	return strconv.ParseFloat(string(s), 64)
}

// stringList decodes either a native JSON array or a JSON-encoded
// string holding an array, e.g. "[\"0.7\",\"0.3\"]". Any other shape
// is an error, which callers treat as a malformed market.
type stringList []flexString

func (l *stringList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		// String-encoded: unquote, then decode the inner array.
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		data = []byte(inner)
	}

	var items []flexString
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("expected array or encoded array: %w", err)
	}
	*l = items
	return nil
}

// flexFloat decodes a JSON number, numeric string, or null into a
// float64. Missing and null both read as zero.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("expected number: %w", err)
	}
	*f = flexFloat(v)
	return nil
}
