package graph

import (
	"encoding/json"
	"fmt"
)

// decodeInto maps a Result payload onto a typed shape.
func decodeInto(data any, out any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// callError converts a failed Result into an error for service callers.
func callError(op string, res Result) error {
	if res.StatusCode != 0 {
		return fmt.Errorf("%s: %s (status %d)", op, res.Error, res.StatusCode)
	}
	return fmt.Errorf("%s: %s", op, res.Error)
}
