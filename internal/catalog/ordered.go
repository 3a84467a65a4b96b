package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// decodeOrderedObject streams a top-level JSON object, calling fn for each
// member in document order. Catalog order decides score ties downstream.
func decodeOrderedObject(r io.Reader, fn func(key string, raw json.RawMessage)) error {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("expected a JSON object")
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("member %q: %w", key, err)
		}
		fn(key, raw)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
