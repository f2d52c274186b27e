package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

var ErrCatalogNotObject = errors.New("currency catalog is not a JSON object")

// Catalog is the ordered list of currency codes supported by the backend.
// Order follows the key order of the currencies response.
type Catalog []string

func (c Catalog) Contains(code string) bool {
	return slices.Contains(c, code)
}

func (c Catalog) Clone() Catalog {
	return slices.Clone(c)
}

// UnmarshalJSON keeps the keys of a JSON object in document order. Values are
// skipped. A repeated key keeps its first position.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrCatalogNotObject
	}

	codes := Catalog{}
	seen := make(map[string]struct{})
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return fmt.Errorf("read catalog key: %w", err)
		}
		code, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected catalog key %v", tok)
		}
		var skip json.RawMessage
		if err = dec.Decode(&skip); err != nil {
			return fmt.Errorf("read catalog value for %q: %w", code, err)
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	if _, err = dec.Token(); err != nil {
		return fmt.Errorf("read catalog end: %w", err)
	}

	*c = codes
	return nil
}
