// Package payload decodes the list of missing objects handed to the DDL
// applier by an external source.
//
// The expected shape is a JSON array of objects:
//
//	[{"missing_object": "event"}, {"missing_object": "player"}]
//
// A null or empty array is a valid, empty list.
package payload

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"pgreconcile/reconcile"
)

// ValidationError reports an invalid entry of a payload.
type ValidationError struct {
	Index  int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing object %d: %s", e.Index, e.Reason)
}

type entry struct {
	Name *string `json:"missing_object"`
}

// DecodeMissing reads and validates a payload. Unknown fields, entries
// without a name and trailing data are rejected.
func DecodeMissing(r io.Reader) ([]reconcile.MissingObject, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var entries []entry
	if err := dec.Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("decode missing objects: empty input")
		}
		return nil, fmt.Errorf("decode missing objects: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode missing objects: unexpected data after list")
	}

	out := make([]reconcile.MissingObject, 0, len(entries))
	for i, e := range entries {
		switch {
		case e.Name == nil:
			return nil, &ValidationError{Index: i, Reason: "missing_object is required"}
		case strings.TrimSpace(*e.Name) == "":
			return nil, &ValidationError{Index: i, Reason: "missing_object is empty"}
		}
		out = append(out, reconcile.MissingObject{Name: *e.Name})
	}
	return out, nil
}

// LoadMissing decodes the payload stored at path.
func LoadMissing(path string) ([]reconcile.MissingObject, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	objs, err := DecodeMissing(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return objs, nil
}

// EncodeMissing writes objs in the payload format.
func EncodeMissing(w io.Writer, objs []reconcile.MissingObject) error {
	if objs == nil {
		objs = []reconcile.MissingObject{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(objs)
}

// FromResults returns the payload for the objects a check reported missing.
func FromResults(results []reconcile.Result) []reconcile.MissingObject {
	return reconcile.MissingFromResults(results)
}
