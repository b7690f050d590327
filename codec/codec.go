// Package codec centralizes the JSON encoding of reports written by the
// bloomdb command (filter info, query results, benchmark results).
//
// The filter format itself is binary and never goes through a codec.
package codec

import (
	"encoding/json"

	gojson "github.com/goccy/go-json"
)

// Codec encodes and decodes reports. Implementations are stateless and safe
// for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	// MarshalIndent uses two-space indentation and no prefix.
	MarshalIndent(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the codec used by the bloomdb command.
var Default Codec = GoJSON{}

// GoJSON encodes with github.com/goccy/go-json.
type GoJSON struct{}

func (GoJSON) Marshal(v any) ([]byte, error)       { return gojson.Marshal(v) }
func (GoJSON) MarshalIndent(v any) ([]byte, error) { return gojson.MarshalIndent(v, "", "  ") }
func (GoJSON) Unmarshal(data []byte, v any) error  { return gojson.Unmarshal(data, v) }
func (GoJSON) Name() string                        { return "go-json" }

// JSON encodes with encoding/json. Its output matches GoJSON for the report
// types, which the tests hold it to.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error)       { return json.Marshal(v) }
func (JSON) MarshalIndent(v any) ([]byte, error) { return json.MarshalIndent(v, "", "  ") }
func (JSON) Unmarshal(data []byte, v any) error  { return json.Unmarshal(data, v) }
func (JSON) Name() string                        { return "json" }
