// Copyright 2025 Nguyen Nhat Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package converter

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/ngnhng/durablecore/api"
)

// Converter encodes user values into payloads and back. Payload metadata
// carries the encoding, so decoding is self-describing.
type Converter interface {
	ToPayload(v any) (*api.Payload, error)
	FromPayload(p *api.Payload, valuePtr any) error
	FromPayloadValue(p *api.Payload) (any, error)
}

// DataConverter is the default Converter:
//
//	nil      -> binary/null (no data)
//	[]byte   -> binary/plain (raw bytes)
//	anything -> json/plain (UTF-8 JSON)
//
// A *api.Payload passes through untouched so pre-encoded values survive a
// round trip through workflow results.
type DataConverter struct{}

var _ Converter = (*DataConverter)(nil)

func NewDataConverter() *DataConverter {
	return &DataConverter{}
}

// NullPayload returns the canonical binary/null payload.
func NullPayload() *api.Payload {
	return &api.Payload{
		Metadata: map[string][]byte{
			api.MetadataEncoding: []byte(api.EncodingNull),
		},
	}
}

// BinaryPayload wraps raw bytes in a binary/plain payload.
func BinaryPayload(data []byte) *api.Payload {
	return &api.Payload{
		Metadata: map[string][]byte{
			api.MetadataEncoding: []byte(api.EncodingBinary),
		},
		Data: data,
	}
}

// JSONPayload encodes v as a json/plain payload.
func JSONPayload(v any) (*api.Payload, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json payload encoding failed: %w", err)
	}
	return &api.Payload{
		Metadata: map[string][]byte{
			api.MetadataEncoding: []byte(api.EncodingJSON),
		},
		Data: data,
	}, nil
}

func (c *DataConverter) ToPayload(v any) (*api.Payload, error) {
	switch val := v.(type) {
	case nil:
		return NullPayload(), nil
	case *api.Payload:
		return val, nil
	case []byte:
		return BinaryPayload(val), nil
	default:
		return JSONPayload(v)
	}
}

// ToPayloads converts each value in order. An empty input yields an empty,
// non-nil slice.
func (c *DataConverter) ToPayloads(values ...any) ([]*api.Payload, error) {
	payloads := make([]*api.Payload, 0, len(values))
	for i, v := range values {
		p, err := c.ToPayload(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payload %d: %w", i, err)
		}
		payloads = append(payloads, p)
	}
	return payloads, nil
}

// FromPayload decodes a payload into valuePtr, which must be a non-nil
// pointer. binary/null leaves the target at its zero value.
func (c *DataConverter) FromPayload(p *api.Payload, valuePtr any) error {
	rv := reflect.ValueOf(valuePtr)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("converter.FromPayload: must pass a non-nil pointer, not a %T", valuePtr)
	}

	switch enc := p.Encoding(); enc {
	case api.EncodingNull:
		rv.Elem().Set(reflect.Zero(rv.Elem().Type()))
		return nil
	case api.EncodingBinary:
		target, ok := valuePtr.(*[]byte)
		if !ok {
			return fmt.Errorf("converter.FromPayload: binary/plain requires a *[]byte target, not a %T", valuePtr)
		}
		*target = p.Data
		return nil
	case api.EncodingJSON:
		if err := json.Unmarshal(p.Data, valuePtr); err != nil {
			return fmt.Errorf("json payload decoding failed: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("converter.FromPayload: unknown payload encoding %q", enc)
	}
}

// FromPayloadValue decodes a payload into the loosest Go value it maps to:
// nil, []byte, or the result of a JSON unmarshal into any.
func (c *DataConverter) FromPayloadValue(p *api.Payload) (any, error) {
	switch enc := p.Encoding(); enc {
	case api.EncodingNull:
		return nil, nil
	case api.EncodingBinary:
		return p.Data, nil
	case api.EncodingJSON:
		var v any
		if err := json.Unmarshal(p.Data, &v); err != nil {
			return nil, fmt.Errorf("json payload decoding failed: %w", err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("converter.FromPayloadValue: unknown payload encoding %q", enc)
	}
}

// FromPayloadValues decodes each payload in order.
func (c *DataConverter) FromPayloadValues(payloads []*api.Payload) ([]any, error) {
	values := make([]any, 0, len(payloads))
	for i, p := range payloads {
		v, err := c.FromPayloadValue(p)
		if err != nil {
			return nil, fmt.Errorf("failed to decode payload %d: %w", i, err)
		}
		values = append(values, v)
	}
	return values, nil
}
