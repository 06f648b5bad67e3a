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

package serde_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/ngnhng/durablecore/api/serde"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// frameFixture mirrors the shape of the values that actually cross the
// worker boundary: strings, numbers, nesting, and loose maps.
type frameFixture struct {
	Name    string         `json:"name" msgpack:"name"`
	Age     int            `json:"age" msgpack:"age"`
	Score   float64        `json:"score" msgpack:"score"`
	Active  bool           `json:"active" msgpack:"active"`
	Tags    []string       `json:"tags" msgpack:"tags"`
	Nested  *nestedFixture `json:"nested,omitempty" msgpack:"nested,omitempty"`
	Mapping map[string]any `json:"mapping" msgpack:"mapping"`
}

type nestedFixture struct {
	Value string `json:"value" msgpack:"value"`
	Count int    `json:"count" msgpack:"count"`
}

// TestSerializationAgnostic verifies that every frame codec round-trips the
// same fixture.
func TestSerializationAgnostic(t *testing.T) {
	testCases := []struct {
		name        string
		serde       serde.BinarySerde
		contentType string
	}{
		{"JSON", &serde.JsonSerde{}, "application/json"},
		{"MessagePack", &serde.MsgpackSerde{}, "application/msgpack"},
	}

	originalData := frameFixture{
		Name:   "Alice",
		Age:    30,
		Score:  95.5,
		Active: true,
		Tags:   []string{"tag1", "tag2", "tag3"},
		Nested: &nestedFixture{
			Value: "nested_value",
			Count: 42,
		},
		Mapping: map[string]any{
			"key1": "value1",
			"key2": 123,
			"key3": true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.serde.ContentType(); got != tc.contentType {
				t.Errorf("ContentType = %q, want %q", got, tc.contentType)
			}

			serialized, err := tc.serde.SerializeBinary(originalData)
			if err != nil {
				t.Fatalf("Serialization failed: %v", err)
			}

			var deserialized frameFixture
			if err := tc.serde.DeserializeBinary(serialized, &deserialized); err != nil {
				t.Fatalf("Deserialization failed: %v", err)
			}

			if deserialized.Name != originalData.Name {
				t.Errorf("Name mismatch: got %v, want %v", deserialized.Name, originalData.Name)
			}
			if deserialized.Age != originalData.Age {
				t.Errorf("Age mismatch: got %v, want %v", deserialized.Age, originalData.Age)
			}
			if deserialized.Score != originalData.Score {
				t.Errorf("Score mismatch: got %v, want %v", deserialized.Score, originalData.Score)
			}
			if deserialized.Active != originalData.Active {
				t.Errorf("Active mismatch: got %v, want %v", deserialized.Active, originalData.Active)
			}
			if !reflect.DeepEqual(deserialized.Tags, originalData.Tags) {
				t.Errorf("Tags mismatch: got %v, want %v", deserialized.Tags, originalData.Tags)
			}
			if deserialized.Nested.Value != originalData.Nested.Value {
				t.Errorf("Nested.Value mismatch: got %v, want %v", deserialized.Nested.Value, originalData.Nested.Value)
			}
			if deserialized.Nested.Count != originalData.Nested.Count {
				t.Errorf("Nested.Count mismatch: got %v, want %v", deserialized.Nested.Count, originalData.Nested.Count)
			}
		})
	}
}

// TestTypeConverter verifies conversion of loosely typed values into
// concrete Go types across codecs.
func TestTypeConverter(t *testing.T) {
	testCases := []struct {
		name  string
		serde serde.BinarySerde
	}{
		{"JSON", &serde.JsonSerde{}},
		{"MessagePack", &serde.MsgpackSerde{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			converter := serde.NewTypeConverter(tc.serde)

			t.Run("identity", func(t *testing.T) {
				v, err := converter.ConvertToType("hello", reflect.TypeOf(""))
				if err != nil {
					t.Fatalf("ConvertToType failed: %v", err)
				}
				if v.String() != "hello" {
					t.Errorf("got %q", v.String())
				}
			})

			t.Run("float64 to int", func(t *testing.T) {
				v, err := converter.ConvertToType(float64(42), reflect.TypeOf(int(0)))
				if err != nil {
					t.Fatalf("ConvertToType failed: %v", err)
				}
				if v.Int() != 42 {
					t.Errorf("got %d, want 42", v.Int())
				}
			})

			t.Run("float64 to int with precision loss", func(t *testing.T) {
				if _, err := converter.ConvertToType(float64(42.5), reflect.TypeOf(int(0))); err == nil {
					t.Error("expected a precision loss error")
				}
			})

			t.Run("nil to zero value", func(t *testing.T) {
				v, err := converter.ConvertToType(nil, reflect.TypeOf(int(0)))
				if err != nil {
					t.Fatalf("ConvertToType failed: %v", err)
				}
				if v.Int() != 0 {
					t.Errorf("got %d, want 0", v.Int())
				}
			})

			t.Run("map to struct", func(t *testing.T) {
				v, err := converter.ConvertToType(
					map[string]any{"value": "x", "count": 3},
					reflect.TypeOf(nestedFixture{}),
				)
				if err != nil {
					t.Fatalf("ConvertToType failed: %v", err)
				}
				got := v.Interface().(nestedFixture)
				if got.Value != "x" || got.Count != 3 {
					t.Errorf("got %+v", got)
				}
			})
		})
	}
}

// TestProtoSerde exercises the protobuf codec with a well-known type.
func TestProtoSerde(t *testing.T) {
	s := &serde.ProtoSerde{}

	original := timestamppb.New(time.Unix(1_654_683_778, 123_000_000).UTC())
	data, err := s.SerializeBinary(original)
	if err != nil {
		t.Fatalf("Serialization failed: %v", err)
	}

	decoded := &timestamppb.Timestamp{}
	if err := s.DeserializeBinary(data, decoded); err != nil {
		t.Fatalf("Deserialization failed: %v", err)
	}
	if decoded.Seconds != original.Seconds || decoded.Nanos != original.Nanos {
		t.Errorf("round trip mismatch: got %v, want %v", decoded, original)
	}

	if _, err := s.SerializeBinary("not a proto message"); err == nil {
		t.Error("expected an error for a non-proto value")
	}
	if err := s.DeserializeBinary(data, &struct{}{}); err == nil {
		t.Error("expected an error for a non-proto target")
	}
}
