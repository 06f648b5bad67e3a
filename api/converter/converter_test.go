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

package converter_test

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/ngnhng/durablecore/api"
	"github.com/ngnhng/durablecore/api/converter"
)

func TestToPayload(t *testing.T) {
	c := converter.NewDataConverter()

	tests := []struct {
		name         string
		value        any
		wantEncoding string
		wantData     []byte
	}{
		{name: "nil becomes binary/null", value: nil, wantEncoding: api.EncodingNull, wantData: nil},
		{name: "bytes become binary/plain", value: []byte("world"), wantEncoding: api.EncodingBinary, wantData: []byte("world")},
		{name: "string becomes json/plain", value: "success", wantEncoding: api.EncodingJSON, wantData: []byte(`"success"`)},
		{name: "number becomes json/plain", value: 42, wantEncoding: api.EncodingJSON, wantData: []byte(`42`)},
		{name: "struct becomes json/plain", value: map[string]int{"n": 1}, wantEncoding: api.EncodingJSON, wantData: []byte(`{"n":1}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := c.ToPayload(tt.value)
			if err != nil {
				t.Fatalf("ToPayload(%v) failed: %v", tt.value, err)
			}
			if got := p.Encoding(); got != tt.wantEncoding {
				t.Errorf("encoding = %q, want %q", got, tt.wantEncoding)
			}
			if !bytes.Equal(p.Data, tt.wantData) {
				t.Errorf("data = %q, want %q", p.Data, tt.wantData)
			}
		})
	}
}

func TestToPayloadPassThrough(t *testing.T) {
	c := converter.NewDataConverter()
	original := converter.BinaryPayload([]byte("raw"))

	p, err := c.ToPayload(original)
	if err != nil {
		t.Fatalf("ToPayload failed: %v", err)
	}
	if p != original {
		t.Errorf("pre-encoded payload was re-encoded")
	}
}

func TestFromPayload(t *testing.T) {
	c := converter.NewDataConverter()

	t.Run("json into string", func(t *testing.T) {
		p, _ := converter.JSONPayload("Hello")
		var got string
		if err := c.FromPayload(p, &got); err != nil {
			t.Fatalf("FromPayload failed: %v", err)
		}
		if got != "Hello" {
			t.Errorf("got %q, want %q", got, "Hello")
		}
	})

	t.Run("null zeroes the target", func(t *testing.T) {
		got := "sentinel"
		if err := c.FromPayload(converter.NullPayload(), &got); err != nil {
			t.Fatalf("FromPayload failed: %v", err)
		}
		if got != "" {
			t.Errorf("got %q, want zero value", got)
		}
	})

	t.Run("binary into byte slice", func(t *testing.T) {
		var got []byte
		if err := c.FromPayload(converter.BinaryPayload([]byte("world")), &got); err != nil {
			t.Fatalf("FromPayload failed: %v", err)
		}
		if !bytes.Equal(got, []byte("world")) {
			t.Errorf("got %q, want %q", got, "world")
		}
	})

	t.Run("binary into wrong target", func(t *testing.T) {
		var got string
		if err := c.FromPayload(converter.BinaryPayload([]byte("world")), &got); err == nil {
			t.Error("expected an error for a non-[]byte target")
		}
	})

	t.Run("unknown encoding", func(t *testing.T) {
		p := &api.Payload{Metadata: map[string][]byte{api.MetadataEncoding: []byte("binary/unknown")}}
		var got any
		if err := c.FromPayload(p, &got); err == nil {
			t.Error("expected an error for an unknown encoding")
		}
	})

	t.Run("non-pointer target", func(t *testing.T) {
		p, _ := converter.JSONPayload("Hello")
		if err := c.FromPayload(p, "not a pointer"); err == nil {
			t.Error("expected an error for a non-pointer target")
		}
	})
}

func TestFromPayloadValues(t *testing.T) {
	c := converter.NewDataConverter()

	hello, _ := converter.JSONPayload("Hello")
	payloads := []*api.Payload{
		hello,
		converter.NullPayload(),
		converter.BinaryPayload([]byte("world")),
	}

	values, err := c.FromPayloadValues(payloads)
	if err != nil {
		t.Fatalf("FromPayloadValues failed: %v", err)
	}

	want := []any{"Hello", nil, []byte("world")}
	if !reflect.DeepEqual(values, want) {
		t.Errorf("values = %#v, want %#v", values, want)
	}
}

func TestRoundTrip(t *testing.T) {
	c := converter.NewDataConverter()

	type order struct {
		ID    string  `json:"id"`
		Total float64 `json:"total"`
	}

	p, err := c.ToPayload(order{ID: "o-1", Total: 9.5})
	if err != nil {
		t.Fatalf("ToPayload failed: %v", err)
	}

	var got order
	if err := c.FromPayload(p, &got); err != nil {
		t.Fatalf("FromPayload failed: %v", err)
	}
	if got.ID != "o-1" || got.Total != 9.5 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}
