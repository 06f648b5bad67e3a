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

package serde

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

var _ BinarySerde = (*ProtoSerde)(nil)

// ProtoSerde implements BinarySerde using Protobuf. Values must be
// proto.Message; use it when interoperating with protobuf-native
// coordinators.
type ProtoSerde struct{}

// SerializeBinary serializes a proto.Message to its binary representation.
func (p *ProtoSerde) SerializeBinary(value any) ([]byte, error) {
	msg, ok := value.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("value is not a proto.Message")
	}
	data, err := proto.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("protobuf serialization failed: %w", err)
	}
	return data, nil
}

// DeserializeBinary deserializes binary data into a proto.Message.
func (p *ProtoSerde) DeserializeBinary(data []byte, valuePtr any) error {
	msg, ok := valuePtr.(proto.Message)
	if !ok {
		return fmt.Errorf("valuePtr is not a proto.Message")
	}
	if err := proto.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("protobuf deserialization failed: %w", err)
	}
	return nil
}

// ContentType identifies protobuf frames on the wire.
func (p *ProtoSerde) ContentType() string {
	return "application/protobuf"
}
