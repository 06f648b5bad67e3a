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

package internal

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ngnhng/durablecore/api/serde"
)

// Frames are length-delimited: a uvarint byte count followed by the
// serde-encoded message. Both directions of the driver boundary use this
// framing.

// EncodeFrame serializes msg and prefixes it with its uvarint length.
func EncodeFrame(s serde.BinarySerde, msg any) ([]byte, error) {
	data, err := s.SerializeBinary(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame body: %w", err)
	}
	frame := binary.AppendUvarint(make([]byte, 0, len(data)+binary.MaxVarintLen64), uint64(len(data)))
	return append(frame, data...), nil
}

// DecodeFrame consumes one frame from buf, deserializing the body into
// msgPtr. It returns the remaining bytes.
func DecodeFrame(s serde.BinarySerde, buf []byte, msgPtr any) ([]byte, error) {
	length, n := binary.Uvarint(buf)
	if n <= 0 {
		return nil, fmt.Errorf("failed to decode frame length prefix")
	}
	body := buf[n:]
	if uint64(len(body)) < length {
		return nil, fmt.Errorf("frame body truncated: want %d bytes, have %d", length, len(body))
	}
	if err := s.DeserializeBinary(body[:length], msgPtr); err != nil {
		return nil, fmt.Errorf("failed to decode frame body: %w", err)
	}
	return body[length:], nil
}

// WriteFrame writes one length-delimited frame to w.
func WriteFrame(w io.Writer, s serde.BinarySerde, msg any) error {
	frame, err := EncodeFrame(s, msg)
	if err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// ReadFrame reads one length-delimited frame from r into msgPtr.
func ReadFrame(r interface {
	io.Reader
	io.ByteReader
}, s serde.BinarySerde, msgPtr any) error {
	length, err := binary.ReadUvarint(r)
	if err != nil {
		return fmt.Errorf("failed to read frame length prefix: %w", err)
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return fmt.Errorf("failed to read frame body: %w", err)
	}
	if err := s.DeserializeBinary(body, msgPtr); err != nil {
		return fmt.Errorf("failed to decode frame body: %w", err)
	}
	return nil
}
