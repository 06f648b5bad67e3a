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

package api

const nanosPerMilli = 1_000_000

// Timestamp is a point in time as seconds plus nanoseconds, mirroring the
// protobuf well-known type so frames stay convertible at the boundary.
type Timestamp struct {
	Seconds int64 `json:"seconds" msgpack:"seconds"`
	Nanos   int32 `json:"nanos" msgpack:"nanos"`
}

// Duration is a span of time as seconds plus nanoseconds.
type Duration struct {
	Seconds int64 `json:"seconds" msgpack:"seconds"`
	Nanos   int32 `json:"nanos" msgpack:"nanos"`
}

// MillisToTimestamp converts integer milliseconds to a Timestamp.
func MillisToTimestamp(ms int64) Timestamp {
	return Timestamp{
		Seconds: ms / 1000,
		Nanos:   int32(ms%1000) * nanosPerMilli,
	}
}

// Millis converts the timestamp back to integer milliseconds. Sub-millisecond
// precision is discarded.
func (t Timestamp) Millis() int64 {
	return t.Seconds*1000 + int64(t.Nanos)/nanosPerMilli
}

// MillisToDuration converts integer milliseconds to a Duration.
func MillisToDuration(ms int64) Duration {
	return Duration{
		Seconds: ms / 1000,
		Nanos:   int32(ms%1000) * nanosPerMilli,
	}
}

// Millis converts the duration back to integer milliseconds.
func (d Duration) Millis() int64 {
	return d.Seconds*1000 + int64(d.Nanos)/nanosPerMilli
}
