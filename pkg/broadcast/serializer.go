package broadcast

import (
	"encoding"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Serializer turns a message into the bytes written to one sink.
// The broker calls it once per (message, sink) pair, from the write task.
type Serializer[T any] func(Message[T]) ([]byte, error)

// JSONSerializer encodes the message payload as JSON.
func JSONSerializer[T any]() Serializer[T] {
	return func(msg Message[T]) ([]byte, error) {
		return json.Marshal(msg.Data)
	}
}

// BytesSerializer writes byte and string payloads as is.
func BytesSerializer[T ~[]byte | ~string]() Serializer[T] {
	return func(msg Message[T]) ([]byte, error) {
		return []byte(msg.Data), nil
	}
}

// DefaultSerializer passes []byte and string payloads through, uses
// encoding.TextMarshaler when implemented and falls back to JSON.
func DefaultSerializer[T any]() Serializer[T] {
	return func(msg Message[T]) ([]byte, error) {
		switch v := any(msg.Data).(type) {
		case []byte:
			return v, nil
		case string:
			return []byte(v), nil
		case encoding.TextMarshaler:
			return v.MarshalText()
		default:
			return json.Marshal(v)
		}
	}
}

// Decoder parses a payload received by a producer (a Pub/Sub message, a
// notification, a request body) into a message value.
type Decoder[T any] func(payload []byte) (T, error)

// JSONDecoder decodes JSON payloads.
func JSONDecoder[T any]() Decoder[T] {
	return func(payload []byte) (T, error) {
		var v T
		err := json.Unmarshal(payload, &v)
		return v, err
	}
}

// RawDecoder passes payloads through as bytes or string.
func RawDecoder[T ~[]byte | ~string]() Decoder[T] {
	return func(payload []byte) (T, error) {
		return T(payload), nil
	}
}
