package broadcast

// Message wraps an opaque payload moved through the broker.
// The broker never inspects Data; it is handed to the Serializer as is.
type Message[T any] struct {
	Data T
}

// NewMessage is a shorthand for Message[T]{Data: data}.
func NewMessage[T any](data T) Message[T] {
	return Message[T]{Data: data}
}
