package publisher

// Publisher delivers per-product summary messages to downstream consumers
type Publisher interface {
	// Publish sends message for the product stored under key. Messages
	// for the same key keep their order.
	Publish(key string, message []byte) error

	// TrimStreams caps every stream at its configured length
	TrimStreams() error

	// Close releases the connection
	Close() error
}
