package messagequeue

// Publisher defines the interface for publishing to a message queue.
type Publisher interface {
	Publish(queueName string, body []byte) error
	Close() error
}
