package event

// Envelope pairs an event name with its payload.
type Envelope struct {
	Name    string
	Payload any
}

// Bus is a buffered, drop-oldest Sink. Publish never blocks: when the
// buffer is full the oldest queued event is discarded so fresh output
// keeps flowing to the consumer.
//
// Bus is safe for concurrent publishers. Close only after every
// producer has stopped publishing.
type Bus struct {
	ch chan Envelope
}

// DefaultBuffer is the event queue depth used when NewBus is given a
// non-positive size.
const DefaultBuffer = 256

// NewBus creates a bus with the given buffer size.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus{ch: make(chan Envelope, buffer)}
}

// Publish implements Sink.
func (b *Bus) Publish(name string, payload any) {
	env := Envelope{Name: name, Payload: payload}
	select {
	case b.ch <- env:
	default:
		// Buffer full: drop the oldest queued event and retry once.
		select {
		case <-b.ch:
		default:
		}
		select {
		case b.ch <- env:
		default:
		}
	}
}

// Events returns the receive side of the bus. The channel is closed by
// Close.
func (b *Bus) Events() <-chan Envelope {
	return b.ch
}

// Close closes the bus. Publishing after Close panics, so producers
// must be stopped first.
func (b *Bus) Close() {
	close(b.ch)
}
