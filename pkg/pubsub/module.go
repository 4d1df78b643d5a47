package pubsub

import (
	"github.com/sasha-s/go-deadlock"
)

// Topic fans values out to every current subscriber. Publish blocks until
// each subscriber has taken delivery unless the subscriber was created with
// a buffer, so subscribers with slow consumers should buffer accordingly.
type Topic[T any] struct {
	subscribers map[chan T]struct{}
	mutex       deadlock.Mutex
}

func NewTopic[T any]() *Topic[T] {
	return &Topic[T]{
		subscribers: make(map[chan T]struct{}),
	}
}

func (t *Topic[T]) Publish(value T) {
	t.mutex.Lock()
	for subscriber := range t.subscribers {
		subscriber <- value
	}
	t.mutex.Unlock()
}

type Subscriber[T any] struct {
	channel chan T
	topic   *Topic[T]
}

func (t *Topic[T]) Subscribe() *Subscriber[T] {
	return t.subscribe(make(chan T))
}

// SubscribeBuffered is for consumers that must never stall the publisher;
// values beyond the buffer still block, they are not dropped.
func (t *Topic[T]) SubscribeBuffered(size int) *Subscriber[T] {
	return t.subscribe(make(chan T, size))
}

func (t *Topic[T]) subscribe(channel chan T) *Subscriber[T] {
	t.mutex.Lock()
	t.subscribers[channel] = struct{}{}
	t.mutex.Unlock()

	return &Subscriber[T]{channel, t}
}

func (s *Subscriber[T]) Recv() <-chan T {
	return s.channel
}

func (s *Subscriber[T]) Done() {
	topic := s.topic
	topic.mutex.Lock()
	delete(topic.subscribers, s.channel)
	topic.mutex.Unlock()
}
