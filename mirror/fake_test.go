package mirror

import (
	"context"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// fakeToken is a paho.Token completed on construction unless told to hang.
type fakeToken struct {
	err  error
	done chan struct{}
}

func newFakeToken(err error, complete bool) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	if complete {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} { return t.done }

func (t *fakeToken) Error() error { return t.err }

type publishedMessage struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakePublisher records published messages for test assertions.
type fakePublisher struct {
	mu           sync.Mutex
	messages     []publishedMessage
	publishError error
	hang         bool
	disconnected bool
}

func (f *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.hang {
		return newFakeToken(nil, false)
	}
	if f.publishError != nil {
		return newFakeToken(f.publishError, true)
	}
	f.messages = append(f.messages, publishedMessage{
		topic:    topic,
		qos:      qos,
		retained: retained,
		payload:  payload.([]byte),
	})
	return newFakeToken(nil, true)
}

func (f *fakePublisher) Disconnect(uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = true
}

func (f *fakePublisher) published() []publishedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publishedMessage(nil), f.messages...)
}

type hsetCall struct {
	key    string
	values []interface{}
}

// fakeHashWriter records HSET calls.
type fakeHashWriter struct {
	mu     sync.Mutex
	calls  []hsetCall
	err    error
	closed bool
}

func (f *fakeHashWriter) HSet(_ context.Context, key string, values ...interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, hsetCall{key: key, values: values})
	return nil
}

func (f *fakeHashWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeHashWriter) hsets() []hsetCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]hsetCall(nil), f.calls...)
}
