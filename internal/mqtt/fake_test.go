package mqtt

import (
	"sync"
	"time"

	pm "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct {
	err            error
	sessionPresent bool
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) SessionPresent() bool           { return t.sessionPresent }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// waitToken completes once ready is closed.
type waitToken struct {
	fakeToken
	ready <-chan struct{}
}

func (t *waitToken) Wait() bool {
	<-t.ready
	return true
}

func (t *waitToken) Done() <-chan struct{} { return t.ready }

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

// fakeClient implements pm.Client. connectResults is consumed one entry per
// Connect call; once exhausted every Connect fails.
type fakeClient struct {
	mu sync.Mutex

	connected      bool
	connectResults []error
	sessionPresent bool
	subscribeErr   error
	unsubscribeErr error
	publishErr     error

	// routerIdle, when set, holds the Unsubscribe token until it is closed,
	// the way paho only reads UNSUBACK once its router is free.
	routerIdle <-chan struct{}

	connectCalls     int
	subscribed       []string
	unsubscribed     []string
	disconnectCalls  int
	published        []string
	handler          pm.MessageHandler
	subscribedQoS    byte
	publishedRetains []bool
}

var _ pm.Client = (*fakeClient)(nil)

func (f *fakeClient) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeClient) IsConnectionOpen() bool { return f.IsConnected() }

func (f *fakeClient) Connect() pm.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectCalls++

	err := errConnectRefused
	if len(f.connectResults) > 0 {
		err = f.connectResults[0]
		f.connectResults = f.connectResults[1:]
	}
	if err == nil {
		f.connected = true
	}
	return &fakeToken{err: err, sessionPresent: f.sessionPresent}
}

func (f *fakeClient) Disconnect(uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnectCalls++
	f.connected = false
}

func (f *fakeClient) Publish(topic string, _ byte, retained bool, payload interface{}) pm.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return &fakeToken{err: f.publishErr}
	}
	f.published = append(f.published, topic+" "+string(payload.([]byte)))
	f.publishedRetains = append(f.publishedRetains, retained)
	return &fakeToken{}
}

func (f *fakeClient) Subscribe(topic string, qos byte, callback pm.MessageHandler) pm.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribeErr != nil {
		return &fakeToken{err: f.subscribeErr}
	}
	f.subscribed = append(f.subscribed, topic)
	f.subscribedQoS = qos
	f.handler = callback
	return &fakeToken{}
}

func (f *fakeClient) SubscribeMultiple(map[string]byte, pm.MessageHandler) pm.Token {
	return &fakeToken{}
}

func (f *fakeClient) Unsubscribe(topics ...string) pm.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribed = append(f.unsubscribed, topics...)
	if f.routerIdle != nil {
		return &waitToken{fakeToken: fakeToken{err: f.unsubscribeErr}, ready: f.routerIdle}
	}
	return &fakeToken{err: f.unsubscribeErr}
}

func (f *fakeClient) AddRoute(string, pm.MessageHandler) {}

func (f *fakeClient) OptionsReader() pm.ClientOptionsReader {
	return pm.ClientOptionsReader{}
}

// deliver simulates paho's router calling the subscription handler.
func (f *fakeClient) deliver(topic string, payload string) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	h(f, &fakeMessage{topic: topic, payload: []byte(payload)})
}
