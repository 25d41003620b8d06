package transports

import (
	"bytes"
	"encoding/hex"
	"sync"
	"time"
)

// MockTransport is a scripted transport for tests. Requests are matched
// against registered stubs by their exact wire bytes; a matching write queues
// the stub's response for the next reads.
type MockTransport struct {
	mu sync.Mutex

	stubs   map[string]*stub
	readBuf bytes.Buffer

	// Writes records every packet written, in order.
	Writes [][]byte

	// ReadTimeout records the last value passed to SetReadTimeout.
	ReadTimeout time.Duration

	closed bool
}

type stub struct {
	response []byte
	series   [][]byte
	failures int
	calls    int
}

func NewMockTransport() *MockTransport {
	return &MockTransport{stubs: make(map[string]*stub)}
}

// Stub registers a response for an exact request packet.
func (m *MockTransport) Stub(request, response []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs[hex.EncodeToString(request)] = &stub{response: response}
}

// StubFailing registers a response that is withheld for the first failures
// matching writes, simulating a device that misses requests.
func (m *MockTransport) StubFailing(request, response []byte, failures int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs[hex.EncodeToString(request)] = &stub{response: response, failures: failures}
}

// StubSeries registers a sequence of responses for one request packet. Each
// matching write consumes the next response; once the series is exhausted
// the last response keeps repeating.
func (m *MockTransport) StubSeries(request []byte, responses ...[]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs[hex.EncodeToString(request)] = &stub{series: responses}
}

// QueueRead appends raw bytes to the read buffer without requiring a write.
func (m *MockTransport) QueueRead(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readBuf.Write(data)
}

// Calls reports how many times the given request packet was written.
func (m *MockTransport) Calls(request []byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.stubs[hex.EncodeToString(request)]; ok {
		return s.calls
	}
	return 0
}

func (m *MockTransport) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]byte, len(p))
	copy(cp, p)
	m.Writes = append(m.Writes, cp)

	if s, ok := m.stubs[hex.EncodeToString(p)]; ok {
		s.calls++
		switch {
		case s.failures > 0:
			s.failures--
		case len(s.series) > 0:
			m.readBuf.Write(s.series[0])
			if len(s.series) > 1 {
				s.series = s.series[1:]
			}
		default:
			m.readBuf.Write(s.response)
		}
	}
	return len(p), nil
}

func (m *MockTransport) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.readBuf.Len() == 0 {
		return 0, nil
	}
	return m.readBuf.Read(p)
}

func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MockTransport) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MockTransport) SetReadTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadTimeout = timeout
	return nil
}

// Flush is a no-op: queued responses stay readable so a request written
// before its reply is consumed still gets answered.
func (m *MockTransport) Flush() error { return nil }
