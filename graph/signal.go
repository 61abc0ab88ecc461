package graph

import "sync"

// ChangeSignal is a small generic pub-sub primitive: callers subscribe a
// callback and receive a Connection they can Disconnect later. It is used
// here to let editor/tooling code observe new passes as a graph is built,
// without the FrameGraph needing to know anything about its listeners.
type ChangeSignal struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[uint64]func(*FramePass)
}

// NewChangeSignal creates an empty signal.
func NewChangeSignal() *ChangeSignal {
	return &ChangeSignal{listeners: map[uint64]func(*FramePass){}}
}

// Connection is the handle returned by Connect; call Disconnect to stop
// receiving further emissions.
type Connection struct {
	signal *ChangeSignal
	id     uint64
}

// Disconnect removes this connection's listener. Safe to call more than
// once.
func (c Connection) Disconnect() {
	c.signal.mu.Lock()
	defer c.signal.mu.Unlock()
	delete(c.signal.listeners, c.id)
}

// Connect registers fn to be called on every subsequent Emit.
func (s *ChangeSignal) Connect(fn func(*FramePass)) Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	return Connection{signal: s, id: id}
}

// Emit calls every connected listener with pass, in an unspecified order.
func (s *ChangeSignal) Emit(pass *FramePass) {
	s.mu.Lock()
	fns := make([]func(*FramePass), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(pass)
	}
}
