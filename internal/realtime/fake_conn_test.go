package realtime

import (
	"io"
	"slices"
	"sync"
)

// frame is one websocket message as seen by a fakeConn.
type frame struct {
	kind int
	data []byte
	err  error
}

// fakeConn is an in-memory wsConn. Inbound frames are served in order and
// every outbound frame is recorded.
type fakeConn struct {
	mu      sync.Mutex
	inbound []frame
	sent    []frame
	closes  int
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closes > 0 || len(c.inbound) == 0 {
		return 0, nil, io.EOF
	}
	f := c.inbound[0]
	c.inbound = c.inbound[1:]
	return f.kind, slices.Clone(f.data), f.err
}

func (c *fakeConn) WriteMessage(kind int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, frame{kind: kind, data: slices.Clone(data)})
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return nil
}

// written returns a copy of the outbound frames so far.
func (c *fakeConn) written() []frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.sent)
}

func (c *fakeConn) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

func kinds(frames []frame) []int {
	out := make([]int, len(frames))
	for i, f := range frames {
		out[i] = f.kind
	}
	return out
}
