package message

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Reply errors.
var (
	// ErrUnknownCorrelation is returned when a reply carries an id
	// that no pending request is waiting on.
	ErrUnknownCorrelation = errors.New("unknown correlation id")

	// ErrMalformedReply is returned when a reply is not valid JSON
	// or lacks the echoed {action, id} pair.
	ErrMalformedReply = errors.New("malformed reply")
)

// Reply is the correlated response to a descriptor that expected one.
type Reply struct {
	// Action echoes the request action.
	Action string

	// ID echoes the correlation token.
	ID string

	// Err is non-nil when the collaborator reports a failed round
	// trip. The engine's only obligation is to clear waiting state;
	// it never retries.
	Err error

	// Result is the raw result payload.
	Result gjson.Result
}

// ReplyHandler consumes one correlated reply.
type ReplyHandler func(Reply)

// Correlator issues correlation tokens and routes replies back to the
// handler that requested them. It never blocks key dispatch: handlers
// run on the caller's goroutine when the reply arrives.
type Correlator struct {
	mu      sync.Mutex
	pending map[string]pendingReply
}

type pendingReply struct {
	action  string
	handler ReplyHandler
}

// NewCorrelator creates an empty correlator.
func NewCorrelator() *Correlator {
	return &Correlator{pending: make(map[string]pendingReply)}
}

// Track assigns a fresh correlation token to the descriptor and
// registers the handler for its eventual reply. Returns the stamped
// descriptor.
func (c *Correlator) Track(d Descriptor, handler ReplyHandler) Descriptor {
	d.ID = uuid.NewString()

	c.mu.Lock()
	c.pending[d.ID] = pendingReply{action: d.Action, handler: handler}
	c.mu.Unlock()

	return d
}

// Pending returns the number of outstanding round trips.
func (c *Correlator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// HandleReply parses one raw reply message and routes it to the
// registered handler. A reply with an "error" field is delivered as a
// failed Reply; the handler decides what UI state to clear.
func (c *Correlator) HandleReply(data []byte) error {
	if !gjson.ValidBytes(data) {
		return ErrMalformedReply
	}

	parsed := gjson.ParseBytes(data)
	id := parsed.Get("id").String()
	action := parsed.Get("action").String()
	if id == "" || action == "" {
		return ErrMalformedReply
	}

	c.mu.Lock()
	p, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if !ok {
		return ErrUnknownCorrelation
	}

	reply := Reply{
		Action: action,
		ID:     id,
		Result: parsed.Get("result"),
	}
	if errMsg := parsed.Get("error"); errMsg.Exists() {
		reply.Err = errors.New(errMsg.String())
	}

	if p.handler != nil {
		p.handler(reply)
	}
	return nil
}

// Drop abandons one pending round trip without delivering a reply.
func (c *Correlator) Drop(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}
