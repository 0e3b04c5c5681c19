// Package bus is the in-process publish/subscribe bus services talk over.
// Topics are token paths; subscriptions may use "+" for one token and "#"
// for the remainder (including nothing). Retained messages are replayed to
// new matching subscribers.
package bus

import (
	"context"
	"strconv"
	"sync"
)

const (
	wildOne  = "+"
	wildRest = "#"
)

// Topic is a sequence of tokens.
type Topic []string

// T builds a topic.
func T(tokens ...string) Topic { return Topic(tokens) }

func (t Topic) Len() int { return len(t) }

// At returns token i, or "" when out of range.
func (t Topic) At(i int) string {
	if i < 0 || i >= len(t) {
		return ""
	}
	return t[i]
}

// Append returns a new topic; t is not modified.
func (t Topic) Append(tokens ...string) Topic {
	out := make(Topic, 0, len(t)+len(tokens))
	out = append(out, t...)
	return append(out, tokens...)
}

func (t Topic) String() string {
	s := ""
	for i, tok := range t {
		if i > 0 {
			s += "/"
		}
		s += tok
	}
	return s
}

// Message is one publication.
type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
	ReplyTo  Topic
}

// CanReply reports whether the sender asked for a reply.
func (m *Message) CanReply() bool { return len(m.ReplyTo) > 0 }

// Subscription delivers matching messages on a bounded channel.
type Subscription struct {
	topic Topic
	ch    chan *Message
	conn  *Connection
}

func (s *Subscription) Topic() Topic             { return s.topic }
func (s *Subscription) Channel() <-chan *Message { return s.ch }
func (s *Subscription) Unsubscribe()             { s.conn.Unsubscribe(s) }

type node struct {
	children map[string]*node
	subs     []*Subscription
	retained *Message
}

func (n *node) child(tok string, create bool) *node {
	if c, ok := n.children[tok]; ok || !create {
		return c
	}
	if n.children == nil {
		n.children = make(map[string]*node)
	}
	c := &node{}
	n.children[tok] = c
	return c
}

// Bus routes messages between connections.
type Bus struct {
	mu   sync.Mutex
	root *node
	qLen int
}

// NewBus creates a bus whose subscriptions queue up to queueLen messages.
// A full queue drops its oldest message.
func NewBus(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8
	}
	return &Bus{root: &node{}, qLen: queueLen}
}

// NewMessage builds a message.
func (b *Bus) NewMessage(t Topic, payload any, retained bool) *Message {
	return &Message{Topic: t, Payload: payload, Retained: retained}
}

func deliver(sub *Subscription, msg *Message) {
	select {
	case sub.ch <- msg:
		return
	default:
	}
	select {
	case <-sub.ch:
	default:
	}
	select {
	case sub.ch <- msg:
	default:
	}
}

// Publish delivers msg to every matching subscriber. A retained message
// with a nil payload clears the retained slot.
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if msg.Retained && !hasWildcard(msg.Topic) {
		n := b.root
		stack := make([]*node, 0, len(msg.Topic))
		for _, tok := range msg.Topic {
			stack = append(stack, n)
			n = n.child(tok, msg.Payload != nil)
			if n == nil {
				break
			}
		}
		if n != nil {
			if msg.Payload == nil {
				n.retained = nil
				prune(stack, msg.Topic)
			} else {
				n.retained = msg
			}
		}
	}
	var hits []*Subscription
	collect(b.root, msg.Topic, &hits)
	for _, s := range hits {
		deliver(s, msg)
	}
}

func collect(n *node, t Topic, out *[]*Subscription) {
	if n == nil {
		return
	}
	if h := n.children[wildRest]; h != nil {
		*out = append(*out, h.subs...)
	}
	if len(t) == 0 {
		*out = append(*out, n.subs...)
		return
	}
	collect(n.children[t[0]], t[1:], out)
	collect(n.children[wildOne], t[1:], out)
}

func hasWildcard(t Topic) bool {
	for _, tok := range t {
		if tok == wildOne || tok == wildRest {
			return true
		}
	}
	return false
}

// replay sends retained messages under n that match pattern p.
func replay(n *node, p Topic, sub *Subscription) {
	if n == nil {
		return
	}
	if len(p) == 0 {
		if n.retained != nil {
			deliver(sub, n.retained)
		}
		return
	}
	switch p[0] {
	case wildRest:
		replayAll(n, sub)
	case wildOne:
		for tok, c := range n.children {
			if tok != wildOne && tok != wildRest {
				replay(c, p[1:], sub)
			}
		}
	default:
		replay(n.children[p[0]], p[1:], sub)
	}
}

func replayAll(n *node, sub *Subscription) {
	if n.retained != nil {
		deliver(sub, n.retained)
	}
	for _, c := range n.children {
		replayAll(c, sub)
	}
}

func (b *Bus) subscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.root
	for _, tok := range sub.topic {
		n = n.child(tok, true)
	}
	n.subs = append(n.subs, sub)
	replay(b.root, sub.topic, sub)
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.root
	stack := make([]*node, 0, len(sub.topic))
	for _, tok := range sub.topic {
		stack = append(stack, n)
		if n = n.child(tok, false); n == nil {
			return
		}
	}
	for i, s := range n.subs {
		if s == sub {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			break
		}
	}
	prune(stack, sub.topic)
}

// prune walks back up t deleting nodes with no subs, retained message or
// children. stack[i] is the parent of t[i].
func prune(stack []*node, t Topic) {
	for i := len(t) - 1; i >= 0; i-- {
		parent := stack[i]
		c := parent.children[t[i]]
		if c == nil || len(c.subs) > 0 || len(c.children) > 0 || c.retained != nil {
			return
		}
		delete(parent.children, t[i])
	}
}

// Connection groups the subscriptions of one service.
type Connection struct {
	bus  *Bus
	id   string
	mu   sync.Mutex
	subs []*Subscription
	seq  uint32
}

// NewConnection creates a connection bound to this bus.
func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{bus: b, id: id}
}

func (c *Connection) ID() string { return c.id }

func (c *Connection) NewMessage(t Topic, payload any, retained bool) *Message {
	return c.bus.NewMessage(t, payload, retained)
}

func (c *Connection) Publish(msg *Message) { c.bus.Publish(msg) }

// Reply answers req on its ReplyTo topic. It is a no-op without one.
func (c *Connection) Reply(req *Message, payload any, retained bool) {
	if !req.CanReply() {
		return
	}
	c.bus.Publish(&Message{Topic: req.ReplyTo, Payload: payload, Retained: retained})
}

// Subscribe registers a subscription owned by this connection.
func (c *Connection) Subscribe(t Topic) *Subscription {
	sub := &Subscription{topic: t, ch: make(chan *Message, c.bus.qLen), conn: c}
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	c.bus.subscribe(sub)
	return sub
}

// Unsubscribe removes sub and closes its channel.
func (c *Connection) Unsubscribe(sub *Subscription) {
	c.mu.Lock()
	found := false
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			found = true
			break
		}
	}
	c.mu.Unlock()
	if !found {
		return
	}
	c.bus.unsubscribe(sub)
	close(sub.ch)
}

// Disconnect closes all subscriptions of this connection.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()
	for _, s := range subs {
		c.bus.unsubscribe(s)
		close(s.ch)
	}
}

// Request publishes msg with a private reply topic and waits for the first
// reply or ctx expiry.
func (c *Connection) Request(ctx context.Context, msg *Message) (*Message, error) {
	c.mu.Lock()
	c.seq++
	rt := T("_reply", c.id, strconv.FormatUint(uint64(c.seq), 10))
	c.mu.Unlock()

	sub := c.Subscribe(rt)
	defer c.Unsubscribe(sub)

	m := *msg
	m.ReplyTo = rt
	c.Publish(&m)

	select {
	case r := <-sub.Channel():
		return r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
