// Package dispatch is the in-process change feed: every store mutation
// publishes a Change here, and subscribers (websocket hub, query façade
// channels) receive it synchronously before the mutation call returns.
package dispatch

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type Event string

const (
	EventInsert Event = "INSERT"
	EventUpdate Event = "UPDATE"
	EventAll    Event = "*"
)

// Change is one published mutation.
type Change struct {
	Table string `json:"table"`
	Event Event  `json:"event"`
	Data  any    `json:"data"`
}

// Subscription filters the change feed. Filter, when set, has the form
// "column=eq.value" and matches on string equality of the payload column.
type Subscription struct {
	Channel  string
	Event    Event
	Table    string
	Filter   string
	Callback func(Change)
}

type subscriber struct {
	id  string
	sub Subscription
}

// Dispatcher delivers changes to subscribers in registration order.
type Dispatcher struct {
	mu   sync.RWMutex
	subs []subscriber
}

func New() *Dispatcher {
	return &Dispatcher{}
}

// Subscribe registers sub and returns its subscription id.
func (d *Dispatcher) Subscribe(sub Subscription) string {
	id := uuid.NewString()
	d.mu.Lock()
	d.subs = append(d.subs, subscriber{id: id, sub: sub})
	d.mu.Unlock()
	return id
}

// Unsubscribe removes the subscription with the given id, if present.
func (d *Dispatcher) Unsubscribe(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, s := range d.subs {
		if s.id == id {
			d.subs = append(d.subs[:i], d.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers the change to every matching subscriber, exactly once
// each, in registration order. Delivery is synchronous; a panicking
// callback is logged and does not stop delivery to later subscribers.
func (d *Dispatcher) Publish(table string, event Event, data any) {
	change := Change{Table: table, Event: event, Data: data}

	d.mu.RLock()
	matched := make([]func(Change), 0, len(d.subs))
	for _, s := range d.subs {
		if s.sub.Table != table {
			continue
		}
		if s.sub.Event != EventAll && s.sub.Event != event {
			continue
		}
		if s.sub.Filter != "" && !matchFilter(s.sub.Filter, data) {
			continue
		}
		matched = append(matched, s.sub.Callback)
	}
	d.mu.RUnlock()

	for _, cb := range matched {
		deliver(cb, change)
	}
}

func deliver(cb func(Change), c Change) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("dispatch: subscriber panic on %s %s: %v", c.Table, c.Event, r)
		}
	}()
	cb(c)
}

// matchFilter evaluates a "column=eq.value" filter against the payload.
// Only the eq operator exists; comparison is on the string rendering of
// the column value.
func matchFilter(filter string, data any) bool {
	col, want, ok := ParseFilter(filter)
	if !ok {
		return false
	}
	fields := payloadFields(data)
	got, ok := fields[col]
	if !ok {
		return false
	}
	return stringValue(got) == want
}

// ParseFilter splits "column=eq.value" into its parts.
func ParseFilter(filter string) (column, value string, ok bool) {
	eq := strings.SplitN(filter, "=eq.", 2)
	if len(eq) != 2 || eq[0] == "" {
		return "", "", false
	}
	return eq[0], eq[1], true
}

func payloadFields(data any) map[string]any {
	if m, ok := data.(map[string]any); ok {
		return m
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; render integers without a dot.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
