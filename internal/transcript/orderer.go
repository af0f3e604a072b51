package transcript

import (
	"sort"
	"strings"
	"sync"
)

// Fragment is one transcribed chunk keyed by its capture sequence value.
type Fragment struct {
	Sequence float64 `json:"sequence"`
	Text     string  `json:"text"`
}

// Orderer buffers fragments for one session and keeps them sorted by
// sequence key regardless of arrival order. Fragments with equal keys keep
// their arrival order. Rendering is deterministic: it depends only on the
// set of (sequence, text) pairs appended, never on delivery timing.
type Orderer struct {
	mu        sync.Mutex
	fragments []Fragment
}

// NewOrderer creates an empty fragment orderer.
func NewOrderer() *Orderer {
	return &Orderer{}
}

// Append inserts a fragment at its sequence position. Equal sequence keys
// are inserted after existing ones, so ties resolve by arrival order.
func (o *Orderer) Append(sequence float64, text string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	idx := sort.Search(len(o.fragments), func(i int) bool {
		return o.fragments[i].Sequence > sequence
	})

	o.fragments = append(o.fragments, Fragment{})
	copy(o.fragments[idx+1:], o.fragments[idx:])
	o.fragments[idx] = Fragment{Sequence: sequence, Text: text}
}

// Render concatenates all buffered fragments in ascending sequence order,
// joined by a single space. Missing sequence values are never inferred.
func (o *Orderer) Render() string {
	o.mu.Lock()
	defer o.mu.Unlock()

	parts := make([]string, 0, len(o.fragments))
	for _, f := range o.fragments {
		parts = append(parts, f.Text)
	}
	return strings.Join(parts, " ")
}

// Len returns the number of buffered fragments.
func (o *Orderer) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.fragments)
}

// Fragments returns a copy of the buffered fragments in render order.
func (o *Orderer) Fragments() []Fragment {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.fragments) == 0 {
		return nil
	}
	out := make([]Fragment, len(o.fragments))
	copy(out, o.fragments)
	return out
}
