// Package lru provides a fixed-capacity associative table with
// least-recently-used eviction.
//
// The table never grows after construction: the slot array and the key
// index are allocated in full by New, so a large capacity is paid for
// once on the heap instead of materializing transiently on the stack.
// Recency bookkeeping uses uint32 slot indices, which keeps per-entry
// overhead small for large capacities.
//
// A Table is not safe for concurrent use. Callers that share one across
// goroutines must serialize access themselves; the cache package does so
// by confining its table to a single owner goroutine.
package lru

import (
	"fmt"
)

// noSlot is the all-ones index sentinel marking "no slot" in the recency
// list and the free list. It is why capacity must stay below 1<<32 - 1.
const noSlot = ^uint32(0)

// slot holds one key/value pair plus its links in the recency list.
// Free slots are chained through next.
type slot[K comparable, V any] struct {
	key   K
	value V
	prev  uint32
	next  uint32
}

// Table is a bounded key/value store with LRU eviction. Every successful
// lookup or insert marks the touched key most-recently-used; when an
// insert would exceed the capacity, the least-recently-used pair is
// evicted first. The entry count never exceeds the capacity passed to New.
type Table[K comparable, V any] struct {
	slots []slot[K, V]
	index map[K]uint32

	head uint32 // most-recently-used
	tail uint32 // least-recently-used
	free uint32 // head of the free-slot chain

	length    int
	evictions uint64
}

// New creates a Table with the given fixed capacity. The backing slot
// array and index are fully allocated here and never resized. Capacity
// must be at least 1 and must fit the uint32 index width.
func New[K comparable, V any](capacity int) (*Table[K, V], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("lru: capacity must be at least 1, got %d", capacity)
	}
	if uint64(capacity) >= uint64(noSlot) {
		return nil, fmt.Errorf("lru: capacity %d exceeds index width", capacity)
	}

	t := &Table[K, V]{
		slots: make([]slot[K, V], capacity),
		index: make(map[K]uint32, capacity),
		head:  noSlot,
		tail:  noSlot,
		free:  0,
	}

	// Chain all slots into the free list.
	for i := range t.slots {
		if i == capacity-1 {
			t.slots[i].next = noSlot
		} else {
			t.slots[i].next = uint32(i) + 1
		}
	}

	return t, nil
}

// Get returns the value stored under key and marks it most-recently-used.
// Absence has no side effect.
func (t *Table[K, V]) Get(key K) (V, bool) {
	if i, ok := t.index[key]; ok {
		t.moveToFront(i)
		return t.slots[i].value, true
	}
	var zero V
	return zero, false
}

// GetOrCreate returns the value stored under key, marking it
// most-recently-used. If the key is absent, a new value is built with mk
// and inserted as most-recently-used; when the table is already at
// capacity, the least-recently-used pair is silently evicted first.
func (t *Table[K, V]) GetOrCreate(key K, mk func() V) V {
	if i, ok := t.index[key]; ok {
		t.moveToFront(i)
		return t.slots[i].value
	}

	var i uint32
	if t.length == len(t.slots) {
		i = t.evictTail()
	} else {
		i = t.free
		t.free = t.slots[i].next
	}

	t.slots[i].key = key
	t.slots[i].value = mk()
	t.pushFront(i)
	t.index[key] = i
	t.length++

	return t.slots[i].value
}

// Contains reports whether key is present without touching its recency.
func (t *Table[K, V]) Contains(key K) bool {
	_, ok := t.index[key]
	return ok
}

// Len returns the current number of entries.
func (t *Table[K, V]) Len() int {
	return t.length
}

// Cap returns the fixed capacity set at construction.
func (t *Table[K, V]) Cap() int {
	return len(t.slots)
}

// Evictions returns the total number of entries evicted since construction.
func (t *Table[K, V]) Evictions() uint64 {
	return t.evictions
}

// Keys returns all keys ordered from most- to least-recently-used.
func (t *Table[K, V]) Keys() []K {
	keys := make([]K, 0, t.length)
	for i := t.head; i != noSlot; i = t.slots[i].next {
		keys = append(keys, t.slots[i].key)
	}
	return keys
}

// evictTail removes the least-recently-used entry and returns its freed
// slot index for immediate reuse.
func (t *Table[K, V]) evictTail() uint32 {
	i := t.tail
	t.unlink(i)
	delete(t.index, t.slots[i].key)

	// Drop references so evicted keys and values do not pin memory.
	var zeroK K
	var zeroV V
	t.slots[i].key = zeroK
	t.slots[i].value = zeroV

	t.length--
	t.evictions++
	return i
}

// moveToFront marks slot i most-recently-used.
func (t *Table[K, V]) moveToFront(i uint32) {
	if t.head == i {
		return
	}
	t.unlink(i)
	t.pushFront(i)
}

// unlink removes slot i from the recency list.
func (t *Table[K, V]) unlink(i uint32) {
	s := &t.slots[i]
	if s.prev != noSlot {
		t.slots[s.prev].next = s.next
	} else {
		t.head = s.next
	}
	if s.next != noSlot {
		t.slots[s.next].prev = s.prev
	} else {
		t.tail = s.prev
	}
}

// pushFront inserts slot i at the most-recently-used position.
func (t *Table[K, V]) pushFront(i uint32) {
	s := &t.slots[i]
	s.prev = noSlot
	s.next = t.head
	if t.head != noSlot {
		t.slots[t.head].prev = i
	}
	t.head = i
	if t.tail == noSlot {
		t.tail = i
	}
}
