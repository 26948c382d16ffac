// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventqueue

import (
	"sync"

	"github.com/joeycumines/go-mainloop"
)

// chunkSize is the number of events per node in the chunked list.
const chunkSize = 64

// chunkPool recycles chunks, under sustained posting.
var chunkPool = sync.Pool{
	New: func() any {
		return &chunk{}
	},
}

// chunk is a fixed-size node in the chunked list, with read / write
// cursors for O(1) push and pop.
type chunk struct {
	events  [chunkSize]mainloop.Event
	next    *chunk
	readPos int
	pos     int
}

func newChunk() *chunk {
	c := chunkPool.Get().(*chunk)
	c.pos = 0
	c.readPos = 0
	c.next = nil
	return c
}

// returnChunk clears any retained event details, then pools c.
func returnChunk(c *chunk) {
	clear(c.events[:c.pos])
	c.pos = 0
	c.readPos = 0
	c.next = nil
	chunkPool.Put(c)
}

// chunkedList is a FIFO of events, stored as a linked list of chunks.
//
// Thread Safety: NOT thread-safe, the caller must hold the queue's mutex.
type chunkedList struct {
	head   *chunk
	tail   *chunk
	length int
}

func (q *chunkedList) push(event mainloop.Event) {
	if q.tail == nil {
		q.tail = newChunk()
		q.head = q.tail
	}
	if q.tail.pos == len(q.tail.events) {
		next := newChunk()
		q.tail.next = next
		q.tail = next
	}
	q.tail.events[q.tail.pos] = event
	q.tail.pos++
	q.length++
}

func (q *chunkedList) pop() (mainloop.Event, bool) {
	if q.length == 0 {
		return mainloop.Event{}, false
	}

	// the head always has at least one unread event, if length is non-zero
	event := q.head.events[q.head.readPos]
	q.head.events[q.head.readPos] = mainloop.Event{}
	q.head.readPos++
	q.length--

	if q.head.readPos >= q.head.pos {
		if q.head == q.tail {
			q.head.pos = 0
			q.head.readPos = 0
		} else {
			old := q.head
			q.head = q.head.next
			returnChunk(old)
		}
	}

	return event, true
}

// drainTo appends every event to dst, leaving the list empty.
func (q *chunkedList) drainTo(dst []mainloop.Event) []mainloop.Event {
	for {
		event, ok := q.pop()
		if !ok {
			return dst
		}
		dst = append(dst, event)
	}
}
