/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

// handle addresses a node in the orderList arena.
type handle int

const nilHandle handle = -1

type orderNode[K comparable, V any] struct {
	entry Entry[K, V]
	prev  handle
	next  handle
}

// orderList is a doubly linked list over an arena of nodes.
// Head is the most recently used entry, tail is the least recently used one.
// Handles stay valid until the node is removed, so they can be stored in the key index.
// Removed slots are chained into a free list (through the next field) and reused.
type orderList[K comparable, V any] struct {
	nodes  []orderNode[K, V]
	head   handle
	tail   handle
	free   handle
	length int
}

func newOrderList[K comparable, V any](sizeHint int) *orderList[K, V] {
	const maxPrealloc = 1024
	if sizeHint > maxPrealloc {
		sizeHint = maxPrealloc
	}
	return &orderList[K, V]{
		nodes: make([]orderNode[K, V], 0, sizeHint),
		head:  nilHandle,
		tail:  nilHandle,
		free:  nilHandle,
	}
}

// init drops all nodes. Slots are zeroed so the backing array doesn't keep purged keys and values reachable.
func (l *orderList[K, V]) init() {
	for i := range l.nodes {
		l.nodes[i] = orderNode[K, V]{}
	}
	l.nodes = l.nodes[:0]
	l.head, l.tail, l.free = nilHandle, nilHandle, nilHandle
	l.length = 0
}

func (l *orderList[K, V]) len() int {
	return l.length
}

func (l *orderList[K, V]) front() handle {
	return l.head
}

func (l *orderList[K, V]) back() handle {
	return l.tail
}

func (l *orderList[K, V]) next(h handle) handle {
	return l.nodes[h].next
}

func (l *orderList[K, V]) entry(h handle) *Entry[K, V] {
	return &l.nodes[h].entry
}

// pushFront stores the entry in a free (or new) slot and links it at the head.
func (l *orderList[K, V]) pushFront(key K, value V) handle {
	var h handle
	if l.free != nilHandle {
		h = l.free
		l.free = l.nodes[h].next
		l.nodes[h] = orderNode[K, V]{entry: Entry[K, V]{Key: key, Value: value}}
	} else {
		h = handle(len(l.nodes))
		l.nodes = append(l.nodes, orderNode[K, V]{entry: Entry[K, V]{Key: key, Value: value}})
	}
	l.linkFront(h)
	l.length++
	return h
}

// remove unlinks the node, recycles its slot and returns the entry it carried.
func (l *orderList[K, V]) remove(h handle) Entry[K, V] {
	l.unlink(h)
	n := &l.nodes[h]
	entry := n.entry
	// Zero the slot so the arena doesn't keep the key and value reachable.
	*n = orderNode[K, V]{prev: nilHandle, next: l.free}
	l.free = h
	l.length--
	return entry
}

// moveToFront relinks an existing node at the head without touching its slot.
func (l *orderList[K, V]) moveToFront(h handle) {
	if l.head == h {
		return
	}
	l.unlink(h)
	l.linkFront(h)
}

func (l *orderList[K, V]) linkFront(h handle) {
	n := &l.nodes[h]
	n.prev = nilHandle
	n.next = l.head
	if l.head != nilHandle {
		l.nodes[l.head].prev = h
	}
	l.head = h
	if l.tail == nilHandle {
		l.tail = h
	}
}

func (l *orderList[K, V]) unlink(h handle) {
	n := &l.nodes[h]
	if n.prev != nilHandle {
		l.nodes[n.prev].next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nilHandle {
		l.nodes[n.next].prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nilHandle, nilHandle
}
