package engine

import "sync"

// Request is one raw frame received from a client session.
type Request struct {
	// Session identifies the connection the frame arrived on.
	Session string

	// Frame holds the raw request bytes.
	Frame []byte

	// Reply receives the encoded response. It is called from the tick
	// and must not block. A nil Reply discards the response.
	Reply func(resp []byte)
}

// requestQueue is a bounded, thread-safe FIFO between transport goroutines
// and the tick.
//
// Transport readers enqueue from their own goroutines; the tick drains the
// queue without blocking. A full queue rejects new requests instead of
// growing, so a flooding client cannot stall the cycle.
type requestQueue struct {
	mu       sync.Mutex
	requests []Request
	head     int
	count    int
	closed   bool
}

// newRequestQueue creates an empty queue holding at most capacity requests.
func newRequestQueue(capacity int) *requestQueue {
	return &requestQueue{
		requests: make([]Request, capacity),
	}
}

// Enqueue adds a request to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is full or closed.
func (q *requestQueue) Enqueue(r Request) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || q.count == len(q.requests) {
		return false
	}
	q.requests[(q.head+q.count)%len(q.requests)] = r
	q.count++
	return true
}

// TryDequeue removes and returns the front request without blocking.
// Returns (Request{}, false) if the queue is empty.
func (q *requestQueue) TryDequeue() (Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return Request{}, false
	}
	r := q.requests[q.head]
	// Clear the slot so the frame and reply closure can be collected.
	q.requests[q.head] = Request{}
	q.head = (q.head + 1) % len(q.requests)
	q.count--
	return r, true
}

// Len returns the current queue length.
func (q *requestQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Close rejects all further requests. Queued requests can still be drained.
func (q *requestQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}
