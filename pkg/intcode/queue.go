package intcode

// queue is the FIFO of pending input values. Consumed values are dropped
// from the front lazily so pushes stay amortised O(1).
type queue struct {
	buf  []int64
	head int
}

func (q *queue) push(values ...int64) {
	if q.head > 0 && q.head == len(q.buf) {
		q.buf, q.head = q.buf[:0], 0
	}
	q.buf = append(q.buf, values...)
}

func (q *queue) peek() (int64, bool) {
	if q.head == len(q.buf) {
		return 0, false
	}
	return q.buf[q.head], true
}

func (q *queue) pop() (int64, bool) {
	v, ok := q.peek()
	if !ok {
		return 0, false
	}
	q.head++
	if q.head > 64 && q.head*2 > len(q.buf) {
		n := copy(q.buf, q.buf[q.head:])
		q.buf, q.head = q.buf[:n], 0
	}
	return v, true
}

func (q *queue) len() int {
	return len(q.buf) - q.head
}

func (q *queue) values() []int64 {
	return q.buf[q.head:]
}
