package audio

import "testing"

func TestFrameQueue_FIFO(t *testing.T) {
	q := NewFrameQueue(4)
	q.Push(Frame{Samples: []int16{1}, Origin: OriginMic})
	q.Push(Frame{Samples: []int16{2}, Origin: OriginMic})

	f, ok := q.Pop()
	if !ok || f.Samples[0] != 1 {
		t.Fatalf("expected first frame, got %v ok=%v", f, ok)
	}
	f, ok = q.Pop()
	if !ok || f.Samples[0] != 2 {
		t.Fatalf("expected second frame, got %v ok=%v", f, ok)
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("expected empty queue")
	}
}

func TestFrameQueue_DropOldestOnOverflow(t *testing.T) {
	q := NewFrameQueue(2)
	q.Push(Frame{Samples: []int16{1}})
	q.Push(Frame{Samples: []int16{2}})
	q.Push(Frame{Samples: []int16{3}})

	if got := q.Dropped(); got != 1 {
		t.Fatalf("expected 1 dropped frame, got %d", got)
	}
	f, _ := q.Pop()
	if f.Samples[0] != 2 {
		t.Fatalf("expected oldest surviving frame 2, got %d", f.Samples[0])
	}
	f, _ = q.Pop()
	if f.Samples[0] != 3 {
		t.Fatalf("expected frame 3, got %d", f.Samples[0])
	}
	if q.Len() != 0 {
		t.Fatalf("expected drained queue, got len %d", q.Len())
	}
}

func TestFrameQueue_ProducerNeverBlocks(t *testing.T) {
	q := NewFrameQueue(1)
	for i := 0; i < 1000; i++ {
		q.Push(Frame{Samples: []int16{int16(i)}})
	}
	if got := q.Dropped(); got != 999 {
		t.Fatalf("expected 999 dropped, got %d", got)
	}
	f, ok := q.Pop()
	if !ok || f.Samples[0] != 999 {
		t.Fatalf("expected newest frame to survive, got %v", f.Samples)
	}
}
