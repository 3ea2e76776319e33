package services

import "sync"

// broadcaster fans snapshots out to subscribers.
//
// Snapshots carry the version they were taken at; a snapshot older than
// one already delivered is dropped, so subscribers never observe state
// going backwards when publishers race. Version 0 is always delivered.
// Subscribers run on the publishing goroutine and must not call
// subscribe from inside the callback.
type broadcaster[T any] struct {
	mu   sync.Mutex
	next int
	last uint64
	subs map[int]func(T)
}

func (b *broadcaster[T]) subscribe(fn func(T)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[int]func(T))
	}
	id := b.next
	b.next++
	b.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
		})
	}
}

func (b *broadcaster[T]) publish(version uint64, v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if version != 0 {
		if version <= b.last {
			return
		}
		b.last = version
	}
	for _, fn := range b.subs {
		fn(v)
	}
}
