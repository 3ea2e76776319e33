package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBroadcaster_DeliversToSubscribers(t *testing.T) {
	var b broadcaster[int]
	var got []int
	unsub := b.subscribe(func(v int) { got = append(got, v) })

	b.publish(1, 10)
	b.publish(2, 20)
	unsub()
	b.publish(3, 30)

	assert.Equal(t, []int{10, 20}, got)
}

func TestBroadcaster_DropsStaleVersions(t *testing.T) {
	var b broadcaster[string]
	var got []string
	b.subscribe(func(v string) { got = append(got, v) })

	b.publish(2, "new")
	b.publish(1, "old")
	b.publish(0, "unversioned")

	assert.Equal(t, []string{"new", "unversioned"}, got)
}

func TestBroadcaster_UnsubscribeIsIdempotent(t *testing.T) {
	var b broadcaster[int]
	calls := 0
	unsub := b.subscribe(func(int) { calls++ })
	unsub()
	unsub()

	b.publish(1, 1)
	assert.Zero(t, calls)
}
