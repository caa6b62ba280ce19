package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBus_DeliversInSubscriptionOrder(t *testing.T) {
	b := NewLocalBus()
	var got []string
	b.Subscribe(func(data []byte) { got = append(got, "first:"+string(data)) })
	unsub := b.Subscribe(func(data []byte) { got = append(got, "second:"+string(data)) })
	b.Subscribe(func(data []byte) { got = append(got, "third:"+string(data)) })

	require.NoError(t, b.Publish([]byte("a")))
	assert.Equal(t, []string{"first:a", "second:a", "third:a"}, got)

	unsub()
	got = nil
	require.NoError(t, b.Publish([]byte("b")))
	assert.Equal(t, []string{"first:b", "third:b"}, got)
}

func TestLocalBus_SubscribersGetTheirOwnCopy(t *testing.T) {
	b := NewLocalBus()
	var second []byte
	b.Subscribe(func(data []byte) { data[0] = 'x' })
	b.Subscribe(func(data []byte) { second = data })

	msg := []byte("abc")
	require.NoError(t, b.Publish(msg))
	assert.Equal(t, "abc", string(second))
	assert.Equal(t, "abc", string(msg))
}

func TestLocalBus_Close(t *testing.T) {
	b := NewLocalBus()
	called := false
	b.Subscribe(func([]byte) { called = true })

	require.NoError(t, b.Close())
	assert.ErrorIs(t, b.Publish([]byte("late")), ErrClosed)
	assert.False(t, called)
}

func TestSubscribers_SnapshotOrder(t *testing.T) {
	var s subscribers
	var order []int
	ids := make([]uint64, 0, 4)
	for i := 0; i < 4; i++ {
		i := i
		ids = append(ids, s.add(func([]byte) { order = append(order, i) }))
	}
	s.remove(ids[1])
	for _, fn := range s.snapshot() {
		fn(nil)
	}
	assert.Equal(t, []int{0, 2, 3}, order)
}
