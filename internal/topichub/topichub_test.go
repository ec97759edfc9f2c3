package topichub

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sandia-minimega/icdrpc/v2/pkg/wirekey"
)

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	h := New()
	key := wirekey.Key{1}

	a := h.Subscribe(key, 4)
	b := h.Subscribe(key, 4)

	delivered, dropped := h.Publish(key, []byte("hi"))
	require.Equal(t, 2, delivered)
	require.Equal(t, 0, dropped)

	require.Equal(t, []byte("hi"), <-a.C())
	require.Equal(t, []byte("hi"), <-b.C())
}

func TestPublishDropsWhenSubscriberFull(t *testing.T) {
	h := New()
	key := wirekey.Key{2}
	sub := h.Subscribe(key, 1)

	_, _ = h.Publish(key, []byte("first"))
	_, dropped := h.Publish(key, []byte("second"))
	require.Equal(t, 1, dropped)
	require.Equal(t, []byte("first"), <-sub.C())
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := New()
	key := wirekey.Key{3}
	sub := h.Subscribe(key, 1)
	h.Unsubscribe(key, sub)

	require.Equal(t, 0, h.SubscriberCount(key))
	_, ok := <-sub.C()
	require.False(t, ok)
}
