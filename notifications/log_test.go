package notifications_test

import (
	"context"
	"testing"
	"time"

	"github.com/ferreirogomes/tijolo/models"
	"github.com/ferreirogomes/tijolo/notifications"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendStatus(t *testing.T, l *notifications.Log, propertyID string, active bool) models.Notification {
	t.Helper()
	n, err := notifications.Encode(models.NotificationPropertyStatusChanged, propertyID,
		models.PropertyStatusChangedPayload{PropertyID: propertyID, IsActive: active})
	require.NoError(t, err)
	return l.Append(n)
}

func TestAppendAssignsGapFreeSequence(t *testing.T) {
	l := notifications.NewLog()
	a := appendStatus(t, l, "p1", false)
	b := appendStatus(t, l, "p1", true)

	assert.Equal(t, uint64(1), a.Seq)
	assert.Equal(t, uint64(2), b.Seq)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.OccurredAt.IsZero())
	assert.Equal(t, uint64(2), l.Head())
	assert.JSONEq(t, `{"property_id":"p1","is_active":false}`, string(a.Data))
}

func TestSinceHonoursCursorAndLimit(t *testing.T) {
	l := notifications.NewLog()
	for i := 0; i < 5; i++ {
		appendStatus(t, l, "p1", i%2 == 0)
	}

	got := l.Since(2, 2)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(3), got[0].Seq)
	assert.Equal(t, uint64(4), got[1].Seq)

	assert.Len(t, l.Since(0, 0), 5)
	assert.Empty(t, l.Since(5, 10))
}

func TestSubscribeReplaysThenTails(t *testing.T) {
	l := notifications.NewLog()
	appendStatus(t, l, "p1", true)
	appendStatus(t, l, "p2", true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := l.Subscribe(ctx, 1)

	first := <-ch
	assert.Equal(t, uint64(2), first.Seq)

	appendStatus(t, l, "p3", false)
	select {
	case n := <-ch:
		assert.Equal(t, uint64(3), n.Seq)
		assert.Equal(t, "p3", n.PropertyID)
	case <-time.After(2 * time.Second):
		t.Fatal("notificação não entregue ao assinante")
	}

	cancel()
	for range ch {
	}
}
