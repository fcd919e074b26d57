package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueueDrainsInOrder(t *testing.T) {
	q := NewQueue(0)
	q.Notify(Info("Submitting product..."))
	q.Notify(Success("Product added successfully!"))
	q.Notify(Notification{Level: LevelError})

	assert.Len(t, q.Peek(), 2)
	assert.Equal(t, []Notification{
		{Level: LevelInfo, Message: "Submitting product..."},
		{Level: LevelSuccess, Message: "Product added successfully!"},
	}, q.Drain())
	assert.Empty(t, q.Drain())
}

func TestQueueDropsOldest(t *testing.T) {
	q := NewQueue(2)
	q.Notify(Info("a"))
	q.Notify(Info("b"))
	q.Notify(Info("c"))

	got := q.Drain()
	assert.Equal(t, []string{"b", "c"}, []string{got[0].Message, got[1].Message})
}
