package feed

import (
	"slices"
	"sync"
)

// DefaultInboxCapacity bounds each user's notification list.
const DefaultInboxCapacity = 50

// Inbox keeps the most recent notifications per user, newest first. Once a
// user's list is full the oldest entry is dropped.
type Inbox struct {
	mu       sync.RWMutex
	capacity int
	byUser   map[string][]Notification
}

func NewInbox(capacity int) *Inbox {
	if capacity <= 0 {
		capacity = DefaultInboxCapacity
	}
	return &Inbox{capacity: capacity, byUser: make(map[string][]Notification)}
}

func (in *Inbox) Add(n Notification) {
	in.mu.Lock()
	defer in.mu.Unlock()

	list := append([]Notification{n}, in.byUser[n.UserID]...)
	if len(list) > in.capacity {
		list = list[:in.capacity]
	}
	in.byUser[n.UserID] = list
}

// List returns a copy of the user's notifications, newest first.
func (in *Inbox) List(userID string) []Notification {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return slices.Clone(in.byUser[userID])
}

func (in *Inbox) UnreadCount(userID string) int {
	in.mu.RLock()
	defer in.mu.RUnlock()

	n := 0
	for _, item := range in.byUser[userID] {
		if item.Unread {
			n++
		}
	}
	return n
}

// MarkRead clears the unread flag of one notification. It reports whether
// the notification exists.
func (in *Inbox) MarkRead(userID, id string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()

	list := in.byUser[userID]
	for i := range list {
		if list[i].ID == id {
			list[i].Unread = false
			return true
		}
	}
	return false
}

// MarkAllRead returns how many notifications changed state.
func (in *Inbox) MarkAllRead(userID string) int {
	in.mu.Lock()
	defer in.mu.Unlock()

	n := 0
	list := in.byUser[userID]
	for i := range list {
		if list[i].Unread {
			list[i].Unread = false
			n++
		}
	}
	return n
}
