package feed

import (
	"strconv"
	"sync"
	"testing"
)

func note(user, id string) Notification {
	return Notification{ID: id, UserID: user, Title: "t", Message: "m", Kind: KindSystem, Unread: true}
}

func TestInboxNewestFirstAndBounded(t *testing.T) {
	in := NewInbox(3)
	for i := 1; i <= 5; i++ {
		in.Add(note("u1", strconv.Itoa(i)))
	}
	in.Add(note("u2", "other"))

	got := in.List("u1")
	if len(got) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(got))
	}
	for i, want := range []string{"5", "4", "3"} {
		if got[i].ID != want {
			t.Fatalf("position %d = %s, want %s", i, got[i].ID, want)
		}
	}
	if len(in.List("u2")) != 1 || len(in.List("nobody")) != 0 {
		t.Fatal("inboxes must be per user")
	}
}

func TestInboxReadState(t *testing.T) {
	in := NewInbox(10)
	in.Add(note("u1", "a"))
	in.Add(note("u1", "b"))
	in.Add(note("u1", "c"))

	if in.UnreadCount("u1") != 3 {
		t.Fatalf("expected 3 unread, got %d", in.UnreadCount("u1"))
	}
	if !in.MarkRead("u1", "b") {
		t.Fatal("expected b to be found")
	}
	if in.MarkRead("u1", "missing") || in.MarkRead("u2", "a") {
		t.Fatal("unknown notifications must not be found")
	}
	if in.UnreadCount("u1") != 2 {
		t.Fatalf("expected 2 unread, got %d", in.UnreadCount("u1"))
	}
	if n := in.MarkAllRead("u1"); n != 2 {
		t.Fatalf("expected 2 changed, got %d", n)
	}
	if in.UnreadCount("u1") != 0 {
		t.Fatal("expected nothing unread")
	}
}

func TestInboxListIsACopy(t *testing.T) {
	in := NewInbox(10)
	in.Add(note("u1", "a"))
	list := in.List("u1")
	list[0].Unread = false
	if in.UnreadCount("u1") != 1 {
		t.Fatal("mutating the listed slice must not change the inbox")
	}
}

func TestInboxConcurrentAdd(t *testing.T) {
	in := NewInbox(1000)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				in.Add(note("u1", strconv.Itoa(i*10+j)))
				_ = in.UnreadCount("u1")
			}
		}(i)
	}
	wg.Wait()
	if got := len(in.List("u1")); got != 200 {
		t.Fatalf("expected 200 notifications, got %d", got)
	}
}
