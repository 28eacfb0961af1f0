package realtime

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(s *Subscriber) []Event {
	var out []Event
	for {
		select {
		case evt := <-s.Events():
			out = append(out, evt)
		default:
			return out
		}
	}
}

func Test_Hub_PresenceOnConnectAndDisconnect(t *testing.T) {
	hub := NewHub(8)

	a := hub.Subscribe()
	b := hub.Subscribe()
	assert.Equal(t, 2, hub.Online())

	evts := drain(a)
	require.Len(t, evts, 2)
	assert.Equal(t, EventPresence, evts[0].Name)
	assert.Equal(t, 1, *evts[0].Online)
	assert.Equal(t, 2, *evts[1].Online)

	hub.Unsubscribe(b)
	hub.Unsubscribe(b)
	assert.Equal(t, 1, hub.Online())

	evts = drain(a)
	require.Len(t, evts, 1)
	assert.Equal(t, 1, *evts[0].Online)

	select {
	case <-b.Done():
	default:
		t.Fatal("unsubscribed observer should be done")
	}
}

func Test_Hub_PublishReachesEverySubscriber(t *testing.T) {
	hub := NewHub(8)
	subs := []*Subscriber{hub.Subscribe(), hub.Subscribe(), hub.Subscribe()}
	for _, s := range subs {
		drain(s)
	}

	titleID := uuid.New()
	require.NoError(t, hub.Publish(context.Background(), AvailabilityChanged(titleID, 4, 7)))

	for _, s := range subs {
		evts := drain(s)
		require.Len(t, evts, 1)
		assert.Equal(t, EventAvailability, evts[0].Name)
		assert.Equal(t, titleID.String(), evts[0].TitleID)
		assert.Equal(t, 4, *evts[0].CopiesAvailable)
		assert.Equal(t, 7, evts[0].Version)
	}
}

func Test_Hub_SlowSubscriberIsEvicted(t *testing.T) {
	hub := NewHub(2)
	slow := hub.Subscribe() // holds its own presence event
	fast := hub.Subscribe() // slow now holds 2, buffer full
	drain(fast)

	titleID := uuid.New()
	require.NoError(t, hub.Publish(context.Background(), AvailabilityChanged(titleID, 1, 2)))

	select {
	case <-slow.Done():
	default:
		t.Fatal("slow observer should be evicted")
	}
	assert.Equal(t, 1, hub.Online())

	evts := drain(fast)
	require.Len(t, evts, 2)
	assert.Equal(t, EventAvailability, evts[0].Name)
	assert.Equal(t, EventPresence, evts[1].Name)
	assert.Equal(t, 1, *evts[1].Online)

	// eviction already removed it
	hub.Unsubscribe(slow)
	assert.Equal(t, 1, hub.Online())
}

func Test_Hub_PreservesOrderPerSubscriber(t *testing.T) {
	hub := NewHub(128)
	s := hub.Subscribe()
	drain(s)

	titleID := uuid.New()
	for v := 1; v <= 50; v++ {
		require.NoError(t, hub.Publish(context.Background(), AvailabilityChanged(titleID, v%3, v)))
	}

	evts := drain(s)
	require.Len(t, evts, 50)
	for i, evt := range evts {
		assert.Equal(t, i+1, evt.Version)
	}
}

func Test_Hub_ConcurrentSubscribeAndPublish(t *testing.T) {
	hub := NewHub(1024)
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s := hub.Subscribe()
			hub.Unsubscribe(s)
		}()
		go func(i int) {
			defer wg.Done()
			_ = hub.Publish(context.Background(), AvailabilityChanged(uuid.New(), i, i))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, hub.Online())
}

func Test_TitleChanged_EncodesBody(t *testing.T) {
	id := uuid.New()
	evt, err := TitleChanged(EventTitleCreated, id, 1, map[string]string{"title": "Dune"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Dune"}`, string(evt.Title))

	evt, err = TitleChanged(EventTitleDeleted, id, 0, nil)
	require.NoError(t, err)
	assert.Nil(t, evt.Title)
}

func Test_Hub_CloseEndsSubscriptions(t *testing.T) {
	hub := NewHub(4)
	a := hub.Subscribe()

	hub.Close()

	select {
	case <-a.Done():
	default:
		t.Fatal("subscriber should be done after Close")
	}
	assert.Equal(t, 0, hub.Online())

	late := hub.Subscribe()
	select {
	case <-late.Done():
	default:
		t.Fatal("subscribe after Close should be done immediately")
	}
	hub.Unsubscribe(late)
	assert.Equal(t, 0, hub.Online())
}

func Test_Hub_OutOfOrderEventsResolvedByVersion(t *testing.T) {
	hub := NewHub(8)
	s := hub.Subscribe()
	id := uuid.New()

	// newer count published first, as two racing borrows can do
	require.NoError(t, hub.Publish(context.Background(), AvailabilityChanged(id, 3, 7)))
	require.NoError(t, hub.Publish(context.Background(), AvailabilityChanged(id, 4, 6)))

	var applied Event
	for _, evt := range drain(s) {
		if evt.Name != EventAvailability {
			continue
		}
		if Supersedes(evt, applied) {
			applied = evt
		}
	}

	assert.Equal(t, 7, applied.Version)
	assert.Equal(t, 3, *applied.CopiesAvailable)
	assert.False(t, Supersedes(AvailabilityChanged(id, 4, 6), applied))
}

func Test_Hub_PresenceSettlesAfterCascadingEvictions(t *testing.T) {
	hub := NewHub(3)

	a := hub.Subscribe()
	b := hub.Subscribe()
	c := hub.Subscribe()
	drain(c)

	// a is full and goes on the event, b fills up and goes on the presence that follows
	require.NoError(t, hub.Publish(context.Background(), AvailabilityChanged(uuid.New(), 1, 2)))

	for _, s := range []*Subscriber{a, b} {
		select {
		case <-s.Done():
		default:
			t.Fatal("expected eviction")
		}
	}
	assert.Equal(t, 1, hub.Online())

	var lastOnline int
	for _, evt := range drain(c) {
		if evt.Name == EventPresence {
			lastOnline = *evt.Online
		}
	}
	assert.Equal(t, 1, lastOnline)
}
