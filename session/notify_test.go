package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"storefront/session"
)

func TestNotifierOrderAndUnsubscribe(t *testing.T) {
	n := session.NewNotifier()
	var got []string

	unsubA := n.Subscribe(func(e session.Event) { got = append(got, "a:"+string(e.Kind)) })
	n.Subscribe(func(e session.Event) { got = append(got, "b:"+string(e.Kind)) })

	n.Publish(session.Event{Kind: session.EventLogin, At: time.Now()})
	unsubA()
	unsubA()
	n.Publish(session.Event{Kind: session.EventLogout, At: time.Now()})

	assert.Equal(t, []string{"a:login", "b:login", "b:logout"}, got)
}

func TestNotifierUnsubscribeDuringPublish(t *testing.T) {
	n := session.NewNotifier()
	calls := 0
	var unsub func()
	unsub = n.Subscribe(func(session.Event) {
		calls++
		unsub()
	})

	n.Publish(session.Event{Kind: session.EventLogin})
	n.Publish(session.Event{Kind: session.EventLogin})
	assert.Equal(t, 1, calls)
}
