package events_test

import (
	"testing"

	"github.com/ardanlabs/hashchain/foundation/events"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Events(t *testing.T) {
	t.Log("Given the need to fan out events to subscribers.")
	{
		evts := events.New()

		ch1 := evts.Acquire("one")
		ch2 := evts.Acquire("two")

		if evts.Acquire("one") != ch1 {
			t.Fatalf("\t%s\tShould get the same channel for the same id.", failed)
		}
		t.Logf("\t%s\tShould get the same channel for the same id.", success)

		if n := evts.Subscribers(); n != 2 {
			t.Fatalf("\t%s\tShould have 2 subscribers, got %d", failed, n)
		}
		t.Logf("\t%s\tShould have 2 subscribers.", success)

		evts.Send("viewer: block: {}")

		for i, ch := range []<-chan string{ch1, ch2} {
			if msg := <-ch; msg != "viewer: block: {}" {
				t.Fatalf("\t%s\tTest %d:\tShould receive the message, got %q", failed, i, msg)
			}
			t.Logf("\t%s\tTest %d:\tShould receive the message.", success, i)
		}

		if err := evts.Release("one"); err != nil {
			t.Fatalf("\t%s\tShould be able to release a subscriber: %v", failed, err)
		}
		if _, open := <-ch1; open {
			t.Fatalf("\t%s\tShould close the released channel.", failed)
		}
		t.Logf("\t%s\tShould close the released channel.", success)

		if err := evts.Release("one"); err == nil {
			t.Fatalf("\t%s\tShould not be able to release an unknown id.", failed)
		}
		t.Logf("\t%s\tShould not be able to release an unknown id.", success)

		evts.Shutdown()
		if _, open := <-ch2; open || evts.Subscribers() != 0 {
			t.Fatalf("\t%s\tShould close every channel on shutdown.", failed)
		}
		t.Logf("\t%s\tShould close every channel on shutdown.", success)
	}
}

func Test_EventsDropped(t *testing.T) {
	t.Log("Given the need to never block on a slow subscriber.")
	{
		evts := events.New()
		evts.Acquire("slow")

		for i := 0; i < 150; i++ {
			evts.Send("msg")
		}

		if n := evts.Dropped(); n != 50 {
			t.Fatalf("\t%s\tShould drop 50 messages, got %d", failed, n)
		}
		t.Logf("\t%s\tShould drop 50 messages.", success)
	}
}
