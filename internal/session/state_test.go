package session

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestStateLifecycleTransitions(t *testing.T) {
	st := newState("s1", "owner", SourceMicrophone, time.Now().UTC())

	if got := st.Status(); got != StatusRecording {
		t.Fatalf("new session status = %s, want %s", got, StatusRecording)
	}

	if err := st.Resume(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Resume while recording: err = %v, want ErrInvalidTransition", err)
	}

	if err := st.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if got := st.Status(); got != StatusPaused {
		t.Fatalf("status after pause = %s, want %s", got, StatusPaused)
	}
	if err := st.Pause(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Pause while paused: err = %v, want ErrInvalidTransition", err)
	}

	if err := st.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if got := st.Status(); got != StatusRecording {
		t.Fatalf("status after resume = %s, want %s", got, StatusRecording)
	}
}

func TestStateAppendWhilePaused(t *testing.T) {
	st := newState("s1", "owner", SourceMicrophone, time.Now().UTC())

	if err := st.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	appended, paused := st.AppendIfOpen(1, "kept while paused")
	if !appended {
		t.Fatal("paused session must still accept fragments")
	}
	if !paused {
		t.Fatal("AppendIfOpen must report paused so broadcast is suppressed")
	}
	if got := st.Transcript(); got != "kept while paused" {
		t.Fatalf("transcript = %q", got)
	}
}

func TestStateAppendAfterSealDiscarded(t *testing.T) {
	st := newState("s1", "owner", SourceMicrophone, time.Now().UTC())
	st.AppendIfOpen(1, "before")

	first, status := st.BeginFinalize()
	if !first || status != StatusProcessing {
		t.Fatalf("BeginFinalize = (%v, %s), want (true, %s)", first, status, StatusProcessing)
	}

	if appended, _ := st.AppendIfOpen(2, "late result"); appended {
		t.Fatal("sealed session must discard late fragments")
	}
	if got := st.Transcript(); got != "before" {
		t.Fatalf("transcript = %q, want %q", got, "before")
	}
}

func TestStateBeginFinalizeSingleWinner(t *testing.T) {
	st := newState("s1", "owner", SourceMicrophone, time.Now().UTC())

	const callers = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if first, _ := st.BeginFinalize(); first {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	var n int
	for range wins {
		n++
	}
	if n != 1 {
		t.Fatalf("BeginFinalize winners = %d, want exactly 1", n)
	}
	if got := st.Status(); got != StatusProcessing {
		t.Fatalf("status = %s, want %s", got, StatusProcessing)
	}
}

func TestStateOutcomeReplay(t *testing.T) {
	st := newState("s1", "owner", SourceMicrophone, time.Now().UTC())

	if st.Outcome() != nil {
		t.Fatal("outcome must be nil before finalization resolves")
	}

	st.BeginFinalize()
	st.resolve(Outcome{Status: StatusCompleted, Summary: "sum", Title: "t", Duration: time.Second})

	out := st.Outcome()
	if out == nil || out.Status != StatusCompleted || out.Summary != "sum" {
		t.Fatalf("outcome = %+v", out)
	}

	// Mutating the copy must not reach the recorded outcome.
	out.Summary = "mutated"
	if st.Outcome().Summary != "sum" {
		t.Fatal("Outcome must return a copy")
	}

	if first, status := st.BeginFinalize(); first || status != StatusCompleted {
		t.Fatalf("BeginFinalize after resolve = (%v, %s), want (false, %s)", first, status, StatusCompleted)
	}
}

func TestStatusTerminal(t *testing.T) {
	for status, want := range map[Status]bool{
		StatusRecording:  false,
		StatusPaused:     false,
		StatusProcessing: false,
		StatusCompleted:  true,
		StatusFailed:     true,
	} {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}

func TestParseSource(t *testing.T) {
	if src, ok := ParseSource("tab"); !ok || src != SourceTabCapture {
		t.Fatalf("ParseSource(tab) = (%v, %v)", src, ok)
	}
	if src, ok := ParseSource("mic"); !ok || src != SourceMicrophone {
		t.Fatalf("ParseSource(mic) = (%v, %v)", src, ok)
	}
	if _, ok := ParseSource("satellite"); ok {
		t.Fatal("ParseSource must reject unknown sources")
	}
}
