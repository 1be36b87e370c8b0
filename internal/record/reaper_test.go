package record_test

import (
	"context"
	"testing"
	"time"

	"github.com/MrWong99/vocalis/internal/record"
)

func TestRunReaperReportsEvictions(t *testing.T) {
	t.Parallel()

	st := record.NewStore(record.NewMemorySinkFactory())
	sess, err := st.Create("audio/wav", record.ModeTranscribe, "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	sess.CreatedAt = time.Now().Add(-time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	evicted := make(chan int, 1)
	go st.RunReaper(ctx, 5*time.Millisecond, 30*time.Minute, func(n int) {
		select {
		case evicted <- n:
		default:
		}
	})

	select {
	case n := <-evicted:
		if n != 1 {
			t.Errorf("reaper reported %d evictions, want 1", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reaper never reported the abandoned session")
	}

	if st.Len() != 0 {
		t.Errorf("store holds %d sessions after the sweep, want 0", st.Len())
	}
}
