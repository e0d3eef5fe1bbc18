package tasks

import (
	"testing"
	"time"
)

func TestEnqueueOptions(t *testing.T) {
	at := time.Now().Add(2 * time.Hour)

	o := enqueueOpts{runAt: time.Now()}
	for _, fn := range []Option{
		At(at),
		Headers(map[string]string{"X-Job-Family": "engage"}),
		As("svc-engage"),
		Dedup("engage-77"),
		NoRetry(),
	} {
		fn(&o)
	}

	if !o.runAt.Equal(at) {
		t.Fatalf("runAt = %v, want %v", o.runAt, at)
	}
	if o.headers["X-Job-Family"] != "engage" {
		t.Fatalf("headers = %v", o.headers)
	}
	if o.principal != "svc-engage" {
		t.Fatalf("principal = %q", o.principal)
	}
	if o.dedupKey == nil || *o.dedupKey != "engage-77" {
		t.Fatalf("dedupKey = %v", o.dedupKey)
	}
	if !o.noRetry {
		t.Fatal("noRetry not set")
	}
}

func TestNewTaskResolvesOptions(t *testing.T) {
	at := time.Now().Add(90 * time.Minute)

	task, err := NewTask("engage", "/internal/tasks/engage-comment",
		map[string]uint64{"post_id": 7},
		At(at), As("svc-engage"), Dedup("engage-7"), NoRetry())
	if err != nil {
		t.Fatal(err)
	}

	if task.Queue != "engage" || task.TargetPath != "/internal/tasks/engage-comment" {
		t.Fatalf("routing = %q %q", task.Queue, task.TargetPath)
	}
	if !task.RunAt.Equal(at) {
		t.Fatalf("runAt = %v, want %v", task.RunAt, at)
	}
	if task.Principal != "svc-engage" {
		t.Fatalf("principal = %q", task.Principal)
	}
	if task.DedupKey == nil || *task.DedupKey != "engage-7" {
		t.Fatalf("dedupKey = %v", task.DedupKey)
	}
	if task.MaxAttempts != 1 {
		t.Fatalf("maxAttempts = %d", task.MaxAttempts)
	}
	if task.Status != StatusPending {
		t.Fatalf("status = %q", task.Status)
	}

	if _, err := NewTask("engage", "/x", make(chan int)); err != ErrNotSerializable {
		t.Fatalf("err = %v, want ErrNotSerializable", err)
	}
}
