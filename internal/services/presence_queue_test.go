package services

import (
	"context"
	"testing"
	"time"
)

func TestTaskTypePresenceRecount_Constant(t *testing.T) {
	if TaskTypePresenceRecount != "presence:recount" {
		t.Errorf("TaskTypePresenceRecount = %q, expected %q", TaskTypePresenceRecount, "presence:recount")
	}
}

func TestSyncPresenceQueue_IsAsync(t *testing.T) {
	queue := NewSyncPresenceQueue()
	if queue.IsAsync() {
		t.Error("sync queue should report IsAsync() = false")
	}
}

func TestSyncPresenceQueue_NoProcessor(t *testing.T) {
	queue := NewSyncPresenceQueue()

	// Without a processor the task is dropped, not an error.
	if err := queue.Enqueue(&PresenceTask{MeetingID: 1}); err != nil {
		t.Errorf("Enqueue() error = %v", err)
	}
}

func TestSyncPresenceQueue_ProcessesTask(t *testing.T) {
	queue := NewSyncPresenceQueue()

	processed := make(chan uint, 1)
	queue.SetProcessor(func(ctx context.Context, task *PresenceTask) error {
		processed <- task.MeetingID
		return nil
	})

	if err := queue.Enqueue(&PresenceTask{MeetingID: 42}); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	select {
	case id := <-processed:
		if id != 42 {
			t.Errorf("processed meeting %d, expected 42", id)
		}
	case <-time.After(time.Second):
		t.Fatal("task was not processed within 1s")
	}
}

func TestSyncPresenceQueue_Close(t *testing.T) {
	queue := NewSyncPresenceQueue()
	if err := queue.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
