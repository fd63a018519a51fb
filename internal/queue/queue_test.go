package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mholecek/snapmatch/internal/database/mock"
	"github.com/mholecek/snapmatch/internal/extractor"
	"github.com/mholecek/snapmatch/internal/gallery"
)

// seedPhotos adds n processing photos to the store and returns their IDs.
func seedPhotos(store *mock.MockPhotoStore, n int) []string {
	ids := make([]string, n)
	for i := range n {
		ids[i] = fmt.Sprintf("photo-%d", i)
		store.AddPhoto(gallery.Photo{
			ID:      ids[i],
			EventID: "event-1",
			Status:  gallery.StatusProcessing,
		})
	}
	return ids
}

// waitForTerminal polls until every photo left processing status or the
// timeout elapses.
func waitForTerminal(t *testing.T, store *mock.MockPhotoStore, ids []string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		done := true
		for _, id := range ids {
			p, _ := store.GetPhoto(context.Background(), id)
			if p == nil || p.Status == gallery.StatusProcessing {
				done = false
				break
			}
		}
		if done {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("photos never reached a terminal status")
}

func TestQueue_SuccessWritesReady(t *testing.T) {
	store := mock.NewMockPhotoStore()
	ids := seedPhotos(store, 1)

	desc := make(gallery.Descriptor, 128)
	ext := extractor.Func(func(ctx context.Context, image []byte) ([]gallery.Descriptor, error) {
		return []gallery.Descriptor{desc}, nil
	})

	q := New(ext, store, WithBreather(time.Millisecond))
	q.Start()
	defer q.Stop()

	q.Enqueue(Task{PhotoID: ids[0], Image: []byte{1}})
	waitForTerminal(t, store, ids)

	p, _ := store.GetPhoto(context.Background(), ids[0])
	if p.Status != gallery.StatusReady {
		t.Errorf("expected ready, got %s", p.Status)
	}
	if len(p.Descriptors) != 1 {
		t.Errorf("expected 1 descriptor, got %d", len(p.Descriptors))
	}
}

func TestQueue_NoFaceIsStillReady(t *testing.T) {
	store := mock.NewMockPhotoStore()
	ids := seedPhotos(store, 1)

	ext := extractor.Func(func(ctx context.Context, image []byte) ([]gallery.Descriptor, error) {
		return nil, nil
	})

	q := New(ext, store, WithBreather(time.Millisecond))
	q.Start()
	defer q.Stop()

	q.Enqueue(Task{PhotoID: ids[0], Image: []byte{1}})
	waitForTerminal(t, store, ids)

	p, _ := store.GetPhoto(context.Background(), ids[0])
	if p.Status != gallery.StatusReady {
		t.Errorf("no detected face is a valid background outcome, expected ready, got %s", p.Status)
	}
	if len(p.Descriptors) != 0 {
		t.Errorf("expected no descriptors, got %d", len(p.Descriptors))
	}
}

func TestQueue_FailureWritesFailed(t *testing.T) {
	store := mock.NewMockPhotoStore()
	ids := seedPhotos(store, 1)

	ext := extractor.Func(func(ctx context.Context, image []byte) ([]gallery.Descriptor, error) {
		return nil, errors.New("corrupt image")
	})

	q := New(ext, store, WithBreather(time.Millisecond))
	q.Start()
	defer q.Stop()

	q.Enqueue(Task{PhotoID: ids[0], Image: []byte{1}})
	waitForTerminal(t, store, ids)

	p, _ := store.GetPhoto(context.Background(), ids[0])
	if p.Status != gallery.StatusFailed {
		t.Errorf("expected failed, got %s", p.Status)
	}
	if len(p.Descriptors) != 0 {
		t.Errorf("failed photos must keep an empty descriptor sequence, got %d", len(p.Descriptors))
	}
}

func TestQueue_HungExtractionTimesOut(t *testing.T) {
	store := mock.NewMockPhotoStore()
	ids := seedPhotos(store, 2)

	ext := extractor.Func(func(ctx context.Context, image []byte) ([]gallery.Descriptor, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	q := New(ext, store, WithBreather(time.Millisecond), WithTaskTimeout(20*time.Millisecond))
	q.Start()
	defer q.Stop()

	q.Enqueue(Task{PhotoID: ids[0], Image: []byte{1}})
	q.Enqueue(Task{PhotoID: ids[1], Image: []byte{2}})
	waitForTerminal(t, store, ids)

	// Both photos must fail; a hung call cannot stall the queue forever.
	for _, id := range ids {
		p, _ := store.GetPhoto(context.Background(), id)
		if p.Status != gallery.StatusFailed {
			t.Errorf("photo %s: expected failed after timeout, got %s", id, p.Status)
		}
	}
}

func TestQueue_AtMostOneExtractionAtATime(t *testing.T) {
	store := mock.NewMockPhotoStore()
	ids := seedPhotos(store, 8)

	var active, maxActive int32
	ext := extractor.Func(func(ctx context.Context, image []byte) ([]gallery.Descriptor, error) {
		cur := atomic.AddInt32(&active, 1)
		for {
			prev := atomic.LoadInt32(&maxActive)
			if cur <= prev || atomic.CompareAndSwapInt32(&maxActive, prev, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return nil, nil
	})

	q := New(ext, store, WithBreather(time.Millisecond))
	q.Start()
	defer q.Stop()

	// Enqueue concurrently from many goroutines, like concurrent uploads do.
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			q.Enqueue(Task{PhotoID: id, Image: []byte{1}})
		}(id)
	}
	wg.Wait()

	waitForTerminal(t, store, ids)

	if atomic.LoadInt32(&maxActive) != 1 {
		t.Errorf("expected at most 1 concurrent extraction, observed %d", maxActive)
	}
}

func TestQueue_FIFOCompletionOrder(t *testing.T) {
	store := mock.NewMockPhotoStore()
	ids := seedPhotos(store, 5)

	ext := extractor.Func(func(ctx context.Context, image []byte) ([]gallery.Descriptor, error) {
		return nil, nil
	})

	q := New(ext, store, WithBreather(time.Millisecond))
	// Enqueue everything before starting the worker so the order is fixed.
	for _, id := range ids {
		q.Enqueue(Task{PhotoID: id, Image: []byte{1}})
	}
	q.Start()
	defer q.Stop()

	waitForTerminal(t, store, ids)

	if len(store.SetResultCalls) != len(ids) {
		t.Fatalf("expected %d result writes, got %d", len(ids), len(store.SetResultCalls))
	}
	for i, id := range ids {
		if store.SetResultCalls[i] != id {
			t.Errorf("completion order broken at %d: got %s, want %s", i, store.SetResultCalls[i], id)
		}
	}
}
