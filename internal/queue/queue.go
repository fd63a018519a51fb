// Package queue implements the bounded descriptor-extraction queue: a strict
// FIFO drained by exactly one worker, so at most one image buffer is held
// for extraction at any time regardless of upload concurrency. Extraction is
// memory-heavy relative to the host; unbounded concurrency gets the process
// OOM-killed.
package queue

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/mholecek/snapmatch/internal/constants"
	"github.com/mholecek/snapmatch/internal/database"
	"github.com/mholecek/snapmatch/internal/extractor"
	"github.com/mholecek/snapmatch/internal/gallery"
)

// Task pairs a photo record with the raw image bytes it was created from.
// Tasks live only in memory; a process restart loses them, leaving their
// photos in processing status.
type Task struct {
	PhotoID string
	Image   []byte
}

// Queue serializes descriptor extraction across the whole process.
type Queue struct {
	extractor extractor.Extractor
	photos    database.PhotoStore

	breather    time.Duration
	taskTimeout time.Duration

	mu      sync.Mutex
	tasks   []Task
	running bool

	wake   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Queue.
type Option func(*Queue)

// WithBreather overrides the idle delay between tasks.
func WithBreather(d time.Duration) Option {
	return func(q *Queue) { q.breather = d }
}

// WithTaskTimeout overrides the per-task extraction timeout.
func WithTaskTimeout(d time.Duration) Option {
	return func(q *Queue) { q.taskTimeout = d }
}

// New creates a queue. Call Start before enqueueing.
func New(ext extractor.Extractor, photos database.PhotoStore, opts ...Option) *Queue {
	q := &Queue{
		extractor:   ext,
		photos:      photos,
		breather:    constants.QueueBreather,
		taskTimeout: constants.ExtractionTimeout,
		wake:        make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Start launches the worker goroutine.
func (q *Queue) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	q.done = make(chan struct{})
	go q.worker(ctx)
}

// Stop terminates the worker. A task already being extracted finishes its
// status write; queued tasks are abandoned.
func (q *Queue) Stop() {
	if q.cancel == nil {
		return
	}
	q.cancel()
	<-q.done
}

// Enqueue appends a task and returns immediately. Safe for concurrent use
// from any number of upload handlers.
func (q *Queue) Enqueue(task Task) {
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	depth := len(q.tasks)
	q.mu.Unlock()

	log.Printf("[queue] enqueued photo %s | depth: %d", task.PhotoID, depth)

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Len returns the number of tasks waiting (not counting one being processed).
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// worker is the single consumer. It drains the FIFO one task at a time and
// sleeps between tasks so memory from the previous image can be reclaimed
// before the next extraction starts.
func (q *Queue) worker(ctx context.Context) {
	defer close(q.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.wake:
		}

		for {
			task, ok := q.claim()
			if !ok {
				break
			}

			q.process(ctx, task)
			q.release()

			select {
			case <-ctx.Done():
				return
			case <-time.After(q.breather):
			}
		}
	}
}

// claim atomically sets the running flag and pops the head task. Returns
// false when the queue is empty or another task is already running.
func (q *Queue) claim() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running || len(q.tasks) == 0 {
		return Task{}, false
	}
	q.running = true
	task := q.tasks[0]
	q.tasks = q.tasks[1:]
	return task, true
}

func (q *Queue) release() {
	q.mu.Lock()
	q.running = false
	q.mu.Unlock()
}

// process runs extraction for one task and records the terminal status.
// Failures stay inside the queue; the uploader got its response long ago.
func (q *Queue) process(ctx context.Context, task Task) {
	extractCtx, cancel := context.WithTimeout(ctx, q.taskTimeout)
	descriptors, err := q.extractor.Extract(extractCtx, task.Image)
	cancel()

	// The status write must survive queue shutdown, otherwise the photo is
	// stuck in processing even though work was done.
	writeCtx, cancelWrite := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelWrite()

	if err != nil {
		log.Printf("[queue] extraction failed for photo %s: %v", task.PhotoID, err)
		if dbErr := q.photos.SetPhotoResult(writeCtx, task.PhotoID, gallery.StatusFailed, nil); dbErr != nil {
			log.Printf("[queue] status update failed for photo %s: %v", task.PhotoID, dbErr)
		}
		return
	}

	log.Printf("[queue] photo %s ready, %d face(s)", task.PhotoID, len(descriptors))
	if dbErr := q.photos.SetPhotoResult(writeCtx, task.PhotoID, gallery.StatusReady, descriptors); dbErr != nil {
		log.Printf("[queue] status update failed for photo %s: %v", task.PhotoID, dbErr)
	}
}
