package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nicunursekatie/adhd-planner/internal/gateway"
	"github.com/nicunursekatie/adhd-planner/internal/models"
	"github.com/nicunursekatie/adhd-planner/internal/queue"
	"github.com/nicunursekatie/adhd-planner/internal/recurrence"
	"github.com/nicunursekatie/adhd-planner/internal/store"
)

type fakeDelivery struct {
	job     *queue.Job
	acked   bool
	nacked  bool
	requeue bool
}

func (d *fakeDelivery) Ack() error { d.acked = true; return nil }
func (d *fakeDelivery) Nack(requeue bool) error {
	d.nacked = true
	d.requeue = requeue
	return nil
}
func (d *fakeDelivery) GetJob() *queue.Job { return d.job }

type fakeQueue struct {
	mu       sync.Mutex
	enqueued []*queue.Job
	fail     bool
}

func (q *fakeQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.fail {
		return errors.New("broker down")
	}
	q.enqueued = append(q.enqueued, job)
	return nil
}

func (q *fakeQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, errors.New("not implemented")
}
func (q *fakeQueue) Close() error                        { return nil }
func (q *fakeQueue) HealthCheck(ctx context.Context) error { return nil }

func newTestGenerator(t *testing.T) (*Generator, *store.Manager, *fakeQueue) {
	t.Helper()
	gw, _ := gateway.NewMemory()
	sessions := store.NewManager(gw, nil)
	t.Cleanup(sessions.Close)
	fq := &fakeQueue{}
	return NewGenerator(sessions, fq, nil), sessions, fq
}

func seedTemplate(t *testing.T, sessions *store.Manager, owner string) *models.RecurringTask {
	t.Helper()
	st, err := sessions.Get(context.Background(), owner)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	tmpl, err := st.AddRecurringTask(context.Background(), &models.RecurringTask{
		Title:   "daily standup notes",
		Pattern: recurrence.Pattern{Type: recurrence.TypeDaily, Interval: 1},
		Active:  true,
		NextDue: time.Now().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("AddRecurringTask() error = %v", err)
	}
	return tmpl
}

func TestProcessJobGenerateRecurring(t *testing.T) {
	t.Parallel()

	g, sessions, _ := newTestGenerator(t)
	ctx := context.Background()
	tmpl := seedTemplate(t, sessions, "alice")

	msg := &fakeDelivery{job: queue.NewJob(queue.JobTypeGenerateRecurring, "alice", tmpl.ID)}
	if err := g.ProcessJob(ctx, msg); err != nil {
		t.Fatalf("ProcessJob() error = %v", err)
	}
	if !msg.acked {
		t.Error("successful job must be acked")
	}

	st, _ := sessions.Get(ctx, "alice")
	tasks := st.ListTasks()
	if len(tasks) != 1 || tasks[0].RecurringTaskID != tmpl.ID {
		t.Errorf("tasks = %v, want one generated from %s", tasks, tmpl.ID)
	}
}

func TestProcessJobUnknownTemplateAcks(t *testing.T) {
	t.Parallel()

	g, _, _ := newTestGenerator(t)
	msg := &fakeDelivery{job: queue.NewJob(queue.JobTypeGenerateRecurring, "alice", "deleted")}
	if err := g.ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("ProcessJob() error = %v: a deleted template is not a failure", err)
	}
	if !msg.acked {
		t.Error("job for a deleted template must still be acked")
	}
}

func TestProcessJobOwnerSweep(t *testing.T) {
	t.Parallel()

	g, sessions, _ := newTestGenerator(t)
	ctx := context.Background()
	seedTemplate(t, sessions, "bob")
	seedTemplate(t, sessions, "bob")

	msg := &fakeDelivery{job: queue.NewJob(queue.JobTypeOwnerSweep, "bob", "")}
	if err := g.ProcessJob(ctx, msg); err != nil {
		t.Fatalf("ProcessJob() error = %v", err)
	}
	if !msg.acked {
		t.Error("sweep must be acked")
	}

	st, _ := sessions.Get(ctx, "bob")
	if got := len(st.ListTasks()); got != 2 {
		t.Errorf("generated %d tasks, want 2", got)
	}
}

func TestProcessJobMissingTemplateID(t *testing.T) {
	t.Parallel()

	g, _, fq := newTestGenerator(t)
	msg := &fakeDelivery{job: queue.NewJob(queue.JobTypeGenerateRecurring, "alice", "")}

	err := g.ProcessJob(context.Background(), msg)
	if err != nil {
		t.Fatalf("ProcessJob() error = %v, want nil: retryable failures are re-enqueued", err)
	}
	if !msg.acked {
		t.Error("retried job must ack the original delivery")
	}
	fq.mu.Lock()
	defer fq.mu.Unlock()
	if len(fq.enqueued) != 1 {
		t.Fatalf("enqueued %d retries, want 1", len(fq.enqueued))
	}
	retry := fq.enqueued[0]
	if retry.RetryCount != 1 {
		t.Errorf("RetryCount = %d, want 1", retry.RetryCount)
	}
	if retry.NotBefore == nil || !retry.NotBefore.After(time.Now().Add(-time.Second)) {
		t.Errorf("NotBefore = %v, want a future retry time", retry.NotBefore)
	}
}

func TestProcessJobExhaustedRetriesDeadLetters(t *testing.T) {
	t.Parallel()

	g, _, _ := newTestGenerator(t)
	job := queue.NewJob(queue.JobTypeGenerateRecurring, "alice", "")
	job.RetryCount = job.MaxRetries
	msg := &fakeDelivery{job: job}

	if err := g.ProcessJob(context.Background(), msg); err == nil {
		t.Fatal("exhausted job must surface an error")
	}
	if !msg.nacked || msg.requeue {
		t.Errorf("exhausted job must nack without requeue, got nacked=%v requeue=%v", msg.nacked, msg.requeue)
	}
}

func TestProcessJobUnknownType(t *testing.T) {
	t.Parallel()

	g, _, _ := newTestGenerator(t)
	msg := &fakeDelivery{job: queue.NewJob("explode", "alice", "")}

	if err := g.ProcessJob(context.Background(), msg); err == nil {
		t.Fatal("unknown job type must surface an error")
	}
	if !msg.nacked || msg.requeue {
		t.Errorf("unknown type must dead-letter, got nacked=%v requeue=%v", msg.nacked, msg.requeue)
	}
}
