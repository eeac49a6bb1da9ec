// Package scheduler runs the library's periodic jobs on cron schedules.
// Jobs only enqueue tasks; the task queue does the work.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/libraryhub/internal/config"
	"github.com/mrlokans/libraryhub/internal/tasks"
)

// ErrUnknownJob is returned by RunNow for names no job is registered under.
var ErrUnknownJob = errors.New("unknown job")

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule checks a five-field cron expression.
func ValidateCronSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// Enqueuer accepts tasks for background processing.
type Enqueuer interface {
	Enqueue(task backlite.Task) (string, error)
}

// Job is one periodic task.
type Job struct {
	Name     string
	Schedule string
	Task     func() backlite.Task
}

// JobStatus reports a registered job and its next run.
type JobStatus struct {
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	Next     time.Time `json:"next"`
}

// JobsFromConfig returns the enabled jobs. The inventory resync runs whenever
// its schedule is set; the others also need their enabled flag.
func JobsFromConfig(cfg config.Schedules, retentionDays int) []Job {
	var jobs []Job
	if cfg.OverdueScanEnabled && cfg.OverdueScan != "" {
		jobs = append(jobs, Job{Name: "overdue_scan", Schedule: cfg.OverdueScan,
			Task: func() backlite.Task { return tasks.OverdueRemindersTask{} }})
	}
	if cfg.InventoryResync != "" {
		jobs = append(jobs, Job{Name: "inventory_resync", Schedule: cfg.InventoryResync,
			Task: func() backlite.Task { return tasks.ResyncInventoryTask{} }})
	}
	if cfg.BackupEnabled && cfg.Backup != "" {
		jobs = append(jobs, Job{Name: "backup", Schedule: cfg.Backup,
			Task: func() backlite.Task { return tasks.SnapshotBackupTask{Reason: "schedule"} }})
	}
	if cfg.AuditCleanupEnabled && cfg.AuditCleanup != "" {
		jobs = append(jobs, Job{Name: "audit_cleanup", Schedule: cfg.AuditCleanup,
			Task: func() backlite.Task { return tasks.CleanupAuditEventsTask{RetentionDays: retentionDays} }})
	}
	return jobs
}

// Scheduler manages the periodic jobs.
type Scheduler struct {
	enqueuer Enqueuer
	jobs     []Job

	cron      *cron.Cron
	entries   map[string]cron.EntryID
	mu        sync.RWMutex
	isRunning bool
}

func New(enqueuer Enqueuer, jobs []Job) *Scheduler {
	return &Scheduler{
		enqueuer: enqueuer,
		jobs:     jobs,
		cron:     cron.New(cron.WithParser(parser)),
		entries:  make(map[string]cron.EntryID),
	}
}

// Start registers every job and starts the cron loop. It stops when ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if len(s.jobs) == 0 {
		log.Printf("Scheduler: no jobs enabled")
		return nil
	}

	for _, job := range s.jobs {
		if err := ValidateCronSchedule(job.Schedule); err != nil {
			return fmt.Errorf("invalid cron schedule '%s' for %s: %w", job.Schedule, job.Name, err)
		}
		job := job
		id, err := s.cron.AddFunc(job.Schedule, func() { s.run(job) })
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.Name, err)
		}
		s.entries[job.Name] = id
	}

	s.cron.Start()
	s.isRunning = true

	for _, st := range s.statusLocked() {
		log.Printf("Scheduler: %s scheduled '%s'. Next run: %v", st.Name, st.Schedule, st.Next)
	}

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	<-s.cron.Stop().Done()
	s.isRunning = false
	log.Printf("Scheduler: stopped")
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// RunNow enqueues the named job immediately.
func (s *Scheduler) RunNow(name string) (string, error) {
	for _, job := range s.jobs {
		if job.Name == name {
			return s.run(job)
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownJob, name)
}

// Status lists registered jobs with their next run time.
func (s *Scheduler) Status() []JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statusLocked()
}

func (s *Scheduler) statusLocked() []JobStatus {
	out := make([]JobStatus, 0, len(s.jobs))
	for _, job := range s.jobs {
		st := JobStatus{Name: job.Name, Schedule: job.Schedule}
		if id, ok := s.entries[job.Name]; ok {
			st.Next = s.cron.Entry(id).Next
		}
		out = append(out, st)
	}
	return out
}

func (s *Scheduler) run(job Job) (string, error) {
	id, err := s.enqueuer.Enqueue(job.Task())
	if err != nil {
		log.Printf("Scheduler: %s failed to enqueue: %v", job.Name, err)
		return "", err
	}
	log.Printf("Scheduler: %s enqueued task %s", job.Name, id)
	return id, nil
}
