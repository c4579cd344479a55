package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/leadbook/crm-system/internal/core/domain"
	"github.com/leadbook/crm-system/internal/core/ports"
	"github.com/leadbook/crm-system/internal/pkg/metrics"
)

// EditPolicy decides what happens to pending jobs when a task is scheduled again.
type EditPolicy string

const (
	// PolicyAppend keeps earlier jobs; an edited task may emit stale reminders.
	PolicyAppend EditPolicy = "append"
	// PolicyReplace cancels the task's pending jobs before registering new ones.
	PolicyReplace EditPolicy = "replace"
)

const defaultSendTimeout = 30 * time.Second

// ParseEditPolicy maps a config value to a policy, defaulting to append.
func ParseEditPolicy(s string) EditPolicy {
	if EditPolicy(strings.ToLower(strings.TrimSpace(s))) == PolicyReplace {
		return PolicyReplace
	}
	return PolicyAppend
}

// ReminderConfig tunes the scheduler.
type ReminderConfig struct {
	Policy      EditPolicy
	SendTimeout time.Duration
	Clock       Clock
}

type reminderJob struct {
	id      string
	task    domain.Task
	spec    domain.ReminderSpec
	firesAt time.Time
	state   domain.JobState
	timer   Timer
}

// ReminderScheduler registers one timer per reminder spec and mails the
// assignee when it fires. Jobs live in memory only.
type ReminderScheduler struct {
	users  ports.UserRepository
	crm    ports.CRMRepository
	mailer ports.Mailer
	dedup  ports.ReminderDedup
	cfg    ReminderConfig
	log    zerolog.Logger

	baseCtx context.Context
	cancel  context.CancelFunc

	mu     sync.Mutex
	jobs   map[string]map[string]*reminderJob // task ID -> job ID -> job
	closed bool
	wg     sync.WaitGroup
}

// NewReminderScheduler builds a scheduler. dedup may be nil.
func NewReminderScheduler(
	users ports.UserRepository,
	crm ports.CRMRepository,
	mailer ports.Mailer,
	dedup ports.ReminderDedup,
	cfg ReminderConfig,
	log zerolog.Logger,
) *ReminderScheduler {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyAppend
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ReminderScheduler{
		users:   users,
		crm:     crm,
		mailer:  mailer,
		dedup:   dedup,
		cfg:     cfg,
		log:     log,
		baseCtx: ctx,
		cancel:  cancel,
		jobs:    make(map[string]map[string]*reminderJob),
	}
}

// Schedule registers a job for every valid email reminder whose fire time is
// still ahead. Reminders already due are dropped, never fired late.
func (s *ReminderScheduler) Schedule(_ context.Context, in ports.TaskReminder) ports.ScheduleResult {
	var res ports.ScheduleResult
	task := in.Task
	log := s.log.With().Str("task_id", task.ID).Logger()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		res.Skipped = len(in.Reminders)
		return res
	}
	if s.cfg.Policy == PolicyReplace {
		res.Cancelled = s.cancelLocked(task.ID)
	}

	now := s.cfg.Clock.Now()
	for _, spec := range in.Reminders {
		if err := spec.Validate(); err != nil {
			res.Skipped++
			metrics.RemindersTotal.WithLabelValues("skipped_invalid").Inc()
			log.Warn().Err(err).Msg("invalid reminder skipped")
			continue
		}
		if !spec.HasChannel(domain.ChannelEmail) {
			res.Skipped++
			metrics.RemindersTotal.WithLabelValues("skipped_channel").Inc()
			continue
		}

		firesAt := spec.FireTime(task.DueAt)
		if !firesAt.After(now) {
			res.Skipped++
			metrics.RemindersTotal.WithLabelValues("skipped_past").Inc()
			log.Warn().Time("fires_at", firesAt).Msg("reminder time already passed, skipping")
			continue
		}

		job := &reminderJob{
			id:      uuid.NewString(),
			task:    task,
			spec:    spec,
			firesAt: firesAt,
			state:   domain.JobScheduled,
		}
		if s.jobs[task.ID] == nil {
			s.jobs[task.ID] = make(map[string]*reminderJob)
		}
		s.jobs[task.ID][job.id] = job
		job.timer = s.cfg.Clock.AfterFunc(firesAt.Sub(now), func() { s.fire(job) })

		res.Scheduled++
		metrics.RemindersTotal.WithLabelValues("scheduled").Inc()
		log.Info().Str("job_id", job.id).Time("fires_at", firesAt).Msg("reminder scheduled")
	}

	return res
}

// Cancel stops every pending job of a task and reports how many were stopped.
// Jobs already firing run to completion.
func (s *ReminderScheduler) Cancel(taskID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked(taskID)
}

// cancelLocked requires s.mu.
func (s *ReminderScheduler) cancelLocked(taskID string) int {
	n := 0
	for id, job := range s.jobs[taskID] {
		if job.state != domain.JobScheduled {
			continue
		}
		job.timer.Stop()
		job.state = domain.JobCancelled
		delete(s.jobs[taskID], id)
		n++
	}
	if len(s.jobs[taskID]) == 0 {
		delete(s.jobs, taskID)
	}
	if n > 0 {
		metrics.RemindersTotal.WithLabelValues("cancelled").Add(float64(n))
		s.log.Info().Str("task_id", taskID).Int("cancelled", n).Msg("pending reminders cancelled")
	}
	return n
}

// Pending lists the jobs of a task that have not fired yet.
func (s *ReminderScheduler) Pending(taskID string) []ports.JobView {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ports.JobView, 0, len(s.jobs[taskID]))
	for _, job := range s.jobs[taskID] {
		if job.state != domain.JobScheduled {
			continue
		}
		out = append(out, ports.JobView{
			ID:      job.id,
			TaskID:  job.task.ID,
			FiresAt: job.firesAt,
			State:   job.state,
			Spec:    job.spec,
		})
	}
	return out
}

// Shutdown stops all pending timers and waits for in-flight sends.
func (s *ReminderScheduler) Shutdown() {
	s.mu.Lock()
	s.closed = true
	for taskID, jobs := range s.jobs {
		for _, job := range jobs {
			job.timer.Stop()
		}
		delete(s.jobs, taskID)
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

func (s *ReminderScheduler) fire(job *reminderJob) {
	s.mu.Lock()
	if s.closed || job.state != domain.JobScheduled {
		s.mu.Unlock()
		return
	}
	job.state = domain.JobFired
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	log := s.log.With().
		Str("task_id", job.task.ID).
		Str("job_id", job.id).
		Logger()

	ctx, cancel := context.WithTimeout(s.baseCtx, s.cfg.SendTimeout)
	defer cancel()

	msg, err := s.render(ctx, job.task)
	if err != nil {
		s.settle(job, domain.JobAbandoned, "abandoned")
		log.Error().Err(err).Msg("reminder abandoned")
		return
	}

	if s.dedup != nil {
		sent, err := s.dedup.IsSent(ctx, job.task.ID, job.firesAt, job.spec)
		if err != nil {
			log.Warn().Err(err).Msg("reminder dedup check failed, sending anyway")
		} else if sent {
			s.settle(job, domain.JobAbandoned, "duplicate")
			log.Debug().Msg("reminder already sent, skipping")
			return
		}
	}

	start := time.Now()
	err = s.mailer.Send(ctx, msg)
	metrics.ReminderSendDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.settle(job, domain.JobAbandoned, "failed")
		log.Error().Err(err).Str("to", msg.To).Msg("reminder email failed")
		return
	}

	if s.dedup != nil {
		if err := s.dedup.MarkSent(ctx, job.task.ID, job.firesAt, job.spec); err != nil {
			log.Warn().Err(err).Msg("failed to record sent reminder")
		}
	}
	s.settle(job, domain.JobSent, "sent")
	log.Info().Str("to", msg.To).Msg("reminder email sent")
}

// render resolves the display data of a reminder. Any missing record abandons
// the job.
func (s *ReminderScheduler) render(ctx context.Context, task domain.Task) (domain.ReminderMessage, error) {
	user, err := s.users.FindByID(ctx, task.AssigneeID)
	if err != nil {
		return domain.ReminderMessage{}, fmt.Errorf("assignee %s: %w", task.AssigneeID, err)
	}
	if user.Email == "" {
		return domain.ReminderMessage{}, fmt.Errorf("assignee %s: %w", task.AssigneeID, domain.ErrEmailNotFound)
	}

	leadName := domain.NotAssigned
	if task.LeadID != "" {
		lead, err := s.crm.FindLead(ctx, task.LeadID)
		if err != nil {
			return domain.ReminderMessage{}, fmt.Errorf("lead %s: %w", task.LeadID, err)
		}
		leadName = lead.Name
	}

	productName := domain.NotAssigned
	if task.ProductID != "" {
		product, err := s.crm.FindProduct(ctx, task.ProductID)
		if err != nil {
			return domain.ReminderMessage{}, fmt.Errorf("product %s: %w", task.ProductID, err)
		}
		productName = product.Name
	}

	return domain.ReminderMessage{
		To:          user.Email,
		TaskTitle:   task.Title,
		Description: task.Description,
		DueAt:       task.DueAt,
		LeadName:    leadName,
		ProductName: productName,
	}, nil
}

func (s *ReminderScheduler) settle(job *reminderJob, state domain.JobState, result string) {
	s.mu.Lock()
	job.state = state
	if jobs, ok := s.jobs[job.task.ID]; ok {
		delete(jobs, job.id)
		if len(jobs) == 0 {
			delete(s.jobs, job.task.ID)
		}
	}
	s.mu.Unlock()
	metrics.RemindersTotal.WithLabelValues(result).Inc()
}
