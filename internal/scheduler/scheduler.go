package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockledger/internal/config"
	"github.com/mamadbah2/stockledger/internal/domain/models"
	"github.com/mamadbah2/stockledger/internal/service/planning"
)

const (
	rebuildTimeout  = 5 * time.Minute
	digestTimeout   = 2 * time.Minute
	digestItemLimit = 25
)

// Rebuilder is the planning surface the scheduler drives.
type Rebuilder interface {
	Rebuild(ctx context.Context, trigger string) (models.RunReport, error)
	Digest() (models.ShortageDigest, error)
}

// DigestSender delivers the shortage digest.
type DigestSender interface {
	SendDigest(ctx context.Context, body string) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	planner  Rebuilder
	sender   DigestSender
	cfg      config.ReportingConfig
	logger   *zap.Logger
	entryIDs []cron.EntryID
}

// NewScheduler creates a new scheduler instance. sender may be nil when no
// chat channel is configured.
func NewScheduler(cfg config.ReportingConfig, planner Rebuilder, sender DigestSender, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:    cron.New(cron.WithLocation(cfg.Location())),
		planner: planner,
		sender:  sender,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler",
		zap.String("rebuild", s.cfg.RebuildSchedule),
		zap.String("digest", s.cfg.DigestSchedule),
		zap.String("timezone", s.cfg.Location().String()))

	if s.cfg.RebuildSchedule != "" {
		id, err := s.cron.AddFunc(s.cfg.RebuildSchedule, s.rebuild)
		if err != nil {
			return err
		}
		s.entryIDs = append(s.entryIDs, id)
	}

	if s.cfg.DigestSchedule != "" && s.sender != nil {
		id, err := s.cron.AddFunc(s.cfg.DigestSchedule, s.sendDigest)
		if err != nil {
			return err
		}
		s.entryIDs = append(s.entryIDs, id)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// Entries lists the registered jobs.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) rebuild() {
	ctx, cancel := context.WithTimeout(context.Background(), rebuildTimeout)
	defer cancel()

	if _, err := s.planner.Rebuild(ctx, "cron"); err != nil {
		s.logger.Error("scheduled rebuild failed", zap.Error(err))
	}
}

func (s *Scheduler) sendDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), digestTimeout)
	defer cancel()

	digest, err := s.planner.Digest()
	if errors.Is(err, planning.ErrNoRun) {
		s.logger.Info("skipping digest, no ledger run yet")
		return
	}
	if err != nil {
		s.logger.Error("failed to build digest", zap.Error(err))
		return
	}

	if err := s.sender.SendDigest(ctx, planning.FormatDigest(digest, digestItemLimit)); err != nil {
		s.logger.Error("failed to send digest", zap.Error(err))
	} else {
		s.logger.Info("shortage digest sent", zap.Int("short_items", len(digest.Short)))
	}
}
