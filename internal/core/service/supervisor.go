package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mverhage/bothive/internal/core/domain"
	"github.com/mverhage/bothive/internal/core/state"
	"github.com/mverhage/bothive/internal/storage"
	"github.com/mverhage/bothive/pkg/config"
)

// NoLogsMessage is returned by Logs for a bot that has never produced a
// log file.
const NoLogsMessage = "No logs available yet"

// killWait bounds the post-kill reap wait during stop escalation.
const killWait = 2 * time.Second

// BotView is a bot record merged with its derived runtime state.
type BotView struct {
	Bot       domain.Bot
	Status    domain.BotStatus
	CPU       float64
	MemoryMB  float64
	PID       int
	StartedAt *time.Time
}

// Supervisor orchestrates the bot registry and the process table. A single
// RWMutex guards both collections together: every check-and-mutate runs
// under the write lock, reads take the read lock, and blocking process
// work (termination waits, stat sampling) happens outside the lock.
type Supervisor struct {
	mu       sync.RWMutex
	registry *state.Registry
	table    *state.ProcessTable

	store *storage.Store
	probe *StatsProbe
	log   *logrus.Entry

	runtimes       map[string][]string
	stopTimeout    time.Duration
	reconcileEvery time.Duration
	killOnShutdown bool

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewSupervisor(cfg *config.Config, store *storage.Store) *Supervisor {
	return &Supervisor{
		registry:       state.NewRegistry(cfg.MaxBotsPerUser),
		table:          state.NewProcessTable(),
		store:          store,
		probe:          NewStatsProbe(),
		log:            logrus.WithField("component", "supervisor"),
		runtimes:       cfg.Runtimes,
		stopTimeout:    cfg.StopTimeout(),
		reconcileEvery: cfg.ReconcileInterval(),
		killOnShutdown: cfg.KillOnShutdown,
		done:           make(chan struct{}),
	}
}

// Upload validates the file type, registers the bot under its owner's
// quota, and persists the script to storage.
func (s *Supervisor) Upload(ctx context.Context, owner, name, fileType string, content []byte) (*domain.Bot, error) {
	if !domain.ValidFileType(fileType) {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidFileType, fileType)
	}

	s.mu.Lock()
	id := s.registry.GenerateID(owner, name)
	bot := domain.NewBot(id, name, owner, s.store.ScriptPath(id, fileType), fileType)
	if err := s.registry.Create(bot); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	if _, err := s.store.SaveScript(id, fileType, content); err != nil {
		s.mu.Lock()
		s.registry.Remove(id)
		s.mu.Unlock()
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"bot_id": id,
		"owner":  owner,
	}).Info("bot uploaded")
	return bot, nil
}

// Start spawns the bot's process with stdout and stderr captured in a
// fresh log file, and records the handle in the process table. The
// registry lookup, the already-running check, and the insert all happen
// under one write lock so concurrent starts cannot double-spawn.
func (s *Supervisor) Start(ctx context.Context, botID string) (*domain.RunningProcess, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bot, err := s.registry.Get(botID)
	if err != nil {
		return nil, err
	}
	if s.table.Contains(botID) {
		return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyRunning, botID)
	}
	argv, ok := s.runtimes[bot.FileType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, bot.FileType)
	}

	logFile, err := s.store.CreateLogFile(botID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSpawnFailure, err)
	}

	cmd := exec.Command(argv[0], append(argv[1:], bot.FilePath)...)
	cmd.Dir = s.store.Root()
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	err = cmd.Start()
	logFile.Close() // child holds its own descriptor
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSpawnFailure, err)
	}

	rp := domain.NewRunningProcess(botID, uuid.New().String(), cmd, s.store.LogPath(botID))
	if err := s.table.Insert(botID, rp); err != nil {
		// Unreachable while the lock is held across the membership check;
		// don't leak the child if it ever happens.
		rp.Kill()
		rp.WaitExit(killWait)
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"bot_id": botID,
		"run_id": rp.RunID,
		"pid":    rp.PID,
	}).Info("bot started")
	return rp, nil
}

// Stop terminates the bot's process, gracefully first, forcefully after
// the stop timeout, and removes its process table entry afterward. It
// returns whether the kill escalation was needed. The entry stays in the
// table for the duration of the grace window so a concurrent Start keeps
// failing ErrAlreadyRunning while the old process is still dying; the
// termination wait itself happens outside the lock so a slow exit does
// not block unrelated requests.
func (s *Supervisor) Stop(ctx context.Context, botID string) (forced bool, err error) {
	s.mu.RLock()
	rp, err := s.table.Get(botID)
	s.mu.RUnlock()
	if err != nil {
		return false, err
	}

	forced = s.terminate(rp)

	s.mu.Lock()
	// A concurrent Delete or sweep may already have dropped the entry;
	// only remove the handle this call terminated.
	if cur, e := s.table.Get(botID); e == nil && cur == rp {
		s.table.Remove(botID)
	}
	s.mu.Unlock()
	s.log.WithFields(logrus.Fields{
		"bot_id": botID,
		"run_id": rp.RunID,
		"forced": forced,
	}).Info("bot stopped")
	return forced, nil
}

// terminate delivers SIGTERM, waits up to the stop timeout, and escalates
// to SIGKILL if the process has not exited. The handle is reaped on every
// path. Returns whether escalation was needed.
func (s *Supervisor) terminate(rp *domain.RunningProcess) bool {
	if err := rp.Terminate(); err != nil {
		s.log.WithField("pid", rp.PID).Warnf("failed to signal process: %v", err)
	}
	if rp.WaitExit(s.stopTimeout) {
		return false
	}

	s.log.WithField("pid", rp.PID).Warn("graceful stop timed out, killing")
	if err := rp.Kill(); err != nil {
		s.log.WithField("pid", rp.PID).Warnf("failed to kill process: %v", err)
	}
	rp.WaitExit(killWait)
	return true
}

// Delete removes the bot record, its process table entry, and its files.
// Termination and file removal are best effort: deletion must make forward
// progress even when a sub-step fails.
func (s *Supervisor) Delete(ctx context.Context, botID string) error {
	s.mu.Lock()
	bot, err := s.registry.Get(botID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	rp, _ := s.table.Remove(botID)
	s.registry.Remove(botID)
	s.mu.Unlock()

	if rp != nil {
		s.terminate(rp)
	}
	s.store.RemoveBotFiles(bot.FilePath, botID)

	s.log.WithFields(logrus.Fields{
		"bot_id": botID,
		"owner":  bot.Owner,
	}).Info("bot deleted")
	return nil
}

// Status returns the merged view of one bot: its record plus status, pid,
// start time, and resource usage derived from the process table.
func (s *Supervisor) Status(ctx context.Context, botID string) (*BotView, error) {
	s.mu.RLock()
	bot, err := s.registry.Get(botID)
	if err != nil {
		s.mu.RUnlock()
		return nil, err
	}
	view := &BotView{Bot: *bot, Status: domain.BotStatusStopped}
	rp, _ := s.table.Get(botID)
	s.mu.RUnlock()

	if rp != nil {
		s.fillRunning(view, rp)
	}
	return view, nil
}

// ListByOwner returns merged views for every bot owned by owner, in
// registry insertion order.
func (s *Supervisor) ListByOwner(ctx context.Context, owner string) ([]*BotView, error) {
	s.mu.RLock()
	bots := s.registry.ListByOwner(owner)
	views := make([]*BotView, 0, len(bots))
	procs := make([]*domain.RunningProcess, 0, len(bots))
	for _, bot := range bots {
		views = append(views, &BotView{Bot: *bot, Status: domain.BotStatusStopped})
		rp, _ := s.table.Get(bot.ID)
		procs = append(procs, rp)
	}
	s.mu.RUnlock()

	// Stat sampling blocks briefly per process; keep it outside the lock.
	for i, rp := range procs {
		if rp != nil {
			s.fillRunning(views[i], rp)
		}
	}
	return views, nil
}

func (s *Supervisor) fillRunning(view *BotView, rp *domain.RunningProcess) {
	stats := s.probe.Sample(rp.PID)
	started := rp.StartedAt
	view.Status = domain.BotStatusRunning
	view.CPU = stats.CPUPercent
	view.MemoryMB = stats.MemoryMB
	view.PID = rp.PID
	view.StartedAt = &started
}

// Logs returns the tail of the bot's log file. A bot that has never
// started gets the NoLogsMessage sentinel rather than an error.
func (s *Supervisor) Logs(ctx context.Context, botID string) (string, error) {
	s.mu.RLock()
	_, err := s.registry.Get(botID)
	s.mu.RUnlock()
	if err != nil {
		return "", err
	}

	text, err := s.store.TailLog(botID, storage.TailLimit)
	if errors.Is(err, os.ErrNotExist) {
		return NoLogsMessage, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read logs: %w", err)
	}
	return text, nil
}

// StartReconciler begins the periodic sweep that removes process table
// entries whose process exited on its own. Without it, such entries stay
// visible as running until the next stop or delete.
func (s *Supervisor) StartReconciler() {
	if s.reconcileEvery <= 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.reconcileEvery)
		defer ticker.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				s.reconcileOnce()
			}
		}
	}()
}

func (s *Supervisor) reconcileOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rp := range s.table.Entries() {
		if rp.Exited() {
			s.table.Remove(rp.BotID)
			entry := s.log.WithFields(logrus.Fields{
				"bot_id": rp.BotID,
				"run_id": rp.RunID,
				"pid":    rp.PID,
			})
			if err := rp.ExitErr(); err != nil {
				entry = entry.WithField("exit", err.Error())
			}
			entry.Info("removed exited bot process")
		}
	}
}

// Shutdown stops the reconciler and, when configured, terminates all
// remaining bot processes so the host is not left with orphans.
func (s *Supervisor) Shutdown(ctx context.Context) {
	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()

	if !s.killOnShutdown {
		return
	}
	s.mu.Lock()
	entries := s.table.Entries()
	for _, rp := range entries {
		s.table.Remove(rp.BotID)
	}
	s.mu.Unlock()

	for _, rp := range entries {
		s.terminate(rp)
	}
}
