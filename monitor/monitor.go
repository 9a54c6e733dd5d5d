// Package monitor runs the polling loop that watches for new processes.
package monitor

import (
	"context"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"

	"reniced/adjuster"
	"reniced/matcher"
	"reniced/metrics"
)

// Source enumerates the process table and reads per-process metadata. The
// live implementation is proc.Table; tests use a fake.
type Source interface {
	Pids() (mapset.Set[int], error)
	Cmdline(pid int) (string, error)
	Owner(pid int) (string, error)
}

// Monitor polls the process table and runs match-then-adjust on every process
// it has not seen before. Only the previous snapshot is kept between cycles;
// a pid that was ever seen is not reconsidered, so a process is adjusted at
// most once in its lifetime. The loop owns all of its state, nothing here is
// safe for concurrent use.
type Monitor struct {
	source   Source
	matcher  *matcher.Matcher
	adjuster *adjuster.Adjuster
	interval time.Duration
	log      logrus.FieldLogger

	previous mapset.Set[int]
}

func New(source Source, m *matcher.Matcher, a *adjuster.Adjuster, interval time.Duration, log logrus.FieldLogger) *Monitor {
	return &Monitor{
		source:   source,
		matcher:  m,
		adjuster: a,
		interval: interval,
		log:      log,
		previous: mapset.NewThreadUnsafeSet[int](),
	}
}

// Run cycles scan, diff, dispatch, sleep until ctx is cancelled. Cancellation
// is observed between cycles, never inside one, so a dispatch in progress
// always completes. The very first cycle treats every running process as new,
// which applies the rules once to everything already on the system.
func (m *Monitor) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		m.cycle()
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(m.interval):
		}
	}
}

// cycle runs one scan-diff-dispatch pass. A failed enumeration skips the pass
// but not the sleep after it; a broken process table must not turn the loop
// into a busy retry. The previous snapshot is left alone on failure, so
// processes that start during an outage are still picked up by the next good
// scan.
func (m *Monitor) cycle() {
	metrics.Cycles.Inc()
	current, err := m.source.Pids()
	if err != nil {
		metrics.EnumerationFailures.Inc()
		m.log.Errorf("error listing processes: %v", err)
		return
	}
	added := current.Difference(m.previous)
	added.Each(func(pid int) bool {
		m.dispatch(pid)
		return false
	})
	m.previous = current
}

// dispatch classifies one new pid. Metadata reads race with process exit, so
// a read failure just skips the pid: if it is gone there is nothing to
// adjust, and it will not be treated as new again.
func (m *Monitor) dispatch(pid int) {
	metrics.NewProcesses.Inc()
	command, err := m.source.Cmdline(pid)
	if err != nil {
		metrics.SkippedProcesses.Inc()
		m.log.Warnf("failed to get command for pid %d: %v", pid, err)
		return
	}
	owner, err := m.source.Owner(pid)
	if err != nil {
		metrics.SkippedProcesses.Inc()
		m.log.Warnf("failed to get owner for pid %d: %v", pid, err)
		return
	}
	rule := m.matcher.Match(command, owner)
	if rule == nil {
		m.log.Debugf("pid %d (owner %s) matches no rule", pid, owner)
		return
	}
	m.log.Debugf("pid %d with command %q and owner %q matches rule %q", pid, command, owner, rule.Name)
	metrics.RuleMatches.Inc()
	m.adjuster.Apply(pid, rule)
}
