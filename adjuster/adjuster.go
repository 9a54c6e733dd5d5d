// Package adjuster reconciles a process's nice value with its matched rule.
package adjuster

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"reniced/config"
	"reniced/metrics"
)

// Provider is the narrow surface the adjuster needs from the OS: read a
// process's nice value and set it. Keeping it this small puts the real
// syscall in one place and lets tests drive the adjuster with a fake.
type Provider interface {
	Nice(pid int) (int, error)
	Renice(pid, nice int) error
}

type Adjuster struct {
	provider Provider
	log      logrus.FieldLogger
}

func New(provider Provider, log logrus.FieldLogger) *Adjuster {
	return &Adjuster{provider: provider, log: log}
}

// Apply reads pid's current nice value and moves it to the rule's target when
// they differ. Failures end here: the caller's loop carries on, and nothing
// retries. A process that slipped through stays at its old priority until an
// administrator intervenes, which is the documented trade-off for never
// touching a process twice.
func (a *Adjuster) Apply(pid int, rule *config.Rule) {
	if err := a.apply(pid, rule); err != nil {
		metrics.AdjustmentFailures.Inc()
		a.log.Warnf("error adjusting pid %d for rule %q: %v", pid, rule.Name, err)
	}
}

func (a *Adjuster) apply(pid int, rule *config.Rule) error {
	current, err := a.provider.Nice(pid)
	if err != nil {
		return err
	}
	if current == rule.Nice {
		a.log.Debugf("process %q (pid %d) already at nice %d", rule.Name, pid, current)
		metrics.AdjustmentsNoop.Inc()
		return nil
	}
	a.log.Infof("process %q (pid %d) at nice %d, expected %d, adjusting", rule.Name, pid, current, rule.Nice)
	if err := a.provider.Renice(pid, rule.Nice); err != nil {
		return fmt.Errorf("error setting nice value to %d: %w", rule.Nice, err)
	}
	a.log.Infof("adjusted pid %d (%s) from nice %d to %d", pid, rule.Name, current, rule.Nice)
	metrics.Adjustments.Inc()
	return nil
}
