package logging

import (
	"fmt"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
	log "github.com/sirupsen/logrus"
)

// journalHook forwards log entries to the systemd journal with mapped
// priorities, so journalctl -p filtering lines up with the daemon's levels.
type journalHook struct{}

var priorities = map[log.Level]journal.Priority{
	log.PanicLevel: journal.PriCrit,
	log.FatalLevel: journal.PriCrit,
	log.ErrorLevel: journal.PriErr,
	log.WarnLevel:  journal.PriWarning,
	log.InfoLevel:  journal.PriInfo,
	log.DebugLevel: journal.PriDebug,
	log.TraceLevel: journal.PriDebug,
}

func (*journalHook) Levels() []log.Level {
	return log.AllLevels
}

func (*journalHook) Fire(entry *log.Entry) error {
	var vars map[string]string
	if len(entry.Data) > 0 {
		vars = make(map[string]string, len(entry.Data))
		for k, v := range entry.Data {
			vars[journalVarName(k)] = fmt.Sprint(v)
		}
	}
	return journal.Send(entry.Message, priorities[entry.Level], vars)
}

// journalVarName maps a field key onto the journal's variable charset, which
// only allows uppercase letters, digits and underscores.
func journalVarName(key string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, key)
	if mapped == "" || (mapped[0] >= '0' && mapped[0] <= '9') {
		mapped = "X" + mapped
	}
	return mapped
}
