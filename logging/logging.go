package logging

import (
	"io"
	"os"

	"github.com/coreos/go-systemd/v22/journal"
	"github.com/mattn/go-isatty"
	log "github.com/sirupsen/logrus"
)

// Setup applies the log level and picks the output. In the foreground (stdout
// is a terminal) formatted lines go to stdout. Under systemd the journald
// hook carries the entries instead and the stdout copy is dropped, so the
// journal does not record every line twice.
func Setup(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("invalid log level %q, defaulting to info", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	foreground := isatty.IsTerminal(os.Stdout.Fd())
	if journal.Enabled() {
		log.AddHook(&journalHook{})
		if !foreground {
			log.SetOutput(io.Discard)
			return
		}
	}
	log.SetOutput(os.Stdout)
}
