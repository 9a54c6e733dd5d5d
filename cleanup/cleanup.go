package cleanup

import (
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"

	log "github.com/sirupsen/logrus"
)

// Registry keys. Stop functions run in key order, so the monitor is cancelled
// before the status server closes and the notifier flushes last.
const (
	Monitor = iota
	Status
	Notify
)

type OnStop func(sig os.Signal)

// stop tracks the shutdown state for the process
type stop struct {
	isStopping bool
	mutex      sync.Mutex
	onStopFunc map[int]OnStop
}

var quitInstance = &stop{
	onStopFunc: make(map[int]OnStop),
}

// AddOnStopFunc registers a stop function under key, replacing any previous
// one. Registering after shutdown has begun runs the function immediately, so
// a late-starting subsystem still gets torn down.
func AddOnStopFunc(key int, f OnStop) {
	quitInstance.mutex.Lock()
	defer quitInstance.mutex.Unlock()
	quitInstance.onStopFunc[key] = f
	if quitInstance.isStopping {
		f(syscall.SIGTERM)
	}
}

// Stop marks the daemon as stopping and runs every registered stop function
// once.
func Stop(sig os.Signal) {
	quitInstance.mutex.Lock()
	defer quitInstance.mutex.Unlock()
	quitInstance.isStopping = true
	log.Warnf("Received signal %d, terminating...", sig)
	keys := make([]int, 0, len(quitInstance.onStopFunc))
	for k := range quitInstance.onStopFunc {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		quitInstance.onStopFunc[k](sig)
		delete(quitInstance.onStopFunc, k)
	}
}

// InitSignalCallback installs the signal handler that triggers Stop.
func InitSignalCallback() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	go func() {
		sig := <-sigChan
		Stop(sig)
	}()
}
