// Package proc reads process state from a procfs mount.
package proc

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// Table reads the process table from a procfs root. The root is configurable
// so tests can point it at a fixture tree.
type Table struct {
	root string
}

func New(root string) *Table {
	return &Table{root: root}
}

// Pids enumerates every numeric entry under the procfs root. It fails only
// when the root itself cannot be read; a snapshot is never partial.
func (t *Table) Pids() (mapset.Set[int], error) {
	entries, err := os.ReadDir(t.root)
	if err != nil {
		return nil, fmt.Errorf("error reading process table %s: %w", t.root, err)
	}
	pids := mapset.NewThreadUnsafeSet[int]()
	for _, entry := range entries {
		// non-numeric entries are the kernel's own files (self, stat, ...)
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		pids.Add(pid)
	}
	return pids, nil
}

// Cmdline returns the process command line with NUL separators replaced by
// spaces. The kernel terminates the file with a NUL, so the result carries a
// trailing space. Matching relies on that space to delimit bare binary names,
// so it is deliberately not trimmed.
func (t *Table) Cmdline(pid int) (string, error) {
	raw, err := os.ReadFile(t.path(pid, "cmdline"))
	if err != nil {
		return "", fmt.Errorf("error reading cmdline for pid %d: %w", pid, err)
	}
	return strings.ReplaceAll(string(raw), "\x00", " "), nil
}

// Owner resolves the process's owning user name from the real uid on the Uid
// line of the status file.
func (t *Table) Owner(pid int) (string, error) {
	content, err := os.ReadFile(t.path(pid, "status"))
	if err != nil {
		return "", fmt.Errorf("error reading status for pid %d: %w", pid, err)
	}
	uid, err := parseUID(string(content))
	if err != nil {
		return "", fmt.Errorf("pid %d: %w", pid, err)
	}
	return lookupUser(uid)
}

// Nice returns the process's current nice value from the stat file.
func (t *Table) Nice(pid int) (int, error) {
	raw, err := os.ReadFile(t.path(pid, "stat"))
	if err != nil {
		return 0, fmt.Errorf("error reading stat for pid %d: %w", pid, err)
	}
	nice, err := parseStatNice(string(raw))
	if err != nil {
		return 0, fmt.Errorf("pid %d: %w", pid, err)
	}
	return nice, nil
}

func (t *Table) path(pid int, file string) string {
	return filepath.Join(t.root, strconv.Itoa(pid), file)
}

func parseUID(status string) (int, error) {
	for _, line := range strings.Split(status, "\n") {
		if !strings.HasPrefix(line, "Uid:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0, fmt.Errorf("malformed Uid line %q", line)
		}
		uid, err := strconv.Atoi(fields[1])
		if err != nil {
			return 0, fmt.Errorf("malformed uid %q", fields[1])
		}
		return uid, nil
	}
	return 0, errors.New("no Uid line in status")
}

// lookupUser maps a uid to a user name. Uid 0 is answered directly: root
// processes must still classify on systems where the user database is not
// available, such as early boot or minimal containers.
func lookupUser(uid int) (string, error) {
	if uid == 0 {
		return "root", nil
	}
	u, err := user.LookupId(strconv.Itoa(uid))
	if err != nil {
		return "", fmt.Errorf("error resolving uid %d: %w", uid, err)
	}
	return u.Username, nil
}

// parseStatNice pulls the nice value out of a stat line. The comm field is
// wrapped in parentheses and may itself contain spaces and parentheses, so
// counting starts after the last ')'. Nice is field 19 of the full line and
// the field after the comm, state, is field 3.
func parseStatNice(stat string) (int, error) {
	end := strings.LastIndex(stat, ")")
	if end < 0 {
		return 0, errors.New("malformed stat line")
	}
	fields := strings.Fields(stat[end+1:])
	const niceIndex = 19 - 3
	if len(fields) <= niceIndex {
		return 0, errors.New("short stat line")
	}
	nice, err := strconv.Atoi(fields[niceIndex])
	if err != nil {
		return 0, fmt.Errorf("malformed nice value %q", fields[niceIndex])
	}
	return nice, nil
}
