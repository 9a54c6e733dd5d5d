package proc

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProcess(t *testing.T, root string, pid int, comm, cmdline string, uid, nice int) {
	t.Helper()
	dir := filepath.Join(root, fmt.Sprintf("%d", pid))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cmdline"), []byte(cmdline), 0o644))
	status := fmt.Sprintf("Name:\t%s\nState:\tS (sleeping)\nPid:\t%d\nPPid:\t1\nUid:\t%d\t%d\t%d\t%d\nGid:\t100\t100\t100\t100\n",
		comm, pid, uid, uid, uid, uid)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "status"), []byte(status), 0o644))
	stat := fmt.Sprintf("%d (%s) S 1 %d %d 0 -1 4194560 352 0 0 0 12 7 0 0 20 %d 1 0 8000 10240000 512 18446744073709551615",
		pid, comm, pid, pid, nice)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stat"), []byte(stat), 0o644))
}

func TestPids_NumericEntriesOnly(t *testing.T) {
	root := t.TempDir()
	writeProcess(t, root, 1, "init", "/sbin/init\x00", 0, 0)
	writeProcess(t, root, 42, "worker", "/usr/bin/worker\x00--id\x001\x00", 1000, 10)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "self"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "stat"), []byte("cpu 1 2 3\n"), 0o644))

	pids, err := New(root).Pids()
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 42}, pids.ToSlice())
}

func TestPids_UnreadableRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing")).Pids()
	assert.Error(t, err)
}

func TestCmdline_ReplacesSeparatorsKeepsTrailingSpace(t *testing.T) {
	root := t.TempDir()
	writeProcess(t, root, 7, "foo", "/usr/bin/foo\x00--flag\x00value\x00", 1000, 0)
	writeProcess(t, root, 8, "daemon", "/usr/sbin/daemon\x00", 0, 0)

	table := New(root)
	cmd, err := table.Cmdline(7)
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/foo --flag value ", cmd)

	// a command without arguments still ends in a space, which is what lets a
	// bare binary pattern like "/usr/sbin/daemon " match it
	cmd, err = table.Cmdline(8)
	require.NoError(t, err)
	assert.Equal(t, "/usr/sbin/daemon ", cmd)
}

func TestCmdline_GoneProcess(t *testing.T) {
	_, err := New(t.TempDir()).Cmdline(12345)
	assert.Error(t, err)
}

func TestOwner_RootUid(t *testing.T) {
	root := t.TempDir()
	writeProcess(t, root, 1, "init", "/sbin/init\x00", 0, 0)

	owner, err := New(root).Owner(1)
	require.NoError(t, err)
	assert.Equal(t, "root", owner)
}

func TestOwner_CurrentUser(t *testing.T) {
	uid := os.Getuid()
	root := t.TempDir()
	writeProcess(t, root, 99, "worker", "/usr/bin/worker\x00", uid, 0)

	owner, err := New(root).Owner(99)
	require.NoError(t, err)
	if uid == 0 {
		assert.Equal(t, "root", owner)
		return
	}
	current, err := user.Current()
	require.NoError(t, err)
	assert.Equal(t, current.Username, owner)
}

func TestOwner_UnknownUid(t *testing.T) {
	root := t.TempDir()
	writeProcess(t, root, 50, "ghost", "/usr/bin/ghost\x00", 99999999, 0)

	_, err := New(root).Owner(50)
	assert.Error(t, err)
}

func TestOwner_StatusWithoutUidLine(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "60")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "status"), []byte("Name:\tbroken\n"), 0o644))

	_, err := New(root).Owner(60)
	assert.Error(t, err)
}

func TestNice_ReadsStatField(t *testing.T) {
	root := t.TempDir()
	writeProcess(t, root, 10, "calm", "/usr/bin/calm\x00", 1000, 19)
	writeProcess(t, root, 11, "eager", "/usr/bin/eager\x00", 1000, -20)
	writeProcess(t, root, 12, "plain", "/usr/bin/plain\x00", 1000, 0)

	table := New(root)
	for pid, want := range map[int]int{10: 19, 11: -20, 12: 0} {
		nice, err := table.Nice(pid)
		require.NoError(t, err)
		assert.Equal(t, want, nice)
	}
}

func TestNice_CommWithSpacesAndParens(t *testing.T) {
	root := t.TempDir()
	writeProcess(t, root, 13, "tmux: server (3.4)", "tmux\x00", 1000, -11)

	nice, err := New(root).Nice(13)
	require.NoError(t, err)
	assert.Equal(t, -11, nice)
}

func TestNice_MalformedStat(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "14")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stat"), []byte("14 (short) S 1 2"), 0o644))

	_, err := New(root).Nice(14)
	assert.Error(t, err)
}

func TestParseStatNice_NoCommDelimiter(t *testing.T) {
	_, err := parseStatNice("not a stat line at all")
	assert.Error(t, err)
}
