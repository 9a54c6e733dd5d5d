package notify

import (
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainMessages() map[int][]string {
	mutex.Lock()
	defer mutex.Unlock()
	current := messages
	messages = make(map[int][]string)
	return current
}

func TestFire_InfoGoesToInfoWebhookOnly(t *testing.T) {
	drainMessages()
	hook := &Hook{}

	require.NoError(t, hook.Fire(&log.Entry{Level: log.InfoLevel, Message: "adjusted pid 42"}))

	queued := drainMessages()
	assert.Equal(t, []string{"adjusted pid 42"}, queued[InfoWebhook])
	assert.Empty(t, queued[ErrorWebhook])
}

func TestFire_WarningsGoToBothWebhooks(t *testing.T) {
	drainMessages()
	hook := &Hook{}

	require.NoError(t, hook.Fire(&log.Entry{Level: log.WarnLevel, Message: "failed to get owner"}))
	require.NoError(t, hook.Fire(&log.Entry{Level: log.ErrorLevel, Message: "error listing processes"}))

	queued := drainMessages()
	assert.Equal(t, []string{"failed to get owner", "error listing processes"}, queued[InfoWebhook])
	assert.Equal(t, []string{"failed to get owner", "error listing processes"}, queued[ErrorWebhook])
}

func TestHookLevels_ExcludeDebug(t *testing.T) {
	assert.NotContains(t, (&Hook{}).Levels(), log.DebugLevel)
	assert.Contains(t, (&Hook{}).Levels(), log.InfoLevel)
}

func TestChunkMessages_JoinsUnderLimit(t *testing.T) {
	chunks := chunkMessages([]string{"one", "two", "three"})

	assert.Equal(t, []string{"one\ntwo\nthree"}, chunks)
}

func TestChunkMessages_SplitsAtLimit(t *testing.T) {
	long := strings.Repeat("x", contentLimit)
	chunks := chunkMessages([]string{long, "tail", "end"})

	require.Len(t, chunks, 2)
	assert.Equal(t, long, chunks[0])
	assert.Equal(t, "tail\nend", chunks[1])
}

func TestChunkMessages_Empty(t *testing.T) {
	assert.Empty(t, chunkMessages(nil))
}
