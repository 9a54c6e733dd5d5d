// Package notify mirrors daemon log entries to discord webhooks. Messages are
// batched and flushed on a schedule so a burst of adjustments becomes a
// handful of webhook calls instead of a flood.
package notify

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/gtuk/discordwebhook"
	log "github.com/sirupsen/logrus"

	"reniced/cleanup"
	"reniced/config"
)

const (
	InfoWebhook int = iota
	ErrorWebhook
)

// contentLimit stays under discord's 2000 character message cap with room to
// spare for formatting.
const contentLimit = 1800

type MessagePayload struct {
	Content     *string
	WebhookType int
	Username    *string
}

var messages = make(map[int][]string)
var mutex sync.RWMutex

// Enabled reports whether any webhook is configured. When nothing is, Init is
// never called and logging stays local.
func Enabled() bool {
	return config.TheConfig.DiscordWebhookInfo != "" || config.TheConfig.DiscordWebhookError != ""
}

// Init installs the log hook, starts the flush scheduler and registers the
// final flush on shutdown.
func Init() {
	log.AddHook(&Hook{})
	scheduler := gocron.NewScheduler(time.Now().Location())
	_, err := scheduler.SingletonMode().Every(5).Seconds().Do(messageTick)
	if err != nil {
		log.Fatalf("error scheduling notification flush: %v", err)
	}
	scheduler.StartAsync()
	cleanup.AddOnStopFunc(cleanup.Notify, func(_ os.Signal) {
		scheduler.Stop()
		messageTick()
	})
}

// Hook queues log entries for delivery: info and above go to the info
// webhook, warnings and worse additionally to the error webhook.
type Hook struct{}

func (*Hook) Levels() []log.Level {
	return []log.Level{
		log.PanicLevel,
		log.FatalLevel,
		log.ErrorLevel,
		log.WarnLevel,
		log.InfoLevel,
	}
}

func (*Hook) Fire(entry *log.Entry) error {
	if entry.Level <= log.WarnLevel {
		enqueue(entry.Message, ErrorWebhook, InfoWebhook)
	} else {
		enqueue(entry.Message, InfoWebhook)
	}
	return nil
}

func enqueue(message string, webhookTypes ...int) {
	mutex.Lock()
	defer mutex.Unlock()
	for _, webhookType := range webhookTypes {
		messages[webhookType] = append(messages[webhookType], message)
	}
}

func messageTick() {
	mutex.Lock()
	currentMessages := make(map[int][]string)
	for k, v := range messages {
		currentMessages[k] = v
	}
	clear(messages)
	mutex.Unlock()
	for webhookType, batch := range currentMessages {
		for _, chunk := range chunkMessages(batch) {
			Send(MessagePayload{
				Content:     &chunk,
				WebhookType: webhookType,
				Username:    &config.TheConfig.DiscordName,
			})
		}
	}
}

// chunkMessages joins queued messages into newline separated chunks that stay
// under the webhook content limit.
func chunkMessages(batch []string) []string {
	chunks := make([]string, 0)
	for _, message := range batch {
		if len(chunks) == 0 || len(chunks[len(chunks)-1])+len(message) > contentLimit {
			chunks = append(chunks, message)
			continue
		}
		chunks[len(chunks)-1] = chunks[len(chunks)-1] + "\n" + message
	}
	return chunks
}

func Send(payload MessagePayload) {
	url := config.TheConfig.DiscordWebhookInfo
	if payload.WebhookType == ErrorWebhook {
		url = config.TheConfig.DiscordWebhookError
	}
	if url == "" {
		return
	}
	message := discordwebhook.Message{
		Username: payload.Username,
		Content:  payload.Content,
	}
	err := discordwebhook.SendMessage(url, message)
	if err == nil {
		return
	}
	de := &errorResponse{}
	if jsonErr := json.Unmarshal([]byte(err.Error()), de); jsonErr == nil && de.RetryAfter > 0 {
		time.Sleep(time.Duration(de.RetryAfter) * time.Second)
		Send(payload)
		return
	}
	// debug keeps delivery failures from feeding back into the queue
	log.Debugf("error sending message to discord: %v", err)
}

type errorResponse struct {
	Message    string  `json:"message"`
	RetryAfter float64 `json:"retry_after"`
	Global     bool    `json:"global"`
}
