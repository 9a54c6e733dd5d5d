package config

import (
	"time"

	"github.com/caarlos0/env"
	log "github.com/sirupsen/logrus"
)

// Config holds the daemon's runtime settings. Rule files are a separate layer
// (see rules.go); everything here comes from the environment so the service
// unit stays the single place that tunes a deployment.
type Config struct {
	RulesPath    string        `env:"RULES_PATH" envDefault:"/etc/reniced/config.yaml"`
	HomeRoot     string        `env:"HOME_ROOT" envDefault:"/home"`
	ProcRoot     string        `env:"PROC_ROOT" envDefault:"/proc"`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"3s"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`

	StatusAddr string `env:"STATUS_ADDR" envDefault:""`

	DiscordName         string `env:"DISCORD_NAME" envDefault:"reniced"`
	DiscordWebhookInfo  string `env:"DISCORD_WEBHOOK_INFO" envDefault:""`
	DiscordWebhookError string `env:"DISCORD_WEBHOOK_ERROR" envDefault:""`
}

var TheConfig = &Config{}

var gitHash, gitVersion string

func Configure() {
	err := env.Parse(TheConfig)
	if err != nil {
		log.Fatalf("error parsing config: %v", err)
	}
	log.Infof("Running: %s, %s", gitVersion, gitHash)
}
