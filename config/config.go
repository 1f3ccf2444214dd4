package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	SQSQueueURL string // queue the external collaborator submits scan requests to
	AWSRegion   string
	EnableSQS   bool // consume scan requests from SQS

	ScanMode string // "local" or "remote"; default local

	LocalMaxCommits   int
	RemoteMaxBranches int
	RemoteMaxCommits  int
	RemoteMaxFiles    int

	CallTimeout     time.Duration
	RemoteStepDelay time.Duration
}

func Load() Config {
	return Config{
		SQSQueueURL: os.Getenv("SQS_QUEUE_URL"),
		AWSRegion:   os.Getenv("AWS_REGION"),
		EnableSQS:   parseBool("ENABLE_SQS", false),

		ScanMode: envOr("SCAN_MODE", "local"),

		LocalMaxCommits:   parseInt("LOCAL_MAX_COMMITS", 500),
		RemoteMaxBranches: parseInt("REMOTE_MAX_BRANCHES", 10),
		RemoteMaxCommits:  parseInt("REMOTE_MAX_COMMITS", 30),
		RemoteMaxFiles:    parseInt("REMOTE_MAX_FILES", 200),

		CallTimeout:     parseDuration("CALL_TIMEOUT", 60*time.Second),
		RemoteStepDelay: parseDuration("REMOTE_STEP_DELAY", 200*time.Millisecond),
	}
}

func envOr(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseBool(key string, defaultVal bool) bool {
	val, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return val
}

func parseInt(key string, defaultVal int) int {
	val, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return val
}

func parseDuration(key string, defaultVal time.Duration) time.Duration {
	val, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return val
}
