package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"secretscan/config"
	"secretscan/internal/creds"
	"secretscan/internal/detect"
	"secretscan/internal/jobs"
	"secretscan/internal/logger"
	"secretscan/internal/queue"
	"secretscan/models"
)

func main() {
	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}
	defer logger.Log.Sync()

	start := time.Now()
	defer logger.Trace("main", start)

	cfg := config.Load()

	registry := detect.NewRegistry()
	logger.Log.Infof("pattern registry loaded: %d rules", registry.Len())

	manager := jobs.NewManager(registry, creds.FromEnv(), jobs.Options{
		LocalMaxCommits:   cfg.LocalMaxCommits,
		RemoteMaxBranches: cfg.RemoteMaxBranches,
		RemoteMaxCommits:  cfg.RemoteMaxCommits,
		RemoteMaxFiles:    cfg.RemoteMaxFiles,
		CallTimeout:       cfg.CallTimeout,
		RemoteStepDelay:   cfg.RemoteStepDelay,
	})

	// One-shot mode: scan the repository given on the command line, print
	// the result as JSON and exit.
	if len(os.Args) > 1 {
		if err := runOnce(manager, os.Args[1], models.ScanMode(cfg.ScanMode)); err != nil {
			logger.Log.Fatalf("scan failed: %v", err)
		}
		return
	}

	if !cfg.EnableSQS {
		logger.Log.Fatal("no repository argument and SQS intake disabled; nothing to do")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer, err := queue.NewConsumer(ctx, cfg.SQSQueueURL, cfg.AWSRegion)
	if err != nil {
		logger.Log.Fatalf("sqs consumer: %v", err)
	}

	logger.Log.Infof("consuming scan requests from %s", cfg.SQSQueueURL)
	err = consumer.RunLoop(ctx, func(ctx context.Context, req queue.Request) error {
		mode := models.ScanMode(req.Mode)
		if mode == "" {
			mode = models.ScanMode(cfg.ScanMode)
		}
		job, err := manager.Submit(req.RepoURL, mode)
		if err != nil {
			return err
		}
		logger.Log.Infof("accepted job %s for %s", job.ID, req.RepoURL)
		return nil
	})
	if err != nil {
		logger.Log.Fatalf("run loop: %v", err)
	}
}

// runOnce submits a single job and polls it to a terminal state.
func runOnce(manager *jobs.Manager, repoURL string, mode models.ScanMode) error {
	job, err := manager.Submit(repoURL, mode)
	if err != nil {
		return err
	}

	for {
		time.Sleep(500 * time.Millisecond)
		snapshot, ok := manager.Status(job.ID)
		if !ok {
			return fmt.Errorf("job %s disappeared", job.ID)
		}
		switch snapshot.Status {
		case models.StatusCompleted:
			out, err := json.MarshalIndent(snapshot.Result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		case models.StatusFailed:
			return fmt.Errorf("%s", snapshot.Message)
		default:
			logger.Log.Debugf("[%3d%%] %s", snapshot.Progress, snapshot.Message)
		}
	}
}
