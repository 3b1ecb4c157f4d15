package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"syllabus-gap/internal/app"
	"syllabus-gap/internal/config"
	"syllabus-gap/internal/pkg/logger"
	"syllabus-gap/internal/usecase"
)

func main() {
	instruction := flag.String("instruction", "", "natural-language search instruction")
	conversation := flag.String("conversation", "", "existing conversation id to continue")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall run timeout")
	flag.Parse()

	if strings.TrimSpace(*instruction) == "" {
		log.Fatalf("provide -instruction")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.App.Environment)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer lg.Sync()

	if err := run(cfg, lg, *instruction, *conversation, *timeout); err != nil {
		lg.Error("search failed", "err", err)
		lg.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, lg *logger.Logger, instruction, conversation string, timeout time.Duration) error {
	c, err := app.NewContainer(cfg, lg)
	if err != nil {
		return err
	}
	defer func() {
		_ = c.Close()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := c.Search.Search(ctx, usecase.SearchParams{
		Instruction:    instruction,
		ConversationID: conversation,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
