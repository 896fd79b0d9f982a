package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/peixuanhu/study-platform/internal/config"
	"github.com/peixuanhu/study-platform/internal/db"
	"github.com/peixuanhu/study-platform/internal/genai"
	"github.com/peixuanhu/study-platform/internal/material"
	"github.com/peixuanhu/study-platform/internal/pipeline"
	"github.com/peixuanhu/study-platform/internal/poller"
)

// jobReader adapts the pipeline repo to the poller's read-only contract.
type jobReader struct {
	repo *pipeline.Repo
}

func (r jobReader) GetJob(ctx context.Context, jobID string) (*pipeline.Job, error) {
	return r.repo.GetJobByID(ctx, jobID)
}

func main() {
	var (
		jobID      = flag.String("job", "", "extraction job id to poll (optional for text-only materials)")
		materialID = flag.String("material", "", "material id the session belongs to")
	)
	flag.Parse()

	if *materialID == "" {
		log.Fatal("usage: poller -material <id> [-job <id>]")
	}

	cfg := config.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	gdb := db.Connect(cfg.DBDSN)

	jobRepo := pipeline.NewRepo(gdb)
	materialRepo := material.NewRepo(gdb)
	materialSvc := material.NewService(materialRepo, nil, logger)
	gen := genai.NewGenerator(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, logger)

	p := poller.New(jobReader{repo: jobRepo}, gen, materialSvc, cfg.PollInterval, cfg.PollTimeout, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := materialRepo.GetByID(ctx, *materialID)
	if err != nil {
		log.Fatalf("load material: %v", err)
	}

	s := &poller.Session{
		JobID:      *jobID,
		MaterialID: m.ID,
		Kind:       string(m.Kind),
	}

	if *jobID != "" {
		if err := p.Run(ctx, s); err != nil {
			log.Fatalf("poll: %v", err)
		}
	} else {
		var text string
		if m.SourceText != nil {
			text = *m.SourceText
		}
		var params map[string]string
		if len(m.Params) > 0 {
			_ = json.Unmarshal(m.Params, &params)
		}
		p.RunInline(ctx, s, text, params)
	}

	logger.Infof("session finished phase=%s message=%q", s.Phase, s.Message)
	if s.Phase != poller.PhaseCompleted {
		os.Exit(1)
	}
}
