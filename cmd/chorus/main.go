package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chorus/internal/auth"
	"chorus/internal/callback"
	"chorus/internal/cleanup"
	"chorus/internal/config"
	"chorus/internal/db"
	"chorus/internal/engage"
	httpx "chorus/internal/http"
	"chorus/internal/http/handler"
	"chorus/internal/lifecycle"
	"chorus/internal/moderation"
	"chorus/internal/notify"
	"chorus/internal/post"
	"chorus/internal/reputation"
	"chorus/internal/tasks"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	if err := engage.SeedPersonas(ctx, gdb); err != nil {
		log.Fatal(err)
	}

	jwtSvc := auth.NewJWT(cfg.JWTSecret)

	signer := callback.NewSigner(cfg.TaskSigningSecret, cfg.TaskIssuer)
	verifier := callback.NewVerifier(cfg.TaskSigningSecret, cfg.TaskIssuer, cfg.CallbackBaseURL)
	if cfg.TaskAuthDisabled {
		log.Println("WARNING: task callback verification disabled (non-production)")
		verifier.Bypass = true
	}

	dispatcher := &tasks.Dispatcher{DB: gdb}
	notifier := &notify.Notifier{DB: gdb, Transport: notify.LogTransport{}}
	ledger := &reputation.Ledger{Store: reputation.GormStore{DB: gdb}, MaxScore: cfg.MaxScore}

	classifier := &moderation.HTTPClassifier{URL: cfg.ClassifierURL}
	engine := &moderation.Engine{
		Audits:          moderation.GormAuditStore{DB: gdb},
		Classifier:      classifier,
		Ops:             notifier,
		FlagThreshold:   cfg.FlagThreshold,
		BlockThreshold:  cfg.BlockThreshold,
		StandardPenalty: cfg.StandardPenalty,
		Denylist:        cfg.Denylist,
	}

	engStore := engage.GormStore{DB: gdb}
	orchestrator := &engage.Orchestrator{
		Store:      engStore,
		Dispatcher: dispatcher,
		Queue:      cfg.QueueEngage,
		MaxActors:  cfg.MaxActorsPerPost,
		Window:     time.Duration(cfg.EngageWindow) * time.Hour,
		Vocab:      cfg.ReactionVocab,
	}
	writer := &engage.Writer{
		Store:     engStore,
		Generator: engage.ClassifierGenerator{C: classifier},
		Engine:    engine,
	}

	processor := &cleanup.Processor{
		Store:      cleanup.GormStore{DB: gdb},
		Dispatcher: dispatcher,
		Queue:      cfg.QueueCleanup,
		BatchLimit: cfg.CleanupBatchLimit,
	}

	monitor := &lifecycle.Monitor{
		DB:               gdb,
		Dispatcher:       dispatcher,
		QueueCleanup:     cfg.QueueCleanup,
		QueueSweep:       cfg.QueueLifecycle,
		Notifier:         notifier,
		StaleAfter:       time.Duration(cfg.StaleDays) * 24 * time.Hour,
		NeverActiveAfter: time.Duration(cfg.NeverActiveDays) * 24 * time.Hour,
		GraceWindow:      time.Duration(cfg.GraceDays) * 24 * time.Hour,
		SweepEvery:       time.Duration(cfg.LifecycleSweepHours) * time.Hour,
	}

	svc := &post.Service{
		DB:     gdb,
		Engine: engine,
		Ledger: ledger,
		OnPostCreated: func(ctx context.Context, tx *gorm.DB, p *post.Post) error {
			// enqueued in the post's own transaction (outbox)
			_, err := dispatcher.WithTx(tx).Enqueue(ctx, cfg.QueueEngage,
				engage.PathFanOut, engage.FanOutPayload{PostID: p.ID})
			return err
		},
	}

	workerH := &handler.WorkerHandler{
		Orchestrator: orchestrator,
		Writer:       writer,
		Cleanup:      processor,
		Monitor:      monitor,
	}

	r := httpx.NewRouter(cfg, httpx.Deps{
		DB:       gdb,
		JWT:      jwtSvc,
		Verifier: verifier,
		Svc:      svc,
		Ledger:   ledger,
		Worker:   workerH,
	})

	// queue worker
	taskRepo := &tasks.Repo{DB: gdb}
	worker := &tasks.Worker{
		ID:      "worker-" + uuid.NewString()[:8],
		Repo:    taskRepo,
		BaseURL: cfg.CallbackBaseURL,
		Signer:  signer,
	}
	go worker.Run(ctx)

	// bootstrap the self-rescheduling sweep chain; the dedup key makes this
	// a no-op when a sweep is already pending
	if err := monitor.Schedule(ctx); err != nil {
		log.Printf("lifecycle bootstrap: %v\n", err)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on %s\n", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
