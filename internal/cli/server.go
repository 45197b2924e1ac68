package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"reveal-party-service/internal/config"
	infrafile "reveal-party-service/internal/infra/file"
	"reveal-party-service/internal/infra/memory"
	pgloader "reveal-party-service/internal/infra/postgres"
	redisrepo "reveal-party-service/internal/infra/redis"
	"reveal-party-service/internal/party"
	transport "reveal-party-service/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the party server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	adminSecret := cfg.Server.AdminSecret
	if env := os.Getenv("ADMIN_SECRET"); env != "" {
		adminSecret = env
	}
	if adminSecret == "" {
		adminSecret = "party-admin"
		log.Printf("warning: using default admin secret, set server.adminSecret")
	}

	questionFile := cfg.Questions.File
	if questionFile == "" {
		questionFile = "trivia-questions.json"
	}
	bank, err := infrafile.NewQuestionStore(questionFile)
	if err != nil {
		return err
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)

	// The flat file is always the durable record; Postgres and Redis are
	// optional layers for installs that keep the bank in a database.
	var loader memory.QuestionLoader = bank
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		loader = pgloader.NewQuestionLoader(pool)
	}

	var questionRepo party.QuestionRepository
	invalidate := func(string) {}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		repo := redisrepo.NewQuestionRepository(client, loader, questionTTL)
		questionRepo = repo
		invalidate = func(id string) { repo.Invalidate(context.Background(), id) }
	} else {
		repo := memory.NewQuestionRepository(loader, questionTTL)
		questionRepo = repo
		invalidate = repo.Invalidate
	}

	prompts := memory.NewPromptBank()
	session := party.NewSession()
	service := party.NewService(session, questionRepo, prompts)

	wsHandler := transport.NewWSHandler(service, adminSecret)
	apiHandler := transport.NewAPIHandler(service, bank, prompts, adminSecret, cfg.Server.PublicURL, invalidate)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	apiHandler.Register(mux)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: websocket connections are long-lived
	}

	go func() {
		log.Printf("starting reveal party service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
