package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"

	"github.com/jagcoaching/backend/internal/auth"
	"github.com/jagcoaching/backend/internal/config"
	"github.com/jagcoaching/backend/internal/handler"
	"github.com/jagcoaching/backend/internal/service/ai"
	"github.com/jagcoaching/backend/internal/service/analysis"
	"github.com/jagcoaching/backend/internal/service/live"
	"github.com/jagcoaching/backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize persistence
	var st store.Store
	if cfg.Mongo.Enabled() {
		mongoStore, err := store.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			log.Fatalf("failed to initialize mongodb store: %v", err)
		}
		st = mongoStore
	} else {
		log.Println("MONGODB_URI 未配置，使用内存存储（数据不会持久化）")
		st = store.NewMemoryStore()
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			log.Printf("warning: store close failed: %v", err)
		}
	}()

	// Initialize chat model for analysis and coaching
	var chatModel model.ToolCallingChatModel
	if cfg.AI.Enabled() {
		chatModel, err = cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize chat model: %v", err)
			log.Println("continuing with heuristic analysis only - 请检查 Gemini 相关环境变量")
			chatModel = nil
		} else {
			log.Printf("Gemini chat model initialized (model=%s)", cfg.AI.Model)
		}
	} else {
		log.Println("Gemini 凭证未配置，仅使用启发式分析")
	}

	coachSvc, err := ai.NewService(ctx, chatModel)
	if err != nil {
		log.Fatalf("failed to initialize coach service: %v", err)
	}
	analysisSvc := analysis.NewService(chatModel, coachSvc)

	// Initialize the live session engine
	liveSvc := live.NewService(analysisSvc, st, live.Config{
		AnalysisInterval:  cfg.Live.AnalysisInterval,
		AnalysisTimeout:   cfg.Live.AnalysisTimeout,
		HeartbeatInterval: cfg.Live.HeartbeatInterval,
		HeartbeatGrace:    cfg.Live.HeartbeatGrace,
		AnalysisWorkers:   cfg.Live.AnalysisWorkers,
	})
	defer liveSvc.Close()
	go liveSvc.Run(ctx)

	// Initialize auth
	var authMgr *auth.Manager
	if cfg.Auth.Enabled() {
		authMgr = auth.NewManager(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	} else {
		log.Println("SECRET_KEY 未配置，账号功能关闭，会话以匿名方式运行")
	}

	router := handler.NewRouter(liveSvc, st, authMgr)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("JagCoaching backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
