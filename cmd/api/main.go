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

	"github.com/joho/godotenv"

	"github.com/tanuki-create/voicechat/internal/config"
	"github.com/tanuki-create/voicechat/internal/handler"
	conversationhandler "github.com/tanuki-create/voicechat/internal/handler/conversation"
	"github.com/tanuki-create/voicechat/internal/service/asr"
	"github.com/tanuki-create/voicechat/internal/service/llm"
	"github.com/tanuki-create/voicechat/internal/service/logbook"
	"github.com/tanuki-create/voicechat/internal/service/pipeline"
	"github.com/tanuki-create/voicechat/internal/service/session"
	"github.com/tanuki-create/voicechat/internal/service/tts"
	"github.com/tanuki-create/voicechat/internal/store"
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

	turnLog, err := logbook.New(cfg.Storage.LogDir)
	if err != nil {
		log.Fatalf("failed to initialize conversation logbook: %v", err)
	}

	// The durable mirror is best-effort: without it the relay still runs,
	// backed by the flat logbook alone.
	var mirror pipeline.Mirror
	var auditMirror conversationhandler.Mirror
	st, err := store.Open(cfg.Storage.DBPath)
	if err != nil {
		log.Printf("warning: failed to open conversation store: %v", err)
		log.Println("continuing without durable conversation mirror")
	} else {
		defer st.Close()
		mirror = st
		auditMirror = st
	}

	recognizer, err := asr.NewGoogleRecognizer(ctx, cfg.ASR)
	if err != nil {
		log.Fatalf("failed to initialize speech recognizer: %v", err)
	}
	defer recognizer.Close()

	synthesizer, err := tts.NewGoogleSynthesizer(ctx, cfg.TTS, cfg.Storage.AudioDir)
	if err != nil {
		log.Fatalf("failed to initialize speech synthesizer: %v", err)
	}
	defer synthesizer.Close()

	var generator llm.Generator
	if cfg.LLM.Enabled() {
		svc, err := llm.NewService(ctx, cfg.LLM)
		if err != nil {
			log.Printf("warning: failed to initialize LLM service: %v", err)
			generator = llm.Unavailable{}
		} else {
			log.Println("LLM service initialized successfully")
			generator = svc
		}
	} else {
		log.Println("OPENAI_API_KEY not configured; replies degrade to the fixed fallback")
		generator = llm.Unavailable{}
	}

	sessions := session.NewManager()
	orchestrator := pipeline.New(recognizer, generator, synthesizer, sessions, turnLog, mirror)

	router := handler.NewRouter(orchestrator, auditMirror, cfg.Storage.AudioDir)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Voice Chat API listening on %s", serverCfg.Addr)
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
