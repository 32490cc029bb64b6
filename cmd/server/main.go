package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/alispeech/streaming-gateway/internal/asynctts"
	"github.com/alispeech/streaming-gateway/internal/httpapi"
	"github.com/alispeech/streaming-gateway/pkg/auth"
	"github.com/alispeech/streaming-gateway/pkg/cache"
	"github.com/alispeech/streaming-gateway/pkg/config"
	"github.com/alispeech/streaming-gateway/pkg/engine"
	"github.com/alispeech/streaming-gateway/pkg/executor"
	"github.com/alispeech/streaming-gateway/pkg/lifecycle"
	"github.com/alispeech/streaming-gateway/pkg/logger"
	"github.com/alispeech/streaming-gateway/pkg/metrics"
	"github.com/alispeech/streaming-gateway/pkg/middleware"
	"github.com/alispeech/streaming-gateway/pkg/voiceregistry"
)

// cloneVoiceNames routes these voice names to CloneTTS rather than
// PresetTTS in the fake engine replicas, matching the seed catalog
// httpapi.SeedVoices installs into the registry at boot.
var cloneVoiceNames = []string{"clone_default"}

func main() {
	mode := flag.String("mode", "", "running environment (development, test, production)")
	flag.Parse()
	if *mode != "" {
		os.Setenv("APP_ENV", *mode)
	}

	if err := config.Load(); err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	cfg := config.GlobalConfig

	if err := logger.Init(&cfg.Log, cfg.Mode); err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	zlog := logger.L()
	zlog.Info("starting streaming gateway",
		zap.String("mode", cfg.Mode),
		zap.String("asr_gpus", cfg.ASRGpus),
		zap.String("tts_gpus", cfg.TTSGpus),
	)

	if err := cache.InitGlobalCache(cfg.Cache); err != nil {
		zlog.Warn("cache init failed, continuing without a shared cache tier", zap.Error(err))
	}
	voiceCache, err := cache.NewCache(cfg.Cache)
	if err != nil {
		zlog.Warn("voice registry cache unavailable, using in-process map only", zap.Error(err))
		voiceCache = nil
	}

	asrPool, invalidASR, err := engine.NewPool(cfg.ASRGpus, func(d engine.Device) (engine.Engine, error) {
		return engine.NewFakeEngine(d, cloneVoiceNames), nil
	})
	if err != nil {
		zlog.Fatal("asr engine pool init failed", zap.Error(err))
	}
	if len(invalidASR) > 0 {
		zlog.Warn("ignored invalid ASR_GPUS entries", zap.Strings("invalid", invalidASR))
	}

	ttsPool, invalidTTS, err := engine.NewPool(cfg.TTSGpus, func(d engine.Device) (engine.Engine, error) {
		return engine.NewFakeEngine(d, cloneVoiceNames), nil
	})
	if err != nil {
		zlog.Fatal("tts engine pool init failed", zap.Error(err))
	}
	if len(invalidTTS) > 0 {
		zlog.Warn("ignored invalid TTS_GPUS entries", zap.Strings("invalid", invalidTTS))
	}

	punc := engine.NewFakePunctuation()
	itn := engine.NewFakeITN()
	voices := voiceregistry.New(voiceCache)
	validator := auth.New(cfg.AppToken, cfg.AppKey)

	ex := executor.New(cfg.InferenceThreadPoolSize)
	executor.Logf(zlog, cfg.InferenceThreadPoolSize)

	asyncSvc, err := asynctts.NewService(cfg.DSN, ttsPool, ex, voices, cfg.TempDir,
		cfg.AsyncTTSCallbackTimeout, cfg.AsyncTTSPollInterval, cfg.AsyncTTSReapAfter, zlog)
	if err != nil {
		zlog.Fatal("async tts service init failed", zap.Error(err))
	}

	m := metrics.NewMetrics()

	h := httpapi.New(cfg, asrPool, ttsPool, punc, itn, voices, validator, ex, asyncSvc, m, zlog)
	h.SeedVoices()

	lc := lifecycle.New()
	lc.Register(func() { zlog.Info("engine pools released") })
	lc.Register(func() { ex.Shutdown(); zlog.Info("inference executor drained") })
	lc.Register(func() { asyncSvc.Shutdown(); zlog.Info("async tts worker stopped") })

	if cfg.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RecoveryMiddleware(zlog))
	r.Use(middleware.LoggerMiddleware(zlog))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	h.Register(r)

	addr := cfg.Host + ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		zlog.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Error("http server stopped unexpectedly", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	zlog.Info("shutdown signal received, draining in reverse init order")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("http server shutdown error", zap.Error(err))
	}
	lc.Close()
	zlog.Info("shutdown complete")
}
