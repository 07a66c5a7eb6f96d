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

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/unidoc/unioffice/common/license"
	"go.uber.org/zap"

	"github.com/sanjeevkumarraob/study-material-service/internal/api"
	"github.com/sanjeevkumarraob/study-material-service/internal/auth"
	"github.com/sanjeevkumarraob/study-material-service/internal/cache"
	"github.com/sanjeevkumarraob/study-material-service/internal/config"
	"github.com/sanjeevkumarraob/study-material-service/internal/document"
	"github.com/sanjeevkumarraob/study-material-service/internal/document/ocr"
	"github.com/sanjeevkumarraob/study-material-service/internal/session"
	"github.com/sanjeevkumarraob/study-material-service/internal/store"
)

func main() {
	// Config
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Logging
	var logger *zap.Logger
	if cfg.Log.Development {
		logger, err = zap.NewDevelopment()
	} else {
		gin.SetMode(gin.ReleaseMode)
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	// DOCX engine
	useUniOffice := false
	if cfg.UniDocLicenseKey != "" {
		if err := license.SetMeteredKey(cfg.UniDocLicenseKey); err != nil {
			logger.Warn("unidoc license rejected, using the package reader for docx", zap.Error(err))
		} else {
			useUniOffice = true
		}
	}

	// Document processor
	procCfg := document.Config{
		OCRTimeout:      cfg.OCR.Timeout,
		OCRConcurrency:  cfg.OCR.MaxConcurrent,
		ScannedPDFOCR:   cfg.OCR.ScannedPDFs,
		UseUniOffice:    useUniOffice,
		MaxDocumentSize: cfg.MaxUploadBytes,
	}
	if cfg.OCR.Enabled {
		procCfg.OCR = ocr.NewProcessor()
		procCfg.Rasterizer = ocr.NewRasterizer(cfg.OCR.DPI, cfg.OCR.MaxPages)
	}

	var procOpts []document.Option
	if cfg.CachePath != "" {
		outcomes, err := cache.Open(cfg.CachePath, logger)
		if err != nil {
			logger.Fatal("failed to open extraction cache", zap.String("path", cfg.CachePath), zap.Error(err))
		}
		defer outcomes.Close()
		if n, err := outcomes.Len(); err == nil {
			logger.Info("extraction cache opened", zap.String("path", cfg.CachePath), zap.Int("entries", n))
		}
		procOpts = append(procOpts, document.WithCache(outcomes))
	}
	docProcessor := document.NewProcessor(logger, procCfg, procOpts...)

	// Study document store
	docs, err := store.Open(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("failed to open document store", zap.String("path", cfg.DatabasePath), zap.Error(err))
	}
	defer docs.Close()

	// Sessions
	uploads := session.NewStore(cfg.SessionTTL, logger)
	defer uploads.Close()

	key := []byte(cfg.SessionSecret)
	if len(key) == 0 {
		key = []byte("dev-session-secret") // Fallback for development
		logger.Warn("using insecure default session key, set SESSION_SECRET for production")
	}
	cookies := session.NewCookies(sessions.NewCookieStore(key), int(cfg.SessionTTL.Seconds()), logger)

	// Auth
	var jwtManager *auth.JWTManager
	if cfg.JWTSecret != "" {
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, 24*time.Hour)
	} else {
		logger.Warn("JWT_SECRET not set, /api is served without authentication")
	}

	// HTTP
	handler := api.NewHandler(docProcessor, uploads, cookies, docs, logger, cfg.MaxUploadBytes)
	router := api.NewRouter(handler, jwtManager, cfg.AllowedOrigins, logger)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2*time.Minute + cfg.OCR.Timeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
