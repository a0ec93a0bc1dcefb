package main

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"classsync/internal/auth"
	"classsync/internal/config"
	"classsync/internal/extract"
	"classsync/internal/gcal"
	"classsync/internal/httpmiddleware"
	"classsync/internal/schedule"
	"classsync/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return err
	}

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Printf("warning: db not reachable: %v", err)
	}
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var limiter httpmiddleware.Limiter
	if cfg.RateLimitBackend == "redis" {
		limiter = httpmiddleware.NewRedisWindow(redisClient.Client, cfg.RateLimitPerMin, time.Minute)
	} else {
		limiter = httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	}

	repo := store.NewRepository(db.Client)
	extractor := extract.New(cfg.ExtractServiceURL, cfg.ExtractAPIKey, cfg.ExtractSkip)
	gcalCfg := gcal.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	}
	syncer := schedule.NewSyncer(schedule.EventOptions{
		Location: location,
		TermEnd:  cfg.TermEnd,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.RateLimit(limiter))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db != nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.POST("/v1/auth/register", func(c *gin.Context) {
		var req struct {
			Email string  `json:"email" binding:"required,email"`
			Name  *string `json:"name"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		userID, err := repo.UpsertUser(c.Request.Context(), req.Email, req.Name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		tokens, err := auth.Issue(userID, req.Email, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}

		_ = repo.SaveRefreshToken(c.Request.Context(), userID, tokens.RefreshToken, tokens.RefreshExp)

		c.JSON(http.StatusCreated, gin.H{
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_at":    tokens.AccessExp.Unix(),
		})
	})

	authGroup := r.Group("/v1", auth.UserAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	// Google Calendar connection: the client fetches the consent URL, the
	// user approves, and the resulting code comes back here for exchange.
	authGroup.GET("/auth/google/url", func(c *gin.Context) {
		claims := mustClaims(c)
		c.JSON(http.StatusOK, gin.H{"url": gcalCfg.AuthCodeURL(claims.Subject)})
	})

	authGroup.POST("/auth/google/callback", func(c *gin.Context) {
		var req struct {
			Code string `json:"code" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "code required"})
			return
		}
		claims := mustClaims(c)

		tok, err := gcalCfg.Exchange(c.Request.Context(), req.Code)
		if err != nil {
			log.Printf("google code exchange failed: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "google authorization failed"})
			return
		}
		if err := repo.SaveGoogleToken(c.Request.Context(), claims.Subject, tok); err != nil {
			log.Printf("google token save failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store authorization"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"connected": true})
	})

	// Extract endpoint — forwards a timetable screenshot to the AI vision
	// service and validates every record it claims to have found.
	authGroup.POST("/extract", func(c *gin.Context) {
		imageB64, mimeType, err := readImage(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		rawClasses, err := extractor.Extract(c.Request.Context(), imageB64, mimeType)
		if err != nil {
			log.Printf("extraction failed: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "timetable extraction failed"})
			return
		}

		type invalidEntry struct {
			Index  int      `json:"index"`
			Errors []string `json:"errors"`
		}
		classes := make([]schedule.Session, 0, len(rawClasses))
		invalid := []invalidEntry{}
		for i, raw := range rawClasses {
			res := schedule.Validate(raw)
			if !res.Valid {
				invalid = append(invalid, invalidEntry{Index: i, Errors: res.Errors})
				continue
			}
			classes = append(classes, schedule.SessionFromRaw(raw))
		}

		c.JSON(http.StatusOK, gin.H{"classes": classes, "invalid": invalid})
	})

	// Sync endpoint — validates the whole batch, then pushes each class as a
	// weekly recurring event to the user's Google Calendar.
	authGroup.POST("/sync", func(c *gin.Context) {
		var req struct {
			Classes []any `json:"classes"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
		claims := mustClaims(c)

		tok, err := repo.GoogleToken(c.Request.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, store.ErrNoGoogleToken) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "google calendar not connected"})
				return
			}
			log.Printf("google token lookup failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
			return
		}

		inserter, err := gcal.NewClient(c.Request.Context(), gcalCfg, tok)
		if err != nil {
			log.Printf("calendar client build failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
			return
		}

		result, err := syncer.SyncBatch(c.Request.Context(), req.Classes, inserter)
		if err != nil {
			var verr *schedule.ValidationError
			switch {
			case errors.Is(err, schedule.ErrEmptyBatch), errors.Is(err, schedule.ErrBatchTooLarge):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			case errors.As(err, &verr):
				c.JSON(http.StatusBadRequest, gin.H{
					"error":   "invalid class data",
					"details": strings.Join(verr.Problems, "\n"),
				})
			default:
				log.Printf("sync failed: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
			}
			return
		}

		resp := gin.H{"success": true, "message": result.Message, "events": result.Added}
		if len(result.FailedCodes) > 0 {
			resp["failedEvents"] = result.FailedCodes
		}
		c.JSON(http.StatusOK, resp)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // extraction calls can run long
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

func mustClaims(c *gin.Context) auth.Claims {
	claimsAny, _ := c.Get("claims")
	claims, _ := claimsAny.(auth.Claims)
	return claims
}

// readImage accepts either a multipart "file" field or a JSON body carrying a
// base64 data URL, and returns the base64 payload plus mime type.
func readImage(c *gin.Context) (string, string, error) {
	if strings.Contains(c.ContentType(), "multipart/form-data") {
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			return "", "", errors.New("file field required")
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return "", "", errors.New("read file failed")
		}
		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "image/png"
		}
		return base64.StdEncoding.EncodeToString(data), mimeType, nil
	}

	var body struct {
		Data string `json:"data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		return "", "", errors.New(`provide {"data": "<base64 data URL>"}`)
	}
	mimeType := "image/png"
	payload := body.Data
	if strings.HasPrefix(payload, "data:") {
		rest := payload[len("data:"):]
		semi := strings.Index(rest, ";base64,")
		if semi < 0 {
			return "", "", errors.New("malformed data URL")
		}
		mimeType = rest[:semi]
		payload = rest[semi+len(";base64,"):]
	}
	return payload, mimeType, nil
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
