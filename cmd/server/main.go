package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/fleetops/fueltrack/internal/audit"
	"github.com/fleetops/fueltrack/internal/auth"
	"github.com/fleetops/fueltrack/internal/config"
	"github.com/fleetops/fueltrack/internal/db"
	"github.com/fleetops/fueltrack/internal/models"
	"github.com/fleetops/fueltrack/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}
	cfg := config.Load()

	gdb, err := db.ConnectAndMigrate(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	mgr := auth.NewManager(cfg.JWTSecret)
	mgr.SetUserVerifier(func(ctx context.Context, uid uint) bool {
		var n int64
		gdb.WithContext(ctx).Model(&models.User{}).Where("employee_id = ?", uid).Count(&n)
		return n > 0
	})

	recorder := audit.NewRecorder(gdb, cfg.AuditQueueSize)
	defer recorder.Close()

	var scheduler *cron.Cron
	if cfg.AuditCleanupCron != "" {
		scheduler = cron.New()
		query := audit.NewQueryService(gdb)
		if _, err := scheduler.AddFunc(cfg.AuditCleanupCron, func() {
			groups, deleted, err := query.CleanupDuplicates()
			if err != nil {
				log.Printf("scheduled audit cleanup failed: %v", err)
				return
			}
			if deleted > 0 {
				log.Printf("scheduled audit cleanup: %d duplicate groups, %d entries removed", groups, deleted)
			}
		}); err != nil {
			log.Fatalf("invalid AUDIT_CLEANUP_CRON %q: %v", cfg.AuditCleanupCron, err)
		}
		scheduler.Start()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.New(gdb, mgr, recorder),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("listening on :%s (%s)", cfg.Port, cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	closeSQL(gdb)
	log.Println("bye")
}

func closeSQL(gdb *gorm.DB) {
	sqlDB, err := gdb.DB()
	if err == nil {
		_ = sqlDB.Close()
	}
}
