package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/cliffauth/internal/audit"
	"github.com/mrlokans/cliffauth/internal/auth"
	"github.com/mrlokans/cliffauth/internal/config"
	"github.com/mrlokans/cliffauth/internal/database"
	auditrepo "github.com/mrlokans/cliffauth/internal/database/audit"
	"github.com/mrlokans/cliffauth/internal/database/users"
	http_controllers "github.com/mrlokans/cliffauth/internal/http"
	"github.com/mrlokans/cliffauth/internal/mailer"
	"github.com/mrlokans/cliffauth/internal/scheduler"
	"github.com/mrlokans/cliffauth/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for SIGINT or SIGTERM, then drain in-flight requests
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	// Background work is stopped after the last request has finished
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting cliffauth v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Revoked token identifiers share the main database file
	var denylist auth.Denylist
	if cfg.Auth.DenylistEnabled {
		sqlDB, err := db.SQL()
		if err != nil {
			log.Fatalf("Failed to get SQL DB for denylist: %v", err)
		}
		store, err := auth.NewSQLiteDenylist(sqlDB, 0)
		if err != nil {
			log.Fatalf("Failed to initialize token denylist: %v", err)
		}
		denylist = store
	} else {
		log.Printf("WARNING: token denylist disabled, logout will not revoke individual tokens")
	}

	secret, err := signingSecret(cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to prepare token signing secret: %v", err)
	}

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: secret,
		TTL:    cfg.Auth.TokenTTL,
		Issuer: cfg.Auth.TokenIssuer,
	}, denylist)
	if err != nil {
		log.Fatalf("Failed to initialize token service: %v", err)
	}

	store := auth.NewCredentialStore(users.NewRepository(db.DB), auth.NewBcryptHasher(cfg.Auth.BcryptCost), cfg.Auth)
	sender := mailer.NewSender(cfg.SMTP)
	if !cfg.SMTP.Configured() {
		log.Printf("WARNING: SMTP is not configured, outgoing mail is logged instead of sent. Set 'SMTP_HOST' and 'SMTP_FROM' to enable delivery.")
	}

	auditEvents := auditrepo.NewRepository(db.DB)
	auditService := audit.NewService(auditEvents)

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var notifier auth.Notifier
	var maintenance *scheduler.MaintenanceScheduler
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.FromConfig(cfg.Tasks))
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewPasswordChangedQueue(store, sender),
			tasks.NewPurgeResetTokensQueue(store),
			tasks.NewCleanupAuditEventsQueue(auditEvents),
		)
		notifier = tasks.NewNotifier(taskClient)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		if cfg.Maintenance.Enabled {
			maintenance = scheduler.NewMaintenanceScheduler(taskClient, cfg.Maintenance.Schedule, cfg.Audit.RetentionDays)
			if err := maintenance.Start(taskCtx); err != nil {
				log.Printf("WARNING: Failed to start maintenance scheduler: %v", err)
				maintenance = nil
			}
		}
	} else {
		log.Printf("Task queue disabled, password change notices and maintenance will not run")
	}

	authService := auth.NewService(store, tokens, auth.ServiceOptions{
		Mailer:       sender,
		Audit:        auditService,
		Notifier:     notifier,
		ResetURLBase: cfg.Auth.ResetURLBase,
	})

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		AuthService: authService,
		Database:    db,
		Audit:       auditService,
		HSTS:        cfg.HTTP.HSTS,
		Version:     version,
	})

	onShutdown := func(ctx context.Context) {
		if maintenance != nil {
			maintenance.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		auditService.Wait()
	}

	Serve(router, cfg, onShutdown)
}

// signingSecret decodes the configured secret, accepting either hex or raw
// bytes. Without one, a random secret is generated and every token is
// invalidated on restart.
func signingSecret(cfg config.Auth) ([]byte, error) {
	if cfg.JWTSecret != "" {
		if secret, err := hex.DecodeString(cfg.JWTSecret); err == nil && len(secret) > 0 {
			return secret, nil
		}
		return []byte(cfg.JWTSecret), nil
	}

	secret, err := auth.GenerateSigningSecret()
	if err != nil {
		return nil, err
	}
	log.Printf("WARNING: Generated token signing secret (set AUTH_JWT_SECRET to keep sessions across restarts)")
	return secret, nil
}
