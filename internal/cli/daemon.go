package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/yourusername/garminsync/internal/garmin"
	"github.com/yourusername/garminsync/internal/sync"
	"github.com/yourusername/garminsync/internal/web"
)

// DaemonCmd runs the sync on a schedule and serves the status API.
func DaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run scheduled syncs and serve the status API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			client := garmin.NewClient(cfg.Garmin.APIURL)
			service := sync.NewService(client, st, cfg)
			opts := sync.Options{PruneDeleted: cfg.Sync.PruneDeleted}

			scheduler := cron.New()
			if _, err := scheduler.AddFunc(cfg.Daemon.Schedule, func() {
				log.Println("starting scheduled sync...")
				if _, err := service.Run(context.Background(), opts); err != nil {
					log.Printf("sync failed: %v", err)
				}
			}); err != nil {
				return err
			}
			scheduler.Start()

			gin.SetMode(gin.ReleaseMode)
			router := gin.New()
			router.Use(gin.Recovery())
			web.NewHandler(st).RegisterRoutes(router)

			server := &http.Server{
				Addr:    cfg.Daemon.ListenAddr,
				Handler: router,
			}
			go func() {
				log.Printf("status server listening on %s", cfg.Daemon.ListenAddr)
				if err := server.ListenAndServe(); err != http.ErrServerClosed {
					log.Printf("server error: %v", err)
				}
			}()

			shutdown := make(chan os.Signal, 1)
			signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
			<-shutdown

			log.Println("shutting down...")
			scheduler.Stop()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				log.Printf("server shutdown error: %v", err)
			}
			log.Println("shutdown complete")
			return nil
		},
	}
}
