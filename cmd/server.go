package cmd

import (
	"context"
	"log"
	httpNet "net/http"
	"os"
	"os/signal"
	"syscall"

	"mining-scheduler/internal/delivery/http"
	"mining-scheduler/internal/repository"
	"mining-scheduler/internal/service"

	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the mining scheduler API",
	Run:   Start,
}

func Start(cmd *cobra.Command, args []string) {

	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDep, err := NewAppDependency(ctx)
	if err != nil {
		log.Fatalf("Failed to create app dependency: %v", err)
	}

	repo, err := repository.NewRepository(appDep.cfg, appDep.db.DB, appDep.cache, appDep.log)
	if err != nil {
		log.Fatalf("Failed to create repository: %v", err)
	}

	services := service.NewService(
		appDep.cfg,
		appDep.log,
		repo,
		appDep.httpClient,
	)
	httpHandler := http.NewHttpAPIHandler(ctx, appDep.echo, appDep.validator, services)

	apiServer := NewHTTPServer(ctx, appDep, httpHandler)
	go func() {
		if err := apiServer.Start(); err != nil && err != httpNet.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Println("Shutting down gracefully...")

	if err := apiServer.Stop(); err != nil {
		log.Fatalf("Failed to stop HTTP server: %v", err)
	}

	if err := appDep.Close(); err != nil {
		log.Fatalf("Failed to close app dependency: %v", err)
	}
}
