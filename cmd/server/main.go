package main

import (
	"chat-gate/auth"
	"chat-gate/infrastructure/grpc/chatpb"
	"chat-gate/infrastructure/grpc/server"
	"chat-gate/infrastructure/storage"
	"chat-gate/internal"
	"chat-gate/policy"
	"chat-gate/reducer"
	"chat-gate/runtime"
	"chat-gate/runtime/workers"
	"chat-gate/services"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	chatErrors "chat-gate/errors"

	grpc3 "github.com/mama165/sdk-go/grpc"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// shutdownTimeout bounds the graceful stop. Subscriptions never end on their own,
// so they are cancelled once it expires.
const shutdownTimeout = 5 * time.Second

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle and centralizes error reporting.
// Returning instead of exiting lets every deferred cleanup (database close) run.
func run() (int, error) {
	// 1. Configuration & Logger
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx := context.Background()

	// 2. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Store, replication and bootstrap
	store := storage.NewStore(db, logger, config.TransactionRetries)
	registry := runtime.NewRegistry()
	replicator := workers.NewReplicator(logger, registry, store, policy.Default, config.CommitBufferSize)
	store.AddSinks(replicator)

	chatService := services.NewChatService(logger, store, reducer.DenyAll{}, policy.Default)
	ran, err := chatService.Init(ctx, config.AdminIdentity)
	switch {
	case errors.Is(err, chatErrors.ErrMalformedIdentity):
		return exitConfig, fmt.Errorf("ADMIN_IDENTITY: %w", err)
	case err != nil:
		return exitRuntime, err
	case ran:
		logger.Info("Database initialized", "admin", config.AdminIdentity)
	}

	if logger.Enabled(ctx, slog.LevelDebug) && config.DebugPort > 0 {
		debugServer := internal.StartDebugServer(logger, config.DebugPort, storeRows(store), func() map[string]any {
			online, known, _ := chatService.Presence()
			return map[string]any{"Online": online, "Known": known, "Sessions": registry.CountObservers()}
		})
		defer func() { _ = debugServer.Close() }()
		logger.Info("Debug inspector available", "url", fmt.Sprintf("http://localhost:%d/inspect", config.DebugPort))
	}

	// 4. Context & Signals
	// NotifyContext captures OS signals and cancels the context to trigger a shutdown.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Supervised workers
	supervisor := workers.NewSupervisor(logger, config.RestartInterval)
	supervisor.Add(
		replicator,
		workers.NewHeartbeatWorker(logger, chatService, registry, supervisor, config.HeartbeatInterval),
		workers.NewChannelCapacityWorker(logger, []workers.NamedChannel{
			{Name: "commits", Channel: replicator.Pending()},
		}, config.LowCapacityThreshold, config.HeartbeatInterval),
	)
	supervisorDone := startWorkers(supervisor)

	// 6. gRPC Server Setup
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	tokens := auth.NewTokenManager([]byte(config.AuthSecret), config.AuthTokenDuration)
	interceptor := auth.NewInterceptor(tokens, chatpb.AuthService_CreateIdentity_FullMethodName)
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpc3.UnaryLoggingInterceptor(logger),
			interceptor.Unary,
		),
		grpc.ChainStreamInterceptor(interceptor.Stream),
		// Stop waits for the Subscribe handlers and their disconnect transactions
		grpc.WaitForHandlers(true),
	)
	chatServer := server.NewChatServer(logger, chatService, registry, config.ConnectionBufferSize, config.DeliveryTimeout)
	chatpb.RegisterChatServiceServer(s, chatServer)
	chatpb.RegisterAuthServiceServer(s, server.NewAuthServer(logger, tokens))

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting gRPC server", "address", address, "at", time.Now().UTC())
		for serviceName := range s.GetServiceInfo() {
			logger.Debug("gRPC exposed services", "name", serviceName)
		}
		if err := s.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		s.Stop()
		supervisor.Stop()
		<-supervisorDone
		return exitRuntime, err
	}

	// 8. Graceful Shutdown
	// Open subscriptions end with the stop and commit their disconnects while the
	// replicator still drains; the workers are stopped only once the server is down.
	logger.Info("Shutting down gracefully...")
	stopped := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(shutdownTimeout):
		s.Stop()
	}
	supervisor.Stop()
	<-supervisorDone
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

// startWorkers runs the supervised workers on their own context: the signal context
// must not stop replication before the gRPC handlers are gone. Only supervisor.Stop ends them.
func startWorkers(supervisor *workers.Supervisor) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		supervisor.Run(context.Background())
	}()
	return done
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}

	return options
}

// storeRows feeds the debug inspector from a read transaction.
func storeRows(store *storage.Store) internal.RowsProvider {
	return func(table string) ([]internal.InspectRow, error) {
		var rows []internal.InspectRow
		err := store.View(func(tx *storage.Tx) error {
			switch table {
			case internal.TableUsers:
				users, err := tx.Users().All()
				rows = internal.UserRows(users)
				return err
			case internal.TableMessages:
				messages, err := tx.Messages().All()
				rows = internal.MessageRows(messages)
				return err
			default:
				return fmt.Errorf("unknown table %q", table)
			}
		})
		return rows, err
	}
}
