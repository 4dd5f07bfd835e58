package main

import (
	"chat-gate/auth"
	"chat-gate/infrastructure/grpc/chatpb"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string `env:"CHAT_SERVER_ADDR,default=localhost:8080"`
	Token         string `env:"CHAT_TOKEN"`
	LogLevel      string `env:"LOG_LEVEL,default=INFO"`
	Colours       bool   `env:"CHAT_COLOURS,default=true"`
}

const usage = `usage: client <command> [args]
  identity        request a new identity and print its token
  name <name>     set the display name of CHAT_TOKEN's identity
  send <text>     post a message
  watch           connect and print every visible change (Ctrl+C to quit)`

func main() {
	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run(args []string) (int, error) {
	// 1. Load configuration, a local .env file takes part when present.
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if len(args) == 0 {
		return exitConfig, fmt.Errorf("missing command\n%s", usage)
	}
	command := args[0]
	if command != "identity" && config.Token == "" {
		return exitConfig, fmt.Errorf("CHAT_TOKEN is required for %q, run the identity command first", command)
	}

	log := logs.GetLoggerFromString(config.LogLevel)
	printer := NewPrinter(os.Stdout, config.Colours)

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = auth.WithToken(ctx, config.Token)

	// 3. Establish connection to the server.
	conn, err := grpc.NewClient(config.ServerAddress, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddress, err)
	}
	defer func() {
		log.Debug("Closing connection...")
		_ = conn.Close()
	}()

	chat := chatpb.NewChatServiceClient(conn)

	switch command {
	case "identity":
		identity, token, err := chatpb.NewAuthServiceClient(conn).CreateIdentity(ctx)
		if err != nil {
			return exitRuntime, describe(err)
		}
		printer.Identity(identity, token)
	case "name":
		if err = chat.SetName(ctx, strings.Join(args[1:], " ")); err != nil {
			return exitRuntime, describe(err)
		}
	case "send":
		if err = chat.SendMessage(ctx, strings.Join(args[1:], " ")); err != nil {
			return exitRuntime, describe(err)
		}
	case "watch":
		return watch(ctx, chat, printer)
	default:
		return exitConfig, fmt.Errorf("unknown command %q\n%s", command, usage)
	}
	return exitOK, nil
}

// watch holds the connection open, the server treats its lifetime as the presence of the user.
func watch(ctx context.Context, chat chatpb.ChatServiceClient, printer *Printer) (int, error) {
	stream, err := chat.Subscribe(ctx)
	if err != nil {
		return exitRuntime, describe(err)
	}
	for {
		row, err := stream.Recv()
		if err != nil {
			// Normal exit if the user triggered a shutdown.
			if ctx.Err() != nil {
				return exitOK, nil
			}
			return exitRuntime, describe(err)
		}
		printer.Row(row.AsMap())
	}
}

// describe keeps only the server reason of a gRPC status.
func describe(err error) error {
	if st, ok := status.FromError(err); ok {
		return fmt.Errorf("%s: %s", st.Code(), st.Message())
	}
	return err
}
