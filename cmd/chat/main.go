package main

import (
	"bufio"
	"chat-channel/contract"
	"chat-channel/domain"
	"chat-channel/infrastructure/rest"
	"chat-channel/infrastructure/stomp"
	"chat-channel/repositories"
	"chat-channel/runtime"
	"chat-channel/runtime/workers"
	"chat-channel/services"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Chat terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires the chat session and drives it from the terminal until stdin
// is closed, /quit is typed or a signal arrives.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Local storage
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	// 3. Backend clients
	client := rest.NewClient(config.APIURL, config.APIToken, config.HTTPTimeout)
	directory := services.NewCachedDirectory(logger,
		rest.NewDirectoryClient(client),
		repositories.NewUserRepository(db, config.UserCacheTTL))

	// 4. Persistence under supervision
	persistence := workers.NewPersistenceWorker(logger, config.PersistQueueSize, config.PersistTimeout,
		rest.NewMessageStoreClient(client),
		repositories.NewMessageRepository(db, logger, nil),
		repositories.NewMessageIndex(blugeWriter, logger, 20),
	)
	supervisor := workers.NewSupervisor(logger, config.RestartInterval)
	supervisor.Add(persistence, workers.NewReporterWorker(logger, config.ReportInterval, persistence.Stats))
	supervised := make(chan struct{})
	go func() {
		supervisor.Run(ctx)
		close(supervised)
	}()
	defer func() {
		supervisor.Stop()
		<-supervised
		stats := persistence.Stats()
		logger.Info("Persistence stopped", "persisted", stats.Persisted, "failed", stats.Failed, "dropped", stats.Dropped)
	}()

	// 5. Session
	options := stomp.DefaultOptions()
	options.HandshakeTimeout = config.HandshakeTimeout
	options.HeartBeat = config.HeartBeat
	options.Token = config.APIToken
	chat := services.NewChatService(logger,
		services.ChatConfig{
			Endpoint:         config.Endpoint,
			HandshakeTimeout: config.HandshakeTimeout,
			ResolveTimeout:   config.ResolveTimeout,
		},
		stomp.NewTransport(logger, options),
		directory,
		identityProvider(config, client),
		persistence,
		runtime.NewStream(logger, config.StreamBufferSize),
	)
	defer chat.Disconnect()

	partner := domain.Partner{ID: domain.UserID(config.PartnerID), Login: config.PartnerLogin}
	if err := chat.Connect(ctx, partner).Wait(ctx); err != nil {
		return exitRuntime, err
	}

	go render(ctx, chat, os.Stdout)

	// 6. Terminal loop
	if err := prompt(ctx, chat, partner, os.Stdin, os.Stdout, logger); err != nil {
		return exitRuntime, err
	}
	return exitOK, nil
}

func identityProvider(config Config, client *rest.Client) contract.IdentityProvider {
	switch {
	case config.LocalLogin != "":
		return services.NewStaticIdentity(config.LocalLogin)
	case config.APIToken != "":
		return services.NewTokenIdentity(config.APIToken, config.tokenKey())
	default:
		return rest.NewAccountClient(client)
	}
}

// render prints the message stream, attaching again whenever a generation ends.
func render(ctx context.Context, chat services.IChatService, out io.Writer) {
	for ctx.Err() == nil {
		listener := chat.Receive()
		for msg := range listener.C() {
			_, _ = fmt.Fprintln(out, format(msg, chat))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func format(msg domain.ChatMessage, chat services.IChatService) string {
	at := msg.CreatedAt.Local().Format("15:04:05")
	author := msg.Sender.Label()
	if msg.Sender.ID == chat.Status().Partner.ID {
		return fmt.Sprintf("%s %s %s", color.Gray.Render(at), color.Cyan.Render(author+":"), msg.Text)
	}
	return fmt.Sprintf("%s %s %s", color.Gray.Render(at), color.Green.Render(author+":"), msg.Text)
}

// prompt sends each line typed. /status, /reconnect and /quit are commands.
func prompt(ctx context.Context, chat services.IChatService, partner domain.Partner, in io.Reader, out io.Writer, logger *slog.Logger) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-scanErr:
			return err
		case line := <-lines:
			line = strings.TrimSpace(line)
			switch line {
			case "":
			case "/quit":
				return nil
			case "/status":
				status := chat.Status()
				_, _ = fmt.Fprintf(out, "%s topic=%s attempt=%d generation=%d local=%t partner=%t\n",
					color.Yellow.Render(status.State.String()), status.Topic, status.Attempt,
					status.Generation, status.LocalResolved, status.PartnerResolved)
			case "/reconnect":
				if err := chat.Connect(ctx, partner).Wait(ctx); err != nil {
					_, _ = fmt.Fprintln(out, color.Red.Render(err.Error()))
				}
			default:
				if err := chat.SendMessage(ctx, line); err != nil {
					logger.Debug("Send failed", "error", err)
					_, _ = fmt.Fprintln(out, color.Red.Render(err.Error()))
				}
			}
		}
	}
}
