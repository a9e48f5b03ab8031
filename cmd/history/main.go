package main

import (
	"chat-channel/domain"
	"chat-channel/repositories"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

type Config struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" default:"./data/badger"`
	BlugeFilepath  string `envconfig:"BLUGE_FILEPATH" default:"./data/bluge"`
	PageSize       int    `envconfig:"HISTORY_PAGE_SIZE" default:"20"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"WARN"`
}

func main() {
	code, err := run(os.Args[1:], os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "History terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run lists the sent messages of a conversation newest first, or searches
// them when -q is given. The chat must not be running: bluge locks its index.
func run(args []string, out io.Writer) (int, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	flags := flag.NewFlagSet("history", flag.ContinueOnError)
	partner := flags.Int64("partner", 0, "Partner id, required unless searching")
	query := flags.String("q", "", "Full-text search on message text")
	cursor := flags.String("cursor", "", "Cursor printed by the previous page")
	page := flags.Int("page", 0, "Search result page")
	if err := flags.Parse(args); err != nil {
		return exitConfig, err
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	if *query != "" {
		return search(logger, config, *query, domain.UserID(*partner), *page, out)
	}
	if *partner <= 0 {
		return exitConfig, fmt.Errorf("-partner is required")
	}
	return list(logger, config, domain.UserID(*partner), *cursor, out)
}

func list(logger *slog.Logger, config Config, partner domain.UserID, cursor string, out io.Writer) (int, error) {
	// BypassLockGuard lets the history be read while the chat holds the lock
	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	repository := repositories.NewMessageRepository(db, logger, &config.PageSize)
	var from *string
	if cursor != "" {
		from = &cursor
	}
	messages, nextCursor, err := repository.GetMessages(partner, from)
	if err != nil {
		return exitRuntime, err
	}

	table := newTable(out, []string{"At", "From", "To", "Text"})
	for _, m := range messages {
		table.Append([]string{
			m.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			m.Sender.Label(),
			m.Recipient.Label(),
			m.Text,
		})
	}
	table.Render()
	if nextCursor != nil && len(messages) == config.PageSize {
		_, _ = fmt.Fprintf(out, "\nnext page: -partner %d -cursor %s\n", partner, *nextCursor)
	}
	return exitOK, nil
}

func search(logger *slog.Logger, config Config, query string, partner domain.UserID, page int, out io.Writer) (int, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer writer.Close()

	hits, total, err := repositories.NewMessageIndex(writer, logger, config.PageSize).
		Search(context.Background(), query, partner, page)
	if err != nil {
		return exitRuntime, err
	}

	table := newTable(out, []string{"At", "Partner", "From", "Text"})
	for _, hit := range hits {
		table.Append([]string{
			hit.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			hit.PartnerID.String(),
			hit.Sender,
			hit.Text,
		})
	}
	table.Render()
	_, _ = fmt.Fprintf(out, "\n%d match(es), page %d\n", total, page)
	return exitOK, nil
}

func newTable(out io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}
