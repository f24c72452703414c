package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/the-closet-must-flow/internal/analytics"
	"github.com/Veraticus/the-closet-must-flow/internal/cli"
	"github.com/Veraticus/the-closet-must-flow/internal/common"
	"github.com/Veraticus/the-closet-must-flow/internal/config"
	"github.com/Veraticus/the-closet-must-flow/internal/service"
	"github.com/Veraticus/the-closet-must-flow/internal/storage"
)

// initStorage opens the ledger database and applies pending migrations.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath(viper.GetString("database.path")))
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// loadPolicy reads the analytics policy from the active configuration.
func loadPolicy() (analytics.Config, error) {
	return config.LoadPolicy(viper.GetViper())
}

// newEngine wires the analytics engine to the ledger and the metrics collector.
func newEngine(ledger service.Ledger) (*analytics.Engine, analytics.Config, error) {
	cfg, err := loadPolicy()
	if err != nil {
		return nil, cfg, err
	}
	engine, err := analytics.NewEngineWithConfig(analytics.Deps{
		Ledger:   ledger,
		Clock:    service.SystemClock{},
		Recorder: collector,
	}, cfg)
	if err != nil {
		return nil, cfg, err
	}
	return engine, cfg, nil
}

func currentUser() string {
	if user := strings.TrimSpace(viper.GetString("user.id")); user != "" {
		return user
	}
	return "me"
}

// render prints v as JSON when --output json is set, otherwise through text.
func render(cmd *cobra.Command, v any, text func(io.Writer) error) error {
	switch viper.GetString("output") {
	case "json":
		return cli.WriteJSON(cmd.OutOrStdout(), v)
	case "", "text":
		return text(cmd.OutOrStdout())
	default:
		return fmt.Errorf("%w: unknown output format %q", common.ErrInvalidInput, viper.GetString("output"))
	}
}

// parseDate accepts "", "today", "yesterday", 2006-01-02 or RFC 3339. Dates
// without a time resolve to midnight in loc; "" resolves to now.
func parseDate(value string, loc *time.Location, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	now = now.In(loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	switch strings.ToLower(value) {
	case "":
		return now, nil
	case "today":
		return midnight, nil
	case "yesterday":
		return midnight.AddDate(0, 0, -1), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", value, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: invalid date %q (use YYYY-MM-DD)", common.ErrInvalidInput, value)
}

// itemNames maps item IDs to display names, including deleted items.
func itemNames(ctx context.Context, ledger service.Ledger, userID string) (map[string]string, error) {
	items, err := ledger.ListItems(ctx, userID, service.ItemListOptions{IncludeTombstoned: true})
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(items))
	for i := range items {
		names[items[i].ID] = items[i].DisplayName()
	}
	return names, nil
}

func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func formatRelativeTime(t, now time.Time) string {
	duration := now.Sub(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		if minutes := int(duration.Minutes()); minutes != 1 {
			return fmt.Sprintf("%d minutes ago", minutes)
		}
		return "1 minute ago"
	case duration < 24*time.Hour:
		if hours := int(duration.Hours()); hours != 1 {
			return fmt.Sprintf("%d hours ago", hours)
		}
		return "1 hour ago"
	case duration < 7*24*time.Hour:
		if days := int(duration.Hours() / 24); days != 1 {
			return fmt.Sprintf("%d days ago", days)
		}
		return "yesterday"
	default:
		return t.Format("2006-01-02 15:04")
	}
}
