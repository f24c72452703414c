// Package importer loads a wardrobe export into the ledger.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/the-closet-must-flow/internal/common"
	"github.com/Veraticus/the-closet-must-flow/internal/model"
	"github.com/Veraticus/the-closet-must-flow/internal/service"
	"github.com/Veraticus/the-closet-must-flow/internal/storage"
)

// Export is the on-disk wardrobe format.
type Export struct {
	Items      []model.WardrobeItem `json:"items"`
	WearEvents []model.WearEvent    `json:"wear_events"`
	Ratings    []model.OutfitRating `json:"ratings"`
}

// Stats summarizes a finished import.
type Stats struct {
	Duration   time.Duration
	Items      int
	WearEvents int
	Ratings    int
	Tombstoned int
}

// Checkpointer snapshots the ledger before it is modified.
type Checkpointer interface {
	AutoCheckpoint(ctx context.Context, operation string) (*storage.CheckpointInfo, error)
}

// Options configures an Importer.
type Options struct {
	// Checkpoints takes a snapshot before writing. Optional.
	Checkpoints Checkpointer
	// Progress receives a progress bar. Nil disables it.
	Progress io.Writer
	// UserID is assigned to records that carry none.
	UserID string
}

// Importer writes exports to a ledger.
type Importer struct {
	wardrobe    service.Wardrobe
	checkpoints Checkpointer
	progress    io.Writer
	userID      string
}

// New creates an importer writing to wardrobe.
func New(wardrobe service.Wardrobe, opts Options) *Importer {
	return &Importer{
		wardrobe:    wardrobe,
		checkpoints: opts.Checkpoints,
		progress:    opts.Progress,
		userID:      opts.UserID,
	}
}

// Decode reads an export, rejecting unknown fields.
func Decode(r io.Reader) (*Export, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var exp Export
	if err := dec.Decode(&exp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode export: %w", common.ErrInvalidInput, err)
	}
	return &exp, nil
}

// Import validates the whole export, then writes items, wear events and
// ratings in that order. Items deleted in the export are tombstoned last so
// their history can be written first. Import stops at the first failed write;
// the checkpoint taken beforehand undoes a partial import.
func (im *Importer) Import(ctx context.Context, exp *Export) (*Stats, error) {
	start := time.Now()
	if err := im.prepare(exp); err != nil {
		return nil, err
	}

	if im.checkpoints != nil {
		info, err := im.checkpoints.AutoCheckpoint(ctx, "import")
		if err != nil {
			return nil, fmt.Errorf("failed to checkpoint before import: %w", err)
		}
		slog.Info("created checkpoint before import", "checkpoint", info.ID)
	}

	bar := im.newProgressBar(len(exp.Items) + len(exp.WearEvents) + len(exp.Ratings))
	stats := &Stats{}

	for _, item := range exp.Items {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		saved := item
		saved.DeletedAt = nil
		if err := im.wardrobe.SaveItem(ctx, &saved); err != nil {
			return stats, fmt.Errorf("failed to import item %s: %w", item.ID, err)
		}
		stats.Items++
		im.advance(bar)
	}

	for i := range exp.WearEvents {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := im.wardrobe.RecordWear(ctx, &exp.WearEvents[i]); err != nil {
			return stats, fmt.Errorf("failed to import wear event %s: %w", exp.WearEvents[i].ID, err)
		}
		stats.WearEvents++
		im.advance(bar)
	}

	for i := range exp.Ratings {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := im.wardrobe.SaveOutfitRating(ctx, &exp.Ratings[i]); err != nil {
			return stats, fmt.Errorf("failed to import rating %s: %w", exp.Ratings[i].ID, err)
		}
		stats.Ratings++
		im.advance(bar)
	}

	for _, item := range exp.Items {
		if item.DeletedAt == nil {
			continue
		}
		if err := im.wardrobe.TombstoneItem(ctx, item.ID, *item.DeletedAt); err != nil {
			return stats, fmt.Errorf("failed to tombstone item %s: %w", item.ID, err)
		}
		stats.Tombstoned++
	}

	if bar != nil {
		_ = bar.Finish()
	}
	stats.Duration = time.Since(start)
	slog.Info("import complete",
		"items", stats.Items,
		"wear_events", stats.WearEvents,
		"ratings", stats.Ratings,
		"tombstoned", stats.Tombstoned,
		"duration", stats.Duration)
	return stats, nil
}

// prepare fills in missing IDs and user IDs and validates every record
// before anything is written.
func (im *Importer) prepare(exp *Export) error {
	if exp == nil {
		return fmt.Errorf("%w: export is nil", common.ErrInvalidInput)
	}
	user := func(id string) string {
		if strings.TrimSpace(id) == "" {
			return im.userID
		}
		return id
	}

	for i := range exp.Items {
		item := &exp.Items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.UserID = user(item.UserID)
		if err := item.Validate(); err != nil {
			return fmt.Errorf("%w: items[%d]: %w", common.ErrInvalidInput, i, err)
		}
	}
	for i := range exp.WearEvents {
		w := &exp.WearEvents[i]
		if w.ID == "" {
			w.ID = uuid.NewString()
		}
		w.UserID = user(w.UserID)
		if err := w.Validate(); err != nil {
			return fmt.Errorf("%w: wear_events[%d]: %w", common.ErrInvalidInput, i, err)
		}
	}
	for i := range exp.Ratings {
		r := &exp.Ratings[i]
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		r.UserID = user(r.UserID)
		if err := r.Validate(); err != nil {
			return fmt.Errorf("%w: ratings[%d]: %w", common.ErrInvalidInput, i, err)
		}
	}
	return nil
}

func (im *Importer) newProgressBar(total int) *progressbar.ProgressBar {
	if im.progress == nil || total == 0 {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(im.progress),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Importing wardrobe...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func (im *Importer) advance(bar *progressbar.ProgressBar) {
	if bar == nil {
		return
	}
	if err := bar.Add(1); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}
