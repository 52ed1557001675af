package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/chatnote/internal/hermes"
	"github.com/MikeSquared-Agency/chatnote/internal/importer"
	"github.com/MikeSquared-Agency/chatnote/internal/store"
)

var (
	// ErrEmptyContent is returned for a blank paste or an empty file.
	ErrEmptyContent = errors.New("content is empty")
	// ErrStorageDisabled is returned for a non-dry-run import without a store.
	ErrStorageDisabled = errors.New("storage is not configured")
)

// Saver persists normalized conversations.
type Saver interface {
	SaveConversation(ctx context.Context, c importer.Conversation, tags []string) (*store.Conversation, error)
}

// Publisher announces stored conversations.
type Publisher interface {
	PublishImported(ctx context.Context, evt hermes.ImportedEvent) error
}

// Request is one import: a pasted text or an uploaded file.
type Request struct {
	Content  string
	Filename string
	Title    string // overrides the first record's title when set
	Tags     []string
	DryRun   bool
}

// Imported is a normalized conversation as returned to the caller. ID and
// CreatedAt are empty on dry runs.
type Imported struct {
	ID        string          `json:"id,omitempty"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	Source    importer.Source `json:"source"`
	Tags      []string        `json:"tags"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
}

type Result struct {
	Count         int        `json:"count"`
	DryRun        bool       `json:"dry_run"`
	Conversations []Imported `json:"conversations"`
}

// Processor runs the import pipeline: normalize, apply overrides, save and
// announce.
type Processor struct {
	normalizer *importer.Normalizer
	saver      Saver
	publisher  Publisher
	logger     *slog.Logger
}

// New creates a processor. saver and publisher may be nil: without a saver
// only dry runs succeed, without a publisher nothing is announced.
func New(n *importer.Normalizer, saver Saver, publisher Publisher, logger *slog.Logger) *Processor {
	return &Processor{
		normalizer: n,
		saver:      saver,
		publisher:  publisher,
		logger:     logger,
	}
}

// StorageEnabled reports whether non-dry-run imports can succeed.
func (p *Processor) StorageEnabled() bool {
	return p.saver != nil
}

// Import normalizes req.Content and, unless req.DryRun, stores every record.
func (p *Processor) Import(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, ErrEmptyContent
	}
	if !req.DryRun && p.saver == nil {
		return nil, ErrStorageDisabled
	}

	convs := p.normalizer.Detect(req.Content, req.Filename)
	if title := strings.TrimSpace(req.Title); title != "" {
		convs[0].Title = title
	}
	tags := NormalizeTags(req.Tags)

	p.logger.Info("conversations normalized",
		"filename", req.Filename,
		"count", len(convs),
		"dry_run", req.DryRun,
	)

	res := &Result{
		DryRun:        req.DryRun,
		Conversations: make([]Imported, 0, len(convs)),
	}

	for i, c := range convs {
		if req.DryRun {
			res.Conversations = append(res.Conversations, Imported{
				Title:   c.Title,
				Content: c.Content,
				Source:  c.Source,
				Tags:    tags,
			})
			continue
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		saved, err := p.saver.SaveConversation(ctx, c, tags)
		if err != nil {
			return nil, fmt.Errorf("save conversation %d of %d: %w", i+1, len(convs), err)
		}

		createdAt := saved.CreatedAt
		res.Conversations = append(res.Conversations, Imported{
			ID:        saved.ID.String(),
			Title:     saved.Title,
			Content:   saved.Content,
			Source:    saved.Source,
			Tags:      saved.Tags,
			CreatedAt: &createdAt,
		})

		p.announce(ctx, saved, req.Filename)
	}

	res.Count = len(res.Conversations)
	return res, nil
}

// announce publishes an imported event. Failures are logged, not returned:
// the conversation is already stored.
func (p *Processor) announce(ctx context.Context, saved *store.Conversation, filename string) {
	if p.publisher == nil {
		return
	}
	evt := hermes.ImportedEvent{
		ConversationID: saved.ID.String(),
		Title:          saved.Title,
		Source:         string(saved.Source),
		Tags:           saved.Tags,
		ContentLen:     len(saved.Content),
		Filename:       filename,
		ImportedAt:     saved.CreatedAt.UTC(),
	}
	if err := p.publisher.PublishImported(ctx, evt); err != nil {
		p.logger.Warn("failed to publish imported event",
			"conversation_id", evt.ConversationID,
			"error", err,
		)
	}
}

// NormalizeTags trims tags, drops empty ones and removes duplicates while
// keeping the first occurrence's position.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// SplitTags parses a comma separated tag list, e.g. from a form field or flag.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return NormalizeTags(strings.Split(s, ","))
}

// HandleImportRequested processes a chatnote.import.requested event.
func (p *Processor) HandleImportRequested(subject string, data []byte) {
	var evt hermes.ImportRequestedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		p.logger.Error("failed to parse import request", "subject", subject, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := p.Import(ctx, Request{
		Content:  evt.Content,
		Filename: evt.Filename,
		Title:    evt.Title,
		Tags:     evt.Tags,
	})
	if err != nil {
		p.logger.Error("import request failed", "filename", evt.Filename, "error", err)
		return
	}
	p.logger.Info("import request processed", "filename", evt.Filename, "count", res.Count)
}
