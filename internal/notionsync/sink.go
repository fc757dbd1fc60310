// Package notionsync writes transfers as pages of a Notion database.
package notionsync

import (
	"context"
	"fmt"
	"time"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/transfer-tracker/internal/logger"
	"github.com/dvloznov/transfer-tracker/internal/pipeline"
)

// Sink implements pipeline.Sink by creating one page per transfer.
type Sink struct {
	pages      PageCreator
	databaseID notionapi.DatabaseID
	now        func() time.Time
}

// NewSink creates a Sink writing into the given database.
func NewSink(pages PageCreator, databaseID string) *Sink {
	return &Sink{
		pages:      pages,
		databaseID: notionapi.DatabaseID(databaseID),
		now:        time.Now,
	}
}

// NewSinkWithToken creates a Sink backed by the Notion API integration token.
func NewSinkWithToken(token, databaseID string) *Sink {
	return NewSink(notionapi.NewClient(notionapi.Token(token)).Page, databaseID)
}

// Append creates a page for the transfer.
func (s *Sink) Append(ctx context.Context, t pipeline.Transfer) error {
	page, err := s.pages.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: s.databaseID,
		},
		Properties: TransferToNotionProperties(t, s.now()),
	})
	if err != nil {
		return fmt.Errorf("Append: create page in %s: %w", s.databaseID, err)
	}
	log := logger.FromContext(ctx)
	log.Debug().
		Str("notion_page_id", string(page.ID)).
		Msg("Created Notion page")
	return nil
}
