package notionsync

import (
	"context"

	"github.com/jomei/notionapi"
)

// PageCreator is the part of the Notion page API the sink needs.
// notionapi.Client.Page satisfies it.
type PageCreator interface {
	Create(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
}
