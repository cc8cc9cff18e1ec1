package jellyfin

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"curator/internal/faults"
	"curator/internal/logging"
	"curator/internal/media"
)

// baseItem is the subset of a Jellyfin BaseItemDto the sync reads.
type baseItem struct {
	ID          string            `json:"Id"`
	Name        string            `json:"Name"`
	Type        string            `json:"Type"`
	ChildCount  int               `json:"ChildCount"`
	ProviderIDs map[string]string `json:"ProviderIds"`
}

type itemsPage struct {
	Items            []baseItem `json:"Items"`
	TotalRecordCount int        `json:"TotalRecordCount"`
}

// LibraryItems pages every movie and episode visible to the configured user.
func (c *Client) LibraryItems(ctx context.Context) ([]media.LibraryItemRef, error) {
	const operation = "fetch library"
	var items []media.LibraryItemRef
	start := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		query := url.Values{}
		if c.userID != "" {
			query.Set("userId", c.userID)
		}
		query.Set("Recursive", "true")
		query.Set("IncludeItemTypes", "Movie,Episode")
		query.Set("Fields", "ProviderIds")
		query.Set("EnableImages", "false")
		query.Set("StartIndex", itoa(start))
		query.Set("Limit", itoa(c.pageSize))

		data, err := c.do(ctx, request{operation: operation, method: http.MethodGet, path: "/Items", query: query})
		if err != nil {
			return nil, err
		}
		page, err := decode[itemsPage](operation, data)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = make([]media.LibraryItemRef, 0, page.TotalRecordCount)
		}
		for _, item := range page.Items {
			items = append(items, toLibraryItem(item))
		}
		start += len(page.Items)
		if len(page.Items) == 0 || start >= page.TotalRecordCount {
			break
		}
	}
	if items == nil {
		items = []media.LibraryItemRef{}
	}
	c.logger.Debug("library fetched", logging.Args(logging.Int("items", len(items)))...)
	return items, nil
}

func toLibraryItem(item baseItem) media.LibraryItemRef {
	contentType, _ := media.ParseContentType(item.Type)
	var providers map[string]string
	if len(item.ProviderIDs) > 0 {
		providers = make(map[string]string, len(item.ProviderIDs))
		for name, id := range item.ProviderIDs {
			if id = strings.TrimSpace(id); id != "" {
				providers[name] = id
			}
		}
	}
	return media.LibraryItemRef{
		ID:          item.ID,
		Type:        contentType,
		Name:        item.Name,
		ProviderIDs: providers,
	}
}

func requireOwner(ownerID, operation string) error {
	if strings.TrimSpace(ownerID) == "" {
		return faults.Wrap(faults.ErrInvalidInput, subject, operation, "owner id is required", nil)
	}
	return nil
}
