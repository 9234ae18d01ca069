package client

import (
	"context"
	"fmt"
	"net/url"
)

// EquipmentClient operates on equipment test records outside their ship
// context; recording new tests goes through ShipsClient.
type EquipmentClient struct {
	client *Client
}

// ListEquipmentOptions filters and paginates List.
type ListEquipmentOptions struct {
	ShipID    string
	NameQuery string
	Page      int
	PageSize  int
}

// Get fetches one test record.
func (ec *EquipmentClient) Get(ctx context.Context, id string) (*TestRecord, error) {
	var rec TestRecord
	if err := ec.client.get(ctx, "/equipment/"+url.PathEscape(id), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// List pages through test records.
func (ec *EquipmentClient) List(ctx context.Context, opts ListEquipmentOptions) ([]TestRecord, *Pagination, error) {
	q := url.Values{}
	if opts.ShipID != "" {
		q.Set("ship_id", opts.ShipID)
	}
	if opts.NameQuery != "" {
		q.Set("q", opts.NameQuery)
	}
	if opts.Page > 0 {
		q.Set("page", fmt.Sprintf("%d", opts.Page))
	}
	if opts.PageSize > 0 {
		q.Set("page_size", fmt.Sprintf("%d", opts.PageSize))
	}

	path := "/equipment"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var records []TestRecord
	var page Pagination
	if err := ec.client.getPaged(ctx, path, &records, &page); err != nil {
		return nil, nil, err
	}
	return records, &page, nil
}

// Delete removes a test record.
func (ec *EquipmentClient) Delete(ctx context.Context, id string) error {
	return ec.client.delete(ctx, "/equipment/"+url.PathEscape(id))
}
