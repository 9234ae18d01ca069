package client

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// ShipsClient operates on the fleet registry.
type ShipsClient struct {
	client *Client
}

// RegisterShipRequest is the payload of Register.
type RegisterShipRequest struct {
	Name      string `json:"name"`
	IMONumber string `json:"imo_number"`
	Flag      string `json:"flag,omitempty"`
	ShipType  string `json:"ship_type,omitempty"`
}

// ListShipsOptions filters and paginates List.
type ListShipsOptions struct {
	Status    string
	Flag      string
	ShipType  string
	NameQuery string
	Page      int
	PageSize  int
}

// SetAnchorsRequest carries the survey anchor dates of SetAnchors.
type SetAnchorsRequest struct {
	AnniversaryDay   int    `json:"anniversary_day"`
	AnniversaryMonth int    `json:"anniversary_month"`
	CycleTo          string `json:"special_survey_cycle_to,omitempty"`
}

// Register adds a ship to the registry.
func (sc *ShipsClient) Register(ctx context.Context, req RegisterShipRequest) (*Ship, error) {
	var ship Ship
	if err := sc.client.post(ctx, "/ships", req, &ship); err != nil {
		return nil, err
	}
	return &ship, nil
}

// Get fetches one ship by ID.
func (sc *ShipsClient) Get(ctx context.Context, id string) (*Ship, error) {
	var ship Ship
	if err := sc.client.get(ctx, "/ships/"+url.PathEscape(id), &ship); err != nil {
		return nil, err
	}
	return &ship, nil
}

// List pages through the registry.
func (sc *ShipsClient) List(ctx context.Context, opts ListShipsOptions) ([]Ship, *Pagination, error) {
	q := url.Values{}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.Flag != "" {
		q.Set("flag", opts.Flag)
	}
	if opts.ShipType != "" {
		q.Set("ship_type", opts.ShipType)
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

	path := "/ships"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var ships []Ship
	var page Pagination
	if err := sc.client.getPaged(ctx, path, &ships, &page); err != nil {
		return nil, nil, err
	}
	return ships, &page, nil
}

// Delete removes a ship from the registry.
func (sc *ShipsClient) Delete(ctx context.Context, id string) error {
	return sc.client.delete(ctx, "/ships/"+url.PathEscape(id))
}

// SetStatus moves a ship through its status machine.
func (sc *ShipsClient) SetStatus(ctx context.Context, id, status string) (*Ship, error) {
	body := map[string]string{"status": status}
	var ship Ship
	if err := sc.client.put(ctx, "/ships/"+url.PathEscape(id)+"/status", body, &ship); err != nil {
		return nil, err
	}
	return &ship, nil
}

// SetAnchors records the ship's anniversary and, optionally, its special
// survey cycle end; dependent equipment schedules are recalculated by
// the server.
func (sc *ShipsClient) SetAnchors(ctx context.Context, id string, req SetAnchorsRequest) (*Ship, error) {
	var ship Ship
	if err := sc.client.put(ctx, "/ships/"+url.PathEscape(id)+"/anchors", req, &ship); err != nil {
		return nil, err
	}
	return &ship, nil
}

// ClearAnchors removes the ship's survey anchors.
func (sc *ShipsClient) ClearAnchors(ctx context.Context, id string) (*Ship, error) {
	var ship Ship
	err := sc.client.do(ctx, "DELETE", "/ships/"+url.PathEscape(id)+"/anchors", nil, &ship, nil)
	if err != nil {
		return nil, err
	}
	return &ship, nil
}

// Compliance fetches the ship's graded schedule view.
func (sc *ShipsClient) Compliance(ctx context.Context, id string) (*ShipCompliance, error) {
	var view ShipCompliance
	if err := sc.client.get(ctx, "/ships/"+url.PathEscape(id)+"/compliance", &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// RecordEquipmentTest registers a completed equipment test on the ship.
func (sc *ShipsClient) RecordEquipmentTest(ctx context.Context, id, equipmentName string, issuedDate time.Time) (*TestRecord, error) {
	body := map[string]string{
		"equipment_name": equipmentName,
		"issued_date":    issuedDate.Format(time.DateOnly),
	}
	var rec TestRecord
	if err := sc.client.post(ctx, "/ships/"+url.PathEscape(id)+"/equipment", body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// EquipmentStatus lists the ship's equipment graded as of today.
func (sc *ShipsClient) EquipmentStatus(ctx context.Context, id string) ([]EquipmentStatus, error) {
	var views []EquipmentStatus
	if err := sc.client.get(ctx, "/ships/"+url.PathEscape(id)+"/equipment", &views); err != nil {
		return nil, err
	}
	return views, nil
}
