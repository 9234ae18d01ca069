package client

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// CertificatesClient operates on statutory certificates.
type CertificatesClient struct {
	client *Client
}

// CreateCertificateRequest is the payload of Create. Dates use the
// YYYY-MM-DD form.
type CreateCertificateRequest struct {
	ShipID           string `json:"ship_id"`
	Name             string `json:"name"`
	Category         string `json:"category,omitempty"`
	IssueDate        string `json:"issue_date"`
	ValidDate        string `json:"valid_date,omitempty"`
	SurveyAnnotation string `json:"survey_annotation,omitempty"`
}

// ListCertificatesOptions filters and paginates List.
type ListCertificatesOptions struct {
	ShipID    string
	Category  string
	NameQuery string
	Page      int
	PageSize  int
}

// SetNextSurveyRequest pins or clears a certificate's survey target. An
// empty Target clears the schedule.
type SetNextSurveyRequest struct {
	Target     string `json:"target,omitempty"`
	SurveyType string `json:"survey_type,omitempty"`
	Annotation string `json:"annotation,omitempty"`
}

// Create registers a certificate; the server derives its schedule.
func (cc *CertificatesClient) Create(ctx context.Context, req CreateCertificateRequest) (*Certificate, error) {
	var cert Certificate
	if err := cc.client.post(ctx, "/certificates", req, &cert); err != nil {
		return nil, err
	}
	return &cert, nil
}

// Get fetches one certificate graded as of today.
func (cc *CertificatesClient) Get(ctx context.Context, id string) (*CertificateStatus, error) {
	var view CertificateStatus
	if err := cc.client.get(ctx, "/certificates/"+url.PathEscape(id), &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// List pages through certificates.
func (cc *CertificatesClient) List(ctx context.Context, opts ListCertificatesOptions) ([]Certificate, *Pagination, error) {
	q := url.Values{}
	if opts.ShipID != "" {
		q.Set("ship_id", opts.ShipID)
	}
	if opts.Category != "" {
		q.Set("category", opts.Category)
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

	path := "/certificates"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var certs []Certificate
	var page Pagination
	if err := cc.client.getPaged(ctx, path, &certs, &page); err != nil {
		return nil, nil, err
	}
	return certs, &page, nil
}

// Delete removes a certificate.
func (cc *CertificatesClient) Delete(ctx context.Context, id string) error {
	return cc.client.delete(ctx, "/certificates/"+url.PathEscape(id))
}

// Endorse records an endorsement; DOC certificates advance to the next
// audit point.
func (cc *CertificatesClient) Endorse(ctx context.Context, id string, date time.Time) (*Certificate, error) {
	body := map[string]string{"date": date.Format(time.DateOnly)}
	var cert Certificate
	if err := cc.client.post(ctx, "/certificates/"+url.PathEscape(id)+"/endorse", body, &cert); err != nil {
		return nil, err
	}
	return &cert, nil
}

// Renew replaces the certificate's issue and valid dates and restarts
// its schedule.
func (cc *CertificatesClient) Renew(ctx context.Context, id string, issueDate, validDate time.Time) (*Certificate, error) {
	body := map[string]string{
		"issue_date": issueDate.Format(time.DateOnly),
		"valid_date": validDate.Format(time.DateOnly),
	}
	var cert Certificate
	if err := cc.client.post(ctx, "/certificates/"+url.PathEscape(id)+"/renew", body, &cert); err != nil {
		return nil, err
	}
	return &cert, nil
}

// SetNextSurvey pins or clears the certificate's next survey target.
func (cc *CertificatesClient) SetNextSurvey(ctx context.Context, id string, req SetNextSurveyRequest) (*Certificate, error) {
	var cert Certificate
	if err := cc.client.put(ctx, "/certificates/"+url.PathEscape(id)+"/survey", req, &cert); err != nil {
		return nil, err
	}
	return &cert, nil
}

// Window fetches the certificate's survey window, when schedulable.
func (cc *CertificatesClient) Window(ctx context.Context, id string) (*CertificateWindow, error) {
	var view CertificateWindow
	if err := cc.client.get(ctx, "/certificates/"+url.PathEscape(id)+"/window", &view); err != nil {
		return nil, err
	}
	return &view, nil
}
