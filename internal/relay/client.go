package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hushwire/internal/domain"
)

// AckRequest and NackRequest are the receipt bodies shared between client
// and server.
type AckRequest struct {
	IDs []domain.MessageID `json:"ids"`
}

type NackRequest struct {
	ID     domain.MessageID `json:"id"`
	Reason string           `json:"reason"`
}

// Client talks JSON over HTTP to a relay. It implements the directory,
// registry, transport, inbox and receipt interfaces; live delivery is in
// stream.go.
type Client struct {
	base string
	http *http.Client
}

func NewClient(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Register(ctx context.Context, reg domain.Registration) error {
	return c.post(ctx, "/register", reg, nil)
}

func (c *Client) FetchPreKeyBundle(ctx context.Context, user domain.Username, device domain.DeviceID) (domain.PreKeyBundle, error) {
	var out domain.PreKeyBundle
	path := "/bundle/" + url.PathEscape(string(user)) + "/" + url.PathEscape(string(device))
	if err := c.getJSON(ctx, path, &out); err != nil {
		return domain.PreKeyBundle{}, err
	}
	return out, nil
}

func (c *Client) SendEnvelope(ctx context.Context, env domain.Envelope) error {
	return c.post(ctx, "/envelopes", env, nil)
}

func (c *Client) FetchEnvelopes(ctx context.Context, user domain.Username, limit int) ([]domain.Envelope, error) {
	path := "/envelopes/" + url.PathEscape(string(user))
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []domain.Envelope
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Acknowledge(ctx context.Context, user domain.Username, ids []domain.MessageID) error {
	if len(ids) == 0 {
		return nil
	}
	return c.post(ctx, "/envelopes/"+url.PathEscape(string(user))+"/ack", AckRequest{IDs: ids}, nil)
}

func (c *Client) ReportFailure(ctx context.Context, user domain.Username, id domain.MessageID, reason string) error {
	return c.post(ctx, "/envelopes/"+url.PathEscape(string(user))+"/nack", NackRequest{ID: id, Reason: reason}, nil)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay post %s: %s", path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay get %s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var (
	_ domain.Directory      = (*Client)(nil)
	_ domain.Registry       = (*Client)(nil)
	_ domain.Transport      = (*Client)(nil)
	_ domain.Inbox          = (*Client)(nil)
	_ domain.Receipts       = (*Client)(nil)
	_ domain.EnvelopeStream = (*Client)(nil)
)
