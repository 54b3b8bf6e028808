package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	domain "profile-service/internal/domain/profile"
	pkgerrors "profile-service/pkg/errors"
	"profile-service/pkg/logger"
)

// User-facing failure messages.
const (
	MsgSaveFailed   = "Failed to save profile"
	MsgDeleteFailed = "Failed to delete user."
)

// Config configures the remote collection client.
type Config struct {
	BaseURL    string        // collection URL, e.g. http://host/v1/profiles
	Timeout    time.Duration // zero means no client timeout
	MatchEmail bool          // also filter the upsert lookup by email
}

// Client performs upsert-by-query and delete-by-id against a REST collection.
type Client struct {
	baseURL    string
	httpClient *http.Client
	matchEmail bool
	log        *zap.Logger
}

// NewClient creates a new remote collection client.
func NewClient(cfg Config, log *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		matchEmail: cfg.MatchEmail,
		log:        log,
	}
}

// Upsert looks up records by username (and email), replaces the first match with
// its fields merged with p, or creates a new record when nothing matches.
func (c *Client) Upsert(ctx context.Context, username string, p domain.Profile) (*domain.Profile, error) {
	log := logger.WithContext(ctx, c.log)

	matches, err := c.find(ctx, username, p.Email)
	if err != nil {
		log.Error("remote lookup failed", zap.String("username", username), zap.Error(err))
		return nil, pkgerrors.NewNetworkError("upsert", MsgSaveFailed, err)
	}

	var record map[string]any
	if len(matches) > 0 {
		existing := matches[0]
		id, ok := idString(existing["id"])
		if !ok {
			return nil, pkgerrors.NewNetworkError("upsert", MsgSaveFailed, errors.New("matching record has no id"))
		}
		log.Debug("updating remote profile", zap.String("id", id), zap.Int("matches", len(matches)))
		record, err = c.send(ctx, http.MethodPut, c.baseURL+"/"+url.PathEscape(id), mergeFields(existing, p))
	} else {
		log.Debug("creating remote profile", zap.String("username", username))
		record, err = c.send(ctx, http.MethodPost, c.baseURL, newRecordBody(username, p))
	}
	if err != nil {
		log.Error("remote save failed", zap.String("username", username), zap.Error(err))
		return nil, pkgerrors.NewNetworkError("upsert", MsgSaveFailed, err)
	}

	saved, err := profileFromRecord(record)
	if err != nil {
		return nil, pkgerrors.NewNetworkError("upsert", MsgSaveFailed, err)
	}
	return saved, nil
}

// Remove deletes the record with the given id.
func (c *Client) Remove(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/"+url.PathEscape(id), nil)
	if err != nil {
		return pkgerrors.NewNetworkError("remove", MsgDeleteFailed, fmt.Errorf("create request: %w", err))
	}
	setRequestID(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.NewNetworkError("remove", MsgDeleteFailed, fmt.Errorf("remote request failed: %w", err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.WithContext(ctx, c.log).Warn("remote delete returned error status", zap.String("id", id), zap.Int("status", resp.StatusCode))
		return pkgerrors.NewNetworkError("remove", MsgDeleteFailed, fmt.Errorf("remote returned status %d", resp.StatusCode))
	}
	return nil
}

// find queries the collection. A 404 is read as "no matches", which is how some
// hosted mock collections answer an empty filter result.
func (c *Client) find(ctx context.Context, username, email string) ([]map[string]any, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	q := u.Query()
	q.Set("username", username)
	if c.matchEmail {
		q.Set("email", email)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	setRequestID(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("query failed with status %d", resp.StatusCode)
	}

	var records []map[string]any
	if err := decode(resp.Body, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) send(ctx context.Context, method, target string, body map[string]any) (map[string]any, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	setRequestID(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s failed with status %d", method, resp.StatusCode)
	}

	var record map[string]any
	if err := decode(resp.Body, &record); err != nil {
		return nil, err
	}
	return record, nil
}

func decode(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode JSON: %w", err)
	}
	return nil
}

func setRequestID(ctx context.Context, req *http.Request) {
	if id := logger.GetRequestID(ctx); id != "" {
		req.Header.Set(logger.RequestIDHeader, id)
	}
}

// mergeFields overlays the submitted fields on an existing record. Unknown fields
// of the existing record are kept; an absent age removes the stored one.
func mergeFields(existing map[string]any, p domain.Profile) map[string]any {
	merged := make(map[string]any, len(existing)+3)
	for k, v := range existing {
		merged[k] = v
	}
	merged["name"] = p.Name
	merged["email"] = p.Email
	if p.Age != nil {
		merged["age"] = *p.Age
	} else {
		delete(merged, "age")
	}
	return merged
}

func newRecordBody(username string, p domain.Profile) map[string]any {
	body := map[string]any{
		"username": username,
		"name":     p.Name,
		"email":    p.Email,
	}
	if p.Age != nil {
		body["age"] = *p.Age
	}
	return body
}

// profileFromRecord maps a decoded remote record to a Profile. Ids may be strings
// or numbers depending on the remote implementation.
func profileFromRecord(m map[string]any) (*domain.Profile, error) {
	if m == nil {
		return nil, errors.New("empty record")
	}
	p := &domain.Profile{}
	p.ID, _ = idString(m["id"])
	p.Username, _ = m["username"].(string)
	p.Name, _ = m["name"].(string)
	p.Email, _ = m["email"].(string)

	switch v := m["age"].(type) {
	case nil:
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid age %q: %w", v, err)
		}
		age := int(f)
		p.Age = &age
	case string:
		if v == "" {
			break
		}
		age, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid age %q: %w", v, err)
		}
		p.Age = &age
	default:
		return nil, fmt.Errorf("invalid age type %T", v)
	}
	return p, nil
}

func idString(v any) (string, bool) {
	switch id := v.(type) {
	case string:
		return id, id != ""
	case json.Number:
		return id.String(), true
	default:
		return "", false
	}
}
