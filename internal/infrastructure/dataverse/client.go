// Package dataverse fetches PA case records from a Dataverse (Dynamics CRM)
// environment.
package dataverse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"pa-agent/internal/application/port/output"
	"pa-agent/internal/domain/entity"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

var _ output.CaseDataProvider = (*Client)(nil)

const apiPath = "/api/data/v9.2"

type Config struct {
	BaseURL          string
	AuthorityURL     string
	TenantID         string
	ClientID         string
	ClientSecret     string
	DefaultAccountID string
	HTTPClient       *http.Client
	Logger           output.LoggerPort
}

// Client fetches account + contact data. The bearer token is acquired once
// and reused for the client's lifetime; it is never refreshed.
type Client struct {
	cfg        Config
	creds      clientcredentials.Config
	httpClient *http.Client
	logger     output.LoggerPort

	mu    sync.Mutex
	token *oauth2.Token
}

func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	cfg.BaseURL = base

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		cfg: cfg,
		creds: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     fmt.Sprintf("%s/%s/oauth2/v2.0/token", strings.TrimRight(cfg.AuthorityURL, "/"), cfg.TenantID),
			Scopes:       []string{base + "/.default"},
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Token returns the cached bearer token, acquiring it on first use.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != nil {
		if !c.token.Valid() {
			return "", &entity.DataFetchError{Kind: entity.DataFetchAuthFailure, Err: errors.New("access token expired")}
		}
		return c.token.AccessToken, nil
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := c.creds.Token(ctx)
	if err != nil {
		if c.logger != nil {
			c.logger.Error("Failed to get access token", "error", err)
		}
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return "", &entity.DataFetchError{Kind: entity.DataFetchAuthFailure, Err: err}
		}
		return "", &entity.DataFetchError{Kind: entity.DataFetchNetworkFailure, Err: err}
	}

	c.token = tok
	return tok.AccessToken, nil
}

func (c *Client) Fetch(ctx context.Context, accountID string) (entity.CaseRecord, error) {
	if accountID == "" {
		accountID = c.cfg.DefaultAccountID
	}
	if accountID == "" {
		return nil, &entity.DataFetchError{Kind: entity.DataFetchNotFound, Err: errors.New("no account id given and no default configured")}
	}

	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	accountPath := fmt.Sprintf("%s/accounts(%s)", apiPath, url.PathEscape(accountID))

	var account map[string]any
	status, err := c.getJSON(ctx, token, accountPath, &account)
	if err != nil {
		return nil, &entity.DataFetchError{Kind: entity.DataFetchNetworkFailure, Err: err}
	}
	if kind, failed := classifyStatus(status); failed {
		return nil, &entity.DataFetchError{Kind: kind, Err: fmt.Errorf("account %s: HTTP %d", accountID, status)}
	}

	contacts := []any{}
	var contactsResp struct {
		Value []any `json:"value"`
	}
	status, err = c.getJSON(ctx, token, accountPath+"/contact_customer_accounts", &contactsResp)
	switch {
	case err != nil:
		c.warn("Contacts lookup failed, continuing without contacts", "account_id", accountID, "error", err)
	case status/100 != 2:
		c.warn("Contacts lookup returned non-2xx, continuing without contacts", "account_id", accountID, "status", status)
	case contactsResp.Value != nil:
		contacts = contactsResp.Value
	}

	record := entity.CaseRecord{
		"account":    account,
		"contacts":   contacts,
		"account_id": accountID,
	}
	if c.logger != nil {
		c.logger.Info("Case data fetched", "account_id", accountID, "summary", Summary(record))
	}
	return record, nil
}

// getJSON decodes a 2xx body into out and reports the status code. Transport
// and decode failures are returned as errors.
func (c *Client) getJSON(ctx context.Context, token, path string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("OData-MaxVersion", "4.0")
	req.Header.Set("OData-Version", "4.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s: %w", path, err)
	}
	return resp.StatusCode, nil
}

func classifyStatus(status int) (entity.DataFetchKind, bool) {
	switch {
	case status/100 == 2:
		return "", false
	case status == http.StatusNotFound:
		return entity.DataFetchNotFound, true
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return entity.DataFetchAuthFailure, true
	default:
		return entity.DataFetchNetworkFailure, true
	}
}

func (c *Client) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
