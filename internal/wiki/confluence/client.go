package confluence

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/thomas-vilte/matepr/internal/config"
	domainErrors "github.com/thomas-vilte/matepr/internal/errors"
	"github.com/thomas-vilte/matepr/internal/httpclient"
	"github.com/thomas-vilte/matepr/internal/logger"
	"github.com/tidwall/gjson"
)

const maxPageBytes = 4 << 20

// Page is a Confluence page with its body in storage format.
type Page struct {
	ID      string
	Title   string
	Storage string
	URL     string
}

// Markdown renders the page body as markdown.
func (p *Page) Markdown() string {
	return StorageToMarkdown(p.Storage)
}

type Client struct {
	baseURL string
	email   string
	token   string
	client  httpclient.HTTPClient
}

func NewClient(cfg config.ConfluenceConfig, token string, client httpclient.HTTPClient) *Client {
	if client == nil {
		client = httpclient.New(0)
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		email:   cfg.Email,
		token:   token,
		client:  client,
	}
}

// GetPage fetches a page with its storage body expanded.
func (c *Client) GetPage(ctx context.Context, id string) (*Page, error) {
	endpoint := fmt.Sprintf("%s/wiki/rest/api/content/%s?expand=body.storage", c.baseURL, url.PathEscape(id))
	logger.Debug(ctx, "fetching confluence page", "page_id", id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domainErrors.ErrTemplateFetch.WithError(err).WithContext("page_id", id)
	}
	req.Header.Set("Authorization", httpclient.BasicAuth(c.email, c.token))
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domainErrors.ErrTemplateFetch.WithError(err).WithContext("page_id", id)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, domainErrors.ErrTemplateFetch.WithError(err).WithContext("page_id", id)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domainErrors.ErrTemplateNotFound.WithContext("page_id", id)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg := gjson.GetBytes(body, "message").String()
		if msg == "" {
			msg = resp.Status
		}
		return nil, domainErrors.ErrTemplateFetch.
			WithContext("page_id", id).
			WithContext("status", resp.StatusCode).
			WithError(fmt.Errorf("%s", msg))
	}

	if !gjson.ValidBytes(body) {
		return nil, domainErrors.ErrTemplateFetch.
			WithContext("page_id", id).
			WithError(fmt.Errorf("invalid JSON response"))
	}

	page := &Page{
		ID:      gjson.GetBytes(body, "id").String(),
		Title:   gjson.GetBytes(body, "title").String(),
		Storage: gjson.GetBytes(body, "body.storage.value").String(),
	}
	if page.ID == "" {
		page.ID = id
	}
	if webui := gjson.GetBytes(body, "_links.webui").String(); webui != "" {
		page.URL = c.baseURL + "/wiki" + webui
	}
	return page, nil
}
