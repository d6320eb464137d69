package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/thomas-vilte/matepr/internal/config"
	domainErrors "github.com/thomas-vilte/matepr/internal/errors"
	"github.com/thomas-vilte/matepr/internal/httpclient"
	"github.com/thomas-vilte/matepr/internal/logger"
	"github.com/thomas-vilte/matepr/internal/models"
	"github.com/thomas-vilte/matepr/internal/regex"
)

var blankLines = regexp.MustCompile(`\n{3,}`)

// JiraService reads issues from the Jira Cloud REST API v3.
type JiraService struct {
	baseURL string
	email   string
	token   string
	client  httpclient.HTTPClient
}

// NewJiraService builds a service for cfg. token is resolved by the caller
// from the credential sources.
func NewJiraService(cfg config.JiraConfig, token string, client httpclient.HTTPClient) *JiraService {
	if client == nil {
		client = httpclient.New(0)
	}
	return &JiraService{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		email:   cfg.Email,
		token:   token,
		client:  client,
	}
}

type (
	issueResponse struct {
		Key    string      `json:"key"`
		Fields issueFields `json:"fields"`
	}

	issueFields struct {
		Summary     string          `json:"summary"`
		Description json.RawMessage `json:"description"`
		IssueType   struct {
			Name string `json:"name"`
		} `json:"issuetype"`
		Status struct {
			Name string `json:"name"`
		} `json:"status"`
	}

	// docNode is one node of an Atlassian Document Format tree.
	docNode struct {
		Type    string         `json:"type"`
		Text    string         `json:"text,omitempty"`
		Attrs   map[string]any `json:"attrs,omitempty"`
		Content []docNode      `json:"content,omitempty"`
	}
)

// GetTicket fetches key and flattens its description to plain text.
func (s *JiraService) GetTicket(ctx context.Context, key string) (*models.Ticket, error) {
	log := logger.FromContext(ctx)
	log.Debug("fetching jira ticket", "key", key)

	endpoint := fmt.Sprintf("%s/rest/api/3/issue/%s?fields=summary,description,issuetype,status",
		s.baseURL, url.PathEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domainErrors.ErrTicketFetch.WithError(err).WithContext("ticket", key)
	}
	req.Header.Set("Authorization", httpclient.BasicAuth(s.email, s.token))
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, domainErrors.ErrTicketFetch.WithError(err).WithContext("ticket", key)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domainErrors.ErrTicketNotFound.WithContext("ticket", key)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, domainErrors.ErrTicketAuth.WithContext("ticket", key).WithContext("status", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, domainErrors.ErrTicketFetch.
			WithContext("ticket", key).
			WithContext("status", resp.StatusCode).
			WithError(fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body))))
	}

	var issue issueResponse
	if err := json.NewDecoder(resp.Body).Decode(&issue); err != nil {
		return nil, domainErrors.ErrTicketFetch.WithError(err).WithContext("ticket", key)
	}

	if issue.Key == "" {
		issue.Key = key
	}
	ticket := &models.Ticket{
		Key:         issue.Key,
		Summary:     issue.Fields.Summary,
		Description: descriptionText(issue.Fields.Description),
		IssueType:   issue.Fields.IssueType.Name,
		Status:      issue.Fields.Status.Name,
		URL:         s.baseURL + "/browse/" + issue.Key,
	}
	log.Debug("jira ticket fetched",
		"key", ticket.Key,
		"type", ticket.IssueType,
		"status", ticket.Status)
	return ticket, nil
}

// descriptionText accepts both ADF documents (v3) and plain strings (v2 style).
func descriptionText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return strings.TrimSpace(plain)
	}
	var doc docNode
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ""
	}
	return flattenADF(doc.Content)
}

// flattenADF renders Atlassian Document Format nodes as plain text, one block per line.
func flattenADF(nodes []docNode) string {
	var sb strings.Builder
	for _, n := range nodes {
		writeNode(&sb, n, 0)
	}
	out := blankLines.ReplaceAllString(sb.String(), "\n\n")
	return strings.TrimSpace(out)
}

func writeNode(sb *strings.Builder, n docNode, depth int) {
	switch n.Type {
	case "text":
		sb.WriteString(n.Text)
	case "hardBreak":
		sb.WriteString("\n")
	case "mention", "emoji", "inlineCard":
		for _, attr := range []string{"text", "shortName", "url"} {
			if v, ok := n.Attrs[attr].(string); ok && v != "" {
				sb.WriteString(v)
				break
			}
		}
	case "paragraph", "heading", "codeBlock":
		writeChildren(sb, n, depth)
		sb.WriteString("\n")
	case "bulletList", "orderedList":
		for i, item := range n.Content {
			sb.WriteString(strings.Repeat("  ", depth))
			if n.Type == "orderedList" {
				fmt.Fprintf(sb, "%d. ", i+1)
			} else {
				sb.WriteString("- ")
			}
			writeChildren(sb, item, depth+1)
		}
	case "taskItem":
		mark := " "
		if state, _ := n.Attrs["state"].(string); state == "DONE" {
			mark = "x"
		}
		fmt.Fprintf(sb, "%s- [%s] ", strings.Repeat("  ", depth), mark)
		writeChildren(sb, n, depth+1)
		sb.WriteString("\n")
	case "rule":
		sb.WriteString("---\n")
	default:
		writeChildren(sb, n, depth)
	}
}

func writeChildren(sb *strings.Builder, n docNode, depth int) {
	for _, c := range n.Content {
		writeNode(sb, c, depth)
	}
}

// KeyFromBranch finds a ticket key such as PROJ-123 in a branch name.
func KeyFromBranch(branch string) (string, bool) {
	m := regex.JiraTicket.FindString(strings.ToUpper(branch))
	return m, m != ""
}
