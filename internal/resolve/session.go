package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/tmc/langchaingo/llms"

	"alumni-engine/internal/netx"
)

// Renderer returns the HTML of a fully loaded page.
type Renderer interface {
	Render(ctx context.Context, pageURL string) (string, error)
}

// Completer is the subset of llms.Model used for structured extraction.
type Completer interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// SessionDiscoverer renders a search page in a browser and asks an LLM to
// pick the one profile link that belongs to the person.
type SessionDiscoverer struct {
	Browser       Renderer
	LLM           Completer
	SearchPageURL string // contains one %s for the escaped query
	MaxPageChars  int
}

const discoverSystemPrompt = `You pick the LinkedIn profile of one specific person from a page of search results.
Reply with strict JSON only: {"url": "<https://www.linkedin.com/in/...>"}.
If no result is clearly that person's profile, reply {"url": ""}.
Never return posts, jobs, company pages or directory pages.`

func (d *SessionDiscoverer) Discover(ctx context.Context, query string) (string, error) {
	if d.Browser == nil || d.LLM == nil {
		return "", errors.New("discovery session is not configured")
	}
	pageURL := fmt.Sprintf(d.SearchPageURL, url.QueryEscape(query))

	html, err := d.Browser.Render(ctx, pageURL)
	if err != nil {
		return "", fmt.Errorf("render search page: %w", err)
	}
	page, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("convert search page: %w", err)
	}
	if d.MaxPageChars > 0 {
		page = netx.Truncate(page, d.MaxPageChars)
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, discoverSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, fmt.Sprintf("Query: %s\n\nSearch results:\n%s", query, page)),
	}
	resp, err := d.LLM.GenerateContent(ctx, messages, llms.WithTemperature(0), llms.WithJSONMode())
	if err != nil {
		return "", fmt.Errorf("extract url: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("extract url: no response choices")
	}
	return ParseURLReply(resp.Choices[0].Content)
}

var fenceRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// ParseURLReply decodes {"url": "..."} from a model reply, tolerating a
// markdown code fence around it.
func ParseURLReply(s string) (string, error) {
	s = strings.TrimSpace(s)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return "", fmt.Errorf("decode model reply: %w", err)
	}
	return strings.TrimSpace(out.URL), nil
}
