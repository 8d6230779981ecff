package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tibiawiki-api/pkg/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

var (
	ErrArticleNotFound = errors.New("article not found")
	ErrEditRejected    = errors.New("edit rejected")
	ErrBackend         = errors.New("wiki backend failure")
)

// Wiki is the article store the API reads from and writes to.
type Wiki interface {
	Article(ctx context.Context, title string) (models.Article, error)
	// Articles returns the articles that exist among titles, in request
	// order. Missing titles are skipped.
	Articles(ctx context.Context, titles []string) ([]models.Article, error)
	CategoryMembers(ctx context.Context, category string) ([]string, error)
	Edit(ctx context.Context, req models.EditRequest) (models.EditResult, error)
}

// APIError is an error object returned by the MediaWiki action API.
type APIError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Info)
}

const (
	maxTitlesPerQuery = 50
	categoryPageLimit = "500"
)

// MediaWikiConfig configures a MediaWiki client.
type MediaWikiConfig struct {
	APIURL     string
	UserAgent  string
	BatchSize  int
	HTTPClient *http.Client
}

// MediaWiki talks to the action API (api.php) of a MediaWiki site.
type MediaWiki struct {
	endpoint  string
	userAgent string
	batchSize int
	http      *http.Client
}

func NewMediaWiki(cfg MediaWikiConfig) (*MediaWiki, error) {
	u, err := url.Parse(strings.TrimSpace(cfg.APIURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("mediawiki: invalid api url %q", cfg.APIURL)
	}
	batch := cfg.BatchSize
	if batch <= 0 || batch > maxTitlesPerQuery {
		batch = maxTitlesPerQuery
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &MediaWiki{
		endpoint:  u.String(),
		userAgent: cfg.UserAgent,
		batchSize: batch,
		http:      client,
	}, nil
}

// BotHTTPClient returns an HTTP client that authenticates with the OAuth2
// client credentials grant, or a plain client when no credentials are set.
func BotHTTPClient(ctx context.Context, clientID, clientSecret, tokenURL string, timeout time.Duration) *http.Client {
	base := &http.Client{Timeout: timeout}
	if clientID == "" {
		return base
	}
	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	client := conf.Client(context.WithValue(ctx, oauth2.HTTPClient, base))
	client.Timeout = timeout
	return client
}

type revisionResponse struct {
	Query struct {
		Pages []struct {
			Title     string `json:"title"`
			Missing   bool   `json:"missing"`
			Invalid   bool   `json:"invalid"`
			Revisions []struct {
				RevID     int64     `json:"revid"`
				Timestamp time.Time `json:"timestamp"`
				Slots     struct {
					Main struct {
						Content string `json:"content"`
					} `json:"main"`
				} `json:"slots"`
			} `json:"revisions"`
		} `json:"pages"`
		Normalized []struct {
			From string `json:"from"`
			To   string `json:"to"`
		} `json:"normalized"`
		Redirects []struct {
			From string `json:"from"`
			To   string `json:"to"`
		} `json:"redirects"`
	} `json:"query"`
}

func (w *MediaWiki) Article(ctx context.Context, title string) (models.Article, error) {
	articles, err := w.Articles(ctx, []string{title})
	if err != nil {
		return models.Article{}, err
	}
	if len(articles) == 0 {
		return models.Article{}, fmt.Errorf("%w: %s", ErrArticleNotFound, title)
	}
	return articles[0], nil
}

func (w *MediaWiki) Articles(ctx context.Context, titles []string) ([]models.Article, error) {
	out := make([]models.Article, 0, len(titles))
	for start := 0; start < len(titles); start += w.batchSize {
		end := min(start+w.batchSize, len(titles))
		batch, err := w.fetchBatch(ctx, titles[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (w *MediaWiki) fetchBatch(ctx context.Context, titles []string) ([]models.Article, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "revisions")
	params.Set("rvprop", "content|timestamp|ids")
	params.Set("rvslots", "main")
	params.Set("redirects", "1")
	params.Set("titles", strings.Join(titles, "|"))

	var resp revisionResponse
	if err := w.call(ctx, http.MethodGet, params, &resp); err != nil {
		return nil, err
	}

	// Map every requested spelling to the title the wiki resolved it to.
	resolved := make(map[string]string)
	for _, n := range resp.Query.Normalized {
		resolved[n.From] = n.To
	}
	for _, r := range resp.Query.Redirects {
		resolved[r.From] = r.To
	}
	byTitle := make(map[string]models.Article, len(resp.Query.Pages))
	for _, p := range resp.Query.Pages {
		if p.Missing || p.Invalid || len(p.Revisions) == 0 {
			continue
		}
		rev := p.Revisions[0]
		byTitle[p.Title] = models.Article{
			Title:     p.Title,
			Text:      rev.Slots.Main.Content,
			RevID:     rev.RevID,
			Timestamp: rev.Timestamp,
		}
	}

	out := make([]models.Article, 0, len(titles))
	seen := make(map[string]bool, len(titles))
	for _, t := range titles {
		name := t
		for i := 0; i < 2; i++ {
			if to, ok := resolved[name]; ok {
				name = to
			}
		}
		a, ok := byTitle[name]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, a)
	}
	return out, nil
}

type categoryResponse struct {
	Continue map[string]string `json:"continue"`
	Query    struct {
		CategoryMembers []struct {
			Title string `json:"title"`
		} `json:"categorymembers"`
	} `json:"query"`
}

// CategoryMembers lists the page titles of category, following continuation
// until the listing is complete.
func (w *MediaWiki) CategoryMembers(ctx context.Context, category string) ([]string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "categorymembers")
	params.Set("cmtitle", categoryTitle(category))
	params.Set("cmtype", "page")
	params.Set("cmlimit", categoryPageLimit)

	var titles []string
	for {
		var resp categoryResponse
		if err := w.call(ctx, http.MethodGet, params, &resp); err != nil {
			return nil, err
		}
		for _, m := range resp.Query.CategoryMembers {
			titles = append(titles, m.Title)
		}
		if len(resp.Continue) == 0 {
			return titles, nil
		}
		for k, v := range resp.Continue {
			params.Set(k, v)
		}
	}
}

func categoryTitle(category string) string {
	if strings.HasPrefix(category, "Category:") {
		return category
	}
	return "Category:" + category
}

type tokenResponse struct {
	Query struct {
		Tokens struct {
			CSRF string `json:"csrftoken"`
		} `json:"tokens"`
	} `json:"query"`
}

type editResponse struct {
	Edit struct {
		Result       string    `json:"result"`
		Title        string    `json:"title"`
		NewRevID     int64     `json:"newrevid"`
		NewTimestamp time.Time `json:"newtimestamp"`
		NoChange     bool      `json:"nochange"`
	} `json:"edit"`
}

// Edit replaces the text of an existing article. The wiki rejects the edit
// when the article changed after BaseTimestamp.
func (w *MediaWiki) Edit(ctx context.Context, req models.EditRequest) (models.EditResult, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("meta", "tokens")
	params.Set("type", "csrf")
	var tok tokenResponse
	if err := w.call(ctx, http.MethodGet, params, &tok); err != nil {
		return models.EditResult{}, err
	}
	if tok.Query.Tokens.CSRF == "" {
		return models.EditResult{}, fmt.Errorf("%w: empty csrf token", ErrBackend)
	}

	params = url.Values{}
	params.Set("action", "edit")
	params.Set("title", req.Title)
	params.Set("text", req.Text)
	params.Set("summary", req.Summary)
	params.Set("nocreate", "1")
	params.Set("bot", "1")
	if !req.BaseTimestamp.IsZero() {
		params.Set("basetimestamp", req.BaseTimestamp.UTC().Format(time.RFC3339))
	}
	params.Set("token", tok.Query.Tokens.CSRF)

	var resp editResponse
	if err := w.call(ctx, http.MethodPost, params, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return models.EditResult{}, fmt.Errorf("%w: %w", ErrEditRejected, apiErr)
		}
		return models.EditResult{}, err
	}
	if resp.Edit.Result != "Success" {
		return models.EditResult{}, fmt.Errorf("%w: result %q", ErrEditRejected, resp.Edit.Result)
	}
	return models.EditResult{
		Title:    resp.Edit.Title,
		NewRevID: resp.Edit.NewRevID,
		NoChange: resp.Edit.NoChange,
		Time:     resp.Edit.NewTimestamp,
	}, nil
}

// call performs one API request and decodes the response into out. API
// level errors come back as *APIError wrapped in ErrBackend.
func (w *MediaWiki) call(ctx context.Context, method string, params url.Values, out any) error {
	params.Set("format", "json")
	params.Set("formatversion", "2")
	params.Set("errorformat", "plaintext")

	var (
		req *http.Request
		err error
	)
	if method == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, method, w.endpoint, strings.NewReader(params.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, method, w.endpoint+"?"+params.Encode(), nil)
	}
	if err != nil {
		return fmt.Errorf("%w: build request: %w", ErrBackend, err)
	}
	if w.userAgent != "" {
		req.Header.Set("User-Agent", w.userAgent)
	}

	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s request failed: %w", ErrBackend, params.Get("action"), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrBackend, err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: %s (%s): %s", ErrBackend, params.Get("action"), resp.Status, strings.TrimSpace(truncate(string(body), 512)))
	}

	var envelope struct {
		Error  *APIError `json:"error"`
		Errors []struct {
			Code string `json:"code"`
			Text string `json:"text"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("%w: decode %s response: %w", ErrBackend, params.Get("action"), err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("%w: %w", ErrBackend, envelope.Error)
	}
	if len(envelope.Errors) > 0 {
		e := envelope.Errors[0]
		return fmt.Errorf("%w: %w", ErrBackend, &APIError{Code: e.Code, Info: e.Text})
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode %s response: %w", ErrBackend, params.Get("action"), err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
