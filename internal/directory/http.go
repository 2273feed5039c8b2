package directory

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const (
	contentType      = "application/json"
	contentEncoding  = "gzip, deflate, br"
	defaultUserAgent = "devcaliber/assistant"
)

// listingPage is one page of a directory listing response.
type listingPage struct {
	Items []any `json:"items"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
}

// HTTPProvider fetches directory listings from the platform API.
type HTTPProvider struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// NewHTTPProvider creates a directory provider backed by the platform API at apiURL.
func NewHTTPProvider(apiURL, token string, logger *zap.Logger) *HTTPProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPProvider{
		token:  token,
		logger: logger,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		UserAgent: defaultUserAgent,
		APIURL:    apiURL,
	}
}

// Snapshot fetches the candidate and recruiter listings in one pass.
func (p *HTTPProvider) Snapshot(ctx context.Context) (*Snapshot, error) {
	snapshot := &Snapshot{}

	items, err := p.getItems(ctx, p.APIURL+"/candidates")
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	if err := decodeItems(items, &snapshot.Candidates); err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}

	items, err = p.getItems(ctx, p.APIURL+"/recruiters")
	if err != nil {
		return nil, fmt.Errorf("fetch recruiters: %w", err)
	}
	if err := decodeItems(items, &snapshot.Recruiters); err != nil {
		return nil, fmt.Errorf("decode recruiters: %w", err)
	}

	p.logger.Debug("fetched directory snapshot",
		zap.Int("candidates", len(snapshot.Candidates)),
		zap.Int("recruiters", len(snapshot.Recruiters)),
	)

	return snapshot, nil
}

// getItems collects the listing items from all pages of url.
func (p *HTTPProvider) getItems(ctx context.Context, url string) ([]any, error) {
	var items []any

	page := 0
	for {
		listing, err := p.getPage(ctx, fmt.Sprintf("%s?page=%d", url, page))
		if err != nil {
			return nil, err
		}
		items = append(items, listing.Items...)

		if listing.Page >= listing.Pages-1 {
			return items, nil
		}

		p.logger.Debug("additional request needed", zap.String("reason", fmt.Sprintf(
			"current page (%d) < all page count (%d)", listing.Page+1, listing.Pages),
		))
		page = listing.Page + 1
	}
}

func (p *HTTPProvider) getPage(ctx context.Context, url string) (*listingPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	p.setHeaders(req)
	req.Header.Set("Content-Type", contentType)

	p.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	listing := &listingPage{}
	if err := json.NewDecoder(reader).Decode(listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// decodeItems maps the loosely-typed listing items onto the record structs,
// reusing the json tags as field names.
func decodeItems(items []any, target any) error {
	cfg := &mapstructure.DecoderConfig{
		Metadata: nil,
		Result:   target,
		TagName:  "json",
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}
	return decoder.Decode(items)
}

func (p *HTTPProvider) setHeaders(req *http.Request) {
	if p.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.token))
	}
	req.Header.Set("User-Agent", p.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)
}
