// Package remote calls the companion analysis service for the operations
// that are delegated rather than computed locally.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/insightlab/docsight/pkg/docsight/internalerr"
)

// Endpoint paths of the companion service.
const (
	pathLda       = "/lda"
	pathTfidf     = "/tfidf"
	pathStopwords = "/stopwordremoval"
	pathTdm       = "/tdm"
)

// Client is a thin JSON client for the companion service. All payloads ride
// a {status, <result>} envelope; any status other than 200 is an ErrRemote.
type Client struct {
	BaseURL string

	HTTPClient *http.Client
}

type analysisRequest struct {
	Text       []string `json:"text"`
	TopicCount int      `json:"topicCount,omitempty"`
	TermsEach  int      `json:"termsEach,omitempty"`
	Stopwords  []string `json:"stopwords,omitempty"`
}

type analysisResponse struct {
	Status    int             `json:"status"`
	Lda       json.RawMessage `json:"lda,omitempty"`
	Tfidf     json.RawMessage `json:"tfidf,omitempty"`
	Tdm       [][]float64     `json:"tm,omitempty"`
	Stopwords []string        `json:"stopwordremoval,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// Lda requests remote LDA topic modelling over the texts. The payload shape
// is owned by the service and passed through opaquely.
func (c *Client) Lda(ctx context.Context, texts []string, topicCount, termsEach int) (json.RawMessage, error) {
	resp, err := c.send(ctx, pathLda, analysisRequest{
		Text:       texts,
		TopicCount: topicCount,
		TermsEach:  termsEach,
	})
	if err != nil {
		return nil, err
	}
	return resp.Lda, nil
}

// Tfidf requests remote term frequency statistics over the texts.
func (c *Client) Tfidf(ctx context.Context, texts []string) (json.RawMessage, error) {
	resp, err := c.send(ctx, pathTfidf, analysisRequest{Text: texts})
	if err != nil {
		return nil, err
	}
	return resp.Tfidf, nil
}

// StopwordRemoval requests remote stopword filtering. custom extends the
// service's builtin stoplist.
func (c *Client) StopwordRemoval(ctx context.Context, texts, custom []string) ([]string, error) {
	resp, err := c.send(ctx, pathStopwords, analysisRequest{Text: texts, Stopwords: custom})
	if err != nil {
		return nil, err
	}
	return resp.Stopwords, nil
}

// TermDocumentMatrix requests the raw term-document count matrix.
func (c *Client) TermDocumentMatrix(ctx context.Context, texts []string) ([][]float64, error) {
	resp, err := c.send(ctx, pathTdm, analysisRequest{Text: texts})
	if err != nil {
		return nil, err
	}
	return resp.Tdm, nil
}

func (c *Client) send(ctx context.Context, path string, reqPayload analysisRequest) (*analysisResponse, error) {
	if c.BaseURL == "" {
		return nil, fmt.Errorf("remote: base URL required: %w", internalerr.ErrInvalidConfig)
	}
	body, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, err
	}
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote %s: http %d: %w", path, resp.StatusCode, internalerr.ErrRemote)
	}

	var payload analysisResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("remote %s: %w", path, err)
	}
	if payload.Status != http.StatusOK {
		return nil, fmt.Errorf("remote %s: status %d %s: %w",
			path, payload.Status, payload.Message, internalerr.ErrRemote)
	}
	return &payload, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}
