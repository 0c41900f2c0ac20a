// Package publisher pushes finished articles into the WeChat Official
// Account draft box: cover upload, in-article image rewriting, markdown
// rendering, and draft creation.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.weixin.qq.com"

// WeChat rejects draft content much beyond this size.
const contentSizeLimit = 1_000_000

// Config holds the WeChat app credentials.
type Config struct {
	AppID     string
	AppSecret string
	// BaseURL overrides the WeChat API host, used in tests.
	BaseURL string
	// FilesDir resolves locally hosted image refs (/files/<name>).
	FilesDir string
}

// PublishParams describes the draft to create.
type PublishParams struct {
	Title    string
	Markdown string
	// CoverRef is an image reference: data URL, hosted /files/ path, or
	// HTTP(S) URL. Required; WeChat drafts need a thumbnail.
	CoverRef string
}

// Publisher talks to the WeChat draft API.
type Publisher struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// New creates a publisher.
func New(cfg Config, logger *slog.Logger) (*Publisher, error) {
	if cfg.AppID == "" || cfg.AppSecret == "" {
		return nil, fmt.Errorf("wechat app id and secret are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
		logger: logger,
	}, nil
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
	ErrCode     int    `json:"errcode"`
	ErrMsg      string `json:"errmsg"`
}

type materialResp struct {
	MediaID string `json:"media_id"`
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

type draftResp struct {
	MediaID string `json:"media_id"`
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

type draftArticle struct {
	Title              string `json:"title"`
	Author             string `json:"author"`
	Digest             string `json:"digest"`
	Content            string `json:"content"`
	ContentSourceURL   string `json:"content_source_url"`
	ThumbMediaID       string `json:"thumb_media_id"`
	NeedOpenComment    int    `json:"need_open_comment"`
	OnlyFansCanComment int    `json:"only_fans_can_comment"`
}

// Publish creates a WeChat draft from the article. Steps: validate, fetch an
// access token, upload the cover for its thumb media id, rewrite in-article
// images to WeChat-hosted URLs, render the markdown, create the draft.
// Returns the draft media id.
func (p *Publisher) Publish(ctx context.Context, params PublishParams) (string, error) {
	if strings.TrimSpace(params.Title) == "" {
		return "", fmt.Errorf("title is required")
	}
	if strings.TrimSpace(params.Markdown) == "" {
		return "", fmt.Errorf("article content is empty")
	}
	if strings.HasPrefix(params.Markdown, "data:image/") {
		return "", fmt.Errorf("article content appears to be image data, not article text")
	}
	if strings.TrimSpace(params.CoverRef) == "" {
		return "", fmt.Errorf("cover image is required for WeChat drafts")
	}

	token, err := p.accessToken(ctx)
	if err != nil {
		return "", err
	}

	thumbMediaID, err := p.uploadCover(ctx, token, params.CoverRef)
	if err != nil {
		return "", fmt.Errorf("cover upload: %w", err)
	}

	markdown := p.RewriteImages(ctx, token, params.Markdown)

	html, err := renderWeChatHTML(markdown)
	if err != nil {
		return "", err
	}
	if len(html) > contentSizeLimit {
		return "", fmt.Errorf("article content too large (%dKB, limit ~%dKB)",
			len(html)/1024, contentSizeLimit/1024)
	}

	return p.createDraft(ctx, token, draftArticle{
		Title:        params.Title,
		Content:      html,
		ThumbMediaID: thumbMediaID,
	})
}

// accessToken fetches a client-credential access token.
func (p *Publisher) accessToken(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s/cgi-bin/token?grant_type=client_credential&appid=%s&secret=%s",
		p.cfg.BaseURL, p.cfg.AppID, p.cfg.AppSecret)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	var data tokenResp
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("token response: %w", err)
	}
	if data.AccessToken == "" {
		return "", fmt.Errorf("failed to get access token: %d %s", data.ErrCode, data.ErrMsg)
	}
	return data.AccessToken, nil
}

// uploadCover uploads the cover image as permanent material and returns its
// thumb media id.
func (p *Publisher) uploadCover(ctx context.Context, token, coverRef string) (string, error) {
	data, contentType, err := p.fetchImage(ctx, coverRef)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/cgi-bin/material/add_material?access_token=%s&type=image", p.cfg.BaseURL, token)
	respBody, err := p.postImage(ctx, url, data, "cover"+extensionFor(contentType), contentType)
	if err != nil {
		return "", err
	}

	var result materialResp
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("material response: %w", err)
	}
	if result.MediaID == "" {
		return "", fmt.Errorf("failed to upload cover: %d %s", result.ErrCode, result.ErrMsg)
	}
	return result.MediaID, nil
}

// postImage sends a multipart image upload and returns the raw response body.
func (p *Publisher) postImage(ctx context.Context, url string, data []byte, filename, contentType string) ([]byte, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("media", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image upload: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// createDraft submits the article to the draft box.
func (p *Publisher) createDraft(ctx context.Context, token string, art draftArticle) (string, error) {
	payload, err := json.Marshal(map[string][]draftArticle{"articles": {art}})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/cgi-bin/draft/add?access_token=%s", p.cfg.BaseURL, token)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("draft request: %w", err)
	}
	defer resp.Body.Close()

	var data draftResp
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("draft response: %w", err)
	}
	if data.ErrCode != 0 {
		return "", fmt.Errorf("failed to create draft: %d %s", data.ErrCode, data.ErrMsg)
	}
	return data.MediaID, nil
}

func extensionFor(contentType string) string {
	if strings.Contains(contentType, "jpeg") || strings.Contains(contentType, "jpg") {
		return ".jpg"
	}
	return ".png"
}
