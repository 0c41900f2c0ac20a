package publisher

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// imagePattern matches markdown image references: ![alt](url) with an
// optional quoted title.
var imagePattern = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)

// dataURLPattern splits a base64 data URL into mime type and payload.
var dataURLPattern = regexp.MustCompile(`^data:([^;]+);base64,(.+)$`)

// RewriteImages uploads every distinct in-article image to WeChat and
// rewrites the markdown to the returned WeChat-hosted URLs. Refs already on
// mmbiz hosts are skipped, which makes the rewrite idempotent. Each distinct
// ref uploads exactly once no matter how often it appears. A failed upload
// is logged and leaves that ref unrewritten.
func (p *Publisher) RewriteImages(ctx context.Context, token, markdown string) string {
	seen := make(map[string]bool)
	var refs []string
	for _, m := range imagePattern.FindAllStringSubmatch(markdown, -1) {
		ref := m[2]
		if strings.HasPrefix(ref, "http://mmbiz.") || strings.HasPrefix(ref, "https://mmbiz.") {
			continue
		}
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	if len(refs) == 0 {
		return markdown
	}

	p.logger.Info("uploading article images to wechat", "count", len(refs))

	rewritten := markdown
	for _, ref := range refs {
		wechatURL, err := p.uploadArticleImage(ctx, token, ref)
		if err != nil {
			p.logger.Warn("article image upload failed, keeping original ref",
				"ref", truncateRef(ref), "error", err)
			continue
		}
		pattern := regexp.MustCompile(regexp.QuoteMeta(ref))
		rewritten = pattern.ReplaceAllString(rewritten, wechatURL)
	}
	return rewritten
}

// uploadArticleImage fetches one image ref and uploads it via the uploadimg
// API, which returns a URL usable inside draft content.
func (p *Publisher) uploadArticleImage(ctx context.Context, token, ref string) (string, error) {
	data, contentType, err := p.fetchImage(ctx, ref)
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("article_img_%d%s", time.Now().UnixNano(), extensionFor(contentType))
	uploadURL := fmt.Sprintf("%s/cgi-bin/media/uploadimg?access_token=%s", p.cfg.BaseURL, token)

	respBody, err := p.postImage(ctx, uploadURL, data, filename, contentType)
	if err != nil {
		return "", err
	}

	var result struct {
		URL     string `json:"url"`
		ErrCode int    `json:"errcode"`
		ErrMsg  string `json:"errmsg"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("uploadimg response: %w", err)
	}
	if result.URL == "" {
		return "", fmt.Errorf("uploadimg error: %d %s", result.ErrCode, result.ErrMsg)
	}
	return result.URL, nil
}

// fetchImage resolves an image ref to raw bytes. Supported forms: base64
// data URL, locally hosted /files/ path, and HTTP(S) URL.
func (p *Publisher) fetchImage(ctx context.Context, ref string) ([]byte, string, error) {
	switch {
	case strings.HasPrefix(ref, "data:"):
		m := dataURLPattern.FindStringSubmatch(ref)
		if m == nil {
			return nil, "", fmt.Errorf("invalid data URL")
		}
		data, err := base64.StdEncoding.DecodeString(m[2])
		if err != nil {
			return nil, "", fmt.Errorf("invalid data URL payload: %w", err)
		}
		return data, m[1], nil

	case strings.HasPrefix(ref, "/files/"), strings.HasPrefix(ref, "./files/"):
		if p.cfg.FilesDir == "" {
			return nil, "", fmt.Errorf("no files directory configured for local ref")
		}
		name := filepath.Base(ref)
		data, err := os.ReadFile(filepath.Join(p.cfg.FilesDir, name))
		if err != nil {
			return nil, "", fmt.Errorf("local image: %w", err)
		}
		return data, contentTypeForName(name), nil

	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		req, err := http.NewRequestWithContext(ctx, "GET", ref, nil)
		if err != nil {
			return nil, "", err
		}
		resp, err := p.client.Do(req)
		if err != nil {
			return nil, "", fmt.Errorf("image download: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, "", fmt.Errorf("image download: status %d", resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, "", err
		}
		contentType := resp.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "image/png"
		}
		return data, contentType, nil

	default:
		return nil, "", fmt.Errorf("unsupported image ref %q", truncateRef(ref))
	}
}

func contentTypeForName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "image/png"
	}
}

// truncateRef shortens long refs (data URLs especially) for log output.
func truncateRef(ref string) string {
	if len(ref) > 80 {
		return ref[:80] + "..."
	}
	return ref
}
