// Package extractor turns a binary file into plain text via a black-box
// Apache Tika HTTP service, with content sniffing to decide whether the
// file is supported at all.
package extractor

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	gazetteerrors "github.com/yungbote/neurobridge-backend/internal/pkg/errors"
	"github.com/yungbote/neurobridge-backend/internal/pkg/httpx"
	"github.com/yungbote/neurobridge-backend/internal/pkg/logger"
)

const (
	maxRetries     = 3
	connectTimeout = 30 * time.Second
	readTimeout    = 300 * time.Second
)

var supportedTextlike = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"text/plain":         true,
}

// Extractor converts a local file to text.
type Extractor interface {
	ExtractText(ctx context.Context, localPath string) (string, error)
}

type client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

func New(baseURL string, log *logger.Logger) Extractor {
	return &client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: readTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
			},
		},
		log: log,
	}
}

func (c *client) ExtractText(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", gazetteerrors.NotFound("open local file", err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", gazetteerrors.Wrap("read file header", err)
	}
	head = head[:n]

	mimeType := sniff(localPath, head)
	switch {
	case mimeType == "application/zip":
		return "", gazetteerrors.Wrap(fmt.Sprintf("zip archives are unsupported: %s", localPath), gazetteerrors.ErrUnsupportedFileType)
	case mimeType == "text/plain":
		rest, err := io.ReadAll(f)
		if err != nil {
			return "", gazetteerrors.Wrap("read text file", err)
		}
		return string(head) + string(rest), nil
	case !supportedTextlike[mimeType] && !isOfficeContainer(mimeType):
		return "", gazetteerrors.Wrap(fmt.Sprintf("unsupported mime type %q", mimeType), gazetteerrors.ErrUnsupportedFileType)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", gazetteerrors.Wrap("seek local file", err)
	}
	return c.extractRemote(ctx, f, mimeType)
}

func (c *client) extractRemote(ctx context.Context, body io.ReadSeeker, mimeType string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if _, err := body.Seek(0, io.SeekStart); err != nil {
				return "", gazetteerrors.Wrap("seek local file for retry", err)
			}
			wait := time.Duration(1<<uint(attempt-1)) * time.Second
			if c.log != nil {
				c.log.Warn("tika extraction retrying", "tag", "tika_request", "attempt", attempt+1, "wait", wait)
			}
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}

		text, err := c.doExtract(ctx, body, mimeType)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if gazetteerrors.Classify(err) != gazetteerrors.CategoryTransient {
			return "", err
		}
	}
	return "", lastErr
}

func (c *client) doExtract(ctx context.Context, body io.Reader, mimeType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/tika", body)
	if err != nil {
		return "", gazetteerrors.Wrap("build tika request", err)
	}
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("Accept", "text/plain")

	if c.log != nil {
		c.log.Debug("tika extraction request", "tag", "tika_request", "content_type", mimeType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.log != nil {
			c.log.Warn("tika extraction error", "tag", "tika_error", "error", err)
		}
		return "", gazetteerrors.Transient("tika request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", gazetteerrors.Transient("read tika response body", err)
	}

	if httpx.IsRetryableHTTPStatus(resp.StatusCode) {
		if c.log != nil {
			c.log.Warn("tika extraction error", "tag", "tika_error", "status", resp.StatusCode)
		}
		return "", gazetteerrors.Transient(fmt.Sprintf("tika status %d", resp.StatusCode), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return "", gazetteerrors.Wrap(fmt.Sprintf("tika status %d: %s", resp.StatusCode, string(raw)), gazetteerrors.ErrInvalidInput)
	}

	if c.log != nil {
		c.log.Debug("tika extraction response", "tag", "tika_response", "bytes", len(raw))
	}
	return string(raw), nil
}

// sniff detects the MIME type from the first 512 bytes, with an
// extension-agnostic check that opens the zip central directory to tell
// an OOXML/ODF container apart from a plain rejected zip.
func sniff(path string, head []byte) string {
	detected := http.DetectContentType(head)
	if i := strings.IndexByte(detected, ';'); i >= 0 {
		detected = strings.TrimSpace(detected[:i])
	}
	if detected != "application/zip" {
		return detected
	}
	if isOfficeZip(path) {
		return "application/msword"
	}
	return "application/zip"
}

func isOfficeZip(path string) bool {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return false
	}
	defer zr.Close()
	for _, f := range zr.File {
		switch f.Name {
		case "mimetype", "[Content_Types].xml":
			return true
		}
	}
	return false
}

func isOfficeContainer(mimeType string) bool {
	return mimeType == "application/msword"
}
