package extractor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	gazetteerrors "github.com/yungbote/neurobridge-backend/internal/pkg/errors"
	"github.com/yungbote/neurobridge-backend/internal/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func writeTemp(t *testing.T, name string, contents []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestExtractText_PlainTextShortCircuitsRemoteCall(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	path := writeTemp(t, "edital.txt", []byte("diario oficial do municipio"))
	ext := New(srv.URL, testLogger(t))

	text, err := ext.ExtractText(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if text != "diario oficial do municipio" {
		t.Fatalf("text = %q", text)
	}
	if called {
		t.Fatal("plain text files should not hit the Tika endpoint")
	}
}

func TestExtractText_PDFCallsTika(t *testing.T) {
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("extracted body text"))
	}))
	defer srv.Close()

	header := append([]byte("%PDF-1.4\n"), make([]byte, 512)...)
	path := writeTemp(t, "edital.pdf", header)
	ext := New(srv.URL, testLogger(t))

	text, err := ext.ExtractText(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if text != "extracted body text" {
		t.Fatalf("text = %q", text)
	}
	if gotContentType != "application/pdf" {
		t.Fatalf("content-type = %q, want application/pdf", gotContentType)
	}
}

func TestExtractText_ZipRejectedAsUnsupported(t *testing.T) {
	path := writeTemp(t, "archive.zip", []byte("PK\x03\x04rest of a zip file that is not an office container"))
	ext := New("http://unused.invalid", testLogger(t))

	_, err := ext.ExtractText(context.Background(), path)
	if !errors.Is(err, gazetteerrors.ErrUnsupportedFileType) {
		t.Fatalf("err = %v, want ErrUnsupportedFileType", err)
	}
}

func TestExtractText_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	header := append([]byte("%PDF-1.4\n"), make([]byte, 512)...)
	path := writeTemp(t, "edital.pdf", header)
	ext := New(srv.URL, testLogger(t))

	_, err := ext.ExtractText(context.Background(), path)
	if gazetteerrors.Classify(err) != gazetteerrors.CategoryTransient {
		t.Fatalf("Classify(err) = %v, want CategoryTransient (err=%v)", gazetteerrors.Classify(err), err)
	}
}
