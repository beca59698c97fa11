package pipeline

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/neurobridge-backend/internal/domain/gazette"
	"github.com/yungbote/neurobridge-backend/internal/observability"
	"github.com/yungbote/neurobridge-backend/internal/pkg/logger"
	"github.com/yungbote/neurobridge-backend/internal/platform/searchindex"
)

func TestTextArtifactPath(t *testing.T) {
	cases := []struct{ in, want string }{
		{"gazettes/2704302/2024-01-01/edital.pdf", "gazettes/2704302/2024-01-01/edital.txt"},
		{"gazettes/2704302/2024-01-01/edital.txt", "gazettes/2704302/2024-01-01/edital.txt"},
		{"edital", "edital.txt"},
	}
	for _, c := range cases {
		if got := textArtifactPath(c.in); got != c.want {
			t.Errorf("textArtifactPath(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestAsGazette_CopiesAllSegmentFields(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := gazette.Segment{
		SourceText:     "texto",
		Date:           now,
		EditionNumber:  "45",
		IsExtraEdition: true,
		Power:          gazette.Power("executive"),
		FileChecksum:   "abc123",
		FilePath:       "path/to/seg.txt",
		FileURL:        "https://example.com/seg.txt",
		ScrapedAt:      now,
		CreatedAt:      now,
		TerritoryID:    "2704302",
		Processed:      true,
	}
	g := asGazette(s)
	if g.SourceText != s.SourceText || g.Date != s.Date || g.EditionNumber != s.EditionNumber ||
		g.IsExtraEdition != s.IsExtraEdition || g.Power != s.Power || g.FileChecksum != s.FileChecksum ||
		g.FilePath != s.FilePath || g.FileURL != s.FileURL || g.ScrapedAt != s.ScrapedAt ||
		g.CreatedAt != s.CreatedAt || g.TerritoryID != s.TerritoryID || g.Processed != s.Processed {
		t.Fatalf("asGazette did not faithfully copy all fields: got %+v, from %+v", g, s)
	}
}

func TestSetMemoryLimit_NonPositiveIsNoOp(t *testing.T) {
	SetMemoryLimit(0)
	SetMemoryLimit(-1)
}

type fakeStore struct {
	uploaded map[string]string
}

func (f *fakeStore) Download(ctx context.Context, key string, w io.Writer) error {
	_, err := w.Write([]byte("raw file bytes"))
	return err
}

func (f *fakeStore) Upload(ctx context.Context, key string, body io.Reader, size int64, acl string) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if f.uploaded == nil {
		f.uploaded = map[string]string{}
	}
	f.uploaded[key] = string(b)
	return nil
}

func (f *fakeStore) UploadMultipart(ctx context.Context, key, localPath string, partSize int64) error {
	return nil
}

func (f *fakeStore) Copy(ctx context.Context, srcKey, dstKey string) error { return nil }
func (f *fakeStore) Delete(ctx context.Context, key string) error          { return nil }

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) ExtractText(ctx context.Context, localPath string) (string, error) {
	return f.text, f.err
}

type fakeRepo struct {
	marked []int64
}

func (f *fakeRepo) MarkProcessed(ctx context.Context, id int64, fileChecksum string) error {
	f.marked = append(f.marked, id)
	return nil
}

func TestProcess_NonAssociationIndexesAndMarksProcessed(t *testing.T) {
	var indexed []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		indexed = append(indexed, r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"result":"created"}`))
	}))
	defer srv.Close()

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	store := &fakeStore{}
	extract := &fakeExtractor{text: "conteudo extraido do diario"}
	repo := &fakeRepo{}
	idx := searchindex.New(srv.URL, log)
	summary := observability.NewRunSummary()

	p := New(Config{GazetteIndex: "gazettes"}, store, extract, idx, nil, repo, log, summary)

	g := &gazette.Gazette{
		ID:           1,
		FilePath:     "gazettes/2700104/2024-01-01/edital.pdf",
		FileChecksum: "checksum-1",
		TerritoryID:  "2700104",
	}
	if err := p.process(context.Background(), g); err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(repo.marked) != 1 || repo.marked[0] != 1 {
		t.Fatalf("marked = %v, want [1]", repo.marked)
	}
	if len(indexed) != 1 || !strings.Contains(indexed[0], "checksum-1") {
		t.Fatalf("indexed requests = %v, want one containing the file checksum", indexed)
	}
	textBody, ok := store.uploaded["gazettes/2700104/2024-01-01/edital.txt"]
	if !ok || textBody != "conteudo extraido do diario" {
		t.Fatalf("uploaded text artifact = %v", store.uploaded)
	}
	if g.SourceText != "conteudo extraido do diario" {
		t.Fatalf("g.SourceText = %q", g.SourceText)
	}

	snap := summary.Snapshot()
	if snap.OpenSearch.Requests != 1 || snap.OpenSearch.Successes != 1 {
		t.Fatalf("OpenSearch stat = %+v", snap.OpenSearch)
	}
}

func TestProcess_FileExceedingMaxBytesIsInvalidInput(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	store := &fakeStore{}
	extract := &fakeExtractor{text: "should not be reached"}
	repo := &fakeRepo{}
	p := New(Config{MaxFileBytes: 1}, store, extract, nil, nil, repo, log, nil)

	g := &gazette.Gazette{ID: 1, FilePath: "gazettes/x.pdf", FileChecksum: "c1", TerritoryID: "2700104"}
	err = p.process(context.Background(), g)
	if err == nil {
		t.Fatal("expected an error for oversized file, got nil")
	}
	if len(repo.marked) != 0 {
		t.Fatalf("repo.MarkProcessed should not have been called, got %v", repo.marked)
	}
}
