package mhr

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const staticPage = `<html>
<head>
<title>Chesterfield 12U A1</title>
<style>.rank { color: red; }</style>
<script>var injected = "41st USA 12U";</script>
</head>
<body>
<h1>Chesterfield&nbsp;12U&nbsp;A1</h1>
<div>MHR Rating: 86.07</div>
<div>Record: 10-4-2</div>
<div id="ranks"><!-- populated client-side --></div>
</body>
</html>`

// stubRenderer fakes the headless path.
type stubRenderer struct {
	text  string
	err   error
	calls int
}

func (r *stubRenderer) RenderText(ctx context.Context, url string) (string, error) {
	r.calls++
	return r.text, r.err
}

func TestNormalizeHTML(t *testing.T) {
	text, err := NormalizeHTML(strings.NewReader(staticPage))
	if err != nil {
		t.Fatalf("NormalizeHTML failed: %v", err)
	}

	if strings.Contains(text, "injected") {
		t.Error("script content must be stripped")
	}
	if strings.Contains(text, "color: red") {
		t.Error("style content must be stripped")
	}
	if !strings.Contains(text, "Chesterfield 12U A1") {
		t.Errorf("non-breaking spaces should collapse to spaces, got %q", text)
	}
	if !strings.Contains(text, "MHR Rating: 86.07") {
		t.Errorf("expected rating text to survive, got %q", text)
	}
	if strings.Contains(text, "  ") {
		t.Error("whitespace runs must collapse to single spaces")
	}
}

func TestExtractPagePrimaryOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(staticPage))
	}))
	defer srv.Close()

	e := New()
	page, err := e.ExtractPage(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("ExtractPage failed: %v", err)
	}

	if page.Rendered != "" {
		t.Error("no renderer configured, rendered text should be empty")
	}
	if got := ParseRating(page.Primary); got == nil || *got != 86.07 {
		t.Errorf("expected rating 86.07 from primary text, got %v", got)
	}
}

func TestExtractPageFallsBackWhenNoRankSignal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(staticPage))
	}))
	defer srv.Close()

	stub := &stubRenderer{text: "MHR Rating: 86.07 Record: 10-4-2 3rd Missouri 12U 41st USA 12U"}
	e := New(WithRenderer(stub))

	page, err := e.ExtractPage(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("ExtractPage failed: %v", err)
	}

	if stub.calls != 1 {
		t.Errorf("expected renderer to run once, ran %d times", stub.calls)
	}
	if got := ParseStateRank(page.RankText(), nil); got == nil || *got != 3 {
		t.Errorf("expected state rank 3 from rendered text, got %v", got)
	}
}

func TestExtractPageSkipsRendererWhenRankPresent(t *testing.T) {
	withRank := strings.Replace(staticPage, "<!-- populated client-side -->", "3rd Missouri 12U", 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(withRank))
	}))
	defer srv.Close()

	stub := &stubRenderer{text: "should not be used"}
	e := New(WithRenderer(stub))

	page, err := e.ExtractPage(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("ExtractPage failed: %v", err)
	}

	if stub.calls != 0 {
		t.Error("renderer must not run when the static text already has a rank")
	}
	if page.Rendered != "" {
		t.Error("rendered text should be empty when fallback is skipped")
	}
}

func TestExtractPageRendererFailureIsSilent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(staticPage))
	}))
	defer srv.Close()

	stub := &stubRenderer{err: errors.New("no browser here")}
	e := New(WithRenderer(stub))

	page, err := e.ExtractPage(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("renderer failure must not fail extraction: %v", err)
	}
	if page.Rendered != "" {
		t.Error("rendered text should be empty after renderer failure")
	}
	if page.RankText() != page.Primary {
		t.Error("RankText should fall back to primary text")
	}
}

func TestExtractPageNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	e := New()
	if _, err := e.ExtractPage(context.Background(), srv.URL, nil); err == nil {
		t.Error("expected error for 404 response")
	}
}

func TestFetchRetriesTransientErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(staticPage))
	}))
	defer srv.Close()

	e := New()
	if _, err := e.ExtractPage(context.Background(), srv.URL, nil); err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestFetchDoesNotRetry4xx(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	e := New()
	if _, err := e.ExtractPage(context.Background(), srv.URL, nil); err == nil {
		t.Fatal("expected error for 403 response")
	}
	if attempts != 1 {
		t.Errorf("4xx must not retry, got %d attempts", attempts)
	}
}

func TestDumpHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(staticPage))
	}))
	defer srv.Close()

	dir := t.TempDir()
	e := New(WithDumpDir(dir))

	if _, err := e.ExtractPage(context.Background(), srv.URL, nil); err != nil {
		t.Fatalf("ExtractPage failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading dump dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected dumped HTML and text files, got %d entries", len(entries))
	}

	var sawHTML, sawText bool
	for _, entry := range entries {
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			t.Fatalf("reading dump: %v", err)
		}
		switch filepath.Ext(entry.Name()) {
		case ".html":
			sawHTML = true
			if !strings.Contains(string(data), "MHR Rating: 86.07") {
				t.Error("HTML dump should contain the raw page")
			}
		case ".txt":
			sawText = true
			if strings.Contains(string(data), "<div>") {
				t.Error("text dump should contain normalized text, not markup")
			}
			if !strings.Contains(string(data), "MHR Rating: 86.07") {
				t.Error("text dump should contain the extracted text")
			}
		}
	}
	if !sawHTML || !sawText {
		t.Errorf("expected .html and .txt dumps, sawHTML=%v sawText=%v", sawHTML, sawText)
	}
}
