package imdb

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/John-Robertt/imdbx/internal/infra/httpx"
)

const testBase = "https://imdb.test"

// stubFetcher 按 URL 返回固定页面，并记录每个 URL 的请求次数。
type stubFetcher struct {
	mu    sync.Mutex
	pages map[string][]byte
	calls map[string]int
}

// newStub 的 key 是相对站点根的路径，value 是 testdata 下的文件名。
func newStub(t *testing.T, files map[string]string) *stubFetcher {
	t.Helper()
	s := &stubFetcher{pages: map[string][]byte{}, calls: map[string]int{}}
	for p, name := range files {
		b, err := os.ReadFile(filepath.Join("testdata", name))
		if err != nil {
			t.Fatalf("读取 fixture 失败：%v", err)
		}
		s.pages[testBase+p] = b
	}
	return s
}

func (s *stubFetcher) put(path, html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[testBase+path] = []byte(html)
}

func (s *stubFetcher) Fetch(ctx context.Context, u string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[u]++
	b, ok := s.pages[u]
	if !ok {
		return nil, &httpx.StatusError{URL: u, StatusCode: 404}
	}
	return b, nil
}

func (s *stubFetcher) count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[testBase+path]
}

func (s *stubFetcher) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func newTestClient(f Fetcher) *Client {
	return New(f, WithBaseURL(testBase+"/"))
}

var moviePages = map[string]string{
	"/title/tt0111161/releaseinfo": "releaseinfo.html",
	"/title/tt0111161":             "title.html",
	"/title/tt0111161/fullcredits": "fullcredits.html",
}
