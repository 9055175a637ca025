package record

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

type stubUpstream struct {
	body  []byte
	err   error
	calls int
}

func (s *stubUpstream) Fetch(ctx context.Context, u string) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.body, nil
}

func TestRecorder_WritesFetchedPage(t *testing.T) {
	root := t.TempDir()
	up := &stubUpstream{body: []byte("<html>chart</html>")}
	r := New(root, up, zerolog.Nop())

	b, err := r.Fetch(context.Background(), "https://www.imdb.com/chart/top")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if string(b) != "<html>chart</html>" {
		t.Fatalf("内容不一致：%q", string(b))
	}

	got, err := os.ReadFile(filepath.Join(root, "www.imdb.com", "chart_top.html"))
	if err != nil {
		t.Fatalf("期望页面被记录：%v", err)
	}
	if string(got) != string(b) {
		t.Fatalf("记录内容不一致：%q", string(got))
	}

	// 只写不读：再次抓取仍然走上游。
	if _, err := r.Fetch(context.Background(), "https://www.imdb.com/chart/top"); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if up.calls != 2 {
		t.Fatalf("期望上游被调用 2 次，实际 %d", up.calls)
	}
}

func TestRecorder_FetchErrorIsNotRecorded(t *testing.T) {
	root := t.TempDir()
	boom := errors.New("boom")
	r := New(root, &stubUpstream{err: boom}, zerolog.Nop())

	if _, err := r.Fetch(context.Background(), "https://www.imdb.com/title/tt1"); !errors.Is(err, boom) {
		t.Fatalf("期望 boom，实际 %v", err)
	}
	entries, _ := os.ReadDir(root)
	if len(entries) != 0 {
		t.Fatalf("失败的抓取不应留下文件：%v", entries)
	}
}

func TestRecorder_WriteFailureDoesNotFailFetch(t *testing.T) {
	root := t.TempDir()
	// host 目录的位置被一个普通文件占用：写盘失败。
	if err := os.WriteFile(filepath.Join(root, "www.imdb.com"), []byte("x"), 0o644); err != nil {
		t.Fatalf("准备失败：%v", err)
	}
	r := New(root, &stubUpstream{body: []byte("ok")}, zerolog.Nop())
	if b, err := r.Fetch(context.Background(), "https://www.imdb.com/title/tt1"); err != nil || string(b) != "ok" {
		t.Fatalf("Fetch=(%q,%v)", string(b), err)
	}
}

func TestPagePath(t *testing.T) {
	r := New("/tmp/rec", nil, zerolog.Nop())
	cases := []struct {
		in, dir, name string
	}{
		{"https://www.imdb.com/title/tt0111161/releaseinfo", "/tmp/rec/www.imdb.com", "title_tt0111161_releaseinfo.html"},
		{"https://www.imdb.com/name/nm0000209/", "/tmp/rec/www.imdb.com", "name_nm0000209.html"},
		{"https://www.imdb.com/find?q=the+movie&s=tt", "/tmp/rec/www.imdb.com", "find__q-the-movie-s-tt.html"},
		{"http://127.0.0.1:8080/", "/tmp/rec/127.0.0.1-8080", "index.html"},
	}
	for _, c := range cases {
		dir, name, err := r.PagePath(c.in)
		if err != nil {
			t.Fatalf("PagePath(%q) 不期望错误：%v", c.in, err)
		}
		if dir != filepath.FromSlash(c.dir) || name != c.name {
			t.Fatalf("PagePath(%q)=(%q,%q)，期望 (%q,%q)", c.in, dir, name, c.dir, c.name)
		}
	}

	if _, _, err := New("", nil, zerolog.Nop()).PagePath("https://www.imdb.com/"); err == nil {
		t.Fatalf("空目录应报错")
	}
}
