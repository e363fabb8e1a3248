package testsupport

import (
	"archive/zip"
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// ZipMember is one file placed into a test archive.
type ZipMember struct {
	Name string
	Data []byte
}

// BuildZip assembles an in-memory zip archive with the members in order.
// Members are deflated so extraction exercises the decompressor.
func BuildZip(t testing.TB, members ...ZipMember) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, m := range members {
		f, err := w.CreateHeader(&zip.FileHeader{Name: m.Name, Method: zip.Deflate, Modified: time.Unix(1700000000, 0)})
		if err != nil {
			t.Fatalf("zip create %s: %v", m.Name, err)
		}
		if _, err := f.Write(m.Data); err != nil {
			t.Fatalf("zip write %s: %v", m.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// ZipServer serves an archive with range support and counts requests.
type ZipServer struct {
	URL      string
	requests atomic.Int64
}

// Requests returns how many HTTP requests reached the server.
func (s *ZipServer) Requests() int64 {
	return s.requests.Load()
}

// ServeZip starts an httptest server serving data at /archive.zip. Range
// handling comes from http.ServeContent. The server is closed on cleanup.
func ServeZip(t testing.TB, data []byte) *ZipServer {
	t.Helper()

	zs := &ZipServer{}
	modTime := time.Unix(1700000000, 0)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zs.requests.Add(1)
		if r.URL.Path != "/archive.zip" {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, "archive.zip", modTime, bytes.NewReader(data))
	}))
	t.Cleanup(srv.Close)
	zs.URL = srv.URL + "/archive.zip"
	return zs
}

// ServeWithoutRanges starts a server that ignores Range headers.
func ServeWithoutRanges(t testing.TB, data []byte) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/archive.zip"
}
