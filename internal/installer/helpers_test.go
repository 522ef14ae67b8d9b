package installer

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// archiveEntry describes one file, directory (name ending in "/") or symlink in a fixture archive.
type archiveEntry struct {
	name    string
	body    string
	mode    os.FileMode
	symlink string
}

// zipBytes builds an in-memory zip archive.
func zipBytes(t *testing.T, entries []archiveEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		hdr := &zip.FileHeader{Name: e.name, Method: zip.Deflate}
		body := e.body
		switch {
		case e.symlink != "":
			hdr.SetMode(os.ModeSymlink | 0o777)
			body = e.symlink
		case e.mode != 0:
			hdr.SetMode(e.mode)
		}
		w, err := zw.CreateHeader(hdr)
		require.NoError(t, err)
		if !strings.HasSuffix(e.name, "/") {
			_, err = w.Write([]byte(body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// writeZip writes a zip archive built from entries to path.
func writeZip(t *testing.T, path string, entries []archiveEntry) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, zipBytes(t, entries), 0o644))
}

// writeTarGz writes a gzip-compressed tar archive built from entries to path.
func writeTarGz(t *testing.T, path string, entries []archiveEntry) {
	t.Helper()

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0o644}
		switch {
		case e.symlink != "":
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = e.symlink
		case strings.HasSuffix(e.name, "/"):
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0o755
		default:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.body))
			if e.mode != 0 {
				hdr.Mode = int64(e.mode.Perm())
			}
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if hdr.Typeflag == tar.TypeReg {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

// copyFixture copies a file from testdata into a fresh temp dir, keeping its
// name so the extension still selects the archive format.
func copyFixture(t *testing.T, name string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// buildArchive is the standard fixture: one top-level folder holding A and B.
func buildArchive(t *testing.T) []byte {
	t.Helper()
	return zipBytes(t, []archiveEntry{
		{name: "blender-4.1.0-linux64/"},
		{name: "blender-4.1.0-linux64/A", body: "alpha", mode: 0o755},
		{name: "blender-4.1.0-linux64/B", body: "bravo"},
	})
}

// buildServer serves a listing page at /daily/ and archive bytes at every
// other path under /daily/, counting archive requests.
type buildServer struct {
	*httptest.Server
	listing      atomic.Value
	archive      []byte
	archiveHits  atomic.Int32
	listingHits  atomic.Int32
	archiveCode  atomic.Int32
	truncateBody atomic.Bool
}

func newBuildServer(t *testing.T, listing string, archive []byte) *buildServer {
	t.Helper()

	s := &buildServer{archive: archive}
	s.archiveCode.Store(http.StatusOK)
	s.listing.Store(listing)
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/daily/" {
			s.listingHits.Add(1)
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(s.listing.Load().(string)))
			return
		}
		s.archiveHits.Add(1)
		if code := int(s.archiveCode.Load()); code != http.StatusOK {
			w.WriteHeader(code)
			return
		}
		body := s.archive
		if s.truncateBody.Load() {
			body = body[:len(body)/2]
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *buildServer) listingURL() string {
	return s.URL + "/daily/"
}

// listingPage wraps hrefs in a minimal build listing document.
func listingPage(hrefs ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><ul>\n")
	for _, href := range hrefs {
		b.WriteString(`<li><a href="` + href + `">` + href + "</a></li>\n")
	}
	b.WriteString("</ul></body></html>\n")
	return b.String()
}
