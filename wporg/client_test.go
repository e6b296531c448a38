package wporg

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wpcompare/retry"
)

const infoJSON = `{
  "name": "Hello &amp; Goodbye",
  "slug": "hello-dolly",
  "version": "1.7.2",
  "author": "<a href=\"https://ma.tt/\">Matt Mullenweg</a>",
  "requires": "4.6",
  "tested": false,
  "requires_php": false,
  "rating": 80,
  "num_ratings": 12,
  "active_installs": 500000,
  "downloaded": 1234567,
  "last_updated": "2024-01-01 3:04pm GMT",
  "added": "2008-05-19",
  "sections": {
    "description": "<p>This is not just a <strong>plugin</strong>.</p><ul><li>one</li><li>two</li></ul>",
    "changelog": ""
  },
  "tags": {"quotes": "Quotes", "dolly": "Dolly"},
  "versions": {"1.6": "u", "1.7.2": "u", "1.10": "u", "trunk": "u"}
}`

func fastPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2,
		Retryable:    retry.IsRetryable,
	}
}

func testClient(srv *httptest.Server, opts ...Option) *Client {
	opts = append([]Option{
		WithBaseURLs(srv.URL, srv.URL),
		WithHTTPClient(srv.Client()),
		WithRetryPolicy(fastPolicy()),
	}, opts...)
	return NewClient(opts...)
}

func makeZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/plugins/info/1.2/", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "query_plugins", q.Get("action"))
		assert.Equal(t, "contact form", q.Get("request[search]"))
		assert.Equal(t, "2", q.Get("request[page]"))
		assert.Equal(t, "5", q.Get("request[per_page]"))
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"info":{"page":2,"pages":9,"results":42},"plugins":[
			{"slug":"contact-form-7","name":"Contact Form 7","version":"5.9","rating":90,"active_installs":5000000},
			{"slug":"wpforms-lite","name":"WPForms","version":"1.8"}]}`))
	}))
	defer srv.Close()

	res, err := testClient(srv).Search(context.Background(), " contact form ", 2, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 9, res.Pages)
	assert.Equal(t, 42, res.Results)
	require.Len(t, res.Plugins, 2)
	assert.Equal(t, "contact-form-7", res.Plugins[0].Slug)
	assert.Equal(t, int64(5000000), res.Plugins[0].ActiveInstalls)
}

func TestSearchRequiresQuery(t *testing.T) {
	_, err := NewClient().Search(context.Background(), "  ", 1, 10)
	assert.Error(t, err)
}

func TestInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "plugin_information", r.URL.Query().Get("action"))
		assert.Equal(t, "hello-dolly", r.URL.Query().Get("request[slug]"))
		_, _ = w.Write([]byte(infoJSON))
	}))
	defer srv.Close()

	info, err := testClient(srv).Info(context.Background(), "hello-dolly")
	require.NoError(t, err)

	assert.Equal(t, "Hello & Goodbye", info.Name)
	assert.Equal(t, "Matt Mullenweg", info.Author)
	assert.Equal(t, "1.7.2", info.Version)
	assert.Equal(t, "4.6", info.Requires)
	assert.Empty(t, info.Tested, "false fields read as empty")
	assert.Equal(t, []string{"Dolly", "Quotes"}, info.Tags)
	assert.Equal(t, []string{"1.10", "1.7.2", "1.6"}, info.Versions)
	assert.Contains(t, info.Sections["description"], "This is not just a **plugin**.")
	assert.Contains(t, info.Sections["description"], "- one\n- two")
	assert.NotContains(t, info.Sections, "changelog")
}

func TestInfoNotFound(t *testing.T) {
	t.Run("404", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Plugin not found."}`))
		}))
		defer srv.Close()

		_, err := testClient(srv).Info(context.Background(), "nope")
		var nf *NotFoundError
		require.True(t, errors.As(err, &nf), "got %v", err)
		assert.Equal(t, "nope", nf.Slug)
	})

	t.Run("error field", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":"Plugin not found."}`))
		}))
		defer srv.Close()

		_, err := testClient(srv).Info(context.Background(), "nope")
		var nf *NotFoundError
		assert.True(t, errors.As(err, &nf))
	})
}

func TestInfoRejectsBadSlug(t *testing.T) {
	_, err := NewClient().Info(context.Background(), "../etc/passwd")
	assert.Error(t, err)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(infoJSON))
	}))
	defer srv.Close()

	_, err := testClient(srv).Info(context.Background(), "hello-dolly")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := testClient(srv).Search(context.Background(), "x", 1, 1)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDownloadURL(t *testing.T) {
	c := NewClient(WithBaseURLs("", "https://dl.example/"))
	assert.Equal(t, "https://dl.example/plugin/akismet.zip", c.DownloadURL("akismet", ""))
	assert.Equal(t, "https://dl.example/plugin/akismet.zip", c.DownloadURL("akismet", "latest"))
	assert.Equal(t, "https://dl.example/plugin/akismet.5.3.zip", c.DownloadURL("akismet", "5.3"))
}

func TestDownload(t *testing.T) {
	payload := makeZip(t, map[string]string{"akismet/akismet.php": "<?php\n"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/plugin/akismet.5.3.zip", r.URL.Path)
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	var lastDone int64
	n, err := testClient(srv).Download(context.Background(), "akismet", "5.3", &buf, func(done, total int64) {
		lastDone = done
	})
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)
	assert.Equal(t, payload, buf.Bytes())
	assert.Equal(t, n, lastDone)
}

func TestDownloadRejectsNonZip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>maintenance</body></html>"))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	_, err := testClient(srv).Download(context.Background(), "akismet", "", &buf, nil)
	require.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestDownloadEnforcesLimit(t *testing.T) {
	payload := makeZip(t, map[string]string{"big/big.php": string(bytes.Repeat([]byte("x"), 8192))})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	_, err := testClient(srv, WithMaxDownloadBytes(1024)).Download(context.Background(), "big", "", &bytes.Buffer{}, nil)
	assert.Error(t, err)
}

func TestDownloadNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := testClient(srv).Download(context.Background(), "ghost", "1.0", &bytes.Buffer{}, nil)
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestSortVersions(t *testing.T) {
	got := SortVersions([]string{"1.2", "beta", "1.10.0", "2.0-rc1", "1.9"})
	assert.Equal(t, []string{"2.0-rc1", "1.10.0", "1.9", "1.2", "beta"}, got)
}

func TestValidateSlug(t *testing.T) {
	assert.NoError(t, ValidateSlug("contact-form-7"))
	assert.Error(t, ValidateSlug(""))
	assert.Error(t, ValidateSlug("-lead"))
	assert.Error(t, ValidateSlug("Upper"))
	assert.Error(t, ValidateSlug("a/b"))
}
