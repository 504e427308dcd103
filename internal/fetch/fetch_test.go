package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch_SendsHeadersAndReturnsBody(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		assert.Equal(t, "england", r.URL.Query().Get("league"))
		w.Write([]byte("<table></table>"))
	}))
	defer srv.Close()

	c := NewClient(map[string]string{"User-Agent": "Mozilla/5.0 (test)"}, time.Second, nil)
	body, err := c.Fetch(context.Background(), srv.URL+"/latest.asp?league=england")

	require.NoError(t, err)
	assert.Equal(t, "<table></table>", body)
	assert.Equal(t, "Mozilla/5.0 (test)", gotUA)
}

func TestFetch_Non2xxIsStatusError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, strings.Repeat("x", 500), http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(nil, time.Second, nil)
	_, err := c.Fetch(context.Background(), srv.URL)

	require.ErrorIs(t, err, ErrStatus)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.True(t, strings.HasSuffix(se.Body, "..."))
	assert.Equal(t, 1, calls, "failed fetches are not retried")
}

func TestFetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(nil, 20*time.Millisecond, nil)
	_, err := c.Fetch(context.Background(), srv.URL)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrStatus)
}

func serveBytes(contentType string, body []byte) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write(body)
	}))
}

func TestFetch_DecodesCharset(t *testing.T) {
	latin1 := []byte("<table><tr><td>Atl\xe9tico</td><td>M\xe1laga</td></tr></table>")
	meta := append([]byte(`<html><head><meta charset="windows-1252"></head><body>`), latin1...)
	ascii := strings.Repeat("<!-- padding -->", 100)

	tests := []struct {
		name        string
		contentType string
		body        []byte
		want        string
	}{
		{"header charset", "text/html; charset=iso-8859-1", latin1, "Atlético"},
		{"meta charset", "text/html", meta, "Málaga"},
		{"undeclared latin-1", "text/html", latin1, "Atlético"},
		{"undeclared utf-8 past the sniffed prefix", "text/html", []byte(ascii + "<td>Atlético</td>"), "Atlético"},
		{"declared utf-8", "text/html; charset=utf-8", []byte("<td>Atlético</td>"), "Atlético"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serveBytes(tt.contentType, tt.body)
			defer srv.Close()

			body, err := NewClient(nil, time.Second, nil).Fetch(context.Background(), srv.URL)
			require.NoError(t, err)
			assert.Contains(t, body, tt.want)
			assert.True(t, utf8.ValidString(body))
		})
	}
}

func TestFetch_InvalidUTF8IsReplaced(t *testing.T) {
	srv := serveBytes("text/html; charset=utf-8", []byte("<td>Atl\xe9tico</td>"))
	defer srv.Close()

	body, err := NewClient(nil, time.Second, nil).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<td>Atl\uFFFDtico</td>", body)
}
