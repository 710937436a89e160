package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fwojciec/glimpse"
	main "github.com/fwojciec/glimpse/cmd/glimpse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articlePage = `<!DOCTYPE html>
<html><head>
<title>Fallback title</title>
<meta property="og:title" content="Launch notes">
<meta property="og:description" content="What shipped this week.">
<meta property="og:image" content="/img/cover.jpg">
</head><body><article><p>Body</p></article></body></html>`

func TestMain_Run_StaticPreviewSaveAndRecent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(articlePage))
	}))
	defer srv.Close()

	dbPath := filepath.Join(t.TempDir(), "test.db")

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	m := main.NewMain()
	m.DBPath = dbPath
	err := m.Run(context.Background(), []string{"preview", "--static", "--save", "--rate", "0", srv.URL + "/post"}, stdout, stderr)
	require.NoError(t, err, stderr.String())

	var item glimpse.Item
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &item))
	assert.Equal(t, srv.URL+"/post", item.URL)
	require.NotNil(t, item.Title)
	assert.Equal(t, "Launch notes", *item.Title)
	require.NotNil(t, item.Image)
	assert.Equal(t, srv.URL+"/img/cover.jpg", *item.Image)
	assert.True(t, item.Success)

	stdout.Reset()
	m = main.NewMain()
	m.DBPath = dbPath
	err = m.Run(context.Background(), []string{"recent"}, stdout, stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), srv.URL+"/post")
	assert.Contains(t, stdout.String(), "Launch notes")
}

func TestMain_Run_RulesFile(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Shop</title></head><body><h2 class="product">Blue kettle</h2></body></html>`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(rulesPath, []byte(`rules:
  - domain: 127.0.0.1
    name: Local shop
    titleSelector: h2.product
`), 0o644))

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	m := main.NewMain()
	m.DBPath = filepath.Join(dir, "test.db")
	err := m.Run(context.Background(), []string{"--rules", rulesPath, "preview", "--static", srv.URL}, stdout, stderr)
	require.NoError(t, err, stderr.String())

	var item glimpse.Item
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &item))
	require.NotNil(t, item.Title)
	assert.Equal(t, "Blue kettle", *item.Title)
	require.NotNil(t, item.SiteName)
	assert.Equal(t, "Local shop", *item.SiteName)
}

func TestMain_Run_MissingRulesFile(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	m.DBPath = filepath.Join(t.TempDir(), "test.db")

	err := m.Run(context.Background(), []string{"--rules", "/nonexistent/rules.yaml", "recent"}, &bytes.Buffer{}, &bytes.Buffer{})

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "site rules"))
}
