package playground_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"net/http/httputil"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/lithammer/dedent"
	"github.com/livebud/sfcmod/internal/config"
	"github.com/livebud/sfcmod/internal/playground"
	"github.com/livebud/sfcmod/internal/preset"
	"github.com/livebud/sfcmod/internal/registry"
	"github.com/livebud/sfcmod/internal/watcher"
	"github.com/matryer/is"
	"github.com/matthewmueller/diff"
	"github.com/matthewmueller/virt"
	"github.com/rs/zerolog"
)

var newlines = regexp.MustCompile(`\n[\t ]*`)

// compact drops the line breaks the template printer puts around children
func compact(s string) string {
	return newlines.ReplaceAllString(s, "")
}

func load(t testing.TB, fsys virt.Map) (*playground.Server, string) {
	t.Helper()
	dir := t.TempDir()
	if err := virt.Sync(fsys, dir); err != nil {
		t.Fatal(err)
	}
	r := registry.New(zerolog.Nop())
	if err := preset.Register(r); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	return playground.New(zerolog.Nop(), r, cfg, dir), dir
}

func equal(t testing.TB, handler http.Handler, req *http.Request, expect string) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	res := rec.Result()
	defer res.Body.Close()
	actual, err := httputil.DumpResponse(res, true)
	if err != nil {
		t.Fatal(err)
	}
	diff.TestHTTP(t, string(actual), expect)
}

func contains(t testing.TB, handler http.Handler, req *http.Request, contains ...string) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	res := rec.Result()
	defer res.Body.Close()
	actual, err := httputil.DumpResponse(res, true)
	if err != nil {
		t.Fatal(err)
	}
	for _, contain := range contains {
		if !strings.Contains(string(actual), contain) {
			t.Fatalf("expected %s to contain %q", string(actual), contain)
		}
	}
}

func body(t testing.TB, handler http.Handler, req *http.Request) string {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Body.String()
}

func TestIndex(t *testing.T) {
	server, _ := load(t, virt.Map{})
	equal(t, server, httptest.NewRequest("GET", "/", nil), `
		HTTP/1.1 200 OK
		Connection: close
		Content-Type: text/plain; charset=utf-8

		Hello
	`)
}

func TestMeta(t *testing.T) {
	server, _ := load(t, virt.Map{
		"sfcmod.yaml": dedent.Dedent(`
			presets:
			  - name: headings
			    transformation: root-heading
			    params:
			      rootHeading: 1
		`),
	})
	contains(t, server, httptest.NewRequest("GET", "/meta", nil),
		`HTTP/1.1 200 OK`,
		`Content-Type: application/json`,
		`"name": "add-use-strict"`,
		`"blocks": [
        "script",
        "template",
        "style"
      ]`,
		`"name": "headings"`,
		`"transformation": "root-heading"`,
		`"rootHeading": 1`,
	)
}

func TestFiles(t *testing.T) {
	is := is.New(t)
	server, dir := load(t, virt.Map{
		"add-use-strict/input.vue": "<script>a()</script>\n",
	})
	equal(t, server, httptest.NewRequest("GET", "/files/add-use-strict/input.vue", nil), `
		HTTP/1.1 200 OK
		Connection: close
		Content-Type: text/plain; charset=utf-8

		<script>a()</script>
	`)
	contains(t, server, httptest.NewRequest("GET", "/files/missing.vue", nil), `HTTP/1.1 404 Not Found`)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest("POST", "/files/root-heading/input.vue", strings.NewReader("<template><h2>a</h2></template>")))
	is.Equal(rec.Code, 200)
	code, err := os.ReadFile(filepath.Join(dir, "root-heading", "input.vue"))
	is.NoErr(err)
	is.Equal(string(code), "<template><h2>a</h2></template>")
}

func TestRun(t *testing.T) {
	is := is.New(t)
	server, _ := load(t, virt.Map{
		"sfcmod.yaml": "presets:\n  - name: h1\n    transformation: root-heading\n    params: {rootHeading: 1}\n",
	})
	equal(t, server, httptest.NewRequest("POST", "/run/add-use-strict?path=a.js", strings.NewReader("a()\n")), `
		HTTP/1.1 200 OK
		Connection: close
		Content-Type: text/plain; charset=utf-8

		'use strict';
		a()
	`)
	equal(t, server, httptest.NewRequest("POST", "/run/h1", strings.NewReader("<template>\n  <h3>a</h3>\n</template>\n")), `
		HTTP/1.1 200 OK
		Connection: close
		Content-Type: text/plain; charset=utf-8

		<template>
		<h1>
		a
		</h1>
		</template>
	`)
	is.Equal(compact(body(t, server, httptest.NewRequest("POST", "/run/root-heading?param=rootHeading=2", strings.NewReader("<template>\n  <h3>a</h3>\n</template>\n")))), "<template><h2>a</h2></template>")
	contains(t, server, httptest.NewRequest("POST", "/run/root-heading?param=rootHeading=9", strings.NewReader("<template>\n  <h3>a</h3>\n</template>\n")),
		"HTTP/1.1 200 OK",
		"/* ERROR */\n\n",
		"Invalid option --root-heading",
	)
	contains(t, server, httptest.NewRequest("POST", "/run/nope", strings.NewReader("a()")),
		"/* ERROR */\n\nCannot find transformation module nope\n",
	)
}

func TestEvents(t *testing.T) {
	is := is.New(t)
	server, dir := load(t, virt.Map{})
	ts := httptest.NewServer(server)
	defer ts.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", ts.URL+"/events", nil)
	is.NoErr(err)
	res, err := http.DefaultClient.Do(req)
	is.NoErr(err)
	defer res.Body.Close()
	is.Equal(res.Header.Get("Content-Type"), "text/event-stream")
	is.NoErr(server.Publish([]watcher.Event{{Op: watcher.Update, Path: filepath.Join(dir, "a", "input.vue")}}))
	reader := bufio.NewReader(res.Body)
	line, err := reader.ReadString('\n')
	is.NoErr(err)
	is.Equal(line, "event: change\n")
	line, err = reader.ReadString('\n')
	is.NoErr(err)
	is.Equal(line, `data: {"event":"update","path":"a/input.vue"}`+"\n")
}
