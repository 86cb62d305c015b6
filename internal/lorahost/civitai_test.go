package lorahost

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"arcticd/pkg/types"
)

var testLora = types.Lora{ID: "detail-tweaker-xl", DisplayName: "Detail Tweaker XL", Family: "detail", HostRef: "135867"}

func TestMetadataParsesDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/model-versions/135867" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"name": "v1.0",
			"description": "<p>Adds <b>detail</b>.</p>",
			"trainedWords": ["add detail"],
			"creator": {"username": "maker", "url": "https://host/maker"},
			"settings": {"strength": 0.8},
			"images": [{"url": "https://cdn.host/p.jpeg?width=450", "type": "image"}]
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, zerolog.Nop())
	md, err := c.Metadata(context.Background(), testLora, "")
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if md.Creator != "maker" || md.CreatorURL != "https://host/maker" {
		t.Fatalf("creator: %+v", md)
	}
	if md.Strength != "0.80" {
		t.Fatalf("strength = %q", md.Strength)
	}
	if len(md.Triggers) != 1 || md.Triggers[0] != "add detail" {
		t.Fatalf("triggers: %v", md.Triggers)
	}
	if md.Description != "Adds detail." {
		t.Fatalf("description = %q", md.Description)
	}
	if md.PreviewKind != "image" {
		t.Fatalf("preview kind = %q", md.PreviewKind)
	}
}

func TestMetadataDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name": "bare"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, zerolog.Nop())
	md, err := c.Metadata(context.Background(), testLora, "")
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if md.Strength != "Not provided" {
		t.Fatalf("strength = %q", md.Strength)
	}
	if md.Creator != "Unknown creator" {
		t.Fatalf("creator = %q", md.Creator)
	}
	if md.Description != "No description available." {
		t.Fatalf("description = %q", md.Description)
	}
	if md.PreviewKind != "none" {
		t.Fatalf("preview kind = %q", md.PreviewKind)
	}
}

func TestMetadataVideoPreviewByExtension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"images": [{"url": "https://cdn.host/clip.mp4?f=1", "type": ""}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, zerolog.Nop())
	md, err := c.Metadata(context.Background(), testLora, "")
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if md.PreviewKind != "video" {
		t.Fatalf("preview kind = %q", md.PreviewKind)
	}
}

func TestMetadataErrorMapping(t *testing.T) {
	for _, tc := range []struct {
		status int
		check  func(error) bool
		name   string
	}{
		{http.StatusUnauthorized, IsUnauthorized, "unauthorized"},
		{http.StatusForbidden, IsUnauthorized, "forbidden"},
		{http.StatusNotFound, IsNotFound, "not found"},
		{http.StatusBadGateway, IsTransient, "transient"},
	} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		c := New(srv.URL, zerolog.Nop())
		_, err := c.Metadata(context.Background(), testLora, "")
		srv.Close()
		if err == nil || !tc.check(err) {
			t.Fatalf("%s: got %v", tc.name, err)
		}
	}
}

func TestMetadataSendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, zerolog.Nop())
	if _, err := c.Metadata(context.Background(), testLora, "tok"); err != nil {
		t.Fatalf("metadata with token: %v", err)
	}
}

func TestDownloadSpec(t *testing.T) {
	c := New("https://host.example", zerolog.Nop())
	spec := c.DownloadSpec(types.ResolvedLora{
		Lora:     testLora,
		DestDir:  "/r/models/loras/detail",
		DestPath: "/r/models/loras/detail/detail_tweaker_xl.safetensors",
	}, "tok")
	if spec.SourceURL != "https://host.example/api/download/models/135867" {
		t.Fatalf("url = %q", spec.SourceURL)
	}
	if spec.Name != "detail_tweaker_xl.safetensors" {
		t.Fatalf("name = %q", spec.Name)
	}
	if spec.AuthBearer != "tok" || spec.Category != "loras" {
		t.Fatalf("spec: %+v", spec)
	}
}

func TestIsVideoURL(t *testing.T) {
	cases := map[string]bool{
		"https://x/v.mp4":          true,
		"https://x/v.MP4":          true,
		"https://x/v.webm?w=450":   true,
		"https://x/v.mov":          true,
		"https://x/p.jpeg":         false,
		"https://x/p.jpeg?x=.mp4x": false,
	}
	for url, want := range cases {
		if got := IsVideoURL(url); got != want {
			t.Fatalf("IsVideoURL(%q) = %v", url, got)
		}
	}
}

func TestStripHTML(t *testing.T) {
	if got := StripHTML("<p>Hello <b>world</b></p>"); got != "Hello world" {
		t.Fatalf("got %q", got)
	}
	if got := StripHTML("plain"); got != "plain" {
		t.Fatalf("got %q", got)
	}
	if got := StripHTML("  <div> </div> "); got != "" {
		t.Fatalf("got %q", got)
	}
}
