package channel_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kpaxton/eventry"
	"github.com/kpaxton/eventry/channel"
)

func TestHTTP_BinaryModePutsAttributesInHeadersAndDataInBody(t *testing.T) {
	var gotBody []byte
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotHeaders = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e := eventry.NewEvent("my-id", "my-source", "my-type", map[string]string{"hello": "world"}).
		WithTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	ch := channel.HTTP{URL: srv.URL, Mode: channel.Binary}
	if err := channel.PublishEvent(t.Context(), ch, e); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if got := gotHeaders.Get("ce-id"); got != "my-id" {
		t.Fatalf("expected ce-id header %q, got %q", "my-id", got)
	}
	if got := gotHeaders.Get("ce-source"); got != "my-source" {
		t.Fatalf("expected ce-source header %q, got %q", "my-source", got)
	}
	if got := gotHeaders.Get("ce-type"); got != "my-type" {
		t.Fatalf("expected ce-type header %q, got %q", "my-type", got)
	}
	if got := gotHeaders.Get("ce-specversion"); got != eventry.SpecVersion {
		t.Fatalf("expected ce-specversion header %q, got %q", eventry.SpecVersion, got)
	}
	if got := gotHeaders.Get("content-type"); got != "application/json" {
		t.Fatalf("expected content-type application/json, got %q", got)
	}
	if string(gotBody) != `{"hello":"world"}` {
		t.Fatalf("expected body to be the raw data payload, got %s", gotBody)
	}
}

func TestHTTP_StructuredModePutsTheWholeEventInBody(t *testing.T) {
	var gotBody []byte
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotContentType = r.Header.Get("content-type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e := eventry.NewEvent("my-id", "my-source", "my-type", map[string]string{"hello": "world"})

	ch := channel.HTTP{URL: srv.URL, Mode: channel.Structured}
	if err := channel.PublishEvent(t.Context(), ch, e); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if gotContentType != "application/cloudevents+json" {
		t.Fatalf("expected structured content-type, got %q", gotContentType)
	}

	decoded, err := eventry.UnmarshalStructuredJSON(gotBody, nil)
	if err != nil {
		t.Fatalf("decode published body: %v", err)
	}
	if decoded.ID != "my-id" || decoded.Source != "my-source" || decoded.Type != "my-type" {
		t.Fatalf("unexpected decoded event: %+v", decoded)
	}
}

func TestHTTP_ZeroValueModeDefaultsToBinary(t *testing.T) {
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ch := channel.HTTP{URL: srv.URL}
	if err := channel.PublishEvent(t.Context(), ch, eventry.NewEvent("1", "s", "T", nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if gotHeaders.Get("ce-id") != "1" {
		t.Fatalf("expected the zero HTTPMode value to behave as Binary")
	}
}

func TestHTTP_NonSuccessStatusIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ch := channel.HTTP{URL: srv.URL}
	if err := channel.PublishEvent(t.Context(), ch, eventry.NewEvent("1", "s", "T", nil)); err == nil {
		t.Fatalf("expected a non-2xx/3xx response to surface as an error")
	}
}
