package docconv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/onedollarbanana/FictionForge-sub002/internal/application/importer"
)

func TestRemoteConverter_ConvertToHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != docxMIME {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"html": "<p>" + string(data) + "</p>"})
	}))
	defer srv.Close()

	input := bytes.NewReader([]byte("payload"))
	got, err := NewRemoteConverter(srv.URL, time.Second).ConvertToHTML(context.Background(), input, input.Size())
	if err != nil {
		t.Fatalf("ConvertToHTML: %v", err)
	}
	if got != "<p>payload</p>" {
		t.Errorf("got %q", got)
	}
}

func TestRemoteConverter_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "corrupt document"})
	}))
	defer srv.Close()

	input := bytes.NewReader([]byte("payload"))
	_, err := NewRemoteConverter(srv.URL, time.Second).ConvertToHTML(context.Background(), input, input.Size())
	if !errors.Is(err, ErrNotDocx) {
		t.Fatalf("err = %v, want ErrNotDocx", err)
	}
	if IsUnavailable(err) {
		t.Errorf("rejection should not be reported as unavailable")
	}
}

func TestRemoteConverter_RetriesThenUnavailable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	input := bytes.NewReader([]byte("payload"))
	_, err := NewRemoteConverter(srv.URL, time.Second).ConvertToHTML(context.Background(), input, input.Size())
	if !errors.Is(err, importer.ErrConverterUnavailable) {
		t.Fatalf("err = %v, want ErrConverterUnavailable", err)
	}
	if calls.Load() < 2 {
		t.Errorf("calls = %d, want retries", calls.Load())
	}
}
