package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func fastClient() *Client {
	return NewClient(ClientOptions{
		Timeout:         5 * time.Second,
		RetryAttempts:   3,
		RetryBackoff:    time.Millisecond,
		RetryMaxBackoff: 5 * time.Millisecond,
	})
}

func TestClientHead(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
		w.Header().Set("Content-Length", "1024")
		w.Header().Set("Accept-Ranges", "bytes")
		w.Header().Set("ETag", `W/"abc123"`)
	}))
	defer server.Close()

	info, err := fastClient().Head(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if info.Size != 1024 {
		t.Errorf("Size = %d, want 1024", info.Size)
	}
	if !info.AcceptsRanges {
		t.Error("AcceptsRanges = false, want true")
	}
	if info.ETag != "abc123" {
		t.Errorf("ETag = %q, want abc123 (weak prefix and quotes stripped)", info.ETag)
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, "payload")
	}))
	defer server.Close()

	body, err := fastClient().Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer body.Close()

	data, _ := io.ReadAll(body)
	if string(data) != "payload" {
		t.Errorf("body = %q, want payload", data)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestClientPermanentErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := fastClient().Get(context.Background(), server.URL)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (404 must not be retried)", calls.Load())
	}
}

func TestClientGivesUpAfterRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := fastClient().Get(context.Background(), server.URL)
	if !errors.Is(err, ErrServerError) {
		t.Fatalf("err = %v, want wrapped ErrServerError", err)
	}
}

func TestClientGetFrom(t *testing.T) {
	data := "0123456789abcdef"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rangeHeader := r.Header.Get("Range")
		if !strings.HasPrefix(rangeHeader, "bytes=") {
			t.Errorf("missing Range header")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		offset, _ := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(rangeHeader, "bytes="), "-"))
		w.Header().Set("Content-Range",
			"bytes "+strconv.Itoa(offset)+"-"+strconv.Itoa(len(data)-1)+"/"+strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusPartialContent)
		io.WriteString(w, data[offset:])
	}))
	defer server.Close()

	body, err := fastClient().GetFrom(context.Background(), server.URL, 10)
	if err != nil {
		t.Fatalf("GetFrom: %v", err)
	}
	defer body.Close()

	got, _ := io.ReadAll(body)
	if string(got) != data[10:] {
		t.Errorf("body = %q, want %q", got, data[10:])
	}
}

func TestClientGetFromRangeIgnored(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "whole file regardless of range")
	}))
	defer server.Close()

	_, err := fastClient().GetFrom(context.Background(), server.URL, 10)
	if !errors.Is(err, ErrRangeNotSupported) {
		t.Fatalf("err = %v, want ErrRangeNotSupported", err)
	}
}
