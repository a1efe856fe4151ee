package netx

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestUploadToPresignedURL(t *testing.T) {
	file := []byte("PK\x03\x04 pretend pass bundle")

	t.Run("success 200 OK", func(t *testing.T) {
		var gotBody []byte
		var gotCT string
		var gotMethod string

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotCT = r.Header.Get("Content-Type")
			body, _ := io.ReadAll(r.Body)
			_ = r.Body.Close()
			gotBody = body
			w.WriteHeader(http.StatusOK)
		}))
		defer ts.Close()

		err := UploadToPresignedURL(ts.URL+"/some/presigned?X-Amz-Signature=abc", "application/vnd.apple.pkpass", file)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotMethod != http.MethodPut {
			t.Fatalf("method = %q, want PUT", gotMethod)
		}
		if gotCT != "application/vnd.apple.pkpass" {
			t.Fatalf("Content-Type = %q, want application/vnd.apple.pkpass", gotCT)
		}
		if !bytes.Equal(gotBody, file) {
			t.Fatalf("body = %q, want %q", string(gotBody), string(file))
		}
	})

	t.Run("non-200 -> error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer ts.Close()

		err := UploadToPresignedURL(ts.URL, "application/octet-stream", file)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "upload failed: 403") {
			t.Fatalf("error = %q, want to contain 403", err.Error())
		}
	})

	t.Run("network error", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		ts.Close()

		err := UploadToPresignedURL(ts.URL, "application/octet-stream", file)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}
