package client

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClient(t *testing.T) {

	tt := []struct {
		name    string
		auth    string
		method  string
		path    string
		payload string
		err     string
	}{
		{name: "happy_basic", auth: Basic("Zm9vOmJhcg=="), method: "POST", path: "/knowledge/k1/documents", payload: `{"foo":"bar"}`},
		{name: "happy_bearer", auth: Bearer("t0ken"), method: "GET", path: "repos/o/r/contents/a.txt?ref=main"},
		{name: "unhappy", method: "POST", path: "/", payload: `{"foo":"bar"}`, err: "missing credentials"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			testSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

				if r.Method != tc.method {
					t.Errorf("expected method %v, got %v", tc.method, r.Method)
				}

				ct := r.Header.Get("Content-Type")
				if tc.payload != "" && ct != "application/json" {
					t.Errorf("wrong content type: %v", ct)
				}

				sa := r.Header.Get("Authorization")
				if sa != tc.auth {
					t.Errorf("wrong auth header: %v", sa)
				}

				body, err := ioutil.ReadAll(r.Body)
				if err != nil {
					t.Errorf("could not read request body: %v", err)
				}

				if string(body) != tc.payload {
					t.Errorf("expected %v, got %v", tc.payload, string(body))
				}
				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(`{"ok":true}`))
			}))
			defer testSrv.Close()

			c, err := New(testSrv.URL, tc.auth, nil)
			if err != nil {
				t.Fatalf("could not make client: %v", err)
			}

			var body []byte
			if tc.payload != "" {
				body = []byte(tc.payload)
			}

			status, res, err := c.Send(context.Background(), tc.method, tc.path, body)
			if tc.err != "" {
				if err == nil {
					t.Fatalf("expected error %q, got none", tc.err)
				}
				if msg := err.Error(); !strings.Contains(msg, tc.err) {
					t.Errorf("expected error %q, got: %q", tc.err, msg)
				}
				return
			}
			if err != nil {
				t.Fatalf("call failed: %v", err)
			}
			if status != http.StatusCreated {
				t.Errorf("expected status %v, got %v", http.StatusCreated, status)
			}
			if string(res) != `{"ok":true}` {
				t.Errorf("unexpected body: %v", string(res))
			}
		})
	}
}

func TestNewRequestKeepsBasePath(t *testing.T) {

	c, err := New("https://example.com/api/v3", Bearer("x"), nil)
	if err != nil {
		t.Fatalf("could not make client: %v", err)
	}

	req, err := c.NewRequest(context.Background(), "GET", "/repos/o/r/contents/log.txt", nil)
	if err != nil {
		t.Fatalf("could not make request: %v", err)
	}

	if got, want := req.URL.String(), "https://example.com/api/v3/repos/o/r/contents/log.txt"; got != want {
		t.Errorf("wrong target url: expected %v, got %v", want, got)
	}
	if req.Header.Get("Content-Type") != "" {
		t.Errorf("unexpected content type on empty body")
	}
}

func TestNewRejectsRelativeBase(t *testing.T) {

	_, err := New("api.github.com", Bearer("x"), nil)
	if err == nil || !strings.Contains(err.Error(), "invalid base URL") {
		t.Errorf("expected invalid base URL error, got: %v", err)
	}
}
