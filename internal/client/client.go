package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout is used when no HTTP client is supplied
const DefaultTimeout = 5 * time.Second

// Client is a HTTP client
type Client struct {
	BaseURL    *url.URL
	HTTPClient *http.Client
	// Authorization is sent verbatim as the Authorization header
	Authorization string
	// Accept overrides the default application/json Accept header
	Accept string
}

// New returns a Client for base, authenticating with the given header value
func New(base, authorization string, hc *http.Client) (*Client, error) {

	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("could not parse base URL: %v", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL: %q", base)
	}
	// keep the base path when resolving relative references
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}

	return &Client{BaseURL: u, HTTPClient: hc, Authorization: authorization}, nil
}

// Bearer formats a bearer token credential
func Bearer(token string) string {
	return "Bearer " + token
}

// Basic formats a pre-encoded basic credential
func Basic(key string) string {
	return "Basic " + key
}

// NewRequest creates a HTTP request
func (c *Client) NewRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {

	p, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, err
	}
	u := c.BaseURL.ResolveReference(p)

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	accept := c.Accept
	if accept == "" {
		accept = "application/json"
	}
	req.Header.Set("Accept", accept)

	if c.Authorization == "" {
		return nil, fmt.Errorf("missing credentials")
	}
	req.Header.Set("Authorization", c.Authorization)

	return req, nil
}

// Do makes a HTTP request
func (c *Client) Do(req *http.Request) (*http.Response, error) {

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, err
}

// Send makes a request and returns the status code and the full response body
func (c *Client) Send(ctx context.Context, method, path string, body []byte) (int, []byte, error) {

	req, err := c.NewRequest(ctx, method, path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("could not make request: %v", err)
	}

	res, err := c.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("could not call %v: %v", req.URL.Host, err)
	}
	defer res.Body.Close()

	b, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, fmt.Errorf("could not read response body: %v", err)
	}

	return res.StatusCode, b, nil
}
