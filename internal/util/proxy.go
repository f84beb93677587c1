package util

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/ppiankov/openalexbot/internal/model"
)

// NewProxyFunc builds a proxy selector from explicit proxy URLs.
// With neither URL set the standard environment variables apply.
func NewProxyFunc(httpProxy, httpsProxy string) (func(*http.Request) (*url.URL, error), error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment, nil
	}

	var plain, secure *url.URL
	var err error
	if httpProxy != "" {
		if plain, err = url.Parse(httpProxy); err != nil {
			return nil, fmt.Errorf("%w: http proxy %q: %v", model.ErrInvalidInput, httpProxy, err)
		}
	}
	if httpsProxy != "" {
		if secure, err = url.Parse(httpsProxy); err != nil {
			return nil, fmt.Errorf("%w: https proxy %q: %v", model.ErrInvalidInput, httpsProxy, err)
		}
	}

	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && secure != nil {
			return secure, nil
		}
		if plain != nil {
			return plain, nil
		}
		return http.ProxyFromEnvironment(req)
	}, nil
}

// NewHTTPClient returns a client honouring the configured timeout and proxies.
// jar may be nil.
func NewHTTPClient(cfg model.HTTPConfig, jar http.CookieJar) (*http.Client, error) {
	proxy, err := NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy)
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = proxy

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
		Jar:       jar,
	}, nil
}
