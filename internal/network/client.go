package network

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// ClientFactory creates HTTP clients for calls to the summarization service.
// All clients share one transport so idle connections are pooled and reaped.
type ClientFactory struct {
	proxyURL       string
	transport      http.RoundTripper // nil uses http.DefaultTransport
	testHTTPClient *http.Client      // For testing only
}

// NewClientFactory builds the shared transport for proxyURL. An empty
// proxyURL connects directly; an unusable one is an error, never a silent
// direct connection.
func NewClientFactory(proxyURL string) (*ClientFactory, error) {
	if proxyURL == "" {
		return NewDirectClientFactory(), nil
	}
	transport, err := newTransportWithProxy(proxyURL)
	if err != nil {
		return nil, err
	}
	return &ClientFactory{proxyURL: proxyURL, transport: transport}, nil
}

// NewDirectClientFactory creates a factory without a proxy.
func NewDirectClientFactory() *ClientFactory {
	return &ClientFactory{}
}

// NewClientFactoryForTest creates a client factory that always hands out client.
func NewClientFactoryForTest(client *http.Client) *ClientFactory {
	return &ClientFactory{testHTTPClient: client}
}

// NewHTTPClient returns a client on the shared transport. A zero timeout
// leaves the transport defaults in charge.
func (f *ClientFactory) NewHTTPClient(_ context.Context, timeout time.Duration) *http.Client {
	if f.testHTTPClient != nil {
		return f.testHTTPClient
	}
	return &http.Client{Timeout: timeout, Transport: f.transport}
}

// ProxyURL returns the configured proxy URL, empty for direct connections.
func (f *ClientFactory) ProxyURL() string {
	return f.proxyURL
}

// ParseProxyURL checks that raw names a proxy the factory can use:
// http, https, socks5 or socks5h with a host.
func ParseProxyURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("proxy url %q has no host", raw)
	}
	return parsed, nil
}

// newTransportWithProxy clones the default transport so pooling and idle
// timeouts stay in place. SOCKS proxies go through golang.org/x/net/proxy;
// HTTP/HTTPS proxies use http.ProxyURL.
func newTransportWithProxy(proxyURL string) (*http.Transport, error) {
	parsed, err := ParseProxyURL(proxyURL)
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()

	if !strings.HasPrefix(strings.ToLower(parsed.Scheme), "socks") {
		transport.Proxy = http.ProxyURL(parsed)
		return transport, nil
	}

	var auth *proxy.Auth
	if parsed.User != nil {
		auth = &proxy.Auth{
			User: parsed.User.Username(),
		}
		if password, ok := parsed.User.Password(); ok {
			auth.Password = password
		}
	}

	dialer, err := proxy.SOCKS5("tcp", parsed.Host, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("socks5 dialer: %w", err)
	}

	transport.Proxy = nil
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = cd.DialContext
	} else {
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}
	return transport, nil
}
