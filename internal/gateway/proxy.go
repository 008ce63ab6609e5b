package gateway

import (
	"context"
	"net/http"
)

// forwardedHeaders are the request headers the gateway propagates to the
// store service. X-User-ID carries the authenticated user identity; a JWT
// middleware in front of the gateway is expected to have set it.
var forwardedHeaders = []string{"Content-Type", "X-User-ID", "X-Request-ID"}

type ServiceProxy struct {
	baseURL string
	client  *http.Client
}

func NewServiceProxy(baseURL string, client *http.Client) *ServiceProxy {
	return &ServiceProxy{
		baseURL: baseURL,
		client:  client,
	}
}

func (p *ServiceProxy) ForwardRequest(ctx context.Context, r *http.Request, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, r.Method, p.baseURL+path, r.Body)
	if err != nil {
		return nil, err
	}

	for _, header := range forwardedHeaders {
		if value := r.Header.Get(header); value != "" {
			req.Header.Set(header, value)
		}
	}

	return p.client.Do(req)
}
