package fdm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ftdconf/ftdconf/pkg/util"
)

// Request describes one API call. URL is the operation's path template;
// placeholders such as {objId} are substituted from PathParams.
type Request struct {
	Method      string
	URL         string
	Body        map[string]interface{}
	PathParams  map[string]interface{}
	QueryParams map[string]interface{}
}

// Response is the decoded result of an API call. Success reflects the HTTP
// status class; non-2xx responses are returned to the caller for
// classification rather than turned into errors here.
type Response struct {
	StatusCode int
	Success    bool
	Body       map[string]interface{}
	Raw        []byte
	Header     http.Header
}

// Send executes one JSON API call. The access token is attached as a bearer
// header; a 401 or 408 triggers exactly one token refresh and retry. A 2xx
// response with an empty body yields an empty map, and a 2xx response that
// does not decode as a JSON object is an error.
func (s *Session) Send(ctx context.Context, req *Request) (*Response, error) {
	target, err := s.buildURL(req.URL, req.PathParams, req.QueryParams)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if req.Body != nil {
		payload, err = json.Marshal(req.Body)
		if err != nil {
			return nil, err
		}
	}

	resp, err := s.doWithAuth(ctx, req.Method, target, "application/json", payload)
	if err != nil {
		return nil, err
	}

	if len(resp.Raw) == 0 {
		resp.Body = map[string]interface{}{}
		return resp, nil
	}
	var body map[string]interface{}
	if jsonErr := json.Unmarshal(resp.Raw, &body); jsonErr != nil {
		if resp.Success {
			return nil, fmt.Errorf("%w: %s %s returned HTTP %d with an undecodable body",
				util.ErrUnexpectedResponse, req.Method, req.URL, resp.StatusCode)
		}
		// Error bodies are kept raw; classification falls back to the
		// status code alone.
		resp.Body = map[string]interface{}{}
		return resp, nil
	}
	resp.Body = body
	return resp, nil
}

// doWithAuth performs an authenticated request, refreshing the access token
// and retrying once when the device reports expiry with 401 or 408.
func (s *Session) doWithAuth(ctx context.Context, method, target, contentType string, payload []byte) (*Response, error) {
	resp, err := s.do(ctx, method, target, contentType, payload)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusRequestTimeout {
		s.clearAccessToken()
		if err := s.refreshAccessToken(ctx); err != nil {
			return nil, err
		}
		s.log.Debug("access token refreshed, retrying request")
		resp, err = s.do(ctx, method, target, contentType, payload)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusRequestTimeout {
			// One refresh per request. A second expiry is a real failure.
			return nil, fmt.Errorf("%w: device rejected the refreshed access token with HTTP %d",
				util.ErrConnection, resp.StatusCode)
		}
	}
	return resp, nil
}

func (s *Session) do(ctx context.Context, method, target, contentType string, payload []byte) (*Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token := s.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	httpResp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrConnection, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", util.ErrConnection, err)
	}

	s.log.Debugf("%s %s -> %d (%d bytes)", method, target, httpResp.StatusCode, len(raw))
	return &Response{
		StatusCode: httpResp.StatusCode,
		Success:    httpResp.StatusCode >= 200 && httpResp.StatusCode < 300,
		Raw:        raw,
		Header:     httpResp.Header,
	}, nil
}

// buildURL substitutes path parameters into the template and appends the
// encoded query string.
func (s *Session) buildURL(template string, pathParams, queryParams map[string]interface{}) (string, error) {
	path := template
	for name, value := range pathParams {
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(fmt.Sprint(value)))
	}
	if i := strings.IndexByte(path, '{'); i >= 0 {
		return "", fmt.Errorf("%w: URL %s still has unresolved placeholders after substitution",
			util.ErrValidation, path)
	}

	target := s.baseURL + path
	if len(queryParams) > 0 {
		values := url.Values{}
		for name, value := range queryParams {
			values.Set(name, fmt.Sprint(value))
		}
		target += "?" + values.Encode()
	}
	return target, nil
}
