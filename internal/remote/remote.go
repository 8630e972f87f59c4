// Package remote implements the storage provider that forwards every
// operation over HTTP to a remote collection service. Collection names
// derive from the entity type name (first character lower-cased, then
// pluralized). Timeouts and retries are the transport's concern; this
// client performs exactly one call per operation.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mesh-intelligence/tapestry/internal/inflect"
	"github.com/mesh-intelligence/tapestry/pkg/types"
)

// Store forwards provider operations to a remote endpoint.
type Store struct {
	endpoint   string // base URL, no trailing slash
	credential string
	client     *http.Client
}

// New validates the endpoint and returns a remote provider. The credential,
// when non-empty, is sent as a bearer token on every request.
func New(endpoint, credential string) (*Store, error) {
	if err := types.ValidateEndpoint(endpoint); err != nil {
		return nil, err
	}
	return &Store{
		endpoint:   strings.TrimRight(endpoint, "/"),
		credential: credential,
		client:     http.DefaultClient,
	}, nil
}

// SetClient replaces the HTTP client, primarily for tests.
func (s *Store) SetClient(c *http.Client) { s.client = c }

// Kind returns "remote".
func (s *Store) Kind() string { return types.BackendRemote }

// Close releases nothing; connections belong to the HTTP client.
func (s *Store) Close() error { return nil }

func (s *Store) collectionURL(typeName string, parts ...string) string {
	u := s.endpoint + "/" + inflect.Collection(typeName)
	for _, p := range parts {
		u += "/" + url.PathEscape(p)
	}
	return u
}

func (s *Store) Create(ctx context.Context, typeName string, data types.Instance) (types.Instance, error) {
	return s.callInstance(ctx, http.MethodPost, s.collectionURL(typeName), data)
}

func (s *Store) Find(ctx context.Context, typeName string, filter map[string]any) ([]types.Instance, error) {
	target := s.collectionURL(typeName)
	if len(filter) > 0 {
		encoded, err := json.Marshal(filter)
		if err != nil {
			return nil, fmt.Errorf("encode filter: %w", err)
		}
		target += "?filter=" + url.QueryEscape(string(encoded))
	}

	body, status, err := s.call(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return []types.Instance{}, nil
	}
	if status != http.StatusOK {
		return nil, statusError("find", typeName, status, body)
	}

	var out []types.Instance
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode find response: %w", err)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, typeName, id string) (types.Instance, error) {
	body, status, err := s.call(ctx, http.MethodGet, s.collectionURL(typeName, id), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, statusError("get", typeName, status, body)
	}
	return decode(body)
}

func (s *Store) Update(ctx context.Context, typeName, id string, partial types.Instance) (types.Instance, error) {
	inst, err := s.callInstance(ctx, http.MethodPut, s.collectionURL(typeName, id), partial)
	if err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", typeName, id, err)
	}
	return inst, nil
}

func (s *Store) Delete(ctx context.Context, typeName, id string) (bool, error) {
	body, status, err := s.call(ctx, http.MethodDelete, s.collectionURL(typeName, id), nil)
	if err != nil {
		return false, err
	}
	switch status {
	case http.StatusOK, http.StatusNoContent:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, statusError("delete", typeName, status, body)
	}
}

func (s *Store) Perform(ctx context.Context, typeName, verb, id string, data types.Instance) (types.Instance, error) {
	inst, err := s.callInstance(ctx, http.MethodPost, s.collectionURL(typeName, id, verb), data)
	if err != nil {
		return nil, fmt.Errorf("perform %s.%s: %w", typeName, verb, err)
	}
	return inst, nil
}

// callInstance performs a mutating call whose success response is one
// JSON-encoded instance.
func (s *Store) callInstance(ctx context.Context, method, target string, payload types.Instance) (types.Instance, error) {
	body, status, err := s.call(ctx, method, target, payload)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK, http.StatusCreated:
		return decode(body)
	case http.StatusNotFound:
		return nil, types.ErrNotFound
	case http.StatusBadRequest, http.StatusMethodNotAllowed:
		return nil, types.ErrUnknownVerb
	default:
		return nil, fmt.Errorf("remote returned %d: %s", status, strings.TrimSpace(string(body)))
	}
}

func (s *Store) call(ctx context.Context, method, target string, payload any) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.credential != "" {
		req.Header.Set("Authorization", "Bearer "+s.credential)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func decode(body []byte) (types.Instance, error) {
	var inst types.Instance
	if err := json.Unmarshal(body, &inst); err != nil {
		return nil, fmt.Errorf("decode instance: %w", err)
	}
	inst[types.AttrVersion] = inst.Version()
	return inst, nil
}

func statusError(op, typeName string, status int, body []byte) error {
	return fmt.Errorf("%s %s: remote returned %d: %s", op, typeName, status, strings.TrimSpace(string(body)))
}
