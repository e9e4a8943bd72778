// Package helpers provides common test utilities for the gateway tests:
// an in-memory fake CMS backend speaking the upstream wire format, and a
// runner that assembles a gateway instance around it.
package helpers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vyrodovalexey/avcmsgw/internal/cache"
	"github.com/vyrodovalexey/avcmsgw/internal/config"
	"github.com/vyrodovalexey/avcmsgw/internal/gateway"
	"github.com/vyrodovalexey/avcmsgw/internal/observability"
	"github.com/vyrodovalexey/avcmsgw/internal/provider"
	"github.com/vyrodovalexey/avcmsgw/internal/strapi"
)

// RecordedRequest stores information about a request the fake CMS received.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Time   time.Time
}

// cmsRecord is one stored record: a numeric id plus its attributes.
type cmsRecord struct {
	ID    int
	Attrs map[string]interface{}
}

// FakeCMS is an in-memory stand-in for the CMS backend. It serves the
// collection and record routes in the upstream envelope format, supports
// the bracket-notation query controls the gateway emits, and records
// every request for assertions.
type FakeCMS struct {
	Server *httptest.Server

	// Token, when set, requires requests to carry it as a bearer token.
	Token string

	mu       sync.Mutex
	nextID   int
	records  map[string][]*cmsRecord
	requests []RecordedRequest
}

// NewFakeCMS starts a fake CMS server.
func NewFakeCMS() *FakeCMS {
	f := &FakeCMS{
		records: make(map[string][]*cmsRecord),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

// URL returns the base URL of the fake CMS.
func (f *FakeCMS) URL() string {
	return f.Server.URL
}

// Close shuts down the fake CMS server.
func (f *FakeCMS) Close() {
	f.Server.Close()
}

// Seed stores a record and returns its assigned id.
func (f *FakeCMS) Seed(resource string, attrs map[string]interface{}) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	f.records[resource] = append(f.records[resource], &cmsRecord{
		ID:    f.nextID,
		Attrs: attrs,
	})
	return f.nextID
}

// Count returns the number of stored records for a resource.
func (f *FakeCMS) Count(resource string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records[resource])
}

// Requests returns a copy of the recorded requests.
func (f *FakeCMS) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]RecordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

// RequestCount returns how many requests matched the method and path.
func (f *FakeCMS) RequestCount(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, req := range f.requests {
		if req.Method == method && req.Path == path {
			count++
		}
	}
	return count
}

func (f *FakeCMS) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Time:   time.Now(),
	})
	f.mu.Unlock()

	if f.Token != "" && r.Header.Get("Authorization") != "Bearer "+f.Token {
		writeCMSError(w, http.StatusUnauthorized, "Missing or invalid credentials")
		return
	}

	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case len(segments) == 1 && segments[0] != "":
		f.handleCollection(w, r, segments[0])
	case len(segments) == 2:
		f.handleRecord(w, r, segments[0], segments[1])
	default:
		writeCMSError(w, http.StatusNotFound, "Not Found")
	}
}

func (f *FakeCMS) handleCollection(w http.ResponseWriter, r *http.Request, resource string) {
	switch r.Method {
	case http.MethodGet:
		f.serveList(w, r, resource)
	case http.MethodPost:
		f.serveCreate(w, r, resource)
	default:
		writeCMSError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	}
}

func (f *FakeCMS) handleRecord(w http.ResponseWriter, r *http.Request, resource, rawID string) {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		writeCMSError(w, http.StatusNotFound, "Not Found")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	idx := -1
	for i, rec := range f.records[resource] {
		if rec.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		writeCMSError(w, http.StatusNotFound, "Not Found")
		return
	}
	rec := f.records[resource][idx]

	switch r.Method {
	case http.MethodGet:
		writeCMSData(w, http.StatusOK, recordJSON(rec), nil)
	case http.MethodPut:
		attrs, err := decodeDataBody(r)
		if err != nil {
			writeCMSError(w, http.StatusBadRequest, err.Error())
			return
		}
		for k, v := range attrs {
			rec.Attrs[k] = v
		}
		writeCMSData(w, http.StatusOK, recordJSON(rec), nil)
	case http.MethodDelete:
		f.records[resource] = append(f.records[resource][:idx], f.records[resource][idx+1:]...)
		writeCMSData(w, http.StatusOK, recordJSON(rec), nil)
	default:
		writeCMSError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	}
}

func (f *FakeCMS) serveCreate(w http.ResponseWriter, r *http.Request, resource string) {
	attrs, err := decodeDataBody(r)
	if err != nil {
		writeCMSError(w, http.StatusBadRequest, err.Error())
		return
	}

	f.mu.Lock()
	f.nextID++
	rec := &cmsRecord{ID: f.nextID, Attrs: attrs}
	f.records[resource] = append(f.records[resource], rec)
	f.mu.Unlock()

	writeCMSData(w, http.StatusOK, recordJSON(rec), nil)
}

func (f *FakeCMS) serveList(w http.ResponseWriter, r *http.Request, resource string) {
	query := r.URL.Query()

	f.mu.Lock()
	matched := make([]*cmsRecord, 0, len(f.records[resource]))
	for _, rec := range f.records[resource] {
		if matchFilters(rec, query) {
			matched = append(matched, rec)
		}
	}
	f.mu.Unlock()

	total := len(matched)
	sortRecords(matched, query.Get("sort[0]"))

	page, pageSize := 1, 25
	if n, err := strconv.Atoi(query.Get("pagination[page]")); err == nil && n > 0 {
		page = n
	}
	if n, err := strconv.Atoi(query.Get("pagination[pageSize]")); err == nil && n > 0 {
		pageSize = n
	}

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	data := make([]interface{}, 0, end-start)
	for _, rec := range matched[start:end] {
		data = append(data, recordJSON(rec))
	}

	pageCount := (total + pageSize - 1) / pageSize
	writeCMSData(w, http.StatusOK, data, map[string]interface{}{
		"pagination": map[string]interface{}{
			"page":      page,
			"pageSize":  pageSize,
			"pageCount": pageCount,
			"total":     total,
		},
	})
}

// matchFilters applies the bracket-notation filters the gateway emits:
// id $in batches, $eq equality, and $containsi substring matches.
func matchFilters(rec *cmsRecord, query url.Values) bool {
	inIDs := make(map[string]bool)
	hasIn := false

	for key, vals := range query {
		if !strings.HasPrefix(key, "filters[") || len(vals) == 0 {
			continue
		}
		val := vals[0]

		switch {
		case strings.HasPrefix(key, "filters[id][$in]"):
			hasIn = true
			inIDs[val] = true
		case strings.HasSuffix(key, "][$eq]"):
			field := key[len("filters[") : len(key)-len("][$eq]")]
			if attrString(rec, field) != val {
				return false
			}
		case strings.HasSuffix(key, "][$containsi]"):
			field := key[len("filters[") : len(key)-len("][$containsi]")]
			if !strings.Contains(
				strings.ToLower(attrString(rec, field)),
				strings.ToLower(val),
			) {
				return false
			}
		}
	}

	if hasIn && !inIDs[strconv.Itoa(rec.ID)] {
		return false
	}
	return true
}

// sortRecords orders records by a "field:ORDER" sort expression in place.
func sortRecords(recs []*cmsRecord, expr string) {
	if expr == "" {
		return
	}

	field, order := expr, "ASC"
	if idx := strings.LastIndex(expr, ":"); idx != -1 {
		field, order = expr[:idx], expr[idx+1:]
	}

	sort.SliceStable(recs, func(i, j int) bool {
		a, b := attrString(recs[i], field), attrString(recs[j], field)
		if na, errA := strconv.ParseFloat(a, 64); errA == nil {
			if nb, errB := strconv.ParseFloat(b, 64); errB == nil {
				if order == "DESC" {
					return na > nb
				}
				return na < nb
			}
		}
		if order == "DESC" {
			return a > b
		}
		return a < b
	})
}

func attrString(rec *cmsRecord, field string) string {
	if field == "id" {
		return strconv.Itoa(rec.ID)
	}
	v, ok := rec.Attrs[field]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

func recordJSON(rec *cmsRecord) map[string]interface{} {
	return map[string]interface{}{
		"id":         rec.ID,
		"attributes": rec.Attrs,
	}
}

func decodeDataBody(r *http.Request) (map[string]interface{}, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var body struct {
		Data map[string]interface{} `json:"data"`
	}
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	if body.Data == nil {
		return nil, fmt.Errorf("missing data field")
	}
	return body.Data, nil
}

func writeCMSData(w http.ResponseWriter, status int, data interface{}, meta map[string]interface{}) {
	payload := map[string]interface{}{"data": data}
	if meta != nil {
		payload["meta"] = meta
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeCMSError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"data": nil,
		"error": map[string]interface{}{
			"status":  status,
			"name":    http.StatusText(status),
			"message": message,
		},
	})
}

// GatewayInstance is a running gateway wired to a CMS backend for tests.
type GatewayInstance struct {
	BaseURL string
	Server  *httptest.Server
	Cache   cache.Cache
}

// StartGateway assembles the provider chain from the configuration and
// serves the admin API on an ephemeral listener.
func StartGateway(cfg *config.Config) (*GatewayInstance, error) {
	logger := observability.NopLogger()

	cmsClient, err := strapi.New(&cfg.CMS,
		strapi.WithToken(cfg.CMS.Token),
		strapi.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create CMS client: %w", err)
	}

	responseCache, err := cache.New(&cfg.Cache, logger)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	var p provider.DataProvider = cmsClient
	p = provider.NewCachingProvider(p, responseCache,
		provider.WithCacheTTL(cfg.Cache.TTL.Duration()),
		provider.WithCachingLogger(logger),
	)

	engine := gateway.NewEngine(gateway.NewHandlers(p, logger))
	server := httptest.NewServer(engine)

	return &GatewayInstance{
		BaseURL: server.URL,
		Server:  server,
		Cache:   responseCache,
	}, nil
}

// Close shuts down the gateway instance and its cache.
func (g *GatewayInstance) Close() {
	g.Server.Close()
	_ = g.Cache.Close()
}

// DoJSON performs a request with an optional JSON body and decodes the
// JSON response. The response body is fully consumed and closed.
func DoJSON(method, rawURL string, body interface{}) (*http.Response, map[string]interface{}, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, rawURL, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, fmt.Errorf("read response body: %w", err)
	}

	var parsed map[string]interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return resp, nil, fmt.Errorf("decode response body: %w", err)
		}
	}
	return resp, parsed, nil
}
