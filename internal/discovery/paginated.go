package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mediawatch/newscrawler/internal/crawl"
)

// maxPages is a hard cap so a broken stop predicate cannot walk forever.
const maxPages = 1000

func (e *Engine) runPaginatedJSON(ctx context.Context, desc PaginatedJSON, em *emitter) error {
	if desc.MapRecord == nil {
		return crawl.NewError(crawl.KindArgument, "paginated descriptor has no record mapping")
	}
	for page := 1; page <= maxPages; page++ {
		if ctx.Err() != nil {
			return crawl.WrapError(crawl.KindCancelled, ctx.Err(), "discovery canceled")
		}
		resp, err := e.fetchPage(ctx, desc, page)
		if err != nil {
			if page == 1 {
				return crawl.WrapError(crawl.KindOf(err), err, "paginated endpoint root")
			}
			e.skipResource(desc.Endpoint, err)
			return nil
		}
		records, err := decodeRecords(resp.Body, desc.RecordsKey)
		if err != nil {
			if page == 1 {
				return crawl.WrapError(crawl.KindParse, err, "parse paginated response")
			}
			e.skipResource(desc.Endpoint, err)
			return nil
		}
		if len(records) == 0 {
			return nil
		}
		for _, record := range records {
			if desc.Stop != nil && desc.Stop(record, em.window) {
				return nil
			}
			link, ok := desc.MapRecord(record)
			if !ok {
				continue
			}
			if err := em.emit(link); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) fetchPage(ctx context.Context, desc PaginatedJSON, page int) (crawl.Response, error) {
	req := crawl.FetchRequest{
		Method:  desc.Method,
		URL:     desc.Endpoint,
		Headers: desc.Headers,
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	switch req.Method {
	case http.MethodGet:
		u, err := url.Parse(desc.Endpoint)
		if err != nil {
			return crawl.Response{}, crawl.WrapError(crawl.KindArgument, err, "parse endpoint")
		}
		q := u.Query()
		q.Set(desc.PageParam, strconv.Itoa(page))
		u.RawQuery = q.Encode()
		req.URL = u.String()
	case http.MethodPost:
		body, err := json.Marshal(map[string]int{desc.PageParam: page})
		if err != nil {
			return crawl.Response{}, fmt.Errorf("encode page body: %w", err)
		}
		req.Body = body
		if req.Headers == nil {
			req.Headers = http.Header{}
		}
		if req.Headers.Get("Content-Type") == "" {
			req.Headers.Set("Content-Type", "application/json")
		}
	default:
		return crawl.Response{}, crawl.NewError(crawl.KindArgument, "unsupported method %s", req.Method)
	}
	return e.fetcher.Fetch(ctx, req)
}

// decodeRecords accepts either a bare JSON array or an object holding the
// array under key.
func decodeRecords(body []byte, key string) ([]map[string]any, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if key != "" {
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected object with %q field", key)
		}
		raw = obj[key]
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("expected record array")
	}
	records := make([]map[string]any, 0, len(arr))
	for _, item := range arr {
		if rec, ok := item.(map[string]any); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}
