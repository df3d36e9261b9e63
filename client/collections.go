package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// collectionRequest is the request envelope for the collection endpoints.
type collectionRequest struct {
	AllOrNone bool             `json:"allOrNone"`
	Records   []map[string]any `json:"records"`
}

// withAttributes returns copies of the records with the attributes envelope
// the collection endpoints require.
func withAttributes(sobject string, records []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		tagged := make(map[string]any, len(rec)+1)
		tagged["attributes"] = Attributes{Type: sobject}
		for k, v := range rec {
			tagged[k] = v
		}
		out = append(out, tagged)
	}
	return out
}

// InsertAll creates up to 200 records in one call. With allOrNone set, any
// failure rolls back the whole batch.
func (c *Client) InsertAll(ctx context.Context, sobject string, records []map[string]any, allOrNone bool) ([]SaveResult, error) {
	body := collectionRequest{AllOrNone: allOrNone, Records: withAttributes(sobject, records)}

	var results []SaveResult
	err := c.do(ctx, http.MethodPost, "/composite/sobjects", nil, body, &results)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// UpdateAll updates up to 200 records in one call. Each record map must
// carry an "Id" entry alongside the fields to merge.
func (c *Client) UpdateAll(ctx context.Context, sobject string, records []map[string]any, allOrNone bool) ([]SaveResult, error) {
	body := collectionRequest{AllOrNone: allOrNone, Records: withAttributes(sobject, records)}

	var results []SaveResult
	err := c.do(ctx, http.MethodPatch, "/composite/sobjects", nil, body, &results)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// UpsertAll updates or inserts up to 200 records in one call, matched on
// the named external ID field ("Id" matches on record identity).
func (c *Client) UpsertAll(ctx context.Context, sobject, externalIDField string, records []map[string]any, allOrNone bool) ([]SaveResult, error) {
	body := collectionRequest{AllOrNone: allOrNone, Records: withAttributes(sobject, records)}

	var results []SaveResult
	err := c.do(ctx, http.MethodPatch,
		"/composite/sobjects/"+sobject+"/"+externalIDField, nil, body, &results)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteAll moves up to 200 records to the recycle bin. IDs may span
// sobject types.
func (c *Client) DeleteAll(ctx context.Context, ids []string, allOrNone bool) ([]DeleteResult, error) {
	query := url.Values{"ids": {strings.Join(ids, ",")}}
	if allOrNone {
		query.Set("allOrNone", "true")
	}

	var results []DeleteResult
	err := c.do(ctx, http.MethodDelete, "/composite/sobjects", query, nil, &results)
	if err != nil {
		return nil, err
	}
	return results, nil
}
