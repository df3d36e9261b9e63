package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Insert creates a record and returns its assigned ID in the SaveResult.
func (c *Client) Insert(ctx context.Context, sobject string, fields map[string]any) (*SaveResult, error) {
	var res SaveResult
	err := c.do(ctx, http.MethodPost, "/sobjects/"+sobject, nil, fields, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Retrieve fetches a record by ID. With no fields named, every stored field
// is returned.
func (c *Client) Retrieve(ctx context.Context, sobject, id string, fields ...string) (*Record, error) {
	var query url.Values
	if len(fields) > 0 {
		query = url.Values{"fields": {strings.Join(fields, ",")}}
	}

	var rec Record
	err := c.do(ctx, http.MethodGet, "/sobjects/"+sobject+"/"+id, query, nil, &rec)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Update merges the given field values into an existing record.
func (c *Client) Update(ctx context.Context, sobject, id string, fields map[string]any) error {
	return c.do(ctx, http.MethodPatch, "/sobjects/"+sobject+"/"+id, nil, fields, nil)
}

// Delete moves a record to the recycle bin.
func (c *Client) Delete(ctx context.Context, sobject, id string) error {
	return c.do(ctx, http.MethodDelete, "/sobjects/"+sobject+"/"+id, nil, nil, nil)
}

// Upsert updates the record whose external ID field matches value, or
// inserts a new one. The SaveResult's Created flag reports which happened.
func (c *Client) Upsert(ctx context.Context, sobject, externalIDField, value string, fields map[string]any) (*SaveResult, error) {
	var res SaveResult
	err := c.do(ctx, http.MethodPatch,
		"/sobjects/"+sobject+"/"+externalIDField+"/"+url.PathEscape(value), nil, fields, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Query runs a SOQL query.
func (c *Client) Query(ctx context.Context, soql string) (*QueryResult, error) {
	var res QueryResult
	err := c.do(ctx, http.MethodGet, "/query", url.Values{"q": {soql}}, nil, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// QueryOne runs a SOQL query expected to match at most one record. It
// returns a NOT_FOUND APIError when the result set is empty.
func (c *Client) QueryOne(ctx context.Context, soql string) (*Record, error) {
	res, err := c.Query(ctx, soql)
	if err != nil {
		return nil, err
	}
	if len(res.Records) == 0 {
		return nil, &APIError{
			StatusCode: http.StatusNotFound,
			Errors: []ErrorDetail{{
				Message:   "no records match the query",
				ErrorCode: "NOT_FOUND",
			}},
		}
	}
	return res.Records[0], nil
}

// Describe fetches the metadata of one sobject type.
func (c *Client) Describe(ctx context.Context, sobject string) (*Describe, error) {
	var desc Describe
	err := c.do(ctx, http.MethodGet, "/sobjects/"+sobject+"/describe", nil, nil, &desc)
	if err != nil {
		return nil, err
	}
	return &desc, nil
}

// DescribeGlobal lists all sobject types the server knows.
func (c *Client) DescribeGlobal(ctx context.Context) (*GlobalDescribe, error) {
	var desc GlobalDescribe
	err := c.do(ctx, http.MethodGet, "/sobjects", nil, nil, &desc)
	if err != nil {
		return nil, err
	}
	return &desc, nil
}
