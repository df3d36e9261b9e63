package domain

// QueryResult is the envelope returned by the query endpoint.
type QueryResult struct {
	TotalSize int       `json:"totalSize"`
	Done      bool      `json:"done"`
	Records   []*Record `json:"records"`
}
