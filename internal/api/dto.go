package api

// TranslateRequest carries the raw source lines to decode.
type TranslateRequest struct {
	Lines []string `json:"lines"`
}

// TranslateResponse returns one hypothesis per input line, in order.
type TranslateResponse struct {
	ID          string   `json:"id"`
	Object      string   `json:"object"`
	Models      int      `json:"models"`
	Hypotheses  []string `json:"hypotheses"`
	SourceLines int      `json:"source_lines"`
}

// HealthResponse reports server liveness and the loaded ensemble size.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Models  int    `json:"models"`
}

// ErrorBody is the payload wrapped under the "error" key on failures.
type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}
