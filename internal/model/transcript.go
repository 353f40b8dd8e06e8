package model

// TranscriptTurn bundles one query with its response for asynchronous
// persistence through the message queue.
type TranscriptTurn struct {
	Query    *Query    `json:"query"`
	Response *Response `json:"response"`
}
