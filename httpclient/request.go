package httpclient

// Request describes an outbound call.
type Request struct {
	Method string
	// Path is resolved against BaseURL unless it is already absolute.
	Path    string
	Headers map[string]string
	Body    []byte
}

// Response is a fully read response.
type Response struct {
	StatusCode int
	Body       []byte
}
