package kernel

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/tidwall/pretty"
)

// Response is the value an action returns. Prepare finalizes it against the
// request before it is written.
type Response interface {
	StatusCode() int
	Header() http.Header
	Body() ([]byte, error)
	Prepare(r *http.Request)
}

// BaseResponse is a plain byte-bodied response.
type BaseResponse struct {
	status      int
	header      http.Header
	content     []byte
	contentType string
	omitBody    bool
}

// NewResponse returns a response with the given content and status. A zero
// status means 200 OK.
func NewResponse(content string, status int) *BaseResponse {
	if status == 0 {
		status = http.StatusOK
	}
	return &BaseResponse{
		status:      status,
		header:      make(http.Header),
		content:     []byte(content),
		contentType: "text/html; charset=utf-8",
	}
}

// StatusCode returns the HTTP status.
func (r *BaseResponse) StatusCode() int { return r.status }

// SetStatusCode replaces the HTTP status.
func (r *BaseResponse) SetStatusCode(status int) { r.status = status }

// Header returns the mutable response headers.
func (r *BaseResponse) Header() http.Header { return r.header }

// SetCookie adds a Set-Cookie header.
func (r *BaseResponse) SetCookie(c *http.Cookie) {
	if v := c.String(); v != "" {
		r.header.Add("Set-Cookie", v)
	}
}

// Body returns the content, or nil once Prepare decided no body may be sent.
func (r *BaseResponse) Body() ([]byte, error) {
	if r.omitBody {
		return nil, nil
	}
	return r.content, nil
}

// Prepare normalizes headers for the request:
//   - statuses that forbid a body (1xx, 204, 304) drop content and its headers
//   - Content-Type defaults to the response's media type
//   - Date is set when absent
//   - HEAD requests keep headers but send no body
func (r *BaseResponse) Prepare(req *http.Request) {
	if bodyForbidden(r.status) {
		r.omitBody = true
		r.header.Del("Content-Type")
		r.header.Del("Content-Length")
	} else if r.header.Get("Content-Type") == "" {
		r.header.Set("Content-Type", r.contentType)
	}

	if r.header.Get("Date") == "" {
		r.header.Set("Date", time.Now().UTC().Format(http.TimeFormat))
	}

	if req != nil && req.Method == http.MethodHead {
		r.omitBody = true
	}
}

func bodyForbidden(status int) bool {
	return (status >= 100 && status < 200) || status == http.StatusNoContent || status == http.StatusNotModified
}

// EncodingOption is a bit flag controlling JSONResponse encoding.
type EncodingOption uint

const (
	// EncodeEscapeHTML escapes <, > and & inside JSON strings.
	EncodeEscapeHTML EncodingOption = 1 << iota

	// EncodePrettyPrint indents the encoded document.
	EncodePrettyPrint
)

// JSONResponse encodes Data as JSON when the body is read.
type JSONResponse struct {
	BaseResponse
	data    any
	options EncodingOption
}

// NewJSONResponse returns a JSON response for data. A zero status means 200 OK.
// Encoding options start at zero.
func NewJSONResponse(data any, status int) *JSONResponse {
	base := NewResponse("", status)
	base.contentType = "application/json"
	return &JSONResponse{BaseResponse: *base, data: data}
}

// Data returns the value being encoded.
func (r *JSONResponse) Data() any { return r.data }

// SetData replaces the value being encoded.
func (r *JSONResponse) SetData(data any) { r.data = data }

// EncodingOptions returns the encoding bitmask.
func (r *JSONResponse) EncodingOptions() EncodingOption { return r.options }

// SetEncodingOptions replaces the encoding bitmask.
func (r *JSONResponse) SetEncodingOptions(o EncodingOption) { r.options = o }

// Body encodes Data using the current encoding options.
func (r *JSONResponse) Body() ([]byte, error) {
	if r.omitBody {
		return nil, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(r.options&EncodeEscapeHTML != 0)
	if err := enc.Encode(r.data); err != nil {
		return nil, err
	}

	out := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	if r.options&EncodePrettyPrint != 0 {
		out = pretty.PrettyOptions(out, &pretty.Options{Width: 80, Indent: "    "})
	}
	return out, nil
}
