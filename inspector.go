package kernel

import (
	"errors"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned when a body is not valid JSON.
var ErrInvalidJSON = errors.New("invalid JSON")

// View provides read-only field access to an encoded JSON body, so listeners
// can inspect a response without decoding it into a concrete type.
type View interface {
	// HasField returns true if the path exists in the document.
	HasField(path string) bool

	// GetString returns the string value at path, or false if not found
	// or not a string.
	GetString(path string) (string, bool)

	// GetBytes returns the raw JSON at path, or false if not found.
	GetBytes(path string) ([]byte, bool)
}

// InspectJSON returns a View over raw, which must be valid JSON.
func InspectJSON(raw []byte) (View, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidJSON
	}
	return jsonView{raw: raw}, nil
}

// View encodes the response with its current options and returns a View
// over the result.
//
// Example:
//
//	events.OnAfterController(func(ctx context.Context, ev *kernel.AfterControllerEvent) error {
//	    if jr, ok := ev.Response.(*kernel.JSONResponse); ok {
//	        if v, err := jr.View(); err == nil && v.HasField("error") {
//	            jr.SetStatusCode(http.StatusUnprocessableEntity)
//	        }
//	    }
//	    return nil
//	})
func (r *JSONResponse) View() (View, error) {
	raw, err := r.Body()
	if err != nil {
		return nil, err
	}
	return InspectJSON(raw)
}

type jsonView struct {
	raw []byte
}

func (v jsonView) HasField(path string) bool {
	return gjson.GetBytes(v.raw, path).Exists()
}

func (v jsonView) GetString(path string) (string, bool) {
	r := gjson.GetBytes(v.raw, path)
	if !r.Exists() || r.Type != gjson.String {
		return "", false
	}
	return r.String(), true
}

func (v jsonView) GetBytes(path string) ([]byte, bool) {
	r := gjson.GetBytes(v.raw, path)
	if !r.Exists() {
		return nil, false
	}
	return []byte(r.Raw), true
}
