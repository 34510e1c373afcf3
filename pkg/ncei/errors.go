package ncei

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the service. Message and Errors come
// from the provider's error body when it has one.
type APIError struct {
	StatusCode int
	Message    string
	Errors     []string
	Body       []byte
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ncei: status %d", e.StatusCode)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Errors) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(e.Errors, "; "))
		b.WriteString(")")
	}
	return b.String()
}

// AsAPIError returns the APIError in err's chain, if any.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

type errorBody struct {
	ErrorMessage string `json:"errorMessage"`
	ErrorCode    int    `json:"errorCode"`
	Errors       []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: body}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || eb.ErrorMessage == "" && len(eb.Errors) == 0 {
		apiErr.Message = http.StatusText(status)
		return apiErr
	}

	apiErr.Message = eb.ErrorMessage
	for _, e := range eb.Errors {
		if e.Message != "" {
			apiErr.Errors = append(apiErr.Errors, e.Message)
		}
	}
	return apiErr
}
