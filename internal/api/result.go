package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind separates failures that never reached the server from ones the
// server saw and may have acted on.
type ErrorKind int

const (
	// KindTransport: no response was received (dial, timeout, rate limit wait).
	KindTransport ErrorKind = iota
	// KindStatus: the server answered with a non-2xx status.
	KindStatus
	// KindMalformed: the server answered 2xx but the body could not be used.
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

type GatewayError struct {
	Op     Operation
	Kind   ErrorKind
	Status int
	Detail string
}

func (e *GatewayError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("gateway %s (%s %d): %s", e.Op, e.Kind, e.Status, e.Detail)
	}
	return fmt.Sprintf("gateway %s (%s): %s", e.Op, e.Kind, e.Detail)
}

// Reached reports whether the server received the request.
func (e *GatewayError) Reached() bool {
	return e.Kind != KindTransport
}

// Result is the outcome of exactly one gateway round trip.
type Result struct {
	Op     Operation
	Status int
	Body   json.RawMessage
	Err    *GatewayError
}

func (r Result) OK() bool {
	return r.Err == nil
}

// Decode unmarshals a successful result. Failed results pass their error
// through; empty, undecodable or rejected bodies become KindMalformed.
func Decode[T any](res Result, checks ...func(T) error) (T, *GatewayError) {
	var out T
	if res.Err != nil {
		return out, res.Err
	}

	if len(res.Body) == 0 {
		return out, malformed(res, "empty response body")
	}

	if err := json.Unmarshal(res.Body, &out); err != nil {
		return out, malformed(res, fmt.Sprintf("decode response: %v", err))
	}

	for _, check := range checks {
		if err := check(out); err != nil {
			var zero T
			return zero, malformed(res, err.Error())
		}
	}

	return out, nil
}

func malformed(res Result, detail string) *GatewayError {
	return &GatewayError{Op: res.Op, Kind: KindMalformed, Status: res.Status, Detail: detail}
}

func transportError(op Operation, format string, args ...interface{}) Result {
	return Result{Op: op, Err: &GatewayError{Op: op, Kind: KindTransport, Detail: fmt.Sprintf(format, args...)}}
}

// errorDetail picks detail, message or error from a JSON body, then the raw
// text, then the status line.
func errorDetail(resp *http.Response, body []byte) string {
	var apiError struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}

	if json.Unmarshal(body, &apiError) == nil {
		for _, msg := range []string{apiError.Detail, apiError.Message, apiError.Error} {
			if msg != "" {
				return msg
			}
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}

	if resp.Status != "" {
		return resp.Status
	}
	return fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}
