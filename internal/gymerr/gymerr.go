// Package gymerr classifies upstream booking failures into a closed set of kinds.
package gymerr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed taxonomy of upstream failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindServer
	KindRequest
	KindOverbooked
	KindFieldOccupied
	KindRateLimited
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindServer:
		return "server_error"
	case KindRequest:
		return "request_error"
	case KindOverbooked:
		return "overbooked"
	case KindFieldOccupied:
		return "field_occupied"
	case KindRateLimited:
		return "rate_limited"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// SuccessCode is the envelope code the upstream returns on success.
const SuccessCode = 1

// Envelope is the JSON body every upstream endpoint answers with.
type Envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// Error is a classified upstream failure.
type Error struct {
	Kind   Kind
	Status int    // HTTP status, set for KindServer
	Code   int    // envelope code, set for request kinds
	Msg    string // upstream message as received
	Err    error  // cause, set for KindTransport
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindServer:
		return fmt.Sprintf("server returned status %d", e.Status)
	case KindOverbooked:
		return fmt.Sprintf("daily booking limit reached (code %d)", e.Code)
	case KindFieldOccupied:
		return fmt.Sprintf("field is already occupied (code %d)", e.Code)
	case KindRateLimited:
		return fmt.Sprintf("submitted too frequently (code %d)", e.Code)
	case KindTransport:
		return fmt.Sprintf("transport: %v", e.Err)
	default:
		return fmt.Sprintf("request failed with code %d: %s", e.Code, e.Msg)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrServer        = &Error{Kind: KindServer}
	ErrRequest       = &Error{Kind: KindRequest}
	ErrOverbooked    = &Error{Kind: KindOverbooked}
	ErrFieldOccupied = &Error{Kind: KindFieldOccupied}
	ErrRateLimited   = &Error{Kind: KindRateLimited}
	ErrTransport     = &Error{Kind: KindTransport}
)

func Server(status int) error { return &Error{Kind: KindServer, Status: status} }

func Request(code int, msg string) error { return &Error{Kind: KindRequest, Code: code, Msg: msg} }

func Transport(err error) error { return &Error{Kind: KindTransport, Err: err} }

// KindOf returns the kind carried by err, or KindUnknown when err is nil or unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Rule maps an exact upstream message to a kind.
type Rule struct {
	Phrase string
	Kind   Kind
}

// Rules is the phrase table consulted for non-success envelopes.
var Rules = []Rule{
	{Phrase: "该项目超过每天可预约次数", Kind: KindOverbooked},
	{Phrase: "场地该时间段预约中", Kind: KindFieldOccupied},
	{Phrase: "场地该时间段临时有安排", Kind: KindFieldOccupied},
	{Phrase: "请不要频繁提交订单", Kind: KindRateLimited},
}

// Classify turns an HTTP status and decoded envelope into nil or a classified *Error.
func Classify(status int, env Envelope) error {
	if status != http.StatusOK {
		return Server(status)
	}
	if env.Code == SuccessCode {
		return nil
	}
	for _, r := range Rules {
		if r.Phrase == env.Msg {
			return &Error{Kind: r.Kind, Code: env.Code, Msg: env.Msg}
		}
	}
	return Request(env.Code, env.Msg)
}

// Unclassified reports whether err is a generic request error, i.e. the upstream
// message matched none of the Rules.
func Unclassified(err error) bool {
	return KindOf(err) == KindRequest
}
