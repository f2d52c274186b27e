package domain

import "errors"

var (
	ErrWrongRequest       = errors.New("wrong request")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// Banner texts shown to the user for the two request failure kinds.
const (
	MsgWrongRequest       = "Wrong Request. Try again with other params."
	MsgServiceUnavailable = "Service is unavailable. Try again later"
)

// UserMessage maps a request error to the banner text. Anything that is not a
// rejected request is reported as an unavailable service.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrWrongRequest) {
		return MsgWrongRequest
	}
	return MsgServiceUnavailable
}
