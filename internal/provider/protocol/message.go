package protocol

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/otpgate/activation-service/internal/domain"
)

type MessageKind string

const (
	MsgError        MessageKind = "error"
	MsgWaiting      MessageKind = "waiting"
	MsgCancelled    MessageKind = "cancelled"
	MsgWaitingRetry MessageKind = "waiting_retry"
	MsgReceived     MessageKind = "received"
)

// MessageResult is the canonical outcome of a "get message" reply.
type MessageResult struct {
	Kind      MessageKind
	OTP       string
	LastCode  string
	ErrorKind string
	// Status mirrors the raw provider token for observability.
	Status string
}

type messageInput struct {
	raw     string
	format  domain.ResponseFormat
	otpPath string
}

// messageRules are evaluated top to bottom, first match wins. Explicit
// status tokens must outrank the generic digit fallback, otherwise a
// "STATUS_WAIT_CODE 123456" reply would be misread as a received code.
var messageRules = []func(messageInput) (*MessageResult, bool){
	matchProtocolError,
	matchWaitCode,
	matchCancel,
	matchWaitRetry,
	matchStatusOK,
	matchJSONStatus,
	matchDigitFallback,
}

// ParseMessage classifies a raw message/status reply. otpPath is an optional
// dot path for extracting the code out of JSON replies.
func ParseMessage(raw string, format domain.ResponseFormat, otpPath string) MessageResult {
	in := messageInput{raw: raw, format: format, otpPath: otpPath}
	for _, rule := range messageRules {
		if res, ok := rule(in); ok {
			return *res
		}
	}
	// matchDigitFallback always matches; this is unreachable.
	return MessageResult{Kind: MsgWaiting}
}

var messageErrorTokens = []string{"BAD_KEY", "BAD_ACTION", "NO_ACTIVATION"}

// ErrorToken reports whether a raw reply carries one of the hard protocol
// error tokens, and which one.
func ErrorToken(raw string) (string, bool) {
	for _, token := range messageErrorTokens {
		if strings.Contains(raw, token) {
			return token, true
		}
	}
	return "", false
}

func matchProtocolError(in messageInput) (*MessageResult, bool) {
	for _, token := range messageErrorTokens {
		if strings.Contains(in.raw, token) {
			return &MessageResult{Kind: MsgError, ErrorKind: token, Status: token}, true
		}
	}
	return nil, false
}

func matchWaitCode(in messageInput) (*MessageResult, bool) {
	if strings.Contains(in.raw, "STATUS_WAIT_CODE") {
		return &MessageResult{Kind: MsgWaiting, Status: "STATUS_WAIT_CODE"}, true
	}
	return nil, false
}

func matchCancel(in messageInput) (*MessageResult, bool) {
	if strings.Contains(in.raw, "STATUS_CANCEL") {
		return &MessageResult{Kind: MsgCancelled, Status: "STATUS_CANCEL"}, true
	}
	return nil, false
}

func matchWaitRetry(in messageInput) (*MessageResult, bool) {
	if rest, ok := strings.CutPrefix(in.raw, "STATUS_WAIT_RETRY:"); ok {
		return &MessageResult{
			Kind:     MsgWaitingRetry,
			LastCode: strings.TrimSpace(rest),
			Status:   "STATUS_WAIT_RETRY",
		}, true
	}
	return nil, false
}

func matchStatusOK(in messageInput) (*MessageResult, bool) {
	if rest, ok := strings.CutPrefix(in.raw, "STATUS_OK:"); ok {
		return &MessageResult{
			Kind:   MsgReceived,
			OTP:    strings.TrimSpace(rest),
			Status: "STATUS_OK",
		}, true
	}
	return nil, false
}

var jsonOtpFields = []string{"sms", "code", "text", "message"}

func matchJSONStatus(in messageInput) (*MessageResult, bool) {
	if in.format != domain.FormatJSON {
		return nil, false
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(in.raw), &body); err != nil {
		return nil, false
	}

	status, _ := body["status"].(string)
	switch strings.ToUpper(status) {
	case "PENDING", "WAIT_CODE":
		return &MessageResult{Kind: MsgWaiting, Status: status}, true
	case "RECEIVED", "FINISHED":
		otp := ""
		if in.otpPath != "" {
			otp = lookupPath(body, in.otpPath)
		}
		if otp == "" {
			otp = stringField(body, jsonOtpFields...)
		}
		return &MessageResult{Kind: MsgReceived, OTP: otp, Status: status}, true
	}
	return nil, false
}

var otpDigitsRe = regexp.MustCompile(`[0-9]{4,8}`)

// matchDigitFallback is the last resort for providers that answer with free
// text. A bare 4-8 digit run is taken as the code, anything else means the
// code has not arrived yet.
func matchDigitFallback(in messageInput) (*MessageResult, bool) {
	if otp := otpDigitsRe.FindString(in.raw); otp != "" {
		return &MessageResult{Kind: MsgReceived, OTP: otp, Status: "STATUS_OK"}, true
	}
	return &MessageResult{Kind: MsgWaiting, Status: "STATUS_WAIT_CODE"}, true
}

// lookupPath walks a dot-separated path through nested JSON objects and
// returns the value as a string, or "" if any hop is missing.
func lookupPath(body map[string]any, path string) string {
	cur := any(body)
	for _, hop := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur, ok = obj[hop]
		if !ok {
			return ""
		}
	}
	switch v := cur.(type) {
	case string:
		return v
	case float64:
		return stringField(map[string]any{"v": v}, "v")
	}
	return ""
}
