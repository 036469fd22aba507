package protocol

import "strings"

type CancelKind string

const (
	CancelOK          CancelKind = "ok"
	CancelStillActive CancelKind = "still_active"
	CancelError       CancelKind = "error"
)

// CancelOutcome is the canonical outcome of a cancel reply. Status carries
// the raw token the decision was made on.
type CancelOutcome struct {
	Kind      CancelKind
	ErrorKind string
	Status    string
}

// Checked in order: the more specific error tokens first.
var cancelErrorTokens = []string{
	"NO_ACTIVATION",
	"BAD_STATUS",
	"BAD_KEY",
	"BAD_ACTION",
	"EARLY_CANCEL_DENIED",
}

// Tokens that mean the number is still in use and the provider refused
// to cancel it.
var stillActiveTokens = []string{
	"ACCESS_READY",
	"ACCESS_RETRY_GET",
	"ACCESS_ACTIVATION",
}

// ParseCancel maps a raw cancel reply onto an outcome. Anything that is not
// an explicit error and not a "number still in use" token counts as a
// confirmed cancel, since providers rarely bother with a clean ACCESS_CANCEL.
func ParseCancel(raw string) CancelOutcome {
	for _, token := range cancelErrorTokens {
		if strings.Contains(raw, token) {
			return CancelOutcome{Kind: CancelError, ErrorKind: token, Status: token}
		}
	}

	if !strings.Contains(raw, "ACCESS_CANCEL") {
		for _, token := range stillActiveTokens {
			if strings.Contains(raw, token) {
				return CancelOutcome{Kind: CancelStillActive, ErrorKind: "STILL_ACTIVE", Status: token}
			}
		}
	}

	return CancelOutcome{Kind: CancelOK, Status: "ACCESS_CANCEL"}
}
