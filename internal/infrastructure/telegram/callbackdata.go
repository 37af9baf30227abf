package telegram

import (
	"fmt"
	"strconv"
	"strings"
)

// Callback verbs and subjects. Data is "verb:subject:argument".
const (
	verbApprove = "approve"
	verbDeny    = "deny"
	verbRetry   = "retry"
	verbSelect  = "select"
	verbList    = "list"

	subjectClient  = "client"
	subjectRequest = "request"
	subjectService = "service"
	subjectPending = "pending"

	pendingClients     = "clients"
	pendingRequests    = "requests"
	pendingUnallocated = "unallocated"
)

// maxCallbackData is the Bot API limit in bytes.
const maxCallbackData = 64

type callbackData struct {
	Verb    string
	Subject string
	Arg     string
}

func (d callbackData) String() string {
	return d.Verb + ":" + d.Subject + ":" + d.Arg
}

// PlatformID parses Arg as a chat id for client callbacks.
func (d callbackData) PlatformID() (int64, error) {
	return strconv.ParseInt(d.Arg, 10, 64)
}

func parseCallbackData(raw string) (callbackData, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return callbackData{}, fmt.Errorf("malformed callback data %q", raw)
	}
	return callbackData{Verb: parts[0], Subject: parts[1], Arg: parts[2]}, nil
}

func clientCallback(verb string, platformID int64) string {
	return callbackData{Verb: verb, Subject: subjectClient, Arg: strconv.FormatInt(platformID, 10)}.String()
}

func requestCallback(verb, sid string) string {
	return callbackData{Verb: verb, Subject: subjectRequest, Arg: sid}.String()
}

func serviceCallback(name string) string {
	return callbackData{Verb: verbSelect, Subject: subjectService, Arg: name}.String()
}

func pendingCallback(list string) string {
	return callbackData{Verb: verbList, Subject: subjectPending, Arg: list}.String()
}
