package common

import (
	"errors"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

const reasonAPIKeyInvalid = "API_KEY_INVALID"

// CredentialsRejected reports whether err is a Google API response refusing
// the caller's credentials: 401, 403, or a 400 carrying API_KEY_INVALID.
// The returned string is the server's message.
func CredentialsRejected(err error) (string, bool) {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return "", false
	}
	switch gerr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return gerr.Message, true
	case http.StatusBadRequest:
		if strings.Contains(gerr.Body, reasonAPIKeyInvalid) {
			return gerr.Message, true
		}
		for _, item := range gerr.Errors {
			if item.Reason == reasonAPIKeyInvalid {
				return gerr.Message, true
			}
		}
	}
	return "", false
}
