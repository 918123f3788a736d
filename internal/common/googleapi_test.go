package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func TestCredentialsRejected(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unauthorized", &googleapi.Error{Code: http.StatusUnauthorized, Message: "no"}, true},
		{"forbidden wrapped", fmt.Errorf("generate: %w", &googleapi.Error{Code: http.StatusForbidden, Message: "no"}), true},
		{"invalid key body", &googleapi.Error{Code: http.StatusBadRequest, Message: "no", Body: `{"reason":"API_KEY_INVALID"}`}, true},
		{"invalid key item", &googleapi.Error{Code: http.StatusBadRequest, Message: "no", Errors: []googleapi.ErrorItem{{Reason: "API_KEY_INVALID"}}}, true},
		{"plain bad request", &googleapi.Error{Code: http.StatusBadRequest, Message: "bad image"}, false},
		{"server error", &googleapi.Error{Code: http.StatusInternalServerError}, false},
		{"not an api error", errors.New("dial tcp: refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := CredentialsRejected(tt.err)
			assert.Equal(t, tt.want, ok)
			if ok {
				assert.Equal(t, "no", msg)
			}
		})
	}
}
