package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/winelabel/internal/common"
)

const annotateResponse = `{"responses":[
 {"fullTextAnnotation":{"text":"CHÂTEAU MARGAUX\n2015","pages":[{"property":{"detectedLanguages":[
   {"languageCode":"en","confidence":0.2},{"languageCode":"fr","confidence":0.8}]}}]}},
 {"error":{"code":3,"message":"Bad image data."}},
 {"textAnnotations":[{"description":"MERLOT","locale":"it"},{"description":"MERLOT"}]},
 {}
]}`

func TestRecognize(t *testing.T) {
	var body struct {
		Requests []struct {
			Image struct {
				Content string `json:"content"`
			} `json:"image"`
			Features []struct {
				Type string `json:"type"`
			} `json:"features"`
			ImageContext struct {
				LanguageHints []string `json:"languageHints"`
			} `json:"imageContext"`
		} `json:"requests"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images:annotate", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(annotateResponse))
	}))
	defer srv.Close()

	g := NewGoogleRecognizer(Config{APIKey: "test-key", Endpoint: srv.URL + "/", LanguageHints: []string{"fr"}}, nil)
	images := [][]byte{[]byte("a"), []byte("b"), []byte("c"), []byte("d")}
	out, err := g.Recognize(context.Background(), images)
	require.NoError(t, err)
	require.Len(t, out, 4)

	assert.Equal(t, "CHÂTEAU MARGAUX\n2015", out[0].Text)
	assert.Equal(t, "fr", out[0].Language)
	assert.NoError(t, out[0].Err)

	assert.Empty(t, out[1].Text)
	assert.ErrorContains(t, out[1].Err, "Bad image data.")

	assert.Equal(t, "MERLOT", out[2].Text)
	assert.Equal(t, "it", out[2].Language)

	// nothing detected is not an error at this level
	assert.Empty(t, out[3].Text)
	assert.NoError(t, out[3].Err)

	for i, r := range out {
		assert.Equal(t, i, r.Index)
	}

	require.Len(t, body.Requests, 4)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("c")), body.Requests[2].Image.Content)
	assert.Equal(t, "TEXT_DETECTION", body.Requests[0].Features[0].Type)
	assert.Equal(t, []string{"fr"}, body.Requests[0].ImageContext.LanguageHints)
}

func TestRecognize_MissingKey(t *testing.T) {
	_, err := NewGoogleRecognizer(Config{}, nil).Recognize(context.Background(), [][]byte{[]byte("a")})
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)
}

func TestRecognize_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		unavailable bool
	}{
		{"rejected key", http.StatusForbidden, `{"error":{"code":403,"message":"API key not valid"}}`, true},
		{"invalid key", http.StatusBadRequest, `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT","details":[{"@type":"type.googleapis.com/google.rpc.ErrorInfo","reason":"API_KEY_INVALID","domain":"googleapis.com"}]}}`, true},
		{"bad request", http.StatusBadRequest, `{"error":{"code":400,"message":"boom"}}`, false},
		{"count mismatch", http.StatusOK, `{"responses":[]}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			g := NewGoogleRecognizer(Config{APIKey: "k", Endpoint: srv.URL + "/"}, nil)
			_, err := g.Recognize(context.Background(), [][]byte{[]byte("a")})
			require.Error(t, err)
			assert.Equal(t, tt.unavailable, errors.Is(err, common.ErrServiceUnavailable))
		})
	}
}
