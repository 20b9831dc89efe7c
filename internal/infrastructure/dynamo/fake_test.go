package dynamo

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

const errPrefix = "com.amazonaws.dynamodb.v20120810#"

// apiCall is one decoded request received by fakeDynamo.
type apiCall struct {
	Op   string
	Body map[string]interface{}
}

// fakeDynamo speaks just enough of the DynamoDB JSON protocol to drive the
// repositories. respond returns the HTTP status and JSON body for a call.
type fakeDynamo struct {
	mu      sync.Mutex
	calls   []apiCall
	respond func(c apiCall) (int, string)
}

func newFakeDynamo(t *testing.T, respond func(c apiCall) (int, string)) (*dynamodb.Client, *fakeDynamo) {
	t.Helper()
	f := &fakeDynamo{respond: respond}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		c := apiCall{Op: strings.TrimPrefix(r.Header.Get("X-Amz-Target"), "DynamoDB_20120810.")}
		_ = json.Unmarshal(raw, &c.Body)

		f.mu.Lock()
		f.calls = append(f.calls, c)
		f.mu.Unlock()

		status, body := f.respond(c)
		w.Header().Set("Content-Type", "application/x-amz-json-1.0")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	client := dynamodb.New(dynamodb.Options{
		Region:                          "us-east-1",
		BaseEndpoint:                    aws.String(srv.URL),
		Credentials:                     credentials.NewStaticCredentialsProvider("test", "test", ""),
		RetryMaxAttempts:                1,
		DisableValidateResponseChecksum: true,
	})
	return client, f
}

func (f *fakeDynamo) Calls() []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiCall(nil), f.calls...)
}

func okBody(body string) (int, string) { return http.StatusOK, body }

func conditionFailed(extra string) (int, string) {
	return http.StatusBadRequest, `{"__type":"` + errPrefix + `ConditionalCheckFailedException","message":"The conditional request failed"` + extra + `}`
}

// keyOf returns the string value of attr in the request's Key.
func keyOf(c apiCall, attr string) string {
	key, _ := c.Body["Key"].(map[string]interface{})
	av, _ := key[attr].(map[string]interface{})
	s, _ := av["S"].(string)
	return s
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}
