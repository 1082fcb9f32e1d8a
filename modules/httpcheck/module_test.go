package httpcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInput(t *testing.T, in *Input) *Input {
	t.Helper()
	require.NoError(t, Init(context.Background(), in))
	return in
}

func TestCheckAcceptsSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	st := Check(context.Background(), newInput(t, &Input{URL: srv.URL}))
	assert.True(t, st.IsSatisfied())
	data := st.Data().(map[string]any)
	assert.Equal(t, http.StatusOK, data["status_code"])
}

func TestCheckRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	st := Check(context.Background(), newInput(t, &Input{URL: srv.URL}))
	assert.True(t, st.IsFailed())
	assert.Contains(t, st.Data(), "got status 500")
}

func TestCheckExpectStatusPinsTheCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	st := Check(context.Background(), newInput(t, &Input{URL: srv.URL, ExpectStatus: http.StatusNoContent}))
	assert.True(t, st.IsSatisfied())

	st = Check(context.Background(), newInput(t, &Input{URL: srv.URL, ExpectStatus: http.StatusOK}))
	assert.True(t, st.IsFailed())
	assert.Contains(t, st.Data(), "want 200")
}

func TestCheckFailsOnUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	st := Check(context.Background(), newInput(t, &Input{URL: url}))
	assert.True(t, st.IsFailed())
	assert.Error(t, st.Err())
}

func TestCheckInsecureSkipVerify(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	st := Check(context.Background(), newInput(t, &Input{URL: srv.URL}))
	assert.True(t, st.IsFailed(), "self-signed cert must fail verification")

	st = Check(context.Background(), newInput(t, &Input{URL: srv.URL, InsecureSkipVerify: true}))
	assert.True(t, st.IsSatisfied())
}
