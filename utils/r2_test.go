package utils

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestR2ConfigEnabled(t *testing.T) {
	full := R2Config{AccountID: "acc", AccessKeyID: "id", AccessKeySecret: "secret", Bucket: "archives"}
	assert.True(t, full.Enabled())

	partial := full
	partial.AccessKeySecret = ""
	assert.False(t, partial.Enabled())
	assert.False(t, R2Config{}.Enabled())
}

func TestR2Upload(t *testing.T) {
	var gotPath, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotType = r.URL.Path, r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r2, err := NewR2(context.Background(), R2Config{
		AccountID:       "acc",
		AccessKeyID:     "id",
		AccessKeySecret: "secret",
		Bucket:          "archives",
		Endpoint:        srv.URL,
	})
	require.NoError(t, err)

	location, err := r2.Upload(context.Background(), "league/snapshot.json", []byte(`{"players":[]}`), "application/json")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/archives/league/snapshot.json", location)
	assert.Equal(t, "/archives/league/snapshot.json", gotPath)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, `{"players":[]}`, string(gotBody))
}
