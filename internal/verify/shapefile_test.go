package verify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certverify/internal/credential"
	dErrors "certverify/pkg/domain-errors"
	"certverify/pkg/hashutil"
)

func shapefileCredential(t *testing.T, url, hash string) *credential.Credential {
	t.Helper()
	cred, err := credential.Parse([]byte(fmt.Sprintf(
		`{"credentialSubject": {"ShapeFile": %q, "shapefileHash": %q}}`, url, hash)))
	require.NoError(t, err)
	return cred
}

func tempFileCount(t *testing.T, dir string) int {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "shapefile-*"))
	require.NoError(t, err)
	return len(matches)
}

func TestShapefileVerifyMatch(t *testing.T) {
	content := []byte("shapefile geometry bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer srv.Close()

	dir := t.TempDir()
	cred := shapefileCredential(t, srv.URL+"/parcel.shp", hashutil.SumHex(content))

	passed, err := NewShapefileVerifier(WithShapefileDir(dir)).Verify(context.Background(), cred)

	require.NoError(t, err)
	assert.True(t, passed)
	assert.Zero(t, tempFileCount(t, dir), "temp file must be removed after a pass")
}

func TestShapefileVerifyMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tampered geometry"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	cred := shapefileCredential(t, srv.URL+"/parcel.shp", hashutil.SumHex([]byte("original geometry")))

	passed, err := NewShapefileVerifier(WithShapefileDir(dir)).Verify(context.Background(), cred)

	require.NoError(t, err)
	assert.False(t, passed)
	assert.Zero(t, tempFileCount(t, dir), "temp file must be removed after a fail")
}

func TestShapefileVerifyDownloadStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	cred := shapefileCredential(t, srv.URL+"/parcel.shp", "abc123")

	passed, err := NewShapefileVerifier(WithShapefileDir(dir)).Verify(context.Background(), cred)

	require.Error(t, err)
	assert.False(t, passed)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	assert.Zero(t, tempFileCount(t, dir), "no temp file may survive an error")
}

func TestShapefileVerifyServerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	dir := t.TempDir()
	cred := shapefileCredential(t, srv.URL+"/parcel.shp", "abc123")

	passed, err := NewShapefileVerifier(WithShapefileDir(dir)).Verify(context.Background(), cred)

	require.Error(t, err)
	assert.False(t, passed)
	assert.Zero(t, tempFileCount(t, dir))
}

func TestShapefileVerifyMissingSubjectFields(t *testing.T) {
	v := NewShapefileVerifier(WithShapefileDir(t.TempDir()))

	noURL, err := credential.Parse([]byte(`{"credentialSubject": {"shapefileHash": "abc"}}`))
	require.NoError(t, err)
	passed, err := v.Verify(context.Background(), noURL)
	require.Error(t, err)
	assert.False(t, passed)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	noHash, err := credential.Parse([]byte(`{"credentialSubject": {"ShapeFile": "https://files.example.com/p.shp"}}`))
	require.NoError(t, err)
	passed, err = v.Verify(context.Background(), noHash)
	require.Error(t, err)
	assert.False(t, passed)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestShapefileVerifyTempFileUsesUniqueNames(t *testing.T) {
	content := []byte("geometry")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer srv.Close()

	dir := t.TempDir()
	cred := shapefileCredential(t, srv.URL+"/parcel.shp", hashutil.SumHex(content))
	v := NewShapefileVerifier(WithShapefileDir(dir))

	for i := 0; i < 3; i++ {
		passed, err := v.Verify(context.Background(), cred)
		require.NoError(t, err)
		assert.True(t, passed)
	}
	assert.Zero(t, tempFileCount(t, dir))
}

func TestShapefileVerifierDefaultTempDir(t *testing.T) {
	v := NewShapefileVerifier()
	assert.Equal(t, os.TempDir(), v.tmpDir)
}
