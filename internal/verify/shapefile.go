package verify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"certverify/internal/credential"
	dErrors "certverify/pkg/domain-errors"
	"certverify/pkg/hashutil"
)

// ShapefileVerifier downloads a land parcel's shapefile and compares its
// SHA-256 digest against the hash recorded in the credential subject. The
// download is staged in a temp file that is removed on every exit path.
type ShapefileVerifier struct {
	client *http.Client
	tmpDir string
	logger *slog.Logger
}

func NewShapefileVerifier(opts ...ShapefileOption) *ShapefileVerifier {
	v := &ShapefileVerifier{
		client: &http.Client{Timeout: 60 * time.Second},
		tmpDir: os.TempDir(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type ShapefileOption func(*ShapefileVerifier)

func WithShapefileClient(client *http.Client) ShapefileOption {
	return func(v *ShapefileVerifier) {
		if client != nil {
			v.client = client
		}
	}
}

func WithShapefileDir(dir string) ShapefileOption {
	return func(v *ShapefileVerifier) {
		if dir != "" {
			v.tmpDir = dir
		}
	}
}

func WithShapefileLogger(logger *slog.Logger) ShapefileOption {
	return func(v *ShapefileVerifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// Verify fetches the shapefile referenced by the credential subject and
// reports whether its digest matches the subject's recorded hash.
func (v *ShapefileVerifier) Verify(ctx context.Context, cred *credential.Credential) (passed bool, err error) {
	url := cred.Subject.ShapefileURL()
	if url == "" {
		return false, dErrors.New(dErrors.CodeValidation, "credential subject has no shapefile url")
	}
	want := cred.Subject.ShapefileHash()
	if want == "" {
		return false, dErrors.New(dErrors.CodeValidation, "credential subject has no shapefile hash")
	}

	path := filepath.Join(v.tmpDir, fmt.Sprintf("shapefile-%d-%s.shp", time.Now().UnixNano(), uuid.NewString()))
	defer func() {
		if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
			// Cleanup failure never overturns the verification result.
			v.logger.WarnContext(ctx, "failed to remove shapefile temp file",
				"path", path, "error", removeErr)
		}
	}()

	if err := v.download(ctx, url, path); err != nil {
		return false, err
	}

	got, err := hashutil.FileSumHex(path)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "hash shapefile")
	}

	return got == want, nil
}

func (v *ShapefileVerifier) download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "build shapefile request")
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "download shapefile")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return dErrors.New(dErrors.CodeUnavailable,
			fmt.Sprintf("shapefile download returned status %d", resp.StatusCode))
	}

	f, err := os.Create(path)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "create shapefile temp file")
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "write shapefile temp file")
	}
	return f.Close()
}
