package circuits

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/logical-mechanism/peace-protocol/config"
	"github.com/logical-mechanism/peace-protocol/log"
	"github.com/logical-mechanism/peace-protocol/types"
)

// CheckHashes enables the sha256 check of every artifact that declares a
// hash. Defaults to the PEACE_CHECK_HASHES environment variable.
var CheckHashes = config.CheckHashes()

// BaseDir is the content-addressed cache of downloaded artifacts. Defaults
// to the PEACE_ARTIFACTS_DIR environment variable or a directory under the
// user cache.
var BaseDir = config.ArtifactsDir()

// Artifact is one setup file: the constraint system, the proving key or the
// verifying key. It is looked up, in order, at LocalPath, in the cache by
// Hash and at RemoteURL. When Hash is set the content must match it.
type Artifact struct {
	Name      string
	LocalPath string
	RemoteURL string
	Hash      types.HexBytes
	Content   []byte
}

// Load fills the artifact content.
func (a *Artifact) Load(ctx context.Context) error {
	if len(a.Content) != 0 {
		return nil
	}
	if a.LocalPath != "" {
		content, err := os.ReadFile(a.LocalPath)
		if err == nil {
			return a.setContent(content)
		}
		if !errors.Is(err, os.ErrNotExist) || (len(a.Hash) == 0 && a.RemoteURL == "") {
			return types.ErrSetupArtifactCorrupt.Withf("%s: %v", a.describe(), err)
		}
	}
	if len(a.Hash) == 0 {
		return types.ErrSetupArtifactCorrupt.Withf("%s: no local file and no hash to look up", a.describe())
	}
	content, err := loadCached(a.Hash)
	if err != nil {
		return err
	}
	if content == nil {
		if a.RemoteURL == "" {
			return types.ErrSetupArtifactCorrupt.Withf("%s: not cached and no remote url", a.describe())
		}
		if err := a.Download(ctx); err != nil {
			return err
		}
		if content, err = loadCached(a.Hash); err != nil {
			return err
		}
	}
	return a.setContent(content)
}

// Download fetches the artifact into the cache, resuming a partial
// download when one exists.
func (a *Artifact) Download(ctx context.Context) error {
	if a.RemoteURL == "" {
		return fmt.Errorf("%s: remote url not provided", a.describe())
	}
	if len(a.Hash) == 0 {
		return fmt.Errorf("%s: downloads need an expected hash", a.describe())
	}
	return downloadAndStore(ctx, a.Hash, a.RemoteURL)
}

// Reader returns a reader over the loaded content.
func (a *Artifact) Reader() io.Reader {
	return bytes.NewReader(a.Content)
}

func (a *Artifact) setContent(content []byte) error {
	if CheckHashes && len(a.Hash) != 0 {
		if sum := sha256.Sum256(content); !bytes.Equal(sum[:], a.Hash) {
			return types.ErrSetupArtifactCorrupt.Withf("%s: hash mismatch, expected %x, got %x", a.describe(), []byte(a.Hash), sum[:])
		}
	}
	a.Content = content
	return nil
}

func (a *Artifact) describe() string {
	if a.Name != "" {
		return a.Name
	}
	return "artifact"
}

// SetupArtifacts groups the three files a prover session needs.
type SetupArtifacts struct {
	ConstraintSystem *Artifact
	ProvingKey       *Artifact
	VerifyingKey     *Artifact
}

// NewSetupArtifacts describes the setup files stored in dir.
func NewSetupArtifacts(dir string) *SetupArtifacts {
	return &SetupArtifacts{
		ConstraintSystem: &Artifact{Name: "constraint system", LocalPath: filepath.Join(dir, config.ConstraintSystemFile)},
		ProvingKey:       &Artifact{Name: "proving key", LocalPath: filepath.Join(dir, config.ProvingKeyFile)},
		VerifyingKey:     &Artifact{Name: "verifying key", LocalPath: filepath.Join(dir, config.VerifyingKeyFile)},
	}
}

// LoadAll loads every artifact that is set.
func (sa *SetupArtifacts) LoadAll(ctx context.Context) error {
	for _, a := range []*Artifact{sa.ConstraintSystem, sa.ProvingKey, sa.VerifyingKey} {
		if a == nil {
			continue
		}
		if err := a.Load(ctx); err != nil {
			return err
		}
	}
	return nil
}

func cachePath(hash []byte) string {
	return filepath.Join(BaseDir, hex.EncodeToString(hash))
}

// loadCached returns nil content without error when the hash is not cached.
func loadCached(hash []byte) ([]byte, error) {
	content, err := os.ReadFile(cachePath(hash))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cached artifact: %w", err)
	}
	return content, nil
}

// progressReader counts the bytes read so far.
type progressReader struct {
	reader io.Reader
	total  int64 // updated atomically
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	atomic.AddInt64(&pr.total, int64(n))
	return n, err
}

func downloadAndStore(ctx context.Context, expectedHash []byte, fileURL string) error {
	if _, err := url.Parse(fileURL); err != nil {
		return fmt.Errorf("invalid artifact url: %w", err)
	}
	if err := os.MkdirAll(BaseDir, 0o755); err != nil {
		return fmt.Errorf("create artifact cache: %w", err)
	}
	path := cachePath(expectedHash)
	partialPath := path + ".partial"

	var offset int64
	if info, err := os.Stat(partialPath); err == nil {
		offset = info.Size()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", fileURL, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("download %s: http status %d", fileURL, res.StatusCode)
	}

	hasher := sha256.New()
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if offset > 0 && res.StatusCode == http.StatusPartialContent {
		flags = os.O_APPEND | os.O_WRONLY
		existing, err := os.Open(partialPath)
		if err != nil {
			return fmt.Errorf("reopen partial download: %w", err)
		}
		_, err = io.Copy(hasher, existing)
		existing.Close()
		if err != nil {
			return fmt.Errorf("hash partial download: %w", err)
		}
	}
	fd, err := os.OpenFile(partialPath, flags, 0o644)
	if err != nil {
		return fmt.Errorf("open partial download: %w", err)
	}
	defer fd.Close()

	pr := &progressReader{reader: res.Body}
	done := make(chan error, 1)
	go func() {
		_, err := io.Copy(io.MultiWriter(fd, hasher), pr)
		done <- err
	}()
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for waiting := true; waiting; {
		select {
		case err := <-done:
			if err != nil {
				return fmt.Errorf("write artifact: %w", err)
			}
			waiting = false
		case <-ticker.C:
			log.Debugw("downloading artifact", "url", fileURL,
				"downloaded", fmt.Sprintf("%.2fMiB", float64(atomic.LoadInt64(&pr.total))/(1<<20)))
		}
	}
	if CheckHashes {
		if sum := hasher.Sum(nil); !bytes.Equal(sum, expectedHash) {
			if err := os.Remove(partialPath); err != nil {
				log.Warnw("remove invalid download", "path", partialPath, "error", err)
			}
			return types.ErrSetupArtifactCorrupt.Withf("downloaded %s: expected hash %x, got %x", fileURL, expectedHash, sum)
		}
	}
	if err := os.Rename(partialPath, path); err != nil {
		return fmt.Errorf("store artifact: %w", err)
	}
	log.Infow("artifact downloaded", "url", fileURL, "path", path)
	return nil
}
