package circuits

import (
	"bytes"
	"context"
	"crypto/sha256"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/logical-mechanism/peace-protocol/types"
)

var (
	dummyPath    = "dummy.pk"
	dummyContent = []byte("dummy proving key")
)

func testDummyServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, dummyPath, time.Now(), bytes.NewReader(dummyContent))
	}))
}

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "peace-artifacts-test")
	if err != nil {
		panic(err)
	}
	BaseDir = dir
	code := m.Run()
	if err := os.RemoveAll(BaseDir); err != nil {
		panic(err)
	}
	os.Exit(code)
}

func TestLoadRemote(t *testing.T) {
	c := qt.New(t)
	server := testDummyServer()
	defer server.Close()

	hash := sha256.Sum256(dummyContent)
	remoteURL, err := url.JoinPath(server.URL, dummyPath)
	c.Assert(err, qt.IsNil)
	a := &Artifact{RemoteURL: remoteURL, Hash: hash[:]}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// first load downloads
	c.Assert(a.Load(ctx), qt.IsNil)
	c.Assert(a.Content, qt.DeepEquals, dummyContent)
	// second load is served from the cache
	server.Close()
	a.Content = nil
	c.Assert(a.Load(ctx), qt.IsNil)
	c.Assert(a.Content, qt.DeepEquals, dummyContent)
}

func TestLoadWrongHash(t *testing.T) {
	c := qt.New(t)
	server := testDummyServer()
	defer server.Close()

	remoteURL, err := url.JoinPath(server.URL, dummyPath)
	c.Assert(err, qt.IsNil)
	a := &Artifact{RemoteURL: remoteURL, Hash: bytes.Repeat([]byte{0xaa}, 32)}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = a.Load(ctx)
	c.Assert(err, qt.ErrorIs, types.ErrSetupArtifactCorrupt)
	c.Assert(a.Content, qt.IsNil)
}

func TestLoadLocal(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "vk.bin")
	c.Assert(os.WriteFile(path, dummyContent, 0o644), qt.IsNil)

	a := &Artifact{LocalPath: path}
	c.Assert(a.Load(context.Background()), qt.IsNil)
	c.Assert(a.Content, qt.DeepEquals, dummyContent)

	tampered := &Artifact{LocalPath: path, Hash: bytes.Repeat([]byte{1}, 32)}
	c.Assert(tampered.Load(context.Background()), qt.ErrorIs, types.ErrSetupArtifactCorrupt)

	missing := &Artifact{LocalPath: filepath.Join(dir, "nope.bin")}
	c.Assert(missing.Load(context.Background()), qt.ErrorIs, types.ErrSetupArtifactCorrupt)
}

func TestSetupArtifactsLoadAll(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()
	sa := NewSetupArtifacts(dir)
	for _, a := range []*Artifact{sa.ConstraintSystem, sa.ProvingKey} {
		c.Assert(os.WriteFile(a.LocalPath, []byte(a.Name), 0o644), qt.IsNil)
	}
	c.Assert(sa.LoadAll(context.Background()), qt.ErrorIs, types.ErrSetupArtifactCorrupt)

	c.Assert(os.WriteFile(sa.VerifyingKey.LocalPath, []byte("vk"), 0o644), qt.IsNil)
	c.Assert(sa.LoadAll(context.Background()), qt.IsNil)
	c.Assert(string(sa.ProvingKey.Content), qt.Equals, "proving key")
}

func TestLimbs(t *testing.T) {
	c := qt.New(t)
	x, ok := new(big.Int).SetString("1a0111ea397fe69a4b1ba7b6434bacd764774b84f38512bf6730d2a0f6b0f6241eabfffeb153ffffb9feffffffffaaaa", 16)
	c.Assert(ok, qt.IsTrue)
	limbs := FpToLimbs(x)
	c.Assert(limbs, qt.HasLen, FpLimbs)
	back, err := LimbsToFp(limbs)
	c.Assert(err, qt.IsNil)
	c.Assert(back.Cmp(x), qt.Equals, 0)

	_, err = LimbsToFp(limbs[:5])
	c.Assert(err, qt.ErrorIs, types.ErrMalformedEncoding)
	limbs[2] = new(big.Int).Lsh(big.NewInt(1), LimbBits)
	_, err = LimbsToFp(limbs)
	c.Assert(err, qt.ErrorIs, types.ErrMalformedEncoding)
}
