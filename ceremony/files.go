package ceremony

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/logical-mechanism/peace-protocol/circuits"
	"github.com/logical-mechanism/peace-protocol/config"
	"github.com/logical-mechanism/peace-protocol/types"
)

func (c *Ceremony) path(name string) string {
	return filepath.Join(c.dir, name)
}

func (c *Ceremony) contributionPath(phase, index int) string {
	f := config.Phase1ContributionFile
	if phase == 2 {
		f = config.Phase2ContributionFile
	}
	return c.path(fmt.Sprintf(f, index))
}

func (c *Ceremony) exists(name string) bool {
	_, err := os.Stat(c.path(name))
	return err == nil
}

// contributions returns the contribution files of a phase in index order.
// Indices must run from 0 without gaps.
func (c *Ceremony) contributions(phase int) ([]string, error) {
	prefix := fmt.Sprintf("phase%d_", phase)
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, types.ErrCeremonyState.WithErr(err)
	}
	indices := []int{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".bin") {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".bin"))
		if err != nil {
			continue
		}
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	paths := make([]string, len(indices))
	for i, idx := range indices {
		if idx != i {
			return nil, types.ErrCeremonyChainBroken.Withf("phase %d contribution %d is missing", phase, i)
		}
		paths[i] = c.contributionPath(phase, idx)
	}
	return paths, nil
}

// writeExclusive writes the object to path, failing if path exists. The
// content is written to a temporary file first and hard-linked into place,
// so a reader never sees a partial contribution and an index is never
// taken twice.
func writeExclusive(path string, obj io.WriterTo) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := obj.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Link(tmp.Name(), path); err != nil {
		if errors.Is(err, os.ErrExist) {
			return types.ErrCeremonyState.Withf("%s already exists", filepath.Base(path))
		}
		return fmt.Errorf("link %s: %w", path, err)
	}
	return nil
}

func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func load(path string, obj io.ReaderFrom) error {
	return circuits.LoadArtifact(path, obj)
}
