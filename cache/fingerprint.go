package cache

import (
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/spicekit/spiceraw/errors"
)

// hashWindow is how much of the file participates in the content hash
// when Options.HashContent is set. The header and the first records
// change on any re-simulation, so a prefix is enough to distinguish
// same-size rewrites.
const hashWindow = 64 << 10

// fingerprint identifies one on-disk version of a raw file. It is part
// of every entry key, so entries for an outdated version become
// unreachable the moment the file changes.
type fingerprint struct {
	size  int64
	mtime int64
	hash  uint64
}

func (fp fingerprint) String() string {
	return fmt.Sprintf("%x-%x-%x", fp.size, fp.mtime, fp.hash)
}

func fileFingerprint(path string, hashContent bool) (fingerprint, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return fingerprint{}, errors.WrapIO(errors.PhaseCache, path, err)
	}
	fp := fingerprint{size: fi.Size(), mtime: fi.ModTime().UnixNano()}
	if !hashContent {
		return fp, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return fingerprint{}, errors.WrapIO(errors.PhaseCache, path, err)
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, io.LimitReader(f, hashWindow)); err != nil {
		return fingerprint{}, errors.WrapIO(errors.PhaseCache, path, err)
	}
	fp.hash = h.Sum64()
	return fp, nil
}
