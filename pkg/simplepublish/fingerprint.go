package simplepublish

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// DefaultSpoolLimit is the number of buffered bytes after which a
// fingerprinted stream spills from memory to a temp file.
const DefaultSpoolLimit = 8 << 20

// Hasher computes a streaming SHA-256 digest over an asset's bytes while
// retaining them for a second pass, so the same bytes can be published
// without re-reading the original source.
type Hasher struct {
	// SpoolLimit overrides DefaultSpoolLimit when positive
	SpoolLimit int64
}

// FingerprintResult holds the digest of a consumed stream plus the buffered
// bytes. Callers must Close it to release any temp-file spool; Open may be
// called once to replay the bytes.
type FingerprintResult struct {
	Digest string
	Size   int64

	mem    *bytes.Reader
	spool  *os.File
	source io.ReadSeeker
	offset int64
}

// Fingerprint consumes r exactly once, hashing chunks as they arrive. The
// digest depends only on the byte sequence, never on chunk boundaries. A
// seekable source is rewound instead of buffered; otherwise bytes are kept
// in memory up to the spool limit and in a temp file beyond it. Any read
// error from r fails the whole fingerprint.
func (h Hasher) Fingerprint(r io.Reader) (*FingerprintResult, error) {
	digest := sha256.New()

	if rs, ok := r.(io.ReadSeeker); ok {
		offset, err := rs.Seek(0, io.SeekCurrent)
		if err == nil {
			n, err := io.Copy(digest, rs)
			if err != nil {
				return nil, fmt.Errorf("fingerprint read: %w", err)
			}
			return &FingerprintResult{
				Digest: hex.EncodeToString(digest.Sum(nil)),
				Size:   n,
				source: rs,
				offset: offset,
			}, nil
		}
		// Seek failed; fall through and buffer like a plain reader.
	}

	limit := h.SpoolLimit
	if limit <= 0 {
		limit = DefaultSpoolLimit
	}

	var mem bytes.Buffer
	n, err := io.Copy(io.MultiWriter(digest, &mem), io.LimitReader(r, limit))
	if err != nil {
		return nil, fmt.Errorf("fingerprint read: %w", err)
	}

	res := &FingerprintResult{Size: n}

	if n == limit {
		// The source may have more bytes than the memory budget; spill
		// what we have and stream the rest straight to disk.
		spool, err := os.CreateTemp("", "simplepublish-spool-*")
		if err != nil {
			return nil, fmt.Errorf("fingerprint spool: %w", err)
		}
		if _, err := spool.Write(mem.Bytes()); err != nil {
			spool.Close()
			os.Remove(spool.Name())
			return nil, fmt.Errorf("fingerprint spool: %w", err)
		}
		rest, err := io.Copy(io.MultiWriter(digest, spool), r)
		if err != nil {
			spool.Close()
			os.Remove(spool.Name())
			return nil, fmt.Errorf("fingerprint read: %w", err)
		}
		res.Size += rest
		res.spool = spool
	} else {
		res.mem = bytes.NewReader(mem.Bytes())
	}

	res.Digest = hex.EncodeToString(digest.Sum(nil))
	return res, nil
}

// Fingerprint hashes r with a default Hasher.
func Fingerprint(r io.Reader) (*FingerprintResult, error) {
	return Hasher{}.Fingerprint(r)
}

// Open returns a reader positioned at the start of the fingerprinted bytes.
func (f *FingerprintResult) Open() (io.Reader, error) {
	switch {
	case f.source != nil:
		if _, err := f.source.Seek(f.offset, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewind source: %w", err)
		}
		return f.source, nil
	case f.spool != nil:
		if _, err := f.spool.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewind spool: %w", err)
		}
		return f.spool, nil
	default:
		f.mem.Seek(0, io.SeekStart)
		return f.mem, nil
	}
}

// Close releases the temp-file spool, if any.
func (f *FingerprintResult) Close() error {
	if f.spool == nil {
		return nil
	}
	name := f.spool.Name()
	err := f.spool.Close()
	if rmErr := os.Remove(name); err == nil {
		err = rmErr
	}
	f.spool = nil
	return err
}

// FingerprintedName derives the content-addressed storage name for an
// asset: "<basename>-<digestHex><ext>". It is a pure function; identical
// inputs always yield identical names, and distinct digests never collide.
func FingerprintedName(originalName, digestHex string) string {
	ext := path.Ext(originalName)
	base := strings.TrimSuffix(originalName, ext)
	return base + "-" + digestHex + ext
}

// validateAssetName rejects original names that would not map to a single
// path element when used as a storage key. The name becomes part of the
// object key verbatim, so a separator or dot element would let a caller
// steer where the asset lands.
func validateAssetName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
