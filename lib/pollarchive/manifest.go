// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollarchive

import (
	"encoding/hex"
	"time"

	"github.com/zeebo/blake3"
)

// ManifestVersion is the manifest format version written by Export.
const ManifestVersion = 1

// Manifest describes an archive's contents: every poll it carries and
// a digest for every record file. It travels as the first tar entry,
// ahead of the files it describes.
type Manifest struct {
	Version   int            `toml:"version"`
	CreatedAt time.Time      `toml:"created_at"`
	Polls     []ManifestPoll `toml:"polls"`
}

// ManifestPoll is one archived poll.
type ManifestPoll struct {
	// Slug is the poll's identity and its directory name in the tar.
	Slug string `toml:"slug"`

	// Concluded and Deleted record how the poll counted as settled at
	// export time.
	Concluded bool `toml:"concluded"`
	Deleted   bool `toml:"deleted"`

	Files []ManifestFile `toml:"files"`
}

// ManifestFile is one record file of an archived poll.
type ManifestFile struct {
	// Name is the bare file name inside the poll directory.
	Name string `toml:"name"`

	Size int64 `toml:"size"`

	// Blake3 is the hex keyed BLAKE3 digest of the file content.
	Blake3 string `toml:"blake3"`
}

// Slugs returns the archived poll slugs in manifest order.
func (m *Manifest) Slugs() []string {
	slugs := make([]string, len(m.Polls))
	for i, p := range m.Polls {
		slugs[i] = p.Slug
	}
	return slugs
}

// fileDigestKey is the BLAKE3 key for archive file digests. Domain
// separation keeps these digests from colliding with hashes computed
// elsewhere over the same bytes. The value is the ASCII domain name
// zero-padded to 32 bytes; changing it invalidates every existing
// archive.
var fileDigestKey = [32]byte{
	'c', 'o', 'u', 'n', 'c', 'i', 'l', '.', 'a', 'r', 'c', 'h', 'i', 'v', 'e', '.',
	'f', 'i', 'l', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// fileDigest computes the hex keyed BLAKE3 digest of a record file.
func fileDigest(data []byte) string {
	hasher, err := blake3.NewKeyed(fileDigestKey[:])
	if err != nil {
		panic("pollarchive: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}
