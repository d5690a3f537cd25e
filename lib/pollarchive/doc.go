// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package pollarchive moves settled polls between a live record store
// and a single archive file.
//
// An archive is a tar stream of poll directories with a TOML manifest
// as its first entry. The manifest carries a keyed BLAKE3 digest for
// every file, so import can verify the complete payload before the
// first byte reaches the store: a corrupt or tampered archive changes
// nothing. The stream is compressed with zstd (the default), lz4, or
// stored raw, and optionally encrypted with age, either to x25519
// recipients or with an scrypt passphrase held in a secret.Buffer.
//
// Only settled polls (concluded or deleted) can be exported; their
// records no longer change. Export never modifies the store. Prune is
// the separate, explicit step that destroys polls named in an
// export's manifest.
package pollarchive
