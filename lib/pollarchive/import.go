// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollarchive

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"
	"github.com/pelletier/go-toml/v2"

	"github.com/council-foundation/council/lib/pollstore"
	"github.com/council-foundation/council/lib/secret"
)

// ImportOptions control Import.
type ImportOptions struct {
	// Identity holds the contents of an age identity file (an
	// AGE-SECRET-KEY-1... line, # comments allowed) for an archive
	// encrypted to recipients. Borrowed, not closed.
	Identity *secret.Buffer

	// Passphrase unlocks an scrypt-encrypted archive. Borrowed, not
	// closed.
	Passphrase *secret.Buffer

	// Force replaces polls that already exist in the store. Without
	// it, any collision aborts the import before anything is written.
	Force bool
}

// ImportResult reports what Import wrote.
type ImportResult struct {
	// Imported lists every poll written, in manifest order.
	Imported []string

	// Replaced is the subset of Imported that overwrote an existing
	// poll.
	Replaced []string
}

// Import reads an archive produced by [Export] and writes its polls
// into the store. The complete payload is verified against the
// manifest digests before the first write, so a corrupt or tampered
// archive changes nothing. Existing polls abort the import unless
// Force is set.
func Import(store *pollstore.Store, r io.Reader, options ImportOptions) (*ImportResult, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}

	tarBytes, err := unwrap(raw, options)
	if err != nil {
		return nil, err
	}
	manifest, contents, err := readArchive(tarBytes)
	if err != nil {
		return nil, err
	}
	if err := verify(manifest, contents); err != nil {
		return nil, err
	}

	var conflicts []string
	for _, entry := range manifest.Polls {
		_, err := store.LoadPoll(entry.Slug)
		switch {
		case err == nil:
			conflicts = append(conflicts, entry.Slug)
		case !pollstore.IsNotFound(err):
			return nil, err
		}
	}
	if len(conflicts) > 0 && !options.Force {
		return nil, fmt.Errorf("%d polls already exist (%s): refusing to overwrite without force",
			len(conflicts), strings.Join(conflicts, ", "))
	}
	replaced := make(map[string]bool, len(conflicts))
	for _, slug := range conflicts {
		replaced[slug] = true
	}

	result := &ImportResult{}
	for _, entry := range manifest.Polls {
		unlock := store.LockSlug(entry.Slug)
		err := store.WritePollFiles(entry.Slug, contents[entry.Slug], options.Force)
		unlock()
		if err != nil {
			return nil, fmt.Errorf("writing poll %s: %w", entry.Slug, err)
		}
		result.Imported = append(result.Imported, entry.Slug)
		if replaced[entry.Slug] {
			result.Replaced = append(result.Replaced, entry.Slug)
		}
	}
	return result, nil
}

// unwrap validates the container header, decrypts, and decompresses,
// returning the tar stream.
func unwrap(raw []byte, options ImportOptions) ([]byte, error) {
	h, payload, err := parseHeader(raw)
	if err != nil {
		return nil, err
	}

	switch h.encryption {
	case EncryptionNone:

	case EncryptionAge:
		if options.Identity == nil {
			return nil, fmt.Errorf("archive is encrypted to age recipients: an identity is required")
		}
		identities, err := age.ParseIdentities(strings.NewReader(options.Identity.String()))
		if err != nil {
			return nil, fmt.Errorf("parsing identity: %w", err)
		}
		payload, err = ageDecrypt(payload, identities...)
		if err != nil {
			return nil, err
		}

	case EncryptionScrypt:
		if options.Passphrase == nil {
			return nil, fmt.Errorf("archive is passphrase encrypted: a passphrase is required")
		}
		identity, err := age.NewScryptIdentity(options.Passphrase.String())
		if err != nil {
			return nil, fmt.Errorf("preparing passphrase decryption: %w", err)
		}
		payload, err = ageDecrypt(payload, identity)
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unsupported encryption tag: %d", h.encryption)
	}

	return decompress(payload, h.compression, h.tarSize)
}

func ageDecrypt(ciphertext []byte, identities ...age.Identity) ([]byte, error) {
	reader, err := age.Decrypt(bytes.NewReader(ciphertext), identities...)
	if err != nil {
		return nil, fmt.Errorf("decrypting archive: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted archive: %w", err)
	}
	return plaintext, nil
}

// readArchive walks the tar stream and returns the manifest plus the
// record file contents grouped by slug.
func readArchive(tarBytes []byte) (*Manifest, map[string]map[string][]byte, error) {
	reader := tar.NewReader(bytes.NewReader(tarBytes))

	first, err := reader.Next()
	if err != nil {
		return nil, nil, fmt.Errorf("reading archive: %w", err)
	}
	if first.Name != manifestName {
		return nil, nil, fmt.Errorf("first archive entry is %q, want %s", first.Name, manifestName)
	}
	manifestBytes, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("reading manifest: %w", err)
	}
	var manifest Manifest
	if err := toml.Unmarshal(manifestBytes, &manifest); err != nil {
		return nil, nil, fmt.Errorf("decoding manifest: %w", err)
	}
	if manifest.Version != ManifestVersion {
		return nil, nil, fmt.Errorf("manifest version %d is not supported (want %d)", manifest.Version, ManifestVersion)
	}

	contents := make(map[string]map[string][]byte, len(manifest.Polls))
	for _, entry := range manifest.Polls {
		if _, ok := contents[entry.Slug]; ok {
			return nil, nil, fmt.Errorf("manifest lists poll %s twice", entry.Slug)
		}
		contents[entry.Slug] = make(map[string][]byte, len(entry.Files))
	}

	for {
		hdr, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading archive: %w", err)
		}
		slug, name, ok := strings.Cut(hdr.Name, "/")
		if !ok || strings.Contains(name, "/") {
			return nil, nil, fmt.Errorf("unexpected archive entry %q", hdr.Name)
		}
		files, ok := contents[slug]
		if !ok {
			return nil, nil, fmt.Errorf("archive entry %q belongs to no poll in the manifest", hdr.Name)
		}
		data, err := io.ReadAll(reader)
		if err != nil {
			return nil, nil, fmt.Errorf("reading archive entry %q: %w", hdr.Name, err)
		}
		files[name] = data
	}
	return &manifest, contents, nil
}

// verify checks the extracted contents against the manifest: every
// listed file present with the right size and digest, no unlisted
// files, and every name writable as a record. Nothing is verified
// against the store; conflicts are a separate concern.
func verify(manifest *Manifest, contents map[string]map[string][]byte) error {
	for _, entry := range manifest.Polls {
		if err := pollstore.ValidateRecordName(entry.Slug); err != nil {
			return fmt.Errorf("manifest poll slug %q: %w", entry.Slug, err)
		}
		files := contents[entry.Slug]
		listed := make(map[string]bool, len(entry.Files))
		for _, file := range entry.Files {
			if err := pollstore.ValidateRecordName(file.Name); err != nil {
				return fmt.Errorf("poll %s: manifest file name %q: %w", entry.Slug, file.Name, err)
			}
			listed[file.Name] = true
			data, ok := files[file.Name]
			if !ok {
				return fmt.Errorf("poll %s: file %s is in the manifest but missing from the archive", entry.Slug, file.Name)
			}
			if int64(len(data)) != file.Size {
				return fmt.Errorf("poll %s: file %s is %d bytes, manifest says %d", entry.Slug, file.Name, len(data), file.Size)
			}
			if fileDigest(data) != file.Blake3 {
				return fmt.Errorf("poll %s: digest mismatch on %s: archive is corrupt or tampered", entry.Slug, file.Name)
			}
		}
		for name := range files {
			if !listed[name] {
				return fmt.Errorf("poll %s: archive carries %s, which the manifest does not list", entry.Slug, name)
			}
		}
	}
	return nil
}
