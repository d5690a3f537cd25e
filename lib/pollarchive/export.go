// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollarchive

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"sort"

	"filippo.io/age"
	"github.com/jonboulle/clockwork"
	"github.com/pelletier/go-toml/v2"

	"github.com/council-foundation/council/lib/pollstore"
	"github.com/council-foundation/council/lib/secret"
)

// manifestName is the tar entry holding the manifest, always first in
// the stream.
const manifestName = "manifest.toml"

// ExportOptions control Export.
type ExportOptions struct {
	// Slugs selects which settled polls to export. Empty means every
	// settled poll in the store. Naming an unsettled poll is an error.
	Slugs []string

	// Compression selects the payload codec. Exports fall back to
	// CompressionNone when the codec does not shrink the payload.
	Compression CompressionTag

	// Recipients are age x25519 public keys (age1... format). When
	// set, the payload is encrypted so only the matching identities
	// can read it back.
	Recipients []string

	// Passphrase switches to age scrypt encryption. Mutually
	// exclusive with Recipients. Borrowed, not closed.
	Passphrase *secret.Buffer

	// Clock stamps the manifest and the tar entries. Nil means the
	// wall clock.
	Clock clockwork.Clock
}

// Export writes the selected settled polls to w as one archive and
// returns the manifest it embedded. The store is never modified; see
// [Prune] for destroying what an export captured.
func Export(store *pollstore.Store, w io.Writer, options ExportOptions) (*Manifest, error) {
	if len(options.Recipients) > 0 && options.Passphrase != nil {
		return nil, fmt.Errorf("recipients and a passphrase are mutually exclusive")
	}
	clock := options.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	slugs := options.Slugs
	if len(slugs) == 0 {
		var err error
		slugs, err = settledSlugs(store)
		if err != nil {
			return nil, err
		}
	}
	if len(slugs) == 0 {
		return nil, fmt.Errorf("no settled polls to export")
	}

	manifest := &Manifest{Version: ManifestVersion, CreatedAt: clock.Now().UTC()}
	contents := make(map[string]map[string][]byte, len(slugs))
	for _, slug := range slugs {
		entry, files, err := capturePoll(store, slug)
		if err != nil {
			return nil, err
		}
		manifest.Polls = append(manifest.Polls, entry)
		contents[slug] = files
	}

	tarBytes, err := packTar(manifest, contents)
	if err != nil {
		return nil, err
	}

	payload, compression, err := compress(tarBytes, options.Compression)
	if err != nil {
		return nil, err
	}

	encryption := EncryptionNone
	switch {
	case len(options.Recipients) > 0:
		encryption = EncryptionAge
		payload, err = encryptToRecipients(payload, options.Recipients)
	case options.Passphrase != nil:
		encryption = EncryptionScrypt
		payload, err = encryptWithPassphrase(payload, options.Passphrase)
	}
	if err != nil {
		return nil, err
	}

	if _, err := w.Write(encodeHeader(compression, encryption, len(tarBytes))); err != nil {
		return nil, fmt.Errorf("writing archive header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return nil, fmt.Errorf("writing archive payload: %w", err)
	}
	return manifest, nil
}

// settledSlugs lists every concluded or deleted poll in the store, in
// the store's lexical slug order.
func settledSlugs(store *pollstore.Store) ([]string, error) {
	all, err := store.ListPollSlugs()
	if err != nil {
		return nil, err
	}
	var settled []string
	for _, slug := range all {
		p, err := store.LoadPoll(slug)
		if err != nil {
			return nil, err
		}
		if p.Concluded || p.Deleted {
			settled = append(settled, slug)
		}
	}
	return settled, nil
}

// capturePoll reads one settled poll and digests its files. The slug
// lock is held across the reads so the capture is a consistent
// snapshot.
func capturePoll(store *pollstore.Store, slug string) (ManifestPoll, map[string][]byte, error) {
	unlock := store.LockSlug(slug)
	defer unlock()

	p, err := store.LoadPoll(slug)
	if err != nil {
		return ManifestPoll{}, nil, err
	}
	if !p.Concluded && !p.Deleted {
		return ManifestPoll{}, nil, fmt.Errorf("poll %s cannot be archived: not concluded or deleted", slug)
	}

	files, err := store.PollFiles(slug)
	if err != nil {
		return ManifestPoll{}, nil, err
	}

	entry := ManifestPoll{Slug: slug, Concluded: p.Concluded, Deleted: p.Deleted}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		data := files[name]
		entry.Files = append(entry.Files, ManifestFile{
			Name:   name,
			Size:   int64(len(data)),
			Blake3: fileDigest(data),
		})
	}
	return entry, files, nil
}

// packTar builds the archive tar stream: the manifest first, then
// every record file under slug/name.
func packTar(manifest *Manifest, contents map[string]map[string][]byte) ([]byte, error) {
	manifestBytes, err := toml.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}

	var buffer bytes.Buffer
	writer := tar.NewWriter(&buffer)

	writeEntry := func(name string, data []byte) error {
		hdr := &tar.Header{
			Name:    name,
			Mode:    0o644,
			Size:    int64(len(data)),
			ModTime: manifest.CreatedAt,
			Format:  tar.FormatPAX,
		}
		if err := writer.WriteHeader(hdr); err != nil {
			return fmt.Errorf("writing tar header for %s: %w", name, err)
		}
		if _, err := writer.Write(data); err != nil {
			return fmt.Errorf("writing tar entry %s: %w", name, err)
		}
		return nil
	}

	if err := writeEntry(manifestName, manifestBytes); err != nil {
		return nil, err
	}
	for _, entry := range manifest.Polls {
		files := contents[entry.Slug]
		for _, file := range entry.Files {
			if err := writeEntry(entry.Slug+"/"+file.Name, files[file.Name]); err != nil {
				return nil, err
			}
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalizing tar stream: %w", err)
	}
	return buffer.Bytes(), nil
}

// encryptToRecipients encrypts the payload to age x25519 recipients.
func encryptToRecipients(payload []byte, recipientKeys []string) ([]byte, error) {
	recipients := make([]age.Recipient, 0, len(recipientKeys))
	for _, key := range recipientKeys {
		recipient, err := age.ParseX25519Recipient(key)
		if err != nil {
			return nil, fmt.Errorf("parsing recipient key %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}
	return ageEncrypt(payload, recipients...)
}

// encryptWithPassphrase encrypts the payload with an age scrypt
// passphrase. The passphrase buffer is borrowed, not closed; the age
// API wants a string, so a brief heap copy is unavoidable here.
func encryptWithPassphrase(payload []byte, passphrase *secret.Buffer) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(passphrase.String())
	if err != nil {
		return nil, fmt.Errorf("preparing passphrase encryption: %w", err)
	}
	return ageEncrypt(payload, recipient)
}

func ageEncrypt(payload []byte, recipients ...age.Recipient) ([]byte, error) {
	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, recipients...)
	if err != nil {
		return nil, fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(payload); err != nil {
		return nil, fmt.Errorf("writing payload to age encryptor: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalizing age encryption: %w", err)
	}
	return ciphertext.Bytes(), nil
}
