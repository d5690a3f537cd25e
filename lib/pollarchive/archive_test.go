// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollarchive

import (
	"archive/tar"
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"filippo.io/age"
	"github.com/jonboulle/clockwork"
	"github.com/pelletier/go-toml/v2"

	"github.com/council-foundation/council/lib/poll"
	"github.com/council-foundation/council/lib/pollstore"
	"github.com/council-foundation/council/lib/secret"
)

// testTime is the fixed instant the fake clocks start at.
var testTime = time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

func testClock() clockwork.Clock {
	return clockwork.NewFakeClockAt(testTime)
}

func openStore(t *testing.T, dir string) *pollstore.Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, _, err := pollstore.Open(dir, testClock(), logger)
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func newPoll(slug, topic string) *poll.Poll {
	start := time.Date(2026, 3, 9, 13, 0, 0, 0, time.UTC)
	return &poll.Poll{
		Slug:      slug,
		Topic:     topic,
		Tag:       "tag-" + slug[len(slug)-4:],
		Actor:     "alice@example.org",
		StartTime: start,
		EndTime:   start.Add(poll.DefaultLifetime),
	}
}

// seedConcluded creates a poll with two votes and a recorded
// conclusion.
func seedConcluded(t *testing.T, store *pollstore.Store, slug string) {
	t.Helper()
	if err := store.CreatePoll(newPoll(slug, "Adopt the new compliance suite")); err != nil {
		t.Fatal(err)
	}
	if _, _, err := store.AppendVote(slug, "bob@example.org", poll.Ack, "fine by me"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := store.AppendVote(slug, "carol@example.org", poll.Veto, "this conflicts with the rollout plan"); err != nil {
		t.Fatal(err)
	}
	if err := store.Conclude(slug, poll.ReasonVotesCast); err != nil {
		t.Fatal(err)
	}
}

func seedDeleted(t *testing.T, store *pollstore.Store, slug string) {
	t.Helper()
	if err := store.CreatePoll(newPoll(slug, "Retired proposal")); err != nil {
		t.Fatal(err)
	}
	if err := store.MarkDeleted(slug); err != nil {
		t.Fatal(err)
	}
}

func seedOpen(t *testing.T, store *pollstore.Store, slug string) {
	t.Helper()
	if err := store.CreatePoll(newPoll(slug, "Still being voted on")); err != nil {
		t.Fatal(err)
	}
}

func exportBytes(t *testing.T, store *pollstore.Store, options ExportOptions) ([]byte, *Manifest) {
	t.Helper()
	if options.Clock == nil {
		options.Clock = testClock()
	}
	var buffer bytes.Buffer
	manifest, err := Export(store, &buffer, options)
	if err != nil {
		t.Fatal(err)
	}
	return buffer.Bytes(), manifest
}

func TestExportImportRoundTrip(t *testing.T) {
	source := openStore(t, t.TempDir())
	seedConcluded(t, source, "2026-03-09-tAAAA-compliance")
	seedDeleted(t, source, "2026-03-09-tBBBB-retired")

	raw, manifest := exportBytes(t, source, ExportOptions{Compression: CompressionZstd})

	if len(manifest.Polls) != 2 {
		t.Fatalf("manifest has %d polls, want 2: %v", len(manifest.Polls), manifest.Slugs())
	}
	if !manifest.CreatedAt.Equal(testTime) {
		t.Errorf("manifest created at %v, want %v", manifest.CreatedAt, testTime)
	}
	first := manifest.Polls[0]
	if first.Slug != "2026-03-09-tAAAA-compliance" || !first.Concluded || first.Deleted {
		t.Errorf("first manifest entry = %+v", first)
	}
	// metadata, two ledgers, concluded flag.
	if len(first.Files) != 4 {
		t.Errorf("first poll has %d files in the manifest, want 4: %+v", len(first.Files), first.Files)
	}
	for _, file := range first.Files {
		if len(file.Blake3) != 64 {
			t.Errorf("file %s digest %q is not 32 hex bytes", file.Name, file.Blake3)
		}
	}

	target := openStore(t, t.TempDir())
	result, err := Import(target, bytes.NewReader(raw), ImportOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Imported) != 2 || len(result.Replaced) != 0 {
		t.Fatalf("import result = %+v", result)
	}

	concluded, err := target.LoadPoll("2026-03-09-tAAAA-compliance")
	if err != nil {
		t.Fatal(err)
	}
	if !concluded.Concluded || concluded.ConcludedReason != poll.ReasonVotesCast {
		t.Errorf("imported conclusion = %+v", concluded)
	}
	entry, hasVote, err := target.CurrentVote(concluded.Slug, "carol@example.org")
	if err != nil {
		t.Fatal(err)
	}
	if !hasVote || entry.Value != poll.Veto || entry.Remark != "this conflicts with the rollout plan" {
		t.Errorf("carol's vote after import = %+v (has=%v)", entry, hasVote)
	}

	deleted, err := target.LoadPoll("2026-03-09-tBBBB-retired")
	if err != nil {
		t.Fatal(err)
	}
	if !deleted.Deleted {
		t.Error("imported poll lost its deleted flag")
	}

	// The record files survive byte-identically.
	for _, slug := range manifest.Slugs() {
		want, err := source.PollFiles(slug)
		if err != nil {
			t.Fatal(err)
		}
		got, err := target.PollFiles(slug)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != len(want) {
			t.Fatalf("poll %s: imported %d files, want %d", slug, len(got), len(want))
		}
		for name, data := range want {
			if !bytes.Equal(got[name], data) {
				t.Errorf("poll %s: file %s differs after the round trip", slug, name)
			}
		}
	}
}

func TestExportSkipsOpenPolls(t *testing.T) {
	store := openStore(t, t.TempDir())
	seedConcluded(t, store, "2026-03-09-tAAAA-compliance")
	seedOpen(t, store, "2026-03-09-tBBBB-active")

	_, manifest := exportBytes(t, store, ExportOptions{Compression: CompressionZstd})

	if len(manifest.Polls) != 1 || manifest.Polls[0].Slug != "2026-03-09-tAAAA-compliance" {
		t.Errorf("exported slugs = %v, want just the concluded poll", manifest.Slugs())
	}
}

func TestExportNamedSlugs(t *testing.T) {
	store := openStore(t, t.TempDir())
	seedConcluded(t, store, "2026-03-09-tAAAA-compliance")
	seedDeleted(t, store, "2026-03-09-tBBBB-retired")
	seedOpen(t, store, "2026-03-09-tCCCC-active")

	_, manifest := exportBytes(t, store, ExportOptions{
		Slugs:       []string{"2026-03-09-tBBBB-retired"},
		Compression: CompressionZstd,
	})
	if len(manifest.Polls) != 1 || manifest.Polls[0].Slug != "2026-03-09-tBBBB-retired" {
		t.Errorf("exported slugs = %v", manifest.Slugs())
	}

	// Naming an open poll is an error, not a silent skip.
	var buffer bytes.Buffer
	_, err := Export(store, &buffer, ExportOptions{
		Slugs: []string{"2026-03-09-tCCCC-active"},
		Clock: testClock(),
	})
	if err == nil || !strings.Contains(err.Error(), "cannot be archived") {
		t.Errorf("exporting an open poll: err = %v", err)
	}

	_, err = Export(store, &buffer, ExportOptions{
		Slugs: []string{"no-such-poll"},
		Clock: testClock(),
	})
	if !pollstore.IsNotFound(err) {
		t.Errorf("exporting a missing poll: err = %v", err)
	}
}

func TestExportNothingSettled(t *testing.T) {
	store := openStore(t, t.TempDir())
	seedOpen(t, store, "2026-03-09-tAAAA-active")

	var buffer bytes.Buffer
	_, err := Export(store, &buffer, ExportOptions{Clock: testClock()})
	if err == nil || !strings.Contains(err.Error(), "no settled polls") {
		t.Errorf("err = %v, want no settled polls", err)
	}
}

func TestCompressionVariants(t *testing.T) {
	for _, compression := range []CompressionTag{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(compression.String(), func(t *testing.T) {
			source := openStore(t, t.TempDir())
			seedConcluded(t, source, "2026-03-09-tAAAA-compliance")

			raw, _ := exportBytes(t, source, ExportOptions{Compression: compression})

			gotCompression, gotEncryption, err := Probe(raw)
			if err != nil {
				t.Fatal(err)
			}
			// Tar padding makes even a single-poll archive
			// compressible, so the requested codec sticks.
			if gotCompression != compression {
				t.Errorf("recorded compression = %v, want %v", gotCompression, compression)
			}
			if gotEncryption != EncryptionNone {
				t.Errorf("recorded encryption = %v, want none", gotEncryption)
			}

			target := openStore(t, t.TempDir())
			if _, err := Import(target, bytes.NewReader(raw), ImportOptions{}); err != nil {
				t.Fatal(err)
			}
			if _, err := target.LoadPoll("2026-03-09-tAAAA-compliance"); err != nil {
				t.Errorf("poll missing after %v import: %v", compression, err)
			}
		})
	}
}

func TestImportVerifiesDigestsBeforeWriting(t *testing.T) {
	source := openStore(t, t.TempDir())
	seedConcluded(t, source, "2026-03-09-tAAAA-compliance")

	// Raw payload so a flipped content byte hits the digest check
	// instead of the codec.
	raw, _ := exportBytes(t, source, ExportOptions{Compression: CompressionNone})

	index := bytes.Index(raw, []byte("rollout plan"))
	if index < 0 {
		t.Fatal("cannot find the vote remark in the raw payload")
	}
	raw[index] ^= 0xFF

	target := openStore(t, t.TempDir())
	_, err := Import(target, bytes.NewReader(raw), ImportOptions{})
	if err == nil || !strings.Contains(err.Error(), "digest mismatch") {
		t.Fatalf("err = %v, want digest mismatch", err)
	}

	// Nothing was written.
	slugs, err := target.ListPollSlugs()
	if err != nil {
		t.Fatal(err)
	}
	if len(slugs) != 0 {
		t.Errorf("tampered import still wrote polls: %v", slugs)
	}
}

func TestImportRefusesOverwrite(t *testing.T) {
	source := openStore(t, t.TempDir())
	seedConcluded(t, source, "2026-03-09-tAAAA-compliance")
	raw, _ := exportBytes(t, source, ExportOptions{Compression: CompressionZstd})

	target := openStore(t, t.TempDir())
	if err := target.CreatePoll(newPoll("2026-03-09-tAAAA-compliance", "A different poll under the same slug")); err != nil {
		t.Fatal(err)
	}

	_, err := Import(target, bytes.NewReader(raw), ImportOptions{})
	if err == nil || !strings.Contains(err.Error(), "already exist") {
		t.Fatalf("err = %v, want overwrite refusal", err)
	}
	existing, err := target.LoadPoll("2026-03-09-tAAAA-compliance")
	if err != nil {
		t.Fatal(err)
	}
	if existing.Topic != "A different poll under the same slug" {
		t.Error("refused import still changed the existing poll")
	}

	// Force replaces the diverged copy wholesale.
	result, err := Import(target, bytes.NewReader(raw), ImportOptions{Force: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Replaced) != 1 || result.Replaced[0] != "2026-03-09-tAAAA-compliance" {
		t.Errorf("result = %+v", result)
	}
	replaced, err := target.LoadPoll("2026-03-09-tAAAA-compliance")
	if err != nil {
		t.Fatal(err)
	}
	if replaced.Topic != "Adopt the new compliance suite" || !replaced.Concluded {
		t.Errorf("poll after forced import = %+v", replaced)
	}
}

func TestImportRejectsFileNotInManifest(t *testing.T) {
	// Hand-build an archive whose tar carries one more file than the
	// manifest admits to.
	metadata := []byte("topic = 'smuggled'\n")
	manifest := &Manifest{
		Version:   ManifestVersion,
		CreatedAt: testTime,
		Polls: []ManifestPoll{{
			Slug:      "2026-03-09-tAAAA-smuggle",
			Concluded: true,
			Files: []ManifestFile{{
				Name:   "metadata.toml",
				Size:   int64(len(metadata)),
				Blake3: fileDigest(metadata),
			}},
		}},
	}
	manifestBytes, err := toml.Marshal(manifest)
	if err != nil {
		t.Fatal(err)
	}

	var tarBuffer bytes.Buffer
	writer := tar.NewWriter(&tarBuffer)
	for _, entry := range []struct {
		name string
		data []byte
	}{
		{manifestName, manifestBytes},
		{"2026-03-09-tAAAA-smuggle/metadata.toml", metadata},
		{"2026-03-09-tAAAA-smuggle/extra.toml", []byte("unlisted = true\n")},
	} {
		hdr := &tar.Header{Name: entry.name, Mode: 0o644, Size: int64(len(entry.data)), Format: tar.FormatPAX}
		if err := writer.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := writer.Write(entry.data); err != nil {
			t.Fatal(err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	raw := append(encodeHeader(CompressionNone, EncryptionNone, tarBuffer.Len()), tarBuffer.Bytes()...)

	target := openStore(t, t.TempDir())
	_, err = Import(target, bytes.NewReader(raw), ImportOptions{})
	if err == nil || !strings.Contains(err.Error(), "manifest does not list") {
		t.Fatalf("err = %v, want unlisted file rejection", err)
	}
	slugs, err := target.ListPollSlugs()
	if err != nil {
		t.Fatal(err)
	}
	if len(slugs) != 0 {
		t.Errorf("rejected import still wrote polls: %v", slugs)
	}
}

func TestImportRejectsGarbage(t *testing.T) {
	target := openStore(t, t.TempDir())

	_, err := Import(target, strings.NewReader("tiny"), ImportOptions{})
	if err == nil || !strings.Contains(err.Error(), "header") {
		t.Errorf("short input: err = %v", err)
	}

	junk := make([]byte, 64)
	copy(junk, "JUNKJUNK")
	_, err = Import(target, bytes.NewReader(junk), ImportOptions{})
	if err == nil || !strings.Contains(err.Error(), "bad magic") {
		t.Errorf("bad magic: err = %v", err)
	}
}

func TestEncryptionRecipients(t *testing.T) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatal(err)
	}

	source := openStore(t, t.TempDir())
	seedConcluded(t, source, "2026-03-09-tAAAA-compliance")
	raw, _ := exportBytes(t, source, ExportOptions{
		Compression: CompressionZstd,
		Recipients:  []string{identity.Recipient().String()},
	})

	_, encryption, err := Probe(raw)
	if err != nil {
		t.Fatal(err)
	}
	if encryption != EncryptionAge {
		t.Fatalf("recorded encryption = %v, want age", encryption)
	}

	target := openStore(t, t.TempDir())

	// No identity: refused before any decryption attempt.
	_, err = Import(target, bytes.NewReader(raw), ImportOptions{})
	if err == nil || !strings.Contains(err.Error(), "identity is required") {
		t.Fatalf("import without identity: err = %v", err)
	}

	// Wrong identity: decryption fails.
	stranger, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatal(err)
	}
	strangerKey, err := secret.NewFromBytes([]byte(stranger.String()))
	if err != nil {
		t.Fatal(err)
	}
	defer strangerKey.Close()
	_, err = Import(target, bytes.NewReader(raw), ImportOptions{Identity: strangerKey})
	if err == nil || !strings.Contains(err.Error(), "decrypting archive") {
		t.Fatalf("import with wrong identity: err = %v", err)
	}

	// The right identity round-trips.
	identityKey, err := secret.NewFromBytes([]byte(identity.String()))
	if err != nil {
		t.Fatal(err)
	}
	defer identityKey.Close()
	if _, err := Import(target, bytes.NewReader(raw), ImportOptions{Identity: identityKey}); err != nil {
		t.Fatal(err)
	}
	if _, err := target.LoadPoll("2026-03-09-tAAAA-compliance"); err != nil {
		t.Errorf("poll missing after encrypted import: %v", err)
	}

	// A full identity file, comments and all, as age-keygen writes it.
	fileText := "# created: 2026-03-09T11:00:00Z\n# public key: " +
		identity.Recipient().String() + "\n" + identity.String() + "\n"
	fileKey, err := secret.NewFromBytes([]byte(fileText))
	if err != nil {
		t.Fatal(err)
	}
	defer fileKey.Close()
	fromFile := openStore(t, t.TempDir())
	if _, err := Import(fromFile, bytes.NewReader(raw), ImportOptions{Identity: fileKey}); err != nil {
		t.Fatalf("import with identity file: %v", err)
	}
}

func TestEncryptionPassphrase(t *testing.T) {
	passphrase, err := secret.NewFromBytes([]byte("correct horse battery staple"))
	if err != nil {
		t.Fatal(err)
	}
	defer passphrase.Close()

	source := openStore(t, t.TempDir())
	seedConcluded(t, source, "2026-03-09-tAAAA-compliance")
	raw, _ := exportBytes(t, source, ExportOptions{
		Compression: CompressionZstd,
		Passphrase:  passphrase,
	})

	_, encryption, err := Probe(raw)
	if err != nil {
		t.Fatal(err)
	}
	if encryption != EncryptionScrypt {
		t.Fatalf("recorded encryption = %v, want scrypt", encryption)
	}

	target := openStore(t, t.TempDir())

	_, err = Import(target, bytes.NewReader(raw), ImportOptions{})
	if err == nil || !strings.Contains(err.Error(), "passphrase is required") {
		t.Fatalf("import without passphrase: err = %v", err)
	}

	wrong, err := secret.NewFromBytes([]byte("incorrect horse"))
	if err != nil {
		t.Fatal(err)
	}
	defer wrong.Close()
	_, err = Import(target, bytes.NewReader(raw), ImportOptions{Passphrase: wrong})
	if err == nil || !strings.Contains(err.Error(), "decrypting archive") {
		t.Fatalf("import with wrong passphrase: err = %v", err)
	}

	if _, err := Import(target, bytes.NewReader(raw), ImportOptions{Passphrase: passphrase}); err != nil {
		t.Fatal(err)
	}
	if _, err := target.LoadPoll("2026-03-09-tAAAA-compliance"); err != nil {
		t.Errorf("poll missing after passphrase import: %v", err)
	}
}

func TestExportRejectsMixedKeyMaterial(t *testing.T) {
	passphrase, err := secret.NewFromBytes([]byte("correct horse battery staple"))
	if err != nil {
		t.Fatal(err)
	}
	defer passphrase.Close()

	store := openStore(t, t.TempDir())
	seedConcluded(t, store, "2026-03-09-tAAAA-compliance")

	var buffer bytes.Buffer
	_, err = Export(store, &buffer, ExportOptions{
		Recipients: []string{"age1irrelevant"},
		Passphrase: passphrase,
		Clock:      testClock(),
	})
	if err == nil || !strings.Contains(err.Error(), "mutually exclusive") {
		t.Errorf("err = %v, want mutual exclusion", err)
	}
}
