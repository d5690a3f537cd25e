// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollarchive

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Container header layout:
//
//	[0:4)   magic "CPA1"
//	[4]     compression tag
//	[5]     encryption tag
//	[6:14)  uncompressed tar size, big endian
//	[14:]   payload
//
// The header stays in the clear even for encrypted archives, so a
// reader can tell what key material the payload needs without
// touching it.
const headerSize = 14

var containerMagic = [4]byte{'C', 'P', 'A', '1'}

// MaxPayloadSize bounds the uncompressed tar size accepted on import.
// Poll records are small TOML files; a header claiming anywhere near
// this much is corrupt or hostile.
const MaxPayloadSize = 1 << 30

// header is the decoded container header.
type header struct {
	compression CompressionTag
	encryption  EncryptionTag
	tarSize     int
}

// parseHeader validates the container header and returns it along
// with the payload that follows.
func parseHeader(raw []byte) (header, []byte, error) {
	if len(raw) < headerSize {
		return header{}, nil, fmt.Errorf("archive is %d bytes, shorter than the %d byte header", len(raw), headerSize)
	}
	if !bytes.Equal(raw[:4], containerMagic[:]) {
		return header{}, nil, fmt.Errorf("not a poll archive (bad magic)")
	}
	tarSize := binary.BigEndian.Uint64(raw[6:headerSize])
	if tarSize > MaxPayloadSize {
		return header{}, nil, fmt.Errorf("archive claims a %d byte payload, limit is %d", tarSize, MaxPayloadSize)
	}
	h := header{
		compression: CompressionTag(raw[4]),
		encryption:  EncryptionTag(raw[5]),
		tarSize:     int(tarSize),
	}
	return h, raw[headerSize:], nil
}

// encodeHeader renders a container header.
func encodeHeader(compression CompressionTag, encryption EncryptionTag, tarSize int) []byte {
	h := make([]byte, headerSize)
	copy(h, containerMagic[:])
	h[4] = byte(compression)
	h[5] = byte(encryption)
	binary.BigEndian.PutUint64(h[6:], uint64(tarSize))
	return h
}

// Probe reports an archive's compression and encryption from its
// header alone. Callers use it to decide what key material to collect
// before running [Import]: a passphrase prompt for scrypt, an identity
// file for age recipients.
func Probe(raw []byte) (CompressionTag, EncryptionTag, error) {
	h, _, err := parseHeader(raw)
	if err != nil {
		return 0, 0, err
	}
	return h.compression, h.encryption, nil
}
