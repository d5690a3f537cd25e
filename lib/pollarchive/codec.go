// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollarchive

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionTag identifies the compression applied to the archive
// payload. The tag is stored in the container header (1 byte); the
// values are format constants and must not change.
type CompressionTag uint8

const (
	// CompressionNone stores the tar stream as-is. Also the fallback
	// recorded when the requested codec does not shrink the payload.
	CompressionNone CompressionTag = 0

	// CompressionLZ4 is LZ4 block compression: fast, modest ratio.
	CompressionLZ4 CompressionTag = 1

	// CompressionZstd is zstd at its default level. Poll records are
	// small TOML text, which zstd handles well.
	CompressionZstd CompressionTag = 2
)

// DefaultCompression is the codec exports use unless told otherwise.
const DefaultCompression = CompressionZstd

// String returns the name used in CLI flags and logs.
func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", tag)
	}
}

// ParseCompressionTag parses a compression tag from its name.
func ParseCompressionTag(name string) (CompressionTag, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression %q (want none, lz4, or zstd)", name)
	}
}

// EncryptionTag identifies the encryption applied over the compressed
// payload. Stored in the container header in the clear, so import can
// tell what key material to ask for before touching the payload.
type EncryptionTag uint8

const (
	// EncryptionNone: payload stored in the clear.
	EncryptionNone EncryptionTag = 0

	// EncryptionAge: age encryption to one or more x25519 recipients.
	EncryptionAge EncryptionTag = 1

	// EncryptionScrypt: age scrypt passphrase encryption.
	EncryptionScrypt EncryptionTag = 2
)

// String returns the name used in CLI output and logs.
func (tag EncryptionTag) String() string {
	switch tag {
	case EncryptionNone:
		return "none"
	case EncryptionAge:
		return "age"
	case EncryptionScrypt:
		return "scrypt"
	default:
		return fmt.Sprintf("unknown(%d)", tag)
	}
}

// zstdEncoder and zstdDecoder are reused across calls to avoid
// repeated initialization overhead. Both are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("pollarchive: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("pollarchive: zstd decoder initialization failed: " + err.Error())
	}
}

// compress applies the requested codec to data. When the compressed
// form is not smaller than the input, the data is returned unchanged
// with CompressionNone so the container never grows from compressing.
func compress(data []byte, tag CompressionTag) ([]byte, CompressionTag, error) {
	switch tag {
	case CompressionNone:
		return data, CompressionNone, nil

	case CompressionLZ4:
		bound := lz4.CompressBlockBound(len(data))
		destination := make([]byte, bound)
		written, err := lz4.CompressBlock(data, destination, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("lz4 compress: %w", err)
		}
		// CompressBlock returns 0 for incompressible input.
		if written == 0 || written >= len(data) {
			return data, CompressionNone, nil
		}
		return destination[:written], CompressionLZ4, nil

	case CompressionZstd:
		compressed := zstdEncoder.EncodeAll(data, nil)
		if len(compressed) >= len(data) {
			return data, CompressionNone, nil
		}
		return compressed, CompressionZstd, nil

	default:
		return nil, 0, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}

// decompress reverses compress. The uncompressedSize comes from the
// container header and must match the output length exactly.
func decompress(payload []byte, tag CompressionTag, uncompressedSize int) ([]byte, error) {
	switch tag {
	case CompressionNone:
		if len(payload) != uncompressedSize {
			return nil, fmt.Errorf("raw payload is %d bytes, header says %d", len(payload), uncompressedSize)
		}
		return payload, nil

	case CompressionLZ4:
		destination := make([]byte, uncompressedSize)
		read, err := lz4.UncompressBlock(payload, destination)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if read != uncompressedSize {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, header says %d", read, uncompressedSize)
		}
		return destination, nil

	case CompressionZstd:
		result, err := zstdDecoder.DecodeAll(payload, make([]byte, 0, uncompressedSize))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(result) != uncompressedSize {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, header says %d", len(result), uncompressedSize)
		}
		return result, nil

	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}
