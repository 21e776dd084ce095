// Package token implements the PASCO1 wire format.
//
// A token is three dot-separated segments:
//
//	PASCO1.<header_b64url>.<ciphertext_b64url>
//
// The header is a JSON object encoded with unpadded base64url. The
// ciphertext segment holds the raw AES-GCM output with the tag appended.
// Decoding is strict: any structural deviation or unsupported
// (version, algorithm, kdf) combination is rejected with a FormatError
// before any cryptographic work is attempted.
package token
