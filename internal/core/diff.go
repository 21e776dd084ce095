package core

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	BinarySampleSize   = 8192 // Bytes to sample for text/binary detection
	BinaryThresholdPct = 10   // Max % non-printable chars for text files
)

// IsText determines if a payload is likely text or binary.
//
// Detection heuristic (in order):
//  1. Null bytes present → binary (executables, images, etc.)
//  2. Invalid UTF-8 → binary
//  3. >10% non-printable control chars → binary
func IsText(data []byte) bool {
	if len(data) == 0 {
		return true
	}

	// Check for null bytes (strong indicator of binary)
	if bytes.IndexByte(data, 0) != -1 {
		return false
	}

	// Sample first portion for analysis
	sample := data
	if len(sample) > BinarySampleSize {
		sample = sample[:BinarySampleSize]
		// Don't let a rune split at the sample boundary count as invalid
		for i := 0; i < utf8.UTFMax-1 && len(sample) > 0 && !utf8.Valid(sample); i++ {
			sample = sample[:len(sample)-1]
		}
	}

	if !utf8.Valid(sample) {
		return false
	}

	// Count non-printable characters
	nonPrintable := 0
	for _, b := range sample {
		// Allow common whitespace: space, tab, newline, carriage return
		if b < 32 && b != 9 && b != 10 && b != 13 {
			nonPrintable++
		}
		if b == 127 { // DEL character
			nonPrintable++
		}
	}

	threshold := len(sample) * BinaryThresholdPct / 100
	return nonPrintable <= threshold
}

// SamePayload reports whether two payloads are identical (SHA-256)
func SamePayload(a, b []byte) bool {
	ha := sha256.Sum256(a)
	hb := sha256.Sum256(b)
	return bytes.Equal(ha[:], hb[:])
}

// PayloadDiff produces a unified diff from a decrypted payload to local
// content. Returns an empty string when both are identical.
func PayloadDiff(name string, payload, local []byte) string {
	if SamePayload(payload, local) {
		return ""
	}

	if !IsText(payload) || !IsText(local) {
		return fmt.Sprintf("Binary content of %s differs\n", name)
	}

	dmp := diffmatchpatch.New()

	// Line-mode diff for better output
	tokenStr, localStr := string(payload), string(local)
	a, b, lineArray := dmp.DiffLinesToChars(tokenStr, localStr)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	patches := dmp.PatchMake(tokenStr, diffs)
	if len(patches) == 0 {
		return ""
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("--- token/%s\n", name))
	result.WriteString(fmt.Sprintf("+++ local/%s\n", name))
	result.WriteString(dmp.PatchToText(patches))

	return result.String()
}
