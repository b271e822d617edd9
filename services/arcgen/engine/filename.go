// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// maxFilenameLen bounds the sanitized filename body (before the extension)
// so a pathologically long title never produces a filesystem-rejected name.
const maxFilenameLen = 120

// zeroWidthRunes are Unicode characters invisible in a terminal or
// filename listing that could otherwise be used to smuggle a path
// separator or spoof an extension visually; they are stripped entirely
// rather than replaced.
var zeroWidthRunes = map[rune]bool{
	'​': true, // zero width space
	'‌': true, // zero width non-joiner
	'‍': true, // zero width joiner
	0xFEFF: true, // byte order mark / zero width no-break space
}

// SanitizeFilename derives a safe, unique filename from hint (typically a
// diagram title or session id): zero-width/non-printable runes are
// stripped, every other character outside [A-Za-z0-9._-] becomes '_', the
// body is truncated to maxFilenameLen, and a timestamp suffix plus ext are
// appended. Applied when a render writes its source file; GET
// /api/diagrams/{filename} does not rewrite request names but checks them
// with IsSafeFilename.
func SanitizeFilename(hint, ext string) string {
	var b strings.Builder
	for _, r := range hint {
		if zeroWidthRunes[r] || !unicode.IsPrint(r) {
			continue
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	body := strings.Trim(b.String(), "._")
	if len(body) > maxFilenameLen {
		body = body[:maxFilenameLen]
	}
	if body == "" {
		body = "diagram"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("%s-%d%s", body, stampSuffix(), ext)
}

// stampSuffix is overridable in tests; production code paths through
// time.Now().UnixNano() for uniqueness across repeated renders of the same
// title within one process.
var stampSuffix = func() int64 { return time.Now().UnixNano() }

// IsSafeFilename reports whether name is safe to join onto an output
// directory and open, without rewriting it the way SanitizeFilename does.
// GET /api/diagrams/{filename} serves an already-sanitized name produced by
// a prior render, so a request name that fails this check is rejected
// outright (400) rather than silently coerced into some other file: every
// rune must be in the [A-Za-z0-9._-] set SanitizeFilename itself writes,
// and the name must not be empty, contain "..", or start with a path
// separator.
func IsSafeFilename(name string) bool {
	if name == "" || strings.Contains(name, "..") || strings.ContainsAny(name, "/\\") {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}
