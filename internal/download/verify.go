// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import "bytes"

// Verification windows. The %PDF magic is allowed a little leading slack for
// servers that prepend a BOM or whitespace; the trailer markers must appear
// near the end of the file.
const (
	headWindow = 1024
	tailWindow = 4096
)

// Verify checks that payload is a structurally plausible PDF: the %PDF magic
// within the first kilobyte, and both %%EOF and startxref in the final four
// kilobytes. It returns a machine-readable reason when the check fails.
func Verify(payload []byte) (ok bool, reason string) {
	head := payload
	if len(head) > headWindow {
		head = head[:headWindow]
	}
	if !bytes.Contains(head, []byte("%PDF")) {
		return false, "no_pdf_header"
	}

	tail := payload
	if len(tail) > tailWindow {
		tail = tail[len(tail)-tailWindow:]
	}
	if !bytes.Contains(tail, []byte("%%EOF")) {
		return false, "missing_eof"
	}
	if !bytes.Contains(tail, []byte("startxref")) {
		return false, "missing_startxref"
	}
	return true, ""
}
