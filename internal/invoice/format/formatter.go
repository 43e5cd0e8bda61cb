// Package format derives human-facing invoice numbers.
package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	seqPadRe = regexp.MustCompile(`\{SEQ(\d+)\}`)
	tailRe   = regexp.MustCompile(`(\d+)$`)
)

const DefaultNumberTemplate = "INV-{SEQ4}"

// FormatNumber formats an invoice number from a template, issue time,
// and monotonic sequence.
//
// This function is PURE:
// - No side effects
// - No DB access
// - Fully deterministic
func FormatNumber(template string, issuedAt time.Time, seq int64) (string, error) {
	if template == "" {
		return "", fmt.Errorf("invoice number template is empty")
	}

	if seq <= 0 {
		return "", fmt.Errorf("invalid invoice sequence: %d", seq)
	}

	out := template

	// Date tokens
	out = strings.ReplaceAll(out, "{YYYY}", issuedAt.Format("2006"))
	out = strings.ReplaceAll(out, "{YY}", issuedAt.Format("06"))
	out = strings.ReplaceAll(out, "{MM}", issuedAt.Format("01"))
	out = strings.ReplaceAll(out, "{DD}", issuedAt.Format("02"))

	// Simple sequence
	out = strings.ReplaceAll(out, "{SEQ}", strconv.FormatInt(seq, 10))

	// Padded sequence
	out = seqPadRe.ReplaceAllStringFunc(out, func(m string) string {
		match := seqPadRe.FindStringSubmatch(m)
		if len(match) != 2 {
			return m
		}

		width, err := strconv.Atoi(match[1])
		if err != nil || width <= 0 {
			return m
		}

		return fmt.Sprintf("%0*d", width, seq)
	})

	// Final safety check: unresolved tokens
	if strings.Contains(out, "{") || strings.Contains(out, "}") {
		return "", fmt.Errorf("unresolved token in invoice format: %s", out)
	}

	return out, nil
}

// NextNumber increments the trailing numeric suffix of the owner's
// most recent invoice number, preserving its prefix and zero padding.
// An empty or non-numeric last number starts a fresh sequence from the
// default template.
func NextNumber(last string, issuedAt time.Time) string {
	last = strings.TrimSpace(last)
	if last == "" {
		out, _ := FormatNumber(DefaultNumberTemplate, issuedAt, 1)
		return out
	}

	match := tailRe.FindString(last)
	if match == "" {
		return last + "-1"
	}

	seq, err := strconv.ParseInt(match, 10, 64)
	if err != nil {
		return last + "-1"
	}

	prefix := last[:len(last)-len(match)]
	return prefix + fmt.Sprintf("%0*d", len(match), seq+1)
}
