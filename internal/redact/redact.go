// Package redact scrubs sensitive fields and values from text and
// structured payloads before they are logged or leave the process.
package redact

import (
	"regexp"
	"strings"
)

// Marker replaces every redacted field or value.
const Marker = "[REDACTED]"

var defaultFields = []string{
	"password", "passwd", "pwd", "secret", "token",
	"id_number", "身份证", "card_no", "银行卡号", "bank_card", "密码",
}

var textPatterns = []*regexp.Regexp{
	// 18-digit national ID (birth date in the middle, optional X check digit).
	regexp.MustCompile(`\b\d{6}(?:19|20)\d{2}(?:0[1-9]|1[0-2])(?:0[1-9]|[12]\d|3[01])\d{3}[0-9Xx]\b`),
	// Bare 15-digit run (legacy ID format). \b keeps it from eating part of
	// a longer digit run.
	regexp.MustCompile(`\b\d{15}\b`),
	// 16-19 digit runs resembling card numbers, spaces/dashes allowed.
	regexp.MustCompile(`\b\d(?:[ -]?\d){15,18}\b`),
}

var valuePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(密码|passw(?:or)?d|pass|pwd)\s*[:=：]?\s*(\S{4,})`),
	regexp.MustCompile(`(?i)(id[_\- ]?number|身份证)\s*[:=：]?\s*(\d{15,18}[0-9Xx]?)`),
	regexp.MustCompile(`(?i)(card[_\- ]?no|bank[_\- ]?card|银行卡号)\s*[:=：]?\s*((?:\d[ -]?){16,19})`),
}

// Scrubber applies field- and pattern-based redaction.
type Scrubber struct {
	fields map[string]struct{}
}

// NewScrubber builds a scrubber from the default sensitive field set plus
// any extra field names.
func NewScrubber(extraFields []string) *Scrubber {
	fields := make(map[string]struct{}, len(defaultFields)+len(extraFields))
	for _, f := range defaultFields {
		fields[f] = struct{}{}
	}
	for _, f := range extraFields {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			fields[f] = struct{}{}
		}
	}
	return &Scrubber{fields: fields}
}

// ScrubText replaces PII patterns in s and returns the scrubbed string and
// the number of redactions made.
func (s *Scrubber) ScrubText(text string) (string, int) {
	count := 0
	out := text
	for _, p := range textPatterns {
		out = p.ReplaceAllStringFunc(out, func(string) string {
			count++
			return Marker
		})
	}
	for _, p := range valuePatterns {
		out = p.ReplaceAllStringFunc(out, func(m string) string {
			sub := p.FindStringSubmatch(m)
			count++
			return sub[1] + " " + Marker
		})
	}
	return out, count
}

// ScrubValue recursively scrubs a decoded JSON value. Map values whose key
// matches the sensitive field set are replaced whole; every string leaf is
// run through ScrubText.
func (s *Scrubber) ScrubValue(v any) (any, int) {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		total := 0
		for k, item := range val {
			if _, sensitive := s.fields[strings.ToLower(k)]; sensitive {
				out[k] = Marker
				total++
				continue
			}
			scrubbed, n := s.ScrubValue(item)
			out[k] = scrubbed
			total += n
		}
		return out, total
	case []any:
		out := make([]any, len(val))
		total := 0
		for i, item := range val {
			scrubbed, n := s.ScrubValue(item)
			out[i] = scrubbed
			total += n
		}
		return out, total
	case string:
		return s.ScrubText(val)
	}
	return v, 0
}
