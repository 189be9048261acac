package gmail

import (
	"encoding/base64"
	"fmt"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

// Fallback values for missing message content.
const (
	NoTextContent = "No text content found in the message."
	NoSubject     = "No Subject"
	UnknownSender = "Unknown Sender"
)

// HeaderValue returns the value of the named header, matched
// case-insensitively, or "" when absent.
func HeaderValue(m *gmail.Message, header string) string {
	if m == nil || m.Payload == nil {
		return ""
	}
	for _, h := range m.Payload.Headers {
		if strings.EqualFold(h.Name, header) {
			return h.Value
		}
	}
	return ""
}

// headerOr returns the header value or def when it is missing.
func headerOr(m *gmail.Message, header, def string) string {
	if v := HeaderValue(m, header); v != "" {
		return v
	}
	return def
}

// MessageText returns the plain-text body of a payload. A single-part
// payload yields its own body; otherwise the first text/plain part found
// depth-first is used. Payloads with neither yield NoTextContent.
func MessageText(payload *gmail.MessagePart) (string, error) {
	if payload == nil {
		return NoTextContent, nil
	}
	if payload.Body != nil && payload.Body.Data != "" {
		return decodeBody(payload.Body.Data)
	}

	var plain *gmail.MessagePart
	walkParts(payload, func(p *gmail.MessagePart) bool {
		if p.MimeType == "text/plain" && p.Body != nil && p.Body.Data != "" {
			plain = p
			return false
		}
		return true
	})
	if plain == nil {
		return NoTextContent, nil
	}
	return decodeBody(plain.Body.Data)
}

// walkParts visits the sub-parts of part depth-first until fn returns false.
func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart) bool) bool {
	for _, sub := range part.Parts {
		if sub == nil {
			continue
		}
		if !fn(sub) || !walkParts(sub, fn) {
			return false
		}
	}
	return true
}

// decodeBody decodes Gmail body data, which is base64url and may or may
// not carry padding.
func decodeBody(data string) (string, error) {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
		if err != nil {
			return "", fmt.Errorf("failed to decode message body: %w", err)
		}
	}
	return string(decoded), nil
}
