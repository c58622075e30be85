package imapsource

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/belexwatch/price-watcher/internal/service/mailbox"
	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// parseMessage extracts sender, subject and a plain-text body from a raw
// RFC 5322 message. HTML-only messages fall back to tag-stripped HTML.
func parseMessage(raw []byte) (mailbox.Message, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return mailbox.Message{}, fmt.Errorf("parse message: %w", err)
	}

	var msg mailbox.Message
	if addrs, err := mr.Header.AddressList("From"); err == nil && len(addrs) > 0 {
		msg.From = addrs[0].Address
	}
	if subject, err := mr.Header.Subject(); err == nil {
		msg.Subject = subject
	}

	var plain, html string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if message.IsUnknownCharset(err) {
				continue
			}
			break
		}
		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := header.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		switch contentType {
		case "text/plain":
			if plain == "" {
				plain = string(body)
			}
		case "text/html":
			if html == "" {
				html = string(body)
			}
		}
	}

	msg.Body = plain
	if msg.Body == "" && html != "" {
		msg.Body = strings.TrimSpace(tagPattern.ReplaceAllString(html, " "))
	}
	return msg, nil
}
