// Package mail parses raw email files into inbound messages.
package mail

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	netmail "net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"aidesk/internal/models"

	"github.com/rs/zerolog/log"
)

// ParseEMLFile parses a single EML file
func ParseEMLFile(filename string) (*models.InboundMessage, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open EML file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Warn().Err(err).Str("file", filename).Msg("Error closing EML file")
		}
	}()

	return ParseMessage(file)
}

// ParseDirectory recursively parses all EML files in a directory.
// Unparseable files are skipped with a warning.
func ParseDirectory(dirPath string) ([]*models.InboundMessage, error) {
	var messages []*models.InboundMessage

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(strings.ToLower(path), ".eml") {
			return nil
		}

		msg, err := ParseEMLFile(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("Failed to parse EML file, skipping")
			return nil
		}
		messages = append(messages, msg)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	return messages, nil
}

// MBOXBatchCallback is called for each batch of messages parsed from an
// MBOX file
type MBOXBatchCallback func(batch []*models.InboundMessage) error

// ParseMBOXFileStreaming parses an MBOX file in batches so large
// archives never need to fit in memory.
func ParseMBOXFileStreaming(filename string, batchSize int, callback MBOXBatchCallback) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open MBOX file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Warn().Err(err).Str("file", filename).Msg("Error closing MBOX file")
		}
	}()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	var batch []*models.InboundMessage
	var current bytes.Buffer
	var count int

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := callback(batch); err != nil {
			return fmt.Errorf("batch processing error at message %d: %w", count, err)
		}
		batch = nil
		return nil
	}

	for scanner.Scan() {
		line := scanner.Text()

		// MBOX format: each message starts with a "From " separator line
		if strings.HasPrefix(line, "From ") && current.Len() > 0 {
			msg, err := ParseMessage(&current)
			if err != nil {
				log.Warn().Err(err).Int("message", count+1).Msg("Failed to parse MBOX message")
			} else {
				batch = append(batch, msg)
			}
			count++
			current.Reset()

			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return err
				}
			}
			continue
		}

		current.WriteString(line)
		current.WriteString("\n")
	}

	if current.Len() > 0 {
		msg, err := ParseMessage(&current)
		if err != nil {
			log.Warn().Err(err).Int("message", count+1).Msg("Failed to parse last MBOX message")
		} else {
			batch = append(batch, msg)
			count++
		}
	}
	if err := flush(); err != nil {
		return err
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading MBOX file: %w", err)
	}

	log.Info().Int("messages", count).Str("file", filepath.Base(filename)).Msg("Finished parsing MBOX file")
	return nil
}

// ParseMessage parses one RFC 5322 message into an InboundMessage
func ParseMessage(r io.Reader) (*models.InboundMessage, error) {
	msg, err := netmail.ReadMessage(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read email message: %w", err)
	}

	header := msg.Header
	inbound := &models.InboundMessage{
		MessageID: cleanMessageID(header.Get("Message-ID")),
		Subject:   decodeHeader(header.Get("Subject")),
	}

	if from, err := netmail.ParseAddress(header.Get("From")); err == nil {
		inbound.From = from.Address
		inbound.FromName = from.Name
	} else {
		inbound.From = header.Get("From")
	}
	inbound.To = addressList(header.Get("To"))
	inbound.Cc = addressList(header.Get("Cc"))

	if date, err := netmail.ParseDate(header.Get("Date")); err == nil {
		inbound.Date = date
	} else {
		inbound.Date = time.Now()
	}

	text, html, err := extractBody(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to extract body: %w", err)
	}
	inbound.TextBody = text
	inbound.HTMLBody = html
	if inbound.TextBody == "" && inbound.HTMLBody != "" {
		inbound.TextBody = StripHTML(inbound.HTMLBody)
	}

	inbound.ThreadID = threadID(header, inbound.MessageID)
	return inbound, nil
}

func addressList(raw string) []string {
	if raw == "" {
		return nil
	}
	parsed, err := netmail.ParseAddressList(raw)
	if err != nil {
		return []string{raw}
	}
	addrs := make([]string, 0, len(parsed))
	for _, a := range parsed {
		addrs = append(addrs, a.Address)
	}
	return addrs
}

// threadID derives a conversation key: the thread root's Message-ID
// from References, then In-Reply-To, then the message's own id for a
// new thread.
func threadID(header netmail.Header, messageID string) string {
	if refs := strings.Fields(header.Get("References")); len(refs) > 0 {
		return cleanMessageID(refs[0])
	}
	if inReplyTo := header.Get("In-Reply-To"); inReplyTo != "" {
		return cleanMessageID(inReplyTo)
	}
	return messageID
}

// extractBody returns the text and HTML bodies of a message
func extractBody(msg *netmail.Message) (text, html string, err error) {
	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		body, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", "", err
		}
		return string(body), "", nil
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		body, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", "", err
		}
		return string(body), "", nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return extractMultipartBody(msg.Body, params["boundary"])
	}

	content, err := decodePart(msg.Body, msg.Header.Get("Content-Transfer-Encoding"))
	if err != nil {
		return "", "", err
	}
	if strings.HasPrefix(mediaType, "text/html") {
		return "", content, nil
	}
	return content, "", nil
}

func extractMultipartBody(body io.Reader, boundary string) (string, string, error) {
	mr := multipart.NewReader(body, boundary)
	var textParts, htmlParts []string

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", "", err
		}

		partContentType := part.Header.Get("Content-Type")
		mediaType, params, _ := mime.ParseMediaType(partContentType)

		switch {
		case strings.HasPrefix(mediaType, "text/plain"):
			if content, err := decodePart(part, part.Header.Get("Content-Transfer-Encoding")); err == nil {
				textParts = append(textParts, content)
			}
		case strings.HasPrefix(mediaType, "text/html"):
			if content, err := decodePart(part, part.Header.Get("Content-Transfer-Encoding")); err == nil {
				htmlParts = append(htmlParts, content)
			}
		case strings.HasPrefix(mediaType, "multipart/"):
			if nestedBoundary, ok := params["boundary"]; ok {
				nestedText, nestedHTML, err := extractMultipartBody(part, nestedBoundary)
				if err == nil {
					if nestedText != "" {
						textParts = append(textParts, nestedText)
					}
					if nestedHTML != "" {
						htmlParts = append(htmlParts, nestedHTML)
					}
				}
			}
		}
	}

	return strings.Join(textParts, "\n\n"), strings.Join(htmlParts, "\n\n"), nil
}

func decodePart(body io.Reader, transferEncoding string) (string, error) {
	reader := body
	switch strings.ToLower(transferEncoding) {
	case "quoted-printable":
		reader = quotedprintable.NewReader(body)
	case "base64":
		reader = base64.NewDecoder(base64.StdEncoding, body)
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func decodeHeader(header string) string {
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

func cleanMessageID(msgID string) string {
	msgID = strings.TrimPrefix(msgID, "<")
	return strings.TrimSuffix(msgID, ">")
}
