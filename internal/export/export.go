// Package export renders conversation history as Markdown, PDF, or HTML
// documents.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/pymentor/agent-server/internal/model"
)

const timestampLayout = "2006-01-02 15:04"

func roleLabel(role model.Role) string {
	switch role {
	case model.RoleUser:
		return "User"
	case model.RoleAssistant:
		return "Agent"
	default:
		return string(role)
	}
}

// Markdown renders the history as a Markdown document. An empty history
// produces a minimal placeholder, not an error.
func Markdown(messages []model.Message) []byte {
	if len(messages) == 0 {
		return []byte("# Empty history\n")
	}

	var sb strings.Builder
	sb.WriteString("# Chat History\n\n")
	for _, msg := range messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" || msg.Role == model.RoleSystem {
			continue
		}
		sb.WriteString("### ")
		sb.WriteString(roleLabel(msg.Role))
		if !msg.Timestamp.IsZero() {
			fmt.Fprintf(&sb, " — %s", msg.Timestamp.Format(timestampLayout))
		}
		sb.WriteString("\n\n")
		sb.WriteString(content)
		sb.WriteString("\n\n---\n\n")
	}
	return []byte(sb.String())
}

// PDF renders the history as a self-contained PDF document. An empty
// history produces a placeholder page.
func PDF(messages []model.Message) ([]byte, error) {
	doc := fpdf.New("P", "mm", "Letter", "")
	doc.SetMargins(20, 20, 20)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 20)
	doc.CellFormat(0, 12, "Chat History", "", 1, "C", false, 0, "")
	doc.Ln(4)

	wrote := false
	for _, msg := range messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" || msg.Role == model.RoleSystem {
			continue
		}
		wrote = true

		header := roleLabel(msg.Role)
		if !msg.Timestamp.IsZero() {
			header += "  ·  " + msg.Timestamp.Format(timestampLayout)
		}

		doc.SetFont("Helvetica", "B", 11)
		if msg.Role == model.RoleUser {
			doc.SetFillColor(235, 237, 240)
		} else {
			doc.SetFillColor(255, 255, 255)
		}
		doc.CellFormat(0, 7, header, "", 1, "L", true, 0, "")

		doc.SetFont("Helvetica", "", 10)
		doc.MultiCell(0, 5, sanitizeForPDF(content), "", "L", false)
		doc.Ln(3)
	}

	if !wrote {
		doc.SetFont("Helvetica", "", 10)
		doc.MultiCell(0, 5, "No messages to display.", "", "L", false)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// sanitizeForPDF maps content onto the core-font character set. The
// built-in Helvetica font is CP1252 only, so anything outside it becomes
// a placeholder instead of mojibake.
func sanitizeForPDF(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' || (r >= 0x20 && r < 0x100) {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('?')
		}
	}
	return sb.String()
}

var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// HTML renders the history as a standalone HTML page with each message's
// Markdown content converted to HTML.
func HTML(messages []model.Message) ([]byte, error) {
	var body bytes.Buffer
	body.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Chat History</title></head><body>\n")
	body.WriteString("<h1>Chat History</h1>\n")

	wrote := false
	for _, msg := range messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" || msg.Role == model.RoleSystem {
			continue
		}
		wrote = true
		fmt.Fprintf(&body, "<section class=%q>\n<h3>%s</h3>\n", string(msg.Role), roleLabel(msg.Role))
		if err := markdownRenderer.Convert([]byte(content), &body); err != nil {
			return nil, fmt.Errorf("render message markdown: %w", err)
		}
		body.WriteString("</section>\n")
	}
	if !wrote {
		body.WriteString("<p>Empty history.</p>\n")
	}
	body.WriteString("</body></html>\n")
	return body.Bytes(), nil
}
