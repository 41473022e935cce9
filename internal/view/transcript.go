package view

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"parley/internal/content"
	"parley/internal/models"
)

var transcriptTemplate = template.Must(template.New("transcript").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="exported">Exported {{.Exported}}</p>
{{- range .Messages}}
<article class="message{{if .Mine}} mine{{end}}">
<header><strong>{{.Sender}}</strong>{{if .Time}} <time>{{.Time}}</time>{{end}}</header>
{{.Body}}
</article>
{{- else}}
<p>No messages yet</p>
{{- end}}
</body>
</html>
`))

type transcriptMessage struct {
	Sender string
	Time   string
	Mine   bool
	Body   template.HTML
}

// Transcript writes conv's messages as a standalone HTML page. Bodies are
// rendered from Markdown and sanitized.
func Transcript(w io.Writer, conv models.Conversation, msgs []models.Message, exported time.Time) error {
	data := struct {
		Title    string
		Exported string
		Messages []transcriptMessage
	}{
		Title:    "Conversation with " + ConversationTitle(conv),
		Exported: exported.UTC().Format(time.RFC1123),
	}

	for _, m := range msgs {
		if m.Pending {
			continue
		}
		body, err := content.Markdown(m.Content)
		if err != nil {
			return fmt.Errorf("message %s: %w", m.ID, err)
		}

		tm := transcriptMessage{
			Sender: m.Sender.Username,
			Mine:   m.IsMine,
			Body:   template.HTML(body),
		}
		if !m.Timestamp.IsZero() {
			tm.Time = m.Timestamp.UTC().Format("2006-01-02 15:04")
		}
		data.Messages = append(data.Messages, tm)
	}

	return transcriptTemplate.Execute(w, data)
}
