// Copyright 2024-2026 Aiku AI

package helpbot

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"maunium.net/go/mautrix/event"

	"github.com/aiku/matrix-helpbot/pkg/helpbot/msgfmt"
)

// ErrContentUnreadable is returned when a configured content file does not
// exist or cannot be read. It is fatal during startup validation of the
// help file and recoverable everywhere else.
var ErrContentUnreadable = errors.New("content unreadable")

// Format is the output encoding for help and welcome content.
type Format int

const (
	FormatPlain Format = iota
	FormatHTML
	FormatMarkdown
)

// ParseFormat parses a format name. Accepts plain, html, markdown and the
// md shorthand, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "plain":
		return FormatPlain, nil
	case "html":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return FormatPlain, fmt.Errorf("invalid format %q (valid options are: plain, html, markdown)", s)
	}
}

func (f Format) String() string {
	switch f {
	case FormatHTML:
		return "html"
	case FormatMarkdown:
		return "markdown"
	default:
		return "plain"
	}
}

func (f *Format) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}
	if name == "" {
		*f = FormatPlain
		return nil
	}
	parsed, err := ParseFormat(name)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

func (f Format) MarshalYAML() (any, error) {
	return f.String(), nil
}

// ContentSource resolves help or welcome content from an inline string
// and/or a file path. The file takes precedence when both are set.
type ContentSource struct {
	Inline string
	File   string
}

// Load returns the content text. File read failures are reported as
// ErrContentUnreadable.
func (s ContentSource) Load() (string, error) {
	if s.File == "" {
		return s.Inline, nil
	}
	data, err := os.ReadFile(s.File)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrContentUnreadable, s.File, err)
	}
	return string(data), nil
}

// Render converts content text into Matrix message content in the given
// format. It is a pure function: identical input always yields identical
// output.
func Render(text string, format Format) event.MessageEventContent {
	switch format {
	case FormatHTML:
		// The content is expected to already be valid Matrix HTML.
		return event.MessageEventContent{
			MsgType:       event.MsgText,
			Body:          text,
			Format:        event.FormatHTML,
			FormattedBody: text,
		}
	case FormatMarkdown:
		return msgfmt.ToContent(text)
	default:
		return event.MessageEventContent{
			MsgType: event.MsgText,
			Body:    text,
		}
	}
}
