package plan

import (
	"strconv"
	"strings"
	"time"

	"filectl/internal/engineerr"
)

// knownTags is the closed tag vocabulary RenameTemplate accepts (§3 Data
// Model). Anything else is a malformed template, rejected at parse time
// (InvalidRequest) rather than per item.
var knownTags = map[string]bool{
	"capture_date": true, "capture_time": true,
	"exec_date": true, "exec_time": true,
	"seq": true, "orig": true, "ext": true,
	"year": true, "month": true, "day": true,
	"hour": true, "minute": true, "second": true,
}

// templateToken is one literal run or {tag[:format]} placeholder.
type templateToken struct {
	literal bool
	text    string // literal text, when literal
	tag     string
	format  string
}

// Template is a parsed RenameTemplate ready to render per item.
type Template struct {
	tokens []templateToken
}

// ParseTemplate tokenizes and validates tmpl, a small parser over literal
// runs and `{tag[:fmt]}` tokens (§9 Design Notes) — not a general expression
// language. Returns engineerr.InvalidRequest if a brace is unmatched or a
// tag name is not in the closed vocabulary.
func ParseTemplate(tmpl string) (*Template, error) {
	var tokens []templateToken
	i := 0
	for i < len(tmpl) {
		open := strings.IndexByte(tmpl[i:], '{')
		if open < 0 {
			tokens = append(tokens, templateToken{literal: true, text: tmpl[i:]})
			break
		}
		if open > 0 {
			tokens = append(tokens, templateToken{literal: true, text: tmpl[i : i+open]})
		}
		start := i + open
		close := strings.IndexByte(tmpl[start:], '}')
		if close < 0 {
			return nil, engineerr.Newf(engineerr.InvalidRequest, "plan.ParseTemplate", "unmatched '{' in template %q", tmpl)
		}
		inner := tmpl[start+1 : start+close]
		name, format, _ := strings.Cut(inner, ":")
		name = strings.TrimSpace(name)
		if !knownTags[name] {
			return nil, engineerr.Newf(engineerr.InvalidRequest, "plan.ParseTemplate", "unknown template tag %q", name)
		}
		tokens = append(tokens, templateToken{tag: name, format: format})
		i = start + close + 1
	}
	return &Template{tokens: tokens}, nil
}

// RenderContext supplies the per-item and per-run values a Template draws
// from.
type RenderContext struct {
	// Resolved is the item's own datetime source (EXIF capture time, video
	// probe result, or file modified time, per RenameRequest.Mode).
	Resolved time.Time
	// ExecTime is shared across every item in the run (§4.6: "currentTime
	// ... shared across the run so all items receive identical second").
	ExecTime time.Time
	// Seq is the 1-based destination-directory scan-order counter.
	Seq int
	// Orig is the source filename's stem (no extension).
	Orig string
	// Ext is the source filename's extension, without the leading dot, in
	// its original case.
	Ext string
}

// Render expands t against ctx.
func (t *Template) Render(ctx RenderContext) string {
	var b strings.Builder
	for _, tok := range t.tokens {
		if tok.literal {
			b.WriteString(tok.text)
			continue
		}
		b.WriteString(renderTag(tok.tag, tok.format, ctx))
	}
	return b.String()
}

// UsesExt reports whether the template already places the {ext} tag, so
// callers know whether to auto-append the original extension.
func (t *Template) UsesExt() bool {
	for _, tok := range t.tokens {
		if !tok.literal && tok.tag == "ext" {
			return true
		}
	}
	return false
}

func renderTag(tag, format string, ctx RenderContext) string {
	switch tag {
	case "capture_date", "capture_time":
		return strftimeLike(format, ctx.Resolved)
	case "exec_date", "exec_time":
		return strftimeLike(format, ctx.ExecTime)
	case "year":
		return ctx.Resolved.Format("2006")
	case "month":
		return ctx.Resolved.Format("01")
	case "day":
		return ctx.Resolved.Format("02")
	case "hour":
		return ctx.Resolved.Format("15")
	case "minute":
		return ctx.Resolved.Format("04")
	case "second":
		return ctx.Resolved.Format("05")
	case "orig":
		return ctx.Orig
	case "ext":
		return ctx.Ext
	case "seq":
		width := 1
		if format != "" {
			if n, err := strconv.Atoi(format); err == nil && n > 0 {
				width = n
			}
		}
		return padInt(ctx.Seq, width)
	default:
		return ""
	}
}

func padInt(v, width int) string {
	s := strconv.Itoa(v)
	for len(s) < width {
		s = "0" + s
	}
	return s
}

// strftimeLike renders t against a format string restricted to the letters
// Y, M, D, h, m, s (§3 Data Model); any other character passes through
// verbatim. Only Y's run width matters (YYYY: four-digit year, shorter:
// two-digit); every other letter run renders two digits.
//
// §3 documents the hour token as lowercase h, but §8's "Template rendering"
// testable property spells it HH (`{capture_time:HHmmss}`). Open Question,
// decided here: accept both h and H for hour-of-day — H does not collide
// with any other documented token (M is month, m is minute), so honoring
// both reconciles the two sections without a breaking choice either way.
func strftimeLike(format string, t time.Time) string {
	if format == "" {
		return ""
	}
	var b strings.Builder
	i := 0
	for i < len(format) {
		c := format[i]
		j := i
		for j < len(format) && format[j] == c {
			j++
		}
		run := j - i
		switch c {
		case 'Y':
			if run >= 4 {
				b.WriteString(t.Format("2006"))
			} else {
				b.WriteString(t.Format("06"))
			}
		case 'M':
			b.WriteString(pad2(int(t.Month())))
		case 'D':
			b.WriteString(pad2(t.Day()))
		case 'h', 'H':
			b.WriteString(pad2(t.Hour()))
		case 'm':
			b.WriteString(pad2(t.Minute()))
		case 's':
			b.WriteString(pad2(t.Second()))
		default:
			b.WriteString(format[i:j])
		}
		i = j
	}
	return b.String()
}

func pad2(v int) string {
	if v < 10 {
		return "0" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}
