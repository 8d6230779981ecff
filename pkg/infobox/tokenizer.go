package infobox

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const infoboxPrefix = "Infobox "

// Token is one argument of a template body. Positional arguments have an
// empty Key and a 1-based Index.
type Token struct {
	Key   string
	Index int
	Value string

	// Start is the offset of the pipe opening the argument, End the offset of
	// the next top-level pipe or of the closing braces.
	Start, End int
	// KeyStart is the offset right after the pipe and Sep the offset of the
	// '=' separating key and value, or -1 for positional arguments.
	KeyStart, Sep        int
	ValueStart, ValueEnd int
}

// Block is a located template with its arguments in source order.
type Block struct {
	Name   string
	Start  int
	End    int
	Tokens []Token
}

// Lookup returns the last argument named key, matching the wiki renderer
// which lets later duplicates win.
func (b *Block) Lookup(key string) (Token, bool) {
	for i := len(b.Tokens) - 1; i >= 0; i-- {
		if b.Tokens[i].Sep >= 0 && b.Tokens[i].Key == key {
			return b.Tokens[i], true
		}
	}
	return Token{}, false
}

func (b *Block) occurrences(key string) []Token {
	var out []Token
	for _, tok := range b.Tokens {
		if tok.Sep >= 0 && tok.Key == key {
			out = append(out, tok)
		}
	}
	return out
}

// Positional returns the values of the unnamed arguments in order.
func (b *Block) Positional() []string {
	var out []string
	for _, tok := range b.Tokens {
		if tok.Sep < 0 {
			out = append(out, tok.Value)
		}
	}
	return out
}

// Locate finds the first {{Infobox <typ>|...}} block in text.
func Locate(text, typ string) (*Block, error) {
	blocks, err := find(text, infoboxPrefix+typ, true)
	if err != nil {
		return nil, err
	}
	return blocks[0], nil
}

// LocateAll finds every {{Infobox <typ>|...}} block in text, in order.
func LocateAll(text, typ string) ([]*Block, error) {
	return find(text, infoboxPrefix+typ, false)
}

func find(text, name string, first bool) ([]*Block, error) {
	want := normalizeName(name)
	var blocks []*Block
	i := 0
	for i < len(text) {
		j := strings.Index(text[i:], "{{")
		if j < 0 {
			break
		}
		pos := i + j
		if normalizeName(candidateName(text, pos)) != want {
			i = pos + 1
			continue
		}
		end, pipes, seps, ok := scanTemplate(text, pos)
		if !ok {
			return nil, fmt.Errorf("%w: {{%s at offset %d is never closed", ErrMalformedTemplate, name, pos)
		}
		blocks = append(blocks, buildBlock(text, pos, end, pipes, seps))
		if first {
			break
		}
		i = end
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return blocks, nil
}

// parseNested treats raw as a single template spanning the whole value.
func parseNested(raw string) (*Block, bool) {
	if !strings.HasPrefix(raw, "{{") {
		return nil, false
	}
	end, pipes, seps, ok := scanTemplate(raw, 0)
	if !ok || end != len(raw) {
		return nil, false
	}
	return buildBlock(raw, 0, end, pipes, seps), true
}

func candidateName(text string, pos int) string {
	rest := text[pos+2:]
	if k := strings.IndexAny(rest, "|{}"); k >= 0 {
		rest = rest[:k]
	}
	return rest
}

// normalizeName folds a template name the way the wiki does: underscores are
// spaces, whitespace runs collapse and the first letter is case-insensitive.
func normalizeName(s string) string {
	s = strings.Join(strings.Fields(strings.ReplaceAll(s, "_", " ")), " ")
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// scanTemplate walks the template opening at pos and returns the offset past
// its closing braces, the offsets of its top-level pipes and, for each pipe,
// the first top-level '=' that follows it (or -1). Nested templates, template
// parameters, [[links]] and HTML comments are skipped over. Braces only count
// in runs of two or more, and a [[ only opens a link when its ]] follows on
// the same line.
func scanTemplate(text string, pos int) (int, []int, []int, bool) {
	var pipes, seps []int
	depth, links := 0, 0
	for i := pos; i < len(text); {
		c := text[i]
		switch {
		case strings.HasPrefix(text[i:], "<!--"):
			k := strings.Index(text[i+4:], "-->")
			if k < 0 {
				return 0, nil, nil, false
			}
			i += 4 + k + 3
			continue
		case strings.HasPrefix(text[i:], "[[") && linkCloses(text[i+2:]):
			links++
			i += 2
			continue
		case links > 0 && strings.HasPrefix(text[i:], "]]"):
			links--
			i += 2
			continue
		case c == '\n':
			links = 0
		case c == '{' || c == '}':
			n := braceRun(text, i)
			if n < 2 {
				break
			}
			if c == '{' {
				depth += n
				i += n
				continue
			}
			for k := 0; k < n; k++ {
				depth--
				if depth == 0 {
					if k == 0 {
						return 0, nil, nil, false
					}
					return i + k + 1, pipes, seps, true
				}
			}
			i += n
			continue
		case depth == 2 && links == 0 && c == '|':
			pipes = append(pipes, i)
			seps = append(seps, -1)
		case depth == 2 && links == 0 && c == '=' && len(seps) > 0 && seps[len(seps)-1] < 0:
			seps[len(seps)-1] = i
		}
		i++
	}
	return 0, nil, nil, false
}

func braceRun(text string, i int) int {
	n := 1
	for i+n < len(text) && text[i+n] == text[i] {
		n++
	}
	return n
}

func linkCloses(rest string) bool {
	k := strings.Index(rest, "]]")
	if k < 0 {
		return false
	}
	nl := strings.IndexByte(rest, '\n')
	return nl < 0 || k < nl
}

// wellFormed reports whether value can sit inside a template argument
// without adding arguments or closing the template. It returns the number of
// top-level arguments value splits into and whether the first one has a
// top-level '='.
func wellFormed(value string) (args int, named bool, ok bool) {
	wrapped := "{{x|" + value + "}}"
	end, pipes, seps, ok := scanTemplate(wrapped, 0)
	if !ok || end != len(wrapped) {
		return 0, false, false
	}
	return len(pipes), seps[0] >= 0, true
}

func buildBlock(text string, pos, end int, pipes, seps []int) *Block {
	closing := end - 2
	nameEnd := closing
	if len(pipes) > 0 {
		nameEnd = pipes[0]
	}
	b := &Block{
		Name:   strings.TrimSpace(text[pos+2 : nameEnd]),
		Start:  pos,
		End:    end,
		Tokens: make([]Token, 0, len(pipes)),
	}
	index := 0
	for k, p := range pipes {
		segEnd := closing
		if k+1 < len(pipes) {
			segEnd = pipes[k+1]
		}
		tok := Token{Start: p, End: segEnd, KeyStart: p + 1, Sep: seps[k]}
		rawStart := p + 1
		if tok.Sep >= 0 {
			tok.Key = strings.TrimSpace(text[p+1 : tok.Sep])
			rawStart = tok.Sep + 1
		} else {
			index++
			tok.Index = index
		}
		tok.ValueStart, tok.ValueEnd = valueSpan(text, rawStart, segEnd)
		tok.Value = text[tok.ValueStart:tok.ValueEnd]
		b.Tokens = append(b.Tokens, tok)
	}
	return b
}

// valueSpan trims surrounding whitespace from text[from:to]. An all-blank
// value collapses to an empty span after any spaces on the key's line so a
// later substitution lands where a human would type it.
func valueSpan(text string, from, to int) (int, int) {
	raw := text[from:to]
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		lead := len(raw) - len(strings.TrimLeft(raw, " \t"))
		return from + lead, from + lead
	}
	start := from + len(raw) - len(strings.TrimLeftFunc(raw, unicode.IsSpace))
	return start, start + len(trimmed)
}
