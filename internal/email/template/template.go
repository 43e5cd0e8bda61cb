// Package template renders owner-editable email templates. Templates
// are plain strings with {{variable}} placeholders and non-nested
// {{#if flag}}...{{/if}} conditional blocks.
package template

import (
	"errors"
	"strings"
)

var (
	ErrUnclosedBlock = errors.New("unclosed_conditional_block")
	ErrNestedBlock   = errors.New("nested_conditional_block")
	ErrDanglingEnd   = errors.New("dangling_block_end")
)

// Template carries the three renderable bodies of one email.
type Template struct {
	Subject string
	HTML    string
	Text    string
}

// Rendered is the output of Render with every token resolved.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

type tokenKind int

const (
	tokenLiteral tokenKind = iota
	tokenVariable
	tokenBlock
)

type token struct {
	kind tokenKind
	text string  // literal text or variable/flag name
	body []token // block contents, literals and variables only
}

// Render resolves all three bodies against the same variable and flag
// maps. Unknown variables are left as-is so a typo in a stored template
// stays visible instead of vanishing silently.
func Render(tmpl Template, vars map[string]string, flags map[string]bool) (Rendered, error) {
	subject, err := renderString(tmpl.Subject, vars, flags)
	if err != nil {
		return Rendered{}, err
	}
	html, err := renderString(tmpl.HTML, vars, flags)
	if err != nil {
		return Rendered{}, err
	}
	text, err := renderString(tmpl.Text, vars, flags)
	if err != nil {
		return Rendered{}, err
	}
	return Rendered{Subject: subject, HTML: html, Text: text}, nil
}

func renderString(input string, vars map[string]string, flags map[string]bool) (string, error) {
	tokens, err := parse(input)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for _, tok := range tokens {
		switch tok.kind {
		case tokenLiteral:
			out.WriteString(tok.text)
		case tokenVariable:
			out.WriteString(resolveVar(tok.text, vars))
		case tokenBlock:
			if !flags[tok.text] {
				continue
			}
			for _, inner := range tok.body {
				if inner.kind == tokenVariable {
					out.WriteString(resolveVar(inner.text, vars))
				} else {
					out.WriteString(inner.text)
				}
			}
		}
	}
	return out.String(), nil
}

func resolveVar(name string, vars map[string]string) string {
	if value, ok := vars[name]; ok {
		return value
	}
	return "{{" + name + "}}"
}

// parse splits input into literal, variable, and conditional-block
// tokens. Blocks may not nest.
func parse(input string) ([]token, error) {
	var tokens []token
	var block *token

	rest := input
	for rest != "" {
		open := strings.Index(rest, "{{")
		if open < 0 {
			appendLiteral(&tokens, block, rest)
			break
		}
		if open > 0 {
			appendLiteral(&tokens, block, rest[:open])
		}
		rest = rest[open:]

		end := strings.Index(rest, "}}")
		if end < 0 {
			// A lone "{{" is literal text.
			appendLiteral(&tokens, block, rest)
			break
		}

		tag := rest[2:end]
		rest = rest[end+2:]

		switch {
		case strings.HasPrefix(tag, "#if "):
			if block != nil {
				return nil, ErrNestedBlock
			}
			block = &token{kind: tokenBlock, text: strings.TrimSpace(tag[4:])}
		case tag == "/if":
			if block == nil {
				return nil, ErrDanglingEnd
			}
			tokens = append(tokens, *block)
			block = nil
		default:
			name := strings.TrimSpace(tag)
			if block != nil {
				block.body = append(block.body, token{kind: tokenVariable, text: name})
			} else {
				tokens = append(tokens, token{kind: tokenVariable, text: name})
			}
		}
	}

	if block != nil {
		return nil, ErrUnclosedBlock
	}
	return tokens, nil
}

func appendLiteral(tokens *[]token, block *token, text string) {
	if text == "" {
		return
	}
	if block != nil {
		block.body = append(block.body, token{kind: tokenLiteral, text: text})
		return
	}
	*tokens = append(*tokens, token{kind: tokenLiteral, text: text})
}
