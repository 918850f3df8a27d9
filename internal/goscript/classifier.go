package goscript

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	"github.com/toddmeinershagen/scriptcs/internal/engine"
)

// classify splits a Go snippet into the engine's code-shape buckets.
// The split is purely syntactic: the snippet is cut into top-level
// chunks with a nesting-aware line scanner, declaration chunks are
// parsed and bucketed (types/consts/vars/imports, body-less funcs,
// funcs with bodies), and the remaining statement chunks form the
// single trailing evaluable unit, joined in original order.
func classify(src string) (*engine.ParsedCode, error) {
	parsed := &engine.ParsedCode{}
	if strings.TrimSpace(src) == "" {
		return parsed, nil
	}

	var evalParts []string
	for _, ch := range splitTopLevel(src) {
		if !ch.decl {
			evalParts = append(evalParts, ch.text)
			continue
		}
		if err := bucketDecl(ch.text, parsed); err != nil {
			return nil, err
		}
	}

	if len(evalParts) > 0 {
		evaluable := strings.Join(evalParts, "\n")
		if err := checkStatements(evaluable); err != nil {
			return nil, err
		}
		parsed.Evaluable = evaluable
	}
	return parsed, nil
}

// bucketDecl parses one declaration chunk and appends it to the right
// bucket.
func bucketDecl(text string, parsed *engine.ParsedCode) error {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "snippet.go", "package scriptcs\n"+text, 0)
	if err != nil {
		return &engine.ClassifyError{Snippet: text, Message: err.Error()}
	}
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Body == nil {
				parsed.Prototypes = append(parsed.Prototypes, text)
			} else {
				parsed.Bodies = append(parsed.Bodies, text)
			}
		case *ast.GenDecl:
			parsed.Declarations = append(parsed.Declarations, text)
		}
	}
	return nil
}

// checkStatements verifies the evaluable tail parses as a statement
// block.
func checkStatements(text string) error {
	fset := token.NewFileSet()
	wrapped := "package scriptcs\nfunc _() {\n" + text + "\n}"
	if _, err := parser.ParseFile(fset, "snippet.go", wrapped, 0); err != nil {
		return &engine.ClassifyError{Snippet: text, Message: err.Error()}
	}
	return nil
}

// chunk is one top-level segment of the snippet.
type chunk struct {
	text string
	decl bool
}

// splitTopLevel cuts the snippet into top-level chunks. A chunk
// starting with a declaration keyword at nesting depth zero runs
// until the depth returns to zero; everything else accumulates into
// statement chunks. Strings and comments are skipped when tracking
// depth.
func splitTopLevel(src string) []chunk {
	var (
		chunks  []chunk
		buf     []string
		bufDecl bool
	)
	flush := func() {
		text := strings.TrimSpace(strings.Join(buf, "\n"))
		if text != "" {
			chunks = append(chunks, chunk{text: text, decl: bufDecl})
		}
		buf = buf[:0]
	}

	s := &depthScanner{}
	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		if s.depth == 0 && !s.inRaw && !s.inBlockComment {
			if startsDecl(trimmed) {
				flush()
				bufDecl = true
			} else if bufDecl && len(buf) > 0 {
				flush()
				bufDecl = false
			}
		}
		buf = append(buf, line)
		s.scan(line)
		if s.depth == 0 && !s.inRaw && !s.inBlockComment && bufDecl {
			flush()
			bufDecl = false
		}
	}
	flush()
	return chunks
}

// startsDecl reports whether a line opens a top-level declaration.
// A func literal ("func(...)") is not a declaration.
func startsDecl(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "func", "type", "const", "var", "import":
		return true
	}
	return false
}

// depthScanner tracks bracket nesting across lines, ignoring brackets
// inside strings, runes, and comments.
type depthScanner struct {
	depth          int
	inRaw          bool
	inBlockComment bool
}

func (s *depthScanner) scan(line string) {
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case s.inRaw:
			if r == '`' {
				s.inRaw = false
			}
		case s.inBlockComment:
			if r == '*' && i+1 < len(runes) && runes[i+1] == '/' {
				s.inBlockComment = false
				i++
			}
		case r == '`':
			s.inRaw = true
		case r == '/' && i+1 < len(runes) && runes[i+1] == '/':
			return // rest of line is a comment
		case r == '/' && i+1 < len(runes) && runes[i+1] == '*':
			s.inBlockComment = true
			i++
		case r == '"' || r == '\'':
			i = skipQuoted(runes, i, r)
		case r == '{' || r == '(' || r == '[':
			s.depth++
		case r == '}' || r == ')' || r == ']':
			if s.depth > 0 {
				s.depth--
			}
		}
	}
}

// skipQuoted returns the index of the closing quote, honoring escapes.
func skipQuoted(runes []rune, start int, quote rune) int {
	for i := start + 1; i < len(runes); i++ {
		switch runes[i] {
		case '\\':
			i++
		case quote:
			return i
		}
	}
	return len(runes)
}
