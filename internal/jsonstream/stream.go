// Package jsonstream walks a JSON document token by token without building a tree.
package jsonstream

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/mailru/easyjson/jlexer"
	"github.com/tidwall/gjson"

	"CandleKeeper/internal/model"
)

// Kind identifies the type of the next token in a Stream.
type Kind uint8

const (
	KindEnd Kind = iota
	KindBeginObject
	KindEndObject
	KindBeginArray
	KindEndArray
	KindName
	KindString
	KindNumber
	KindBool
	KindNull
)

var kindNames = [...]string{
	KindEnd:         "end of document",
	KindBeginObject: "object begin",
	KindEndObject:   "object end",
	KindBeginArray:  "array begin",
	KindEndArray:    "array end",
	KindName:        "name",
	KindString:      "string",
	KindNumber:      "number",
	KindBool:        "boolean",
	KindNull:        "null",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Token is a consumed token. Text holds the decoded name or string, the raw
// number literal, or "true"/"false" for booleans.
type Token struct {
	Kind Kind
	Text string
}

// Bool reports the value of a boolean token.
func (t Token) Bool() bool { return t.Kind == KindBool && t.Text == "true" }

type frame struct {
	object     bool
	expectName bool
}

// Stream is a pull-based lexer over one JSON document. It tells names apart
// from string values and supports peeking at the next token kind.
type Stream struct {
	lex     jlexer.Lexer
	stack   []frame
	started bool
	done    bool
	err     error
}

// NewStream creates a Stream over data. The Stream does not copy data.
func NewStream(data []byte) *Stream {
	return &Stream{lex: jlexer.Lexer{Data: data}}
}

// Peek returns the kind of the next token without consuming it.
func (s *Stream) Peek() (Kind, error) {
	if s.err != nil {
		return KindEnd, s.err
	}
	if s.done {
		return s.end()
	}

	kind := s.lex.CurrentToken()
	if !s.lex.Ok() || kind == jlexer.TokenUndef {
		return KindEnd, s.fail()
	}

	top := s.top()
	wantName := top != nil && top.object && top.expectName

	switch kind {
	case jlexer.TokenDelim:
		switch {
		case s.lex.IsDelim('}'):
			if top == nil || !top.object {
				return KindEnd, s.unexpected("'}'")
			}
			return KindEndObject, nil
		case s.lex.IsDelim(']'):
			if top == nil || top.object {
				return KindEnd, s.unexpected("']'")
			}
			return KindEndArray, nil
		case wantName:
			return KindEnd, s.unexpected("container in place of an object member name")
		case s.lex.IsDelim('{'):
			return KindBeginObject, nil
		default:
			return KindBeginArray, nil
		}
	case jlexer.TokenString:
		if wantName {
			return KindName, nil
		}
		return KindString, nil
	}

	if wantName {
		return KindEnd, s.unexpected("scalar in place of an object member name")
	}
	switch kind {
	case jlexer.TokenNumber:
		return KindNumber, nil
	case jlexer.TokenBool:
		return KindBool, nil
	case jlexer.TokenNull:
		return KindNull, nil
	}
	return KindEnd, s.fail()
}

// Next consumes the next token.
func (s *Stream) Next() (Token, error) {
	kind, err := s.Peek()
	if err != nil {
		return Token{}, err
	}
	tok := Token{Kind: kind}

	switch kind {
	case KindEnd:
		return tok, nil
	case KindBeginObject:
		s.lex.Delim('{')
		s.push(true)
	case KindBeginArray:
		s.lex.Delim('[')
		s.push(false)
	case KindEndObject:
		s.lex.Delim('}')
		s.pop()
	case KindEndArray:
		s.lex.Delim(']')
		s.pop()
	case KindName:
		tok.Text = s.lex.String()
		s.checkText(tok.Text)
		s.lex.WantColon()
		s.top().expectName = false
	case KindString:
		tok.Text = s.lex.String()
		s.checkText(tok.Text)
		s.valueDone()
	case KindNumber:
		raw := s.lex.Raw()
		if s.lex.Ok() && !gjson.ValidBytes(raw) {
			s.lex.AddError(fmt.Errorf("invalid number literal %q", raw))
		}
		tok.Text = string(raw)
		s.valueDone()
	case KindBool:
		if s.lex.Bool() {
			tok.Text = "true"
		} else {
			tok.Text = "false"
		}
		s.valueDone()
	case KindNull:
		s.lex.Skip()
		s.valueDone()
	}

	if !s.lex.Ok() {
		return Token{}, s.fail()
	}
	return tok, nil
}

// checkText rejects decoded strings that are not valid UTF-8.
func (s *Stream) checkText(text string) {
	if s.lex.Ok() && !utf8.ValidString(text) {
		s.lex.AddError(fmt.Errorf("invalid UTF-8 in string %q", text))
	}
}

// Depth reports how many containers are currently open.
func (s *Stream) Depth() int { return len(s.stack) }

func (s *Stream) top() *frame {
	if len(s.stack) == 0 {
		return nil
	}
	return &s.stack[len(s.stack)-1]
}

func (s *Stream) push(object bool) {
	s.started = true
	s.stack = append(s.stack, frame{object: object, expectName: object})
}

func (s *Stream) pop() {
	if len(s.stack) > 0 {
		s.stack = s.stack[:len(s.stack)-1]
	}
	s.valueDone()
}

// valueDone records that a complete value was read in the current container.
func (s *Stream) valueDone() {
	s.started = true
	top := s.top()
	if top == nil {
		s.done = true
		return
	}
	if top.object {
		top.expectName = true
	}
	s.lex.WantComma()
}

// end reports the end of the document once the root value has been read,
// rejecting anything but whitespace after it.
func (s *Stream) end() (Kind, error) {
	s.lex.Consumed()
	if !s.lex.Ok() {
		return KindEnd, s.fail()
	}
	return KindEnd, nil
}

func (s *Stream) unexpected(what string) error {
	s.err = fmt.Errorf("%w: unexpected %s at depth %d", model.ErrDecode, what, len(s.stack))
	return s.err
}

func (s *Stream) fail() error {
	if s.err != nil {
		return s.err
	}
	lexErr := s.lex.Error()
	switch {
	case errors.Is(lexErr, io.EOF) && !s.started:
		s.err = fmt.Errorf("%w: empty document", model.ErrDecode)
	case errors.Is(lexErr, io.EOF):
		s.err = fmt.Errorf("%w: unexpected end of document at depth %d", model.ErrDecode, len(s.stack))
	case lexErr != nil:
		s.err = fmt.Errorf("%w: %v", model.ErrDecode, lexErr)
	default:
		s.err = fmt.Errorf("%w: unexpected token", model.ErrDecode)
	}
	return s.err
}
