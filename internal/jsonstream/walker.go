package jsonstream

import (
	"encoding/json"
	"fmt"

	"CandleKeeper/internal/model"
)

// MaxDepth bounds container nesting accepted by Walk.
const MaxDepth = 512

// Handler receives the tokens of a document in order.
// Scalar callbacks get the path of the value itself. OnName gets the path of
// the enclosing object together with the member name. Any error returned by a
// callback stops the walk and is returned unchanged.
type Handler interface {
	OnName(path *Path, name string) error
	OnString(path *Path, value string) error
	OnNumber(path *Path, value json.Number) error
	OnBool(path *Path, value bool) error
	OnNull(path *Path) error
	// OnEnd runs once after the root value and any trailing whitespace were consumed.
	OnEnd() error
}

// NopHandler implements Handler with no-op callbacks. Embed it to override only
// the callbacks you care about.
type NopHandler struct{}

func (NopHandler) OnName(*Path, string) error        { return nil }
func (NopHandler) OnString(*Path, string) error      { return nil }
func (NopHandler) OnNumber(*Path, json.Number) error { return nil }
func (NopHandler) OnBool(*Path, bool) error          { return nil }
func (NopHandler) OnNull(*Path) error                { return nil }
func (NopHandler) OnEnd() error                      { return nil }

// Walk drives h over every token of s, depth first and in document order.
func Walk(s *Stream, h Handler) error {
	var path Path
	if err := walkValue(s, h, &path); err != nil {
		return err
	}
	tok, err := s.Next()
	if err != nil {
		return err
	}
	if tok.Kind != KindEnd {
		return fmt.Errorf("%w: unexpected %s after root value", model.ErrDecode, tok.Kind)
	}
	return h.OnEnd()
}

// WalkBytes is shorthand for Walk(NewStream(data), h).
func WalkBytes(data []byte, h Handler) error {
	return Walk(NewStream(data), h)
}

// WalkString walks a document held in a string.
func WalkString(doc string, h Handler) error {
	return Walk(NewStream([]byte(doc)), h)
}

func walkValue(s *Stream, h Handler, path *Path) error {
	tok, err := s.Next()
	if err != nil {
		return err
	}

	switch tok.Kind {
	case KindBeginObject:
		if s.Depth() > MaxDepth {
			return fmt.Errorf("%w: nesting deeper than %d", model.ErrDecode, MaxDepth)
		}
		return walkObject(s, h, path)
	case KindBeginArray:
		if s.Depth() > MaxDepth {
			return fmt.Errorf("%w: nesting deeper than %d", model.ErrDecode, MaxDepth)
		}
		return walkArray(s, h, path)
	case KindString:
		return h.OnString(path, tok.Text)
	case KindNumber:
		return h.OnNumber(path, json.Number(tok.Text))
	case KindBool:
		return h.OnBool(path, tok.Bool())
	case KindNull:
		return h.OnNull(path)
	}
	return fmt.Errorf("%w: unexpected %s at %q", model.ErrDecode, tok.Kind, path.String())
}

func walkObject(s *Stream, h Handler, path *Path) error {
	for {
		kind, err := s.Peek()
		if err != nil {
			return err
		}
		if kind == KindEndObject {
			_, err = s.Next()
			return err
		}

		tok, err := s.Next()
		if err != nil {
			return err
		}
		if err := h.OnName(path, tok.Text); err != nil {
			return err
		}
		path.pushName(tok.Text)
		if err := walkValue(s, h, path); err != nil {
			return err
		}
		path.pop()
	}
}

func walkArray(s *Stream, h Handler, path *Path) error {
	for {
		kind, err := s.Peek()
		if err != nil {
			return err
		}
		if kind == KindEndArray {
			_, err = s.Next()
			return err
		}

		path.pushElem()
		if err := walkValue(s, h, path); err != nil {
			return err
		}
		path.pop()
	}
}
