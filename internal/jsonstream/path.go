package jsonstream

import "strings"

// ArrayElem is the path segment appended for every array element.
const ArrayElem = "[]"

// Path is the location of the current token from the document root.
// Object members are joined with "." and array elements add "[]", so the
// open prices of a chart document live at "chart.result[].indicators.quote[].open[]".
type Path struct {
	buf   []byte
	marks []int
	names []string
}

// String renders the full path.
func (p *Path) String() string { return string(p.buf) }

// Leaf returns the innermost member name, skipping array levels.
func (p *Path) Leaf() string {
	for i := len(p.names) - 1; i >= 0; i-- {
		if p.names[i] != "" {
			return p.names[i]
		}
	}
	return ""
}

// Depth reports the number of segments.
func (p *Path) Depth() int { return len(p.marks) }

// Is reports whether the path equals s.
func (p *Path) Is(s string) bool { return string(p.buf) == s }

// HasPrefix reports whether the path starts with prefix.
func (p *Path) HasPrefix(prefix string) bool {
	return strings.HasPrefix(string(p.buf), prefix)
}

func (p *Path) pushName(name string) {
	p.marks = append(p.marks, len(p.buf))
	if len(p.buf) > 0 {
		p.buf = append(p.buf, '.')
	}
	p.buf = append(p.buf, name...)
	p.names = append(p.names, name)
}

func (p *Path) pushElem() {
	p.marks = append(p.marks, len(p.buf))
	p.buf = append(p.buf, ArrayElem...)
	p.names = append(p.names, "")
}

func (p *Path) pop() {
	n := len(p.marks)
	if n == 0 {
		return
	}
	p.buf = p.buf[:p.marks[n-1]]
	p.marks = p.marks[:n-1]
	p.names = p.names[:n-1]
}

// JoinPath builds a path string from member names, using ArrayElem for array levels.
func JoinPath(segments ...string) string {
	var b strings.Builder
	for _, seg := range segments {
		if seg != ArrayElem && b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}
