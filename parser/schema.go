// Package parser reads a schema SQL file into reconcile definitions.
package parser

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"pgreconcile/reconcile"
)

const ident = `(?:"[^"]+"|\x60[^\x60]+\x60|\[[^\]]+\]|[A-Za-z_][\w$]*)`

var reDollarTag = regexp.MustCompile(`^\$(?:[A-Za-z_][A-Za-z0-9_]*)?\$`)

var reTable = regexp.MustCompile(
	`(?is)^CREATE\s+(?:UNLOGGED\s+)?TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?(` + ident + `(?:\.` + ident + `)?)\s*\(`,
)

// ParseDefinitions reads path and returns one definition per CREATE TABLE
// statement, with ALTER TABLE … ADD CONSTRAINT statements attached to the
// definition of the table they alter. Other statements are ignored.
func ParseDefinitions(path string) ([]reconcile.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	defs, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// Parse is ParseDefinitions on SQL text.
func Parse(text string) ([]reconcile.Definition, error) {
	var defs []reconcile.Definition
	byTable := map[string]int{}

	stmts, err := splitStatements(text)
	if err != nil {
		return nil, err
	}
	for _, stmt := range stmts {
		if m := reTable.FindStringSubmatch(stmt); m != nil {
			name := objectName(m[1])
			if _, dup := byTable[name]; !dup {
				byTable[name] = len(defs)
			}
			defs = append(defs, reconcile.Definition{TableName: name, TableDDL: stmt})
			continue
		}
		rel, ok := parseRelation(stmt)
		if !ok {
			continue
		}
		if i, found := byTable[rel.Table]; found && defs[i].ConstraintName == "" {
			defs[i].ConstraintName = rel.Name
			defs[i].ConstraintDDL = stmt
			continue
		}
		defs = append(defs, reconcile.Definition{ConstraintName: rel.Name, ConstraintDDL: stmt})
	}
	return defs, nil
}

// ExpectedObjects lists the tables and constraints of defs in file order,
// each once.
func ExpectedObjects(defs []reconcile.Definition) []reconcile.ExpectedObject {
	var objs []reconcile.ExpectedObject
	seen := map[reconcile.ExpectedObject]bool{}
	add := func(o reconcile.ExpectedObject) {
		if o.Name == "" || seen[o] {
			return
		}
		seen[o] = true
		objs = append(objs, o)
	}
	for _, d := range defs {
		add(reconcile.ExpectedObject{Name: d.TableName, Kind: reconcile.KindTable})
		add(reconcile.ExpectedObject{Name: d.ConstraintName, Kind: reconcile.KindConstraint})
	}
	return objs
}

// Names returns the names of objs of the given kind.
func Names(objs []reconcile.ExpectedObject, kind reconcile.ObjectKind) []string {
	var names []string
	for _, o := range objs {
		if o.Kind == kind {
			names = append(names, o.Name)
		}
	}
	return names
}

// objectName drops the schema prefix and identifier quotes.
func objectName(qualified string) string {
	name := qualified
	if i := lastDot(qualified); i >= 0 {
		name = qualified[i+1:]
	}
	if len(name) >= 2 {
		switch {
		case name[0] == '"' && name[len(name)-1] == '"',
			name[0] == '`' && name[len(name)-1] == '`',
			name[0] == '[' && name[len(name)-1] == ']':
			return name[1 : len(name)-1]
		}
	}
	return name
}

// lastDot finds the schema separator outside quotes.
func lastDot(s string) int {
	var quote byte
	pos := -1
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '`':
			quote = c
		case c == '[':
			quote = ']'
		case c == '.':
			pos = i
		}
	}
	return pos
}

// splitStatements splits text on semicolons outside quotes, dollar-quoted
// bodies and comments. The returned statements keep their terminating
// semicolon.
func splitStatements(text string) ([]string, error) {
	var (
		out []string
		b   strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" && s != ";" {
			out = append(out, s)
		}
		b.Reset()
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '-' && i+1 < len(text) && text[i+1] == '-':
			for i < len(text) && text[i] != '\n' {
				i++
			}
			b.WriteByte('\n')
		case c == '/' && i+1 < len(text) && text[i+1] == '*':
			end := strings.Index(text[i+2:], "*/")
			if end < 0 {
				return nil, fmt.Errorf("unterminated comment at offset %d", i)
			}
			i += end + 3
			b.WriteByte(' ')
		case c == '$' && (i == 0 || !isIdentByte(text[i-1])) && reDollarTag.MatchString(text[i:]):
			tag := reDollarTag.FindString(text[i:])
			end := strings.Index(text[i+len(tag):], tag)
			if end < 0 {
				return nil, fmt.Errorf("unterminated %s body at offset %d", tag, i)
			}
			n := len(tag) + end + len(tag)
			b.WriteString(text[i : i+n])
			i += n - 1
		case c == '\'' || c == '"':
			j := i + 1
			for j < len(text) {
				if text[j] == c {
					if j+1 < len(text) && text[j+1] == c {
						j += 2
						continue
					}
					break
				}
				j++
			}
			if j >= len(text) {
				return nil, fmt.Errorf("unterminated %c quote at offset %d", c, i)
			}
			b.WriteString(text[i : j+1])
			i = j
		case c == ';':
			b.WriteByte(';')
			flush()
		default:
			b.WriteByte(c)
		}
	}
	flush()
	return out, nil
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
