package parser

import "regexp"

var reRel = regexp.MustCompile(
	`(?is)^ALTER\s+TABLE\s+(?:IF\s+EXISTS\s+)?(?:ONLY\s+)?(` + ident + `(?:\.` + ident + `)?)\s+ADD\s+CONSTRAINT\s+(` + ident + `)\s`,
)

// relation is an ALTER TABLE … ADD CONSTRAINT statement.
type relation struct {
	Table string
	Name  string
}

func parseRelation(stmt string) (relation, bool) {
	m := reRel.FindStringSubmatch(stmt)
	if m == nil {
		return relation{}, false
	}
	return relation{Table: objectName(m[1]), Name: objectName(m[2])}, true
}
