package catalog

import (
	"strconv"
	"strings"
)

// Query builds a request body in the catalog's query language, e.g.
//
//	search "zelda"; fields name,cover.url; limit 10;
//	fields name,cover.url; where id = (1,2,3);
//
// Clauses are rendered in a fixed order: search, fields, where, sort, limit.
type Query struct {
	search string
	fields []string
	where  string
	sort   string
	limit  int
}

// NewQuery starts a query selecting fields.
func NewQuery(fields ...string) *Query {
	return &Query{fields: fields}
}

func (q *Query) Search(term string) *Query {
	q.search = term
	return q
}

func (q *Query) Where(cond string) *Query {
	q.where = cond
	return q
}

// WhereIDs filters on id: "id = 7" for one id, "id = (1,2,3)" for several.
func (q *Query) WhereIDs(ids ...int64) *Query {
	if len(ids) == 1 {
		return q.Where("id = " + strconv.FormatInt(ids[0], 10))
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return q.Where("id = (" + strings.Join(parts, ",") + ")")
}

func (q *Query) Sort(expr string) *Query {
	q.sort = expr
	return q
}

func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

func (q *Query) String() string {
	var b strings.Builder
	if q.search != "" {
		b.WriteString(`search "`)
		b.WriteString(escapeSearch(q.search))
		b.WriteString(`"; `)
	}
	if len(q.fields) > 0 {
		b.WriteString("fields ")
		b.WriteString(strings.Join(q.fields, ","))
		b.WriteString("; ")
	}
	if q.where != "" {
		b.WriteString("where ")
		b.WriteString(q.where)
		b.WriteString("; ")
	}
	if q.sort != "" {
		b.WriteString("sort ")
		b.WriteString(q.sort)
		b.WriteString("; ")
	}
	if q.limit > 0 {
		b.WriteString("limit ")
		b.WriteString(strconv.Itoa(q.limit))
		b.WriteString("; ")
	}
	return strings.TrimSuffix(b.String(), " ")
}

var searchEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// escapeSearch keeps user input inside the quoted search term.
func escapeSearch(term string) string {
	return searchEscaper.Replace(term)
}
