package sitegen

import (
	"bytes"
	"cmp"
	"slices"
	"strings"
)

type category string

func (c category) String() string { return string(c) }

var categoryIdReplacer = strings.NewReplacer(" ", "_", "/", "_", `\`, "_")

// Id is the category's URL segment. It is always a single path element
// that cannot climb out of the category directory.
func (c category) Id() string {
	id := strings.Trim(categoryIdReplacer.Replace(c.String()), ".")
	if id == "" {
		return "_"
	}
	return id
}

// CategoryGroup is one category and its documents, newest first.
type CategoryGroup struct {
	Category  category
	Documents Collection
}

func (g CategoryGroup) Name() string { return g.Category.String() }

func (g CategoryGroup) EarliestDateFormatted() string {
	return formatDateShort(g.Documents.earliestDate())
}

func (g CategoryGroup) LatestDateFormatted() string {
	return formatDateShort(g.Documents.latestDate())
}

type documentsByCategory []CategoryGroup

func (dc *documentsByCategory) addDocument(c category, d *DocumentMeta) {
	for i, group := range *dc {
		if group.Category == c {
			group.Documents = append(group.Documents, d)
			(*dc)[i] = group
			return
		}
	}
	*dc = append(*dc, CategoryGroup{Category: c, Documents: Collection{d}})
}

func (dc documentsByCategory) String() string {
	b := new(bytes.Buffer)
	for _, g := range dc {
		b.WriteString(g.Category.String())
		b.WriteString(": ")
		for i, d := range g.Documents {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.RawTitle)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// GroupByCategory groups documents by their category. Documents without a
// category are in no group. Groups are ordered by size, then by newest
// document; documents keep the collection's order.
func GroupByCategory(docs Collection) []CategoryGroup {
	byCat := make(documentsByCategory, 0, 20)

	for _, d := range docs {
		if d.Category == "" {
			continue
		}
		byCat.addDocument(category(d.Category), d)
	}

	slices.SortStableFunc(byCat, func(a, b CategoryGroup) int {
		if c := cmp.Compare(len(b.Documents), len(a.Documents)); c != 0 {
			return c
		}
		return b.Documents.latestDate().Compare(a.Documents.latestDate())
	})

	return byCat
}
