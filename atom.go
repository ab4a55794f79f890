package sitegen

import (
	"strings"

	atom "github.com/thomas11/atomgenerator"
)

// FeedFile is the Atom feed of a blog environment, relative to its output
// root. Category feeds use the same name inside the category directory.
const FeedFile = "blog-feed.xml"

// feedDocuments drops documents excluded from feeds, then keeps the first n.
func feedDocuments(docs Collection, n int) Collection {
	var feed Collection
	for _, d := range docs {
		if !d.ExcludeFromFeed {
			feed = append(feed, d)
		}
	}
	return feed.limit(n)
}

// environmentURL is the absolute URL of the environment's output root.
func (s *site) environmentURL() string {
	u := strings.TrimSuffix(s.conf.SiteURL, "/") + "/"
	if p := strings.Trim(s.env.OutPath, "/"); p != "" {
		u += p + "/"
	}
	return u
}

func (s *site) renderFeed(title, relURL string, docs Collection) ([]byte, error) {
	feed := atom.Feed{
		Title:   title,
		Link:    s.environmentURL() + strings.TrimPrefix(relURL, "/"),
		PubDate: docs[0].Date(),
	}
	feed.AddAuthor(atom.Author{
		Name: s.conf.Author,
		Uri:  s.conf.AuthorURI,
	})

	for _, d := range docs {
		e, err := s.entryForDocument(d)
		if err != nil {
			s.logger.Warn("Leaving document out of feed", "path", d.FilePath, "error", err)
			continue
		}
		feed.AddEntry(e)
	}

	if errs := feed.Validate(); len(errs) > 0 {
		for _, e := range errs {
			s.logger.Warn("Atom feed is not valid", "feed", title, "error", e)
		}
		return nil, errs[0]
	}

	return feed.GenXml()
}

func (s *site) entryForDocument(d *DocumentMeta) (*atom.Entry, error) {
	body, err := s.renderBody(d)
	if err != nil {
		return nil, err
	}

	description := d.Param("description")
	if description == "" {
		description = d.RawTitle
	}
	e := &atom.Entry{
		Title:       d.RawTitle,
		Description: description,
		Link:        d.AbsoluteLink,
		PubDate:     d.Date(),
		Content:     string(body.Full),
	}
	if d.Category != "" {
		e.AddCategory(atom.Category{Term: d.Category})
	}
	return e, nil
}

// renderAndSaveFeed writes the feed of docs to rel below the output root.
// An empty feed is not written.
func (s *site) renderAndSaveFeed(title, relURL, rel string, docs Collection) error {
	if len(docs) == 0 {
		s.logger.Debug("No documents for feed", "feed", rel)
		return nil
	}
	atomXML, err := s.renderFeed(title, relURL, docs)
	if err != nil {
		return err
	}
	return s.writeFile(rel, string(atomXML), "application/atom+xml")
}
