package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Selectors for the parts of a rendered post card
const (
	CardSelector    = ".post-card"
	LinkSelector    = "a.post-link[data-url]"
	HostSelector    = ".post-host"
	DateSelector    = ".post-date"
	ImageSelector   = "img.post-image"
	FaviconSelector = "img.post-favicon"
	ContentSelector = ".post-content"
)

// Card is what a reader sees of one rendered post
type Card struct {
	Key     string
	Title   string
	Href    string
	DataURL string
	Host    string
	Date    string
	Image   string
	Favicon string
	Content string

	// Link is the title anchor, usable as a click target
	Link *html.Node
}

// Cards reads back every card in the container, in document order
func (c *Container) Cards() []Card {
	var cards []Card
	c.sel.Find(CardSelector).Each(func(_ int, s *goquery.Selection) {
		cards = append(cards, cardFrom(s))
	})
	return cards
}

func cardFrom(s *goquery.Selection) Card {
	link := s.Find(LinkSelector).First()
	card := Card{
		Key:     s.AttrOr("data-key", ""),
		Title:   collapseSpace(link.Text()),
		Href:    link.AttrOr("href", ""),
		DataURL: link.AttrOr("data-url", ""),
		Host:    collapseSpace(s.Find(HostSelector).First().Text()),
		Date:    collapseSpace(s.Find(DateSelector).First().Text()),
		Image:   s.Find(ImageSelector).First().AttrOr("src", ""),
		Favicon: s.Find(FaviconSelector).First().AttrOr("src", ""),
		Content: collapseSpace(s.Find(ContentSelector).First().Text()),
	}
	if link.Length() > 0 {
		card.Link = link.Get(0)
	}
	return card
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
