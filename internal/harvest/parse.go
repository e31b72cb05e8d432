// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/pagebinder/pkg/types"
)

// Markup shape: every list item carries an image and a page-number label.
const (
	itemSelector  = "li"
	imageSelector = "img"
	labelSelector = "span.pageNum"
)

var (
	// ErrMalformedMarkup aborts the whole harvest: a list item lacks the
	// nested image or page-number label.
	ErrMalformedMarkup = errors.New("malformed markup")

	// ErrMissingSource skips an item whose image has no src.
	ErrMissingSource = errors.New("missing image source")

	// ErrInvalidSource skips an item whose src cannot be parsed as a URL.
	ErrInvalidSource = errors.New("invalid image source")

	// ErrInvalidPageNumber skips an item whose label is not a positive integer.
	ErrInvalidPageNumber = errors.New("invalid page number")

	// ErrDuplicatePage skips an earlier item when a later one has the same page.
	ErrDuplicatePage = errors.New("duplicate page number")

	// ErrFetchFailed skips an item whose image could not be downloaded.
	ErrFetchFailed = errors.New("fetch failed")
)

// ItemError describes a list item that contributes nothing to the output.
type ItemError struct {
	// Item is the 1-based position of the list item in the document.
	Item int

	// Label is the trimmed page-number text as written in the markup.
	Label string

	// SourceURL is the image locator, if one was read.
	SourceURL string

	Err error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("item %d (page %q): %v", e.Item, e.Label, e.Err)
}

func (e ItemError) Unwrap() error { return e.Err }

// parsedItem keeps the document position next to the page so later stages
// can report skips against the original item.
type parsedItem struct {
	types.PageImage
	item  int
	label string
}

// ParsePageNumber converts a page-number label to a positive integer.
func ParsePageNumber(label string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(label))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPageNumber, label)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: %d is not positive", ErrInvalidPageNumber, n)
	}
	return n, nil
}

// Parse extracts page images from HTML in document order. Items without an
// image source or with a non-numeric label are returned as skips. A list
// item missing the image or label element fails the whole parse with
// ErrMalformedMarkup. Relative sources are resolved against baseURL when it
// is non-empty.
func Parse(r io.Reader, baseURL string) ([]types.PageImage, []ItemError, error) {
	items, skipped, err := parseItems(r, baseURL)
	if err != nil {
		return nil, nil, err
	}
	pages := make([]types.PageImage, len(items))
	for i, it := range items {
		pages[i] = it.PageImage
	}
	return pages, skipped, nil
}

func parseItems(r io.Reader, baseURL string) ([]parsedItem, []ItemError, error) {
	var base *url.URL
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing base URL %q: %w", baseURL, err)
		}
		base = u
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing HTML: %w", err)
	}

	var (
		items    []parsedItem
		skipped  []ItemError
		parseErr error
	)
	doc.Find(itemSelector).EachWithBreak(func(i int, li *goquery.Selection) bool {
		pos := i + 1
		img := li.Find(imageSelector).First()
		label := li.Find(labelSelector).First()
		if img.Length() == 0 || label.Length() == 0 {
			parseErr = fmt.Errorf("%w: list item %d lacks <img> or <span class=\"pageNum\">", ErrMalformedMarkup, pos)
			return false
		}

		text := strings.TrimSpace(label.Text())
		src, _ := img.Attr("src")
		src = strings.TrimSpace(src)
		if src == "" {
			skipped = append(skipped, ItemError{Item: pos, Label: text, Err: ErrMissingSource})
			return true
		}

		page, err := ParsePageNumber(text)
		if err != nil {
			skipped = append(skipped, ItemError{Item: pos, Label: text, SourceURL: src, Err: err})
			return true
		}

		if base != nil {
			ref, err := url.Parse(src)
			if err != nil {
				skipped = append(skipped, ItemError{Item: pos, Label: text, SourceURL: src, Err: fmt.Errorf("%w: %v", ErrInvalidSource, err)})
				return true
			}
			src = base.ResolveReference(ref).String()
		}

		items = append(items, parsedItem{
			PageImage: types.PageImage{Page: page, SourceURL: src},
			item:      pos,
			label:     text,
		})
		return true
	})
	if parseErr != nil {
		return nil, nil, parseErr
	}
	return items, skipped, nil
}

// dedupePages keeps the last item for each page number, in document order,
// and reports the earlier ones as skipped.
func dedupePages(items []parsedItem) ([]parsedItem, []ItemError) {
	last := make(map[int]int, len(items))
	for i, it := range items {
		last[it.Page] = i
	}

	var (
		kept    []parsedItem
		skipped []ItemError
	)
	for i, it := range items {
		if last[it.Page] != i {
			skipped = append(skipped, ItemError{
				Item:      it.item,
				Label:     it.label,
				SourceURL: it.SourceURL,
				Err:       fmt.Errorf("%w: superseded by item %d", ErrDuplicatePage, items[last[it.Page]].item),
			})
			continue
		}
		kept = append(kept, it)
	}
	return kept, skipped
}
