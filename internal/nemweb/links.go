package nemweb

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// ExtractZipLinks returns the href of every anchor that points at a .zip
// file, in document order and without duplicates.
func ExtractZipLinks(r io.Reader) ([]string, error) {
	z := html.NewTokenizer(r)
	seen := make(map[string]bool)
	var links []string

	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return links, nil
			}
			return nil, z.Err()

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "href" {
					href := strings.TrimSpace(string(val))
					if strings.HasSuffix(strings.ToLower(href), ".zip") && !seen[href] {
						seen[href] = true
						links = append(links, href)
					}
				}
				if !more {
					break
				}
			}
		}
	}
}
