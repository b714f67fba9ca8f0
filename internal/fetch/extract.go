// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// chromeSelectors matches page furniture that never carries article text.
const chromeSelectors = "script, style, nav, header, footer, aside, noscript, form, iframe"

// contentSelectors is the preference order for the main content node.
var contentSelectors = []string{"article", "main", "body"}

// ExtractText pulls the main prose out of an HTML page. It removes page
// chrome, takes the text of the first article/main/body node that has
// any, and collapses all whitespace runs to single spaces.
func ExtractText(html []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	doc.Find(chromeSelectors).Remove()

	for _, selector := range contentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		text := normalizeWhitespace(sel.Text())
		if text != "" {
			return text, nil
		}
	}

	return "", nil
}

// normalizeWhitespace collapses all whitespace runs to single spaces and
// trims the ends.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
