package indieauth

import (
	"strings"

	"golang.org/x/net/html"
)

func searchAll(node *html.Node, pred func(*html.Node) bool) (results []*html.Node) {
	if pred(node) {
		results = append(results, node)
		return
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		result := searchAll(child, pred)
		if len(result) > 0 {
			results = append(results, result...)
		}
	}

	return
}

func isLink(node *html.Node) bool {
	return node.Type == html.ElementNode && node.Data == "link"
}

func isBase(node *html.Node) bool {
	return node.Type == html.ElementNode && node.Data == "base" && hasAttr(node, "href")
}

func hasAttr(node *html.Node, attrName string) bool {
	for _, attr := range node.Attr {
		if attr.Key == attrName {
			return true
		}
	}

	return false
}

func getAttr(node *html.Node, attrName string) string {
	for _, attr := range node.Attr {
		if attr.Key == attrName {
			return attr.Val
		}
	}

	return ""
}

// firstRels returns the href of the first link for each of the wanted rels.
// Rels that do not appear are missing from the result.
func firstRels(root *html.Node, wanted ...string) map[string]string {
	found := map[string]string{}

	for _, link := range searchAll(root, isLink) {
		for _, rel := range strings.Fields(getAttr(link, "rel")) {
			if _, ok := found[rel]; ok {
				continue
			}

			for _, w := range wanted {
				if rel == w {
					found[rel] = getAttr(link, "href")
				}
			}
		}

		if len(found) == len(wanted) {
			break
		}
	}

	return found
}
