// Package content builds the outward-facing ticket and chat payloads. The
// builders are pure: trusted event fields plus optional enrichment in,
// opaque content blobs out.
package content

// Structured ticket descriptions use the Atlassian Document Format, built as
// plain maps so the dispatch core never depends on a ticketing SDK.

func textNode(text string) map[string]any {
	return map[string]any{"type": "text", "text": text}
}

func boldText(text string) map[string]any {
	return map[string]any{
		"type":  "text",
		"text":  text,
		"marks": []map[string]any{{"type": "strong"}},
	}
}

func linkNode(text, href string) map[string]any {
	return map[string]any{
		"type": "text",
		"text": text,
		"marks": []map[string]any{
			{"type": "link", "attrs": map[string]any{"href": href}},
		},
	}
}

func paragraph(inline ...map[string]any) map[string]any {
	return map[string]any{"type": "paragraph", "content": inline}
}

func heading(text string, level int) map[string]any {
	return map[string]any{
		"type":    "heading",
		"attrs":   map[string]any{"level": level},
		"content": []map[string]any{textNode(text)},
	}
}

func bulletList(items ...string) map[string]any {
	listItems := make([]map[string]any, 0, len(items))
	for _, item := range items {
		listItems = append(listItems, map[string]any{
			"type":    "listItem",
			"content": []map[string]any{paragraph(textNode(item))},
		})
	}
	return map[string]any{"type": "bulletList", "content": listItems}
}

func document(nodes ...map[string]any) map[string]any {
	return map[string]any{"version": 1, "type": "doc", "content": nodes}
}
