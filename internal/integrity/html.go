package integrity

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/net/html"
)

// voidElements never take an end tag.
var voidElements = map[string]struct{}{
	"area": {}, "base": {}, "br": {}, "col": {}, "embed": {}, "hr": {},
	"img": {}, "input": {}, "link": {}, "meta": {}, "param": {},
	"source": {}, "track": {}, "wbr": {},
}

// optionalEndTags may omit their end tag, so the audit never demands their
// closure and tolerates closers for them appearing without an opener.
var optionalEndTags = map[string]struct{}{
	"html": {}, "head": {}, "body": {}, "p": {}, "li": {}, "dt": {}, "dd": {},
	"option": {}, "optgroup": {}, "thead": {}, "tbody": {}, "tfoot": {},
	"tr": {}, "td": {}, "th": {}, "colgroup": {}, "caption": {},
}

// auditDocument tokenizes one rendered document and reports structural
// problems: tokenizer failures, unclosed elements, and stray end tags.
func auditDocument(name string, content []byte) []Issue {
	var issues []Issue
	var stack []string

	tokenizer := html.NewTokenizer(bytes.NewReader(content))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			err := tokenizer.Err()
			if err != io.EOF {
				issues = append(issues, Issue{
					Check:    CheckHTML,
					Severity: SeverityError,
					Path:     name,
					Message:  fmt.Sprintf("tokenizer error: %v", err),
				})
				return issues
			}
			for i := len(stack) - 1; i >= 0; i-- {
				if _, ok := optionalEndTags[stack[i]]; ok {
					continue
				}
				issues = append(issues, Issue{
					Check:    CheckHTML,
					Severity: SeverityError,
					Path:     name,
					Ref:      stack[i],
					Message:  fmt.Sprintf("unclosed <%s> element", stack[i]),
				})
			}
			return issues
		case html.StartTagToken:
			tag, _ := tokenizer.TagName()
			element := string(tag)
			if _, ok := voidElements[element]; !ok {
				stack = append(stack, element)
			}
		case html.EndTagToken:
			tag, _ := tokenizer.TagName()
			element := string(tag)
			match := -1
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i] == element {
					match = i
					break
				}
			}
			if match == -1 {
				if _, ok := optionalEndTags[element]; !ok {
					issues = append(issues, Issue{
						Check:    CheckHTML,
						Severity: SeverityError,
						Path:     name,
						Ref:      element,
						Message:  fmt.Sprintf("closing </%s> without a matching start tag", element),
					})
				}
				continue
			}
			for i := len(stack) - 1; i > match; i-- {
				if _, ok := optionalEndTags[stack[i]]; ok {
					continue
				}
				issues = append(issues, Issue{
					Check:    CheckHTML,
					Severity: SeverityError,
					Path:     name,
					Ref:      stack[i],
					Message:  fmt.Sprintf("unclosed <%s> element inside <%s>", stack[i], element),
				})
			}
			stack = stack[:match]
		}
	}
}
