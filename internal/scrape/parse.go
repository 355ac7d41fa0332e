package scrape

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"drivebank/internal/config"
)

// questionLinkPattern extracts the question id from a /Post/<id>.htm href.
var questionLinkPattern = regexp.MustCompile(`/Post/([a-zA-Z0-9]+)\.htm`)

// optionPrefixPattern strips the leading choice marker ("A、", "B.", ...)
// from an option's text.
var optionPrefixPattern = regexp.MustCompile(`^([A-F])[、.．:：)]\s*`)

// extractQuestionIDs pulls question ids from a chapter index page, in page
// order, dropping duplicate links to the same question.
func extractQuestionIDs(body []byte, linkSelector string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	var ids []string
	seen := map[string]struct{}{}
	var badHref string
	doc.Find(linkSelector).EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		match := questionLinkPattern.FindStringSubmatch(href)
		if match == nil {
			badHref = href
			return false
		}
		id := match[1]
		if _, dup := seen[id]; dup {
			return true
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
		return true
	})
	if badHref != "" {
		return nil, fmt.Errorf("question link %q does not name a question id", badHref)
	}
	return ids, nil
}

// parsedQuestion carries the raw fields lifted from a question page before
// validation.
type parsedQuestion struct {
	text     string
	options  []string
	correct  []string
	imageURL string
}

// parseQuestionPage lifts the question fields out of a question page. The
// answer may be given as option letters ("A", "BC") or as the literal text
// of an option; statement questions carry no option list and keep the
// answer text verbatim.
func parseQuestionPage(body []byte, selectors config.Selectors, baseURL string) (parsedQuestion, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return parsedQuestion{}, fmt.Errorf("parse html: %w", err)
	}

	textNode := doc.Find(selectors.Text).First()
	if textNode.Length() == 0 {
		return parsedQuestion{}, fmt.Errorf("question text not found (selector %q)", selectors.Text)
	}
	text := strings.TrimSpace(textNode.Text())

	var options []string
	if selectors.Options != "" {
		doc.Find(selectors.Options).Each(func(_ int, option *goquery.Selection) {
			options = append(options, stripOptionPrefix(strings.TrimSpace(option.Text())))
		})
	}

	answerNode := doc.Find(selectors.Answer).First()
	if answerNode.Length() == 0 {
		return parsedQuestion{}, fmt.Errorf("answer not found (selector %q)", selectors.Answer)
	}
	answer := strings.TrimSpace(answerNode.Text())
	correct, err := resolveAnswer(answer, options)
	if err != nil {
		return parsedQuestion{}, err
	}

	imageURL := ""
	if selectors.Image != "" {
		if src, ok := doc.Find(selectors.Image).First().Attr("src"); ok {
			imageURL, err = resolveURL(baseURL, src)
			if err != nil {
				return parsedQuestion{}, err
			}
		}
	}

	return parsedQuestion{text: text, options: options, correct: correct, imageURL: imageURL}, nil
}

func stripOptionPrefix(option string) string {
	return optionPrefixPattern.ReplaceAllString(option, "")
}

// resolveAnswer maps the answer markup to concrete option texts.
func resolveAnswer(answer string, options []string) ([]string, error) {
	if answer == "" {
		return nil, fmt.Errorf("answer is empty")
	}
	if len(options) == 0 {
		return []string{answer}, nil
	}
	for _, option := range options {
		if answer == option {
			return []string{answer}, nil
		}
	}
	if !isLetterAnswer(answer) {
		return nil, fmt.Errorf("answer %q does not match any option", answer)
	}
	correct := make([]string, 0, len(answer))
	for _, letter := range answer {
		index := int(letter - 'A')
		if index < 0 || index >= len(options) {
			return nil, fmt.Errorf("answer letter %q has no matching option", string(letter))
		}
		correct = append(correct, options[index])
	}
	return correct, nil
}

func isLetterAnswer(answer string) bool {
	for _, r := range answer {
		if r < 'A' || r > 'F' {
			return false
		}
	}
	return true
}

func resolveURL(base, ref string) (string, error) {
	parsedBase, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	parsedRef, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse image url %q: %w", ref, err)
	}
	return parsedBase.ResolveReference(parsedRef).String(), nil
}
