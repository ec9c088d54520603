package report

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	log "github.com/sirupsen/logrus"
)

const defaultHeadlineLen = 100

var (
	tokenizerOnce sync.Once
	tokenizer     *sentences.DefaultSentenceTokenizer
)

func sentenceTokenizer() *sentences.DefaultSentenceTokenizer {
	tokenizerOnce.Do(func() {
		t, err := english.NewSentenceTokenizer(nil)
		if err != nil {
			log.Warnf("Failed to create sentence tokenizer, headlines fall back to the first line: %v", err)
			return
		}
		tokenizer = t
	})
	return tokenizer
}

// Headline returns the first sentence of text with whitespace collapsed,
// cut to at most maxLen runes.
func Headline(text string, maxLen int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	first := text
	if t := sentenceTokenizer(); t != nil {
		for _, s := range t.Tokenize(text) {
			if strings.TrimSpace(s.Text) != "" {
				first = s.Text
				break
			}
		}
	} else if i := strings.IndexByte(text, '\n'); i > 0 {
		first = text[:i]
	}

	first = strings.Join(strings.Fields(first), " ")
	if maxLen > 3 && utf8.RuneCountInString(first) > maxLen {
		runes := []rune(first)
		first = string(runes[:maxLen-3]) + "..."
	}
	return first
}
