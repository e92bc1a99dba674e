package analyzer

import (
	"context"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/audioscribe/internal/common"
)

var (
	positiveWords = []string{
		"good", "great", "excellent", "happy", "improve", "improved", "improving", "progress",
		"well", "love", "like", "enjoy", "enjoys", "proud", "strong", "helpful", "thank",
		"thanks", "wonderful", "amazing", "best", "better", "success", "successful", "glad",
		"pleased", "positive", "confident", "excited", "nice",
	}
	negativeWords = []string{
		"bad", "poor", "worse", "worst", "sad", "angry", "upset", "problem", "problems",
		"issue", "issues", "fail", "failed", "failing", "struggle", "struggles", "struggling",
		"difficult", "hate", "worried", "concern", "concerned", "disappointed", "unhappy",
		"weak", "late", "missing", "never", "negative", "behind",
	}
)

// Lexicon scores text by counting positive and negative keywords.
type Lexicon struct {
	positive map[string]struct{}
	negative map[string]struct{}
}

func NewLexicon() *Lexicon {
	return &Lexicon{positive: toSet(positiveWords), negative: toSet(negativeWords)}
}

func (l *Lexicon) Categorize(_ context.Context, text string) (string, error) {
	score := 0
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	for _, w := range words {
		if _, ok := l.positive[w]; ok {
			score++
		}
		if _, ok := l.negative[w]; ok {
			score--
		}
	}

	switch {
	case score > 0:
		return common.CategoryPositive, nil
	case score < 0:
		return common.CategoryNegative, nil
	default:
		return common.CategoryNeutral, nil
	}
}

func toSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
