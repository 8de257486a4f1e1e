package submission

import (
	"strings"

	"github.com/console-conteudo/backend/internal/document"
)

// Form is one of the console's input forms. Implementations must be
// comparable pointers since the controller keys its in-flight guard on them.
type Form interface {
	Collection() string
	Values() map[string]interface{}
	Reset()
}

// SplitKeywords turns comma separated input into trimmed, non-empty keywords.
func SplitKeywords(s string) []string {
	out := []string{}
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

type ArticleForm struct {
	Title      string
	Content    string
	Category   string
	CategoryID string
	Keywords   string
}

func (f *ArticleForm) Collection() string { return document.CollectionArticles }

func (f *ArticleForm) Values() map[string]interface{} {
	return map[string]interface{}{
		"title":       f.Title,
		"content":     f.Content,
		"category":    f.Category,
		"category_id": f.CategoryID,
		"keywords":    SplitKeywords(f.Keywords),
	}
}

func (f *ArticleForm) Reset() { *f = ArticleForm{} }

type NewsForm struct {
	Title    string
	Content  string
	Critical bool
}

func (f *NewsForm) Collection() string { return document.CollectionNews }

func (f *NewsForm) Values() map[string]interface{} {
	flag := "N"
	if f.Critical {
		flag = "Y"
	}
	return map[string]interface{}{
		"title":       f.Title,
		"content":     f.Content,
		"is_critical": flag,
	}
}

func (f *NewsForm) Reset() { *f = NewsForm{} }

type BotQuestionForm struct {
	Topic     string
	Context   string
	Keywords  string
	Question  string
	ImageURLs string
}

func (f *BotQuestionForm) Collection() string { return document.CollectionBotQuestions }

func (f *BotQuestionForm) Values() map[string]interface{} {
	return map[string]interface{}{
		"topic":     f.Topic,
		"context":   f.Context,
		"keywords":  f.Keywords,
		"question":  f.Question,
		"imageUrls": f.ImageURLs,
	}
}

func (f *BotQuestionForm) Reset() { *f = BotQuestionForm{} }
