package news

import (
	"strings"
	"time"
)

// reliableSources earn a score bonus; headlines from outlets not on this
// list still qualify but need stronger keyword hits.
var reliableSources = []string{
	"reuters",
	"bloomberg",
	"cnbc",
	"financial times",
	"economic times",
	"moneycontrol",
	"business standard",
}

var impactKeywords = []string{
	"earnings",
	"profit",
	"revenue",
	"guidance",
	"acquisition",
	"merger",
	"quarterly",
	"results",
}

var positiveWords = []string{
	"surge", "jump", "rise", "gain", "up", "high", "growth", "profit",
}

var negativeWords = []string{
	"fall", "drop", "decline", "down", "low", "loss", "crash", "risk",
}

// classify scores one article and converts it into an Item. Articles whose
// score lands below the medium-impact threshold are dropped.
func classify(article apiArticle, symbol string) (Item, bool) {
	title := strings.ToLower(article.Title)
	body := title + " " + strings.ToLower(article.Description)

	score := 0
	for _, src := range reliableSources {
		if strings.Contains(strings.ToLower(article.Source.Name), src) {
			score += 2
			break
		}
	}
	if strings.Contains(title, strings.ToLower(symbol)) {
		score += 3
	}
	for _, kw := range impactKeywords {
		if strings.Contains(body, kw) {
			score++
		}
	}

	impact := ""
	switch {
	case score >= 4:
		impact = "high"
	case score >= 2:
		impact = "medium"
	default:
		return Item{}, false
	}

	return Item{
		Date:      formatDate(article.PublishedAt),
		Headline:  article.Title,
		Summary:   article.Description,
		Sentiment: sentiment(body),
		Impact:    impact,
		URL:       article.URL,
		Source:    article.Source.Name,
		ImageURL:  article.URLToImage,
		score:     score,
	}, true
}

// sentiment counts positive and negative market words in the text.
func sentiment(text string) string {
	pos, neg := 0, 0
	for _, w := range positiveWords {
		if strings.Contains(text, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(text, w) {
			neg++
		}
	}
	switch {
	case pos > neg:
		return "positive"
	case neg > pos:
		return "negative"
	default:
		return "neutral"
	}
}

func formatDate(published string) string {
	t, err := time.Parse(time.RFC3339, published)
	if err != nil {
		return published
	}
	return t.Format("2006-01-02")
}
