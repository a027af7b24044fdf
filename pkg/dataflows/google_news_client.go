package dataflows

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const googleNewsBaseURL = "https://news.google.com"

// RSS is the subset of an RSS 2.0 document read from the news feed.
type RSS struct {
	XMLName xml.Name `xml:"rss"`
	Channel Channel  `xml:"channel"`
}

type Channel struct {
	Title string `xml:"title"`
	Items []Item `xml:"item"`
}

type Item struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	Source      Source `xml:"source"`
}

type Source struct {
	URL  string `xml:"url,attr"`
	Text string `xml:",chardata"`
}

// GoogleNewsClient reads company headlines from the Google News RSS search
// feed. It needs no credentials and backs the news tool when Finnhub is not
// configured.
type GoogleNewsClient struct {
	client   *resty.Client
	language string
	country  string
}

// NewGoogleNewsClient creates a new Google News client. An empty baseURL
// selects the public endpoint.
func NewGoogleNewsClient(baseURL, language, country string) *GoogleNewsClient {
	if baseURL == "" {
		baseURL = googleNewsBaseURL
	}
	if language == "" {
		language = "en"
	}
	if country == "" {
		country = "US"
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0 (compatible; StockPilot/1.0)")

	return &GoogleNewsClient{
		client:   client,
		language: language,
		country:  country,
	}
}

func (gnc *GoogleNewsClient) CompanyNews(ctx context.Context, symbol string, limit int) ([]*NewsArticle, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}

	resp, err := gnc.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":    symbol + " stock",
			"hl":   gnc.language + "-" + gnc.country,
			"gl":   gnc.country,
			"ceid": gnc.country + ":" + gnc.language,
		}).
		Get("/rss/search")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Google News: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("HTTP error %d when fetching Google News", resp.StatusCode())
	}

	var feed RSS
	if err := xml.Unmarshal(resp.Body(), &feed); err != nil {
		return nil, fmt.Errorf("failed to parse RSS: %w", err)
	}

	articles := make([]*NewsArticle, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		source := strings.TrimSpace(item.Source.Text)
		if source == "" {
			source = "Google News"
		}
		articles = append(articles, &NewsArticle{
			Title:       title,
			Summary:     htmlToText(item.Description),
			URL:         strings.TrimSpace(item.Link),
			Source:      source,
			PublishedAt: parsePubDate(item.PubDate),
		})
		if limit > 0 && len(articles) == limit {
			break
		}
	}
	return articles, nil
}

// htmlToText flattens the HTML fragment carried in RSS descriptions.
func htmlToText(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return strings.TrimSpace(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func parsePubDate(value string) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.RFC1123, time.RFC1123Z, time.RFC822, time.RFC822Z} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
