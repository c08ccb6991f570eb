package websearch

const (
	EngineNews = "ddg_news"
	EngineText = "ddg_text"
)

type Hit struct {
	Title   string
	Snippet string
	URL     string
	// YYYY-MM-DD, empty when the result carries no date
	Published string
	Engine    string
}
