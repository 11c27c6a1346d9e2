package domain

import "time"

// RelatedQueryRising is the only related-query kind collected.
const RelatedQueryRising = "rising"

// Keyword is a weighted term extracted from a run's content.
type Keyword struct {
	ID    uint    `gorm:"primaryKey;autoIncrement" json:"-"`
	RunID uint    `gorm:"not null;index:idx_keywords_run" json:"-"`
	Run   *Run    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Term  string  `gorm:"column:keyword;type:text;not null" json:"keyword"`
	Score float64 `gorm:"not null" json:"score"`
}

func (Keyword) TableName() string {
	return "page_keywords"
}

// InterestPoint is one sample of a term's search-interest time series (0-100).
type InterestPoint struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	RunID    uint      `gorm:"not null;index:idx_interest_run_date,priority:1" json:"-"`
	Run      *Run      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Term     string    `gorm:"column:keyword;type:text;not null" json:"keyword"`
	Date     time.Time `gorm:"not null;index:idx_interest_run_date,priority:2" json:"date"`
	Interest int       `gorm:"not null" json:"interest"`
}

func (InterestPoint) TableName() string {
	return "trends_interest"
}

// RelatedQuery is a query that searchers also ran for a base term.
type RelatedQuery struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	RunID    uint   `gorm:"not null;index:idx_related_run" json:"-"`
	Run      *Run   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	BaseTerm string `gorm:"column:base_keyword;type:text;not null" json:"base_keyword"`
	Query    string `gorm:"type:text;not null" json:"query"`
	Kind     string `gorm:"column:type;type:text;not null;default:rising" json:"type"`
	Value    int    `json:"value"`
}

func (RelatedQuery) TableName() string {
	return "trends_related_queries"
}

// VideoSignal is a video surfaced for a run. VideoID is the platform id and
// is unique per run.
type VideoSignal struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"-"`
	RunID        uint       `gorm:"not null;uniqueIndex:idx_videos_run_video,priority:1" json:"-"`
	Run          *Run       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	VideoID      string     `gorm:"type:text;not null;uniqueIndex:idx_videos_run_video,priority:2" json:"video_id"`
	Title        string     `gorm:"type:text" json:"title"`
	ChannelTitle string     `gorm:"type:text" json:"channel_title"`
	PublishedAt  *time.Time `gorm:"index:idx_videos_published_at" json:"published_at,omitempty"`
	ViewCount    int64      `json:"view_count"`
	LikeCount    int64      `json:"like_count"`
	CommentCount int64      `json:"comment_count"`
	CategoryID   string     `gorm:"type:text" json:"category_id"`
	CreatedAt    time.Time  `json:"-"`
}

func (VideoSignal) TableName() string {
	return "youtube_videos"
}

// NewsSignal is a news article surfaced for a run.
type NewsSignal struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"-"`
	RunID       uint       `gorm:"not null;index:idx_news_run" json:"-"`
	Run         *Run       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Title       string     `gorm:"type:text" json:"title"`
	Source      string     `gorm:"type:text" json:"source"`
	URL         string     `gorm:"type:text" json:"url"`
	PublishedAt *time.Time `gorm:"index:idx_news_published_at" json:"published_at,omitempty"`
	Snippet     string     `gorm:"type:text" json:"snippet"`
	CreatedAt   time.Time  `json:"-"`
}

func (NewsSignal) TableName() string {
	return "news_articles"
}

// Models lists every persisted type in dependency order.
func Models() []interface{} {
	return []interface{}{
		&Run{},
		&Keyword{},
		&InterestPoint{},
		&RelatedQuery{},
		&VideoSignal{},
		&NewsSignal{},
	}
}
