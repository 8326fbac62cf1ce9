package reddit

// Mode selects the listing strategy for a subreddit.
type Mode string

const (
	ModeHot    Mode = "hot"
	ModeNew    Mode = "new"
	ModeTop    Mode = "top"
	ModeSearch Mode = "search"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeHot, ModeNew, ModeTop, ModeSearch:
		return true
	}
	return false
}

// Timeframe narrows top and search listings to a time window.
type Timeframe string

const (
	TimeframeHour  Timeframe = "hour"
	TimeframeDay   Timeframe = "day"
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
	TimeframeYear  Timeframe = "year"
	TimeframeAll   Timeframe = "all"
)

func (t Timeframe) Valid() bool {
	switch t {
	case TimeframeHour, TimeframeDay, TimeframeWeek, TimeframeMonth, TimeframeYear, TimeframeAll:
		return true
	}
	return false
}

// FetchOptions parameterizes one listing request.
type FetchOptions struct {
	Limit     int
	Timeframe Timeframe // top and search only
	Query     string    // search only
}

// RawPost is the upstream shape of one listing entry. The schema is strict on
// purpose: upstream drift should fail at this boundary, not inside ingestion.
type RawPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	Score       int     `json:"score"`
	URL         string  `json:"url"`
	CreatedUTC  float64 `json:"created_utc"`
	NumComments int     `json:"num_comments"`
	Selftext    string  `json:"selftext"`
	Permalink   string  `json:"permalink"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	Thumbnail   string  `json:"thumbnail"`
	IsVideo     bool    `json:"is_video"`
	Domain      string  `json:"domain"`
	FlairText   string  `json:"link_flair_text"`
}

type listingEnvelope struct {
	Kind string `json:"kind"`
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Kind string  `json:"kind"`
			Data RawPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}
