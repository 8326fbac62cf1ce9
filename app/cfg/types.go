package cfg

type Cfg struct {
	// Storage configuration
	DBPath string

	// Application configuration
	SubredditsDir string
	Port          string
	APIAccessKey  string

	// Scraping configuration
	RequestTimeout    int
	RequestInterval   int
	SubredditDelay    int
	HotInterval       int
	TopInterval       int
	DefaultLimit      int
	TopLimit          int
	SnapshotUnchanged bool

	// Content extraction configuration
	ExtractContent  bool
	ExtractInterval int
	ExtractBatch    int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
