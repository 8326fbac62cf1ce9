package config

// Config is one tracked-subreddit definition, loaded from <name>.yml in the
// subreddits directory. The subreddit name comes from the filename.
type Config struct {
	Name     string   `yaml:"-"`
	Settings Settings `yaml:"settings"`
}

type Settings struct {
	Enabled     bool   `yaml:"enabled"`
	Limit       int    `yaml:"limit"`
	SearchQuery string `yaml:"search_query"`
}
