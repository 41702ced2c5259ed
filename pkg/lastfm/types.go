package lastfm

import (
	"time"
)

// ChartAlbum is one entry of a user's weekly album chart.
type ChartAlbum struct {
	Rank       int    // 1-based chart position
	Artist     string // Artist name
	ArtistMBID string // MusicBrainz artist ID, may be empty
	Name       string // Album name
	MBID       string // MusicBrainz album ID, may be empty
	PlayCount  uint   // Plays during the chart period
	URL        string // Last.fm album page
}

// WeeklyAlbumChart is the response of user.getWeeklyAlbumChart.
type WeeklyAlbumChart struct {
	User   string
	From   time.Time
	To     time.Time
	Albums []ChartAlbum
}

// ChartRange selects a chart period. The zero value requests the most
// recent week.
type ChartRange struct {
	From time.Time
	To   time.Time
}

// Image is an artwork descriptor. Size is one of "small", "medium",
// "large", "extralarge", "mega" or empty.
type Image struct {
	URL  string
	Size string
}

// AlbumInfo is the response of album.getInfo.
type AlbumInfo struct {
	Name       string
	Artist     string
	MBID       string
	URL        string
	Listeners  uint
	PlayCount  uint
	Images     []Image
	TrackCount int
}
