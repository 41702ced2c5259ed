// Package chart holds the album chart domain: the albums a user listened
// to, what was fetched for each of them, and the Last.fm-backed source.
package chart

// Album is one ranked entry of a weekly chart. Albums are identified by
// Name within a chart.
type Album struct {
	Artist    string
	Name      string
	PlayCount uint
	MBID      string
	URL       string
}

// Image is an artwork descriptor returned by an album lookup.
type Image struct {
	URL  string
	Size string
}

// AlbumInfo is the extended metadata of an album.
type AlbumInfo struct {
	TrackCount uint
	Images     []Image
}

// CoverURL returns the first artwork URL whose size label is empty, or ""
// when no such descriptor exists.
func (i *AlbumInfo) CoverURL() string {
	if i == nil {
		return ""
	}
	for _, img := range i.Images {
		if img.Size == "" && img.URL != "" {
			return img.URL
		}
	}
	return ""
}

// Result is what was fetched for one album. Image is empty when the album
// has no usable artwork.
type Result struct {
	TrackCount uint
	Image      []byte
}

// HasImage reports whether any artwork bytes were fetched.
func (r Result) HasImage() bool {
	return len(r.Image) > 0
}

// DuplicateNames returns album names that occur more than once, in order of
// their second occurrence. Results for such albums collide in a Store.
func DuplicateNames(albums []Album) []string {
	seen := make(map[string]int, len(albums))
	var dups []string
	for _, a := range albums {
		seen[a.Name]++
		if seen[a.Name] == 2 {
			dups = append(dups, a.Name)
		}
	}
	return dups
}
