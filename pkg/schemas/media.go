package schemas

import "fmt"

// MediaInfo describes one recognized movie or TV show offered to the user
// in a selection list.
type MediaInfo struct {
	Title       string  `json:"title"`
	Year        string  `json:"year,omitempty"`
	Type        string  `json:"type"`
	VoteAverage float64 `json:"vote_average,omitempty"`
	PosterPath  string  `json:"poster_path,omitempty"`
}

// TitleYear renders the display name, e.g. "沙丘 (2024)".
func (m *MediaInfo) TitleYear() string {
	if m.Year == "" {
		return m.Title
	}
	return fmt.Sprintf("%s (%s)", m.Title, m.Year)
}

// MessageImage returns the image URL to attach to list messages.
func (m *MediaInfo) MessageImage() string {
	return m.PosterPath
}

// TorrentInfo describes one torrent search result.
type TorrentInfo struct {
	SiteName     string `json:"site_name"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	PageURL      string `json:"page_url"`
	Size         int64  `json:"size"`
	Seeders      int    `json:"seeders"`
	VolumeFactor string `json:"volume_factor,omitempty"`
}

// Context pairs a torrent with the media it was matched to.
type Context struct {
	MediaInfo   MediaInfo   `json:"media_info"`
	TorrentInfo TorrentInfo `json:"torrent_info"`
}
