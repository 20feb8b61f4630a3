// Package metainfo extracts episode, resource and quality tokens from
// torrent titles. It covers the naming conventions that matter for
// rendering selection lists; it is not a full release-name parser.
package metainfo

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MetaInfo holds the tokens recognized in a torrent title/description.
type MetaInfo struct {
	SeasonEpisode string
	ResourceTerm  string
	VideoTerm     string
	ReleaseGroup  string
}

var (
	seasonEpisodeRe = regexp.MustCompile(`(?i)\bS(\d{1,2})\s*E(\d{1,4})\b`)
	seasonRe        = regexp.MustCompile(`(?i)\bS(\d{1,2})\b`)
	episodeRe       = regexp.MustCompile(`(?i)\bE(?:P)?(\d{1,4})\b`)
	resourceRe      = regexp.MustCompile(`(?i)\b(UHD[ .]?BluRay|BluRay|Blu-Ray|WEB-?DL|WEB-?Rip|HDTV|BDRip|DVDRip|Remux|HR-HDTV)\b`)
	videoRe         = regexp.MustCompile(`(?i)\b(2160p|1080p|1080i|720p|4K|x264|x265|H\.?264|H\.?265|HEVC|AVC|10bit)\b`)
	releaseGroupRe  = regexp.MustCompile(`[-@]([A-Za-z0-9@]+)$`)
)

// Parse tokenizes a torrent title, falling back to the description for
// fields the title does not carry.
func Parse(title, description string) MetaInfo {
	meta := parseOne(title)
	if description != "" {
		fallback := parseOne(description)
		if meta.SeasonEpisode == "" {
			meta.SeasonEpisode = fallback.SeasonEpisode
		}
		if meta.ResourceTerm == "" {
			meta.ResourceTerm = fallback.ResourceTerm
		}
		if meta.VideoTerm == "" {
			meta.VideoTerm = fallback.VideoTerm
		}
	}
	return meta
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func parseOne(text string) MetaInfo {
	var meta MetaInfo
	if text == "" {
		return meta
	}

	if m := seasonEpisodeRe.FindStringSubmatch(text); m != nil {
		meta.SeasonEpisode = fmt.Sprintf("S%02d E%02d", atoi(m[1]), atoi(m[2]))
	} else if m := seasonRe.FindStringSubmatch(text); m != nil {
		meta.SeasonEpisode = fmt.Sprintf("S%02d", atoi(m[1]))
	} else if m := episodeRe.FindStringSubmatch(text); m != nil {
		meta.SeasonEpisode = fmt.Sprintf("E%02d", atoi(m[1]))
	}

	if m := resourceRe.FindString(text); m != "" {
		meta.ResourceTerm = m
	}

	// Collect distinct quality tokens in order of appearance.
	var videos []string
	seen := map[string]bool{}
	for _, m := range videoRe.FindAllString(text, -1) {
		key := strings.ToLower(m)
		if !seen[key] {
			seen[key] = true
			videos = append(videos, m)
		}
	}
	meta.VideoTerm = strings.Join(videos, " ")

	base := strings.TrimSuffix(text, ".torrent")
	if m := releaseGroupRe.FindStringSubmatch(strings.TrimSpace(base)); m != nil {
		meta.ReleaseGroup = m[1]
	}

	return meta
}
