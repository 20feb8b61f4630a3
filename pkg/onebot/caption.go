package onebot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zifox666/MoviePilot/pkg/metainfo"
	"github.com/zifox666/MoviePilot/pkg/schemas"
	"github.com/zifox666/MoviePilot/pkg/utils"
)

// ErrNoTorrents is returned when a torrent list message is requested with
// an empty list. That is a caller bug, not a transient condition.
var ErrNoTorrents = errors.New("onebot: empty torrent list")

// captionBuilder assembles a caption as an ordered list of lines. Lines
// are joined with "\n"; an unconditionally added empty line still
// contributes its separator, which the wire format relies on.
type captionBuilder struct {
	lines []string
}

func (b *captionBuilder) line(s string) {
	b.lines = append(b.lines, s)
}

func (b *captionBuilder) lineIf(s string) {
	if s != "" {
		b.lines = append(b.lines, s)
	}
}

func (b *captionBuilder) String() string {
	return strings.Join(b.lines, "\n")
}

// imageMarker renders the CQ image attachment code, or "" without a URL.
func imageMarker(url string) string {
	if url == "" {
		return ""
	}
	return fmt.Sprintf("[CQ:image,url=%s]", url)
}

// EncodePlain renders a plain notification caption: image marker line,
// title, optional body text, optional link. The first line is always
// present even when empty, so a bare title encodes as "\n<title>".
func EncodePlain(n *schemas.Notification) string {
	var b captionBuilder
	b.line(imageMarker(n.Image))
	b.line(n.Title)
	b.lineIf(n.Text)
	b.lineIf(n.Link)
	return b.String()
}

// EncodeMedias renders a media selection list. The caption opens with the
// emphasized title; each entry contributes its enumerated display name, a
// category line and, when rated, a single rating line. The first entry's
// poster is returned as the representative image. A trailing link is
// appended without a separating newline.
func EncodeMedias(n *schemas.Notification, medias []schemas.MediaInfo) (caption, image string) {
	var b captionBuilder
	b.line(fmt.Sprintf("*%s*", n.Title))

	for i := range medias {
		media := &medias[i]
		if image == "" {
			image = media.MessageImage()
		}
		b.line(fmt.Sprintf("%d.%s", i+1, media.TitleYear()))
		b.line(fmt.Sprintf("类型：%s", media.Type))
		if media.VoteAverage > 0 {
			b.line(fmt.Sprintf("评分：%v", media.VoteAverage))
		}
	}

	return b.String() + n.Link, image
}

// EncodeTorrents renders a torrent selection list: one enumerated line per
// torrent, built from the site name, the metadata tokens parsed out of the
// torrent title, the page link, a human-readable size, the free-traffic
// factor and the seeder count. An empty list fails.
func EncodeTorrents(n *schemas.Notification, torrents []schemas.Context) (string, error) {
	if len(torrents) == 0 {
		return "", ErrNoTorrents
	}

	var b captionBuilder
	b.line(fmt.Sprintf("*%s*", n.Title))

	for i := range torrents {
		torrent := &torrents[i].TorrentInfo
		meta := metainfo.Parse(torrent.Title, torrent.Description)
		descriptor := utils.CollapseSpaces(strings.Join([]string{
			meta.SeasonEpisode,
			meta.ResourceTerm,
			meta.VideoTerm,
			meta.ReleaseGroup,
		}, " "))
		b.line(fmt.Sprintf("%d.【%s】[%s](%s) %s %s %d↑",
			i+1,
			torrent.SiteName,
			descriptor,
			torrent.PageURL,
			utils.StrFileSize(torrent.Size),
			torrent.VolumeFactor,
			torrent.Seeders,
		))
	}

	return b.String() + n.Link, nil
}
