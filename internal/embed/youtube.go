// Package embed turns YouTube references in authored rich-text HTML into
// responsive inline players.
package embed

import (
	"fmt"
	"regexp"
	"strings"
)

const embedBase = "https://www.youtube.com/embed/"

// videoID mirrors the permissive pattern the editor has always accepted:
// watch?v=, &v=, youtu.be/, embed/, v/ and u/<x>/ forms. The greedy prefix
// makes the last marker in the URL win.
var videoID = regexp.MustCompile(`^.*(youtu.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// youtubeURL is the attribute value shape all three passes look for.
const youtubeURL = `([^"']*(?:youtube\.com/|youtu\.be/)[^"']*)`

var (
	oembedTag = regexp.MustCompile(
		`(?i)<oembed[^>]*url=["']` + youtubeURL + `["'][^>]*?(?:/>|>.*?</oembed>)`)
	mediaFigure = regexp.MustCompile(
		`(?i)<figure[^>]*class=["'][^"']*media[^"']*["'][^>]*>.*?<oembed[^>]*url=["']` + youtubeURL +
			`["'][^>]*?(?:/>|>.*?</oembed>).*?</figure>`)
	anchorTag = regexp.MustCompile(
		`(?i)<a[^>]*href=["']` + youtubeURL + `["'][^>]*>.*?</a>`)
)

const wrapperHTML = `<div class="youtube-embed-wrapper" style="position: relative; padding-bottom: 56.25%%; height: 0; overflow: hidden; margin: 1.5rem 0; border-radius: 8px;">
        <iframe
          src="%s"
          style="position: absolute; top: 0; left: 0; width: 100%%; height: 100%%; border-radius: 8px;"
          frameborder="0"
          allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture; web-share"
          allowfullscreen
        ></iframe>
      </div>`

// ExtractVideoID returns the 11 character video id carried by rawURL.
func ExtractVideoID(rawURL string) (string, bool) {
	if rawURL == "" {
		return "", false
	}
	m := videoID.FindStringSubmatch(rawURL)
	if m == nil || !validID.MatchString(m[2]) {
		return "", false
	}
	return m[2], true
}

// EmbedURLForWatchLink maps a watch/share link to its canonical embed URL.
func EmbedURLForWatchLink(rawURL string) (string, bool) {
	id, ok := ExtractVideoID(rawURL)
	if !ok {
		return "", false
	}
	return embedBase + id, true
}

// Rewrite replaces editor oembed tags, media figures and plain links that
// point at a YouTube video with a 16:9 iframe wrapper. The passes run in a
// fixed order, each over the output of the previous one. Matches without a
// usable video id are left as they were.
func Rewrite(html string) string {
	if html == "" {
		return html
	}
	out := html
	for _, re := range []*regexp.Regexp{oembedTag, mediaFigure, anchorTag} {
		out = replacePass(re, out)
	}
	return out
}

// replacePass rewrites every match of re whose URL carries a valid id. A
// candidate with a bad id is not a match: scanning resumes one byte after
// its start, so a valid construct inside or after it is still found.
func replacePass(re *regexp.Regexp, s string) string {
	var b strings.Builder
	pos := 0
	for pos < len(s) {
		loc := re.FindStringSubmatchIndex(s[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		src, ok := EmbedURLForWatchLink(s[pos+loc[2] : pos+loc[3]])
		if !ok {
			b.WriteString(s[pos : start+1])
			pos = start + 1
			continue
		}
		b.WriteString(s[pos:start])
		fmt.Fprintf(&b, wrapperHTML, src)
		pos = end
	}
	b.WriteString(s[pos:])
	return b.String()
}
