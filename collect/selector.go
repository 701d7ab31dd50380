// Package collect drives the collection pipeline: it selects transcripts,
// assembles video records and orchestrates collaborator calls across a
// resolved video sequence.
package collect

import (
	"strings"

	"github.com/harmonic-insight/youtube-collector/model"
)

// Language priority for transcript selection. Manual tracks outrank
// auto-generated ones within a language.
const (
	languageJapanese = "ja"
	languageEnglish  = "en"
)

// trackPredicate decides whether a track satisfies one priority tier.
type trackPredicate func(model.TranscriptTrack) bool

// Ordered priority tiers; the first tier with a matching track wins, and
// within a tier the first track in collaborator-reported order is taken.
var selectionPriority = []trackPredicate{
	func(t model.TranscriptTrack) bool { return hasLanguage(t, languageJapanese) && !t.IsGenerated },
	func(t model.TranscriptTrack) bool { return hasLanguage(t, languageJapanese) && t.IsGenerated },
	func(t model.TranscriptTrack) bool { return hasLanguage(t, languageEnglish) && !t.IsGenerated },
	func(t model.TranscriptTrack) bool { return hasLanguage(t, languageEnglish) && t.IsGenerated },
	func(t model.TranscriptTrack) bool { return true },
}

// SelectTranscript picks exactly one track from the set a collaborator
// reported, or reports that none is available. It is a pure function of its
// input: no I/O, no hidden state.
func SelectTranscript(tracks []model.TranscriptTrack) (model.TranscriptTrack, bool) {
	for _, matches := range selectionPriority {
		for _, track := range tracks {
			if matches(track) {
				return track, true
			}
		}
	}
	return model.TranscriptTrack{}, false
}

// hasLanguage matches on the primary language subtag, so "ja-JP" counts as
// Japanese.
func hasLanguage(track model.TranscriptTrack, lang string) bool {
	code := strings.ToLower(track.Language)
	if i := strings.IndexByte(code, '-'); i >= 0 {
		code = code[:i]
	}
	return code == lang
}
