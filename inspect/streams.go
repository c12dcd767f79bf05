package inspect

import (
	"sort"

	"github.com/wudi/pdfview/token"
)

// DuplicateGroup lists streams whose payloads are byte-identical.
type DuplicateGroup struct {
	Digest  [32]byte
	Streams []StreamInfo
}

// Duplicates groups the streams that share a payload digest. Groups are
// ordered by the offset of their first stream; empty payloads are ignored.
func (s *Session) Duplicates() []DuplicateGroup {
	byDigest := make(map[[32]byte][]StreamInfo)
	for _, info := range s.streams {
		if info.Length == 0 {
			continue
		}
		byDigest[info.Digest] = append(byDigest[info.Digest], info)
	}
	var groups []DuplicateGroup
	for digest, infos := range byDigest {
		if len(infos) < 2 {
			continue
		}
		groups = append(groups, DuplicateGroup{Digest: digest, Streams: infos})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Streams[0].Offset < groups[j].Streams[0].Offset
	})
	return groups
}

// StreamsOf returns the streams owned by object id.
func (s *Session) StreamsOf(id token.ObjectID) []StreamInfo {
	var out []StreamInfo
	for _, info := range s.streams {
		if info.ID == id {
			out = append(out, info)
		}
	}
	return out
}
