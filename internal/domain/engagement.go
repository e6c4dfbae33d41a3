package domain

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

type EngagementType string

const (
	EngagementComment EngagementType = "comment"
	EngagementLike    EngagementType = "like"
)

// Person is one commenter or liker on a post.
type Person struct {
	Name           string         `json:"name"`
	Title          string         `json:"title"`
	ProfileURL     string         `json:"profileUrl"`
	Comment        string         `json:"comment,omitempty"`
	Timestamp      string         `json:"timestamp,omitempty"`
	EngagementType EngagementType `json:"engagementType"`
}

type EngagementStats struct {
	TotalComments   int `json:"totalComments"`
	TotalLikes      int `json:"totalLikes"`
	TotalEngagement int `json:"totalEngagement"`
}

// Engagement is the commenters and likers captured from one post.
// ProfileURL is unique within Commenters and within Likers.
type Engagement struct {
	PostID      string          `json:"postId"`
	PostURL     string          `json:"postUrl"`
	PostTitle   string          `json:"postTitle"`
	PostAuthor  string          `json:"postAuthor"`
	Commenters  []Person        `json:"commenters"`
	Likers      []Person        `json:"likers"`
	Stats       EngagementStats `json:"stats"`
	ExtractedAt int64           `json:"extractedAt"`
}

// ComputeStats recomputes Stats from the two lists.
func (e *Engagement) ComputeStats() {
	e.Stats = EngagementStats{
		TotalComments:   len(e.Commenters),
		TotalLikes:      len(e.Likers),
		TotalEngagement: len(e.Commenters) + len(e.Likers),
	}
}

// DedupPeople keeps the first person for each profile URL and drops entries
// without one.
func DedupPeople(in []Person) []Person {
	seen := make(map[string]bool, len(in))
	out := make([]Person, 0, len(in))
	for _, p := range in {
		if p.ProfileURL == "" || seen[p.ProfileURL] {
			continue
		}
		seen[p.ProfileURL] = true
		out = append(out, p)
	}
	return out
}

var activityURN = regexp.MustCompile(`urn:li:activity:(\d+)`)

// PostIDFromURL returns the activity id in the URL, or its last path
// segment.
func PostIDFromURL(raw string) string {
	if m := activityURN.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		trimmed := strings.TrimRight(u.Path, "/")
		if i := strings.LastIndex(trimmed, "/"); i >= 0 {
			return trimmed[i+1:]
		}
		return trimmed
	}
	i := strings.LastIndex(raw, "/")
	return raw[i+1:]
}

// Dashboard is the aggregate shown over all stored engagements.
type Dashboard struct {
	TotalPosts    int    `json:"totalPosts"`
	TotalProfiles int    `json:"totalProfiles"`
	AvgPerPost    string `json:"avgPerPost"`
}

func Summarize(list []Engagement) Dashboard {
	d := Dashboard{TotalPosts: len(list), AvgPerPost: "0"}
	for _, e := range list {
		d.TotalProfiles += len(e.Commenters) + len(e.Likers)
	}
	if d.TotalPosts > 0 {
		d.AvgPerPost = fmt.Sprintf("%.1f", float64(d.TotalProfiles)/float64(d.TotalPosts))
	}
	return d
}
