// Package export writes stored leads and engagements as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"linkedva-engine/internal/domain"
)

var (
	LeadHeader = []string{
		"Name", "Role", "Company", "Location", "Industry",
		"LinkedIn URL", "Education", "Skills", "About Summary",
		"Email", "Phone", "Source URL", "Date",
	}
	EngagementHeader = []string{
		"Post URL", "Post Title", "Post Author", "Engagement Type",
		"Name", "Title", "Profile URL", "Comment", "Date Extracted",
	}
	SingleEngagementHeader = []string{
		"Engagement Type", "Name", "Title", "Profile URL", "Comment",
	}
)

// ISOMillis formats a millisecond epoch as an RFC 3339 UTC timestamp with
// milliseconds.
func ISOMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z")
}

func LeadsFilename(now time.Time) string {
	return fmt.Sprintf("leads_%d.csv", now.UnixMilli())
}

func EngagementsFilename(now time.Time) string {
	return fmt.Sprintf("post_engagements_%d.csv", now.UnixMilli())
}

func EngagementFilename(postID string, now time.Time) string {
	return fmt.Sprintf("engagement_%s_%d.csv", postID, now.UnixMilli())
}

func writeAll(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// Leads writes one row per lead.
func Leads(w io.Writer, leads []domain.Lead) error {
	rows := make([][]string, 0, len(leads))
	for _, l := range leads {
		rows = append(rows, []string{
			l.Name,
			l.Role,
			l.Company,
			l.Location,
			l.Industry,
			l.LinkedInURL,
			l.Education,
			strings.Join(l.Skills, "; "),
			l.AboutSummary,
			l.Email,
			l.Phone,
			l.URL,
			ISOMillis(l.Timestamp),
		})
	}
	return writeAll(w, LeadHeader, rows)
}

// Engagements writes every commenter and then every liker of each post.
// It returns the number of profile rows.
func Engagements(w io.Writer, list []domain.Engagement) (int, error) {
	var rows [][]string
	for _, e := range list {
		at := ISOMillis(e.ExtractedAt)
		for _, c := range e.Commenters {
			rows = append(rows, []string{e.PostURL, e.PostTitle, e.PostAuthor, "Comment", c.Name, c.Title, c.ProfileURL, c.Comment, at})
		}
		for _, l := range e.Likers {
			rows = append(rows, []string{e.PostURL, e.PostTitle, e.PostAuthor, "Like", l.Name, l.Title, l.ProfileURL, "", at})
		}
	}
	return len(rows), writeAll(w, EngagementHeader, rows)
}

// Engagement writes the profiles of a single post.
func Engagement(w io.Writer, e domain.Engagement) (int, error) {
	rows := make([][]string, 0, len(e.Commenters)+len(e.Likers))
	for _, c := range e.Commenters {
		rows = append(rows, []string{"Comment", c.Name, c.Title, c.ProfileURL, c.Comment})
	}
	for _, l := range e.Likers {
		rows = append(rows, []string{"Like", l.Name, l.Title, l.ProfileURL, ""})
	}
	return len(rows), writeAll(w, SingleEngagementHeader, rows)
}

// ToFile creates dir/name and hands it to write.
func ToFile(dir, name string, write func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := write(f); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}
