package models

import (
	"fmt"
	"strings"
	"time"
)

// Problem is a catalog entry synced from the judge (Codeforces problemset).
// Name and tags carry a FULLTEXT index backing the rich search path.
type Problem struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Platform     string    `gorm:"type:varchar(32);not null;default:'codeforces';uniqueIndex:ux_problems_platform_ref,priority:1" json:"platform"`
	ContestID    int       `gorm:"not null;uniqueIndex:ux_problems_platform_ref,priority:2" json:"contest_id"`
	ProblemIndex string    `gorm:"type:varchar(8);not null;uniqueIndex:ux_problems_platform_ref,priority:3" json:"problem_index"`
	Name         string    `gorm:"type:varchar(255);not null;index:ftx_problems_name_tags,class:FULLTEXT,priority:1" json:"name"`
	Tags         string    `gorm:"type:varchar(500);default:'';index:ftx_problems_name_tags,class:FULLTEXT,priority:2" json:"tags"`
	Rating       int       `gorm:"default:0;index" json:"rating"`
	SolvedCount  int       `gorm:"default:0" json:"solved_count"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TagList splits the stored comma-separated tags.
func (p *Problem) TagList() []string {
	if strings.TrimSpace(p.Tags) == "" {
		return nil
	}
	parts := strings.Split(p.Tags, ",")
	out := make([]string, 0, len(parts))
	for _, t := range parts {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// URL returns the canonical judge URL for the problem.
func (p *Problem) URL() string {
	return fmt.Sprintf("https://codeforces.com/problemset/problem/%d/%s", p.ContestID, p.ProblemIndex)
}
