package search

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/Hackeries/AlgoRise-sub002/app/models"
)

const (
	// MinQueryLength is the shortest query worth running.
	MinQueryLength = 2
	// MaxQueryLength caps the query before it hits the database.
	MaxQueryLength = 100

	DefaultLimit = 20
	MaxLimit     = 50
)

const (
	CategoryProblems = "problems"
	CategoryUsers    = "users"
)

// Options tunes one search request. Zero-value Categories means all.
type Options struct {
	Categories   []string
	Limit        int
	WithMetadata bool
}

// ParseCategories splits a comma-separated category list, keeping only known
// category names. An empty or all-unknown list selects every category.
func ParseCategories(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case CategoryProblems:
			out = append(out, CategoryProblems)
		case CategoryUsers:
			out = append(out, CategoryUsers)
		}
	}
	return out
}

// UserHit is a user row in the search results.
type UserHit struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	CFHandle string `json:"cf_handle,omitempty"`
	CFRating int    `json:"cf_rating,omitempty"`
}

// Metadata carries per-request counts and timing, returned on demand.
type Metadata struct {
	TotalHits int    `json:"total_hits"`
	Duration  string `json:"duration"`
}

// Results groups the categorized hits for one query. Degraded is set when
// the relevance-ranked problem search was unavailable and the LIKE fallback
// served the problem hits instead.
type Results struct {
	Query    string           `json:"query"`
	Problems []models.Problem `json:"problems"`
	Users    []UserHit        `json:"users"`
	Degraded bool             `json:"degraded,omitempty"`
	Meta     *Metadata        `json:"meta,omitempty"`
}

// Service runs categorized search over the problem catalog and users.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Search returns categorized hits for a free-text query. Problems are
// ranked by MySQL FULLTEXT relevance; when that query fails (index not yet
// built, unsupported engine) it degrades to LIKE matching rather than
// returning an error.
func (s *Service) Search(ctx context.Context, query string, opts Options) (*Results, error) {
	start := time.Now()

	normalized, ok := NormalizeQuery(query)
	if !ok {
		return &Results{Query: query, Problems: []models.Problem{}, Users: []UserHit{}}, nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	results := &Results{Query: normalized, Problems: []models.Problem{}, Users: []UserHit{}}

	if categorySelected(opts.Categories, CategoryProblems) {
		problems, degraded, err := s.searchProblems(ctx, normalized, limit)
		if err != nil {
			return nil, err
		}
		results.Problems = problems
		results.Degraded = degraded
	}

	if categorySelected(opts.Categories, CategoryUsers) {
		users, err := s.searchUsers(ctx, normalized, limit)
		if err != nil {
			return nil, err
		}
		results.Users = users
	}

	if opts.WithMetadata {
		results.Meta = &Metadata{
			TotalHits: len(results.Problems) + len(results.Users),
			Duration:  time.Since(start).String(),
		}
	}

	return results, nil
}

func categorySelected(categories []string, name string) bool {
	if len(categories) == 0 {
		return true
	}
	for _, c := range categories {
		if c == name {
			return true
		}
	}
	return false
}

func (s *Service) searchProblems(ctx context.Context, query string, limit int) ([]models.Problem, bool, error) {
	problems := []models.Problem{}
	err := s.db.WithContext(ctx).
		Raw("SELECT * FROM problems WHERE MATCH(name, tags) AGAINST (? IN NATURAL LANGUAGE MODE) LIMIT ?", query, limit).
		Scan(&problems).Error
	if err == nil {
		return problems, false, nil
	}

	log.Warnf("[Search] FULLTEXT query failed, falling back to LIKE: %v", err)

	pattern := LikePattern(query)
	problems = []models.Problem{}
	err = s.db.WithContext(ctx).
		Where("name LIKE ? OR tags LIKE ?", pattern, pattern).
		Order("rating ASC").
		Limit(limit).
		Find(&problems).Error
	if err != nil {
		return nil, true, err
	}
	return problems, true, nil
}

func (s *Service) searchUsers(ctx context.Context, query string, limit int) ([]UserHit, error) {
	pattern := LikePattern(query)
	users := []UserHit{}
	err := s.db.WithContext(ctx).
		Table("users").
		Select("id, name, cf_handle, cf_rating").
		Where("name LIKE ? OR cf_handle LIKE ?", pattern, pattern).
		Order("cf_rating DESC").
		Limit(limit).
		Scan(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// NormalizeQuery trims and collapses whitespace and enforces the length
// bounds. The boolean is false when the query is too short to search.
func NormalizeQuery(query string) (string, bool) {
	normalized := strings.Join(strings.Fields(query), " ")
	if len(normalized) < MinQueryLength {
		return "", false
	}
	if len(normalized) > MaxQueryLength {
		normalized = normalized[:MaxQueryLength]
	}
	return normalized, true
}

// LikePattern escapes LIKE metacharacters in the query and wraps it in
// wildcards for substring matching.
func LikePattern(query string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(query) + "%"
}
