package judge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Hackeries/AlgoRise-sub002/app/models"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/env"
)

const defaultCodeforcesAPIBaseURL = "https://codeforces.com/api"

// CodeforcesClient reads public judge data: user ratings for handle
// verification and the problemset for the local catalog.
type CodeforcesClient struct {
	APIBaseURL string

	HTTPClient *http.Client
}

type CodeforcesUser struct {
	Handle    string `json:"handle"`
	Rating    int    `json:"rating"`
	MaxRating int    `json:"maxRating"`
	Rank      string `json:"rank"`
}

func NewCodeforcesClientFromEnv() *CodeforcesClient {
	return &CodeforcesClient{
		APIBaseURL: strings.TrimSpace(env.GetEnv("CODEFORCES_API_BASE_URL", defaultCodeforcesAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// GetUserInfo resolves a Codeforces handle, returning rating data.
func (c *CodeforcesClient) GetUserInfo(ctx context.Context, handle string) (*CodeforcesUser, error) {
	h := strings.TrimSpace(handle)
	if h == "" {
		return nil, errors.New("handle is required")
	}

	var raw struct {
		Status  string           `json:"status"`
		Comment string           `json:"comment"`
		Result  []CodeforcesUser `json:"result"`
	}
	if err := c.get(ctx, "/user.info", url.Values{"handles": {h}}, &raw); err != nil {
		return nil, err
	}
	if raw.Status != "OK" {
		return nil, fmt.Errorf("codeforces user.info failed: %s", raw.Comment)
	}
	if len(raw.Result) == 0 {
		return nil, fmt.Errorf("codeforces handle %q not found", h)
	}
	return &raw.Result[0], nil
}

// GetProblems fetches the public problemset as catalog entries. Problems
// without a rating are kept with rating 0 so they stay searchable.
func (c *CodeforcesClient) GetProblems(ctx context.Context) ([]models.Problem, error) {
	var raw struct {
		Status  string `json:"status"`
		Comment string `json:"comment"`
		Result  struct {
			Problems []struct {
				ContestID int      `json:"contestId"`
				Index     string   `json:"index"`
				Name      string   `json:"name"`
				Rating    int      `json:"rating"`
				Tags      []string `json:"tags"`
			} `json:"problems"`
			ProblemStatistics []struct {
				ContestID   int    `json:"contestId"`
				Index       string `json:"index"`
				SolvedCount int    `json:"solvedCount"`
			} `json:"problemStatistics"`
		} `json:"result"`
	}
	if err := c.get(ctx, "/problemset.problems", nil, &raw); err != nil {
		return nil, err
	}
	if raw.Status != "OK" {
		return nil, fmt.Errorf("codeforces problemset.problems failed: %s", raw.Comment)
	}

	solved := make(map[string]int, len(raw.Result.ProblemStatistics))
	for _, st := range raw.Result.ProblemStatistics {
		solved[fmt.Sprintf("%d/%s", st.ContestID, st.Index)] = st.SolvedCount
	}

	out := make([]models.Problem, 0, len(raw.Result.Problems))
	for _, p := range raw.Result.Problems {
		if p.ContestID == 0 || strings.TrimSpace(p.Index) == "" {
			continue
		}
		out = append(out, models.Problem{
			Platform:     "codeforces",
			ContestID:    p.ContestID,
			ProblemIndex: p.Index,
			Name:         p.Name,
			Rating:       p.Rating,
			Tags:         strings.Join(p.Tags, ","),
			SolvedCount:  solved[fmt.Sprintf("%d/%s", p.ContestID, p.Index)],
		})
	}
	return out, nil
}

func (c *CodeforcesClient) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u, err := url.Parse(strings.TrimRight(c.APIBaseURL, "/") + path)
	if err != nil {
		return err
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("codeforces request %s failed: status=%d body=%s", path, resp.StatusCode, truncate(string(body), 200))
	}
	return json.Unmarshal(body, out)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
