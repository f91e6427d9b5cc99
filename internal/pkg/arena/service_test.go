package arena

import (
	"testing"

	"gorm.io/gorm"

	"github.com/Hackeries/AlgoRise-sub002/app/models"
)

type fakeMatchRepo struct {
	matches map[string]*models.ArenaMatch
	updates int
}

func (f *fakeMatchRepo) Create(m *models.ArenaMatch) error {
	f.matches[m.MatchID] = m
	return nil
}

func (f *fakeMatchRepo) GetByMatchID(matchID string) (*models.ArenaMatch, error) {
	m, ok := f.matches[matchID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m, nil
}

func (f *fakeMatchRepo) ActiveForUser(userID uint) (*models.ArenaMatch, error) {
	for _, m := range f.matches {
		if m.Status == models.MatchStatusActive && (m.PlayerOneID == userID || m.PlayerTwoID == userID) {
			return m, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeMatchRepo) Update(m *models.ArenaMatch) error {
	f.updates++
	f.matches[m.MatchID] = m
	return nil
}

func (f *fakeMatchRepo) ListRecentForUser(userID uint, limit int) ([]models.ArenaMatch, error) {
	return nil, nil
}

type fakeUserRepo struct {
	profiles map[uint]*models.Profile
}

func (f *fakeUserRepo) Create(*models.User) error                  { return nil }
func (f *fakeUserRepo) GetByID(uint) (*models.User, error)         { return nil, gorm.ErrRecordNotFound }
func (f *fakeUserRepo) GetByEmail(string) (*models.User, error)    { return nil, gorm.ErrRecordNotFound }
func (f *fakeUserRepo) Update(*models.User) error                  { return nil }
func (f *fakeUserRepo) Delete(uint) error                          { return nil }
func (f *fakeUserRepo) List(int, int) ([]models.User, error)       { return nil, nil }
func (f *fakeUserRepo) Count() (int64, error)                      { return 0, nil }
func (f *fakeUserRepo) Search(string) ([]models.User, error)       { return nil, nil }
func (f *fakeUserRepo) SaveProfile(p *models.Profile) error        { f.profiles[p.UserID] = p; return nil }
func (f *fakeUserRepo) GetByAPIKeyHash(string) (*models.User, *models.Profile, error) {
	return nil, nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetProfile(userID uint) (*models.Profile, error) {
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}
	p := &models.Profile{UserID: userID, ArenaRating: 1200}
	f.profiles[userID] = p
	return p, nil
}

func newServiceFixture() (*Service, *fakeMatchRepo, *fakeUserRepo) {
	matches := &fakeMatchRepo{matches: map[string]*models.ArenaMatch{}}
	users := &fakeUserRepo{profiles: map[uint]*models.Profile{}}
	return NewService(matches, users), matches, users
}

func activeMatch() *models.ArenaMatch {
	return &models.ArenaMatch{
		MatchID:         "match-1",
		Mode:            models.ArenaModeStandard,
		PlayerOneID:     1,
		PlayerTwoID:     2,
		PlayerOneRating: 1200,
		PlayerTwoRating: 1400,
		Status:          models.MatchStatusActive,
	}
}

func TestFinishMatch_MovesRatings(t *testing.T) {
	svc, matches, users := newServiceFixture()
	matches.matches["match-1"] = activeMatch()
	users.profiles[1] = &models.Profile{UserID: 1, ArenaRating: 1200}
	users.profiles[2] = &models.Profile{UserID: 2, ArenaRating: 1400}

	match, err := svc.FinishMatch("match-1", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if match.Status != models.MatchStatusFinished {
		t.Fatalf("expected finished status, got %s", match.Status)
	}
	if match.WinnerID == nil || *match.WinnerID != 1 {
		t.Fatalf("expected winner 1, got %v", match.WinnerID)
	}
	if match.FinishedAt == nil {
		t.Fatal("expected finished timestamp")
	}

	delta := EloDelta(1200, 1400)
	if match.RatingDelta != delta {
		t.Fatalf("expected delta %d, got %d", delta, match.RatingDelta)
	}
	if got := users.profiles[1].ArenaRating; got != 1200+delta {
		t.Fatalf("winner rating = %d, want %d", got, 1200+delta)
	}
	if got := users.profiles[2].ArenaRating; got != 1400-delta {
		t.Fatalf("loser rating = %d, want %d", got, 1400-delta)
	}
}

func TestFinishMatch_RejectsOutsiders(t *testing.T) {
	svc, matches, _ := newServiceFixture()
	matches.matches["match-1"] = activeMatch()

	if _, err := svc.FinishMatch("match-1", 99); err == nil {
		t.Fatal("expected error for non-player winner")
	}
	if matches.updates != 0 {
		t.Fatalf("no update expected, got %d", matches.updates)
	}
}

func TestFinishMatch_RejectsFinishedMatch(t *testing.T) {
	svc, matches, _ := newServiceFixture()
	m := activeMatch()
	m.Status = models.MatchStatusFinished
	matches.matches["match-1"] = m

	if _, err := svc.FinishMatch("match-1", 1); err == nil {
		t.Fatal("expected error for already finished match")
	}
}

func TestAbortMatch(t *testing.T) {
	svc, matches, _ := newServiceFixture()
	matches.matches["match-1"] = activeMatch()

	match, err := svc.AbortMatch("match-1", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.Status != models.MatchStatusAborted {
		t.Fatalf("expected aborted status, got %s", match.Status)
	}
	if match.WinnerID != nil || match.RatingDelta != 0 {
		t.Fatal("aborted match must not move ratings")
	}
}
