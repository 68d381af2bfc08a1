package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/bluecodes/game-codes-store/shared/apperr"
	"github.com/bluecodes/game-codes-store/shared/models"
)

const defaultOSRSBaseURL = "https://secure.runescape.com"

// osrsSkills is the fixed order of the first 24 hiscore lines.
var osrsSkills = []string{
	"Overall", "Attack", "Defence", "Strength", "Hitpoints", "Ranged",
	"Prayer", "Magic", "Cooking", "Woodcutting", "Fletching", "Fishing",
	"Firemaking", "Crafting", "Smithing", "Mining", "Herblore", "Agility",
	"Thieving", "Slayer", "Farming", "Runecraft", "Hunter", "Construction",
}

// SearchLogStore records the outcome of each lookup.
type SearchLogStore interface {
	InsertSearchLog(ctx context.Context, entry *models.SearchLog) error
}

type SkillStats struct {
	Rank  int   `json:"rank"`
	Level int   `json:"level"`
	XP    int64 `json:"xp"`
}

type OSRSStats struct {
	Game     string                `json:"game"`
	Username string                `json:"username"`
	Skills   map[string]SkillStats `json:"skills"`
}

type OSRSService struct {
	baseURL    string
	httpClient *http.Client
	logs       SearchLogStore
}

// creates a new OSRSService. baseURL is overridable for tests.
func NewOSRSService(baseURL string, logs SearchLogStore) *OSRSService {
	if baseURL == "" {
		baseURL = defaultOSRSBaseURL
	}
	return &OSRSService{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logs:       logs,
	}
}

// FetchStats looks up a player on the hiscore text feed. Every call writes
// a search-log entry, success or failure.
func (s *OSRSService) FetchStats(ctx context.Context, username string) (*OSRSStats, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperr.BadRequest("Username required")
	}

	body, err := s.fetch(ctx, username)
	if err != nil {
		s.logSearch(ctx, username, false, err.Error())
		if apiErr, ok := err.(*apperr.Error); ok {
			return nil, apiErr
		}
		log.WithError(err).WithField("username", username).Error("OSRS hiscore fetch failed")
		return nil, apperr.Internal("Failed to fetch OSRS stats")
	}

	stats := &OSRSStats{
		Game:     "osrs",
		Username: username,
		Skills:   parseHiscoreLines(body),
	}

	s.logSearch(ctx, username, true, "")
	return stats, nil
}

func (s *OSRSService) fetch(ctx context.Context, username string) (string, error) {
	lookupURL := fmt.Sprintf("%s/m=hiscore_oldschool/index_lite.ws?player=%s", s.baseURL, url.QueryEscape(username))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", apperr.NotFound("Player not found")
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("hiscore API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// parseHiscoreLines parses the fixed-format feed: one "rank,level,xp" line
// per skill. A malformed line falls back to the unranked default instead of
// failing the whole parse.
func parseHiscoreLines(body string) map[string]SkillStats {
	lines := strings.Split(strings.TrimSpace(body), "\n")

	skills := make(map[string]SkillStats, len(osrsSkills))
	for i, skill := range osrsSkills {
		stats := SkillStats{Rank: -1, Level: 1, XP: 0}
		if i < len(lines) {
			if parsed, ok := parseSkillLine(strings.TrimSpace(lines[i])); ok {
				stats = parsed
			}
		}
		skills[skill] = stats
	}
	return skills
}

func parseSkillLine(line string) (SkillStats, bool) {
	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		return SkillStats{}, false
	}

	rank, err := strconv.Atoi(parts[0])
	if err != nil {
		return SkillStats{}, false
	}
	level, err := strconv.Atoi(parts[1])
	if err != nil {
		return SkillStats{}, false
	}
	xp, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return SkillStats{}, false
	}

	return SkillStats{Rank: rank, Level: level, XP: xp}, true
}

// logSearch is best effort: a failed write never fails the lookup.
func (s *OSRSService) logSearch(ctx context.Context, username string, ok bool, note string) {
	entry := &models.SearchLog{
		Game:      "osrs",
		Query:     map[string]string{"username": username},
		ResultOK:  ok,
		Note:      truncate(note, 200),
		CreatedAt: time.Now(),
	}
	if err := s.logs.InsertSearchLog(ctx, entry); err != nil {
		log.WithError(err).Warn("Failed to write search log")
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
