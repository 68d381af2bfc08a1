package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/bluecodes/game-codes-store/shared/apperr"
	"github.com/bluecodes/game-codes-store/shared/models"
)

const (
	defaultFFXIVBaseURL = "https://xivapi.com"
	maxFFXIVResults     = 10
)

type FFXIVCharacter struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Server     string `json:"server"`
	Avatar     string `json:"avatar"`
	DataCenter string `json:"data_center"`
}

type FFXIVSearchResult struct {
	Game    string           `json:"game"`
	Results []FFXIVCharacter `json:"results"`
}

type FFXIVService struct {
	baseURL    string
	httpClient *http.Client
	logs       SearchLogStore
}

// creates a new FFXIVService. baseURL is overridable for tests.
func NewFFXIVService(baseURL string, logs SearchLogStore) *FFXIVService {
	if baseURL == "" {
		baseURL = defaultFFXIVBaseURL
	}
	return &FFXIVService{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logs:       logs,
	}
}

// SearchCharacter searches the Lodestone by name, optionally scoped to a
// world, and trims the result set to the top matches.
func (s *FFXIVService) SearchCharacter(ctx context.Context, name, world string) (*FFXIVSearchResult, error) {
	name = strings.TrimSpace(name)
	world = strings.TrimSpace(world)
	if name == "" {
		return nil, apperr.BadRequest("Name required")
	}

	query := map[string]string{"name": name}
	if world != "" {
		query["server"] = world
	}

	results, err := s.search(ctx, name, world)
	if err != nil {
		s.logSearch(ctx, query, false, err.Error())
		log.WithError(err).WithField("name", name).Error("FFXIV character search failed")
		return nil, apperr.Internal("Failed to search FFXIV characters")
	}

	s.logSearch(ctx, query, true, "")
	return &FFXIVSearchResult{Game: "ffxiv", Results: results}, nil
}

func (s *FFXIVService) search(ctx context.Context, name, world string) ([]FFXIVCharacter, error) {
	params := url.Values{}
	params.Set("name", name)
	if world != "" {
		params.Set("server", world)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/character/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("character API returned status %d", resp.StatusCode)
	}

	var payload struct {
		Results []struct {
			ID     int64  `json:"ID"`
			Name   string `json:"Name"`
			Server string `json:"Server"`
			Avatar string `json:"Avatar"`
			DC     string `json:"DC"`
		} `json:"Results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]FFXIVCharacter, 0, maxFFXIVResults)
	for _, it := range payload.Results {
		if len(results) == maxFFXIVResults {
			break
		}
		results = append(results, FFXIVCharacter{
			ID:         it.ID,
			Name:       it.Name,
			Server:     it.Server,
			Avatar:     it.Avatar,
			DataCenter: it.DC,
		})
	}
	return results, nil
}

func (s *FFXIVService) logSearch(ctx context.Context, query map[string]string, ok bool, note string) {
	entry := &models.SearchLog{
		Game:      "ffxiv",
		Query:     query,
		ResultOK:  ok,
		Note:      truncate(note, 200),
		CreatedAt: time.Now(),
	}
	if err := s.logs.InsertSearchLog(ctx, entry); err != nil {
		log.WithError(err).Warn("Failed to write search log")
	}
}
