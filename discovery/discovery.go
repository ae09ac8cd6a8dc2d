// Package discovery crawls a recorded-games HTTP index and emits the game
// IDs it has not seen before.
package discovery

import (
	"fmt"
	"log"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Config holds discovery worker configuration.
type Config struct {
	IndexURLs    []string      // recorded-game index pages to crawl
	BaseURL      string        // prefix for relative session links
	RequestDelay time.Duration // politeness delay between HTTP requests
	MaxSessions  int           // sessions to check per index page (0 = unlimited)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		IndexURLs: []string{
			"https://games.cerealbar.dev/sessions/recent",
		},
		BaseURL:      "https://games.cerealbar.dev",
		RequestDelay: 500 * time.Millisecond,
		MaxSessions:  100,
	}
}

// Worker discovers game IDs from the recorded-games index.
type Worker struct {
	config    Config
	client    *http.Client
	knownIDs  map[string]bool
	knownMu   sync.RWMutex
	gameIDRe  *regexp.Regexp
	sessionRe *regexp.Regexp
}

// NewWorker creates a discovery worker, seeded with already-known IDs.
func NewWorker(config Config, existingIDs map[string]bool) *Worker {
	if existingIDs == nil {
		existingIDs = make(map[string]bool)
	}

	return &Worker{
		config: config,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		knownIDs: existingIDs,
		gameIDRe: regexp.MustCompile(`/games/([a-f0-9-]+)`),
		// Matches /sessions/{session-id}/games listing pages.
		sessionRe: regexp.MustCompile(`/sessions/([^/]+)/games`),
	}
}

// Discover crawls every configured index page and sends unseen game IDs to
// the channel.
func (w *Worker) Discover(gameIDChan chan<- string) error {
	log.Println("[Discovery] Starting index crawl...")

	totalNewGames := 0

	for _, indexURL := range w.config.IndexURLs {
		log.Printf("[Discovery] Scraping index: %s", indexURL)

		sessions, err := w.getSessions(indexURL)
		if err != nil {
			log.Printf("[Discovery] Error getting index %s: %v", indexURL, err)
			continue
		}

		log.Printf("[Discovery] Found %d sessions on %s", len(sessions), indexURL)

		if w.config.MaxSessions > 0 && len(sessions) > w.config.MaxSessions {
			sessions = sessions[:w.config.MaxSessions]
		}

		newGames := 0
		for i, session := range sessions {
			log.Printf("[Discovery] Checking session %d/%d: %s", i+1, len(sessions), session.id)

			gameIDs, err := w.getSessionGames(session.gamesURL)
			if err != nil {
				log.Printf("[Discovery] Error getting games for %s: %v", session.id, err)
				continue
			}

			for _, gameID := range gameIDs {
				w.knownMu.RLock()
				known := w.knownIDs[gameID]
				w.knownMu.RUnlock()

				if !known {
					w.knownMu.Lock()
					w.knownIDs[gameID] = true
					w.knownMu.Unlock()

					gameIDChan <- gameID
					newGames++
				}
			}

			// Rate limiting.
			time.Sleep(w.config.RequestDelay)
		}

		log.Printf("[Discovery] Finished %s. Found %d new games", indexURL, newGames)
		totalNewGames += newGames
	}

	log.Printf("[Discovery] All index pages complete. Total new games: %d", totalNewGames)
	return nil
}

// sessionInfo is one recording session linked from an index page.
type sessionInfo struct {
	id       string
	gamesURL string
}

// getSessions fetches session links from an index page.
func (w *Worker) getSessions(indexURL string) ([]sessionInfo, error) {
	doc, err := w.fetch(indexURL)
	if err != nil {
		return nil, err
	}

	var sessions []sessionInfo
	seen := make(map[string]bool)

	doc.Find("a[href*='/sessions/']").Each(func(i int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists {
			return
		}

		matches := w.sessionRe.FindStringSubmatch(href)
		if len(matches) >= 2 {
			id := matches[1]
			if !seen[id] {
				seen[id] = true
				sessions = append(sessions, sessionInfo{
					id:       id,
					gamesURL: w.config.BaseURL + href,
				})
			}
		}
	})

	return sessions, nil
}

// getSessionGames fetches game IDs from a session's games page.
func (w *Worker) getSessionGames(gamesURL string) ([]string, error) {
	doc, err := w.fetch(gamesURL)
	if err != nil {
		return nil, err
	}

	var gameIDs []string
	seen := make(map[string]bool)

	doc.Find("a[href*='/games/']").Each(func(i int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists {
			return
		}

		matches := w.gameIDRe.FindStringSubmatch(href)
		if len(matches) >= 2 {
			gameID := matches[1]
			if !seen[gameID] {
				seen[gameID] = true
				gameIDs = append(gameIDs, gameID)
			}
		}
	})

	return gameIDs, nil
}

func (w *Worker) fetch(url string) (*goquery.Document, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "CerealBarFetcher/1.0 (training-data-collector)")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return goquery.NewDocumentFromReader(resp.Body)
}

// AddKnownID adds a game ID to the known set.
func (w *Worker) AddKnownID(gameID string) {
	w.knownMu.Lock()
	defer w.knownMu.Unlock()
	w.knownIDs[gameID] = true
}
