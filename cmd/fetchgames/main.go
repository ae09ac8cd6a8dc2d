// Command fetchgames crawls the recorded-games index, downloads each new
// game's event stream, and writes one JSON document per game for
// games2train to consume.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/diaosuyidsy/cerealbar/db"
	"github.com/diaosuyidsy/cerealbar/discovery"
	"github.com/diaosuyidsy/cerealbar/replay"
	"github.com/diaosuyidsy/cerealbar/sim"
)

func main() {
	outDir := flag.String("out-dir", getEnvOrDefault("OUT_DIR", "data/games"), "Directory to write game JSON documents")
	dbPath := flag.String("db-path", getEnvOrDefault("DB_PATH", "data/index.db"), "SQLite index of fetched games")
	indexURL := flag.String("index-url", getEnvOrDefault("INDEX_URL", ""), "Recorded-games index page (empty = default)")
	engineURL := flag.String("engine-url", getEnvOrDefault("ENGINE_URL", ""), "WebSocket URL template (empty = default)")
	workers := flag.Int("workers", getEnvIntOrDefault("WORKERS", 4), "Number of download workers")
	maxSessions := flag.Int("max-sessions", getEnvIntOrDefault("MAX_SESSIONS", 50), "Maximum sessions to check per index page")
	requestDelay := flag.Duration("delay", getEnvDurationOrDefault("DELAY", 500*time.Millisecond), "Delay between HTTP requests")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create output dir: %v", err)
	}

	index, err := db.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open index db: %v", err)
	}
	defer index.Close()

	existingIDs, err := index.GetAllGameIDs()
	if err != nil {
		log.Fatalf("Failed to load known game IDs: %v", err)
	}

	log.Printf("Starting game fetcher")
	log.Printf("  Out Dir: %s", *outDir)
	log.Printf("  Index DB: %s (%d already)", *dbPath, len(existingIDs))
	log.Printf("  Workers: %d", *workers)
	log.Printf("  Max Sessions: %d", *maxSessions)
	log.Printf("  Request Delay: %s", *requestDelay)

	discConfig := discovery.DefaultConfig()
	if *indexURL != "" {
		discConfig.IndexURLs = []string{*indexURL}
	}
	discConfig.RequestDelay = *requestDelay
	discConfig.MaxSessions = *maxSessions

	remoteConfig := sim.DefaultRemoteConfig()
	if *engineURL != "" {
		remoteConfig.EngineURL = *engineURL
	}

	discWorker := discovery.NewWorker(discConfig, existingIDs)
	gameIDChan := make(chan string, 1000)

	go func() {
		defer close(gameIDChan)
		if err := discWorker.Discover(gameIDChan); err != nil {
			log.Printf("Discovery error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	done := make(chan struct{})
	go func() {
		downloadAll(gameIDChan, *workers, *outDir, remoteConfig, index)
		close(done)
	}()

	select {
	case <-sigChan:
		log.Printf("Interrupted; draining...")
		// Discovery keeps filling the channel until its crawl ends, but
		// the download pool exits once the channel closes. Just stop
		// waiting; already-written documents are complete.
	case <-done:
		log.Printf("Fetch complete")
	}
}

// downloadAll runs the worker pool until the ID channel closes.
func downloadAll(gameIDChan <-chan string, workers int, outDir string, remoteConfig sim.RemoteConfig, index *db.DB) {
	var downloaded, skipped, failed int64
	var mu sync.Mutex

	client := sim.NewClient(remoteConfig)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for gameID := range gameIDChan {
				exists, err := index.GameExists(gameID)
				if err != nil {
					log.Printf("[Worker %d] Error checking game %s: %v", workerID, gameID, err)
					continue
				}
				if exists {
					mu.Lock()
					skipped++
					mu.Unlock()
					continue
				}

				g, err := client.DownloadGame(gameID)
				if err != nil {
					log.Printf("[Worker %d] Failed to download %s: %v", workerID, gameID, err)
					mu.Lock()
					failed++
					mu.Unlock()
					continue
				}

				path := filepath.Join(outDir, g.ID+".json")
				if err := replay.SaveGameFile(path, g); err != nil {
					log.Printf("[Worker %d] Failed to save %s: %v", workerID, gameID, err)
					mu.Lock()
					failed++
					mu.Unlock()
					continue
				}

				if err := index.InsertGame(db.Game{ID: g.ID, Events: len(g.Actions), FilePath: path}); err != nil {
					log.Printf("[Worker %d] Failed to index %s: %v", workerID, gameID, err)
				}

				mu.Lock()
				downloaded++
				n := downloaded
				mu.Unlock()
				log.Printf("[Worker %d] Downloaded %s: %d events", workerID, g.ID, len(g.Actions))
				if n%50 == 0 {
					log.Printf("Progress: downloaded=%d skipped=%d failed=%d", n, skipped, failed)
				}
			}
		}(i)
	}
	wg.Wait()

	log.Printf("Fetching complete:")
	log.Printf("  Games downloaded: %d", downloaded)
	log.Printf("  Games skipped: %d", skipped)
	log.Printf("  Games failed: %d", failed)
}

// Environment variable helpers
func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		var i int
		if _, err := fmt.Sscanf(val, "%d", &i); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
