// Command games2train segments recorded game logs into per-instruction
// training examples and writes them as parquet shards.
//
// Games are read from a directory of JSON documents, segmented in parallel,
// and flushed by a single writer goroutine. An append-only written log and
// a SQLite index make reruns incremental.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/diaosuyidsy/cerealbar/db"
	"github.com/diaosuyidsy/cerealbar/logging"
	"github.com/diaosuyidsy/cerealbar/replay"
	"github.com/diaosuyidsy/cerealbar/segment"
	"github.com/diaosuyidsy/cerealbar/store"
)

var totalGames atomic.Int64
var totalExamples atomic.Int64
var totalSets atomic.Int64
var totalFailed atomic.Int64

// GameUpdate is one finished game, reported to the progress loop.
type GameUpdate struct {
	WorkerID int
	GameID   string
	Examples int
	Sets     int
	Err      error
}

type gameWriteRequest struct {
	gameID   string
	rows     []store.ExampleRow
	sets     int
	integrity error
}

type model struct {
	gamesDone     int
	totalExamples int
	failed        int
	startTime     time.Time
	recentGames   []string
	updates       chan GameUpdate
}

func initialModel(updates chan GameUpdate) model {
	return model{
		startTime: time.Now(),
		updates:   updates,
	}
}

type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), tickCmd())
}

func waitForUpdate(updates chan GameUpdate) tea.Cmd {
	return func() tea.Msg {
		return <-updates
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case TickMsg:
		m.gamesDone = int(totalGames.Load())
		m.totalExamples = int(totalExamples.Load())
		m.failed = int(totalFailed.Load())
		return m, tickCmd()
	case GameUpdate:
		var logMsg string
		if msg.Err != nil {
			logMsg = fmt.Sprintf("Worker %d: %s FAILED: %v", msg.WorkerID, msg.GameID, msg.Err)
		} else {
			logMsg = fmt.Sprintf("Worker %d: %s, Ex %d, Sets %d", msg.WorkerID, msg.GameID, msg.Examples, msg.Sets)
		}
		m.recentGames = append([]string{logMsg}, m.recentGames...)
		if len(m.recentGames) > 10 {
			m.recentGames = m.recentGames[:10]
		}
		return m, waitForUpdate(m.updates)
	}
	return m, nil
}

func (m model) View() string {
	duration := time.Since(m.startTime)
	gamesPerSec := float64(m.gamesDone) / duration.Seconds()
	if duration.Seconds() < 1 {
		gamesPerSec = 0
	}

	s := fmt.Sprintf("Games Segmented: %d\n", m.gamesDone)
	s += fmt.Sprintf("Total Examples:  %d\n", m.totalExamples)
	s += fmt.Sprintf("Failed Games:    %d\n", m.failed)
	s += fmt.Sprintf("Duration:        %s\n", duration.Round(time.Second))
	s += fmt.Sprintf("Games/Sec:       %.2f\n\n", gamesPerSec)

	s += "Recent Games:\n"
	for _, g := range m.recentGames {
		s += g + "\n"
	}

	s += "\nPress q to quit.\n"
	return s
}

func main() {
	gamesDir := flag.String("games-dir", getEnvOrDefault("GAMES_DIR", "data/games"), "Directory of recorded game JSON files")
	outDir := flag.String("out-dir", getEnvOrDefault("OUT_DIR", "data/train"), "Output directory for parquet shards")
	dbPath := flag.String("db-path", getEnvOrDefault("DB_PATH", "data/index.db"), "SQLite index of processed games")
	logPath := flag.String("log-path", getEnvOrDefault("WRITTEN_LOG", "data/written_games.log"), "Append-only log of game IDs already written")
	workers := flag.Int("workers", getEnvIntOrDefault("WORKERS", 8), "Number of segmentation workers")
	gamesPerFlush := flag.Int("games-per-flush", getEnvIntOrDefault("GAMES_PER_FLUSH", 50), "Games to buffer per parquet shard")
	maxExamples := flag.Int64("max-examples", getEnvInt64OrDefault("MAX_EXAMPLES", -1), "If >= 0, stop after emitting this many examples across the run")
	source := flag.String("source", getEnvOrDefault("SOURCE", "recorded"), "Source tag stamped on every exported row")
	useTUI := flag.Bool("tui", getEnvBoolOrDefault("TUI", false), "Show a live progress screen instead of log lines")
	flag.Parse()

	logger := slog.New(logging.NewPrettyJSONHandler(os.Stderr, nil))

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	written, err := store.OpenWrittenLog(*logPath)
	if err != nil {
		log.Fatalf("Failed to open written log: %v", err)
	}
	defer written.Close()

	index, err := db.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open index db: %v", err)
	}
	defer index.Close()

	paths, err := listGameFiles(*gamesDir)
	if err != nil {
		log.Fatalf("Failed to list games: %v", err)
	}

	logger.Info("starting segmentation run",
		"games_dir", *gamesDir,
		"out_dir", *outDir,
		"games", len(paths),
		"already_written", written.Count(),
		"workers", *workers,
		"max_examples", *maxExamples,
	)

	jobs := make(chan string, len(paths))
	for _, p := range paths {
		jobs <- p
	}
	close(jobs)

	updates := make(chan GameUpdate, *workers)
	writeReqs := make(chan gameWriteRequest, (*workers)*4)

	writerDone := make(chan struct{})
	go func() {
		shardWriterLoop(*outDir, *gamesPerFlush, writeReqs, written, index)
		close(writerDone)
	}()

	var examplesEmitted atomic.Int64

	var workerWG sync.WaitGroup
	for i := 0; i < *workers; i++ {
		workerWG.Add(1)
		go func(workerID int) {
			defer workerWG.Done()
			for path := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}

				update := segmentOne(workerID, path, *source, *maxExamples, &examplesEmitted, written, writeReqs)
				if update == nil {
					continue
				}
				if *maxExamples >= 0 && examplesEmitted.Load() >= *maxExamples {
					cancel()
				}

				// Avoid blocking shutdown if the UI loop stops consuming.
				select {
				case updates <- *update:
				default:
				}
			}
		}(i)
	}

	go func() {
		workerWG.Wait()
		close(writeReqs)
		<-writerDone
		cancel()
	}()

	if *useTUI {
		p := tea.NewProgram(initialModel(updates), tea.WithAltScreen())
		go func() {
			<-ctx.Done()
			p.Quit()
		}()
		if _, err := p.Run(); err != nil {
			log.Fatal(err)
		}
	} else {
		runPlainProgress(ctx, logger, updates)
	}

	workerWG.Wait()
	<-writerDone

	logger.Info("segmentation run complete",
		"games", totalGames.Load(),
		"examples", totalExamples.Load(),
		"sets", totalSets.Load(),
		"failed", totalFailed.Load(),
	)
}

// segmentOne loads, segments, and queues one recorded game. A nil return
// means the game was skipped.
func segmentOne(workerID int, path, source string, maxExamples int64, emitted *atomic.Int64, written *store.WrittenLog, writeReqs chan<- gameWriteRequest) *GameUpdate {
	g, err := replay.LoadGameFile(path)
	if err != nil {
		totalFailed.Add(1)
		return &GameUpdate{WorkerID: workerID, GameID: filepath.Base(path), Err: err}
	}
	if written.Has(g.ID) {
		return nil
	}

	seg := segment.NewSegmenter()
	if maxExamples >= 0 {
		remaining := maxExamples - emitted.Load()
		if remaining <= 0 {
			return nil
		}
		seg.MaxExamples = int(remaining)
	}

	examples, sets, err := seg.SegmentGame(g)
	if err != nil {
		totalFailed.Add(1)
		totalGames.Add(1)
		if errors.Is(err, segment.ErrIntegrity) {
			writeReqs <- gameWriteRequest{gameID: g.ID, integrity: err}
		}
		return &GameUpdate{WorkerID: workerID, GameID: g.ID, Err: err}
	}

	rows, err := store.RowsForGame(segment.GameResult{Game: g, Examples: examples, Sets: sets}, source)
	if err != nil {
		totalFailed.Add(1)
		totalGames.Add(1)
		return &GameUpdate{WorkerID: workerID, GameID: g.ID, Err: err}
	}

	emitted.Add(int64(len(examples)))
	totalGames.Add(1)
	totalExamples.Add(int64(len(examples)))
	totalSets.Add(int64(len(sets)))

	writeReqs <- gameWriteRequest{gameID: g.ID, rows: rows, sets: len(sets)}
	return &GameUpdate{WorkerID: workerID, GameID: g.ID, Examples: len(examples), Sets: len(sets)}
}

// shardWriterLoop is the single consumer of segmented games: it streams
// rows into batch shards, records outcomes in the index, and appends to the
// written log once the rows are safely buffered.
func shardWriterLoop(outDir string, gamesPerFlush int, in <-chan gameWriteRequest, written *store.WrittenLog, index *db.DB) {
	if gamesPerFlush <= 0 {
		gamesPerFlush = 50
	}

	var writer *store.BatchWriter
	var err error

	finalize := func() {
		if writer == nil {
			return
		}
		outPath, rows, games, ferr := writer.Finalize()
		if ferr != nil {
			log.Printf("Shard finalize failed: %v", ferr)
		} else if outPath != "" {
			log.Printf("Shard written: %s (games=%d rows=%d)", outPath, games, rows)
		}
		writer = nil
	}
	defer finalize()

	for req := range in {
		if req.integrity != nil {
			recordOutcome(index, req.gameID, 0, 0, req.integrity)
			continue
		}

		if writer == nil {
			writer, err = store.NewBatchWriter(outDir)
			if err != nil {
				log.Printf("Failed to open shard writer: %v", err)
				continue
			}
		}

		if err := writer.WriteRows(req.rows); err != nil {
			log.Printf("Failed to write rows for %s: %v", req.gameID, err)
			continue
		}
		writer.NoteGameWritten()

		if err := written.Add(req.gameID); err != nil {
			log.Printf("Failed to log %s as written: %v", req.gameID, err)
		}
		recordOutcome(index, req.gameID, len(req.rows), req.sets, nil)

		if writer.BufferedGames() >= gamesPerFlush {
			finalize()
		}
	}
}

func recordOutcome(index *db.DB, gameID string, examples, sets int, integrityErr error) {
	s := db.Segmentation{
		GameID:   gameID,
		Examples: examples,
		Sets:     sets,
		Status:   db.StatusOK,
	}
	if integrityErr != nil {
		s.Status = db.StatusIntegrityError
		s.Error = integrityErr.Error()
	}
	if err := index.RecordSegmentation(s); err != nil {
		log.Printf("Failed to index outcome for %s: %v", gameID, err)
	}
}

func runPlainProgress(ctx context.Context, logger *slog.Logger, updates chan GameUpdate) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case update := <-updates:
			if update.Err != nil {
				logger.Warn("game failed", "worker", update.WorkerID, "game", update.GameID, "err", update.Err.Error())
			}
		case <-ticker.C:
			logger.Info("progress",
				"games", totalGames.Load(),
				"examples", totalExamples.Load(),
				"sets", totalSets.Load(),
				"failed", totalFailed.Load(),
			)
		}
	}
}

func listGameFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	// Deterministic processing order.
	sort.Strings(paths)
	return paths, nil
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

func getEnvInt64OrDefault(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		var i int64
		if _, err := fmt.Sscanf(val, "%d", &i); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}
