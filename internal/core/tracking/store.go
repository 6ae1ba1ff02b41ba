package tracking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charleschow/mlb-winprob/internal/core/state/game/baseball"
	"github.com/charleschow/mlb-winprob/internal/telemetry"

	_ "modernc.org/sqlite"
)

const (
	maxStoreBytes  int64   = 256 << 20 // 256 MiB
	evictPct       float64 = 0.10      // evict oldest 10% of rows
	vacuumInterval         = 10        // incremental vacuum every N evictions
)

// Snapshot is one stored observation of a live game.
type Snapshot struct {
	ID         int64     `json:"id"`
	GamePk     int       `json:"gamePk"`
	CapturedAt time.Time `json:"captured_at"`
	Status     string    `json:"status"`
	AwayTeam   string    `json:"away_team"`
	HomeTeam   string    `json:"home_team"`

	Inning    int              `json:"inning"`
	TopBottom baseball.Half    `json:"top_bottom"`
	Outs      int              `json:"outs"`
	Runners   baseball.Runners `json:"runners"`
	ScoreHome int              `json:"score_home"`
	ScoreAway int              `json:"score_away"`
	Batter    string           `json:"batter_name,omitempty"`
	Pitcher   string           `json:"pitcher_name,omitempty"`

	WinProbability float64 `json:"win_probability"`
	LeverageIndex  float64 `json:"leverage_index"`
	LeverageLabel  string  `json:"leverage_label"`
	TopTactic      string  `json:"top_tactic,omitempty"`
}

// sameSituation reports whether two snapshots describe the same moment of
// play. Names and status are ignored.
func (s *Snapshot) sameSituation(o *Snapshot) bool {
	return s.GamePk == o.GamePk &&
		s.Inning == o.Inning &&
		s.TopBottom == o.TopBottom &&
		s.Outs == o.Outs &&
		s.Runners == o.Runners &&
		s.ScoreHome == o.ScoreHome &&
		s.ScoreAway == o.ScoreAway
}

// Store persists live snapshots in a FIFO SQLite database. Once the file
// passes maxStoreBytes the oldest 10% of rows are evicted.
type Store struct {
	db           *sql.DB
	mu           sync.Mutex
	cachedSize   int64
	rowCount     int64
	evictCounter int
	maxBytes     int64
}

func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create tracking store dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	var avMode int
	if err := db.QueryRow(`PRAGMA auto_vacuum`).Scan(&avMode); err != nil {
		db.Close()
		return nil, fmt.Errorf("read auto_vacuum: %w", err)
	}
	if avMode != 2 {
		if _, err := db.Exec(`PRAGMA auto_vacuum = INCREMENTAL`); err != nil {
			db.Close()
			return nil, fmt.Errorf("set auto_vacuum: %w", err)
		}
		if _, err := db.Exec(`VACUUM`); err != nil {
			telemetry.Warnf("tracking store: VACUUM to enable auto_vacuum failed: %v", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init tracking schema: %w", err)
	}

	var size int64
	db.QueryRow(`SELECT COALESCE(page_count * page_size, 0) FROM pragma_page_count(), pragma_page_size()`).Scan(&size)
	var rowCount int64
	db.QueryRow(`SELECT COUNT(*) FROM live_snapshots`).Scan(&rowCount)

	telemetry.Plainf("tracking store: opened %s  size=%d  rows=%d", path, size, rowCount)
	return &Store{db: db, cachedSize: size, rowCount: rowCount, maxBytes: maxStoreBytes}, nil
}

const schema = `CREATE TABLE IF NOT EXISTS live_snapshots (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	game_pk     INTEGER NOT NULL,
	captured_at TEXT    NOT NULL,
	status      TEXT    NOT NULL DEFAULT '',
	away_team   TEXT    NOT NULL DEFAULT '',
	home_team   TEXT    NOT NULL DEFAULT '',

	inning      INTEGER NOT NULL,
	top_bottom  TEXT    NOT NULL,
	outs        INTEGER NOT NULL,
	runner1     INTEGER NOT NULL,
	runner2     INTEGER NOT NULL,
	runner3     INTEGER NOT NULL,
	score_home  INTEGER NOT NULL,
	score_away  INTEGER NOT NULL,
	batter      TEXT    NOT NULL DEFAULT '',
	pitcher     TEXT    NOT NULL DEFAULT '',

	win_probability REAL NOT NULL,
	leverage_index  REAL NOT NULL,
	leverage_label  TEXT NOT NULL,
	top_tactic      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_live_snapshots_game ON live_snapshots (game_pk, id)`

// Insert stores snap and sets its ID.
func (s *Store) Insert(ctx context.Context, snap *Snapshot) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r1, r2, r3 := snap.Runners.Ints()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO live_snapshots (
			game_pk, captured_at, status, away_team, home_team,
			inning, top_bottom, outs, runner1, runner2, runner3,
			score_home, score_away, batter, pitcher,
			win_probability, leverage_index, leverage_label, top_tactic
		) VALUES (?,?,?,?,?, ?,?,?,?,?,?, ?,?,?,?, ?,?,?,?)`,
		snap.GamePk, snap.CapturedAt.UTC().Format(time.RFC3339Nano), snap.Status, snap.AwayTeam, snap.HomeTeam,
		snap.Inning, string(snap.TopBottom), snap.Outs, r1, r2, r3,
		snap.ScoreHome, snap.ScoreAway, snap.Batter, snap.Pitcher,
		snap.WinProbability, snap.LeverageIndex, snap.LeverageLabel, snap.TopTactic,
	)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}

	id, _ := res.LastInsertId()
	snap.ID = id
	s.rowCount++
	s.refreshSize()
	if s.cachedSize > s.maxBytes {
		s.evict()
	}
	return id, nil
}

const selectColumns = `id, game_pk, captured_at, status, away_team, home_team,
	inning, top_bottom, outs, runner1, runner2, runner3,
	score_home, score_away, batter, pitcher,
	win_probability, leverage_index, leverage_label, top_tactic`

// History returns up to limit of the most recent snapshots for gamePk,
// oldest first.
func (s *Store) History(ctx context.Context, gamePk int, limit int) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT * FROM (
			SELECT `+selectColumns+` FROM live_snapshots
			WHERE game_pk = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`, gamePk, limit)
	if err != nil {
		return nil, fmt.Errorf("query history %d: %w", gamePk, err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	return out, rows.Err()
}

// Latest returns the newest snapshot for gamePk, or nil if there is none.
func (s *Store) Latest(ctx context.Context, gamePk int) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM live_snapshots WHERE game_pk = ? ORDER BY id DESC LIMIT 1`, gamePk)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return snap, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(sc scanner) (*Snapshot, error) {
	var (
		snap       Snapshot
		capturedAt string
		half       string
		r1, r2, r3 int
	)
	if err := sc.Scan(
		&snap.ID, &snap.GamePk, &capturedAt, &snap.Status, &snap.AwayTeam, &snap.HomeTeam,
		&snap.Inning, &half, &snap.Outs, &r1, &r2, &r3,
		&snap.ScoreHome, &snap.ScoreAway, &snap.Batter, &snap.Pitcher,
		&snap.WinProbability, &snap.LeverageIndex, &snap.LeverageLabel, &snap.TopTactic,
	); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, capturedAt)
	if err != nil {
		return nil, fmt.Errorf("snapshot %d captured_at: %w", snap.ID, err)
	}
	snap.CapturedAt = t
	snap.TopBottom = baseball.Half(half)
	snap.Runners = baseball.RunnersFromInts(r1, r2, r3)
	return &snap, nil
}

// refreshSize re-reads the database file size from SQLite pragmas.
// Must be called with s.mu held.
func (s *Store) refreshSize() {
	var size int64
	row := s.db.QueryRow(`SELECT COALESCE(page_count * page_size, 0) FROM pragma_page_count(), pragma_page_size()`)
	if err := row.Scan(&size); err == nil {
		s.cachedSize = size
	}
}

// evict deletes the oldest 10% of rows by count.
// Must be called with s.mu held.
func (s *Store) evict() {
	toDelete := max(int64(float64(s.rowCount)*evictPct), 1)

	res, err := s.db.Exec(
		`DELETE FROM live_snapshots WHERE id IN (
			SELECT id FROM live_snapshots ORDER BY id ASC LIMIT ?
		)`, toDelete,
	)
	if err != nil {
		telemetry.Warnf("tracking store evict: %v", err)
		return
	}

	deleted, _ := res.RowsAffected()
	s.rowCount -= deleted
	s.evictCounter++

	telemetry.Infof("tracking store: evicted %d rows (target %d)", deleted, toDelete)

	if s.evictCounter%vacuumInterval == 0 {
		s.db.Exec(`PRAGMA incremental_vacuum`)
	}

	s.refreshSize()
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
