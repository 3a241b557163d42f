package recorder

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/pandemic-sim/pandemic-sim/sim"
)

// TickRow is one recorded tick.
type TickRow struct {
	Episode          int     `db:"episode"`
	Hour             int     `db:"hour"`
	Stage            int     `db:"stage"`
	SocialDistancing float64 `db:"social_distancing"`
	NotInfected      int     `db:"not_infected"`
	Infected         int     `db:"infected"`
	Critical         int     `db:"critical"`
	Recovered        int     `db:"recovered"`
	Dead             int     `db:"dead"`
	ObservedInfected int     `db:"observed_infected"`
	ObservedCritical int     `db:"observed_critical"`
	NumTests         int     `db:"num_tests"`
	AboveThreshold   bool    `db:"above_threshold"`
}

// SQLite writes every tick into a SQLite database. Ticks of an episode are
// written in one transaction committed by Finalize; queries must wait until then.
type SQLite struct {
	conn    *sqlx.DB
	tx      *sqlx.Tx
	stmt    *sqlx.Stmt
	episode int
}

var _ sim.StateConsumer = (*SQLite)(nil)

// OpenSQLite opens or creates the database at path (":memory:" for a private in-memory one).
func OpenSQLite(path string) (*SQLite, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection keeps ":memory:" databases alive and ordered.
	conn.SetMaxOpenConns(1)

	r := &SQLite{conn: conn}
	if err := r.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := conn.Get(&r.episode, "SELECT COALESCE(MAX(id), 0) FROM episodes"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("read episodes: %w", err)
	}
	return r, nil
}

func (r *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS episodes (
		id INTEGER PRIMARY KEY,
		num_persons INTEGER NOT NULL,
		initial_infected INTEGER NOT NULL,
		finished INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS ticks (
		episode INTEGER NOT NULL REFERENCES episodes(id),
		hour INTEGER NOT NULL,
		stage INTEGER NOT NULL,
		social_distancing REAL NOT NULL,
		not_infected INTEGER NOT NULL,
		infected INTEGER NOT NULL,
		critical INTEGER NOT NULL,
		recovered INTEGER NOT NULL,
		dead INTEGER NOT NULL,
		observed_infected INTEGER NOT NULL,
		observed_critical INTEGER NOT NULL,
		num_tests INTEGER NOT NULL,
		above_threshold INTEGER NOT NULL,
		PRIMARY KEY (episode, hour)
	);

	CREATE INDEX IF NOT EXISTS idx_ticks_stage ON ticks(episode, stage);
	`
	_, err := r.conn.Exec(schema)
	return err
}

// ConsumeBegin opens a new episode.
func (r *SQLite) ConsumeBegin(state sim.SimulationState) error {
	if r.tx != nil {
		if err := r.Finalize(); err != nil {
			return err
		}
	}
	r.episode++
	numPersons := len(state.IDToPersonState)
	infected := state.GlobalInfectionSummary[sim.SummaryInfected]
	if _, err := r.conn.Exec("INSERT INTO episodes (id, num_persons, initial_infected) VALUES (?, ?, ?)",
		r.episode, numPersons, infected); err != nil {
		return fmt.Errorf("insert episode: %w", err)
	}
	tx, err := r.conn.Beginx()
	if err != nil {
		return err
	}
	stmt, err := tx.Preparex(`INSERT INTO ticks
		(episode, hour, stage, social_distancing, not_infected, infected, critical, recovered, dead,
		 observed_infected, observed_critical, num_tests, above_threshold)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	r.tx, r.stmt = tx, stmt
	return nil
}

// ConsumeState appends one tick to the open episode.
func (r *SQLite) ConsumeState(state sim.SimulationState, regulation sim.ChosenRegulation) error {
	if r.tx == nil {
		return fmt.Errorf("consume state: no open episode; call ConsumeBegin first")
	}
	g, obs := state.GlobalInfectionSummary, state.GlobalTestingState.Summary
	_, err := r.stmt.Exec(r.episode, state.SimTime.ToHours(), regulation.Stage, state.SocialDistancing,
		g[sim.SummaryNone], g[sim.SummaryInfected], g[sim.SummaryCritical], g[sim.SummaryRecovered], g[sim.SummaryDead],
		obs[sim.SummaryInfected], obs[sim.SummaryCritical], state.GlobalTestingState.NumTests, state.InfectionAboveThreshold)
	return err
}

// Finalize commits the open episode.
func (r *SQLite) Finalize() error {
	if r.tx == nil {
		return nil
	}
	r.stmt.Close()
	if err := r.tx.Commit(); err != nil {
		return fmt.Errorf("commit episode %d: %w", r.episode, err)
	}
	r.tx, r.stmt = nil, nil
	if _, err := r.conn.Exec("UPDATE episodes SET finished = 1 WHERE id = ?", r.episode); err != nil {
		return err
	}
	logrus.Debugf("recorded episode %d", r.episode)
	return nil
}

// Reset discards an uncommitted episode. Committed episodes are kept.
func (r *SQLite) Reset() error {
	if r.tx == nil {
		return nil
	}
	r.stmt.Close()
	err := r.tx.Rollback()
	r.tx, r.stmt = nil, nil
	return err
}

// Close commits any open episode and closes the database.
func (r *SQLite) Close() error {
	if err := r.Finalize(); err != nil {
		r.conn.Close()
		return err
	}
	return r.conn.Close()
}

// Episodes returns the ids of finished episodes.
func (r *SQLite) Episodes() ([]int, error) {
	var ids []int
	err := r.conn.Select(&ids, "SELECT id FROM episodes WHERE finished = 1 ORDER BY id")
	return ids, err
}

// Ticks returns the recorded ticks of an episode in hour order.
func (r *SQLite) Ticks(episode int) ([]TickRow, error) {
	var rows []TickRow
	err := r.conn.Select(&rows, "SELECT * FROM ticks WHERE episode = ? ORDER BY hour", episode)
	return rows, err
}

// StageHours returns how many recorded hours each stage was in force during an episode.
func (r *SQLite) StageHours(episode int) (map[int]int, error) {
	var rows []struct {
		Stage int `db:"stage"`
		Hours int `db:"hours"`
	}
	if err := r.conn.Select(&rows, "SELECT stage, COUNT(*) AS hours FROM ticks WHERE episode = ? GROUP BY stage", episode); err != nil {
		return nil, err
	}
	out := make(map[int]int, len(rows))
	for _, row := range rows {
		out[row.Stage] = row.Hours
	}
	return out, nil
}
