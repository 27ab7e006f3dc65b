// ════════════════════════════════════════════════════════════════════════════════════════════════
// Benchmark Results Store
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: SQLite Persistence of Grid Runs
//
// Description:
//   Records every payload run (core count, activation core, hourglass statistics, topology) and
//   every grid cell in a local SQLite database so runs on different machines or configurations
//   can be compared later. Nested records are stored as JSON columns.
//
// Schema:
//   runs(id, started_at, cores, activator, accesses, hourglass, topology)
//   cells(run_id, stride_bytes, range_bytes, elapsed_ns, ns_per_access)
// ════════════════════════════════════════════════════════════════════════════════════════════════

package results

import (
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sugawarayuuta/sonnet"

	"smpbench/bench"
	"smpbench/debug"
	"smpbench/topology"
)

// ErrNotFound is returned by LoadRun for an unknown id.
var ErrNotFound = errors.New("results: run not found")

// Run is one recorded payload execution.
type Run struct {
	ID        int64                  `json:"id"`
	Started   time.Time              `json:"started"`
	Cores     int                    `json:"cores"`
	Activator int                    `json:"activator"`
	Grid      *bench.Grid            `json:"grid,omitempty"`
	Hourglass []bench.HourglassStats `json:"hourglass,omitempty"`
	Topology  *topology.Topology     `json:"topology,omitempty"`
}

// Store wraps the results database.
type Store struct {
	db *sql.DB
}

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at INTEGER NOT NULL,
	cores      INTEGER NOT NULL,
	activator  INTEGER NOT NULL,
	accesses   INTEGER NOT NULL,
	hourglass  TEXT,
	topology   TEXT
);
CREATE TABLE IF NOT EXISTS cells (
	run_id        INTEGER NOT NULL REFERENCES runs(id),
	stride_bytes  INTEGER NOT NULL,
	range_bytes   INTEGER NOT NULL,
	elapsed_ns    INTEGER NOT NULL,
	ns_per_access REAL    NOT NULL,
	PRIMARY KEY (run_id, stride_bytes, range_bytes)
);`

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("results: open %s: %w", path, err)
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("results: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("results: schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun inserts r and all of its grid cells in one transaction and
// returns the new run id.
func (s *Store) SaveRun(r *Run) (int64, error) {
	hg, err := marshalOrNil(r.Hourglass, len(r.Hourglass) > 0)
	if err != nil {
		return 0, err
	}
	topo, err := marshalOrNil(r.Topology, r.Topology != nil)
	if err != nil {
		return 0, err
	}
	accesses := 0
	if r.Grid != nil {
		accesses = r.Grid.Accesses
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("results: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO runs (started_at, cores, activator, accesses, hourglass, topology)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.Started.UnixNano(), r.Cores, r.Activator, accesses, hg, topo)
	if err != nil {
		return 0, fmt.Errorf("results: insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("results: run id: %w", err)
	}

	if r.Grid != nil {
		stmt, err := tx.Prepare(`INSERT INTO cells (run_id, stride_bytes, range_bytes, elapsed_ns, ns_per_access)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, fmt.Errorf("results: prepare cells: %w", err)
		}
		defer stmt.Close()
		for _, row := range r.Grid.Cells {
			for _, c := range row {
				if _, err := stmt.Exec(id, int64(c.Stride), int64(c.Range), c.Elapsed.Nanoseconds(), c.NsPerAccess); err != nil {
					return 0, fmt.Errorf("results: insert cell %dx%d: %w", c.Stride, c.Range, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("results: commit: %w", err)
	}
	r.ID = id
	debug.DropMessage("RESULTS", fmt.Sprintf("saved run %d", id))
	return id, nil
}

// LoadRun reads run id back, rebuilding its grid in ascending order.
func (s *Store) LoadRun(id int64) (*Run, error) {
	var (
		r        Run
		started  int64
		accesses int
		hg, topo sql.NullString
	)
	err := s.db.QueryRow(`SELECT id, started_at, cores, activator, accesses, hourglass, topology
		FROM runs WHERE id = ?`, id).Scan(&r.ID, &started, &r.Cores, &r.Activator, &accesses, &hg, &topo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("results: load run %d: %w", id, err)
	}
	r.Started = time.Unix(0, started).UTC()

	if hg.Valid {
		if err := sonnet.Unmarshal([]byte(hg.String), &r.Hourglass); err != nil {
			return nil, fmt.Errorf("results: decode hourglass: %w", err)
		}
	}
	if topo.Valid {
		r.Topology = new(topology.Topology)
		if err := sonnet.Unmarshal([]byte(topo.String), r.Topology); err != nil {
			return nil, fmt.Errorf("results: decode topology: %w", err)
		}
	}

	cells, err := s.loadCells(id)
	if err != nil {
		return nil, err
	}
	if len(cells) > 0 {
		r.Grid = assemble(cells, accesses)
	}
	return &r, nil
}

// ListRuns returns every run id, oldest first.
func (s *Store) ListRuns() ([]int64, error) {
	rows, err := s.db.Query(`SELECT id FROM runs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("results: list runs: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("results: scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) loadCells(id int64) ([]bench.Cell, error) {
	rows, err := s.db.Query(`SELECT stride_bytes, range_bytes, elapsed_ns, ns_per_access
		FROM cells WHERE run_id = ? ORDER BY stride_bytes, range_bytes`, id)
	if err != nil {
		return nil, fmt.Errorf("results: load cells: %w", err)
	}
	defer rows.Close()

	var cells []bench.Cell
	for rows.Next() {
		var (
			c               bench.Cell
			stride, rng, ns int64
		)
		if err := rows.Scan(&stride, &rng, &ns, &c.NsPerAccess); err != nil {
			return nil, fmt.Errorf("results: scan cell: %w", err)
		}
		c.Stride, c.Range, c.Elapsed = uint64(stride), uint64(rng), time.Duration(ns)
		cells = append(cells, c)
	}
	return cells, rows.Err()
}

// assemble rebuilds a grid from cells sorted by (stride, range).
func assemble(cells []bench.Cell, accesses int) *bench.Grid {
	g := &bench.Grid{Accesses: accesses}
	for _, c := range cells {
		if !slices.Contains(g.Strides, c.Stride) {
			g.Strides = append(g.Strides, c.Stride)
			g.Cells = append(g.Cells, nil)
		}
		if !slices.Contains(g.Ranges, c.Range) {
			g.Ranges = append(g.Ranges, c.Range)
		}
		last := len(g.Cells) - 1
		g.Cells[last] = append(g.Cells[last], c)
	}
	slices.Sort(g.Ranges)
	return g
}

func marshalOrNil(v any, present bool) (any, error) {
	if !present {
		return nil, nil
	}
	b, err := sonnet.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("results: encode: %w", err)
	}
	return string(b), nil
}
