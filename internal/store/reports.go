package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/arjun/vita/internal/roma"
)

// ReportStore persists aggregated weekly reports. Writes per record are
// serialized by the database; the engine itself never touches the store.
type ReportStore struct {
	DB *sql.DB
}

func NewReportStore(dbPath string) (*ReportStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Create tables if not exist
	query := `CREATE TABLE IF NOT EXISTS reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TEXT NOT NULL,
		payload TEXT NOT NULL,
		report TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'ok'
	);`
	if _, err := db.Exec(query); err != nil {
		return nil, err
	}

	return &ReportStore{DB: db}, nil
}

// SaveReport stores the payload that was analyzed together with the full
// aggregate result, returning the new record id.
func (s *ReportStore) SaveReport(payload map[string]any, result roma.AggregateResult) (int64, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	reportJSON, err := json.Marshal(result)
	if err != nil {
		return 0, err
	}

	res, err := s.DB.Exec(
		`INSERT INTO reports (created_at, payload, report, status) VALUES (?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339),
		string(payloadJSON),
		string(reportJSON),
		string(result.Status),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ReportSummary is the listing view of a stored report.
type ReportSummary struct {
	ID        int64  `json:"id"`
	CreatedAt string `json:"created_at"`
	Status    string `json:"status"`
}

// Report is a fully hydrated stored report.
type Report struct {
	ID        int64                `json:"id"`
	CreatedAt string               `json:"created_at"`
	Payload   map[string]any       `json:"payload"`
	Result    roma.AggregateResult `json:"result"`
}

// ListReports returns the most recent reports, newest first.
func (s *ReportStore) ListReports(limit int) ([]ReportSummary, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.DB.Query(
		`SELECT id, created_at, status FROM reports ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []ReportSummary
	for rows.Next() {
		var r ReportSummary
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Status); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// GetReport fetches one report by id. A missing id returns (nil, nil).
func (s *ReportStore) GetReport(id int64) (*Report, error) {
	var (
		r           Report
		payloadJSON string
		reportJSON  string
	)
	err := s.DB.QueryRow(
		`SELECT id, created_at, payload, report FROM reports WHERE id = ?`, id,
	).Scan(&r.ID, &r.CreatedAt, &payloadJSON, &reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(payloadJSON), &r.Payload); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(reportJSON), &r.Result); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *ReportStore) Close() error {
	return s.DB.Close()
}
