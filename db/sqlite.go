package db

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var ErrClosed = errors.New("database not initialized")

const schema = `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        request_id TEXT,
        tuition_fees_up_to_date INTEGER NOT NULL,
        scholarship_holder INTEGER NOT NULL,
        sem1_approved INTEGER NOT NULL,
        sem1_grade REAL NOT NULL,
        sem2_approved INTEGER NOT NULL,
        sem2_grade REAL NOT NULL,
        age_at_enrollment INTEGER NOT NULL,
        label TEXT NOT NULL,
        class_code INTEGER NOT NULL,
        confidence REAL,
        created_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_predictions_created ON predictions(created_at);
    CREATE TABLE IF NOT EXISTS training_log (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        model_name VARCHAR(50),
        model_path TEXT,
        accuracy REAL,
        precision REAL,
        recall REAL,
        f1 REAL,
        classes TEXT,
        trained_at DATETIME,
        data_points INTEGER
    );
    `

// Store persists prediction history and training runs in SQLite.
type Store struct {
	database *sql.DB
}

// Open creates the database file and its parent directory if needed.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// go-sqlite3 serialises writers anyway; one connection also keeps
	// ":memory:" databases shared.
	database.SetMaxOpenConns(1)
	if _, err := database.Exec(schema); err != nil {
		database.Close()
		return nil, err
	}
	return &Store{database: database}, nil
}

func (s *Store) Close() error {
	if s == nil || s.database == nil {
		return nil
	}
	return s.database.Close()
}

// PredictionRecord is one answered prediction request.
type PredictionRecord struct {
	ID                  int64     `json:"id"`
	RequestID           string    `json:"request_id,omitempty"`
	TuitionFeesUpToDate int       `json:"tuition_fees_up_to_date"`
	ScholarshipHolder   int       `json:"scholarship_holder"`
	Sem1Approved        int       `json:"sem1_approved"`
	Sem1Grade           float64   `json:"sem1_grade"`
	Sem2Approved        int       `json:"sem2_approved"`
	Sem2Grade           float64   `json:"sem2_grade"`
	AgeAtEnrollment     int       `json:"age_at_enrollment"`
	Label               string    `json:"label"`
	ClassCode           int       `json:"class_code"`
	Confidence          *float64  `json:"confidence"`
	CreatedAt           time.Time `json:"created_at"`
}

func (s *Store) SavePrediction(ctx context.Context, p PredictionRecord) (int64, error) {
	if s == nil || s.database == nil {
		return 0, ErrClosed
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	var confidence sql.NullFloat64
	if p.Confidence != nil {
		confidence = sql.NullFloat64{Float64: *p.Confidence, Valid: true}
	}
	res, err := s.database.ExecContext(ctx, `
        INSERT INTO predictions (
            request_id, tuition_fees_up_to_date, scholarship_holder, sem1_approved, sem1_grade,
            sem2_approved, sem2_grade, age_at_enrollment, label, class_code, confidence, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.RequestID, p.TuitionFeesUpToDate, p.ScholarshipHolder, p.Sem1Approved, p.Sem1Grade,
		p.Sem2Approved, p.Sem2Grade, p.AgeAtEnrollment, p.Label, p.ClassCode, confidence, p.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RecentPredictions returns up to limit predictions, newest first.
func (s *Store) RecentPredictions(ctx context.Context, limit int) ([]PredictionRecord, error) {
	if s == nil || s.database == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.database.QueryContext(ctx, `
        SELECT id, request_id, tuition_fees_up_to_date, scholarship_holder, sem1_approved, sem1_grade,
               sem2_approved, sem2_grade, age_at_enrollment, label, class_code, confidence, created_at
        FROM predictions
        ORDER BY created_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]PredictionRecord, 0)
	for rows.Next() {
		var p PredictionRecord
		var requestID sql.NullString
		var confidence sql.NullFloat64
		if err := rows.Scan(&p.ID, &requestID, &p.TuitionFeesUpToDate, &p.ScholarshipHolder, &p.Sem1Approved,
			&p.Sem1Grade, &p.Sem2Approved, &p.Sem2Grade, &p.AgeAtEnrollment, &p.Label, &p.ClassCode,
			&confidence, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.RequestID = requestID.String
		if confidence.Valid {
			c := confidence.Float64
			p.Confidence = &c
		}
		records = append(records, p)
	}
	return records, rows.Err()
}

type TrainingLog struct {
	ModelName  string    `json:"model_name"`
	ModelPath  string    `json:"model_path"`
	Accuracy   float64   `json:"accuracy"`
	Precision  float64   `json:"precision"`
	Recall     float64   `json:"recall"`
	F1         float64   `json:"f1"`
	Classes    []string  `json:"classes"`
	TrainedAt  time.Time `json:"trained_at"`
	DataPoints int       `json:"data_points"`
}

func (s *Store) SaveTrainingLog(ctx context.Context, log TrainingLog) error {
	if s == nil || s.database == nil {
		return ErrClosed
	}
	if log.TrainedAt.IsZero() {
		log.TrainedAt = time.Now().UTC()
	}
	_, err := s.database.ExecContext(ctx, `
        INSERT INTO training_log (
            model_name, model_path, accuracy, precision, recall, f1, classes, trained_at, data_points
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ModelName, log.ModelPath, log.Accuracy, log.Precision, log.Recall, log.F1,
		strings.Join(log.Classes, ","), log.TrainedAt, log.DataPoints)
	return err
}

// LoadTrainingLog returns every training run, newest first.
func (s *Store) LoadTrainingLog(ctx context.Context) ([]TrainingLog, error) {
	if s == nil || s.database == nil {
		return nil, ErrClosed
	}
	rows, err := s.database.QueryContext(ctx, `
        SELECT model_name, model_path, accuracy, precision, recall, f1, classes, trained_at, data_points
        FROM training_log
        ORDER BY trained_at DESC, id DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]TrainingLog, 0)
	for rows.Next() {
		var log TrainingLog
		var classes string
		if err := rows.Scan(&log.ModelName, &log.ModelPath, &log.Accuracy, &log.Precision, &log.Recall,
			&log.F1, &classes, &log.TrainedAt, &log.DataPoints); err != nil {
			return nil, err
		}
		if classes != "" {
			log.Classes = strings.Split(classes, ",")
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
