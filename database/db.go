package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"

	"flightmate/config"
)

// ─── Models ──────────────────────────────────────────────────────────────────

// Search is one persisted flight-search turn: the resolved route plus the
// parameters the intent parser extracted.
type Search struct {
	ID          string    `json:"id"`
	ChatID      string    `json:"chat_id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	TravelDate  string    `json:"travel_date"`
	ReturnDate  string    `json:"return_date,omitempty"`
	Adults      int       `json:"adults"`
	Children    int       `json:"children"`
	Infants     int       `json:"infants"`
	Preference  string    `json:"preference"`
	Budget      float64   `json:"budget"`
	CreatedAt   time.Time `json:"created_at"`
}

// Itinerary stores a search's enriched recommendations and, once generated,
// the rendered PDF bytes (kept in Postgres, no filesystem involved).
type Itinerary struct {
	ID           string    `json:"id"`
	SearchID     string    `json:"search_id"`
	FlightsJSON  string    `json:"flights_json"`
	BusiestJSON  string    `json:"busiest_json"`
	PDFData      []byte    `json:"pdf_data,omitempty"`
	TravelerName string    `json:"traveler_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// ─── Store ────────────────────────────────────────────────────────────────────

type Store struct {
	db *sql.DB
}

// Open connects to Postgres, waits for it to become reachable, and runs the
// idempotent migrations.
func Open(cfg *config.Config) (*Store, error) {
	db, err := sql.Open("postgres", buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// The database may take a moment to come up alongside the service.
	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		log.Printf("⏳ Waiting for database... attempt %d/10: %v", i+1, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	log.Println("✅ Database connected and migrated")
	return s, nil
}

func buildDSN(cfg *config.Config) string {
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)
}

func (s *Store) Ping() error {
	return s.db.Ping()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ───────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS searches (
			id          TEXT PRIMARY KEY,
			chat_id     TEXT NOT NULL,
			origin      TEXT NOT NULL,
			destination TEXT NOT NULL,
			travel_date TEXT NOT NULL,
			return_date TEXT,
			adults      INTEGER DEFAULT 1,
			children    INTEGER DEFAULT 0,
			infants     INTEGER DEFAULT 0,
			preference  TEXT,
			budget      NUMERIC(12,2) DEFAULT 0,
			created_at  TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS itineraries (
			id            TEXT PRIMARY KEY,
			search_id     TEXT NOT NULL REFERENCES searches(id),
			flights_json  TEXT,
			busiest_json  TEXT,
			pdf_data      BYTEA,
			traveler_name TEXT,
			created_at    TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_itineraries_search_id
			ON itineraries(search_id)`,

		`CREATE INDEX IF NOT EXISTS idx_searches_chat_id
			ON searches(chat_id)`,

		`CREATE INDEX IF NOT EXISTS idx_searches_created_at
			ON searches(created_at DESC)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── CRUD ─────────────────────────────────────────────────────────────────────

func (s *Store) SaveSearch(search *Search) error {
	_, err := s.db.Exec(`
		INSERT INTO searches (id, chat_id, origin, destination, travel_date, return_date, adults, children, infants, preference, budget)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		search.ID, search.ChatID, search.Origin, search.Destination, search.TravelDate,
		search.ReturnDate, search.Adults, search.Children, search.Infants, search.Preference, search.Budget)
	return err
}

func (s *Store) GetSearch(id string) (*Search, error) {
	search := &Search{}
	err := s.db.QueryRow(`
		SELECT id, chat_id, origin, destination, travel_date, COALESCE(return_date, ''), adults, children, infants, COALESCE(preference, ''), budget, created_at
		FROM searches WHERE id = $1`, id).
		Scan(&search.ID, &search.ChatID, &search.Origin, &search.Destination, &search.TravelDate,
			&search.ReturnDate, &search.Adults, &search.Children, &search.Infants,
			&search.Preference, &search.Budget, &search.CreatedAt)
	if err != nil {
		return nil, err
	}
	return search, nil
}

func (s *Store) SaveItinerary(i *Itinerary) error {
	_, err := s.db.Exec(`
		INSERT INTO itineraries (id, search_id, flights_json, busiest_json, pdf_data, traveler_name)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		i.ID, i.SearchID, i.FlightsJSON, i.BusiestJSON, i.PDFData, i.TravelerName)
	return err
}

func (s *Store) GetItinerary(id string) (*Itinerary, error) {
	i := &Itinerary{}
	err := s.db.QueryRow(`
		SELECT id, search_id, COALESCE(flights_json, ''), COALESCE(busiest_json, ''), pdf_data, COALESCE(traveler_name, ''), created_at
		FROM itineraries WHERE id = $1`, id).
		Scan(&i.ID, &i.SearchID, &i.FlightsJSON, &i.BusiestJSON, &i.PDFData, &i.TravelerName, &i.CreatedAt)
	if err != nil {
		return nil, err
	}
	return i, nil
}

func (s *Store) GetItineraryBySearchID(searchID string) (*Itinerary, error) {
	i := &Itinerary{}
	err := s.db.QueryRow(`
		SELECT id, search_id, COALESCE(flights_json, ''), COALESCE(busiest_json, ''), pdf_data, COALESCE(traveler_name, ''), created_at
		FROM itineraries WHERE search_id = $1
		ORDER BY created_at DESC LIMIT 1`, searchID).
		Scan(&i.ID, &i.SearchID, &i.FlightsJSON, &i.BusiestJSON, &i.PDFData, &i.TravelerName, &i.CreatedAt)
	if err != nil {
		return nil, err
	}
	return i, nil
}
