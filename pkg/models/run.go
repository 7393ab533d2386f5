package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ImportRun is one journaled pass of the ingestion pipeline.
type ImportRun struct {
	bun.BaseModel `bun:"table:import_runs,alias:ir"`

	ID            string    `bun:",pk"`
	Source        string    `bun:",notnull"`
	TotalLines    int       `bun:",notnull"`
	ParsedCount   int       `bun:",notnull"`
	InvalidCount  int       `bun:",notnull"`
	ValidCount    int       `bun:",notnull,default:0"`
	ImportedCount int       `bun:",notnull,default:0"`
	ErrorCount    int       `bun:",notnull,default:0"`
	StartedAt     time.Time `bun:",notnull"`
	FinishedAt    time.Time `bun:",nullzero"`
	CreatedAt     time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

// ImportRecord is the per-line snapshot stored alongside a run: what was
// parsed from the line and how validation went for it.
type ImportRecord struct {
	bun.BaseModel `bun:"table:import_records,alias:irec"`

	ID              int64  `bun:",pk,autoincrement"`
	RunID           string `bun:",notnull"`
	SourceLine      int    `bun:",notnull"`
	Raw             string `bun:",notnull"`
	Host            string
	Port            string
	Protocol        string
	Username        string
	Type            string
	Provider        string
	ParseOK         bool `bun:",notnull"`
	ParseError      string
	Validated       bool `bun:",notnull,default:false"`
	IsValid         bool `bun:",notnull,default:false"`
	ResponseTimeMs  int64
	IPDetected      string
	Country         string
	ValidationError string

	Run *ImportRun `bun:"rel:belongs-to,join:run_id=id"`
}
