package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"phc-checker/internal/checksum"
	"phc-checker/internal/observability"
	"phc-checker/internal/storage"
)

const insertEntryQuery = `
	INSERT INTO TblCheckLog ([Site], [CheckedAt], [Kind], [DateTag], [Title], [URL], [CheckSum])
	VALUES (@Site, @CheckedAt, @Kind, @DateTag, @Title, @URL, @CheckSum);
`

// Repository зеркалирует журнал проверок в таблицу TblCheckLog.
// Источником истины остаётся файл, ошибки здесь проверку не прерывают.
type Repository struct {
	db             *sql.DB
	commandTimeout time.Duration
	logger         *observability.Logger
	checksum       *checksum.Generator
}

func NewRepository(dsn string, commandTimeoutMS int, logger *observability.Logger) (*Repository, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Тестируем соединение
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return newRepository(db, commandTimeoutMS, logger), nil
}

func newRepository(db *sql.DB, commandTimeoutMS int, logger *observability.Logger) *Repository {
	if logger == nil {
		logger = observability.NewNop()
	}
	return &Repository{
		db:             db,
		commandTimeout: time.Duration(commandTimeoutMS) * time.Millisecond,
		logger:         logger,
		checksum:       checksum.NewGenerator(),
	}
}

// Append сохраняет строку журнала
func (r *Repository) Append(ctx context.Context, site string, entry storage.Entry) error {
	if r.commandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.commandTimeout)
		defer cancel()
	}

	stmt, err := r.db.PrepareContext(ctx, insertEntryQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			r.logger.Error("Failed to close statement", "error", err.Error())
		}
	}()

	if _, err := stmt.ExecContext(ctx, r.namedArgs(site, entry)...); err != nil {
		return fmt.Errorf("failed to insert check log entry: %w", err)
	}

	return nil
}

// namedArgs для служебных строк поля новости пишутся как NULL
func (r *Repository) namedArgs(site string, entry storage.Entry) []any {
	var dateTag, title, url, sum sql.NullString
	if entry.Kind == storage.KindRecord {
		dateTag = sql.NullString{String: entry.Record.DateTag, Valid: true}
		title = sql.NullString{String: entry.Record.Title, Valid: true}
		url = sql.NullString{String: entry.Record.URL, Valid: true}
		sum = sql.NullString{String: r.checksum.RecordHash(entry.Record), Valid: true}
	}

	return []any{
		sql.Named("Site", site),
		sql.Named("CheckedAt", entry.Timestamp),
		sql.Named("Kind", entry.Kind.String()),
		sql.Named("DateTag", dateTag),
		sql.Named("Title", title),
		sql.Named("URL", url),
		sql.Named("CheckSum", sum),
	}
}

// Close закрывает соединение с БД
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
