package candidates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"resume-ingest/internal/shared/storage/db"
)

const pgUniqueViolation = "23505"

// columns in table order, matching Record.Values.
var sqlColumns = []string{
	"name",
	"emails",
	"mobile",
	"present_salary",
	"expected_salary",
	"date_of_birth",
	"permanent_address",
	"company_with_duration",
	"job_title_with_duration",
	"institution",
	"graduation",
	"total_years_of_experience",
}

// SQLRepo implements Repo for Postgres and SQLite.
type SQLRepo struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func (r *SQLRepo) placeholder(n int) string {
	if r.Dialect == db.SQLite {
		return "?"
	}
	return fmt.Sprintf("$%d", n)
}

func (r *SQLRepo) likeOp() string {
	if r.Dialect == db.SQLite {
		return "LIKE"
	}
	return "ILIKE"
}

// Insert adds one row. Unique violations on emails or mobile map to ErrConflict.
func (r *SQLRepo) Insert(ctx context.Context, rec StoredRecord) error {
	cols := append([]string{"id"}, sqlColumns...)
	cols = append(cols, "created_at")

	args := make([]any, 0, len(cols))
	args = append(args, rec.ID)
	for _, v := range rec.Values() {
		args = append(args, v)
	}
	args = append(args, rec.CreatedAt)

	marks := make([]string, len(cols))
	for i := range cols {
		marks[i] = r.placeholder(i + 1)
	}
	query := fmt.Sprintf("INSERT INTO resumes (%s) VALUES (%s)", strings.Join(cols, ", "), strings.Join(marks, ", "))

	if _, err := r.DB.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return err
	}
	return nil
}

// Search builds an ANDed WHERE clause from the set filters.
func (r *SQLRepo) Search(ctx context.Context, f Filters) ([]StoredRecord, error) {
	query, args := r.searchQuery(f.Normalized())
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]StoredRecord, 0)
	for rows.Next() {
		var rec StoredRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Name,
			&rec.Emails,
			&rec.Mobile,
			&rec.PresentSalary,
			&rec.ExpectedSalary,
			&rec.DateOfBirth,
			&rec.PermanentAddress,
			&rec.CompanyWithDuration,
			&rec.JobTitleWithDuration,
			&rec.Institution,
			&rec.Graduation,
			&rec.TotalYearsOfExperience,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SQLRepo) searchQuery(f Filters) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, r.placeholder(len(args))))
	}
	if f.CreatedAt != "" {
		add("substr(created_at, 1, 10) = %s", f.CreatedAt)
	}
	if f.Graduation != "" {
		add("graduation "+r.likeOp()+" %s", "%"+f.Graduation+"%")
	}
	if f.Experience != "" {
		add("total_years_of_experience "+r.likeOp()+" %s", "%"+f.Experience+"%")
	}
	if f.Mobile != "" {
		add("mobile "+r.likeOp()+" %s", "%"+f.Mobile+"%")
	}

	var b strings.Builder
	b.WriteString("SELECT id, ")
	b.WriteString(strings.Join(sqlColumns, ", "))
	b.WriteString(", created_at FROM resumes")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at, id")
	return b.String(), args
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
		}
	}
	return false
}
