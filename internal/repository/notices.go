package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/taxdesk/taxcase-tracker/internal/common"
)

// Notice is one received notice document. Sections and Annexure hold
// JSON-serialized string lists exactly as stored.
type Notice struct {
	ID             int64
	PANNumber      string
	Date           string
	DINNumber      string
	Address        string
	Sections       string
	AssessmentYear string
	Annexure       string
	FileLocation   string
	FileType       string
	Filename       string
	FullText       string
	Status         string
}

const noticeColumns = `id, pan_number, date, din_number, address, sections,
	assessment_year, annexure, fileLocation, fileType, filename, full_text, status`

// updatableNoticeColumns is the allow-list for caller-supplied field
// updates. The legacy system wrote any column name the caller sent; that
// open-schema update is deliberately not reproduced.
var updatableNoticeColumns = map[string]struct{}{
	"pan_number":      {},
	"date":            {},
	"din_number":      {},
	"address":         {},
	"sections":        {},
	"assessment_year": {},
	"annexure":        {},
	"fileLocation":    {},
	"fileType":        {},
	"filename":        {},
	"status":          {},
}

type NoticeRepository interface {
	Insert(ctx context.Context, n *Notice) (int64, error)
	List(ctx context.Context) ([]*Notice, error)
	Get(ctx context.Context, id int64) (*Notice, error)
	LatestByPAN(ctx context.Context, pan string) (*Notice, error)
	Update(ctx context.Context, id int64, fields map[string]any) error
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int64, error)
	SetStatusByPAN(ctx context.Context, pan, status string) (int64, error)
	CountCases(ctx context.Context) (int64, error)
	CountPendingCases(ctx context.Context) (int64, error)
	FindDuplicate(ctx context.Context, filename, date, din, fullText string) (*Notice, error)
}

type noticeRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewNoticeRepository(db *sql.DB, logger *slog.Logger) NoticeRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &noticeRepository{db: db, logger: logger.With("component", "notice-repo")}
}

func (r *noticeRepository) Insert(ctx context.Context, n *Notice) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO Notice (pan_number, date, din_number, address, sections,
			assessment_year, annexure, fileLocation, fileType, filename, full_text, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.PANNumber, n.Date, n.DINNumber, n.Address, n.Sections,
		n.AssessmentYear, n.Annexure, n.FileLocation, n.FileType,
		n.Filename, n.FullText, statusOrOpen(n.Status),
	)
	if err != nil {
		r.logger.Error("insert notice failed", "pan", n.PANNumber, "error", err)
		return 0, common.WrapError(common.ErrStore, err.Error())
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, common.WrapError(common.ErrStore, err.Error())
	}
	n.ID = id
	return id, nil
}

func (r *noticeRepository) List(ctx context.Context) ([]*Notice, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+noticeColumns+` FROM Notice`)
	if err != nil {
		return nil, common.WrapError(common.ErrStore, err.Error())
	}
	defer rows.Close()

	var out []*Notice
	for rows.Next() {
		n, err := scanNotice(rows)
		if err != nil {
			return nil, common.WrapError(common.ErrStore, err.Error())
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *noticeRepository) Get(ctx context.Context, id int64) (*Notice, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+noticeColumns+` FROM Notice WHERE id = ?`, id)
	n, err := scanNotice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapError(common.ErrStore, err.Error())
	}
	return n, nil
}

// LatestByPAN returns the most recent notice for a taxpayer, ordered by
// filing date descending. There is no guarantee it is the notice the
// caller means when a taxpayer has several open notices.
func (r *noticeRepository) LatestByPAN(ctx context.Context, pan string) (*Notice, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+noticeColumns+` FROM Notice WHERE pan_number = ? ORDER BY date DESC LIMIT 1`, pan)
	n, err := scanNotice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapError(common.ErrStore, err.Error())
	}
	return n, nil
}

func (r *noticeRepository) Update(ctx context.Context, id int64, fields map[string]any) error {
	if len(fields) == 0 {
		return common.NewAppError(common.ErrInvalidInput, 400, "no fields to update")
	}

	cols := make([]string, 0, len(fields))
	for col := range fields {
		if _, ok := updatableNoticeColumns[col]; !ok {
			return common.NewAppErrorf(common.ErrInvalidInput, 400, "field %q is not updatable", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	setClause := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for _, col := range cols {
		setClause = append(setClause, col+" = ?")
		args = append(args, fields[col])
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx,
		`UPDATE Notice SET `+strings.Join(setClause, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return common.WrapError(common.ErrStore, err.Error())
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return common.WrapError(common.ErrStore, err.Error())
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *noticeRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM Notice WHERE id = ?`, id)
	if err != nil {
		return common.WrapError(common.ErrStore, err.Error())
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return common.WrapError(common.ErrStore, err.Error())
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

// DeleteAll removes every notice. An already-empty table is reported as
// ErrNotFound, not as success; "nothing to do" is an error signal here.
func (r *noticeRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM Notice`)
	if err != nil {
		return 0, common.WrapError(common.ErrStore, err.Error())
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, common.WrapError(common.ErrStore, err.Error())
	}
	if affected == 0 {
		return 0, common.ErrNotFound
	}
	return affected, nil
}

func (r *noticeRepository) SetStatusByPAN(ctx context.Context, pan, status string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE Notice SET status = ? WHERE pan_number = ?`, status, pan)
	if err != nil {
		return 0, common.WrapError(common.ErrStore, err.Error())
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, common.WrapError(common.ErrStore, err.Error())
	}
	return affected, nil
}

// CountCases counts distinct taxpayer identifiers across all notices.
func (r *noticeRepository) CountCases(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT pan_number) FROM Notice`).Scan(&n)
	if err != nil {
		return 0, common.WrapError(common.ErrStore, err.Error())
	}
	return n, nil
}

// CountPendingCases is CountCases restricted to open notices.
func (r *noticeRepository) CountPendingCases(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT pan_number) FROM Notice WHERE status = 'open'`).Scan(&n)
	if err != nil {
		return 0, common.WrapError(common.ErrStore, err.Error())
	}
	return n, nil
}

func (r *noticeRepository) FindDuplicate(ctx context.Context, filename, date, din, fullText string) (*Notice, error) {
	id, err := findDuplicateID(ctx, r.db, "Notice", filename,
		[]fieldMatch{{"date", date}, {"din_number", din}}, fullText)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, nil
	}
	return r.Get(ctx, id)
}

func statusOrOpen(s string) string {
	if s == "" {
		return "open"
	}
	return s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotice(row rowScanner) (*Notice, error) {
	var n Notice
	var (
		pan, date, din, address, sections        sql.NullString
		ay, annexure, loc, ftype, fname, text, st sql.NullString
	)
	if err := row.Scan(&n.ID, &pan, &date, &din, &address, &sections,
		&ay, &annexure, &loc, &ftype, &fname, &text, &st); err != nil {
		return nil, err
	}
	n.PANNumber = pan.String
	n.Date = date.String
	n.DINNumber = din.String
	n.Address = address.String
	n.Sections = sections.String
	n.AssessmentYear = ay.String
	n.Annexure = annexure.String
	n.FileLocation = loc.String
	n.FileType = ftype.String
	n.Filename = fname.String
	n.FullText = text.String
	n.Status = st.String
	return &n, nil
}
