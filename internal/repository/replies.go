package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/taxdesk/taxcase-tracker/internal/common"
)

// Reply is one received reply document, referencing the notice it answers.
// NoticeDate is a denormalized copy of the owning notice's filing date.
type Reply struct {
	ID             int64
	PANNumber      string
	NoticeID       int64
	NoticeDate     string
	ReplyDate      string
	Subject        string
	AssessmentYear string
	ReplyFrom      string
	ReplyEmail     string
	ReplyMobile    string
	ReplyContent   string // JSON-serialized list
	Summary        string // annexure-vs-response coverage text
	FileLocation   string
	FileType       string
	FinalOpinion   string
	Filename       string
	FullText       string
	Status         string
}

const replyColumns = `id, pan_number, notice_id, notice_date, reply_date, subject,
	assessment_year, reply_from, reply_email, reply_mobile, reply_content, summary,
	fileLocation, fileType, finalOpinion, filename, full_text, status`

type ReplyRepository interface {
	Insert(ctx context.Context, rp *Reply) (int64, error)
	List(ctx context.Context) ([]*Reply, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int64, error)
	SetStatusByPAN(ctx context.Context, pan, status string) (int64, error)
	FindDuplicate(ctx context.Context, filename, replyDate, fullText string) (*Reply, error)
}

type replyRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewReplyRepository(db *sql.DB, logger *slog.Logger) ReplyRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &replyRepository{db: db, logger: logger.With("component", "reply-repo")}
}

func (r *replyRepository) Insert(ctx context.Context, rp *Reply) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO Reply (pan_number, notice_id, notice_date, reply_date, subject,
			assessment_year, reply_from, reply_email, reply_mobile, reply_content,
			summary, fileLocation, fileType, finalOpinion, filename, full_text, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rp.PANNumber, rp.NoticeID, rp.NoticeDate, rp.ReplyDate, rp.Subject,
		rp.AssessmentYear, rp.ReplyFrom, rp.ReplyEmail, rp.ReplyMobile, rp.ReplyContent,
		rp.Summary, rp.FileLocation, rp.FileType, rp.FinalOpinion, rp.Filename,
		rp.FullText, statusOrOpen(rp.Status),
	)
	if err != nil {
		r.logger.Error("insert reply failed", "pan", rp.PANNumber, "error", err)
		return 0, common.WrapError(common.ErrStore, err.Error())
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, common.WrapError(common.ErrStore, err.Error())
	}
	rp.ID = id
	return id, nil
}

func (r *replyRepository) List(ctx context.Context) ([]*Reply, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+replyColumns+` FROM Reply`)
	if err != nil {
		return nil, common.WrapError(common.ErrStore, err.Error())
	}
	defer rows.Close()

	var out []*Reply
	for rows.Next() {
		rp, err := scanReply(rows)
		if err != nil {
			return nil, common.WrapError(common.ErrStore, err.Error())
		}
		out = append(out, rp)
	}
	return out, rows.Err()
}

func (r *replyRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM Reply WHERE id = ?`, id)
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

func (r *replyRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM Reply`)
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

func (r *replyRepository) SetStatusByPAN(ctx context.Context, pan, status string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE Reply SET status = ? WHERE pan_number = ?`, status, pan)
	if err != nil {
		return 0, common.WrapError(common.ErrStore, err.Error())
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, common.WrapError(common.ErrStore, err.Error())
	}
	return affected, nil
}

func (r *replyRepository) FindDuplicate(ctx context.Context, filename, replyDate, fullText string) (*Reply, error) {
	id, err := findDuplicateID(ctx, r.db, "Reply", filename,
		[]fieldMatch{{"reply_date", replyDate}}, fullText)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, nil
	}
	return r.get(ctx, id)
}

func (r *replyRepository) get(ctx context.Context, id int64) (*Reply, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+replyColumns+` FROM Reply WHERE id = ?`, id)
	rp, err := scanReply(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapError(common.ErrStore, err.Error())
	}
	return rp, nil
}

func scanReply(row rowScanner) (*Reply, error) {
	var rp Reply
	var noticeID sql.NullInt64
	var (
		pan, ndate, rdate, subject, ay, from    sql.NullString
		email, mobile, content, summary         sql.NullString
		loc, ftype, opinion, fname, text, st    sql.NullString
	)
	if err := row.Scan(&rp.ID, &pan, &noticeID, &ndate, &rdate, &subject,
		&ay, &from, &email, &mobile, &content, &summary,
		&loc, &ftype, &opinion, &fname, &text, &st); err != nil {
		return nil, err
	}
	rp.PANNumber = pan.String
	rp.NoticeID = noticeID.Int64
	rp.NoticeDate = ndate.String
	rp.ReplyDate = rdate.String
	rp.Subject = subject.String
	rp.AssessmentYear = ay.String
	rp.ReplyFrom = from.String
	rp.ReplyEmail = email.String
	rp.ReplyMobile = mobile.String
	rp.ReplyContent = content.String
	rp.Summary = summary.String
	rp.FileLocation = loc.String
	rp.FileType = ftype.String
	rp.FinalOpinion = opinion.String
	rp.Filename = fname.String
	rp.FullText = text.String
	rp.Status = st.String
	return &rp, nil
}
