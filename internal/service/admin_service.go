package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"os"
	"time"

	"line-intake-bot/internal/dto"
	"line-intake-bot/internal/entity"
	"line-intake-bot/internal/pkg/serverutils"
	"line-intake-bot/internal/repository"
	"line-intake-bot/pkg/sheets"
	"line-intake-bot/pkg/survey"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// IAdminService backs the operator surface: inspecting live sessions,
// browsing archived submissions and retrying failed deliveries.
type IAdminService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	ListSessions(ctx context.Context) ([]dto.SessionSummaryResponse, error)
	ExpireSession(ctx context.Context, userID string) error
	ListSubmissions(ctx context.Context, status string, page, limit int) (*dto.SubmissionListResponse, error)
	ResubmitSubmission(ctx context.Context, id uuid.UUID) (*dto.SubmissionResponse, error)
}

type adminService struct {
	sessions survey.Repository
	archive  repository.SubmissionRepository // nil when no database is configured
	sheet    sheets.Submitter
}

func NewAdminService(
	sessions survey.Repository,
	archive repository.SubmissionRepository,
	sheet sheets.Submitter,
) IAdminService {
	return &adminService{
		sessions: sessions,
		archive:  archive,
		sheet:    sheet,
	}
}

func (s *adminService) Login(_ context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	wantUser := os.Getenv("ADMIN_USERNAME")
	wantPass := os.Getenv("ADMIN_PASSWORD")
	if wantUser == "" || wantPass == "" {
		return nil, serverutils.NewApiError(fiber.StatusServiceUnavailable, "Admin access is not configured")
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(wantUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(wantPass)) == 1
	if !userOK || !passOK {
		return nil, serverutils.NewApiError(fiber.StatusUnauthorized, "Invalid credentials")
	}

	claims := jwt.MapClaims{
		"sub":  req.Username,
		"role": "admin",
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(os.Getenv("JWT_SECRET")))
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{Token: signed}, nil
}

func (s *adminService) ListSessions(ctx context.Context) ([]dto.SessionSummaryResponse, error) {
	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SessionSummaryResponse, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, dto.SessionSummaryResponse{
			UserID:    session.UserID,
			Position:  session.Position,
			Answered:  len(session.Answers),
			UpdatedAt: session.UpdatedAt,
		})
	}
	return out, nil
}

func (s *adminService) ExpireSession(ctx context.Context, userID string) error {
	return s.sessions.Delete(ctx, userID)
}

func (s *adminService) ListSubmissions(ctx context.Context, status string, page, limit int) (*dto.SubmissionListResponse, error) {
	if s.archive == nil {
		return nil, serverutils.NewApiError(fiber.StatusServiceUnavailable, "Submission archive is not configured")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	submissions, total, err := s.archive.FindAll(ctx, status, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	res := &dto.SubmissionListResponse{Total: total, Items: make([]dto.SubmissionResponse, 0, len(submissions))}
	for i := range submissions {
		res.Items = append(res.Items, toSubmissionResponse(&submissions[i]))
	}
	return res, nil
}

// ResubmitSubmission retries the spreadsheet delivery of a parked
// submission by hand.
func (s *adminService) ResubmitSubmission(ctx context.Context, id uuid.UUID) (*dto.SubmissionResponse, error) {
	if s.archive == nil {
		return nil, serverutils.NewApiError(fiber.StatusServiceUnavailable, "Submission archive is not configured")
	}

	submission, err := s.archive.FindByID(ctx, id)
	if err != nil {
		return nil, serverutils.NewApiError(fiber.StatusNotFound, "Submission not found")
	}

	var fields map[string]string
	if err := json.Unmarshal(submission.Fields, &fields); err != nil {
		return nil, err
	}

	attempts := submission.Attempts + 1
	if err := s.sheet.Submit(ctx, submission.UserID, fields); err != nil {
		if markErr := s.archive.MarkFailed(ctx, id, attempts, err.Error()); markErr != nil {
			return nil, markErr
		}
		return nil, serverutils.NewApiError(fiber.StatusBadGateway, "Sheet delivery failed: "+err.Error())
	}

	if err := s.archive.MarkDelivered(ctx, id, attempts); err != nil {
		return nil, err
	}

	updated, err := s.archive.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res := toSubmissionResponse(updated)
	return &res, nil
}

func toSubmissionResponse(submission *entity.Submission) dto.SubmissionResponse {
	var fields map[string]string
	_ = json.Unmarshal(submission.Fields, &fields)
	return dto.SubmissionResponse{
		ID:          submission.ID,
		UserID:      submission.UserID,
		Fields:      fields,
		Status:      submission.Status,
		Attempts:    submission.Attempts,
		LastError:   submission.LastError,
		SubmittedAt: submission.SubmittedAt,
		DeliveredAt: submission.DeliveredAt,
	}
}
