package service

import (
	"context"
	"slices"

	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/logger"
	"ecodefill-backend/internal/roster"
	"ecodefill-backend/internal/telemetry"
)

type adminService struct {
	roster    Roster
	telemetry Telemetry
	emailSvc  EmailService
}

func NewAdminService(r Roster, t Telemetry, emailSvc EmailService) AdminService {
	return &adminService{roster: r, telemetry: t, emailSvc: emailSvc}
}

func (s *adminService) Members(ctx context.Context) roster.State {
	return s.roster.State()
}

func (s *adminService) WatchMembers(fn func(roster.State)) (cancel func()) {
	return s.roster.Watch(fn)
}

// SetRegistrationStatus applies the decision and, for approvals and
// rejections that changed the record, emails the student. Email failures are
// logged only.
func (s *adminService) SetRegistrationStatus(ctx context.Context, uid string, status domain.RegistrationStatus) error {
	logger.EnterMethod("adminService.SetRegistrationStatus", "uid", uid, "status", status)

	var member *domain.MemberView
	members := s.roster.State().Members
	if i := slices.IndexFunc(members, func(m domain.MemberView) bool { return m.UID == uid }); i >= 0 {
		member = &members[i]
	}

	outcome, err := s.roster.ChangeStatus(ctx, uid, status)
	if err != nil {
		logger.ExitMethodWithError("adminService.SetRegistrationStatus", err, "uid", uid)
		return err
	}

	// A repeated decision writes nothing and must not email the student again.
	if outcome != roster.OutcomeUnchanged && member != nil && member.Email != "" && status != domain.RegistrationStatusPending {
		if err := s.emailSvc.SendRegistrationStatusNotification(ctx, member.Email, member.Name, status); err != nil {
			logger.Warn("Failed to send registration status email", "uid", uid, "error", err)
		}
	}

	logger.ExitMethod("adminService.SetRegistrationStatus", "uid", uid, "status", status)
	return nil
}

func (s *adminService) MachineStats(ctx context.Context) telemetry.State {
	return s.telemetry.State()
}
