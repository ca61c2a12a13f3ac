package service

import (
	"context"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/coursedesk/internal/apperr"
	"github.com/Shivanand-hulikatti/coursedesk/internal/model"
	"github.com/Shivanand-hulikatti/coursedesk/internal/repository"
)

// PaymentService records payments and turns paid ones into enrollments.
type PaymentService struct {
	base
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(d Deps) *PaymentService {
	return &PaymentService{base: newBase(d)}
}

// Record creates a payment for a participant and course. Amount defaults
// to the course price; FinalAmount is Amount - Discount and may not be
// negative. A free payment is paid on creation and enrolls immediately.
func (s *PaymentService) Record(ctx context.Context, req model.PaymentRequest) (out *model.Payment, err error) {
	ctx, span := s.start(ctx, "payment.record")
	defer func() { s.finish(span, "record_payment", err) }()

	if req.ParticipantID == "" || req.CourseID == "" {
		return nil, invalid("participant_id and course_id are required")
	}
	method, err := model.ParsePaymentMethod(req.Method)
	if err != nil {
		return nil, err
	}
	if req.Discount < 0 {
		return nil, apperr.Invalid(ErrNegativeAmount, "discount %.2f", req.Discount)
	}
	if req.Amount != nil && *req.Amount < 0 {
		return nil, apperr.Invalid(ErrNegativeAmount, "amount %.2f", *req.Amount)
	}

	err = s.store.InTx(ctx, func(q repository.Queries) error {
		course, err := q.LockCourse(ctx, req.CourseID)
		if err != nil {
			return lookup(err, ErrCourseNotFound, "course", req.CourseID)
		}
		if _, err := q.GetParticipant(ctx, req.ParticipantID); err != nil {
			return lookup(err, ErrParticipantNotFound, "participant", req.ParticipantID)
		}

		amount := course.Price
		if req.Amount != nil {
			amount = *req.Amount
		}
		final := amount - req.Discount
		if final < 0 {
			return apperr.Invalid(ErrNegativeAmount, "final amount %.2f (amount %.2f, discount %.2f)", final, amount, req.Discount)
		}

		pending, err := q.ListPayments(ctx, repository.PaymentFilter{
			CourseID: course.ID, ParticipantID: req.ParticipantID, Status: model.PaymentPending,
		})
		if err != nil {
			return pkgerrors.Wrap(err, "check pending payments")
		}
		if len(pending) > 0 {
			return apperr.Conflict(ErrDuplicatePending, "payment %s", pending[0].ID)
		}

		now := s.timestamp()
		p := &model.Payment{
			ID:            newID(),
			ParticipantID: req.ParticipantID,
			CourseID:      course.ID,
			Amount:        amount,
			Discount:      req.Discount,
			FinalAmount:   final,
			Status:        model.PaymentPending,
			Method:        method,
			Notes:         req.Notes,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if method == model.MethodFree {
			p.Status = model.PaymentPaid
			p.PaidAt = &now
		}
		if err := q.CreatePayment(ctx, p); err != nil {
			return pkgerrors.Wrap(err, "insert payment")
		}

		if p.Status == model.PaymentPaid {
			if err := s.autoEnroll(ctx, q, course, p); err != nil {
				return err
			}
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.paymentsChanged()
	return out, nil
}

// Transition moves a payment to a new status. Allowed: pending → paid,
// pending → cancelled and any → refunded. Requesting the current status
// is a no-op, except that paid → paid re-runs the idempotent auto-enroll.
func (s *PaymentService) Transition(ctx context.Context, id string, req model.PaymentStatusRequest) (out *model.Payment, err error) {
	ctx, span := s.start(ctx, "payment.transition")
	defer func() { s.finish(span, "transition_payment", err) }()

	to, err := model.ParsePaymentStatus(req.Status)
	if err != nil {
		return nil, apperr.Invalid(ErrInvalidTransition, "status %q", req.Status)
	}

	err = s.store.InTx(ctx, func(q repository.Queries) error {
		p, err := q.GetPayment(ctx, id)
		if err != nil {
			return lookup(err, ErrPaymentNotFound, "payment", id)
		}
		course, err := q.LockCourse(ctx, p.CourseID)
		if err != nil {
			return lookup(err, ErrCourseNotFound, "course", p.CourseID)
		}
		if !transitionAllowed(p.Status, to) {
			return apperr.Invalid(ErrInvalidTransition, "%s to %s", p.Status, to)
		}

		now := s.timestamp()
		from := p.Status
		p.Status = to
		p.UpdatedAt = now
		if req.TransactionID != "" {
			p.TransactionID = req.TransactionID
		}
		if req.Notes != "" {
			p.Notes = req.Notes
		}
		switch {
		case to == model.PaymentPaid && from != model.PaymentPaid:
			p.PaidAt = &now
		case to == model.PaymentCancelled && from != model.PaymentCancelled:
			p.CancelledAt = &now
		}
		if err := q.UpdatePayment(ctx, p); err != nil {
			return pkgerrors.Wrap(err, "update payment")
		}

		if to == model.PaymentPaid {
			if err := s.autoEnroll(ctx, q, course, p); err != nil {
				return err
			}
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.paymentsChanged()
	zerolog.Ctx(ctx).Info().Str("payment_id", id).Str("status", string(to)).Msg("payment transitioned")
	return out, nil
}

func transitionAllowed(from, to model.PaymentStatus) bool {
	switch {
	case from == to:
		return true
	case to == model.PaymentRefunded:
		return true
	case from == model.PaymentPending:
		return to == model.PaymentPaid || to == model.PaymentCancelled
	}
	return false
}

// autoEnroll gives a paid payment an enrollment. If the pair already has
// one in any status nothing is created; the payment is linked to it
// either way. Capacity is not enforced here since the seat is paid for,
// but the full flag is recomputed.
func (s *PaymentService) autoEnroll(ctx context.Context, q repository.Queries, course *model.Course, p *model.Payment) error {
	existing, err := q.ListEnrollments(ctx, repository.EnrollmentFilter{
		CourseID: p.CourseID, ParticipantID: p.ParticipantID,
	})
	if err != nil {
		return pkgerrors.Wrap(err, "check enrollment for payment")
	}

	var enrollmentID string
	if len(existing) > 0 {
		enrollmentID = pickEnrollment(existing).ID
	} else {
		e := &model.Enrollment{
			ID:            newID(),
			CourseID:      p.CourseID,
			ParticipantID: p.ParticipantID,
			Status:        model.EnrollmentActive,
			Amount:        p.FinalAmount,
			Notes:         "created from payment " + p.ID,
			EnrolledAt:    s.timestamp(),
		}
		if err := q.CreateEnrollment(ctx, e); err != nil {
			return pkgerrors.Wrap(err, "auto-enroll")
		}
		enrollmentID = e.ID
		zerolog.Ctx(ctx).Info().Str("payment_id", p.ID).Str("enrollment_id", e.ID).Msg("enrollment created from payment")

		if _, err := s.recomputeFull(ctx, q, course); err != nil {
			return err
		}
	}

	if p.EnrollmentID == nil || *p.EnrollmentID != enrollmentID {
		p.EnrollmentID = &enrollmentID
		if err := q.UpdatePayment(ctx, p); err != nil {
			return pkgerrors.Wrap(err, "link payment to enrollment")
		}
	}
	return nil
}

// pickEnrollment prefers the active enrollment, then the most recent.
// Listings are ordered newest first.
func pickEnrollment(all []model.EnrollmentView) model.Enrollment {
	for _, v := range all {
		if v.Status == model.EnrollmentActive {
			return v.Enrollment
		}
	}
	return all[0].Enrollment
}

// Get returns one payment.
func (s *PaymentService) Get(ctx context.Context, id string) (*model.Payment, error) {
	p, err := s.store.GetPayment(ctx, id)
	if err != nil {
		return nil, lookup(err, ErrPaymentNotFound, "payment", id)
	}
	return p, nil
}

// List returns payments matching f, newest first.
func (s *PaymentService) List(ctx context.Context, f repository.PaymentFilter) ([]model.Payment, error) {
	out, err := s.store.ListPayments(ctx, f)
	return out, pkgerrors.Wrap(err, "list payments")
}

// Delete removes a payment. Enrollments it produced are left alone.
func (s *PaymentService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeletePayment(ctx, id); err != nil {
		return lookup(err, ErrPaymentNotFound, "payment", id)
	}
	s.paymentsChanged()
	return nil
}
