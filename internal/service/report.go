package service

import (
	"context"
	"sort"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/Shivanand-hulikatti/coursedesk/internal/cache"
	"github.com/Shivanand-hulikatti/coursedesk/internal/model"
	"github.com/Shivanand-hulikatti/coursedesk/internal/repository"
)

// ReportService builds the dashboard and finance read models.
type ReportService struct {
	base
}

// NewReportService constructs a ReportService.
func NewReportService(d Deps) *ReportService {
	return &ReportService{base: newBase(d)}
}

// snapshot is everything the reports aggregate over, loaded concurrently.
type snapshot struct {
	courses      []model.Course
	participants int
	enrollments  []model.EnrollmentView
	payments     []model.Payment
}

func (s *ReportService) load(ctx context.Context) (*snapshot, error) {
	var snap snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.courses, err = s.store.ListCourses(ctx)
		return pkgerrors.Wrap(err, "list courses")
	})
	g.Go(func() (err error) {
		_, snap.participants, err = s.store.ListParticipants(ctx, repository.ParticipantFilter{Limit: 1})
		return pkgerrors.Wrap(err, "count participants")
	})
	g.Go(func() (err error) {
		snap.enrollments, err = s.store.ListEnrollments(ctx, repository.EnrollmentFilter{})
		return pkgerrors.Wrap(err, "list enrollments")
	})
	g.Go(func() (err error) {
		snap.payments, err = s.store.ListPayments(ctx, repository.PaymentFilter{})
		return pkgerrors.Wrap(err, "list payments")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Dashboard returns the headline counts.
func (s *ReportService) Dashboard(ctx context.Context) (model.DashboardStats, error) {
	return cache.Get(ctx, s.cache, keyDashboard, 0, func(ctx context.Context) (model.DashboardStats, error) {
		snap, err := s.load(ctx)
		if err != nil {
			return model.DashboardStats{}, err
		}

		out := model.DashboardStats{Courses: len(snap.courses), Participants: snap.participants}
		for _, c := range snap.courses {
			if c.IsFull {
				out.FullCourses++
			}
		}
		for _, e := range snap.enrollments {
			if e.Status == model.EnrollmentActive {
				out.ActiveEnrollments++
			}
		}
		for _, p := range snap.payments {
			switch p.Status {
			case model.PaymentPending:
				out.PendingPayments++
			case model.PaymentPaid:
				out.Revenue += p.FinalAmount
			}
		}
		return out, nil
	})
}

// Finance returns payment totals and the per-course breakdown.
func (s *ReportService) Finance(ctx context.Context) (model.FinanceReport, error) {
	return cache.Get(ctx, s.cache, keyFinance, 0, func(ctx context.Context) (model.FinanceReport, error) {
		snap, err := s.load(ctx)
		if err != nil {
			return model.FinanceReport{}, err
		}
		return buildFinance(snap), nil
	})
}

func buildFinance(snap *snapshot) model.FinanceReport {
	var out model.FinanceReport

	type pair struct{ course, participant string }
	paidBy := map[pair]model.Payment{}
	hasPayment := map[pair]bool{}
	revenue := map[string]*model.CourseRevenue{}

	for _, p := range snap.payments {
		switch p.Status {
		case model.PaymentPending:
			out.Totals.Pending += p.FinalAmount
		case model.PaymentPaid:
			out.Totals.Paid += p.FinalAmount
		case model.PaymentCancelled:
			out.Totals.Cancelled += p.FinalAmount
		case model.PaymentRefunded:
			out.Totals.Refunded += p.FinalAmount
		}
		if p.FinalAmount == 0 {
			out.Totals.FreeCount++
		}

		k := pair{p.CourseID, p.ParticipantID}
		hasPayment[k] = true
		if p.Status == model.PaymentPaid {
			paidBy[k] = p
			r, ok := revenue[p.CourseID]
			if !ok {
				r = &model.CourseRevenue{CourseID: p.CourseID}
				revenue[p.CourseID] = r
			}
			r.Total += p.FinalAmount
			r.Count++
		}
	}
	out.Totals.Revenue = out.Totals.Paid

	names := make(map[string]string, len(snap.courses))
	for _, c := range snap.courses {
		names[c.ID] = c.Name
	}

	out.RevenueByCourse = make([]model.CourseRevenue, 0, len(revenue))
	for _, r := range revenue {
		r.CourseName = names[r.CourseID]
		out.RevenueByCourse = append(out.RevenueByCourse, *r)
	}
	sort.Slice(out.RevenueByCourse, func(i, j int) bool {
		a, b := out.RevenueByCourse[i], out.RevenueByCourse[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.CourseID < b.CourseID
	})

	perCourse := map[string]*model.CourseFinance{}
	out.Courses = make([]model.CourseFinance, 0, len(snap.courses))
	for _, c := range snap.courses {
		out.Courses = append(out.Courses, model.CourseFinance{CourseID: c.ID, CourseName: c.Name})
	}
	for i := range out.Courses {
		perCourse[out.Courses[i].CourseID] = &out.Courses[i]
	}
	for _, e := range snap.enrollments {
		if e.Status != model.EnrollmentActive && e.Status != model.EnrollmentCompleted {
			continue
		}
		cf, ok := perCourse[e.CourseID]
		if !ok {
			continue
		}
		cf.Enrollments++
		k := pair{e.CourseID, e.ParticipantID}
		p, paid := paidBy[k]
		switch {
		case paid && p.FinalAmount > 0:
			cf.Paying++
			cf.Revenue += p.FinalAmount
		case paid:
			cf.NonPaying++
		case !hasPayment[k]:
			cf.WithoutPayment++
		}
	}
	return out
}
