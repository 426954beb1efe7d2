package worklog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"vahire/internal/domain"
	"vahire/internal/domain/milestone"
	"vahire/internal/domain/timesheet"
	"vahire/internal/notify"
	"vahire/internal/repository/memory"
	"vahire/internal/usecase/usecasetest"
)

func newService(t *testing.T) (*Service, *memory.Store, *usecasetest.Sink) {
	t.Helper()
	store := memory.New(nil)
	sink := &usecasetest.Sink{}
	return NewService(store, sink, nil, decimal.RequireFromString("0.01"), zap.NewNop()), store, sink
}

func TestMilestone_Lifecycle(t *testing.T) {
	svc, store, sink := newService(t)
	ctx := context.Background()
	e := usecasetest.NewEngagement(t, store, 500)

	if _, err := svc.CreateMilestone(ctx, e.VA.Actor, e.Contract.ID, MilestoneInput{Title: "x", Amount: decimal.NewFromInt(10)}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("va must not create milestones, got %v", err)
	}

	m, err := svc.CreateMilestone(ctx, e.Company.Actor, e.Contract.ID, MilestoneInput{Title: "Setup", Amount: decimal.NewFromInt(300)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.JobID != e.Job.ID || m.Status != milestone.StatusPending {
		t.Fatalf("milestone = %+v", m)
	}
	if _, err := svc.CreateMilestone(ctx, e.Company.Actor, e.Contract.ID, MilestoneInput{Title: "Extra", Amount: decimal.NewFromInt(201)}); !errors.Is(err, domain.ErrMilestoneBudgetExceeded) {
		t.Fatalf("expected budget exceeded, got %v", err)
	}

	if _, err := svc.UpdateMilestoneStatus(ctx, e.Company.Actor, m.ID, MilestoneStatusInput{Status: "completed"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("company must not complete, got %v", err)
	}
	if _, err := svc.UpdateMilestoneStatus(ctx, e.Company.Actor, m.ID, MilestoneStatusInput{Status: "approved"}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("approve before complete must fail, got %v", err)
	}

	done, err := svc.UpdateMilestoneStatus(ctx, e.VA.Actor, m.ID, MilestoneStatusInput{Status: "completed"})
	if err != nil || done.CompletedAt == nil {
		t.Fatalf("complete: %+v %v", done, err)
	}

	early := done.CompletedAt.Add(-time.Hour)
	if _, err := svc.UpdateMilestoneStatus(ctx, e.Company.Actor, m.ID, MilestoneStatusInput{Status: "approved", ApprovedAt: &early}); domain.CodeOf(err) != domain.CodeInvalidTimestamps {
		t.Fatalf("expected InvalidTimestamps, got %v", err)
	}

	approved, err := svc.UpdateMilestoneStatus(ctx, e.Company.Actor, m.ID, MilestoneStatusInput{Status: "approved"})
	if err != nil || approved.Status != milestone.StatusApproved {
		t.Fatalf("approve: %+v %v", approved, err)
	}
	if _, err := svc.UpdateMilestoneStatus(ctx, e.VA.Actor, m.ID, MilestoneStatusInput{Status: "completed"}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("backward move must fail, got %v", err)
	}
	if _, err := svc.UpdateMilestoneStatus(ctx, e.VA.Actor, m.ID, MilestoneStatusInput{Status: "done"}); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected InvalidStatus, got %v", err)
	}

	list, err := svc.ListMilestones(ctx, e.VA.Actor, e.Contract.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %d %v", len(list), err)
	}
	if sink.Count(notify.EventMilestoneUpdated) != 4 {
		t.Fatalf("updates notified = %d", sink.Count(notify.EventMilestoneUpdated))
	}
}

func TestCreateMilestone_ConcurrentNeverOvershoots(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()
	e := usecasetest.NewEngagement(t, store, 500)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.CreateMilestone(ctx, e.Company.Actor, e.Contract.ID, MilestoneInput{Title: "part", Amount: decimal.NewFromInt(120)})
		}()
	}
	wg.Wait()

	sum, err := store.Milestones().SumByContract(ctx, e.Contract.ID)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if !sum.Equal(decimal.NewFromInt(480)) {
		t.Fatalf("allocated = %s", sum)
	}
}

func TestLogTimesheet_FourHourScenario(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()
	e := usecasetest.NewEngagement(t, store, 500)
	date := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	four := decimal.NewFromInt(4)

	ts, err := svc.LogTimesheet(ctx, e.VA.Actor, e.Contract.ID, TimesheetInput{Date: date, Start: "09:00", End: "13:00", TotalHours: &four})
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if !ts.TotalHours.Equal(four) || ts.Status != timesheet.StatusPending || ts.JobID != e.Job.ID {
		t.Fatalf("timesheet = %+v", ts)
	}

	if _, err := svc.ApproveTimesheet(ctx, e.VA.Actor, ts.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("va must not approve, got %v", err)
	}
	approved, err := svc.ApproveTimesheet(ctx, e.Company.Actor, ts.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != timesheet.StatusApproved || approved.ApprovedBy == nil || *approved.ApprovedBy != e.Company.Actor.AccountID {
		t.Fatalf("approved = %+v", approved)
	}
	if _, err := svc.ApproveTimesheet(ctx, e.Company.Actor, ts.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("second approval must fail, got %v", err)
	}

	list, err := svc.ListTimesheets(ctx, e.Company.Actor, e.Contract.ID)
	if err != nil || len(list) != 1 || list[0].Status != timesheet.StatusApproved {
		t.Fatalf("list = %+v %v", list, err)
	}
}

func TestLogTimesheet_Rejections(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()
	e := usecasetest.NewEngagement(t, store, 500)
	date := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	wrong := decimal.RequireFromString("4.5")

	cases := []struct {
		name string
		in   TimesheetInput
		code string
	}{
		{"mismatch", TimesheetInput{Date: date, Start: "09:00", End: "13:00", TotalHours: &wrong}, domain.CodeHoursMismatch},
		{"reversed", TimesheetInput{Date: date, Start: "13:00", End: "09:00"}, domain.CodeInvalidInput},
		{"bad clock", TimesheetInput{Date: date, Start: "9am", End: "13:00"}, domain.CodeInvalidInput},
		{"no date", TimesheetInput{Start: "09:00", End: "13:00"}, domain.CodeInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.LogTimesheet(ctx, e.VA.Actor, e.Contract.ID, tc.in); domain.CodeOf(err) != tc.code {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}

	in := TimesheetInput{Date: date, Start: "09:00", End: "10:00"}
	if _, err := svc.LogTimesheet(ctx, e.Company.Actor, e.Contract.ID, in); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("company must not log time, got %v", err)
	}
	if _, err := svc.LogTimesheet(ctx, e.VA.Actor, uuid.New(), in); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
