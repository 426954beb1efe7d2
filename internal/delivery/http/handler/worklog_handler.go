package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/shopspring/decimal"

	"vahire/internal/delivery/http/dto"
	"vahire/internal/domain"
	"vahire/internal/pkg/response"
	"vahire/internal/usecase/worklog"
)

type WorklogHandler struct {
	svc *worklog.Service
}

type createMilestoneRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     *string         `json:"due_date"`
	Attachments []string        `json:"attachments"`
}

type milestoneStatusRequest struct {
	Status      string  `json:"status"`
	CompletedAt *string `json:"completed_at"`
	ApprovedAt  *string `json:"approved_at"`
}

type logTimesheetRequest struct {
	Date        string           `json:"date"`
	StartTime   string           `json:"start_time"`
	EndTime     string           `json:"end_time"`
	TotalHours  *decimal.Decimal `json:"total_hours"`
	Description string           `json:"description"`
}

func NewWorklogHandler(svc *worklog.Service) *WorklogHandler {
	return &WorklogHandler{svc: svc}
}

func (h *WorklogHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/contracts/:id/milestones", h.CreateMilestone)
	r.Get("/contracts/:id/milestones", h.ListMilestones)
	r.Patch("/milestones/:id/status", h.UpdateMilestoneStatus)
	r.Post("/contracts/:id/timesheets", h.LogTimesheet)
	r.Get("/contracts/:id/timesheets", h.ListTimesheets)
	r.Post("/timesheets/:id/approve", h.ApproveTimesheet)
}

func (h *WorklogHandler) CreateMilestone(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	contractID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req createMilestoneRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	due, err := optionalTime(req.DueDate, "due_date")
	if err != nil {
		return err
	}

	m, err := h.svc.CreateMilestone(c.Context(), actor, contractID, worklog.MilestoneInput{
		Title:       req.Title,
		Description: req.Description,
		Amount:      req.Amount,
		DueDate:     due,
		Attachments: req.Attachments,
	})
	if err != nil {
		return err
	}
	return response.Created(c, dto.NewMilestoneResponse(m))
}

func (h *WorklogHandler) UpdateMilestoneStatus(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req milestoneStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	completedAt, err := optionalTime(req.CompletedAt, "completed_at")
	if err != nil {
		return err
	}
	approvedAt, err := optionalTime(req.ApprovedAt, "approved_at")
	if err != nil {
		return err
	}

	m, err := h.svc.UpdateMilestoneStatus(c.Context(), actor, id, worklog.MilestoneStatusInput{
		Status:      req.Status,
		CompletedAt: completedAt,
		ApprovedAt:  approvedAt,
	})
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewMilestoneResponse(m))
}

func (h *WorklogHandler) ListMilestones(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	contractID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	items, err := h.svc.ListMilestones(c.Context(), actor, contractID)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewMilestoneResponses(items))
}

func (h *WorklogHandler) LogTimesheet(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	contractID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req logTimesheetRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	date, err := time.Parse(time.DateOnly, strings.TrimSpace(req.Date))
	if err != nil {
		return domain.Validation(domain.CodeInvalidInput, "date must be YYYY-MM-DD")
	}

	t, err := h.svc.LogTimesheet(c.Context(), actor, contractID, worklog.TimesheetInput{
		Date:        date,
		Start:       req.StartTime,
		End:         req.EndTime,
		TotalHours:  req.TotalHours,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return response.Created(c, dto.NewTimesheetResponse(t))
}

func (h *WorklogHandler) ApproveTimesheet(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	t, err := h.svc.ApproveTimesheet(c.Context(), actor, id)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewTimesheetResponse(t))
}

func (h *WorklogHandler) ListTimesheets(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	contractID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	items, err := h.svc.ListTimesheets(c.Context(), actor, contractID)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewTimesheetResponses(items))
}
