package httpapi

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/apperr"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/report"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/store"
)

var validate = validator.New()

// UserHeader carries the authenticated user ID set by the gateway.
const UserHeader = "X-User-ID"

const userKey = "userID"

// requireUser rejects requests without a valid user ID.
func requireUser(c *fiber.Ctx) error {
	raw := strings.TrimSpace(c.Get(UserHeader))
	if raw == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "missing "+UserHeader+" header")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid "+UserHeader+" header")
	}
	c.Locals(userKey, id.String())
	return c.Next()
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals(userKey).(string)
	return id
}

func idParam(c *fiber.Ctx) (string, error) {
	id := c.Params("id")
	if err := validate.Var(id, "required,uuid"); err != nil {
		return "", apperr.Validation("id must be a UUID", err)
	}
	return id, nil
}

func bindBody(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperr.Validation("malformed request body", err)
	}
	if err := validate.Struct(req); err != nil {
		return apperr.Validation(err.Error(), err)
	}
	return nil
}

// rangeQuery reads optional start/end query parameters. Both or neither must
// be given; neither means the default window.
func rangeQuery(c *fiber.Ctx) (*report.TimeRange, error) {
	startStr, endStr := c.Query("start"), c.Query("end")
	if startStr == "" && endStr == "" {
		return nil, nil
	}
	rng, err := parseRange(startStr, endStr)
	if err != nil {
		return nil, err
	}
	return &rng, nil
}

func parseRange(startStr, endStr string) (report.TimeRange, error) {
	if startStr == "" || endStr == "" {
		return report.TimeRange{}, apperr.Validation("start and end must be given together", nil)
	}
	start, err := parseTime(startStr)
	if err != nil {
		return report.TimeRange{}, apperr.Validation("invalid start", err)
	}
	end, err := parseTime(endStr)
	if err != nil {
		return report.TimeRange{}, apperr.Validation("invalid end", err)
	}
	return report.TimeRange{Start: start, End: end}, nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC(), nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}

type createDeviceRequest struct {
	Name           string `json:"name" validate:"required,max=100"`
	MAC            string `json:"mac" validate:"required,mac"`
	ApplicationKey string `json:"applicationKey" validate:"required"`
	APIKey         string `json:"apiKey" validate:"required"`
	Category       string `json:"category" validate:"omitempty,max=50"`
}

func (r createDeviceRequest) toDevice(userID string) *store.Device {
	return &store.Device{
		UserID:         userID,
		Name:           r.Name,
		MAC:            strings.ToUpper(r.MAC),
		ApplicationKey: r.ApplicationKey,
		APIKey:         r.APIKey,
		Category:       r.Category,
	}
}

// updateDeviceRequest changes only the fields that are set.
type updateDeviceRequest struct {
	Name           string `json:"name" validate:"omitempty,max=100"`
	MAC            string `json:"mac" validate:"omitempty,mac"`
	ApplicationKey string `json:"applicationKey"`
	APIKey         string `json:"apiKey"`
	Category       string `json:"category" validate:"omitempty,max=50"`
	Status         string `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (r updateDeviceRequest) applyTo(d *store.Device) {
	if r.Name != "" {
		d.Name = r.Name
	}
	if r.MAC != "" {
		d.MAC = strings.ToUpper(r.MAC)
	}
	if r.ApplicationKey != "" {
		d.ApplicationKey = r.ApplicationKey
	}
	if r.APIKey != "" {
		d.APIKey = r.APIKey
	}
	if r.Category != "" {
		d.Category = r.Category
	}
	if r.Status != "" {
		d.Status = r.Status
	}
}

type createGroupRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"omitempty,max=500"`
	DeviceIDs   []string `json:"deviceIds" validate:"dive,uuid"`
}

type compareRequest struct {
	DeviceIDs []string `json:"deviceIds" validate:"required,min=1,max=4,dive,uuid"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
}

func (r compareRequest) timeRange() (report.TimeRange, error) {
	if r.Start == "" && r.End == "" {
		return report.LastWindow(time.Now().UTC(), report.DefaultHistoryWindow), nil
	}
	return parseRange(r.Start, r.End)
}
