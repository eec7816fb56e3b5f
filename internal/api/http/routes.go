package httpapi

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/apperr"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/delivery"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/report"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/store"
)

// DeviceStore is the device and group persistence used by the handlers.
type DeviceStore interface {
	ListDevicesByUser(ctx context.Context, userID string) ([]store.Device, error)
	GetUserDevice(ctx context.Context, id, userID string) (*store.Device, error)
	CreateDevice(ctx context.Context, d *store.Device) error
	UpdateDevice(ctx context.Context, d *store.Device) error
	ListGroupsByUser(ctx context.Context, userID string) ([]store.DeviceGroup, error)
	GetGroupByID(ctx context.Context, id string) (*store.DeviceGroup, error)
	GetDevicesByGroupID(ctx context.Context, groupID string) ([]store.Device, error)
	CreateGroup(ctx context.Context, g *store.DeviceGroup, deviceIDs []string) error
}

// Reports builds reports and telemetry views.
type Reports interface {
	BuildDeviceReport(ctx context.Context, deviceID, userID string, includeHistory bool, rng *report.TimeRange) (*report.DeviceReport, error)
	BuildGroupReport(ctx context.Context, groupID, userID string, includeHistory bool, rng *report.TimeRange) (*report.GroupReport, error)
	CompareDevices(ctx context.Context, userID string, deviceIDs []string, rng report.TimeRange) (*report.Comparison, error)
	Diagnose(ctx context.Context, deviceID, userID string) (*report.Diagnosis, error)
	DeviceRealtime(ctx context.Context, deviceID, userID string) (*report.RealtimeView, error)
	DeviceHistory(ctx context.Context, deviceID, userID string, rng *report.TimeRange) (*report.HistoryView, error)
}

// Delivery renders and stores report files.
type Delivery interface {
	DeliverDeviceReport(ctx context.Context, userID string, r *report.DeviceReport, format delivery.Format) (*store.File, error)
	DeliverGroupReport(ctx context.Context, userID string, r *report.GroupReport, format delivery.Format) (*store.File, error)
}

// Deps are the collaborators of the HTTP layer. Delivery and Health are optional.
type Deps struct {
	Store    DeviceStore
	Reports  Reports
	Delivery Delivery
	Health   func(ctx context.Context) error
	Logger   *zap.Logger
}

type handlers struct {
	Deps
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	h := &handlers{Deps: deps}
	v1 := app.Group("/api/v1", requireUser)

	v1.Get("/devices", h.listDevices)
	v1.Post("/devices", h.createDevice)
	// Registered before /devices/:id so "compare" is not taken for an ID.
	v1.Post("/devices/compare", h.compareDevices)
	v1.Get("/devices/:id", h.getDevice)
	v1.Put("/devices/:id", h.updateDevice)
	v1.Get("/devices/:id/realtime", h.deviceRealtime)
	v1.Get("/devices/:id/history", h.deviceHistory)
	v1.Get("/devices/:id/report", h.deviceReport)
	v1.Post("/devices/:id/report/file", h.deviceReportFile)
	v1.Get("/devices/:id/diagnostics", h.diagnoseDevice)

	v1.Get("/groups", h.listGroups)
	v1.Post("/groups", h.createGroup)
	v1.Get("/groups/:id", h.getGroup)
	v1.Get("/groups/:id/report", h.groupReport)
	v1.Post("/groups/:id/report/file", h.groupReportFile)
}

// storeError maps store sentinels onto the error taxonomy.
func storeError(err error, what string) error {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrForeignDevice):
		return apperr.NotFound(what+" not found", err)
	default:
		return apperr.Internal("storage failure", err)
	}
}

func (h *handlers) listDevices(c *fiber.Ctx) error {
	devices, err := h.Store.ListDevicesByUser(c.UserContext(), userID(c))
	if err != nil {
		return storeError(err, "device")
	}
	if devices == nil {
		devices = []store.Device{}
	}
	return c.JSON(fiber.Map{"devices": devices})
}

func (h *handlers) getDevice(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	d, err := h.Store.GetUserDevice(c.UserContext(), id, userID(c))
	if err != nil {
		return storeError(err, "device")
	}
	return c.JSON(d)
}

func (h *handlers) createDevice(c *fiber.Ctx) error {
	var req createDeviceRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	d := req.toDevice(userID(c))
	if err := h.Store.CreateDevice(c.UserContext(), d); err != nil {
		return storeError(err, "device")
	}
	return c.Status(fiber.StatusCreated).JSON(d)
}

func (h *handlers) updateDevice(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var req updateDeviceRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	d, err := h.Store.GetUserDevice(c.UserContext(), id, userID(c))
	if err != nil {
		return storeError(err, "device")
	}
	req.applyTo(d)
	if err := h.Store.UpdateDevice(c.UserContext(), d); err != nil {
		return storeError(err, "device")
	}
	return c.JSON(d)
}

func (h *handlers) deviceRealtime(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	view, err := h.Reports.DeviceRealtime(c.UserContext(), id, userID(c))
	if err != nil {
		return err
	}
	return c.JSON(view)
}

func (h *handlers) deviceHistory(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	rng, err := rangeQuery(c)
	if err != nil {
		return err
	}
	view, err := h.Reports.DeviceHistory(c.UserContext(), id, userID(c), rng)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

func (h *handlers) buildDeviceReport(c *fiber.Ctx) (*report.DeviceReport, error) {
	id, err := idParam(c)
	if err != nil {
		return nil, err
	}
	rng, err := rangeQuery(c)
	if err != nil {
		return nil, err
	}
	return h.Reports.BuildDeviceReport(c.UserContext(), id, userID(c), c.QueryBool("includeHistory", true), rng)
}

func (h *handlers) deviceReport(c *fiber.Ctx) error {
	r, err := h.buildDeviceReport(c)
	if err != nil {
		return err
	}
	return c.JSON(r)
}

func (h *handlers) deviceReportFile(c *fiber.Ctx) error {
	if h.Delivery == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "report file delivery is not configured")
	}
	format, err := delivery.ParseFormat(c.Query("format"))
	if err != nil {
		return err
	}
	r, err := h.buildDeviceReport(c)
	if err != nil {
		return err
	}
	f, err := h.Delivery.DeliverDeviceReport(c.UserContext(), userID(c), r, format)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(f)
}

func (h *handlers) diagnoseDevice(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	d, err := h.Reports.Diagnose(c.UserContext(), id, userID(c))
	if err != nil {
		return err
	}
	return c.JSON(d)
}

func (h *handlers) compareDevices(c *fiber.Ctx) error {
	var req compareRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	rng, err := req.timeRange()
	if err != nil {
		return err
	}
	cmp, err := h.Reports.CompareDevices(c.UserContext(), userID(c), req.DeviceIDs, rng)
	if err != nil {
		return err
	}
	return c.JSON(cmp)
}

func (h *handlers) listGroups(c *fiber.Ctx) error {
	groups, err := h.Store.ListGroupsByUser(c.UserContext(), userID(c))
	if err != nil {
		return storeError(err, "group")
	}
	if groups == nil {
		groups = []store.DeviceGroup{}
	}
	return c.JSON(fiber.Map{"groups": groups})
}

func (h *handlers) createGroup(c *fiber.Ctx) error {
	var req createGroupRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	g := &store.DeviceGroup{UserID: userID(c), Name: req.Name, Description: req.Description}
	if err := h.Store.CreateGroup(c.UserContext(), g, req.DeviceIDs); err != nil {
		return storeError(err, "device")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"group":     g,
		"deviceIds": req.DeviceIDs,
	})
}

// getGroup returns the group with its member devices. Members deleted since
// the group was created are left out.
func (h *handlers) getGroup(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	g, err := h.Store.GetGroupByID(c.UserContext(), id)
	if err != nil {
		return storeError(err, "group")
	}
	if g.UserID != userID(c) {
		return apperr.NotFound("group not found", nil)
	}

	devices, err := h.Store.GetDevicesByGroupID(c.UserContext(), g.ID)
	if err != nil {
		return storeError(err, "group")
	}
	if devices == nil {
		devices = []store.Device{}
	}
	return c.JSON(fiber.Map{"group": g, "devices": devices})
}

func (h *handlers) buildGroupReport(c *fiber.Ctx) (*report.GroupReport, error) {
	id, err := idParam(c)
	if err != nil {
		return nil, err
	}
	rng, err := rangeQuery(c)
	if err != nil {
		return nil, err
	}
	return h.Reports.BuildGroupReport(c.UserContext(), id, userID(c), c.QueryBool("includeHistory", true), rng)
}

func (h *handlers) groupReport(c *fiber.Ctx) error {
	r, err := h.buildGroupReport(c)
	if err != nil {
		return err
	}
	return c.JSON(r)
}

func (h *handlers) groupReportFile(c *fiber.Ctx) error {
	if h.Delivery == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "report file delivery is not configured")
	}
	format, err := delivery.ParseFormat(c.Query("format"))
	if err != nil {
		return err
	}
	r, err := h.buildGroupReport(c)
	if err != nil {
		return err
	}
	f, err := h.Delivery.DeliverGroupReport(c.UserContext(), userID(c), r, format)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(f)
}
