package ecowitt

import (
	"context"
	"fmt"
	"time"

	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/apperr"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/common"
)

// DeviceInfo is the vendor's description of a station.
type DeviceInfo struct {
	ID          int64     `json:"id,omitempty"`
	Name        string    `json:"name"`
	MAC         string    `json:"mac"`
	Type        int       `json:"type,omitempty"`
	StationType string    `json:"stationType,omitempty"`
	Timezone    string    `json:"timezone,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// HasCoordinates reports whether the station published a usable position.
// The vendor reports 0,0 for stations without one.
func (d DeviceInfo) HasCoordinates() bool {
	if d.Latitude == nil || d.Longitude == nil {
		return false
	}
	return *d.Latitude != 0 || *d.Longitude != 0
}

// FetchDeviceInfo returns station metadata, including coordinates when known.
func (c *Client) FetchDeviceInfo(ctx context.Context, creds Credentials) (DeviceInfo, error) {
	env, err := c.getWithRateLimit(ctx, EndpointDeviceInfo, creds.values())
	if err != nil {
		return DeviceInfo{}, err
	}
	if env.rateLimited() {
		return DeviceInfo{}, apperr.VendorAPI("ecowitt device info rate limited after retry", nil)
	}
	if env.Code != 0 {
		return DeviceInfo{}, apperr.VendorAPI(
			fmt.Sprintf("ecowitt device info rejected: %s (code %d)", env.Message, env.Code), nil)
	}

	data, ok := nonEmptyObject(env.Data)
	if !ok {
		return DeviceInfo{}, apperr.VendorAPI("ecowitt device info returned no data", nil)
	}
	return parseDeviceInfo(data), nil
}

func parseDeviceInfo(data map[string]any) DeviceInfo {
	info := DeviceInfo{
		Name:        common.ToString(data["name"]),
		MAC:         common.ToString(data["mac"]),
		StationType: common.ToString(data["stationtype"]),
		Timezone:    common.ToString(data["date_zone_id"]),
	}
	if id, ok := common.ToFloat(data["id"]); ok {
		info.ID = int64(id)
	}
	if t, ok := common.ToFloat(data["type"]); ok {
		info.Type = int(t)
	}
	if lat, ok := common.ToFloat(data["latitude"]); ok {
		info.Latitude = &lat
	}
	if lon, ok := common.ToFloat(data["longitude"]); ok {
		info.Longitude = &lon
	}
	if ts, ok := common.ToFloat(data["createtime"]); ok && ts > 0 {
		info.CreatedAt = time.Unix(int64(ts), 0).UTC()
	}
	return info
}
