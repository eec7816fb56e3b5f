package store

import (
	"time"
)

// Device status values.
const (
	DeviceActive   = "active"
	DeviceInactive = "inactive"
)

// Device is a weather station registered by a user.
type Device struct {
	ID             string    `gorm:"primaryKey;column:id" json:"id"`
	UserID         string    `gorm:"column:user_id;not null;index" json:"userId"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	MAC            string    `gorm:"column:mac;not null" json:"mac"`
	ApplicationKey string    `gorm:"column:application_key;not null" json:"-"`
	APIKey         string    `gorm:"column:api_key;not null" json:"-"`
	Category       string    `gorm:"column:category" json:"category,omitempty"`
	Status         string    `gorm:"column:status;default:active" json:"status"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName specifies the table name for Device
func (Device) TableName() string {
	return "devices"
}

// DeviceGroup is a named set of devices owned by one user.
type DeviceGroup struct {
	ID          string    `gorm:"primaryKey;column:id" json:"id"`
	UserID      string    `gorm:"column:user_id;not null;index" json:"userId"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Description string    `gorm:"column:description" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"createdAt"`
}

// TableName specifies the table name for DeviceGroup
func (DeviceGroup) TableName() string {
	return "device_groups"
}

// DeviceGroupMember links a device into a group. Members are soft references:
// removing a device leaves the row in place.
type DeviceGroupMember struct {
	GroupID  string    `gorm:"primaryKey;column:group_id"`
	DeviceID string    `gorm:"primaryKey;column:device_id"`
	Position int       `gorm:"column:position"`
	AddedAt  time.Time `gorm:"column:added_at;autoCreateTime"`
}

// TableName specifies the table name for DeviceGroupMember
func (DeviceGroupMember) TableName() string {
	return "device_group_members"
}

// File is a rendered report artifact.
type File struct {
	ID          string    `gorm:"primaryKey;column:id" json:"id"`
	UserID      string    `gorm:"column:user_id;not null;index" json:"userId"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	URL         string    `gorm:"column:url;not null" json:"url"`
	ContentType string    `gorm:"column:content_type" json:"contentType"`
	Size        int64     `gorm:"column:size" json:"size"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"createdAt"`
}

// TableName specifies the table name for File
func (File) TableName() string {
	return "files"
}
