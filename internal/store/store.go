// Package store persists devices, device groups and report files with gorm.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	// ErrNotFound is returned when a row does not exist or belongs to another user.
	ErrNotFound = errors.New("record not found")
	// ErrForeignDevice is returned when a group would include a device of another user.
	ErrForeignDevice = errors.New("device belongs to another user")
)

// Store is a gorm-backed repository.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the SQLite database at path and migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	return New(db)
}

// New wraps an existing connection and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Device{}, &DeviceGroup{}, &DeviceGroupMember{}, &File{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// GetDeviceByID returns a device regardless of owner.
func (s *Store) GetDeviceByID(ctx context.Context, id string) (*Device, error) {
	var d Device
	if err := s.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

// GetUserDevice returns a device only if userID owns it.
func (s *Store) GetUserDevice(ctx context.Context, id, userID string) (*Device, error) {
	var d Device
	err := s.db.WithContext(ctx).First(&d, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

// ListDevicesByUser returns the user's devices ordered by creation time.
func (s *Store) ListDevicesByUser(ctx context.Context, userID string) ([]Device, error) {
	var out []Device
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

// CreateDevice inserts d, assigning an ID when empty.
func (s *Store) CreateDevice(ctx context.Context, d *Device) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Status == "" {
		d.Status = DeviceActive
	}
	return s.db.WithContext(ctx).Create(d).Error
}

// UpdateDevice saves every column of d. The device must belong to d.UserID.
func (s *Store) UpdateDevice(ctx context.Context, d *Device) error {
	res := s.db.WithContext(ctx).
		Model(&Device{}).
		Where("id = ? AND user_id = ?", d.ID, d.UserID).
		Updates(map[string]any{
			"name":            d.Name,
			"mac":             d.MAC,
			"application_key": d.ApplicationKey,
			"api_key":         d.APIKey,
			"category":        d.Category,
			"status":          d.Status,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetGroupByID returns a group regardless of owner.
func (s *Store) GetGroupByID(ctx context.Context, id string) (*DeviceGroup, error) {
	var g DeviceGroup
	if err := s.db.WithContext(ctx).First(&g, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

// ListGroupsByUser returns the user's groups ordered by creation time.
func (s *Store) ListGroupsByUser(ctx context.Context, userID string) ([]DeviceGroup, error) {
	var out []DeviceGroup
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

// ListGroupDeviceIDs returns member device IDs in membership order.
func (s *Store) ListGroupDeviceIDs(ctx context.Context, groupID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&DeviceGroupMember{}).
		Where("group_id = ?", groupID).
		Order("position ASC").
		Pluck("device_id", &ids).Error
	return ids, err
}

// GetDevicesByGroupID returns the member devices that still exist, in membership order.
func (s *Store) GetDevicesByGroupID(ctx context.Context, groupID string) ([]Device, error) {
	var out []Device
	err := s.db.WithContext(ctx).
		Table("devices").
		Select("devices.*").
		Joins("JOIN device_group_members m ON m.device_id = devices.id").
		Where("m.group_id = ?", groupID).
		Order("m.position ASC").
		Find(&out).Error
	return out, err
}

// CreateGroup inserts g and its members in one transaction. Every member must
// exist and belong to g.UserID.
func (s *Store) CreateGroup(ctx context.Context, g *DeviceGroup, deviceIDs []string) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range deviceIDs {
			var d Device
			if err := tx.First(&d, "id = ?", id).Error; err != nil {
				return fmt.Errorf("device %s: %w", id, notFound(err))
			}
			if d.UserID != g.UserID {
				return fmt.Errorf("device %s: %w", id, ErrForeignDevice)
			}
		}

		if err := tx.Create(g).Error; err != nil {
			return err
		}

		members := make([]DeviceGroupMember, 0, len(deviceIDs))
		seen := make(map[string]struct{}, len(deviceIDs))
		for _, id := range deviceIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			members = append(members, DeviceGroupMember{GroupID: g.ID, DeviceID: id, Position: len(members)})
		}
		if len(members) == 0 {
			return nil
		}
		return tx.Create(&members).Error
	})
}

// CreateFile records a delivered report artifact.
func (s *Store) CreateFile(ctx context.Context, f *File) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Create(f).Error
}
