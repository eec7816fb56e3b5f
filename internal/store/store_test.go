package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func addDevice(t *testing.T, s *Store, userID, name string) *Device {
	t.Helper()
	d := &Device{UserID: userID, Name: name, MAC: "AA:BB:CC:DD:EE:01", ApplicationKey: "app", APIKey: "key"}
	require.NoError(t, s.CreateDevice(context.Background(), d))
	return d
}

func TestDeviceCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	d := addDevice(t, s, "user-1", "Greenhouse")
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, DeviceActive, d.Status)

	got, err := s.GetDeviceByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Greenhouse", got.Name)
	assert.Equal(t, "app", got.ApplicationKey)

	_, err = s.GetUserDevice(ctx, d.ID, "user-2")
	assert.ErrorIs(t, err, ErrNotFound)

	got.Name = "Nursery"
	got.Status = DeviceInactive
	require.NoError(t, s.UpdateDevice(ctx, got))

	got, err = s.GetUserDevice(ctx, d.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Nursery", got.Name)
	assert.Equal(t, DeviceInactive, got.Status)

	foreign := *got
	foreign.UserID = "user-2"
	assert.ErrorIs(t, s.UpdateDevice(ctx, &foreign), ErrNotFound)

	_, err = s.GetDeviceByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListDevicesByUser(t *testing.T) {
	s := newTestStore(t)
	addDevice(t, s, "user-1", "a")
	addDevice(t, s, "user-1", "b")
	addDevice(t, s, "user-2", "c")

	devices, err := s.ListDevicesByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, devices, 2)
}

func TestCreateGroupKeepsMembershipOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a := addDevice(t, s, "user-1", "a")
	b := addDevice(t, s, "user-1", "b")
	c := addDevice(t, s, "user-1", "c")

	g := &DeviceGroup{UserID: "user-1", Name: "Field"}
	require.NoError(t, s.CreateGroup(ctx, g, []string{c.ID, a.ID, b.ID, a.ID}))

	ids, err := s.ListGroupDeviceIDs(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, a.ID, b.ID}, ids)

	devices, err := s.GetDevicesByGroupID(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, devices, 3)
	assert.Equal(t, "c", devices[0].Name)

	got, err := s.GetGroupByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Field", got.Name)

	groups, err := s.ListGroupsByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}

func TestCreateGroupRejectsForeignDevice(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	mine := addDevice(t, s, "user-1", "mine")
	theirs := addDevice(t, s, "user-2", "theirs")

	err := s.CreateGroup(ctx, &DeviceGroup{UserID: "user-1", Name: "Mixed"}, []string{mine.ID, theirs.ID})
	assert.ErrorIs(t, err, ErrForeignDevice)

	groups, err := s.ListGroupsByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, groups, "transaction must roll back")

	err = s.CreateGroup(ctx, &DeviceGroup{UserID: "user-1", Name: "Ghost"}, []string{"missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateFile(t *testing.T) {
	s := newTestStore(t)
	f := &File{UserID: "user-1", Name: "report.pdf", URL: "https://bucket/report.pdf", ContentType: "application/pdf", Size: 42}

	require.NoError(t, s.CreateFile(context.Background(), f))
	assert.NotEmpty(t, f.ID)
}
