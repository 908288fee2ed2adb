package device

import (
	"context"
	"fmt"
	"strings"
)

type DeviceService interface {
	CreateDevice(ctx context.Context, d *Device) error
	GetDevice(ctx context.Context, id string) (*Device, error)
	ListDevices(ctx context.Context, limit int64) ([]Device, error)
	CreateAsset(ctx context.Context, a *Asset) error
	GetAsset(ctx context.Context, id string) (*Asset, error)
	ListAssets(ctx context.Context, limit int64) ([]Asset, error)
}

type DeviceServiceImpl struct {
	Repo Repository
}

func NewDeviceService(repo Repository) DeviceService {
	return &DeviceServiceImpl{Repo: repo}
}

func (s *DeviceServiceImpl) CreateDevice(ctx context.Context, d *Device) error {
	d.ID = strings.TrimSpace(d.ID)
	if d.ID == "" {
		return fmt.Errorf("device id is required")
	}
	return s.Repo.CreateDevice(ctx, d)
}

func (s *DeviceServiceImpl) GetDevice(ctx context.Context, id string) (*Device, error) {
	return s.Repo.GetDevice(ctx, id)
}

func (s *DeviceServiceImpl) ListDevices(ctx context.Context, limit int64) ([]Device, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	return s.Repo.ListDevices(ctx, limit)
}

func (s *DeviceServiceImpl) CreateAsset(ctx context.Context, a *Asset) error {
	a.ID = strings.TrimSpace(a.ID)
	if a.ID == "" {
		return fmt.Errorf("asset id is required")
	}
	return s.Repo.CreateAsset(ctx, a)
}

func (s *DeviceServiceImpl) GetAsset(ctx context.Context, id string) (*Asset, error) {
	return s.Repo.GetAsset(ctx, id)
}

func (s *DeviceServiceImpl) ListAssets(ctx context.Context, limit int64) ([]Asset, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	return s.Repo.ListAssets(ctx, limit)
}
