// Package settings persists the owner profile and the spreadsheet webhook URL.
package settings

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Mayank7Bisnewar/Tenant/internal/message"
	"github.com/Mayank7Bisnewar/Tenant/internal/models"
	"github.com/Mayank7Bisnewar/Tenant/internal/storage"
)

// MaxOwnerMobileDigits caps the stored owner mobile number.
const MaxOwnerMobileDigits = 10

// rawString stores the URL as plain bytes, the way it has always been kept.
var rawString = storage.Codec[string]{
	Encode: func(s string) ([]byte, error) { return []byte(s), nil },
	Decode: func(b []byte) (string, error) { return string(b), nil },
}

// Settings reads and writes the unscoped user preferences.
type Settings struct {
	owner     *storage.Slot[models.OwnerInfo]
	sheetsURL *storage.Slot[string]
	logger    *slog.Logger
}

// New creates settings backed by store.
func New(store storage.Store, logger *slog.Logger) *Settings {
	return &Settings{
		owner: storage.NewSlot(store, storage.KeyOwner,
			func() models.OwnerInfo { return models.OwnerInfo{} },
			storage.JSONCodec[models.OwnerInfo](), logger),
		sheetsURL: storage.NewSlot(store, storage.KeySheetsURL,
			func() string { return "" }, rawString, logger),
		logger: logger,
	}
}

// NormalizeOwner trims every field and keeps at most ten digits of the mobile number.
func NormalizeOwner(info models.OwnerInfo) models.OwnerInfo {
	mobile := message.Digits(info.MobileNumber)
	if len(mobile) > MaxOwnerMobileDigits {
		mobile = mobile[:MaxOwnerMobileDigits]
	}
	return models.OwnerInfo{
		Name:         strings.TrimSpace(info.Name),
		MobileNumber: mobile,
		UPIID:        strings.TrimSpace(info.UPIID),
	}
}

// Owner returns the stored owner profile, empty when unset.
func (s *Settings) Owner(ctx context.Context) models.OwnerInfo {
	return s.owner.Read(ctx)
}

// SetOwner normalizes and stores the owner profile.
func (s *Settings) SetOwner(ctx context.Context, info models.OwnerInfo) (models.OwnerInfo, error) {
	info = NormalizeOwner(info)
	if err := s.owner.Write(ctx, info); err != nil {
		return models.OwnerInfo{}, err
	}
	s.logger.Info("Owner info saved", "name", info.Name)
	return info, nil
}

// SheetsURL returns the webhook URL, "" when unset.
func (s *Settings) SheetsURL(ctx context.Context) string {
	return strings.TrimSpace(s.sheetsURL.Read(ctx))
}

// SetSheetsURL stores the webhook URL. An empty URL disables spreadsheet sync.
func (s *Settings) SetSheetsURL(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		s.logger.Info("Spreadsheet webhook cleared")
		return s.sheetsURL.Clear(ctx)
	}
	if err := s.sheetsURL.Write(ctx, url); err != nil {
		return err
	}
	s.logger.Info("Spreadsheet webhook saved")
	return nil
}
