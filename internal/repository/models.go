package repository

import (
	"time"

	"github.com/kursadbilgin/alert-dispatch/internal/domain"
)

// AlertModel is the persistence model for the alert_logs table.
type AlertModel struct {
	ID              string                `gorm:"type:uuid;primaryKey"`
	Kind            domain.AlertKind      `gorm:"type:varchar(10);not null"`
	Message         *string               `gorm:"type:text"`
	AudioURL        *string               `gorm:"type:text"`
	AudioDurationMs *int                  `gorm:"type:int"`
	RecipientGroup  domain.RecipientGroup `gorm:"type:varchar(20);not null"`
	RecipientCount  int                   `gorm:"not null"`
	SentBy          *string               `gorm:"type:varchar(255)"`
	CreatedAt       time.Time
}

func (AlertModel) TableName() string {
	return "alert_logs"
}

// DeliveryModel is the persistence model for the alert_deliveries table.
type DeliveryModel struct {
	ID             string                `gorm:"type:uuid;primaryKey"`
	AlertID        string                `gorm:"type:uuid;not null"`
	UnitID         string                `gorm:"type:uuid;not null"`
	UnitName       string                `gorm:"type:varchar(255);not null"`
	ContactPointID *string               `gorm:"type:uuid"`
	ContactAddress string                `gorm:"type:varchar(32);not null"`
	ContactLabel   string                `gorm:"type:varchar(255);not null"`
	ProviderRef    *string               `gorm:"type:varchar(64)"`
	Status         domain.DeliveryStatus `gorm:"type:varchar(20);not null"`
	ErrorReason    *string               `gorm:"type:text"`
	SentAt         time.Time             `gorm:"not null"`
	DeliveredAt    *time.Time
	ReadAt         *time.Time
	CreatedAt      time.Time
}

func (DeliveryModel) TableName() string {
	return "alert_deliveries"
}

// MarketModel is the directory's unit table. Written by the directory, read here.
type MarketModel struct {
	ID           string             `gorm:"type:uuid;primaryKey"`
	MarketNumber int                `gorm:"not null;default:0"`
	Name         string             `gorm:"type:varchar(255);not null"`
	List         domain.FeedList    `gorm:"column:list;type:varchar(20);not null;default:''"`
	Phones       []PhoneNumberModel `gorm:"foreignKey:MarketID"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (MarketModel) TableName() string {
	return "markets"
}

// PhoneNumberModel is the directory's contact point table. Only the reliability
// columns are written here.
type PhoneNumberModel struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	MarketID     string `gorm:"type:uuid;not null"`
	Label        string `gorm:"type:varchar(255);not null"`
	Number       string `gorm:"type:varchar(64);not null"`
	IsPrimary    bool   `gorm:"not null;default:false"`
	Position     int    `gorm:"not null;default:0"`
	FailureCount int    `gorm:"not null;default:0"`
	LastFailedAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (PhoneNumberModel) TableName() string {
	return "phone_numbers"
}

func alertModelFromDomain(a *domain.AlertRecord) *AlertModel {
	if a == nil {
		return nil
	}

	return &AlertModel{
		ID:              a.ID,
		Kind:            a.Kind,
		Message:         a.Message,
		AudioURL:        a.AudioURL,
		AudioDurationMs: a.AudioDurationMs,
		RecipientGroup:  a.RecipientGroup,
		RecipientCount:  a.RecipientCount,
		SentBy:          a.SentBy,
		CreatedAt:       a.CreatedAt,
	}
}

func alertModelToDomain(m *AlertModel) *domain.AlertRecord {
	if m == nil {
		return nil
	}

	return &domain.AlertRecord{
		ID:              m.ID,
		Kind:            m.Kind,
		Message:         m.Message,
		AudioURL:        m.AudioURL,
		AudioDurationMs: m.AudioDurationMs,
		RecipientGroup:  m.RecipientGroup,
		RecipientCount:  m.RecipientCount,
		SentBy:          m.SentBy,
		CreatedAt:       m.CreatedAt,
	}
}

func deliveryModelFromDomain(d *domain.DeliveryRecord) *DeliveryModel {
	if d == nil {
		return nil
	}

	return &DeliveryModel{
		ID:             d.ID,
		AlertID:        d.AlertID,
		UnitID:         d.UnitID,
		UnitName:       d.UnitName,
		ContactPointID: d.ContactPointID,
		ContactAddress: d.ContactAddress,
		ContactLabel:   d.ContactLabel,
		ProviderRef:    d.ProviderRef,
		Status:         d.Status,
		ErrorReason:    d.ErrorReason,
		SentAt:         d.SentAt,
		DeliveredAt:    d.DeliveredAt,
		ReadAt:         d.ReadAt,
		CreatedAt:      d.CreatedAt,
	}
}

func deliveryModelToDomain(m *DeliveryModel) *domain.DeliveryRecord {
	if m == nil {
		return nil
	}

	return &domain.DeliveryRecord{
		ID:             m.ID,
		AlertID:        m.AlertID,
		UnitID:         m.UnitID,
		UnitName:       m.UnitName,
		ContactPointID: m.ContactPointID,
		ContactAddress: m.ContactAddress,
		ContactLabel:   m.ContactLabel,
		ProviderRef:    m.ProviderRef,
		Status:         m.Status,
		ErrorReason:    m.ErrorReason,
		SentAt:         m.SentAt,
		DeliveredAt:    m.DeliveredAt,
		ReadAt:         m.ReadAt,
		CreatedAt:      m.CreatedAt,
	}
}

func phoneModelToDomain(m *PhoneNumberModel) domain.ContactPoint {
	return domain.ContactPoint{
		ID:                  m.ID,
		UnitID:              m.MarketID,
		Label:               m.Label,
		Address:             m.Number,
		IsPrimary:           m.IsPrimary,
		Position:            m.Position,
		ConsecutiveFailures: m.FailureCount,
		LastFailedAt:        m.LastFailedAt,
	}
}

func marketModelToDomain(m *MarketModel) domain.Unit {
	points := make([]domain.ContactPoint, 0, len(m.Phones))
	for i := range m.Phones {
		points = append(points, phoneModelToDomain(&m.Phones[i]))
	}

	return domain.Unit{
		ID:            m.ID,
		Name:          m.Name,
		MarketNumber:  m.MarketNumber,
		List:          m.List,
		ContactPoints: points,
	}
}
