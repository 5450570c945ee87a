package gormstore

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/trip-approval/internal/domain/entity"
	"github.com/garyjia/trip-approval/internal/domain/workflow"
)

// tripRequestModel is the trip_requests row. Collections are stored as jsonb.
type tripRequestModel struct {
	ID                  int64                   `gorm:"primaryKey;autoIncrement"`
	EmployeeID          int64                   `gorm:"not null;index"`
	Destination         string                  `gorm:"type:varchar(255);not null"`
	Purpose             string                  `gorm:"type:text;not null;default:''"`
	StartDate           string                  `gorm:"type:varchar(10);not null;default:''"`
	EndDate             string                  `gorm:"type:varchar(10);not null;default:''"`
	CostEstimate        decimal.Decimal         `gorm:"type:numeric(14,2);not null;default:0"`
	Status              string                  `gorm:"type:varchar(32);not null;index:idx_trip_requests_queue"`
	CurrentApproverRole string                  `gorm:"type:varchar(16);not null;index:idx_trip_requests_queue"`
	FulfillmentStatus   string                  `gorm:"type:varchar(16);not null;default:'waiting_dates'"`
	ReportAdded         bool                    `gorm:"not null;default:false"`
	ReportText          string                  `gorm:"type:text;not null;default:''"`
	Approvals           []entity.Approval       `gorm:"type:jsonb;serializer:json"`
	ChangeHistory       []entity.ChangeLog      `gorm:"type:jsonb;serializer:json"`
	PassportPhotos      []entity.FileAttachment `gorm:"type:jsonb;serializer:json"`
	TravelTickets       []entity.FileAttachment `gorm:"type:jsonb;serializer:json"`
	HotelBookings       []entity.FileAttachment `gorm:"type:jsonb;serializer:json"`
	ReceiptFiles        []entity.FileAttachment `gorm:"type:jsonb;serializer:json"`
	IsModified          bool                    `gorm:"not null;default:false"`
	LastModifiedActorID int64                   `gorm:"not null;default:0"`
	ViewedByIDs         []int64                 `gorm:"type:jsonb;serializer:json"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (tripRequestModel) TableName() string {
	return "trip_requests"
}

func toModel(r *entity.TripRequest) *tripRequestModel {
	return &tripRequestModel{
		ID:                  r.ID,
		EmployeeID:          r.EmployeeID,
		Destination:         r.Destination,
		Purpose:             r.Purpose,
		StartDate:           r.StartDate,
		EndDate:             r.EndDate,
		CostEstimate:        r.CostEstimate,
		Status:              string(r.Status),
		CurrentApproverRole: string(r.CurrentApproverRole),
		FulfillmentStatus:   string(r.FulfillmentStatus),
		ReportAdded:         r.ReportAdded,
		ReportText:          r.ReportText,
		Approvals:           nonNil(r.Approvals),
		ChangeHistory:       nonNil(r.ChangeHistory),
		PassportPhotos:      nonNil(r.PassportPhotos),
		TravelTickets:       nonNil(r.TravelTickets),
		HotelBookings:       nonNil(r.HotelBookings),
		ReceiptFiles:        nonNil(r.ReceiptFiles),
		IsModified:          r.IsModified,
		LastModifiedActorID: r.LastModifiedActorID,
		ViewedByIDs:         nonNil(r.ViewedByIDs),
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func (m *tripRequestModel) toEntity() *entity.TripRequest {
	return &entity.TripRequest{
		ID:         m.ID,
		EmployeeID: m.EmployeeID,
		TripDetails: entity.TripDetails{
			Destination:  m.Destination,
			Purpose:      m.Purpose,
			StartDate:    m.StartDate,
			EndDate:      m.EndDate,
			CostEstimate: m.CostEstimate,
		},
		Status:              workflow.State(m.Status),
		CurrentApproverRole: workflow.Role(m.CurrentApproverRole),
		FulfillmentStatus:   entity.FulfillmentStatus(m.FulfillmentStatus),
		ReportAdded:         m.ReportAdded,
		ReportText:          m.ReportText,
		Approvals:           nonNil(m.Approvals),
		ChangeHistory:       nonNil(m.ChangeHistory),
		PassportPhotos:      nonNil(m.PassportPhotos),
		TravelTickets:       nonNil(m.TravelTickets),
		HotelBookings:       nonNil(m.HotelBookings),
		ReceiptFiles:        nonNil(m.ReceiptFiles),
		IsModified:          m.IsModified,
		LastModifiedActorID: m.LastModifiedActorID,
		ViewedByIDs:         nonNil(m.ViewedByIDs),
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return slices.Clone(s)
}
