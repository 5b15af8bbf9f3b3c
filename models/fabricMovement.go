package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/weavetrack/fabric_backend/config"
	"github.com/weavetrack/fabric_backend/utils"
)

// FabricMovement is an audit/transfer record for a set of cuts moving
// between two locations. Receiving a movement updates the cuts' location
// fields; it never touches processing orders or receipts.
type FabricMovement struct {
	ID             int                 `gorm:"primary_key" json:"id"`
	BusinessId     string              `gorm:"index;not null" json:"business_id"`
	MovementNumber string              `gorm:"size:255;not null" json:"movement_number"`
	FromLocation   string              `gorm:"size:100;not null" json:"from_location"`
	ToLocation     string              `gorm:"size:100;not null" json:"to_location"`
	MovedBy        string              `gorm:"size:100" json:"moved_by"`
	ReceivedBy     string              `gorm:"size:100" json:"received_by"`
	CurrentStatus  MovementStatus      `gorm:"type:enum('Pending','Received');default:'Pending'" json:"current_status"`
	Cuts           []FabricMovementCut `gorm:"foreignKey:FabricMovementId" json:"cuts"`
	ReceivedAt     *time.Time          `json:"received_at"`
	CreatedAt      time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type FabricMovementCut struct {
	ID               int             `gorm:"primary_key" json:"id"`
	FabricMovementId int             `gorm:"index;not null" json:"fabric_movement_id"`
	FabricNumber     string          `gorm:"size:100;not null" json:"fabric_number"`
	Qty              decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"qty"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewFabricMovement struct {
	FabricNumbers []string `json:"fabric_numbers" binding:"required,min=1"`
	FromLocation  string   `json:"from_location" binding:"required"`
	ToLocation    string   `json:"to_location" binding:"required"`
	MovedBy       string   `json:"moved_by"`
}

func (obj FabricMovement) GetId() int {
	return obj.ID
}

// returns decoded cursor string
func (obj FabricMovement) GetCursor() string {
	return obj.CreatedAt.String()
}

func GetFabricMovement(ctx context.Context, id int) (*FabricMovement, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	return utils.FetchModel[FabricMovement](ctx, businessId, id, "Cuts")
}

func PaginateFabricMovement(
	ctx context.Context, limit *int, after *string,
	currentStatus *MovementStatus,
) (*FabricMovementsConnection, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)

	if currentStatus != nil {
		dbCtx.Where("current_status = ?", *currentStatus)
	}

	edges, pageInfo, err := FetchPageCompositeCursor[FabricMovement](dbCtx, *limit, after, "created_at", "<")
	if err != nil {
		return nil, err
	}
	var fabricMovementsConnection FabricMovementsConnection
	fabricMovementsConnection.PageInfo = pageInfo
	for _, edge := range edges {
		fabricMovementsEdge := FabricMovementsEdge(edge)
		fabricMovementsConnection.Edges = append(fabricMovementsConnection.Edges, &fabricMovementsEdge)
	}

	return &fabricMovementsConnection, err
}

type FabricMovementsConnection struct {
	Edges    []*FabricMovementsEdge `json:"edges"`
	PageInfo *PageInfo              `json:"pageInfo"`
}

type FabricMovementsEdge Edge[FabricMovement]
