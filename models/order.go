package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/weavetrack/fabric_backend/config"
	"github.com/weavetrack/fabric_backend/utils"
)

type Order struct {
	ID            int             `gorm:"primary_key" json:"id"`
	BusinessId    string          `gorm:"index;not null" json:"business_id"`
	OrderNumber   string          `gorm:"size:255;not null" json:"order_number"`
	DesignCode    string          `gorm:"size:100" json:"design_code"`
	DesignName    string          `gorm:"size:255" json:"design_name"`
	TargetQty     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"target_qty"`
	CurrentStatus OrderStatus     `gorm:"type:enum('New','Active','Complete');default:'New'" json:"current_status"`
	Warps         []Warp          `gorm:"foreignKey:OrderId" json:"warps"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewOrder struct {
	OrderNumber string          `json:"order_number" binding:"required"`
	DesignCode  string          `json:"design_code"`
	DesignName  string          `json:"design_name"`
	TargetQty   decimal.Decimal `json:"target_qty"`
}

func (obj Order) GetId() int {
	return obj.ID
}

// returns decoded cursor string
func (obj Order) GetCursor() string {
	return obj.CreatedAt.String()
}

func CreateOrder(ctx context.Context, input *NewOrder) (*Order, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := utils.ValidateUnique[Order](ctx, businessId, "order_number", input.OrderNumber, 0); err != nil {
		return nil, utils.NewValidationError(err.Error())
	}

	order := Order{
		BusinessId:    businessId,
		OrderNumber:   input.OrderNumber,
		DesignCode:    input.DesignCode,
		DesignName:    input.DesignName,
		TargetQty:     input.TargetQty,
		CurrentStatus: OrderStatusNew,
	}
	if err := db.WithContext(ctx).Create(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func GetOrder(ctx context.Context, id int) (*Order, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	return utils.FetchModel[Order](ctx, businessId, id, "Warps")
}

func UpdateOrderStatus(ctx context.Context, id int, status OrderStatus) (*Order, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := status.Validate(); err != nil {
		return nil, utils.NewValidationError(err.Error())
	}

	order, err := utils.FetchModel[Order](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(order).Update("CurrentStatus", status).Error; err != nil {
		return nil, err
	}
	order.CurrentStatus = status
	return order, nil
}

func PaginateOrder(
	ctx context.Context, limit *int, after *string,
	orderNumber *string,
	currentStatus *OrderStatus,
) (*OrdersConnection, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)

	if orderNumber != nil && *orderNumber != "" {
		dbCtx.Where("order_number LIKE ?", "%"+*orderNumber+"%")
	}

	if currentStatus != nil {
		dbCtx.Where("current_status = ?", *currentStatus)
	}

	edges, pageInfo, err := FetchPageCompositeCursor[Order](dbCtx, *limit, after, "created_at", "<")
	if err != nil {
		return nil, err
	}
	var ordersConnection OrdersConnection
	ordersConnection.PageInfo = pageInfo
	for _, edge := range edges {
		ordersEdge := OrdersEdge(edge)
		ordersConnection.Edges = append(ordersConnection.Edges, &ordersEdge)
	}

	return &ordersConnection, err
}

type OrdersConnection struct {
	Edges    []*OrdersEdge `json:"edges"`
	PageInfo *PageInfo     `json:"pageInfo"`
}

type OrdersEdge Edge[Order]
