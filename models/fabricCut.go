package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/weavetrack/fabric_backend/config"
	"github.com/weavetrack/fabric_backend/utils"
	"gorm.io/gorm"
)

// FabricCut is the atomic unit of production output, created once at scan
// time. After creation only its location and inspection flags mutate.
//
// Invariant: FabricNumber is unique across fabric_cuts AND
// processing_receipts at the same time. A cut lives in exactly one of the
// two namespaces (main yard vs. sent to processing).
type FabricCut struct {
	ID                 int             `gorm:"primary_key" json:"id"`
	BusinessId         string          `gorm:"index;not null" json:"business_id"`
	FabricNumber       string          `gorm:"size:100;index;not null" json:"fabric_number"`
	WarpId             int             `gorm:"index;not null" json:"warp_id"`
	Qty                decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"qty"`
	CutNumber          int             `gorm:"default:0" json:"cut_number"`
	TotalCuts          int             `gorm:"default:0" json:"total_cuts"`
	IsFourPointChecked bool            `gorm:"default:false" json:"is_four_point_checked"`
	IsWashChecked      bool            `gorm:"default:false" json:"is_wash_checked"`
	Location           string          `gorm:"size:100;default:'MainYard'" json:"location"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewFabricCut struct {
	FabricNumber string          `json:"fabric_number"`
	WarpId       int             `json:"warp_id" binding:"required"`
	Qty          decimal.Decimal `json:"qty" binding:"required"`
	CutNumber    int             `json:"cut_number"`
	TotalCuts    int             `json:"total_cuts"`
	Location     string          `json:"location"`
}

func (obj FabricCut) GetId() int {
	return obj.ID
}

// returns decoded cursor string
func (obj FabricCut) GetCursor() string {
	return obj.CreatedAt.String()
}

// FabricNumberExists probes both identifier namespaces.
// Reports (inMainYard, inProcessing, error).
func FabricNumberExists(ctx context.Context, tx *gorm.DB, businessId string, fabricNumber string) (bool, bool, error) {
	var cutCount int64
	if err := tx.WithContext(ctx).Model(&FabricCut{}).
		Where("business_id = ? AND fabric_number = ?", businessId, fabricNumber).
		Count(&cutCount).Error; err != nil {
		return false, false, err
	}

	var receiptCount int64
	if err := tx.WithContext(ctx).Model(&ProcessingReceipt{}).
		Where("business_id = ? AND (new_fabric_number = ? OR fabric_number = ?)", businessId, fabricNumber, fabricNumber).
		Count(&receiptCount).Error; err != nil {
		return false, false, err
	}

	return cutCount > 0, receiptCount > 0, nil
}

// CreateFabricCut registers a cut at scan time. When FabricNumber is blank
// the next free `<warpCode>-NN` is assigned; when supplied it is stored in
// canonical form and must be free in both namespaces under every spelling
// variant. True concurrent duplicate creation is not prevented
// here; it is detected and renumbered by the duplicate repair sweep.
func CreateFabricCut(ctx context.Context, input *NewFabricCut) (*FabricCut, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if input.Qty.IsZero() || input.Qty.IsNegative() {
		return nil, utils.NewValidationError("cut quantity must be positive")
	}

	warp, err := utils.FetchModel[Warp](ctx, businessId, input.WarpId)
	if err != nil {
		return nil, errors.New("warp not found")
	}

	fabricNumber := input.FabricNumber
	if fabricNumber == "" {
		fabricNumber, err = nextFabricNumberForWarp(ctx, db, businessId, warp.WarpCode)
		if err != nil {
			return nil, err
		}
	} else {
		// Operator-entered numbers are stored canonically, and every
		// spelling variant is probed so "wr/1" cannot slip past an
		// existing "WR-01".
		for _, candidate := range CanonicalCandidates(fabricNumber) {
			inMainYard, inProcessing, err := FabricNumberExists(ctx, db, businessId, candidate)
			if err != nil {
				return nil, err
			}
			if inMainYard || inProcessing {
				return nil, utils.NewConflictError("fabric number " + candidate + " already exists")
			}
		}
		fabricNumber = CanonicalFabricNumber(fabricNumber)
		if fabricNumber == "" {
			return nil, utils.NewValidationError("fabric number must not be blank")
		}
	}

	location := input.Location
	if location == "" {
		location = LocationMainYard
	}

	cut := FabricCut{
		BusinessId:   businessId,
		FabricNumber: fabricNumber,
		WarpId:       input.WarpId,
		Qty:          input.Qty,
		CutNumber:    input.CutNumber,
		TotalCuts:    input.TotalCuts,
		Location:     location,
	}
	if err := db.WithContext(ctx).Create(&cut).Error; err != nil {
		return nil, err
	}
	return &cut, nil
}

// claimed fabric numbers for a warp prefix, across both namespaces
func takenNumbersForPrefix(ctx context.Context, tx *gorm.DB, businessId string, warpCode string) (map[string]struct{}, error) {
	taken := make(map[string]struct{})

	var cutNumbers []string
	if err := tx.WithContext(ctx).Model(&FabricCut{}).
		Where("business_id = ? AND fabric_number LIKE ?", businessId, warpCode+"-%").
		Pluck("fabric_number", &cutNumbers).Error; err != nil {
		return nil, err
	}
	for _, n := range cutNumbers {
		taken[n] = struct{}{}
	}

	var receipts []ProcessingReceipt
	if err := tx.WithContext(ctx).
		Where("business_id = ? AND (new_fabric_number LIKE ? OR fabric_number LIKE ?)",
			businessId, warpCode+"-%", warpCode+"-%").
		Find(&receipts).Error; err != nil {
		return nil, err
	}
	for _, r := range receipts {
		taken[r.CurrentFabricNumber()] = struct{}{}
	}

	return taken, nil
}

func nextFabricNumberForWarp(ctx context.Context, tx *gorm.DB, businessId string, warpCode string) (string, error) {
	taken, err := takenNumbersForPrefix(ctx, tx, businessId, warpCode)
	if err != nil {
		return "", err
	}
	return NextFabricNumber(warpCode, taken), nil
}

// AllFabricCutNumbers loads every main-yard fabric number of a business
// as a set, for duplicate sweeps.
func AllFabricCutNumbers(ctx context.Context, tx *gorm.DB, businessId string) (map[string]struct{}, error) {
	var numbers []string
	err := tx.WithContext(ctx).Model(&FabricCut{}).
		Where("business_id = ?", businessId).
		Pluck("fabric_number", &numbers).Error
	if err != nil {
		return nil, err
	}
	taken := make(map[string]struct{}, len(numbers))
	for _, number := range numbers {
		taken[number] = struct{}{}
	}
	return taken, nil
}

func GetFabricCut(ctx context.Context, id int) (*FabricCut, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	return utils.FetchModel[FabricCut](ctx, businessId, id)
}

// GetFabricCutByNumber finds a main-yard cut by exact fabric number.
func GetFabricCutByNumber(ctx context.Context, tx *gorm.DB, businessId string, fabricNumber string) (*FabricCut, error) {
	var cut FabricCut
	err := tx.WithContext(ctx).
		Where("business_id = ? AND fabric_number = ?", businessId, fabricNumber).
		First(&cut).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &cut, nil
}

type UpdateFabricCut struct {
	Qty       *decimal.Decimal `json:"qty"`
	CutNumber *int             `json:"cut_number"`
	TotalCuts *int             `json:"total_cuts"`
}

// EditFabricCut corrects a cut's recorded quantity or numbering. With
// STRICT_CUT_IMMUTABLE set, a cut already committed to a processing order
// is frozen; it must be released from the order before it can be edited.
func EditFabricCut(ctx context.Context, id int, input *UpdateFabricCut) (*FabricCut, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	cut, err := utils.FetchModel[FabricCut](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	if input.Qty != nil && (input.Qty.IsZero() || input.Qty.IsNegative()) {
		return nil, utils.NewValidationError("cut quantity must be positive")
	}

	if config.StrictCutImmutability() {
		committed, err := IsCutCommitted(ctx, db, businessId, cut.FabricNumber)
		if err != nil {
			return nil, err
		}
		if committed {
			return nil, utils.NewConflictError("fabric cut " + cut.FabricNumber + " is committed to a processing order and cannot be edited")
		}
	}

	patch := map[string]interface{}{}
	if input.Qty != nil {
		patch["qty"] = *input.Qty
	}
	if input.CutNumber != nil {
		patch["cut_number"] = *input.CutNumber
	}
	if input.TotalCuts != nil {
		patch["total_cuts"] = *input.TotalCuts
	}
	if len(patch) == 0 {
		return cut, nil
	}

	if err := db.WithContext(ctx).Model(&FabricCut{}).
		Where("business_id = ? AND id = ?", businessId, id).
		Updates(patch).Error; err != nil {
		return nil, err
	}
	return utils.FetchModel[FabricCut](ctx, businessId, id)
}

// UpdateFabricCutLocation moves a cut; the cut record itself is never
// recreated.
func UpdateFabricCutLocation(ctx context.Context, tx *gorm.DB, businessId string, fabricNumber string, location string) error {
	result := tx.WithContext(ctx).Model(&FabricCut{}).
		Where("business_id = ? AND fabric_number = ?", businessId, fabricNumber).
		Update("location", location)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}

func PaginateFabricCut(
	ctx context.Context, limit *int, after *string,
	warpId *int,
	fabricNumber *string,
) (*FabricCutsConnection, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)

	if warpId != nil && *warpId > 0 {
		dbCtx.Where("warp_id = ?", *warpId)
	}

	if fabricNumber != nil && *fabricNumber != "" {
		dbCtx.Where("fabric_number LIKE ?", "%"+*fabricNumber+"%")
	}

	edges, pageInfo, err := FetchPageCompositeCursor[FabricCut](dbCtx, *limit, after, "created_at", "<")
	if err != nil {
		return nil, err
	}
	var fabricCutsConnection FabricCutsConnection
	fabricCutsConnection.PageInfo = pageInfo
	for _, edge := range edges {
		fabricCutsEdge := FabricCutsEdge(edge)
		fabricCutsConnection.Edges = append(fabricCutsConnection.Edges, &fabricCutsEdge)
	}

	return &fabricCutsConnection, err
}

type FabricCutsConnection struct {
	Edges    []*FabricCutsEdge `json:"edges"`
	PageInfo *PageInfo         `json:"pageInfo"`
}

type FabricCutsEdge Edge[FabricCut]
