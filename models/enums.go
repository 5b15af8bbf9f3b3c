package models

import "errors"

type OrderStatus string

const (
	OrderStatusNew      OrderStatus = "New"
	OrderStatusActive   OrderStatus = "Active"
	OrderStatusComplete OrderStatus = "Complete"
)

func (s OrderStatus) Validate() error {
	switch s {
	case OrderStatusNew, OrderStatusActive, OrderStatusComplete:
		return nil
	}
	return errors.New("invalid order status")
}

type WarpStatus string

const (
	WarpStatusActive   WarpStatus = "Active"
	WarpStatusComplete WarpStatus = "Complete"
)

func (s WarpStatus) Validate() error {
	switch s {
	case WarpStatusActive, WarpStatusComplete:
		return nil
	}
	return errors.New("invalid warp status")
}

type InspectionType string

const (
	InspectionTypeFourPoint InspectionType = "FourPoint"
	InspectionTypeUnwashed  InspectionType = "Unwashed"
	InspectionTypeWashed    InspectionType = "Washed"
)

func (t InspectionType) Validate() error {
	switch t {
	case InspectionTypeFourPoint, InspectionTypeUnwashed, InspectionTypeWashed:
		return nil
	}
	return errors.New("invalid inspection type")
}

type ProcessingOrderStatus string

const (
	ProcessingOrderStatusSent              ProcessingOrderStatus = "Sent"
	ProcessingOrderStatusPartiallyReceived ProcessingOrderStatus = "PartiallyReceived"
	ProcessingOrderStatusClosed            ProcessingOrderStatus = "Closed"
)

func (s ProcessingOrderStatus) Validate() error {
	switch s {
	case ProcessingOrderStatusSent, ProcessingOrderStatusPartiallyReceived, ProcessingOrderStatusClosed:
		return nil
	}
	return errors.New("invalid processing order status")
}

type MovementStatus string

const (
	MovementStatusPending  MovementStatus = "Pending"
	MovementStatusReceived MovementStatus = "Received"
)

func (s MovementStatus) Validate() error {
	switch s {
	case MovementStatusPending, MovementStatusReceived:
		return nil
	}
	return errors.New("invalid movement status")
}

type IdempotencyStatus string

const (
	IdempotencyStatusStarted   IdempotencyStatus = "STARTED"
	IdempotencyStatusSucceeded IdempotencyStatus = "SUCCEEDED"
	IdempotencyStatusFailed    IdempotencyStatus = "FAILED"
)

// Well-known physical locations. Cut locations are free-form strings
// (warehouses and processing centers are named by operators); these two are
// the ones the engine itself reasons about.
const (
	LocationMainYard   = "MainYard"
	LocationProcessing = "Processing"
)
