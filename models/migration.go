package models

import (
	"log"

	"github.com/weavetrack/fabric_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Business{},
		&Order{}, &Loom{}, &Warp{},
		&FabricCut{}, &Inspection{},
		&ProcessingOrder{}, &ProcessingOrderSentCut{}, &ProcessingOrderReceivedCut{},
		&ProcessingReceipt{},
		&FabricMovement{}, &FabricMovementCut{},
		&Counter{},
		&IdempotencyKey{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
