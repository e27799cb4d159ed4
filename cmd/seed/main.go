// Seed loads demo farm data for one owner and prints a
// development token for it.
// Usage: go run ./cmd/seed [owner-uuid]
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/config"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/dto"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/infra"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/router"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	owner := uuid.New()
	if len(os.Args) > 1 {
		if owner, err = uuid.Parse(os.Args[1]); err != nil {
			log.Fatal().Err(err).Msg("owner must be a uuid")
		}
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	svcs, err := router.NewServices(cfg, db, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("wire services")
	}

	ctx := context.Background()
	today := time.Now().Format("2006-01-02")
	d := decimal.RequireFromString

	lots := []dto.UpsertFeedLotRequest{
		{FeedName: "Yonca balyası", FeedType: "roughage", Unit: "kg", Quantity: d("2000"), PricePerUnit: d("4.50"), MinStockLevel: d("300"), PurchaseDate: today},
		{FeedName: "Besi yemi", FeedType: "concentrate", Unit: "kg", Quantity: d("800"), PricePerUnit: d("11.20"), MinStockLevel: d("150"), PurchaseDate: today},
		{FeedName: "Mineral blok", FeedType: "supplement", Unit: "bag", Quantity: d("6"), PricePerUnit: d("95"), MinStockLevel: d("2"), PurchaseDate: today},
	}
	for _, l := range lots {
		if _, err := svcs.Inventory.UpsertFeedLot(ctx, owner, l); err != nil {
			log.Fatal().Err(err).Str("feed", l.FeedName).Msg("seed feed lot")
		}
	}

	settings := []dto.UpsertSettingRequest{
		{Species: "cattle", FeedType: "roughage", DailyConsumptionPerAnimal: d("12"), AutoDeductEnabled: true},
		{Species: "cattle", FeedType: "concentrate", DailyConsumptionPerAnimal: d("4"), AutoDeductEnabled: true},
		{Species: "sheep", FeedType: "concentrate", DailyConsumptionPerAnimal: d("0.5"), AutoDeductEnabled: true},
	}
	for _, s := range settings {
		if _, err := svcs.Policy.UpsertSetting(ctx, owner, s); err != nil {
			log.Fatal().Err(err).Msg("seed consumption setting")
		}
	}

	animals := []dto.CreateAnimalRequest{
		{TagNumber: "TR-0001", Species: "cattle", Gender: "female", PurchasePrice: d("45000"), PurchaseDate: &today},
		{TagNumber: "TR-0002", Species: "cattle", Gender: "male", PurchasePrice: d("52000"), PurchaseDate: &today},
		{TagNumber: "KY-0101", Species: "sheep", Gender: "female", PurchasePrice: d("6500"), PurchaseDate: &today},
		{TagNumber: "KY-0102", Species: "sheep", Gender: "female", PurchasePrice: d("6200"), PurchaseDate: &today},
	}
	for _, a := range animals {
		if _, err := svcs.Ledger.RecordAnimalPurchase(ctx, owner, a); err != nil {
			log.Fatal().Err(err).Str("tag", a.TagNumber).Msg("seed animal")
		}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   owner.String(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(30 * 24 * time.Hour)),
	})
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		log.Fatal().Err(err).Msg("sign token")
	}

	fmt.Printf("owner: %s\n", owner)
	fmt.Printf("token: %s\n", signed)
}
