package main

import (
	"time"

	"github.com/chogo-next/internal/config"
	"github.com/chogo-next/internal/constants"
	"github.com/chogo-next/internal/logger"
	"github.com/chogo-next/internal/models"

	"github.com/shopspring/decimal"
)

// Development fixture data: two shops with a small catalog plus a couple of
// vouchers, enough to exercise checkout, split fulfillment and refunds.
func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("failed to migrate database: %v", err)
	}

	shops := []models.Shop{
		{OwnerID: 101, Name: "Aurora Electronics", IsActive: true},
		{OwnerID: 102, Name: "Willow Home Goods", IsActive: true},
	}
	for i := range shops {
		if err := models.DB.Where("owner_id = ?", shops[i].OwnerID).FirstOrCreate(&shops[i]).Error; err != nil {
			stdLog.Fatalf("failed to seed shop %q: %v", shops[i].Name, err)
		}
	}

	type variantSeed struct {
		skuCode string
		name    string
		price   string
		qty     int
	}
	type productSeed struct {
		shopIdx     int
		name        string
		description string
		variants    []variantSeed
	}
	products := []productSeed{
		{
			shopIdx:     0,
			name:        "Wireless Earbuds",
			description: "Bluetooth 5.3 earbuds with charging case",
			variants: []variantSeed{
				{skuCode: "AE-EARBUD-BLK", name: "Black", price: "590000", qty: 120},
				{skuCode: "AE-EARBUD-WHT", name: "White", price: "590000", qty: 80},
			},
		},
		{
			shopIdx:     0,
			name:        "USB-C Fast Charger",
			description: "65W GaN wall charger",
			variants: []variantSeed{
				{skuCode: "AE-CHGR-65W", name: "65W", price: "350000", qty: 200},
			},
		},
		{
			shopIdx:     1,
			name:        "Ceramic Mug Set",
			description: "Set of four stoneware mugs",
			variants: []variantSeed{
				{skuCode: "WH-MUG-4PK", name: "4-pack", price: "280000", qty: 60},
			},
		},
	}

	for _, p := range products {
		product := models.Product{
			ShopID:      shops[p.shopIdx].ID,
			Name:        p.name,
			Description: p.description,
			IsActive:    true,
		}
		if err := models.DB.Where("shop_id = ? AND name = ?", product.ShopID, product.Name).
			FirstOrCreate(&product).Error; err != nil {
			stdLog.Fatalf("failed to seed product %q: %v", p.name, err)
		}
		for _, v := range p.variants {
			price, err := decimal.NewFromString(v.price)
			if err != nil {
				stdLog.Fatalf("bad seed price %q: %v", v.price, err)
			}
			variant := models.Variant{
				ProductID:   product.ID,
				SKUCode:     v.skuCode,
				Name:        v.name,
				PriceAmount: models.NewMoneyFromDecimal(price),
				Quantity:    v.qty,
				IsActive:    true,
			}
			if err := models.DB.Where("sku_code = ?", v.skuCode).FirstOrCreate(&variant).Error; err != nil {
				stdLog.Fatalf("failed to seed variant %q: %v", v.skuCode, err)
			}
		}
	}

	now := time.Now()
	endsAt := now.AddDate(0, 1, 0)
	vouchers := []models.Voucher{
		{
			Code:          "WELCOME10",
			Scope:         constants.VoucherScopePlatform,
			Type:          constants.VoucherTypePercentage,
			Value:         models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
			MaxDiscount:   models.NewMoneyFromDecimal(decimal.NewFromInt(100000)),
			MinOrderValue: models.NewMoneyFromDecimal(decimal.NewFromInt(200000)),
			UsageLimit:    500,
			PerUserLimit:  1,
			StartsAt:      &now,
			EndsAt:        &endsAt,
			IsActive:      true,
		},
		{
			Code:          "AURORA50K",
			Scope:         constants.VoucherScopeShop,
			ShopID:        &shops[0].ID,
			Type:          constants.VoucherTypeFixed,
			Value:         models.NewMoneyFromDecimal(decimal.NewFromInt(50000)),
			MinOrderValue: models.NewMoneyFromDecimal(decimal.NewFromInt(500000)),
			UsageLimit:    100,
			StartsAt:      &now,
			EndsAt:        &endsAt,
			IsActive:      true,
		},
	}
	for i := range vouchers {
		if err := models.DB.Where("code = ?", vouchers[i].Code).FirstOrCreate(&vouchers[i]).Error; err != nil {
			stdLog.Fatalf("failed to seed voucher %q: %v", vouchers[i].Code, err)
		}
	}

	stdLog.Printf("seed completed: %d shops, %d products, %d vouchers", len(shops), len(products), len(vouchers))
}
