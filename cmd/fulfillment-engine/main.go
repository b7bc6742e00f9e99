package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/Cheertaboi/order-fulfillment-engine/internal/config"
	"github.com/Cheertaboi/order-fulfillment-engine/internal/ledger"
	"github.com/Cheertaboi/order-fulfillment-engine/internal/models"
	"github.com/Cheertaboi/order-fulfillment-engine/internal/promo"
	"github.com/Cheertaboi/order-fulfillment-engine/internal/repository"
	"github.com/Cheertaboi/order-fulfillment-engine/internal/service"
)

// request is one email's worth of resolved lines, as produced by the
// upstream resolution step.
type request struct {
	EmailID string                 `json:"email_id"`
	Lines   []models.RequestedLine `json:"lines"`
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()

	if len(os.Args) != 2 {
		log.Fatalf("usage: %s <request.json>", os.Args[0])
	}

	cfg := config.Load()
	catalogPath := getenv("CATALOG_PATH", "catalog.json")
	promoPath := getenv("PROMOTIONS_PATH", "promotions.yaml")

	catalog, err := repository.LoadCatalogFile(catalogPath)
	if err != nil {
		log.Fatalf("load catalog: %v", err)
	}

	promos, err := promo.LoadFile(promoPath)
	if err != nil {
		log.Fatalf("load promotions: %v", err)
	}
	for _, rej := range promos.Rejected {
		log.Printf("promotion %s rejected: %v", rej.Name, rej.Err)
	}

	raw, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("read request: %v", err)
	}
	var req request
	if err := json.Unmarshal(raw, &req); err != nil {
		log.Fatalf("decode request: %v", err)
	}

	stock := ledger.FromCatalog(catalog.All())
	svc := service.NewOrderService(catalog, stock, promos.Specs, cfg)

	order, err := svc.ProcessOrder(context.Background(), req.EmailID, req.Lines)
	if err != nil {
		log.Fatalf("process order: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(order); err != nil {
		log.Fatalf("encode order: %v", err)
	}
}
