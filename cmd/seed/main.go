package main

import (
	"context"
	"fmt"
	"log"

	"go.uber.org/zap"

	"studiobooking/internal/config"
	"studiobooking/internal/database"
	"studiobooking/internal/domain/catalog"
	"studiobooking/internal/domain/staff"
	"studiobooking/internal/pkg/jwt"
	"studiobooking/internal/pkg/logger"
	"studiobooking/internal/server"
)

// Seeds a demo studio with rooms, equipment and a staff assignment, then
// prints development tokens for each role.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.IsProdLike() {
		log.Fatal("refusing to seed a production-like environment")
	}

	lg, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx := context.Background()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		lg.Fatal("connect", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()

	if err := database.Migrate(ctx, db, lg, server.Models()...); err != nil {
		lg.Fatal("migrate", zap.Error(err))
	}

	const (
		ownerID   int64 = 1
		clientID  int64 = 100
		staffID   int64 = 200
		managerID int64 = 300
		adminID   int64 = 400
	)

	studios := catalog.NewStudioRepository(db)
	rooms := catalog.NewRoomRepository(db)
	equipment := catalog.NewEquipmentRepository(db)

	studio := &catalog.Studio{OwnerID: ownerID, Name: "Light Box", Address: "12 Abay Ave", City: "Almaty"}
	if err := studios.Create(ctx, studio); err != nil {
		lg.Fatal("create studio", zap.Error(err))
	}

	for _, room := range []*catalog.Room{
		{StudioID: studio.ID, Name: "Daylight Hall", Capacity: 10, PricePerHour: 100, IsActive: true},
		{StudioID: studio.ID, Name: "Cyclorama", Capacity: 6, PricePerHour: 150, IsActive: true},
	} {
		if err := rooms.Create(ctx, room); err != nil {
			lg.Fatal("create room", zap.Error(err))
		}
		lg.Info("room seeded", zap.Int64("id", room.ID), zap.String("name", room.Name))
	}

	for _, item := range []*catalog.Equipment{
		{StudioID: studio.ID, Name: "Profoto B10", Category: "lighting", DailyRate: 30},
		{StudioID: studio.ID, Name: "Backdrop set", Category: "backdrop", DailyRate: 15},
	} {
		if err := equipment.Create(ctx, item); err != nil {
			lg.Fatal("create equipment", zap.Error(err))
		}
		lg.Info("equipment seeded", zap.Int64("id", item.ID), zap.String("name", item.Name))
	}

	if err := staff.NewRepository(db).Assign(ctx, staffID, studio.ID); err != nil {
		lg.Fatal("assign staff", zap.Error(err))
	}

	tokens := jwt.New(cfg.JWTSecret, cfg.JWTAccessTTL)
	for _, u := range []struct {
		id   int64
		role string
	}{
		{clientID, "client"},
		{staffID, "staff"},
		{managerID, "manager"},
		{adminID, "admin"},
	} {
		tok, err := tokens.GenerateToken(u.id, u.role)
		if err != nil {
			lg.Fatal("generate token", zap.Error(err))
		}
		fmt.Printf("%-8s user_id=%d token=%s\n", u.role, u.id, tok)
	}
}
