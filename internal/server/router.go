package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"studiobooking/internal/clock"
	"studiobooking/internal/domain/booking"
	"studiobooking/internal/domain/catalog"
	"studiobooking/internal/domain/staff"
	"studiobooking/internal/middleware"
	"studiobooking/internal/pkg/jwt"
	"studiobooking/internal/pkg/response"
	"studiobooking/internal/realtime"
)

type Deps struct {
	DB          *gorm.DB
	JWT         *jwt.Service
	Log         *zap.Logger
	Clock       clock.Clock
	CORSOrigins []string
	// Publishers receive booking events in addition to the websocket hub.
	Publishers []booking.EventPublisher
}

// App is the assembled HTTP application.
type App struct {
	Router  *gin.Engine
	Service *booking.Service
	Hub     *realtime.Hub
}

// New wires repositories, the booking service and HTTP routes.
func New(d Deps) *App {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Clock == nil {
		d.Clock = clock.NewSystem()
	}

	hub := realtime.NewHub(d.Log.Named("realtime"))
	publishers := append(booking.Publishers{hub}, d.Publishers...)

	service := booking.NewService(
		booking.NewRepository(d.DB),
		catalog.NewRoomRepository(d.DB),
		catalog.NewEquipmentRepository(d.DB),
		staff.NewRepository(d.DB),
		booking.WithPublisher(publishers),
		booking.WithLogger(d.Log.Named("booking")),
		booking.WithClock(d.Clock),
	)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(d.Log))
	r.Use(middleware.RequestLogger(d.Log.Named("http")))
	r.Use(middleware.CORS(d.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	realtime.NewHandler(hub, d.JWT, service.Policy(), middleware.AllowedOrigins(d.CORSOrigins), d.Log).RegisterRoutes(r)

	v1 := r.Group("/api/v1")
	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(d.JWT))
	booking.NewHandler(service, d.Log).RegisterRoutes(protected)

	return &App{Router: r, Service: service, Hub: hub}
}

// Models lists every table the service owns, for AutoMigrate.
func Models() []any {
	models := catalog.Models()
	models = append(models, &staff.Assignment{})
	return append(models, booking.Models()...)
}
