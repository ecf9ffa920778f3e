package boot

import (
	"context"
	"log"
	"ticketcore/src/config"
	"ticketcore/src/db"
	"ticketcore/src/lib"
	awslib "ticketcore/src/lib/aws"
	"ticketcore/src/models"
	"ticketcore/src/services"
	"ticketcore/src/store/memstore"
	"ticketcore/src/store/pgstore"
	"ticketcore/src/types"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func InitStore(cfg *config.Config) services.Repository {
	if cfg.StoreDriver == config.STORE_MEMORY {
		store := memstore.New(cfg.LockTimeout)
		if cfg.AppEnv == "local" {
			SeedDemo(store)
		}
		log.Println("[boot] Using in-memory store")
		return store
	}

	d := db.GetDb(cfg.DSN(), db.PoolSettings{
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	})
	if err := db.Migrate(d); err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}
	return pgstore.New(d, cfg.LockTimeout)
}

// InitCredentials builds the QR credential sealer. The key comes from
// API_QRC_SECRET or, when unset, from AWS Secrets Manager.
func InitCredentials(ctx context.Context, cfg *config.Config) (*lib.SealedCredentials, error) {
	secret := cfg.QrSecret
	if secret == "" {
		client, err := lib.AWSGetSecretsManagerClient(ctx)
		if err != nil {
			return nil, err
		}
		if secret, err = lib.GetSecretString(ctx, client, cfg.QrSecretID); err != nil {
			return nil, err
		}
	}
	key, err := config.ParseQrSecret(secret)
	if err != nil {
		return nil, err
	}
	return lib.NewSealedCredentials(key)
}

// InitPublisher prefers Kafka, then SNS. It returns nil when neither is
// configured.
func InitPublisher(ctx context.Context, cfg *config.Config) (services.Publisher, func()) {
	if cfg.KafkaBroker == "" {
		if cfg.EventsTopicArn != "" {
			p, err := awslib.NewSNSPublisher(ctx, cfg.EventsTopicArn)
			if err != nil {
				log.Printf("[boot] SNS publisher disabled: %s\n", err.Error())
				return nil, func() {}
			}
			return p, func() {}
		}
		log.Println("[boot] KAFKA_BROKER not set, ticket events are not published")
		return nil, func() {}
	}
	p, err := lib.NewKafkaPublisher(cfg.KafkaBroker, cfg.KafkaClientID, cfg.KafkaTopic)
	if err != nil {
		log.Printf("[boot] Kafka publisher disabled: %s\n", err.Error())
		return nil, func() {}
	}
	return p, func() { p.Close(5000) }
}

// InitQrCache returns nil when redis is not configured.
func InitQrCache(cfg *config.Config) services.ImageCache {
	if cfg.RedisHost == "" {
		return nil
	}
	rdb := lib.GetRedisClient(cfg.RedisHost)
	if rdb == nil {
		return nil
	}
	return lib.NewQrCache(rdb, cfg.QrCacheTTL)
}

func InitScheduler(cfg *config.Config, inventory *services.InventoryService) {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	if _, err := lib.CreateCronJob("refresh-availability", cfg.AvailabilityRefresh, inventory.RefreshAvailability); err != nil {
		log.Printf("Error running job: %s\n", err.Error())
		return
	}
	log.Println("Jobs in queue:", len(sched.Jobs()))
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	if err := sched.Shutdown(); err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
	}
}

// SeedDemo loads one event with two ticket types plus an attendee and a staff
// user, so a local server can be exercised without a database.
func SeedDemo(store *memstore.Store) {
	start := time.Now().Add(7 * 24 * time.Hour).UTC()
	event := models.Event{
		ID:     uuid.New(),
		Name:   "Demo Night",
		Venue:  "Main Hall",
		Start:  &start,
		Status: types.EVENT_PUBLISHED,
	}
	store.AddEvent(event)

	for _, tt := range []models.TicketType{
		{ID: uuid.New(), EventID: event.ID, Name: "General Admission", Price: decimal.NewFromInt(30), TotalAvailable: 100},
		{ID: uuid.New(), EventID: event.ID, Name: "VIP", Price: decimal.NewFromInt(120), TotalAvailable: 10},
	} {
		store.AddTicketType(tt)
		log.Printf("[boot] Seeded ticket type %s (%s)\n", tt.ID, tt.Name)
	}

	store.AddUser(models.User{ID: uuid.New(), Subject: "demo-attendee", Name: "Demo Attendee", Role: types.ROLE_ATTENDEE})
	store.AddUser(models.User{ID: uuid.New(), Subject: "demo-staff", Name: "Demo Staff", Role: types.ROLE_STAFF})
	log.Println("[boot] Seeded users demo-attendee and demo-staff")
}
