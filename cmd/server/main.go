// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsscheduler "github.com/aws/aws-sdk-go-v2/service/scheduler"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/streadway/amqp"

	"github.com/dirihq/newsletter-service/internal/config"
	"github.com/dirihq/newsletter-service/internal/controller"
	"github.com/dirihq/newsletter-service/internal/db"
	"github.com/dirihq/newsletter-service/internal/dispatch"
	"github.com/dirihq/newsletter-service/internal/handler"
	"github.com/dirihq/newsletter-service/internal/queue"
	"github.com/dirihq/newsletter-service/internal/repository"
	"github.com/dirihq/newsletter-service/internal/schedule"
	"github.com/dirihq/newsletter-service/internal/service"
	"github.com/dirihq/newsletter-service/internal/snapshot"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg := config.Load()
	ctx := context.Background()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to DB:", err)
	}

	awsCfg, err := cfg.AWS(ctx)
	if err != nil {
		log.Fatal("failed to load AWS config:", err)
	}

	// Delivery queue transport
	var transport queue.BatchTransport
	switch cfg.QueueDriver {
	case "rabbit":
		rconn, err := amqp.Dial(cfg.AMQPURL)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ:", err)
		}
		ch, err := rconn.Channel()
		if err != nil {
			log.Fatal("Failed to open a channel:", err)
		}
		transport, err = queue.NewRabbitTransport(ch, cfg.AMQPQueue)
		if err != nil {
			log.Fatal("Failed to set up queue transport:", err)
		}
	default:
		transport = queue.NewSQSTransport(sqs.NewFromConfig(awsCfg), cfg.SQSQueueURL)
	}

	dispatcher := dispatch.New(transport, cfg.AppBaseURL)

	scheduleManager, err := schedule.NewEventBridgeManager(
		awsscheduler.NewFromConfig(awsCfg),
		cfg.ScheduleTargetArn, cfg.ScheduleRoleArn, cfg.ScheduleTimezone,
	)
	if err != nil {
		log.Fatal("failed to set up schedule manager:", err)
	}

	snapshots := snapshot.NewS3Store(s3.NewFromConfig(awsCfg), cfg.S3Bucket)

	campaignRepo := &repository.CampaignRepository{DB: conn}
	segmentRepo := &repository.SegmentRepository{DB: conn}
	subscriberRepo := &repository.SubscriberRepository{DB: conn}

	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		SegmentRepo:  segmentRepo,
		Snapshots:    snapshots,
		Scheduler:    scheduleManager,
		Dispatcher:   dispatcher,
	}

	campaignController := &controller.CampaignController{
		CampaignService: campaignService,
		SegmentRepo:     segmentRepo,
	}
	segmentController := &controller.SegmentController{
		SegmentRepo:    segmentRepo,
		SubscriberRepo: subscriberRepo,
	}
	subscriberController := &controller.SubscriberController{
		SubscriberRepo: subscriberRepo,
	}
	publicHandler := &handler.PublicHandler{
		APIKey:         cfg.APIKey,
		Dispatcher:     dispatcher,
		SubscriberRepo: subscriberRepo,
	}

	r := chi.NewRouter()

	// Campaign routes
	r.Post("/campaigns", campaignController.SaveCampaign)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{id}", campaignController.FindCampaign)
	r.Put("/campaigns/{id}", campaignController.UpdateCampaign)
	r.Delete("/campaigns/{id}", campaignController.DeleteCampaign)

	// Segment routes
	r.Get("/segments", segmentController.ListSegments)
	r.Post("/segments", segmentController.CreateSegment)
	r.Get("/segments/{id}/subscribers", segmentController.GetSegmentSubscribers)
	r.Post("/segments/subscribers", segmentController.AddSubscribers)

	// Subscriber routes
	r.Get("/subscribers", subscriberController.ListSubscribers)

	// Public routes (schedule target + unsubscribe links)
	r.Post("/api/compose/send-email", publicHandler.SendEmail)
	r.Post("/unsubscribe/{subscribeId}", publicHandler.Unsubscribe)
	r.Get("/api/subscribers/lookup", publicHandler.LookupSubscriber)
	r.Post("/api/subscribers/{subscriberId}/lists", publicHandler.UpdateSubscriberLists)

	log.Println("🚀 Server running on :" + cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
