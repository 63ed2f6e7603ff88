package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/evfinder/chargefinder/backend-go/internal/api"
	"github.com/evfinder/chargefinder/backend-go/internal/config"
	"github.com/evfinder/chargefinder/backend-go/internal/discovery"
	"github.com/evfinder/chargefinder/backend-go/internal/models"
	"github.com/evfinder/chargefinder/backend-go/internal/provider"
	"github.com/evfinder/chargefinder/backend-go/internal/store"
	"github.com/evfinder/chargefinder/backend-go/pkg/http/client"
)

// chargerService is what the handler needs from the discovery layer; tests
// swap in a mock.
type chargerService interface {
	Discover(ctx context.Context, lat, lon float64) ([]models.Charger, error)
	List(ctx context.Context, status, plugType string) ([]models.Charger, error)
	Get(ctx context.Context, id string) (*models.Charger, error)
	Create(ctx context.Context, charger models.Charger) (*models.Charger, error)
	GetStats(ctx context.Context) (*discovery.Stats, error)
}

var (
	chargerSvc  chargerService
	setupOnce   sync.Once
	lambdaStart = lambda.Start
)

func setup() {
	cfg := config.LoadFromEnv()
	cfg.InitializeLogging()

	log.Info().Str("env", cfg.Environment).Msg("Environment")
	log.Debug().Msg("Debug logs enabled")

	ctx := context.Background()

	dynamoClient, err := store.NewDynamoClient(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create DynamoDB client")
	}
	chargerStore := store.NewDynamoStore(dynamoClient, cfg.ChargersTable)

	httpClient := client.New(client.Options{
		BaseURL: cfg.ProviderBaseURL,
		Timeout: cfg.HTTPTimeout,
		Headers: map[string]string{"X-Api-Key": cfg.ProviderAPIKey},
	})

	providerOpts := []provider.Option{}
	if cache, err := provider.NewFetchCache(cfg.ProviderCacheSize, cfg.ProviderCacheTTL); err == nil {
		providerOpts = append(providerOpts, provider.WithCache(cache))
	}
	if cfg.SnapshotBucket != "" {
		s3Client, err := provider.NewS3Client(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Snapshot archive disabled")
		} else {
			archive := provider.NewSnapshotArchive(s3Client, cfg.SnapshotBucket)
			providerOpts = append(providerOpts, provider.WithSnapshotArchive(archive))
		}
	}
	fetcher := provider.NewClient(httpClient, providerOpts...)

	chargerSvc = discovery.NewService(chargerStore, fetcher, cfg.SearchRadiusKm)
}

func handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	params := request.QueryStringParameters

	log.Info().
		Str("method", request.HTTPMethod).
		Str("path", request.Path).
		Msg("Handling Lambda request")

	if request.HTTPMethod == http.MethodPost {
		return handleCreate(ctx, request)
	}

	if strings.HasSuffix(request.Path, "/stats") {
		stats, err := chargerSvc.GetStats(ctx)
		if err != nil {
			return api.Error("Error computing stats", http.StatusInternalServerError)
		}
		return api.Success(stats)
	}

	if id, ok := params["id"]; ok {
		charger, err := chargerSvc.Get(ctx, id)
		if err != nil {
			return api.Error("Error finding charger", http.StatusInternalServerError)
		}
		if charger == nil {
			return api.Error("Charger not found", http.StatusNotFound)
		}
		return api.Success(api.NewChargerResponse(*charger))
	}

	lat, lon, hasCoords, err := api.ParseCoordinates(params)
	if err != nil {
		switch err.(type) {
		case api.InvalidCoordinatesError, api.MissingCoordinateError:
			return api.Error(err.Error(), http.StatusBadRequest)
		default:
			return api.Error("Invalid parameters", http.StatusBadRequest)
		}
	}

	if !hasCoords {
		chargers, err := chargerSvc.List(ctx, params["status"], params["plugType"])
		if err != nil {
			return api.Error("Error listing chargers", http.StatusInternalServerError)
		}
		return api.Success(api.NewChargersResponse(chargers))
	}

	chargers, err := chargerSvc.Discover(ctx, lat, lon)
	if err != nil {
		return api.Error("Error finding chargers", http.StatusInternalServerError)
	}

	return api.Success(api.NewChargersResponse(chargers))
}

// createChargerRequest mirrors models.Charger with a pointer enabled flag so
// an omitted field is distinguishable from an explicit false.
type createChargerRequest struct {
	Name        string               `json:"name"`
	Latitude    float64              `json:"latitude"`
	Longitude   float64              `json:"longitude"`
	Address     string               `json:"address"`
	Country     string               `json:"country"`
	PlugType    string               `json:"plugType"`
	Status      models.ChargerStatus `json:"status"`
	PricePerKwh float64              `json:"pricePerKwh"`
	Enabled     *bool                `json:"enabled"`
}

func handleCreate(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var payload createChargerRequest
	if err := json.Unmarshal([]byte(request.Body), &payload); err != nil {
		return api.Error("Invalid request body", http.StatusBadRequest)
	}

	if payload.Latitude < -90 || payload.Latitude > 90 ||
		payload.Longitude < -180 || payload.Longitude > 180 {
		return api.Error("Invalid coordinates", http.StatusBadRequest)
	}

	charger := models.Charger{
		Name:        payload.Name,
		Latitude:    payload.Latitude,
		Longitude:   payload.Longitude,
		Address:     payload.Address,
		Country:     payload.Country,
		PlugType:    payload.PlugType,
		Status:      payload.Status,
		PricePerKwh: payload.PricePerKwh,
		// Chargers are enabled at creation unless the operator says otherwise.
		Enabled: payload.Enabled == nil || *payload.Enabled,
	}

	if charger.Status == "" {
		charger.Status = models.StatusUnknown
	}

	created, err := chargerSvc.Create(ctx, charger)
	if err != nil || created == nil {
		return api.Error("Error creating charger", http.StatusInternalServerError)
	}

	return api.Success(api.NewChargerResponse(*created))
}

func main() {
	setupOnce.Do(setup)
	lambdaStart(handleRequest)
}
