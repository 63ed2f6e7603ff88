package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/evfinder/chargefinder/backend-go/internal/models"
)

// DynamoDBClient defines the DynamoDB operations the store needs
type DynamoDBClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoStore persists chargers in a DynamoDB table keyed by coordinate key,
// which gives coordinate uniqueness for free: an insert is conditional on the
// key being absent, and a conflict is downgraded to a live-field update.
type DynamoStore struct {
	client    DynamoDBClient
	tableName string
}

func NewDynamoStore(client DynamoDBClient, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
	}
}

func (s *DynamoStore) FindNearby(ctx context.Context, lat, lon, radiusKm float64) ([]models.Charger, error) {
	chargers, err := s.scanAll(ctx)
	if err != nil {
		return nil, err
	}
	return nearbyOf(chargers, lat, lon, radiusKm), nil
}

func (s *DynamoStore) FindByCoordinates(ctx context.Context, lat, lon float64) (*models.Charger, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"coordKey": &types.AttributeValueMemberS{Value: CoordinateKey(lat, lon)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("getting charger from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var charger models.Charger
	if err := attributevalue.UnmarshalMap(result.Item, &charger); err != nil {
		return nil, fmt.Errorf("unmarshaling charger record: %w", err)
	}
	return &charger, nil
}

func (s *DynamoStore) FindByID(ctx context.Context, id string) (*models.Charger, error) {
	chargers, err := s.scanAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range chargers {
		if chargers[i].ID == id {
			return &chargers[i], nil
		}
	}
	return nil, nil
}

func (s *DynamoStore) FindByStatus(ctx context.Context, status models.ChargerStatus) ([]models.Charger, error) {
	return s.filtered(ctx, func(c models.Charger) bool { return c.Status == status })
}

func (s *DynamoStore) FindByPlugType(ctx context.Context, plugType string) ([]models.Charger, error) {
	return s.filtered(ctx, func(c models.Charger) bool { return c.PlugType == plugType })
}

func (s *DynamoStore) FindAll(ctx context.Context) ([]models.Charger, error) {
	return s.filtered(ctx, func(models.Charger) bool { return true })
}

func (s *DynamoStore) Insert(ctx context.Context, chargers []models.Charger) ([]models.Charger, error) {
	inserted := make([]models.Charger, 0, len(chargers))
	for _, charger := range chargers {
		if charger.ID == "" {
			charger.ID = uuid.NewString()
		}

		item, err := s.marshalCharger(charger)
		if err != nil {
			return nil, err
		}

		_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           aws.String(s.tableName),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(coordKey)"),
		})
		if err != nil {
			var conditionFailed *types.ConditionalCheckFailedException
			if errors.As(err, &conditionFailed) {
				// A concurrent sync got there first. Re-read and apply only
				// the live fields, as an ordinary matched update would.
				if err := s.updateLiveFields(ctx, charger); err != nil {
					return nil, err
				}
				log.Debug().
					Str("coord_key", CoordinateKey(charger.Latitude, charger.Longitude)).
					Msg("Insert conflict on coordinates, applied as update")
				continue
			}
			return nil, fmt.Errorf("putting charger in DynamoDB: %w", err)
		}
		inserted = append(inserted, charger)
	}
	return inserted, nil
}

func (s *DynamoStore) Update(ctx context.Context, charger models.Charger) error {
	item, err := s.marshalCharger(charger)
	if err != nil {
		return err
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("updating charger in DynamoDB: %w", err)
	}
	return nil
}

func (s *DynamoStore) marshalCharger(charger models.Charger) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(charger)
	if err != nil {
		return nil, fmt.Errorf("marshaling charger record: %w", err)
	}
	item["coordKey"] = &types.AttributeValueMemberS{Value: CoordinateKey(charger.Latitude, charger.Longitude)}
	return item, nil
}

func (s *DynamoStore) updateLiveFields(ctx context.Context, incoming models.Charger) error {
	existing, err := s.FindByCoordinates(ctx, incoming.Latitude, incoming.Longitude)
	if err != nil {
		return err
	}
	if existing == nil {
		// The conflicting item vanished between the put and the read;
		// nothing sensible to update.
		return nil
	}
	applyLiveFields(existing, incoming)
	return s.Update(ctx, *existing)
}

func (s *DynamoStore) filtered(ctx context.Context, keep func(models.Charger) bool) ([]models.Charger, error) {
	chargers, err := s.scanAll(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]models.Charger, 0)
	for _, c := range chargers {
		if c.Enabled && keep(c) {
			results = append(results, c)
		}
	}
	return results, nil
}

func (s *DynamoStore) scanAll(ctx context.Context) ([]models.Charger, error) {
	var chargers []models.Charger
	var startKey map[string]types.AttributeValue

	for {
		result, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scanning chargers table: %w", err)
		}

		var page []models.Charger
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshaling charger records: %w", err)
		}
		chargers = append(chargers, page...)

		if result.LastEvaluatedKey == nil {
			break
		}
		startKey = result.LastEvaluatedKey
	}

	return chargers, nil
}
